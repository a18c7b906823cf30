// Package app provides save state functionality for the NES emulator.
package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gones/internal/bus"
)

// StateManager manages on-disk save state slots. Each slot holds the exact
// binary blob produced by Bus.SaveState (see spec.md's jNES format);
// loading simply hands that blob back to Bus.LoadState.
type StateManager struct {
	saveDirectory string
	maxSlots      int
	initialized   bool
}

// StateSlotInfo describes one save slot on disk.
type StateSlotInfo struct {
	SlotNumber int
	Used       bool
	Timestamp  time.Time
	FilePath   string
	FileSize   int64
}

// NewStateManager creates a state manager rooted at saveDirectory.
func NewStateManager(saveDirectory string) *StateManager {
	manager := &StateManager{
		saveDirectory: saveDirectory,
		maxSlots:      10,
	}
	if err := manager.initialize(); err != nil {
		fmt.Printf("Warning: state manager initialization failed: %v\n", err)
	}
	return manager
}

func (sm *StateManager) initialize() error {
	if err := os.MkdirAll(sm.saveDirectory, 0755); err != nil {
		return fmt.Errorf("failed to create save directory: %v", err)
	}
	sm.initialized = true
	return nil
}

// SaveState captures the bus's current state into the given slot.
func (sm *StateManager) SaveState(b *bus.Bus, slot int, romPath string) error {
	if !sm.initialized {
		return fmt.Errorf("state manager not initialized")
	}
	if slot < 0 || slot >= sm.maxSlots {
		return fmt.Errorf("invalid save slot: %d (must be 0-%d)", slot, sm.maxSlots-1)
	}
	if b == nil {
		return fmt.Errorf("bus cannot be nil")
	}

	data, err := b.SaveState()
	if err != nil {
		return fmt.Errorf("failed to capture state: %v", err)
	}

	filePath := sm.getSlotFilePath(slot, romPath)
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write save state: %v", err)
	}
	return nil
}

// LoadState restores the bus from a previously saved slot.
func (sm *StateManager) LoadState(b *bus.Bus, slot int, romPath string) error {
	if !sm.initialized {
		return fmt.Errorf("state manager not initialized")
	}
	if slot < 0 || slot >= sm.maxSlots {
		return fmt.Errorf("invalid save slot: %d (must be 0-%d)", slot, sm.maxSlots-1)
	}
	if b == nil {
		return fmt.Errorf("bus cannot be nil")
	}

	filePath := sm.getSlotFilePath(slot, romPath)
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("save state not found in slot %d", slot)
		}
		return fmt.Errorf("failed to read save state: %v", err)
	}

	return b.LoadState(data)
}

// ExportState writes the bus's current state to an arbitrary file path.
func (sm *StateManager) ExportState(b *bus.Bus, filePath string) error {
	if b == nil {
		return fmt.Errorf("bus cannot be nil")
	}
	data, err := b.SaveState()
	if err != nil {
		return fmt.Errorf("failed to capture state: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %v", err)
	}
	return os.WriteFile(filePath, data, 0644)
}

// ImportState restores the bus from an arbitrary file path.
func (sm *StateManager) ImportState(b *bus.Bus, filePath string) error {
	if b == nil {
		return fmt.Errorf("bus cannot be nil")
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read save state: %v", err)
	}
	return b.LoadState(data)
}

func (sm *StateManager) getSlotFilePath(slot int, romPath string) string {
	romName := filepath.Base(romPath)
	romNameWithoutExt := romName[:len(romName)-len(filepath.Ext(romName))]
	fileName := fmt.Sprintf("%s_slot_%d.sav", romNameWithoutExt, slot)
	return filepath.Join(sm.saveDirectory, fileName)
}

// GetSlotInfo reports the on-disk status of every save slot for a ROM.
func (sm *StateManager) GetSlotInfo(romPath string) []StateSlotInfo {
	slots := make([]StateSlotInfo, sm.maxSlots)
	for i := 0; i < sm.maxSlots; i++ {
		slotInfo := StateSlotInfo{SlotNumber: i}
		filePath := sm.getSlotFilePath(i, romPath)
		if stat, err := os.Stat(filePath); err == nil {
			slotInfo.Used = true
			slotInfo.FilePath = filePath
			slotInfo.FileSize = stat.Size()
			slotInfo.Timestamp = stat.ModTime()
		}
		slots[i] = slotInfo
	}
	return slots
}

// DeleteState removes a save slot from disk.
func (sm *StateManager) DeleteState(slot int, romPath string) error {
	if !sm.initialized {
		return fmt.Errorf("state manager not initialized")
	}
	if slot < 0 || slot >= sm.maxSlots {
		return fmt.Errorf("invalid save slot: %d", slot)
	}
	filePath := sm.getSlotFilePath(slot, romPath)
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return fmt.Errorf("save state not found in slot %d", slot)
	}
	return os.Remove(filePath)
}

// HasSaveState reports whether a slot is occupied.
func (sm *StateManager) HasSaveState(slot int, romPath string) bool {
	if slot < 0 || slot >= sm.maxSlots {
		return false
	}
	_, err := os.Stat(sm.getSlotFilePath(slot, romPath))
	return err == nil
}

// GetMaxSlots returns the maximum number of save slots.
func (sm *StateManager) GetMaxSlots() int { return sm.maxSlots }

// SetMaxSlots sets the maximum number of save slots.
func (sm *StateManager) SetMaxSlots(slots int) {
	if slots > 0 {
		sm.maxSlots = slots
	}
}

// GetSaveDirectory returns the save directory path.
func (sm *StateManager) GetSaveDirectory() string { return sm.saveDirectory }

// SetSaveDirectory changes the save directory, creating it if needed.
func (sm *StateManager) SetSaveDirectory(directory string) error {
	sm.saveDirectory = directory
	return sm.initialize()
}

// Cleanup releases state manager resources.
func (sm *StateManager) Cleanup() error {
	sm.initialized = false
	return nil
}

// StateManagerStats summarizes save slot usage for a ROM.
type StateManagerStats struct {
	MaxSlots      int
	UsedSlots     int
	FreeSlots     int
	TotalSize     int64
	SaveDirectory string
	Initialized   bool
}

// GetStateManagerStats reports slot usage statistics for a ROM.
func (sm *StateManager) GetStateManagerStats(romPath string) StateManagerStats {
	slots := sm.GetSlotInfo(romPath)
	var usedSlots int
	var totalSize int64
	for _, slot := range slots {
		if slot.Used {
			usedSlots++
			totalSize += slot.FileSize
		}
	}
	return StateManagerStats{
		MaxSlots:      sm.maxSlots,
		UsedSlots:     usedSlots,
		FreeSlots:     sm.maxSlots - usedSlots,
		TotalSize:     totalSize,
		SaveDirectory: sm.saveDirectory,
		Initialized:   sm.initialized,
	}
}
