// Package bus implements the system bus connecting the CPU, PPU, APU and
// cartridge, and owns CPU RAM and the audio resampling pipeline.
package bus

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"
	"hash/crc32"
	"sync"

	"gones/internal/apu"
	"gones/internal/cartridge"
	"gones/internal/cpu"
	"gones/internal/input"
	"gones/internal/ppu"
)

const (
	cpuHz          = 1789773.0
	sampleHz       = 44100.0
	audioQueueCap  = 4096
	saveStateMagic = "jNES"
	saveStateVers  = 3
)

// Bus owns CPU RAM and routes every CPU/PPU-visible memory access between
// the CPU, PPU, APU, cartridge and controllers. It is exclusively driven by
// the emulation thread; the only cross-thread boundary it exposes is the
// audio sample queue (see PollAudioSample) and controller button state.
type Bus struct {
	CPU   *cpu.CPU
	PPU   *ppu.PPU
	APU   *apu.APU
	Cart  *cartridge.Cartridge
	Input *input.InputState

	ram [0x800]uint8

	systemClock uint64

	audioAccumulator float64
	audioQueue       chan float64
	shutdown         chan struct{}
	shutdownOnce     sync.Once
}

// New creates a bus with no cartridge installed. Insert one with
// LoadCartridge before ticking; until then, cartridge-routed reads return 0.
func New() *Bus {
	b := &Bus{
		Input:      input.NewInputState(),
		audioQueue: make(chan float64, audioQueueCap),
		shutdown:   make(chan struct{}),
	}
	b.PPU = ppu.New(nullCartridge{})
	b.APU = apu.New()
	b.APU.SetMemory(apuMemory{b})
	b.CPU = cpu.New(b)
	b.Input.InstallZapper(b.PPU)
	b.Reset()
	return b
}

// nullCartridge stands in before a real cartridge is loaded: pattern-table
// reads return open bus, mirroring defaults to horizontal.
type nullCartridge struct{}

func (nullCartridge) PPURead(uint16) uint8                 { return 0 }
func (nullCartridge) PPUWrite(uint16, uint8)                {}
func (nullCartridge) Mirror() cartridge.MirrorMode          { return cartridge.MirrorHorizontal }
func (nullCartridge) ScanlineTick()                         {}

// apuMemory adapts the bus to the APU's CPU-memory contract, used only for
// DMC sample-byte fetches and their associated CPU stall.
type apuMemory struct{ b *Bus }

func (m apuMemory) Read(address uint16) uint8 { return m.b.Read(address) }
func (m apuMemory) Stall(cycles uint16)       { m.b.CPU.Stall(cycles) }

// LoadCartridge installs a new cartridge: any previous one is dropped, the
// PPU is rebound to it, and the whole system resets.
func (b *Bus) LoadCartridge(cart *cartridge.Cartridge) {
	b.Cart = cart
	b.PPU.SetCartridge(cart)
	b.Reset()
}

// Reset reinitializes CPU, PPU, APU, cartridge/mapper and both controllers,
// zeroing CPU RAM and the audio resample accumulator.
func (b *Bus) Reset() {
	b.ram = [0x800]uint8{}
	b.PPU.Reset()
	b.APU.Reset()
	b.Input.Reset()
	if b.Cart != nil {
		b.Cart.Reset()
	}
	b.CPU.Reset()
	b.systemClock = 0
	b.audioAccumulator = 0
}

// Read services a CPU-address-space read. Implements cpu.MemoryInterface.
func (b *Bus) Read(address uint16) uint8 {
	switch {
	case address < 0x2000:
		return b.ram[address&0x07FF]
	case address < 0x4000:
		return b.PPU.ReadRegister(uint8(address & 7))
	case address < 0x4018:
		switch address {
		case 0x4015:
			return b.APU.ReadStatus()
		case 0x4016:
			return b.Input.Read(0x4016)
		case 0x4017:
			return b.Input.Read(0x4017)
		default:
			return 0
		}
	default:
		if b.Cart == nil {
			return 0
		}
		if value, ok := b.Cart.CPURead(address); ok {
			return value
		}
		return 0
	}
}

// Write services a CPU-address-space write.
func (b *Bus) Write(address uint16, value uint8) {
	switch {
	case address < 0x2000:
		b.ram[address&0x07FF] = value
	case address < 0x4000:
		b.PPU.WriteRegister(uint8(address&7), value)
	case address == 0x4014:
		b.triggerOAMDMA(value)
	case address == 0x4016:
		b.Input.Write(0x4016, value)
	case address < 0x4018:
		b.APU.WriteRegister(address, value)
	default:
		if b.Cart != nil {
			b.Cart.CPUWrite(address, value)
		}
	}
}

// triggerOAMDMA copies 256 bytes from the given page into PPU OAM and stalls
// the CPU for 513 cycles (514 if the DMA starts on an odd CPU cycle).
func (b *Bus) triggerOAMDMA(page uint8) {
	base := uint16(page) << 8
	for i := 0; i < 256; i++ {
		b.PPU.WriteOAMDMAByte(b.Read(base + uint16(i)))
	}
	cycles := uint16(513)
	if b.CPU.Cycles()%2 == 1 {
		cycles = 514
	}
	b.CPU.Stall(cycles)
}

// Tick advances the system by exactly one CPU master cycle: three PPU dots,
// an NMI edge check, one CPU cycle, one APU cycle, audio resampling, and an
// aggregate IRQ check. Returns true on the cycle a CPU instruction retired.
func (b *Bus) Tick() bool {
	for i := 0; i < 3; i++ {
		b.PPU.Clock()
	}
	if b.PPU.PollNMI() {
		b.CPU.NMI()
	}

	retired := b.CPU.Clock()
	b.APU.Step()
	b.systemClock++
	b.accumulateAudio()

	irq := b.APU.PollIRQ()
	if b.Cart != nil && b.Cart.IRQAsserted() {
		irq = true
	}
	b.CPU.IRQ(irq)

	return retired
}

// accumulateAudio maintains the CPU-rate-to-output-rate resample
// accumulator, enqueuing one mixed sample each time it fires.
func (b *Bus) accumulateAudio() {
	const ticksPerSample = cpuHz / sampleHz
	b.audioAccumulator += 1.0
	if b.audioAccumulator < ticksPerSample {
		return
	}
	b.audioAccumulator -= ticksPerSample
	b.enqueueAudio(float64(b.APU.Sample()))
}

// enqueueAudio pushes a sample onto the bounded queue, blocking if full,
// and returning early if a shutdown has been signaled.
func (b *Bus) enqueueAudio(sample float64) {
	select {
	case b.audioQueue <- sample:
	case <-b.shutdown:
	}
}

// PollAudioSample blocks until a sample is available or the bus has been
// shut down, in which case ok is false.
func (b *Bus) PollAudioSample() (sample float64, ok bool) {
	select {
	case s := <-b.audioQueue:
		return s, true
	case <-b.shutdown:
		return 0, false
	}
}

// Shutdown wakes any blocked audio producer/consumer without requiring
// another sample to flow. Safe to call more than once.
func (b *Bus) Shutdown() {
	b.shutdownOnce.Do(func() { close(b.shutdown) })
}

// DrainAudio returns every sample currently queued without blocking. Used
// by hosts that pull audio once per video frame rather than from a
// dedicated audio thread.
func (b *Bus) DrainAudio() []float32 {
	samples := make([]float32, 0, len(b.audioQueue))
	for {
		select {
		case s := <-b.audioQueue:
			samples = append(samples, float32(s))
		default:
			return samples
		}
	}
}

// FrameComplete reports whether the PPU finished a frame since the last
// ClearFrameComplete call.
func (b *Bus) FrameComplete() bool { return b.PPU.FrameComplete() }

// ClearFrameComplete consumes the frame-complete flag.
func (b *Bus) ClearFrameComplete() { b.PPU.ClearFrameComplete() }

// CopyFrame snapshots the current framebuffer by value into dst.
func (b *Bus) CopyFrame(dst *[256 * 240]uint32) { b.PPU.CopyFrame(dst) }

// Cycles returns the total master cycles ticked since construction or reset.
func (b *Bus) Cycles() uint64 { return b.systemClock }

// --- Save-state encoding ---

// busState is the gob-serializable payload wrapped in the binary envelope.
type busState struct {
	CPU   cpu.State
	PPU   ppu.State
	APU   apu.State
	RAM   [0x800]uint8
	Cart  cartridge.State
	Clock uint64
}

// ErrStateCorrupt reports a save-state blob with a bad magic or failing
// CRC check; the caller should leave current state untouched.
var ErrStateCorrupt = errors.New("bus: corrupt save state")

// ErrStateForeign reports a save-state blob that validates structurally but
// was captured against a different cartridge.
var ErrStateForeign = errors.New("bus: save state belongs to a different cartridge")

// SaveState encodes the full system state into the jNES binary format:
// 4-byte magic, 2-byte version, 4-byte payload CRC32, 4-byte ROM
// fingerprint, then the gob-encoded payload.
func (b *Bus) SaveState() ([]byte, error) {
	var fingerprint uint32
	if b.Cart != nil {
		fingerprint = b.Cart.Fingerprint()
	}

	state := busState{
		CPU: b.CPU.Snapshot(),
		PPU: b.PPU.Snapshot(),
		APU: b.APU.Snapshot(),
		RAM: b.ram,
		Clock: b.systemClock,
	}
	if b.Cart != nil {
		state.Cart = b.Cart.Snapshot()
	}

	payload := encodeGob(state)

	var buf bytes.Buffer
	buf.WriteString(saveStateMagic)
	binary.Write(&buf, binary.LittleEndian, uint16(saveStateVers))
	binary.Write(&buf, binary.LittleEndian, crc32.ChecksumIEEE(payload))
	binary.Write(&buf, binary.LittleEndian, fingerprint)
	buf.Write(payload)

	return buf.Bytes(), nil
}

// legacyRAMSize and legacyPRGRAMSize are the raw-dump layout used by older,
// header-less save states: CPU RAM immediately followed by cartridge PRG
// RAM, with no magic, version or checksum.
const (
	legacyRAMSize    = 0x800
	legacyPRGRAMSize = 0x2000
)

// LoadState decodes a jNES save state and restores it. Bad magic falls back
// to the legacy raw-dump layout (CPU RAM followed by PRG RAM) for blobs long
// enough to plausibly be one; anything shorter, or a bad CRC, yields
// ErrStateCorrupt (current state left untouched). A fingerprint that
// disagrees with the loaded cartridge yields ErrStateForeign.
func (b *Bus) LoadState(data []byte) error {
	if len(data) < 14 || string(data[:4]) != saveStateMagic {
		if len(data) >= legacyRAMSize+legacyPRGRAMSize {
			return b.loadLegacyState(data)
		}
		return fmt.Errorf("%w: bad magic", ErrStateCorrupt)
	}

	version := binary.LittleEndian.Uint16(data[4:6])
	wantCRC := binary.LittleEndian.Uint32(data[6:10])
	fingerprint := binary.LittleEndian.Uint32(data[10:14])
	payload := data[14:]

	if version != saveStateVers {
		return fmt.Errorf("%w: unsupported version %d", ErrStateCorrupt, version)
	}
	if crc32.ChecksumIEEE(payload) != wantCRC {
		return fmt.Errorf("%w: crc mismatch", ErrStateCorrupt)
	}
	if fingerprint != 0 && (b.Cart == nil || fingerprint != b.Cart.Fingerprint()) {
		return ErrStateForeign
	}

	var state busState
	if !decodeGob(payload, &state) {
		return fmt.Errorf("%w: malformed payload", ErrStateCorrupt)
	}

	b.CPU.Restore(state.CPU)
	b.PPU.Restore(state.PPU)
	b.APU.Restore(state.APU)
	b.ram = state.RAM
	b.systemClock = state.Clock
	if b.Cart != nil {
		b.Cart.Restore(state.Cart)
	}
	return nil
}

// loadLegacyState restores a header-less save state: CPU RAM followed by
// cartridge PRG RAM, nothing else. CPU, PPU, APU and mapper registers are
// left at whatever state they were already in, matching what the old format
// never captured in the first place.
func (b *Bus) loadLegacyState(data []byte) error {
	var ram [legacyRAMSize]uint8
	copy(ram[:], data[:legacyRAMSize])
	b.ram = ram

	if b.Cart != nil {
		var prgRAM [legacyPRGRAMSize]uint8
		copy(prgRAM[:], data[legacyRAMSize:legacyRAMSize+legacyPRGRAMSize])
		b.Cart.RestorePRGRAM(prgRAM)
	}
	return nil
}

func encodeGob(v interface{}) []byte {
	var buf bytes.Buffer
	gob.NewEncoder(&buf).Encode(v)
	return buf.Bytes()
}

func decodeGob(data []byte, dst interface{}) bool {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(dst) == nil
}

// --- Controller convenience wrappers ---

// SetControllerButton sets the state of a single button on controller 1 or 2.
func (b *Bus) SetControllerButton(controller int, button input.Button, pressed bool) {
	switch controller {
	case 1:
		b.Input.Controller1.SetButton(button, pressed)
	case 2:
		b.Input.Controller2.SetButton(button, pressed)
	}
}

// SetControllerButtons sets all eight button states for controller 1 or 2.
func (b *Bus) SetControllerButtons(controller int, buttons [8]bool) {
	switch controller {
	case 1:
		b.Input.SetButtons1(buttons)
	case 2:
		b.Input.SetButtons2(buttons)
	}
}
