package cartridge

import (
	"bytes"
	"testing"
)

// writeMMC1 performs one serial 5-write sequence to an MMC1 register.
func writeMMC1(cart *Cartridge, address uint16, value uint8) {
	for i := 0; i < 5; i++ {
		cart.CPUWrite(address, (value>>uint(i))&0x01)
	}
}

func TestMapper001_ControlWrite_MirrorTransitions(t *testing.T) {
	data := buildINES(1, 2, 1, false, false)
	cart, err := LoadFromReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	tests := []struct {
		controlBits uint8
		want        MirrorMode
	}{
		{0x00, MirrorSingleScreen0},
		{0x01, MirrorSingleScreen1},
		{0x02, MirrorVertical},
		{0x03, MirrorHorizontal},
	}

	for _, tt := range tests {
		writeMMC1(cart, 0x8000, 0x0C|tt.controlBits)
		if cart.Mirror() != tt.want {
			t.Errorf("control bits %#x: mirror = %v, want %v", tt.controlBits, cart.Mirror(), tt.want)
		}
	}
}

func TestMapper001_ResetBit_RestoresPRGMode(t *testing.T) {
	data := buildINES(1, 4, 1, false, false)
	cart, err := LoadFromReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	writeMMC1(cart, 0xE000, 0x02) // select PRG bank 2

	// Bit-7 write resets the shift register immediately, regardless of
	// shift position, and forces control back to 16KB-fixed-high mode.
	cart.CPUWrite(0x8000, 0x80)

	m := cart.mapper.(*mapper001)
	if m.prgMode() != 3 {
		t.Errorf("after reset bit, prgMode = %d, want 3", m.prgMode())
	}
}

func TestMapper004_ScanlineIRQ_FiresOnCounterZero(t *testing.T) {
	data := buildINES(4, 8, 8, false, false)
	cart, err := LoadFromReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	cart.CPUWrite(0xC000, 4) // IRQ latch = 4
	cart.CPUWrite(0xC001, 0) // force reload on next tick
	cart.CPUWrite(0xE001, 0) // enable IRQ

	// first tick reloads the counter to 4, then 3, 2, 1, 0: IRQ on the fifth tick
	for i := 0; i < 5; i++ {
		if cart.IRQAsserted() {
			t.Fatalf("IRQ asserted early at tick %d", i)
		}
		cart.ScanlineTick()
	}
	if !cart.IRQAsserted() {
		t.Fatal("expected IRQ asserted once counter reaches zero")
	}

	cart.ClearIRQ()
	if cart.IRQAsserted() {
		t.Fatal("expected IRQ cleared after ClearIRQ")
	}
}

func TestMapper004_IRQDisableClearsPending(t *testing.T) {
	data := buildINES(4, 8, 8, false, false)
	cart, err := LoadFromReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	cart.CPUWrite(0xC000, 0)
	cart.CPUWrite(0xC001, 0)
	cart.CPUWrite(0xE001, 0)
	cart.ScanlineTick()
	if !cart.IRQAsserted() {
		t.Fatal("expected IRQ pending before disable")
	}

	cart.CPUWrite(0xE000, 0) // disable
	if cart.IRQAsserted() {
		t.Fatal("expected IRQ disable write to clear pending IRQ")
	}
}

func TestMapper002_PRGBankSwitch(t *testing.T) {
	data := buildINES(2, 4, 0, false, false)
	data[16] = 0xAA              // bank 0 first byte
	data[16+16384*3] = 0xCC      // last bank (bank 3) first byte
	cart, err := LoadFromReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	cart.CPUWrite(0x8000, 0x00)
	v, _ := cart.CPURead(0x8000)
	if v != 0xAA {
		t.Errorf("bank 0 at 0x8000 = %#x, want 0xAA", v)
	}

	fixed, _ := cart.CPURead(0xC000)
	if fixed != 0xCC {
		t.Errorf("fixed last bank at 0xC000 = %#x, want 0xCC", fixed)
	}
}
