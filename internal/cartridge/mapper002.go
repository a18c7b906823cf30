package cartridge

// mapper002 implements UxROM: a switchable 16KB PRG bank at 0x8000-0xBFFF
// selected by any write to 0x8000-0xFFFF, with the last 16KB bank fixed at
// 0xC000-0xFFFF. CHR is a fixed 8KB bank (ROM, or RAM when the image has no
// CHR ROM); it is not bank-switched.
type mapper002 struct {
	cart    *Cartridge
	prgBank uint8
}

func newMapper002(cart *Cartridge) *mapper002 {
	return &mapper002{cart: cart}
}

func (m *mapper002) CPUMapRead(address uint16) MapResult {
	switch {
	case address >= 0x6000 && address < 0x8000:
		return MapResult{Offset: uint32(address - 0x6000), Target: TargetPRGRAM}
	case address >= 0x8000 && address < 0xC000:
		return MapResult{Offset: uint32(m.prgBank)*0x4000 + uint32(address-0x8000), Target: TargetPRGROM}
	case address >= 0xC000:
		lastBank := uint32(m.cart.prgBanks) - 1
		return MapResult{Offset: lastBank*0x4000 + uint32(address-0xC000), Target: TargetPRGROM}
	default:
		return MapResult{Target: TargetNone}
	}
}

func (m *mapper002) CPUMapWrite(address uint16, value uint8) MapResult {
	if address >= 0x6000 && address < 0x8000 {
		return MapResult{Offset: uint32(address - 0x6000), Target: TargetPRGRAM}
	}
	if address >= 0x8000 {
		m.prgBank = value & uint8(m.cart.prgBanks-1)
	}
	return MapResult{Target: TargetNone}
}

func (m *mapper002) PPUMapRead(address uint16) MapResult {
	if address >= 0x2000 {
		return MapResult{Target: TargetNone}
	}
	target := TargetCHRROM
	if m.cart.hasCHRRAM {
		target = TargetCHRRAM
	}
	return MapResult{Offset: uint32(address), Target: target}
}

func (m *mapper002) PPUMapWrite(address uint16, value uint8) MapResult {
	if address >= 0x2000 || !m.cart.hasCHRRAM {
		return MapResult{Target: TargetNone}
	}
	return MapResult{Offset: uint32(address), Target: TargetCHRRAM}
}

func (m *mapper002) Reset()             { m.prgBank = 0 }
func (m *mapper002) ScanlineTick()      {}
func (m *mapper002) IRQAsserted() bool  { return false }
func (m *mapper002) ClearIRQ()          {}
func (m *mapper002) Snapshot() []byte   { return encodeGob(m.prgBank) }
func (m *mapper002) Restore(data []byte) {
	var bank uint8
	if decodeGob(data, &bank) {
		m.prgBank = bank
	}
}
