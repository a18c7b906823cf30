package cartridge

// mapper004 implements MMC3 (TxROM): eight bank registers R0-R7 selected and
// loaded via even/odd writes to 0x8000/0x8001, independent PRG/CHR banking
// mode bits, a scanline-counter IRQ clocked by the PPU's per-scanline hook
// (spec pins this to dot 260 of visible scanlines with rendering enabled,
// rather than a true PPU-A12-edge detector).
type mapper004 struct {
	cart *Cartridge

	bankSelect uint8 // which of R0-R7 the next 0x8001 write targets, bit6=PRG mode, bit7=CHR inversion
	bankRegs   [8]uint8

	prgRAMEnabled   bool
	prgRAMWriteProt bool

	irqLatch   uint8
	irqCounter uint8
	irqEnabled bool
	irqPending bool
	irqReload  bool
}

func newMapper004(cart *Cartridge) *mapper004 {
	return &mapper004{cart: cart, prgRAMEnabled: true}
}

func (m *mapper004) prgMode() uint8    { return (m.bankSelect >> 6) & 0x01 }
func (m *mapper004) chrInverted() bool { return m.bankSelect&0x80 != 0 }

func (m *mapper004) CPUMapRead(address uint16) MapResult {
	switch {
	case address >= 0x6000 && address < 0x8000:
		if !m.prgRAMEnabled {
			return MapResult{Target: TargetNone}
		}
		return MapResult{Offset: uint32(address - 0x6000), Target: TargetPRGRAM}
	case address >= 0x8000:
		lastBank := uint32(m.cart.prgBanks)*2 - 1 // PRG banks here are 8KB units
		secondLast := lastBank - 1
		r6 := uint32(m.bankRegs[6])
		r7 := uint32(m.bankRegs[7])

		var bank8k uint32
		slot := (address - 0x8000) / 0x2000
		switch {
		case slot == 0:
			if m.prgMode() == 0 {
				bank8k = r6
			} else {
				bank8k = secondLast
			}
		case slot == 1:
			bank8k = r7
		case slot == 2:
			if m.prgMode() == 0 {
				bank8k = secondLast
			} else {
				bank8k = r6
			}
		default:
			bank8k = lastBank
		}
		offset := bank8k*0x2000 + uint32(address-0x8000)%0x2000
		return MapResult{Offset: offset, Target: TargetPRGROM}
	default:
		return MapResult{Target: TargetNone}
	}
}

func (m *mapper004) CPUMapWrite(address uint16, value uint8) MapResult {
	switch {
	case address >= 0x6000 && address < 0x8000:
		if !m.prgRAMEnabled || m.prgRAMWriteProt {
			return MapResult{Target: TargetNone}
		}
		return MapResult{Offset: uint32(address - 0x6000), Target: TargetPRGRAM}

	case address >= 0x8000 && address < 0xA000:
		if address%2 == 0 {
			m.bankSelect = value
		} else {
			reg := m.bankSelect & 0x07
			m.bankRegs[reg] = value
		}

	case address >= 0xA000 && address < 0xC000:
		if address%2 == 0 {
			if value&0x01 != 0 {
				m.cart.setMirror(MirrorHorizontal)
			} else {
				m.cart.setMirror(MirrorVertical)
			}
		} else {
			m.prgRAMEnabled = value&0x80 != 0
			m.prgRAMWriteProt = value&0x40 != 0
		}

	case address >= 0xC000 && address < 0xE000:
		if address%2 == 0 {
			m.irqLatch = value
		} else {
			m.irqCounter = 0
			m.irqReload = true
		}

	default: // 0xE000-0xFFFF
		if address%2 == 0 {
			m.irqEnabled = false
			m.irqPending = false
		} else {
			m.irqEnabled = true
		}
	}
	return MapResult{Target: TargetNone}
}

func (m *mapper004) PPUMapRead(address uint16) MapResult {
	if address >= 0x2000 {
		return MapResult{Target: TargetNone}
	}
	target := TargetCHRROM
	if m.cart.hasCHRRAM {
		target = TargetCHRRAM
	}
	return MapResult{Offset: m.chrOffset(address), Target: target}
}

func (m *mapper004) PPUMapWrite(address uint16, value uint8) MapResult {
	if address >= 0x2000 || !m.cart.hasCHRRAM {
		return MapResult{Target: TargetNone}
	}
	return MapResult{Offset: m.chrOffset(address), Target: TargetCHRRAM}
}

// chrOffset maps a PPU pattern-table address through the eight 1KB regions
// defined by R0-R5, inverting the two 2KB/four 1KB halves when bit7 of the
// bank-select register is set.
func (m *mapper004) chrOffset(address uint16) uint32 {
	region := address / 0x400
	offsetInRegion := uint32(address % 0x400)

	// Normal (bit7=0): regions 0-1 = R0 (2KB), 2-3 = R1 (2KB), 4 = R2, 5 = R3,
	// 6 = R4, 7 = R5. Inverted (bit7=1) swaps the two 4KB halves.
	if m.chrInverted() {
		region ^= 0x04
	}

	var bank1k uint32
	switch region {
	case 0:
		bank1k = uint32(m.bankRegs[0] &^ 1)
	case 1:
		bank1k = uint32(m.bankRegs[0] | 1)
	case 2:
		bank1k = uint32(m.bankRegs[1] &^ 1)
	case 3:
		bank1k = uint32(m.bankRegs[1] | 1)
	case 4:
		bank1k = uint32(m.bankRegs[2])
	case 5:
		bank1k = uint32(m.bankRegs[3])
	case 6:
		bank1k = uint32(m.bankRegs[4])
	default:
		bank1k = uint32(m.bankRegs[5])
	}
	return bank1k*0x400 + offsetInRegion
}

func (m *mapper004) Reset() {
	m.bankSelect = 0
	m.bankRegs = [8]uint8{}
	m.prgRAMEnabled = true
	m.prgRAMWriteProt = false
	m.irqLatch, m.irqCounter = 0, 0
	m.irqEnabled, m.irqPending, m.irqReload = false, false, false
}

// ScanlineTick implements the MMC3 scanline counter: decrement-then-reload,
// firing IRQ on the transition to zero when enabled. Invoked once per
// visible scanline by the PPU rather than on true PPU-A12 rising edges.
func (m *mapper004) ScanlineTick() {
	if m.irqCounter == 0 || m.irqReload {
		m.irqCounter = m.irqLatch
		m.irqReload = false
	} else {
		m.irqCounter--
	}
	if m.irqCounter == 0 && m.irqEnabled {
		m.irqPending = true
	}
}

func (m *mapper004) IRQAsserted() bool { return m.irqPending }
func (m *mapper004) ClearIRQ()         { m.irqPending = false }

type mapper004State struct {
	BankSelect              uint8
	BankRegs                [8]uint8
	PRGRAMEnabled           bool
	PRGRAMWriteProt         bool
	IRQLatch, IRQCounter    uint8
	IRQEnabled, IRQPending  bool
	IRQReload               bool
}

func (m *mapper004) Snapshot() []byte {
	return encodeGob(mapper004State{
		m.bankSelect, m.bankRegs, m.prgRAMEnabled, m.prgRAMWriteProt,
		m.irqLatch, m.irqCounter, m.irqEnabled, m.irqPending, m.irqReload,
	})
}

func (m *mapper004) Restore(data []byte) {
	var s mapper004State
	if !decodeGob(data, &s) {
		return
	}
	m.bankSelect, m.bankRegs = s.BankSelect, s.BankRegs
	m.prgRAMEnabled, m.prgRAMWriteProt = s.PRGRAMEnabled, s.PRGRAMWriteProt
	m.irqLatch, m.irqCounter = s.IRQLatch, s.IRQCounter
	m.irqEnabled, m.irqPending, m.irqReload = s.IRQEnabled, s.IRQPending, s.IRQReload
}
