// Package ppu implements the 2C02 picture processing unit.
package ppu

import "gones/internal/cartridge"

// Cartridge is the non-owning view the PPU uses to reach pattern-table data
// and the cartridge's current nametable mirroring.
type Cartridge interface {
	PPURead(address uint16) uint8
	PPUWrite(address uint16, value uint8)
	Mirror() cartridge.MirrorMode
	ScanlineTick()
}

const (
	screenWidth  = 256
	screenHeight = 240
)

// spriteSlot is one entry of secondary OAM plus its per-dot render state.
type spriteSlot struct {
	y, tile, attr, x uint8
	patternLo        uint8
	patternHi        uint8
	isSprite0        bool
}

// PPU is the 2C02. Clock advances exactly one dot (one third of a CPU cycle).
type PPU struct {
	cart Cartridge

	nameTable  [0x800]uint8 // two physical 1KB nametables
	palette    [32]uint8
	oam        [256]uint8
	oamAddr    uint8
	secondary  [8]spriteSlot
	secondaryN int

	frame [screenWidth * screenHeight]uint32

	ctrl   uint8
	mask   uint8
	status uint8

	v, t        uint16 // loopy VRAM address registers
	fineX       uint8
	writeToggle bool

	readBuffer uint8

	scanline int // -1..260
	dot      int // 0..340
	oddFrame bool

	bgShiftPatternLo uint16
	bgShiftPatternHi uint16
	bgShiftAttrLo    uint16
	bgShiftAttrHi    uint16

	ntByte uint8
	atByte uint8
	patLo  uint8
	patHi  uint8

	nmiPending    bool
	nmiOccurred   bool
	frameComplete bool
}

// New creates a PPU bound to the given cartridge for CHR/mirroring access.
func New(cart Cartridge) *PPU {
	return &PPU{cart: cart, scanline: -1, dot: 0}
}

// Reset returns the PPU to its power-up state.
func (p *PPU) Reset() {
	p.ctrl = 0
	p.mask = 0
	p.status = 0
	p.v, p.t = 0, 0
	p.fineX = 0
	p.writeToggle = false
	p.readBuffer = 0
	p.scanline = -1
	p.dot = 0
	p.oddFrame = false
	p.nmiPending = false
	p.nmiOccurred = false
	p.frameComplete = false
}

// ReadRegister implements CPU reads of 0x2000+n (n = address & 7).
func (p *PPU) ReadRegister(reg uint8) uint8 {
	switch reg & 7 {
	case 2: // PPUSTATUS
		result := p.status&0xE0 | (p.readBuffer & 0x1F)
		p.status &^= 0x80 // clear vblank
		p.writeToggle = false
		return result
	case 4: // OAMDATA
		return p.oam[p.oamAddr]
	case 7: // PPUDATA
		return p.readData()
	default:
		return 0
	}
}

// WriteRegister implements CPU writes of 0x2000+n.
func (p *PPU) WriteRegister(reg uint8, value uint8) {
	switch reg & 7 {
	case 0: // PPUCTRL
		p.ctrl = value
		p.t = (p.t & 0xF3FF) | (uint16(value&0x03) << 10)
	case 1: // PPUMASK
		p.mask = value
	case 3: // OAMADDR
		p.oamAddr = value
	case 4: // OAMDATA
		p.oam[p.oamAddr] = value
		p.oamAddr++
	case 5: // PPUSCROLL
		if !p.writeToggle {
			p.fineX = value & 0x07
			p.t = (p.t & 0xFFE0) | uint16(value>>3)
		} else {
			p.t = (p.t & 0x8FFF) | (uint16(value&0x07) << 12)
			p.t = (p.t & 0xFC1F) | (uint16(value>>3) << 5)
		}
		p.writeToggle = !p.writeToggle
	case 6: // PPUADDR
		if !p.writeToggle {
			p.t = (p.t & 0x00FF) | (uint16(value&0x3F) << 8)
		} else {
			p.t = (p.t & 0xFF00) | uint16(value)
			p.v = p.t
		}
		p.writeToggle = !p.writeToggle
	case 7: // PPUDATA
		p.writeData(value)
	}
}

// WriteOAMDMAByte feeds one byte during OAM DMA (256 calls per DMA).
func (p *PPU) WriteOAMDMAByte(value uint8) {
	p.oam[p.oamAddr] = value
	p.oamAddr++
}

func (p *PPU) vramIncrement() uint16 {
	if p.ctrl&0x04 != 0 {
		return 32
	}
	return 1
}

func (p *PPU) readData() uint8 {
	addr := p.v & 0x3FFF
	var result uint8
	if addr >= 0x3F00 {
		result = p.readPalette(addr)
		p.readBuffer = p.busRead(addr - 0x1000)
	} else {
		result = p.readBuffer
		p.readBuffer = p.busRead(addr)
	}
	p.v += p.vramIncrement()
	return result
}

func (p *PPU) writeData(value uint8) {
	addr := p.v & 0x3FFF
	if addr >= 0x3F00 {
		p.writePalette(addr, value)
	} else {
		p.busWrite(addr, value)
	}
	p.v += p.vramIncrement()
}

// busRead/busWrite route the 0x0000-0x3EFF PPU address space: pattern
// tables to the cartridge, nametables through this PPU's mirrored VRAM.
func (p *PPU) busRead(addr uint16) uint8 {
	addr &= 0x3FFF
	if addr < 0x2000 {
		return p.cart.PPURead(addr)
	}
	return p.nameTable[p.mirrorIndex(addr)]
}

func (p *PPU) busWrite(addr uint16, value uint8) {
	addr &= 0x3FFF
	if addr < 0x2000 {
		p.cart.PPUWrite(addr, value)
		return
	}
	p.nameTable[p.mirrorIndex(addr)] = value
}

func (p *PPU) mirrorIndex(addr uint16) uint16 {
	addr = (addr - 0x2000) & 0x0FFF
	table := addr / 0x400
	offset := addr % 0x400

	switch p.cart.Mirror() {
	case cartridge.MirrorHorizontal:
		// tables 0,1 -> physical page 0; tables 2,3 -> physical page 1
		return (table/2)*0x400 + offset
	case cartridge.MirrorVertical:
		// tables 0,2 -> physical page 0; tables 1,3 -> physical page 1
		return (table%2)*0x400 + offset
	case cartridge.MirrorSingleScreen0:
		return offset
	case cartridge.MirrorSingleScreen1:
		return 0x400 + offset
	default: // four-screen: not modeled with extra VRAM, falls back to vertical
		return (table%2)*0x400 + offset
	}
}

func (p *PPU) readPalette(addr uint16) uint8 {
	return p.palette[paletteIndex(addr)]
}

func (p *PPU) writePalette(addr uint16, value uint8) {
	p.palette[paletteIndex(addr)] = value & 0x3F
}

// paletteIndex applies the 0x3F10/14/18/1C -> 0x3F00/04/08/0C aliasing.
func paletteIndex(addr uint16) uint16 {
	idx := addr & 0x1F
	if idx >= 0x10 && idx%4 == 0 {
		idx -= 0x10
	}
	return idx
}

// renderingEnabled reports whether background or sprite rendering is on.
func (p *PPU) renderingEnabled() bool {
	return p.mask&0x18 != 0
}

// Clock advances the PPU by one dot.
func (p *PPU) Clock() {
	p.renderTick()

	p.dot++
	if p.dot > 340 {
		p.dot = 0
		p.scanline++
		if p.scanline > 260 {
			p.scanline = -1
			p.oddFrame = !p.oddFrame
		}
	}
	if p.scanline == 241 && p.dot == 1 {
		p.frameComplete = true
	}
}

func (p *PPU) renderTick() {
	visible := p.scanline >= 0 && p.scanline <= 239
	preRender := p.scanline == -1

	if visible || preRender {
		p.backgroundPipeline()
		p.spritePipeline()

		if visible && p.dot == 260 && p.renderingEnabled() {
			p.cart.ScanlineTick()
		}
	}

	if visible && p.dot >= 1 && p.dot <= 256 {
		p.renderPixel()
	}

	if p.scanline == 241 && p.dot == 1 {
		p.status |= 0x80 // vblank
		if p.ctrl&0x80 != 0 {
			p.nmiPending = true
		}
	}

	if preRender && p.dot == 1 {
		p.status &^= 0x80 // clear vblank
		p.status &^= 0x40 // clear sprite-0 hit
		p.status &^= 0x20 // clear sprite overflow
	}
}

// backgroundPipeline implements the 8-dot nametable/attribute/pattern fetch
// cycle and the v-register scroll arithmetic of spec section 4.3.
func (p *PPU) backgroundPipeline() {
	fetchWindow := (p.dot >= 1 && p.dot <= 256) || (p.dot >= 321 && p.dot <= 336)

	if fetchWindow {
		p.shiftBackgroundRegisters()

		switch p.dot % 8 {
		case 1:
			p.loadBackgroundShiftRegisters()
			p.ntByte = p.busRead(0x2000 | (p.v & 0x0FFF))
		case 3:
			attrAddr := 0x23C0 | (p.v & 0x0C00) | ((p.v >> 4) & 0x38) | ((p.v >> 2) & 0x07)
			raw := p.busRead(attrAddr)
			shift := ((p.v >> 4) & 4) | (p.v & 2)
			p.atByte = (raw >> shift) & 0x03
		case 5:
			base := uint16(0)
			if p.ctrl&0x10 != 0 {
				base = 0x1000
			}
			p.patLo = p.busRead(base + uint16(p.ntByte)*16 + ((p.v >> 12) & 7))
		case 7:
			base := uint16(0)
			if p.ctrl&0x10 != 0 {
				base = 0x1000
			}
			p.patHi = p.busRead(base + uint16(p.ntByte)*16 + ((p.v >> 12) & 7) + 8)
		case 0:
			if p.renderingEnabled() {
				p.incrementCoarseX()
			}
		}
	}

	if p.dot == 256 && p.renderingEnabled() {
		p.incrementFineY()
	}
	if p.dot == 257 {
		p.shiftBackgroundRegisters()
		p.loadBackgroundShiftRegisters()
		if p.renderingEnabled() {
			p.v = (p.v & 0xFBE0) | (p.t & 0x041F)
		}
	}
	if p.scanline == -1 && p.dot >= 280 && p.dot <= 304 && p.renderingEnabled() {
		p.v = (p.v & 0x841F) | (p.t & 0x7BE0)
	}
}

func (p *PPU) loadBackgroundShiftRegisters() {
	p.bgShiftPatternLo = (p.bgShiftPatternLo & 0xFF00) | uint16(p.patLo)
	p.bgShiftPatternHi = (p.bgShiftPatternHi & 0xFF00) | uint16(p.patHi)
	attrLo := uint16(0)
	attrHi := uint16(0)
	if p.atByte&0x01 != 0 {
		attrLo = 0x00FF
	}
	if p.atByte&0x02 != 0 {
		attrHi = 0x00FF
	}
	p.bgShiftAttrLo = (p.bgShiftAttrLo & 0xFF00) | attrLo
	p.bgShiftAttrHi = (p.bgShiftAttrHi & 0xFF00) | attrHi
}

func (p *PPU) shiftBackgroundRegisters() {
	if !p.renderingEnabled() {
		return
	}
	p.bgShiftPatternLo <<= 1
	p.bgShiftPatternHi <<= 1
	p.bgShiftAttrLo <<= 1
	p.bgShiftAttrHi <<= 1
}

func (p *PPU) incrementCoarseX() {
	if p.v&0x001F == 31 {
		p.v &^= 0x001F
		p.v ^= 0x0400
	} else {
		p.v++
	}
}

func (p *PPU) incrementFineY() {
	if p.v&0x7000 != 0x7000 {
		p.v += 0x1000
		return
	}
	p.v &^= 0x7000
	coarseY := (p.v & 0x03E0) >> 5
	switch coarseY {
	case 29:
		coarseY = 0
		p.v ^= 0x0800
	case 31:
		coarseY = 0
	default:
		coarseY++
	}
	p.v = (p.v & 0xFC1F) | (coarseY << 5)
}

// spritePipeline clears/evaluates secondary OAM and fetches sprite patterns,
// approximating the dot ranges of spec section 4.3 as a per-scanline pass
// performed once at the start of sprite-fetch dots (65, 257) rather than
// tracking every individual evaluation dot — observably equivalent for
// rendering.
func (p *PPU) spritePipeline() {
	if p.dot == 1 {
		p.secondaryN = 0
		for i := range p.secondary {
			p.secondary[i] = spriteSlot{y: 0xFF, tile: 0xFF, attr: 0xFF, x: 0xFF}
		}
	}

	if p.dot == 65 && p.scanline >= 0 {
		p.evaluateSprites()
	}

	if p.dot == 257 {
		p.fetchSpritePatterns()
	}
}

func (p *PPU) spriteHeight() int {
	if p.ctrl&0x20 != 0 {
		return 16
	}
	return 8
}

func (p *PPU) evaluateSprites() {
	height := p.spriteHeight()
	count := 0
	for i := 0; i < 64; i++ {
		y := p.oam[i*4]
		row := p.scanline - int(y)
		if row < 0 || row >= height {
			continue
		}
		if count < 8 {
			p.secondary[count] = spriteSlot{
				y:         y,
				tile:      p.oam[i*4+1],
				attr:      p.oam[i*4+2],
				x:         p.oam[i*4+3],
				isSprite0: i == 0,
			}
			count++
		} else {
			p.status |= 0x20 // sprite overflow
			break
		}
	}
	p.secondaryN = count
}

func (p *PPU) fetchSpritePatterns() {
	height := p.spriteHeight()
	for i := 0; i < p.secondaryN; i++ {
		s := &p.secondary[i]
		row := p.scanline - int(s.y)
		flipV := s.attr&0x80 != 0
		flipH := s.attr&0x40 != 0
		if flipV {
			row = height - 1 - row
		}

		var base uint16
		var tile uint16
		if height == 16 {
			tile = uint16(s.tile &^ 1)
			base = uint16(s.tile&1) * 0x1000
			if row >= 8 {
				tile++
				row -= 8
			}
		} else {
			tile = uint16(s.tile)
			base = 0
			if p.ctrl&0x08 != 0 {
				base = 0x1000
			}
		}

		lo := p.busRead(base + tile*16 + uint16(row))
		hi := p.busRead(base + tile*16 + uint16(row) + 8)
		if flipH {
			lo = reverseBits(lo)
			hi = reverseBits(hi)
		}
		s.patternLo = lo
		s.patternHi = hi
	}
}

func reverseBits(b uint8) uint8 {
	var r uint8
	for i := 0; i < 8; i++ {
		r <<= 1
		r |= b & 1
		b >>= 1
	}
	return r
}

// renderPixel composes the final background+sprite pixel for (dot-1, scanline)
// and writes it into the framebuffer.
func (p *PPU) renderPixel() {
	x := p.dot - 1
	y := p.scanline

	bgPixel, bgPalette := p.backgroundPixel(x)
	spritePixel, spritePalette, spritePriority, isSpriteZero := p.spritePixelAt(x)

	showBG := bgPixel != 0
	showSprite := spritePixel != 0

	if isSpriteZero && showBG && showSprite && x != 255 && p.mask&0x18 == 0x18 {
		p.status |= 0x40 // sprite-0 hit
	}

	var paletteAddr uint16
	switch {
	case !showBG && !showSprite:
		paletteAddr = 0x3F00
	case !showBG && showSprite:
		paletteAddr = 0x3F10 + uint16(spritePalette)*4 + uint16(spritePixel)
	case showBG && !showSprite:
		paletteAddr = 0x3F00 + uint16(bgPalette)*4 + uint16(bgPixel)
	default:
		if spritePriority {
			paletteAddr = 0x3F00 + uint16(bgPalette)*4 + uint16(bgPixel)
		} else {
			paletteAddr = 0x3F10 + uint16(spritePalette)*4 + uint16(spritePixel)
		}
	}

	colorIndex := p.readPalette(paletteAddr) & 0x3F
	p.frame[y*screenWidth+x] = nesPalette[colorIndex]
}

func (p *PPU) backgroundPixel(x int) (uint8, uint8) {
	if p.mask&0x08 == 0 {
		return 0, 0
	}
	if x < 8 && p.mask&0x02 == 0 {
		return 0, 0
	}
	shift := uint(15 - p.fineX)
	lo := uint8((p.bgShiftPatternLo >> shift) & 1)
	hi := uint8((p.bgShiftPatternHi >> shift) & 1)
	pixel := lo | (hi << 1)
	alo := uint8((p.bgShiftAttrLo >> shift) & 1)
	ahi := uint8((p.bgShiftAttrHi >> shift) & 1)
	palette := alo | (ahi << 1)
	return pixel, palette
}

func (p *PPU) spritePixelAt(x int) (pixel uint8, palette uint8, priority bool, isZero bool) {
	if p.mask&0x10 == 0 {
		return 0, 0, false, false
	}
	if x < 8 && p.mask&0x04 == 0 {
		return 0, 0, false, false
	}
	for i := 0; i < p.secondaryN; i++ {
		s := &p.secondary[i]
		offset := x - int(s.x)
		if offset < 0 || offset > 7 {
			continue
		}
		shift := uint(7 - offset)
		lo := (s.patternLo >> shift) & 1
		hi := (s.patternHi >> shift) & 1
		px := lo | (hi << 1)
		if px == 0 {
			continue
		}
		return px, s.attr & 0x03, s.attr&0x20 != 0, s.isSprite0
	}
	return 0, 0, false, false
}

// FrameComplete reports whether a new frame has finished rendering.
func (p *PPU) FrameComplete() bool {
	return p.frameComplete
}

// ClearFrameComplete consumes the frame-complete flag.
func (p *PPU) ClearFrameComplete() {
	p.frameComplete = false
}

// PollNMI consumes and reports the edge-triggered pending-NMI flag.
func (p *PPU) PollNMI() bool {
	if p.nmiPending {
		p.nmiPending = false
		return true
	}
	return false
}

// CopyFrame snapshots the current framebuffer by value into dst.
func (p *PPU) CopyFrame(dst *[screenWidth * screenHeight]uint32) {
	*dst = p.frame
}

// SamplePixel returns the rendered RGB value at (x, y), used by the zapper
// light-sensor model. Out-of-range coordinates return 0.
func (p *PPU) SamplePixel(x, y int) uint32 {
	if x < 0 || x >= screenWidth || y < 0 || y >= screenHeight {
		return 0
	}
	return p.frame[y*screenWidth+x]
}

// SetCartridge rebinds the PPU to a newly-inserted cartridge.
func (p *PPU) SetCartridge(cart Cartridge) {
	p.cart = cart
}

// Scanline and Dot expose the current render cursor, for save-state and tests.
func (p *PPU) Scanline() int { return p.scanline }
func (p *PPU) Dot() int      { return p.dot }

// State is the serializable PPU snapshot used by save-state encoding.
type State struct {
	NameTable          [0x800]uint8
	Palette            [32]uint8
	OAM                [256]uint8
	OAMAddr            uint8
	Ctrl, Mask, Status uint8
	V, T               uint16
	FineX              uint8
	WriteToggle        bool
	ReadBuffer         uint8
	Scanline, Dot      int
	OddFrame           bool
	NMIPending         bool
	NMIOccurred        bool
}

// Snapshot captures all save-state-relevant PPU state.
func (p *PPU) Snapshot() State {
	return State{
		NameTable: p.nameTable, Palette: p.palette, OAM: p.oam, OAMAddr: p.oamAddr,
		Ctrl: p.ctrl, Mask: p.mask, Status: p.status,
		V: p.v, T: p.t, FineX: p.fineX, WriteToggle: p.writeToggle, ReadBuffer: p.readBuffer,
		Scanline: p.scanline, Dot: p.dot, OddFrame: p.oddFrame,
		NMIPending: p.nmiPending, NMIOccurred: p.nmiOccurred,
	}
}

// Restore installs a previously captured State.
func (p *PPU) Restore(s State) {
	p.nameTable, p.palette, p.oam, p.oamAddr = s.NameTable, s.Palette, s.OAM, s.OAMAddr
	p.ctrl, p.mask, p.status = s.Ctrl, s.Mask, s.Status
	p.v, p.t, p.fineX, p.writeToggle, p.readBuffer = s.V, s.T, s.FineX, s.WriteToggle, s.ReadBuffer
	p.scanline, p.dot, p.oddFrame = s.Scanline, s.Dot, s.OddFrame
	p.nmiPending, p.nmiOccurred = s.NMIPending, s.NMIOccurred
}

// nesPalette is the reference NTSC 64-entry RGB decode table.
var nesPalette = [64]uint32{
	0x666666, 0x002A88, 0x1412A7, 0x3B00A4, 0x5C007E, 0x6E0040, 0x6C0600, 0x561D00,
	0x333500, 0x0B4800, 0x005200, 0x004F08, 0x00404D, 0x000000, 0x000000, 0x000000,
	0xADADAD, 0x155FD9, 0x4240FF, 0x7527FE, 0xA01ACC, 0xB71E7B, 0xB53120, 0x994E00,
	0x6B6D00, 0x388700, 0x0C9300, 0x008F32, 0x007C8D, 0x000000, 0x000000, 0x000000,
	0xFFFEFF, 0x64B0FF, 0x9290FF, 0xC676FF, 0xF36AFF, 0xFE6ECC, 0xFE8170, 0xEA9E22,
	0xBCBE00, 0x88D800, 0x5CE430, 0x45E082, 0x48CDDE, 0x4F4F4F, 0x000000, 0x000000,
	0xFFFEFF, 0xC0DFFF, 0xD3D2FF, 0xE8C8FF, 0xFBC2FF, 0xFEC4EA, 0xFECCC5, 0xF7D8A5,
	0xE4E594, 0xCFEF96, 0xBDF4AB, 0xB3F3CC, 0xB5EBF2, 0xB8B8B8, 0x000000, 0x000000,
}
