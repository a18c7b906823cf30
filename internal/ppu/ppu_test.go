package ppu

import (
	"testing"

	"gones/internal/cartridge"
)

// fakeCartridge is a minimal ppu.Cartridge stand-in: 8KB of CHR backed by a
// plain array, fixed mirroring, and a scanline-tick counter for assertions.
type fakeCartridge struct {
	chr    [0x2000]uint8
	mirror cartridge.MirrorMode
	ticks  int
}

func newFakeCartridge() *fakeCartridge {
	return &fakeCartridge{mirror: cartridge.MirrorHorizontal}
}

func (f *fakeCartridge) PPURead(address uint16) uint8  { return f.chr[address&0x1FFF] }
func (f *fakeCartridge) PPUWrite(address uint16, v uint8) { f.chr[address&0x1FFF] = v }
func (f *fakeCartridge) Mirror() cartridge.MirrorMode  { return f.mirror }
func (f *fakeCartridge) ScanlineTick()                 { f.ticks++ }

func TestNew_ShouldInitializeToPreRenderScanline(t *testing.T) {
	p := New(newFakeCartridge())
	if p.Scanline() != -1 || p.Dot() != 0 {
		t.Errorf("scanline/dot = %d/%d, want -1/0", p.Scanline(), p.Dot())
	}
}

func TestReset_ClearsRegistersAndTiming(t *testing.T) {
	p := New(newFakeCartridge())
	p.WriteRegister(0, 0xFF)
	p.WriteRegister(1, 0xFF)
	for i := 0; i < 30000; i++ {
		p.Clock()
	}
	p.Reset()

	if p.Scanline() != -1 || p.Dot() != 0 {
		t.Errorf("post-reset scanline/dot = %d/%d, want -1/0", p.Scanline(), p.Dot())
	}
	if p.FrameComplete() {
		t.Error("expected frame-complete cleared after reset")
	}
}

func TestWriteRegister_PPUCTRL_SetsNametableBitsInT(t *testing.T) {
	p := New(newFakeCartridge())
	p.WriteRegister(0, 0x03)
	if p.t&0x0C00 != 0x0C00 {
		t.Errorf("t nametable bits = %#x, want 0x0C00 set", p.t&0x0C00)
	}
}

func TestWriteRegister_PPUSCROLL_LatchesXThenY(t *testing.T) {
	p := New(newFakeCartridge())
	p.WriteRegister(5, 0x7D) // x: coarse 15, fine 5
	if p.fineX != 5 {
		t.Errorf("fineX = %d, want 5", p.fineX)
	}
	p.WriteRegister(5, 0x5E) // y
	if p.writeToggle {
		t.Error("write toggle should be clear after second scroll write")
	}
}

func TestWriteRegister_PPUADDR_LatchesHighThenLowAndSetsV(t *testing.T) {
	p := New(newFakeCartridge())
	p.WriteRegister(6, 0x21)
	p.WriteRegister(6, 0x08)
	if p.v != 0x2108 {
		t.Errorf("v = %#x, want 0x2108", p.v)
	}
}

func TestReadRegister_PPUSTATUS_ClearsVBlankAndWriteToggle(t *testing.T) {
	p := New(newFakeCartridge())
	p.status = 0x80
	p.writeToggle = true

	result := p.ReadRegister(2)
	if result&0x80 == 0 {
		t.Error("expected vblank bit in read result")
	}
	if p.status&0x80 != 0 {
		t.Error("expected vblank flag cleared after status read")
	}
	if p.writeToggle {
		t.Error("expected write toggle cleared after status read")
	}
}

func TestOAMDATA_WriteAdvancesAddress(t *testing.T) {
	p := New(newFakeCartridge())
	p.WriteRegister(3, 0x10) // OAMADDR
	p.WriteRegister(4, 0xAB) // OAMDATA
	if p.oam[0x10] != 0xAB {
		t.Errorf("oam[0x10] = %#x, want 0xab", p.oam[0x10])
	}
	if p.oamAddr != 0x11 {
		t.Errorf("oamAddr = %#x, want 0x11", p.oamAddr)
	}
}

func TestWriteOAMDMAByte_FillsSequentialOAMBytes(t *testing.T) {
	p := New(newFakeCartridge())
	p.WriteRegister(3, 0)
	for i := 0; i < 256; i++ {
		p.WriteOAMDMAByte(uint8(i))
	}
	for i := 0; i < 256; i++ {
		if p.oam[i] != uint8(i) {
			t.Fatalf("oam[%d] = %d, want %d", i, p.oam[i], i)
		}
	}
}

func TestPPUDATA_ReadIsBufferedExceptPalette(t *testing.T) {
	cart := newFakeCartridge()
	cart.chr[0x0010] = 0x42
	p := New(cart)

	p.WriteRegister(6, 0x00)
	p.WriteRegister(6, 0x10)
	first := p.ReadRegister(7)
	if first == 0x42 {
		t.Error("first PPUDATA read should return the stale buffer, not the new byte")
	}
	second := p.ReadRegister(7)
	if second != 0x42 {
		t.Errorf("second PPUDATA read = %#x, want 0x42", second)
	}
}

func TestPPUDATA_PaletteReadIsNotBuffered(t *testing.T) {
	p := New(newFakeCartridge())
	p.palette[0] = 0x20
	p.WriteRegister(6, 0x3F)
	p.WriteRegister(6, 0x00)
	if got := p.ReadRegister(7); got != 0x20 {
		t.Errorf("palette read = %#x, want 0x20", got)
	}
}

func TestPPUDATA_WriteIncrementsVByControlBit(t *testing.T) {
	p := New(newFakeCartridge())
	p.WriteRegister(0, 0x04) // VRAM increment by 32
	p.WriteRegister(6, 0x20)
	p.WriteRegister(6, 0x00)
	p.WriteRegister(7, 0xFF)
	if p.v != 0x2020 {
		t.Errorf("v after write = %#x, want 0x2020", p.v)
	}
}

func TestClock_AdvancesDotThenScanline(t *testing.T) {
	p := New(newFakeCartridge())
	for i := 0; i < 341; i++ {
		p.Clock()
	}
	if p.Scanline() != 0 || p.Dot() != 0 {
		t.Errorf("scanline/dot after 341 clocks = %d/%d, want 0/0", p.Scanline(), p.Dot())
	}
}

func TestClock_CompletesFrameAtScanline241Dot1(t *testing.T) {
	p := New(newFakeCartridge())
	for !p.FrameComplete() {
		p.Clock()
	}
	if p.Scanline() != 241 || p.Dot() != 1 {
		t.Errorf("frame completed at scanline/dot %d/%d, want 241/1", p.Scanline(), p.Dot())
	}
}

func TestPollNMI_EdgeTriggeredAndConsumingOnce(t *testing.T) {
	p := New(newFakeCartridge())
	p.WriteRegister(0, 0x80) // enable NMI on vblank
	// pre-render line plus scanlines 0-241 covers the edge at 241/1
	for i := 0; i < 341*243; i++ {
		p.Clock()
		if p.PollNMI() {
			if p.PollNMI() {
				t.Error("second PollNMI reported the same edge again")
			}
			return
		}
	}
	t.Fatal("expected an NMI edge within two scanlines of frame completion")
}

func TestScanlineTick_FiresOncePerVisibleScanlineWhenRenderingEnabled(t *testing.T) {
	cart := newFakeCartridge()
	p := New(cart)
	p.WriteRegister(1, 0x08) // enable background rendering

	// pre-render line plus visible scanlines 0-239
	for i := 0; i < 341*241; i++ {
		p.Clock()
	}
	if cart.ticks != 240 {
		t.Errorf("mapper scanline ticks = %d, want 240", cart.ticks)
	}
}

func TestScanlineTick_DoesNotFireWhenRenderingDisabled(t *testing.T) {
	cart := newFakeCartridge()
	p := New(cart)

	for i := 0; i < 341*240; i++ {
		p.Clock()
	}
	if cart.ticks != 0 {
		t.Errorf("mapper scanline ticks = %d, want 0 with rendering disabled", cart.ticks)
	}
}

func TestSnapshotRestore_RoundTripsRegisterState(t *testing.T) {
	p := New(newFakeCartridge())
	p.WriteRegister(0, 0x90)
	p.WriteRegister(6, 0x21)
	p.WriteRegister(6, 0x08)

	snap := p.Snapshot()

	p.WriteRegister(0, 0x00)
	p.WriteRegister(6, 0x00)
	p.WriteRegister(6, 0x00)

	p.Restore(snap)
	if p.ctrl != 0x90 {
		t.Errorf("ctrl after restore = %#x, want 0x90", p.ctrl)
	}
	if p.v != 0x2108 {
		t.Errorf("v after restore = %#x, want 0x2108", p.v)
	}
}

func TestCopyFrame_ReturnsCurrentFramebufferByValue(t *testing.T) {
	p := New(newFakeCartridge())
	p.frame[0] = 0xABCDEF

	var dst [screenWidth * screenHeight]uint32
	p.CopyFrame(&dst)
	if dst[0] != 0xABCDEF {
		t.Errorf("dst[0] = %#x, want 0xabcdef", dst[0])
	}

	p.frame[0] = 0
	if dst[0] != 0xABCDEF {
		t.Error("CopyFrame should snapshot by value, not alias the live framebuffer")
	}
}

func TestSamplePixel_ReadsBackWrittenPixel(t *testing.T) {
	p := New(newFakeCartridge())
	p.frame[5*screenWidth+3] = 0x112233
	if got := p.SamplePixel(3, 5); got != 0x112233 {
		t.Errorf("SamplePixel(3,5) = %#x, want 0x112233", got)
	}
}
