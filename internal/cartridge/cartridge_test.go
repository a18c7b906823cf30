package cartridge

import (
	"bytes"
	"testing"
)

// buildINES assembles a minimal iNES image: header + prgBanks*16KB PRG +
// chrBanks*8KB CHR (omitted entirely when chrBanks is 0, signalling CHR RAM).
func buildINES(mapperID uint8, prgBanks, chrBanks uint8, mirrorVertical, fourScreen bool) []byte {
	var buf bytes.Buffer
	buf.WriteString("NES\x1A")
	buf.WriteByte(prgBanks)
	buf.WriteByte(chrBanks)

	flags6 := (mapperID & 0x0F) << 4
	if mirrorVertical {
		flags6 |= 0x01
	}
	if fourScreen {
		flags6 |= 0x08
	}
	buf.WriteByte(flags6)
	buf.WriteByte(mapperID & 0xF0)
	buf.Write(make([]byte, 8)) // PRGRAMSize, TVSystem x2, padding x5

	buf.Write(make([]byte, int(prgBanks)*16384))
	buf.Write(make([]byte, int(chrBanks)*8192))
	return buf.Bytes()
}

func TestLoadFromReader_MirroringDetection(t *testing.T) {
	tests := []struct {
		name           string
		vertical       bool
		fourScreen     bool
		expectedMirror MirrorMode
	}{
		{"horizontal default", false, false, MirrorHorizontal},
		{"vertical flag", true, false, MirrorVertical},
		{"four-screen overrides vertical", true, true, MirrorFourScreen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := buildINES(0, 1, 1, tt.vertical, tt.fourScreen)
			cart, err := LoadFromReader(bytes.NewReader(data))
			if err != nil {
				t.Fatalf("LoadFromReader: %v", err)
			}
			if cart.Mirror() != tt.expectedMirror {
				t.Errorf("mirror mode = %v, want %v", cart.Mirror(), tt.expectedMirror)
			}
		})
	}
}

func TestLoadFromReader_BadMagic(t *testing.T) {
	data := buildINES(0, 1, 1, false, false)
	data[0] = 'X'
	if _, err := LoadFromReader(bytes.NewReader(data)); err == nil {
		t.Fatal("expected error for bad magic bytes")
	}
}

func TestLoadFromReader_UnsupportedMapper(t *testing.T) {
	data := buildINES(255, 1, 1, false, false)
	_, err := LoadFromReader(bytes.NewReader(data))
	if err == nil {
		t.Fatal("expected UnsupportedMapperError")
	}
	if _, ok := err.(*UnsupportedMapperError); !ok {
		t.Fatalf("expected *UnsupportedMapperError, got %T", err)
	}
}

func TestMapper000_PRGMirroring16KB(t *testing.T) {
	data := buildINES(0, 1, 1, false, false)
	data[16] = 0xAB // first byte of PRG ROM
	cart, err := LoadFromReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	lo, _ := cart.CPURead(0x8000)
	hi, _ := cart.CPURead(0xC000)
	if lo != 0xAB || hi != 0xAB {
		t.Errorf("16KB PRG not mirrored: 0x8000=%#x 0xC000=%#x", lo, hi)
	}
}

func TestMapper000_PRGRAM_ReadWrite(t *testing.T) {
	data := buildINES(0, 1, 1, false, false)
	cart, err := LoadFromReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	if claimed := cart.CPUWrite(0x6000, 0x42); !claimed {
		t.Fatal("expected cartridge to claim PRG RAM write")
	}
	value, ok := cart.CPURead(0x6000)
	if !ok || value != 0x42 {
		t.Errorf("CPURead(0x6000) = %#x, %v; want 0x42, true", value, ok)
	}
}

func TestMapper000_CHRRAM_WhenNoCHRROM(t *testing.T) {
	data := buildINES(0, 1, 0, false, false)
	cart, err := LoadFromReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	cart.PPUWrite(0x0010, 0x55)
	if got := cart.PPURead(0x0010); got != 0x55 {
		t.Errorf("CHR RAM round-trip = %#x, want 0x55", got)
	}
}

func TestFingerprint_StableAcrossLoadsOfSameImage(t *testing.T) {
	data := buildINES(0, 2, 1, false, false)
	c1, err := LoadFromReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	c2, err := LoadFromReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if c1.Fingerprint() != c2.Fingerprint() {
		t.Errorf("fingerprint mismatch across identical loads: %#x vs %#x", c1.Fingerprint(), c2.Fingerprint())
	}
}

func TestSnapshotRestore_PRGRAMRoundTrip(t *testing.T) {
	data := buildINES(0, 1, 1, false, false)
	cart, err := LoadFromReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	cart.CPUWrite(0x6000, 0x99)
	snap := cart.Snapshot()

	cart.CPUWrite(0x6000, 0x00)
	cart.Restore(snap)

	value, _ := cart.CPURead(0x6000)
	if value != 0x99 {
		t.Errorf("restored PRG RAM = %#x, want 0x99", value)
	}
}
