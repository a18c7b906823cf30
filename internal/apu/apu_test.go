package apu

import "testing"

// fakeCPUMemory is a minimal CPUMemory double for DMC sample fetches.
type fakeCPUMemory struct {
	data  [0x10000]uint8
	stall uint16
}

func (m *fakeCPUMemory) Read(address uint16) uint8 { return m.data[address] }
func (m *fakeCPUMemory) Stall(cycles uint16)        { m.stall += cycles }

func TestNew_DefaultsToFourStepModeWithFrameIRQEnabled(t *testing.T) {
	apu := New()
	if apu.frameMode {
		t.Error("expected 4-step mode by default")
	}
	if !apu.frameIRQEnable {
		t.Error("expected frame IRQ enabled by default")
	}
}

func TestWriteRegister_PulseTimerHigh_SetsLengthCounterAndRestartsEnvelope(t *testing.T) {
	apu := New()
	apu.WriteRegister(0x4000, 0x00)
	apu.WriteRegister(0x4003, 0x08) // length index 1 -> 254
	if apu.pulse1.lengthCounter != lengthTable[1] {
		t.Errorf("lengthCounter = %d, want %d", apu.pulse1.lengthCounter, lengthTable[1])
	}
	if !apu.pulse1.envelopeStart {
		t.Error("expected envelopeStart set after $4003 write")
	}
}

func TestWriteChannelEnable_ClearsLengthCountersForDisabledChannels(t *testing.T) {
	apu := New()
	apu.WriteRegister(0x4003, 0x08)
	apu.WriteRegister(0x4015, 0x01) // only pulse1 enabled
	if apu.pulse1.lengthCounter == 0 {
		t.Fatal("expected pulse1 length counter to remain set once enabled")
	}
	apu.WriteRegister(0x4015, 0x00) // disable everything
	if apu.pulse1.lengthCounter != 0 {
		t.Error("expected pulse1 length counter cleared when disabled")
	}
}

func TestReadStatus_ReportsLengthCountersAndClearsFrameIRQ(t *testing.T) {
	apu := New()
	apu.WriteRegister(0x4003, 0x08)
	apu.WriteRegister(0x4015, 0x01)
	apu.frameIRQFlag = true

	status := apu.ReadStatus()
	if status&0x01 == 0 {
		t.Error("expected pulse1 status bit set")
	}
	if status&0x40 == 0 {
		t.Error("expected frame IRQ status bit set on this read")
	}
	if apu.frameIRQFlag {
		t.Error("expected ReadStatus to clear the frame IRQ flag")
	}
}

func TestStepChannelTimers_TriangleAndDMCTickEveryCycle_PulseAndNoiseTickHalfRate(t *testing.T) {
	apu := New()
	apu.SetMemory(&fakeCPUMemory{})
	apu.WriteRegister(0x4015, 0x1F) // enable all channels

	apu.WriteRegister(0x4002, 0x02) // pulse1 timer = 2
	apu.WriteRegister(0x4003, 0x00)
	apu.WriteRegister(0x400A, 0x02) // triangle timer = 2
	apu.WriteRegister(0x400B, 0x00)

	pulseStart := apu.pulse1.timerCounter
	triStart := apu.triangle.timerCounter

	apu.cycles = 0
	apu.stepChannelTimers() // cycles%2==0: both pulse and triangle tick
	pulseAfterOne := apu.pulse1.timerCounter
	triAfterOne := apu.triangle.timerCounter

	if triAfterOne == triStart {
		t.Error("expected triangle timer to tick on every call")
	}
	if pulseAfterOne == pulseStart {
		t.Error("expected pulse timer to tick when cycles is even")
	}

	apu.cycles = 1
	apu.stepChannelTimers() // cycles%2==1: only triangle (and DMC) tick
	if apu.triangle.timerCounter == triAfterOne {
		t.Error("expected triangle timer to tick on an odd cycle too")
	}
	if apu.pulse1.timerCounter != pulseAfterOne {
		t.Error("expected pulse timer to hold when cycles is odd")
	}
}

func TestMixChannels_SilenceProducesZeroOutput(t *testing.T) {
	apu := New()
	if got := apu.mixChannels(0, 0, 0, 0, 0); got != 0 {
		t.Errorf("mixChannels(0,0,0,0,0) = %v, want 0", got)
	}
}

func TestMixChannels_MaxInputsStayWithinUnitRange(t *testing.T) {
	apu := New()
	got := apu.mixChannels(15, 15, 15, 15, 127)
	if got <= 0 || got > 1.0 {
		t.Errorf("mixChannels at max inputs = %v, want in (0, 1.0]", got)
	}
}

func TestDMCSampleFetch_StallsCPUAndReadsFromMemory(t *testing.T) {
	apu := New()
	mem := &fakeCPUMemory{}
	mem.data[0xC000] = 0xFF
	apu.SetMemory(mem)

	apu.WriteRegister(0x4010, 0x00) // rate index 0
	apu.WriteRegister(0x4012, 0x00) // sample address $C000
	apu.WriteRegister(0x4013, 0x00) // sample length 1 byte
	apu.WriteRegister(0x4015, 0x10) // enable DMC

	apu.dmc.timerCounter = 0
	apu.stepDMCTimer(&apu.dmc)

	if mem.stall != 4 {
		t.Errorf("CPU stall after DMC fetch = %d, want 4", mem.stall)
	}
	if apu.dmc.sampleBuffer != 0xFF {
		t.Errorf("sampleBuffer = %#x, want 0xff", apu.dmc.sampleBuffer)
	}
}

func TestSnapshotRestore_RoundTripsChannelAndFrameState(t *testing.T) {
	apu := New()
	apu.WriteRegister(0x4003, 0x08)
	apu.WriteRegister(0x4015, 0x01)
	apu.cycles = 12345

	snap := apu.Snapshot()

	other := New()
	other.Restore(snap)

	if other.pulse1.lengthCounter != apu.pulse1.lengthCounter {
		t.Error("expected pulse1 length counter to round-trip")
	}
	if other.cycles != apu.cycles {
		t.Errorf("cycles = %d, want %d", other.cycles, apu.cycles)
	}
	if other.channelEnable != apu.channelEnable {
		t.Error("expected channelEnable to round-trip")
	}
}

func TestWriteFrameCounter_FiveStepModeClocksUnitsImmediately(t *testing.T) {
	apu := New()
	apu.WriteRegister(0x4003, 0x08)
	before := apu.pulse1.lengthCounter
	apu.WriteRegister(0x4017, 0x80) // 5-step mode
	if apu.pulse1.lengthCounter != before-1 {
		t.Errorf("lengthCounter after 5-step mode write = %d, want %d", apu.pulse1.lengthCounter, before-1)
	}
}
