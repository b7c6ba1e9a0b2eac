package apu

import (
	"math"
	"testing"
)

func TestLengthTableSpotValues(t *testing.T) {
	cases := map[int]uint8{0: 10, 1: 254, 3: 2, 31: 30}
	for idx, want := range cases {
		if lengthTable[idx] != want {
			t.Fatalf("lengthTable[%d]: want %d, got %d", idx, want, lengthTable[idx])
		}
	}
}

func TestEnvelopeStartThenZeroPeriodDecaysEveryStep(t *testing.T) {
	a := New()
	env := &a.Pulse1.Envelope
	env.Start = true
	env.Volume = 0 // divider reloads to 0 every step: decay fires every call

	a.stepEnvelope(env) // consumes the start: counter=15, divider=0
	if env.counter != 15 || env.Start {
		t.Fatalf("want counter=15 and Start cleared after the first step, got counter=%d Start=%v", env.counter, env.Start)
	}
	a.stepEnvelope(env)
	a.stepEnvelope(env)
	if env.counter != 13 {
		t.Fatalf("want counter=13 after two more decay steps, got %d", env.counter)
	}
}

func TestEnvelopeLoopWrapsAtZero(t *testing.T) {
	a := New()
	env := &a.Pulse1.Envelope
	env.Start = true
	env.Loop = true
	env.Volume = 0

	a.stepEnvelope(env) // counter=15
	for i := 0; i < 15; i++ {
		a.stepEnvelope(env) // 15 decay steps: 15 -> 0
	}
	if env.counter != 0 {
		t.Fatalf("want counter=0 before the loop wrap, got %d", env.counter)
	}
	a.stepEnvelope(env) // one more step: loop wraps back to 15
	if env.counter != 15 {
		t.Fatalf("want counter to wrap to 15 when Loop is set, got %d", env.counter)
	}
}

func TestEnvelopeNoLoopSticksAtZero(t *testing.T) {
	a := New()
	env := &a.Pulse1.Envelope
	env.Start = true
	env.Loop = false
	env.Volume = 0

	a.stepEnvelope(env)
	for i := 0; i < 20; i++ {
		a.stepEnvelope(env)
	}
	if env.counter != 0 {
		t.Fatalf("without Loop, counter should stick at 0, got %d", env.counter)
	}
}

func TestNoiseLFSRPeriodMode1(t *testing.T) {
	a := New()
	a.Noise.ShiftReg = 1
	a.Noise.Mode = true // bit-6 tap: 93-step period
	a.Noise.TimerValue = 0

	count := 0
	for {
		a.tickNoise()
		count++
		if a.Noise.ShiftReg == 1 || count > 200 {
			break
		}
	}
	if count != 93 {
		t.Fatalf("mode-1 LFSR period: want 93, got %d", count)
	}
}

func TestNoiseLFSRPeriodMode0(t *testing.T) {
	a := New()
	a.Noise.ShiftReg = 1
	a.Noise.Mode = false // bit-1 tap: 32767-step period
	a.Noise.TimerValue = 0

	count := 0
	for {
		a.tickNoise()
		count++
		if a.Noise.ShiftReg == 1 || count > 40000 {
			break
		}
	}
	if count != 32767 {
		t.Fatalf("mode-0 LFSR period: want 32767, got %d", count)
	}
}

func TestFrameSequencer4StepTwoHalfFramesAndIRQ(t *testing.T) {
	a := New()
	a.Pulse1.Length = LengthCounter{Enabled: true, Value: 5}
	for i := 0; i < seqBoth2; i++ {
		a.frame.tick(a)
	}
	if a.Pulse1.Length.Value != 3 {
		t.Fatalf("4-step mode should run two half-frames by cycle %d, want Length=3, got %d", seqBoth2, a.Pulse1.Length.Value)
	}
	if !a.FrameIRQ {
		t.Fatalf("4-step mode should raise FrameIRQ at cycle %d when not inhibited", seqBoth2)
	}
}

func TestFrameSequencer4StepIRQInhibited(t *testing.T) {
	a := New()
	a.frame.irqInhibit = true
	for i := 0; i < seqBoth2; i++ {
		a.frame.tick(a)
	}
	if a.FrameIRQ {
		t.Fatalf("FrameIRQ must stay clear when irqInhibit is set")
	}
}

func TestFrameSequencer5StepTwoHalfFramesNoIRQ(t *testing.T) {
	a := New()
	a.frame.mode5 = true
	a.Pulse1.Length = LengthCounter{Enabled: true, Value: 5}
	for i := 0; i < seqWrap5; i++ {
		a.frame.tick(a)
	}
	if a.Pulse1.Length.Value != 3 {
		t.Fatalf("5-step mode should run two half-frames by cycle %d, want Length=3, got %d", seqWrap5, a.Pulse1.Length.Value)
	}
	if a.FrameIRQ {
		t.Fatalf("5-step mode never raises FrameIRQ")
	}
	if a.frame.cycle != 0 {
		t.Fatalf("5-step mode should wrap its cycle counter to 0 at %d, got %d", seqWrap5, a.frame.cycle)
	}
}

func TestSweepTargetValidRange(t *testing.T) {
	s := &SweepUnit{Shift: 1}
	if _, valid := sweepTarget(7, s, false); valid {
		t.Fatalf("period below 8 should be invalid regardless of target")
	}
	if _, valid := sweepTarget(8, s, false); !valid {
		t.Fatalf("period 8 with a small positive shift should be valid")
	}
	s.Negate = false
	if target, valid := sweepTarget(0x7FF, s, false); valid || target <= 0x7FF {
		t.Fatalf("a target above 0x7FF should be invalid")
	}
}

func TestSweepTargetNegateOnesComplement(t *testing.T) {
	s := &SweepUnit{Shift: 1, Negate: true}
	// period=16, shift=1 -> change=8; ones-complement negate subtracts one
	// extra (pulse channel 1's documented behavior).
	target, valid := sweepTarget(16, s, true)
	if target != 7 || !valid {
		t.Fatalf("want ones-complement target=7 valid=true, got target=%d valid=%v", target, valid)
	}
	// Two's-complement (pulse channel 2) doesn't subtract the extra one.
	target2, _ := sweepTarget(16, s, false)
	if target2 != 8 {
		t.Fatalf("want two's-complement target=8, got %d", target2)
	}
}

func TestMixerCombineSilentIsZero(t *testing.T) {
	m := &mixer{}
	if got := m.combine(0, 0, 0, 0, 0); got != 0 {
		t.Fatalf("all channels silent should mix to exactly 0, got %v", got)
	}
}

func TestMixerCombineMatchesNonlinearFormula(t *testing.T) {
	m := &mixer{}
	got := m.combine(15, 15, 0, 0, 0)
	wantPulse := 95.88 / (8128.0/30.0 + 100.0)
	if math.Abs(got-wantPulse) > 1e-9 {
		t.Fatalf("want pulse-only mix %v, got %v", wantPulse, got)
	}

	got2 := m.combine(0, 0, 15, 15, 127)
	denom := 15.0/8227.0 + 15.0/12241.0 + 127.0/22638.0
	wantTND := 159.79 / (1.0/denom + 100.0)
	if math.Abs(got2-wantTND) > 1e-9 {
		t.Fatalf("want TND-only mix %v, got %v", wantTND, got2)
	}
}

func TestWriteStatusEnablesAndClearsLength(t *testing.T) {
	a := New()
	a.Pulse1.Length.Value = 10
	a.writeStatus(0x00) // disable everything
	if a.Pulse1.Length.Value != 0 {
		t.Fatalf("disabling a channel via $4015 should zero its length counter")
	}
	if a.Pulse1.Enabled {
		t.Fatalf("want Pulse1 disabled")
	}
}

func TestWriteStatusRestartsDMCWhenIdle(t *testing.T) {
	a := New()
	a.DMC.sampleAddrStart = 0xC100
	a.DMC.sampleLenStart = 32
	a.writeStatus(0x10) // enable DMC
	if a.DMC.currentAddress != 0xC100 || a.DMC.bytesRemaining != 32 {
		t.Fatalf("enabling an idle DMC should restart it from its configured sample, got addr=0x%04X remaining=%d",
			a.DMC.currentAddress, a.DMC.bytesRemaining)
	}
}

func TestWriteDMCSampleAddressAndLength(t *testing.T) {
	a := New()
	a.writeDMC(2, 0x01) // sample address byte
	if a.DMC.sampleAddrStart != 0xC000+64 {
		t.Fatalf("want sampleAddrStart=0x%04X, got 0x%04X", 0xC000+64, a.DMC.sampleAddrStart)
	}
	a.writeDMC(3, 0x01) // sample length byte
	if a.DMC.sampleLenStart != 17 {
		t.Fatalf("want sampleLenStart=17, got %d", a.DMC.sampleLenStart)
	}
}

func TestWriteDMCDisablingIRQClearsFlag(t *testing.T) {
	a := New()
	a.DMC.IRQFlag = true
	a.writeDMC(0, 0x00) // IRQ-enable bit clear
	if a.DMC.IRQFlag {
		t.Fatalf("clearing DMC IRQ-enable should clear a pending IRQ flag")
	}
}

func TestReadStatusReflectsLengthAndIRQBits(t *testing.T) {
	a := New()
	a.Pulse1.Length.Value = 1
	a.Noise.Length.Value = 1
	a.FrameIRQ = true
	got := a.ReadRegister(0x4015)
	if got&0x01 == 0 || got&0x08 == 0 || got&0x40 == 0 {
		t.Fatalf("want pulse1/noise/frame-IRQ bits set, got 0x%02X", got)
	}
	if a.FrameIRQ {
		t.Fatalf("reading $4015 should clear FrameIRQ")
	}
}

// TestPulseSequenceStepPeriodAndDuty pins Pulse1 to timer=253 (a period
// chosen so the per-step advance lands on a round number of CPU cycles) and
// checks both the per-step cadence and the resulting duty-cycle output.
func TestPulseSequenceStepPeriodAndDuty(t *testing.T) {
	a := New()
	p := &a.Pulse1
	p.Enabled = true
	p.TimerValue = 253
	p.DutyCycle = 2 // {0,1,1,1,1,0,0,0}: 4 of 8 steps high
	p.Length.Value = 1
	p.Envelope.Constant = true
	p.Volume = 15

	stepPeriod := int(p.TimerValue+1) * 2 // CPU ticks between sequence advances
	if stepPeriod != 508 {
		t.Fatalf("want 508 CPU ticks per sequence step, got %d", stepPeriod)
	}

	seq := p.Sequence
	advances := 0
	highTicks, totalTicks := 0, 0
	fullPeriod := stepPeriod * 8
	for i := 0; i < fullPeriod; i++ {
		a.Tick()
		totalTicks++
		if pulseOutput(p) > 0 {
			highTicks++
		}
		if p.Sequence != seq {
			advances++
			seq = p.Sequence
		}
	}
	if advances != 8 {
		t.Fatalf("want exactly 8 sequence advances over one full period, got %d", advances)
	}
	if got := float64(highTicks) / float64(totalTicks); got < 0.49 || got > 0.51 {
		t.Fatalf("want ~50%% duty cycle for DutyCycle=2, got %.3f", got)
	}
}

func TestPulseTimerLowHighRoundTrip(t *testing.T) {
	a := New()
	a.Pulse1.Enabled = true
	a.writePulse(&a.Pulse1, 2, 0x34)          // timer low
	a.writePulse(&a.Pulse1, 3, 0x05)          // length load + timer high (bits 0-2)
	if a.Pulse1.TimerValue != 0x0534 {
		t.Fatalf("want TimerValue=0x0534, got 0x%04X", a.Pulse1.TimerValue)
	}
	if !a.Pulse1.Envelope.Start {
		t.Fatalf("writing the length/timer-high register should restart the envelope")
	}
}
