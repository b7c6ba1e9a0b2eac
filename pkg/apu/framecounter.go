package apu

// frameCounter is the AGU's quarter/half-frame sequencer. It advances once
// every other CPU cycle (the same half-rate pulse/noise timers run at),
// so its own counter units line up with the documented tick indices.
type frameCounter struct {
	mode5      bool
	irqInhibit bool

	cycle int

	// resetDelay counts down CPU cycles (not half-cycles) until a $4017
	// write's mode switch and counter reset takes effect.
	resetDelay int
}

const (
	seqQuarter1 = 3728
	seqBoth1    = 7456
	seqQuarter2 = 11185
	seqBoth2    = 14914
	seqWrap5    = 18641
)

// tick is called by APU.Tick on the half-cycle phase only.
func (f *frameCounter) tick(a *APU) {
	if f.resetDelay > 0 {
		f.resetDelay--
		if f.resetDelay == 0 {
			f.cycle = 0
		}
	}

	f.cycle++

	if f.mode5 {
		switch f.cycle {
		case seqQuarter1, seqQuarter2:
			a.quarterFrame()
		case seqBoth1:
			a.quarterFrame()
			a.halfFrame()
		case seqWrap5:
			a.quarterFrame()
			a.halfFrame()
			f.cycle = 0
		}
		return
	}

	switch f.cycle {
	case seqQuarter1, seqQuarter2:
		a.quarterFrame()
	case seqBoth1:
		a.quarterFrame()
		a.halfFrame()
	case seqBoth2:
		a.quarterFrame()
		a.halfFrame()
		if !f.irqInhibit {
			a.FrameIRQ = true
		}
		f.cycle = 0
	}
}

// reset schedules a mode/counter reset 3 or 4 CPU cycles out, per the
// documented write-timing quirk; a 5-step write also fires an immediate
// quarter+half tick.
func (f *frameCounter) reset(a *APU, value uint8) {
	f.mode5 = value&0x80 != 0
	f.irqInhibit = value&0x40 != 0
	if f.irqInhibit {
		a.FrameIRQ = false
	}

	if a.halfCycle {
		f.resetDelay = 3
	} else {
		f.resetDelay = 4
	}

	if f.mode5 {
		a.quarterFrame()
		a.halfFrame()
	}
}

func (a *APU) quarterFrame() {
	a.stepEnvelope(&a.Pulse1.Envelope)
	a.stepEnvelope(&a.Pulse2.Envelope)
	a.stepEnvelope(&a.Noise.Envelope)
	a.stepLinearCounter()
}

func (a *APU) halfFrame() {
	a.stepLengthCounter(&a.Pulse1.Length)
	a.stepLengthCounter(&a.Pulse2.Length)
	a.stepLengthCounter(&a.Triangle.Length)
	a.stepLengthCounter(&a.Noise.Length)
	a.stepSweep(&a.Pulse1, true)
	a.stepSweep(&a.Pulse2, false)
}
