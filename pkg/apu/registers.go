package apu

func (a *APU) writePulse(p *PulseChannel, reg uint16, value uint8) {
	switch reg {
	case 0: // duty, envelope/volume
		p.DutyCycle = (value >> 6) & 0x03
		p.Length.Halt = value&0x20 != 0
		p.Envelope.Loop = value&0x20 != 0
		p.Envelope.Constant = value&0x10 != 0
		p.Volume = value & 0x0F
		p.Envelope.Volume = value & 0x0F
	case 1: // sweep
		p.Sweep.Enabled = value&0x80 != 0
		p.Sweep.Period = (value >> 4) & 0x07
		p.Sweep.Negate = value&0x08 != 0
		p.Sweep.Shift = value & 0x07
		p.Sweep.Reload = true
	case 2: // timer low
		p.TimerValue = (p.TimerValue & 0xFF00) | uint16(value)
	case 3: // length load, timer high
		p.TimerValue = (p.TimerValue & 0x00FF) | (uint16(value&0x07) << 8)
		if p.Enabled {
			p.Length.Value = lengthTable[(value>>3)&0x1F]
		}
		p.Envelope.Start = true
		p.Sequence = 0
	}
}

func (a *APU) writeTriangle(reg uint16, value uint8) {
	t := &a.Triangle
	switch reg {
	case 0: // linear counter control/reload
		t.LinearControl = value&0x80 != 0
		t.Length.Halt = value&0x80 != 0
		t.LinearReload = value & 0x7F
	case 1:
		// unused
	case 2: // timer low
		t.TimerValue = (t.TimerValue & 0xFF00) | uint16(value)
	case 3: // length load, timer high
		t.TimerValue = (t.TimerValue & 0x00FF) | (uint16(value&0x07) << 8)
		if t.Enabled {
			t.Length.Value = lengthTable[(value>>3)&0x1F]
		}
		t.linearReloadPending = true
	}
}

func (a *APU) writeNoise(reg uint16, value uint8) {
	n := &a.Noise
	switch reg {
	case 0:
		n.Length.Halt = value&0x20 != 0
		n.Envelope.Loop = value&0x20 != 0
		n.Envelope.Constant = value&0x10 != 0
		n.Volume = value & 0x0F
		n.Envelope.Volume = value & 0x0F
	case 1:
		// unused
	case 2:
		n.Mode = value&0x80 != 0
		n.TimerValue = noisePeriods[value&0x0F]
	case 3:
		if n.Enabled {
			n.Length.Value = lengthTable[(value>>3)&0x1F]
		}
		n.Envelope.Start = true
	}
}

func (a *APU) writeDMC(reg uint16, value uint8) {
	d := &a.DMC
	switch reg {
	case 0: // rate, loop, IRQ enable
		d.IRQEnabled = value&0x80 != 0
		d.Loop = value&0x40 != 0
		d.rateIndex = value & 0x0F
		d.period = dmcRates[d.rateIndex]
		if !d.IRQEnabled {
			d.IRQFlag = false
		}
	case 1: // direct load
		d.OutputLevel = value & 0x7F
	case 2: // sample address
		d.sampleAddrStart = 0xC000 + uint16(value)*64
	case 3: // sample length
		d.sampleLenStart = uint16(value)*16 + 1
	}
}

func (a *APU) writeStatus(value uint8) {
	a.Pulse1.Enabled = value&0x01 != 0
	a.Pulse2.Enabled = value&0x02 != 0
	a.Triangle.Enabled = value&0x04 != 0
	a.Noise.Enabled = value&0x08 != 0

	if !a.Pulse1.Enabled {
		a.Pulse1.Length.Value = 0
	}
	if !a.Pulse2.Enabled {
		a.Pulse2.Length.Value = 0
	}
	if !a.Triangle.Enabled {
		a.Triangle.Length.Value = 0
	}
	if !a.Noise.Enabled {
		a.Noise.Length.Value = 0
	}

	d := &a.DMC
	wasEnabled := d.Enabled
	d.Enabled = value&0x10 != 0
	if !d.Enabled {
		d.bytesRemaining = 0
	} else if !wasEnabled && d.bytesRemaining == 0 {
		d.currentAddress = d.sampleAddrStart
		d.bytesRemaining = d.sampleLenStart
	}
	d.IRQFlag = false
}

func (a *APU) writeFrameCounter(value uint8) {
	a.frame.reset(a, value)
}
