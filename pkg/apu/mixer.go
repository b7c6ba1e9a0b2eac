package apu

// Rational resampler ratio: 77/3125 of the CPU clock lands almost exactly
// on 44.1 kHz for the NTSC ~1.789773 MHz clock.
const (
	resampleNum = 77
	resampleDen = 3125

	highpass1K = 0.996039
	highpass2K = 0.999835
	lowpassK   = 0.815686
)

// mixer implements the non-linear DAC summing formulas followed by a
// two-highpass/one-lowpass IIR chain and the output-rate resampler.
type mixer struct {
	hp1Y, hp1XPrev float64
	hp2Y, hp2XPrev float64
	lpY            float64

	acc int
}

// combine applies the documented non-linear pulse and TND summing curves.
func (m *mixer) combine(p1, p2, triangle, noise, dmc uint8) float64 {
	var pulseOut float64
	if sum := int(p1) + int(p2); sum > 0 {
		pulseOut = 95.88 / (8128.0/float64(sum) + 100.0)
	}

	var tndOut float64
	if triangle != 0 || noise != 0 || dmc != 0 {
		denom := float64(triangle)/8227.0 + float64(noise)/12241.0 + float64(dmc)/22638.0
		tndOut = 159.79 / (1.0/denom + 100.0)
	}

	return pulseOut + tndOut
}

// feed filters one raw sample through the IIR chain and, when the
// rational resampler's accumulator rolls over, appends the filtered value
// to the output buffer.
func (m *mixer) feed(raw float64, out *[]float64) {
	hp1 := highpass1K * (m.hp1Y + raw - m.hp1XPrev)
	m.hp1XPrev = raw
	m.hp1Y = hp1

	hp2 := highpass2K * (m.hp2Y + hp1 - m.hp2XPrev)
	m.hp2XPrev = hp1
	m.hp2Y = hp2

	lp := lowpassK*m.lpY + (1-lowpassK)*hp2
	m.lpY = lp

	m.acc += resampleNum
	if m.acc >= resampleDen {
		m.acc -= resampleDen
		*out = append(*out, lp)
	}
}
