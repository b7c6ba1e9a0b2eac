package ppu

// bgState holds the background pipeline's fetch latches and the four shift
// registers that pixel emission reads from each dot.
type bgState struct {
	nextNametable uint8
	nextAttribute uint8
	nextLow       uint8
	nextHigh      uint8

	shiftPatternLow  uint16
	shiftPatternHigh uint16
	shiftAttrLow     uint16
	shiftAttrHigh    uint16
}

// fetchStep runs the one sub-fetch due at this dot, per the documented
// dot&7 schedule: 1 nametable, 3 attribute, 5 pattern-low, 7 pattern-high
// (which also reloads the shifters from the latches).
func (p *PPU) fetchStep(dot int) {
	switch dot & 7 {
	case 1:
		p.loadShifters()
		p.bg.nextNametable = p.readVRAM(0x2000 | (p.v & 0x0FFF))
	case 3:
		addr := uint16(0x23C0) | (p.v & 0x0C00) | ((p.v >> 4) & 0x38) | ((p.v >> 2) & 0x07)
		attr := p.readVRAM(addr)
		if coarseY(p.v)&0x02 != 0 {
			attr >>= 4
		}
		if coarseX(p.v)&0x02 != 0 {
			attr >>= 2
		}
		p.bg.nextAttribute = attr & 0x03
	case 5:
		table := uint16(0)
		if p.ctrl&ctrlBGTable != 0 {
			table = 0x1000
		}
		addr := table + uint16(p.bg.nextNametable)*16 + fineY(p.v)
		p.bg.nextLow = p.readVRAM(addr)
	case 7:
		table := uint16(0)
		if p.ctrl&ctrlBGTable != 0 {
			table = 0x1000
		}
		addr := table + uint16(p.bg.nextNametable)*16 + fineY(p.v) + 8
		p.bg.nextHigh = p.readVRAM(addr)
	}
}

// loadShifters merges the latched nametable/attribute/pattern bytes into
// the low byte of each 16-bit shifter, ready to be shifted out over the
// next 8 dots.
func (p *PPU) loadShifters() {
	p.bg.shiftPatternLow = (p.bg.shiftPatternLow &^ 0x00FF) | uint16(p.bg.nextLow)
	p.bg.shiftPatternHigh = (p.bg.shiftPatternHigh &^ 0x00FF) | uint16(p.bg.nextHigh)

	var attrLow, attrHigh uint16
	if p.bg.nextAttribute&0x01 != 0 {
		attrLow = 0xFF
	}
	if p.bg.nextAttribute&0x02 != 0 {
		attrHigh = 0xFF
	}
	p.bg.shiftAttrLow = (p.bg.shiftAttrLow &^ 0x00FF) | attrLow
	p.bg.shiftAttrHigh = (p.bg.shiftAttrHigh &^ 0x00FF) | attrHigh
}

// shiftBackground advances all four shift registers one bit left.
func (p *PPU) shiftBackground() {
	if !p.renderingEnabled() {
		return
	}
	p.bg.shiftPatternLow <<= 1
	p.bg.shiftPatternHigh <<= 1
	p.bg.shiftAttrLow <<= 1
	p.bg.shiftAttrHigh <<= 1
}

// bgPixel returns the current dot's background (pattern 0..3, palette 0..3)
// selected by fine X out of the shift registers.
func (p *PPU) bgPixel() (pattern, palette uint8) {
	mux := uint16(0x8000) >> p.fineX
	var lo, hi uint8
	if p.bg.shiftPatternLow&mux != 0 {
		lo = 1
	}
	if p.bg.shiftPatternHigh&mux != 0 {
		hi = 1
	}
	pattern = lo | hi<<1

	var palLo, palHi uint8
	if p.bg.shiftAttrLow&mux != 0 {
		palLo = 1
	}
	if p.bg.shiftAttrHigh&mux != 0 {
		palHi = 1
	}
	palette = palLo | palHi<<1
	return
}
