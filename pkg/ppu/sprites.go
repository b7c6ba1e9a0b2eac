package ppu

// evalState names the secondary-OAM scan states: copying in-range sprites
// (evalLoadY, which also performs the copy in the same dot), replaying the
// overflow-scan bug once 8 are found (evalOverflow), and idling (evalEnd).
type evalState int

const (
	evalLoadY evalState = iota
	evalOverflow
	evalEnd
)

// spriteOutput is one resolved foreground slot, loaded during dots 257..320
// and consumed during pixel composition on the following scanline.
type spriteOutput struct {
	patternLow   uint8
	patternHigh  uint8
	attribute    uint8
	x            uint8
	priority     bool
	isSpriteZero bool
}

// evalSprites runs the sprite-evaluation state machine for one dot of
// dots 1..256. Dots 1..64 clear secondary OAM to 0xFF; dots 65..256 walk
// primary OAM, copying up to 8 in-range sprites and reproducing the
// hardware's documented overflow-scan bug once the 9th is found.
func (p *PPU) evalSprites(dot int) {
	if dot >= 1 && dot <= 64 {
		if dot&1 == 0 {
			p.secondaryOAM[(dot/2)-1] = 0xFF
		}
		if dot == 64 {
			p.secondaryCount = 0
			p.spriteZeroInSecondary = false
			p.evalState = evalLoadY
			p.evalN = 0
			p.evalM = 0
		}
		return
	}
	if dot < 65 || dot > 256 || dot&1 == 0 {
		return
	}

	spriteSize := 8
	if p.ctrl&ctrlSpriteSize16 != 0 {
		spriteSize = 16
	}

	switch p.evalState {
	case evalLoadY:
		if p.evalN >= 64 {
			p.evalState = evalEnd
			return
		}
		y := p.oam[p.evalN*4]
		inRange := p.Scanline >= int(y) && p.Scanline < int(y)+spriteSize
		if !inRange {
			p.evalN++
			return
		}
		if p.secondaryCount < 8 {
			copy(p.secondaryOAM[p.secondaryCount*4:p.secondaryCount*4+4], p.oam[p.evalN*4:p.evalN*4+4])
			if p.evalN == 0 {
				p.spriteZeroInSecondary = true
			}
			p.secondaryCount++
			p.evalN++
			if p.secondaryCount == 8 {
				p.evalM = 0
				p.evalState = evalOverflow
			}
		}
	case evalOverflow:
		if p.evalN >= 64 {
			p.evalState = evalEnd
			return
		}
		y := p.oam[p.evalN*4+p.evalM]
		inRange := p.Scanline >= int(y) && p.Scanline < int(y)+spriteSize
		if inRange {
			p.status |= statusOverflow
			// On a hit only the byte index advances; the sprite index
			// moves on once it has stepped past the entry's fourth byte.
			p.evalM++
			if p.evalM == 4 {
				p.evalM = 0
				p.evalN++
			}
		} else {
			// Buggy increment: the byte index also advances on a miss.
			p.evalN++
			p.evalM++
			if p.evalM == 4 {
				p.evalM = 0
			}
		}
	case evalEnd:
	}
}

// loadForeground runs the dots 257..320 per-slot pattern fetch: each of the
// 8 slots takes 8 dots to load its low/high pattern byte, attribute, and X.
func (p *PPU) loadForeground(dot int) {
	if dot < 257 || dot > 320 {
		return
	}
	slot := (dot - 257) / 8
	if slot >= 8 {
		return
	}
	sub := (dot - 257) & 7
	if sub != 7 {
		return
	}

	if slot >= p.secondaryCount {
		p.foreground[slot] = spriteOutput{}
		return
	}

	base := slot * 4
	y := p.secondaryOAM[base]
	id := p.secondaryOAM[base+1]
	attr := p.secondaryOAM[base+2]
	x := p.secondaryOAM[base+3]

	flipV := attr&0x80 != 0
	flipH := attr&0x40 != 0
	rowWithinSprite := p.Scanline - int(y)

	var table uint16
	var tile uint8
	var row int
	if p.ctrl&ctrlSpriteSize16 != 0 {
		if flipV {
			rowWithinSprite = 15 - rowWithinSprite
		}
		if id&0x01 != 0 {
			table = 0x1000
		}
		tile = id &^ 0x01
		if rowWithinSprite >= 8 {
			tile |= 0x01
			row = rowWithinSprite - 8
		} else {
			row = rowWithinSprite
		}
	} else {
		if flipV {
			rowWithinSprite = 7 - rowWithinSprite
		}
		if p.ctrl&ctrlSpriteTable != 0 {
			table = 0x1000
		}
		tile = id
		row = rowWithinSprite
	}

	addr := table + uint16(tile)*16 + uint16(row)
	lo := p.readVRAM(addr)
	hi := p.readVRAM(addr + 8)
	if flipH {
		lo = reverseBits(lo)
		hi = reverseBits(hi)
	}

	p.foreground[slot] = spriteOutput{
		patternLow:   lo,
		patternHigh:  hi,
		attribute:    attr & 0x03,
		x:            x,
		isSpriteZero: slot == 0 && p.spriteZeroInSecondary,
	}
	p.foreground[slot].priority = attr&0x20 != 0
}

func reverseBits(b uint8) uint8 {
	b = (b&0xF0)>>4 | (b&0x0F)<<4
	b = (b&0xCC)>>2 | (b&0x33)<<2
	b = (b&0xAA)>>1 | (b&0x55)<<1
	return b
}

// fgPixel scans the loaded foreground slots for the one active at this
// visible dot (1-based column), returning whether any slot fired.
func (p *PPU) fgPixel(col int) (pattern, palette uint8, priority, isSpriteZero bool, ok bool) {
	for i := range p.foreground {
		s := &p.foreground[i]
		offset := col - 1 - int(s.x)
		if offset < 0 || offset > 7 {
			continue
		}
		shift := uint(offset)
		lo := (s.patternLow >> (7 - shift)) & 0x01
		hi := (s.patternHigh >> (7 - shift)) & 0x01
		pat := lo | hi<<1
		if pat == 0 {
			continue
		}
		return pat, s.attribute, s.priority, s.isSpriteZero, true
	}
	return 0, 0, false, false, false
}
