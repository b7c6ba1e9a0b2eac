// Package ppu implements the picture generation unit: a per-dot tick
// advancing a 262-scanline x 341-dot raster, a background shifter
// pipeline, a three-state sprite evaluator, and the composer that blends
// the two into one RGB frame.
package ppu

import (
	"github.com/eightbitcore/nes/pkg/logger"
	"github.com/eightbitcore/nes/pkg/mapper"
)

// Cartridge is the CHR-side plug a mapper must satisfy.
type Cartridge interface {
	ReadCHR(addr uint16) uint8
	WriteCHR(addr uint16, value uint8)
	Mirroring() mapper.Mirroring
}

// Frame is one composed 256x240 image, row-major.
type Frame [240][256]RGB

// PPU is the picture generation unit.
type PPU struct {
	ctrl, mask, status uint8
	oamAddr            uint8

	v, t      uint16
	fineX     uint8
	addrLatch bool

	oam        [256]uint8
	nametable  [2048]uint8
	palette    Palette
	readBuffer uint8

	bg bgState

	secondaryOAM          [32]uint8
	secondaryCount        int
	spriteZeroInSecondary bool
	evalState             evalState
	evalN, evalM          int
	foreground            [8]spriteOutput

	Cycle    int
	Scanline int
	Frame    uint64
	oddFrame bool

	frame     Frame
	frameDone bool

	NMIRequested bool

	Cart Cartridge
}

// New constructs an un-plugged PPU; Cart must be set before first use.
func New() *PPU {
	return &PPU{Scanline: 261}
}

// Reset returns the PPU to its power-up state.
func (p *PPU) Reset() {
	p.ctrl, p.mask, p.status = 0, 0, 0
	p.v, p.t, p.fineX = 0, 0, 0
	p.addrLatch = false
	p.Cycle = 0
	p.Scanline = 261
	p.oddFrame = false
	p.frameDone = false
	p.NMIRequested = false
}

// ReadRegister services a CPU read of one of the eight mirrored PGU ports.
func (p *PPU) ReadRegister(addr uint16) uint8 {
	switch addr & 0x2007 {
	case 0x2002:
		return p.readStatus()
	case 0x2004:
		return p.oam[p.oamAddr]
	case 0x2007:
		return p.readData()
	default:
		return 0
	}
}

// WriteRegister services a CPU write of one of the eight mirrored ports.
func (p *PPU) WriteRegister(addr uint16, value uint8) {
	switch addr & 0x2007 {
	case 0x2000:
		p.writeCtrl(value)
	case 0x2001:
		p.writeMask(value)
	case 0x2003:
		p.oamAddr = value
	case 0x2004:
		p.oam[p.oamAddr] = value
		p.oamAddr++
	case 0x2005:
		p.writeScroll(value)
	case 0x2006:
		p.writeAddr(value)
	case 0x2007:
		p.writeData(value)
	}
}

// readData implements $2007's buffered-read contract: palette reads are
// immediate, everything else reads one byte stale from an internal buffer
// that is refreshed every access.
func (p *PPU) readData() uint8 {
	addr := p.v & 0x3FFF
	var value uint8
	if addr >= 0x3F00 {
		value = p.readVRAM(addr)
		p.readBuffer = p.readVRAM(addr - 0x1000)
	} else {
		value = p.readBuffer
		p.readBuffer = p.readVRAM(addr)
	}
	p.v += p.vramIncrement()
	return value
}

func (p *PPU) writeData(value uint8) {
	p.writeVRAM(p.v&0x3FFF, value)
	p.v += p.vramIncrement()
}

// WriteOAMDMA is the OAM-DMA engine's byte sink: it stores at OAMADDR and
// post-increments OAMADDR (wrapping at 256), exactly like a $2004 write.
func (p *PPU) WriteOAMDMA(value uint8) {
	p.oam[p.oamAddr] = value
	p.oamAddr++
}

func (p *PPU) readVRAM(addr uint16) uint8 {
	addr &= 0x3FFF
	switch {
	case addr < 0x2000:
		if p.Cart != nil {
			return p.Cart.ReadCHR(addr)
		}
		return 0
	case addr < 0x3F00:
		return p.nametable[p.mirror(addr)]
	default:
		return p.palette.Read(uint8(addr))
	}
}

func (p *PPU) writeVRAM(addr uint16, value uint8) {
	addr &= 0x3FFF
	switch {
	case addr < 0x2000:
		if p.Cart != nil {
			p.Cart.WriteCHR(addr, value)
		}
	case addr < 0x3F00:
		p.nametable[p.mirror(addr)] = value
	default:
		p.palette.Write(uint8(addr), value)
	}
}

func (p *PPU) mirror(addr uint16) uint16 {
	mode := mapper.MirrorHorizontal
	if p.Cart != nil {
		mode = p.Cart.Mirroring()
	}
	offset := (addr - 0x2000) & 0x0FFF
	switch mode {
	case mapper.MirrorVertical:
		return offset & 0x07FF
	case mapper.MirrorSingleScreen:
		return offset & 0x03FF
	default: // horizontal
		return (offset & 0x03FF) | ((offset & 0x0800) >> 1)
	}
}

// Tick advances the PGU by one dot: the finest-grained unit the master
// clock drives it at, three per CPU cycle.
func (p *PPU) Tick() {
	switch {
	case p.Scanline == 261:
		p.tickPreRender()
	case p.Scanline >= 0 && p.Scanline <= 239:
		p.tickVisible()
	case p.Scanline == 241 && p.Cycle == 1:
		p.status |= statusVBlank
		if p.ctrl&ctrlGenerateNMI != 0 {
			p.NMIRequested = true
		}
		logger.LogPPU("vblank start, frame=%d", p.Frame)
	}

	p.Cycle++
	if p.Scanline == 261 && p.oddFrame && p.renderingEnabled() && p.Cycle == 340 {
		p.Cycle = 341 // odd-frame dot skip
	}
	if p.Cycle >= 341 {
		p.Cycle = 0
		p.Scanline++
		if p.Scanline >= 262 {
			p.Scanline = 0
			p.Frame++
			p.oddFrame = !p.oddFrame
			p.frameDone = true
		}
	}
}

func (p *PPU) tickPreRender() {
	if p.Cycle == 1 {
		p.status &^= statusVBlank | statusSprite0Hit | statusOverflow
	}
	p.runBackgroundFetch()
	if p.renderingEnabled() && p.Cycle >= 280 && p.Cycle <= 304 {
		p.v = copyVertical(p.v, p.t)
	}
}

func (p *PPU) tickVisible() {
	if p.Cycle >= 1 && p.Cycle <= 256 {
		p.emitPixel(p.Cycle)
		p.evalSprites(p.Cycle)
	}
	p.runBackgroundFetch()
	p.loadForeground(p.Cycle)
}

// runBackgroundFetch drives the shared background shifter/fetch schedule
// used by both visible and pre-render scanlines.
func (p *PPU) runBackgroundFetch() {
	inFetchWindow := (p.Cycle >= 1 && p.Cycle <= 256) || (p.Cycle >= 321 && p.Cycle <= 336)
	if inFetchWindow {
		p.shiftBackground()
		p.fetchStep(p.Cycle)
	}
	if !p.renderingEnabled() {
		return
	}
	if p.Cycle == 256 {
		p.v = incCoarseY(p.v)
	}
	if p.Cycle == 257 {
		p.v = copyHorizontal(p.v, p.t)
	}
	if (p.Cycle >= 328 || (p.Cycle >= 1 && p.Cycle <= 256)) && p.Cycle&7 == 0 && p.Cycle != 0 {
		p.v = incCoarseX(p.v)
	}
}

// emitPixel composes and stores the final color for visible dot col
// (1-based) on the current scanline, applying the documented priority and
// sprite-0-hit rules.
func (p *PPU) emitPixel(col int) {
	bgPattern, bgPalette := uint8(0), uint8(0)
	if p.mask&maskShowBG != 0 && (col > 8 || p.mask&maskBGLeft != 0) {
		bgPattern, bgPalette = p.bgPixel()
	}

	fgPattern, fgPalette, fgPriority, fgIsZero, fgOK := uint8(0), uint8(0), false, false, false
	if p.mask&maskShowSprites != 0 && (col > 8 || p.mask&maskSpriteLeft != 0) {
		fgPattern, fgPalette, fgPriority, fgIsZero, fgOK = p.fgPixel(col)
	}
	if !fgOK {
		fgPattern = 0
	}

	// Dot 1 is eligible only when both leftmost-pixel masks show; with
	// either clipped, the hit-test window starts at dot 9 instead.
	minCol := 1
	if p.mask&maskBGLeft == 0 || p.mask&maskSpriteLeft == 0 {
		minCol = 9
	}
	if fgIsZero && fgPattern != 0 && bgPattern != 0 &&
		p.mask&maskShowBG != 0 && p.mask&maskShowSprites != 0 &&
		col >= minCol && col <= 257 {
		p.status |= statusSprite0Hit
	}

	var paletteIndex uint8
	switch {
	case bgPattern == 0 && fgPattern == 0:
		paletteIndex = p.palette.Read(0)
	case bgPattern == 0:
		paletteIndex = p.palette.Read(0x10 | fgPalette<<2 | fgPattern)
	case fgPattern == 0:
		paletteIndex = p.palette.Read(bgPalette<<2 | bgPattern)
	case fgPriority:
		paletteIndex = p.palette.Read(bgPalette<<2 | bgPattern)
	default:
		paletteIndex = p.palette.Read(0x10 | fgPalette<<2 | fgPattern)
	}

	row := p.Scanline
	if row >= 0 && row < 240 && col >= 1 && col <= 256 {
		p.frame[row][col-1] = Color(paletteIndex, p.mask&maskGrayscale != 0, p.mask)
	}
}

// TakeFrame returns the most recently completed frame and whether a new
// one has finished composing since the last call.
func (p *PPU) TakeFrame() (Frame, bool) {
	if !p.frameDone {
		return p.frame, false
	}
	p.frameDone = false
	return p.frame, true
}
