package ppu

// RGB is one output pixel's color.
type RGB struct {
	R, G, B uint8
}

// masterPalette is the classic 64-entry NES color table.
var masterPalette = [64]RGB{
	{0x80, 0x80, 0x80}, {0x00, 0x3D, 0xA6}, {0x00, 0x12, 0xB0}, {0x44, 0x00, 0x96},
	{0xA1, 0x00, 0x5E}, {0xC7, 0x00, 0x28}, {0xBA, 0x06, 0x00}, {0x8C, 0x17, 0x00},
	{0x5C, 0x2F, 0x00}, {0x10, 0x45, 0x00}, {0x05, 0x4A, 0x00}, {0x00, 0x47, 0x2E},
	{0x00, 0x41, 0x66}, {0x00, 0x00, 0x00}, {0x05, 0x05, 0x05}, {0x05, 0x05, 0x05},

	{0xC7, 0xC7, 0xC7}, {0x00, 0x77, 0xFF}, {0x21, 0x55, 0xFF}, {0x82, 0x37, 0xFA},
	{0xEB, 0x2F, 0xB5}, {0xFF, 0x29, 0x50}, {0xFF, 0x22, 0x00}, {0xD6, 0x32, 0x00},
	{0xC4, 0x62, 0x00}, {0x35, 0x80, 0x00}, {0x05, 0x8F, 0x00}, {0x00, 0x8A, 0x55},
	{0x00, 0x99, 0xCC}, {0x21, 0x21, 0x21}, {0x09, 0x09, 0x09}, {0x09, 0x09, 0x09},

	{0xFF, 0xFF, 0xFF}, {0x0F, 0xD7, 0xFF}, {0x69, 0xA2, 0xFF}, {0xD4, 0x80, 0xFF},
	{0xFF, 0x45, 0xF3}, {0xFF, 0x61, 0x8B}, {0xFF, 0x88, 0x33}, {0xFF, 0x9C, 0x12},
	{0xFA, 0xBC, 0x20}, {0x9F, 0xE3, 0x0E}, {0x2B, 0xF0, 0x35}, {0x0C, 0xF0, 0xA4},
	{0x05, 0xFB, 0xFF}, {0x5E, 0x5E, 0x5E}, {0x0D, 0x0D, 0x0D}, {0x0D, 0x0D, 0x0D},

	{0xFF, 0xFF, 0xFF}, {0xA6, 0xFC, 0xFF}, {0xB3, 0xEC, 0xFF}, {0xDA, 0xAB, 0xEB},
	{0xFF, 0xA8, 0xF9}, {0xFF, 0xAB, 0xB3}, {0xFF, 0xD2, 0xB0}, {0xFF, 0xEF, 0xA6},
	{0xFF, 0xF7, 0x9C}, {0xD7, 0xFF, 0xB3}, {0xC6, 0xFF, 0xDE}, {0xC4, 0xFF, 0xF6},
	{0xC4, 0xF0, 0xFF}, {0xCC, 0xCC, 0xCC}, {0x3C, 0x3C, 0x3C}, {0x3C, 0x3C, 0x3C},
}

// Palette is the 32-byte palette RAM with its mirror-alias table.
type Palette struct {
	RAM [32]uint8
}

// paletteAddr applies the alias table: every 4th entry (0x10/0x14/0x18/0x1C)
// mirrors the corresponding backdrop entry (0x00/0x04/0x08/0x0C).
func paletteAddr(addr uint8) uint8 {
	addr &= 0x1F
	if addr&0x13 == 0x10 {
		return addr & 0x0F
	}
	return addr
}

func (p *Palette) Read(addr uint8) uint8 {
	return p.RAM[paletteAddr(addr)] & 0x3F
}

func (p *Palette) Write(addr uint8, value uint8) {
	p.RAM[paletteAddr(addr)] = value & 0x3F
}

// Color resolves a 6-bit palette index to RGB, honoring the grayscale mask
// and PPUMASK's three emphasis bits (0x20 red, 0x40 green, 0x80 blue): each
// unset emphasis bit scales its channel down, matching the documented
// emphasis behavior.
func Color(paletteIndex uint8, grayscale bool, mask uint8) RGB {
	if grayscale {
		paletteIndex &= 0x30
	}
	c := masterPalette[paletteIndex&0x3F]
	if mask&0xE0 == 0 {
		return c
	}
	if mask&0x20 == 0 {
		c.R = uint8(uint16(c.R) * 3 / 4)
	}
	if mask&0x40 == 0 {
		c.G = uint8(uint16(c.G) * 3 / 4)
	}
	if mask&0x80 == 0 {
		c.B = uint8(uint16(c.B) * 3 / 4)
	}
	return c
}
