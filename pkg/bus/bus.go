// Package bus implements the CPU address decoder: RAM mirroring, PGU/AGU
// register windows, controller ports, the OAM-DMA trigger, and the
// cartridge/mapper fallthrough for everything at 0x4020 and above.
package bus

import "github.com/eightbitcore/nes/pkg/logger"

// PPUPort is the subset of the PGU the bus talks to through its eight
// mirrored registers.
type PPUPort interface {
	ReadRegister(addr uint16) uint8
	WriteRegister(addr uint16, value uint8)
}

// APUPort is the subset of the AGU reachable through $4000-$4013/$4015/$4017.
type APUPort interface {
	ReadRegister(addr uint16) uint8
	WriteRegister(addr uint16, value uint8)
}

// CartPort is the cartridge's CPU-facing (PRG) half.
type CartPort interface {
	ReadPRG(addr uint16) uint8
	WritePRG(addr uint16, value uint8)
}

// ControllerPort is one serial-shift input device.
type ControllerPort interface {
	Read() uint8
	Write(strobe uint8)
}

// Bus is the CPU's address space: 2 KiB of mirrored RAM plus the plugged-in
// PGU/AGU/cartridge/controller ports, per the documented decoder table.
type Bus struct {
	RAM         [2048]uint8
	PPU         PPUPort
	APU         APUPort
	Cart        CartPort
	Controllers [2]ControllerPort

	DMA DMA
}

// New constructs an unplugged bus; PPU/APU/Cart/Controllers must be set
// before first use.
func New() *Bus {
	return &Bus{}
}

// Read dispatches a CPU read to the addressed device. 0x4018-0x401F is
// open-bus: it always reads 0.
func (b *Bus) Read(addr uint16) uint8 {
	switch {
	case addr < 0x2000:
		return b.RAM[addr&0x07FF]
	case addr < 0x4000:
		return b.PPU.ReadRegister(0x2000 + addr&0x0007)
	case addr == 0x4016:
		return b.Controllers[0].Read()
	case addr == 0x4017:
		return b.Controllers[1].Read()
	case addr == 0x4014:
		return 0 // OAM-DMA trigger is write-only
	case addr < 0x4016:
		return b.APU.ReadRegister(addr)
	case addr < 0x4020:
		return 0 // open bus
	default:
		return b.Cart.ReadPRG(addr)
	}
}

// Write dispatches a CPU write to the addressed device.
func (b *Bus) Write(addr uint16, value uint8) {
	switch {
	case addr < 0x2000:
		b.RAM[addr&0x07FF] = value
	case addr < 0x4000:
		b.PPU.WriteRegister(0x2000+addr&0x0007, value)
	case addr == 0x4014:
		b.DMA.Request(value)
		logger.LogCPU("OAM DMA requested: page=%02X", value)
	case addr == 0x4016:
		b.Controllers[0].Write(value)
		b.Controllers[1].Write(value)
	case addr < 0x4020:
		b.APU.WriteRegister(addr, value)
	default:
		b.Cart.WritePRG(addr, value)
	}
}

// WriteOAM feeds one DMA-transferred byte into the PGU's OAM through its
// $2004 register, the same path a CPU write would take.
func (b *Bus) WriteOAM(value uint8) {
	b.PPU.WriteRegister(0x2004, value)
}
