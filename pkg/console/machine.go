// Package console wires the CPU, PGU, AGU, bus, and controllers together
// into one master-clock-driven machine.
package console

import (
	"github.com/eightbitcore/nes/pkg/apu"
	"github.com/eightbitcore/nes/pkg/bus"
	"github.com/eightbitcore/nes/pkg/cartridge"
	"github.com/eightbitcore/nes/pkg/cpu"
	"github.com/eightbitcore/nes/pkg/input"
	"github.com/eightbitcore/nes/pkg/logger"
	"github.com/eightbitcore/nes/pkg/ppu"
)

// Machine aggregates CPU+PGU+AGU+bus+mapper+controllers and drives them
// with one master-clock Tick per CPU cycle: the PGU runs three dots per
// call, the AGU once, and DMA/DMC stalls withhold the CPU tick without
// stopping the rest of the clock.
type Machine struct {
	CPU  *cpu.CPU
	PPU  *ppu.PPU
	APU  *apu.APU
	Bus  *bus.Bus
	Cart *cartridge.Cartridge

	Controllers [2]*input.Controller

	oddCPUCycle      bool
	pendingDMCStall  int
}

// New wires up a Machine around an already-loaded cartridge.
func New(cart *cartridge.Cartridge) *Machine {
	m := &Machine{
		Bus:  bus.New(),
		PPU:  ppu.New(),
		APU:  apu.New(),
		Cart: cart,
	}
	m.Controllers[0] = input.New()
	m.Controllers[1] = input.New()

	m.PPU.Cart = cart.Mapper
	m.Bus.Cart = cart.Mapper
	m.Bus.PPU = m.PPU
	m.Bus.APU = m.APU
	m.Bus.Controllers[0] = m.Controllers[0]
	m.Bus.Controllers[1] = m.Controllers[1]
	m.APU.Bus = m.Bus

	m.CPU = cpu.New(m.Bus)
	m.Reset()

	logger.LogInfo("machine initialized: mapper=%d mirroring=%v", cart.Header.Mapper, cart.Header.Mirroring)
	return m
}

// Reset returns every subsystem to its power-up state without discarding
// the loaded cartridge.
func (m *Machine) Reset() {
	m.CPU.Reset()
	m.PPU.Reset()
	m.APU.Reset()
	m.oddCPUCycle = false
	m.pendingDMCStall = 0
}

// Tick advances the master clock by one CPU-cycle unit: the PGU three
// dots, the AGU once, with the CPU itself withheld during an active
// OAM-DMA transfer or an accumulated DMC sample-refill stall.
func (m *Machine) Tick() {
	if m.Bus.DMA.Requested() {
		m.Bus.DMA.Begin(m.oddCPUCycle)
	}

	switch {
	case m.Bus.DMA.Active():
		m.Bus.DMA.Tick(m.Bus)
	case m.pendingDMCStall > 0:
		m.pendingDMCStall--
	default:
		m.CPU.Tick()
	}
	m.oddCPUCycle = !m.oddCPUCycle

	for i := 0; i < 3; i++ {
		m.PPU.Tick()
	}
	m.APU.Tick()
	m.pendingDMCStall += m.APU.TakeDMCStall()

	if m.PPU.NMIRequested {
		m.CPU.SetNMI(true)
		m.PPU.NMIRequested = false
	} else {
		m.CPU.SetNMI(false)
	}
	m.CPU.SetIRQ(m.APU.IRQPending())
}

// TakeFrame returns the most recently composed frame and whether a new
// one finished since the last call.
func (m *Machine) TakeFrame() (ppu.Frame, bool) {
	return m.PPU.TakeFrame()
}

// TakeSamples returns and clears the AGU's buffered, resampled audio.
func (m *Machine) TakeSamples() []float64 {
	return m.APU.TakeSamples()
}

// LoadButtons latches port's (0 or 1) button state for the next strobe.
func (m *Machine) LoadButtons(port int, buttons [8]bool) {
	m.Controllers[port].Load(buttons)
}
