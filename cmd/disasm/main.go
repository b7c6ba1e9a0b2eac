// Command disasm is an interactive single-step debugger: it loads a ROM,
// wires up a console.Machine, and lets you walk the CPU one cycle or one
// instruction at a time while watching registers, a RAM page table, and
// the live PGU dot position.
package main

import (
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/davecgh/go-spew/spew"

	"github.com/eightbitcore/nes/pkg/cartridge"
	"github.com/eightbitcore/nes/pkg/console"
	"github.com/eightbitcore/nes/pkg/cpu"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: disasm <rom_file>")
		os.Exit(1)
	}

	file, err := os.Open(os.Args[1])
	if err != nil {
		log.Fatalf("failed to open ROM file: %v", err)
	}
	defer file.Close()

	cart, err := cartridge.Load(file)
	if err != nil {
		log.Fatalf("failed to load ROM: %v", err)
	}

	m := model{machine: console.New(cart)}
	if _, err := tea.NewProgram(m).Run(); err != nil {
		log.Fatalf("debugger exited: %v", err)
	}
}

type model struct {
	machine *console.Machine
	prevPC  uint16
	cycles  uint64 // master-clock ticks since last instruction step
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "c": // single master-clock cycle
		m.cycles = 0
		m.prevPC = m.machine.CPU.PC
		m.machine.Tick()
		m.cycles++
	case " ", "n": // one CPU instruction: tick until PC moves off its start
		m.cycles = 0
		m.prevPC = m.machine.CPU.PC
		start := m.prevPC
		for i := 0; i < 1_000_000; i++ {
			m.machine.Tick()
			m.cycles++
			if m.machine.CPU.PC != start {
				break
			}
		}
	case "f": // one full PGU frame
		m.cycles = 0
		for {
			m.machine.Tick()
			m.cycles++
			if _, ok := m.machine.TakeFrame(); ok {
				break
			}
		}
	}
	return m, nil
}

func (m model) View() string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, m.memoryPage(), m.registers()),
		"",
		m.currentInstruction(),
		"",
		"c: cycle   space/n: instruction   f: frame   q: quit",
	)
}

func (m model) memoryPage() string {
	pc := m.machine.CPU.PC
	start := pc &^ 0x0F
	header := "addr | " + " 0  1  2  3  4  5  6  7  8  9  a  b  c  d  e  f"
	lines := []string{header}
	for row := 0; row < 8; row++ {
		base := start + uint16(row*16)
		line := fmt.Sprintf("%04x | ", base)
		for col := uint16(0); col < 16; col++ {
			addr := base + col
			b := m.readByte(addr)
			if addr == pc {
				line += fmt.Sprintf("[%02x]", b)
			} else {
				line += fmt.Sprintf(" %02x ", b)
			}
		}
		lines = append(lines, line)
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// readByte peeks the bus without the read side effects a real CPU fetch
// would have on PGU/AGU registers: everything the debugger shows lives in
// RAM or cartridge PRG space for a typical program counter.
func (m model) readByte(addr uint16) uint8 {
	switch {
	case addr < 0x2000:
		return m.machine.Bus.RAM[addr&0x07FF]
	case addr >= 0x4020:
		return m.machine.Cart.Mapper.ReadPRG(addr)
	default:
		return 0
	}
}

func (m model) registers() string {
	c := m.machine.CPU
	var flags string
	for i, name := range []string{"N", "V", "_", "B", "D", "I", "Z", "C"} {
		bit := c.P & (1 << uint(7-i))
		if bit != 0 {
			flags += name + " "
		} else {
			flags += "_ "
		}
	}
	return fmt.Sprintf(`
PC: %04X (was %04X)
 A: %02X   X: %02X   Y: %02X
SP: %02X   P: %02X
Total cycles: %d   since step: %d
Flags: %s
PGU: frame=%d scanline=%d dot=%d`,
		c.PC, m.prevPC, c.A, c.X, c.Y, c.SP, c.P, c.Total, m.cycles, flags,
		m.machine.PPU.Frame, m.machine.PPU.Scanline, m.machine.PPU.Cycle)
}

func (m model) currentInstruction() string {
	pc := m.machine.CPU.PC
	opcode := m.readByte(pc)
	lo := m.readByte(pc + 1)
	hi := m.readByte(pc + 2)

	info := cpu.Decode(opcode)
	return fmt.Sprintf("%s\n%s", cpu.Disassemble(opcode, lo, hi), spew.Sdump(info))
}
