// Package cpu implements the 6502-family CPU core: registers, the two-phase
// ALU, opcode decode tables, and the per-cycle micro-state machine that
// drives instruction execution, branch/page-cross timing, and interrupts.
package cpu

import "github.com/eightbitcore/nes/pkg/logger"

// Bus is the address space the CPU reads and writes one byte at a time.
type Bus interface {
	Read(addr uint16) uint8
	Write(addr uint16, v uint8)
}

type stateTag int

const (
	stFetchInstr stateTag = iota
	stFetchOperand
	stFetchOperandHigh
	stIndexedAdd // zero-page,index dummy add cycle
	stIndirect   // (zp,X)/(zp),Y/JMP(ind) pointer-chasing cycles
	stDummyRead  // discarded read, used for page-cross fixups and 2-cycle implied ops
	stRead
	stDummyWrite
	stWrite
	stBranchFix
	stBreak
	stJSR
	stRTI
	stRTS
	stPush
	stPull
)

type intSrc int

const (
	srcBRK intSrc = iota
	srcNMI
	srcIRQ
	srcReset
)

type microState struct {
	tag  stateTag
	step int
	src  intSrc
}

// CPU is the 6502-family core: registers, latches, the decoded instruction
// in flight, the embedded two-phase ALU, and the current micro-state.
type CPU struct {
	A, X, Y, SP uint8
	PC          uint16
	P           uint8

	low, high   uint8
	value       uint8
	fixPCH      bool
	branchTaken bool
	output      Dest

	opcode uint8
	info   Info

	idx     uint8 // 0 = none, 1 = X, 2 = Y — index register selected by the current addressing mode
	crossed bool
	target  uint16 // pending branch target, full 16 bits

	alu ALU

	state microState

	nmiLine, nmiPrev, nmiPending bool
	irqLine                      bool

	Bus   Bus
	Total uint64 // cumulative cycle count, for tests and the disassembler
}

// New constructs a CPU wired to bus and resets it (reads the reset vector).
func New(bus Bus) *CPU {
	c := &CPU{Bus: bus}
	c.Reset()
	return c
}

// Reset resynchronizes the CPU to power-up/reset state: SP=0xFD, P=0x34,
// PC loaded from the reset vector. Mirrors a hardware reset's three elided
// stack decrements without the bus writes.
func (c *CPU) Reset() {
	c.A, c.X, c.Y = 0, 0, 0
	c.SP = 0xFD
	c.P = FlagUnused | FlagBreak | FlagInterrupt
	lo := c.Bus.Read(0xFFFC)
	hi := c.Bus.Read(0xFFFD)
	c.PC = uint16(hi)<<8 | uint16(lo)
	c.state = microState{tag: stFetchInstr}
	c.output = DestNone
	c.nmiPending, c.nmiLine, c.nmiPrev, c.irqLine = false, false, false, false
	logger.LogCPU("reset: PC=%04X SP=%02X P=%02X", c.PC, c.SP, c.P)
}

// SetNMI updates the latched NMI input line; a false->true transition sets
// the edge-triggered pending flag, observed at the next instruction boundary.
func (c *CPU) SetNMI(line bool) {
	if line && !c.nmiPrev {
		c.nmiPending = true
	}
	c.nmiPrev = line
	c.nmiLine = line
}

// SetIRQ sets the level-triggered IRQ line; gated at dispatch by the I flag.
func (c *CPU) SetIRQ(line bool) {
	c.irqLine = line
}

// Tick advances the CPU by one machine cycle: at most one bus read and one
// bus write, then a micro-state transition.
func (c *CPU) Tick() {
	c.Total++
	if c.alu.HasPendingOutput() {
		out := c.alu.Commit(&c.P)
		c.route(out)
	}
	switch c.state.tag {
	case stFetchInstr:
		c.tickFetchInstr()
	case stFetchOperand:
		c.tickFetchOperand()
	case stFetchOperandHigh:
		c.tickFetchOperandHigh()
	case stIndexedAdd:
		c.tickIndexedAdd()
	case stIndirect:
		c.tickIndirect()
	case stDummyRead:
		c.tickDummyRead()
	case stRead:
		c.tickRead()
	case stDummyWrite:
		c.tickDummyWrite()
	case stWrite:
		c.tickWrite()
	case stBranchFix:
		c.tickBranchFix()
	case stBreak:
		c.tickBreak()
	case stJSR:
		c.tickJSR()
	case stRTI:
		c.tickRTI()
	case stRTS:
		c.tickRTS()
	case stPush:
		c.tickPush()
	case stPull:
		c.tickPull()
	}
}

// route applies a committed ALU output byte to its destination register, or
// parks it in the value latch for an upcoming Write state.
func (c *CPU) route(out uint8) {
	switch c.output {
	case DestA:
		c.A = out
	case DestX:
		c.X = out
	case DestY:
		c.Y = out
	case DestAX:
		c.A, c.X = out, out
	case DestMem:
		c.value = out
	}
	c.output = DestNone
}

func (c *CPU) effAddr() uint16 { return uint16(c.high)<<8 | uint16(c.low) }

// tickFetchInstr is the instruction boundary: interrupts are sampled here,
// ahead of decoding the next opcode.
func (c *CPU) tickFetchInstr() {
	if c.nmiPending {
		c.nmiPending = false
		c.state = microState{tag: stBreak, step: 0, src: srcNMI}
		_ = c.Bus.Read(c.PC)
		return
	}
	if c.irqLine && !c.getFlag(FlagInterrupt) {
		c.state = microState{tag: stBreak, step: 0, src: srcIRQ}
		_ = c.Bus.Read(c.PC)
		return
	}

	c.opcode = c.Bus.Read(c.PC)
	c.PC++
	c.info = opcodeTable[c.opcode]

	if c.info.Kind == KindBRK {
		c.state = microState{tag: stBreak, step: -1, src: srcBRK}
		return
	}

	switch c.info.Mode {
	case ModeImplied, ModeAccumulator:
		switch c.info.Kind {
		case KindPush:
			c.state = microState{tag: stPush}
		case KindPull:
			c.state = microState{tag: stDummyRead}
		case KindRTS:
			c.state = microState{tag: stDummyRead}
		case KindRTI:
			c.state = microState{tag: stDummyRead}
		case KindRMW: // accumulator ASL/LSR/ROL/ROR: apply immediately, 2 cycles total
			_ = c.Bus.Read(c.PC)
			c.alu.Set(c.info.ALU, 0, c.A, c.getFlag(FlagCarry))
			c.alu.Settle()
			c.A = c.alu.Commit(&c.P)
			c.state = microState{tag: stFetchInstr}
		default: // implied register/flag ops
			c.state = microState{tag: stDummyRead}
		}
	case ModeImmediate:
		c.state = microState{tag: stFetchOperand}
	case ModeRelative:
		c.state = microState{tag: stFetchOperand}
	case ModeZeroPage:
		c.state = microState{tag: stFetchOperand}
	case ModeZeroPageX:
		c.idx = 1
		c.state = microState{tag: stFetchOperand}
	case ModeZeroPageY:
		c.idx = 2
		c.state = microState{tag: stFetchOperand}
	case ModeAbsolute:
		c.idx = 0
		c.state = microState{tag: stFetchOperand}
	case ModeAbsoluteX:
		c.idx = 1
		c.state = microState{tag: stFetchOperand}
	case ModeAbsoluteY:
		c.idx = 2
		c.state = microState{tag: stFetchOperand}
	case ModeIndirectX:
		c.idx = 1
		c.state = microState{tag: stFetchOperand}
	case ModeIndirectY:
		c.idx = 2
		c.state = microState{tag: stFetchOperand}
	case ModeIndirect:
		c.state = microState{tag: stFetchOperand}
	}
}

// tickFetchOperand reads the byte immediately following the opcode: the
// immediate value, a zero-page address, a branch offset, an absolute/
// indirect pointer's low byte, or a zero-page indirect pointer.
func (c *CPU) tickFetchOperand() {
	b := c.Bus.Read(c.PC)
	c.PC++

	switch c.info.Kind {
	case KindBranch:
		c.evalBranch(b)
		return
	case KindJSR:
		c.low = b
		c.state = microState{tag: stJSR, step: 0}
		return
	}

	switch c.info.Mode {
	case ModeImmediate:
		c.finishOperand(b)
		return
	case ModeZeroPage:
		c.low, c.high = b, 0
		c.beginTerminal()
		return
	case ModeZeroPageX, ModeZeroPageY:
		c.low, c.high = b, 0
		c.state = microState{tag: stIndexedAdd}
		return
	case ModeAbsolute, ModeAbsoluteX, ModeAbsoluteY, ModeIndirect:
		c.low = b
		c.state = microState{tag: stFetchOperandHigh}
		return
	case ModeIndirectX, ModeIndirectY:
		c.low = b
		c.state = microState{tag: stIndirect, step: 0}
		return
	}
}

// finishOperand handles Immediate mode, where the fetched byte IS the
// operand: run it through the ALU right away (flags commit at the start of
// the next tick, which doubles as the next opcode's fetch cycle).
func (c *CPU) finishOperand(b uint8) {
	if c.info.Kind == KindALU {
		c.alu.Set(c.info.ALU, c.regFor(c.info.Dest, c.A), b, c.getFlag(FlagCarry))
		c.alu.Settle()
		c.output = c.info.Dest
	}
	c.state = microState{tag: stFetchInstr}
}

func (c *CPU) regFor(dest Dest, fallback uint8) uint8 {
	switch dest {
	case DestA:
		return c.A
	case DestX:
		return c.X
	case DestY:
		return c.Y
	default:
		return fallback
	}
}

func (c *CPU) tickIndexedAdd() {
	_ = c.Bus.Read(uint16(c.low)) // dummy read at the unindexed zero-page address
	c.low = c.low + c.indexVal()
	c.beginTerminal()
}

func (c *CPU) indexVal() uint8 {
	if c.idx == 1 {
		return c.X
	}
	if c.idx == 2 {
		return c.Y
	}
	return 0
}

func (c *CPU) tickFetchOperandHigh() {
	c.high = c.Bus.Read(c.PC)
	c.PC++

	if c.info.Mode == ModeIndirect {
		c.state = microState{tag: stIndirect, step: 0}
		return
	}
	if c.info.Kind == KindJMPAbs {
		c.PC = c.effAddr()
		c.state = microState{tag: stFetchInstr}
		return
	}

	if c.idx == 0 {
		c.beginTerminal()
		return
	}
	lowBefore := c.low
	c.low = c.low + c.indexVal()
	c.crossed = c.low < lowBefore
	if c.info.Kind == KindALU && !c.crossed {
		c.beginTerminal()
		return
	}
	c.state = microState{tag: stDummyRead}
}

// tickIndirect chases zero-page pointers for (zp,X)/(zp),Y and the bugged
// JMP (indirect) page-wrap.
func (c *CPU) tickIndirect() {
	switch c.info.Mode {
	case ModeIndirectX:
		switch c.state.step {
		case 0:
			_ = c.Bus.Read(uint16(c.low))
			c.low += c.X
			c.state.step = 1
		case 1:
			c.value = c.Bus.Read(uint16(c.low))
			c.state.step = 2
		case 2:
			hi := c.Bus.Read(uint16(uint8(c.low + 1)))
			c.low, c.high = c.value, hi
			c.beginTerminal()
		}
	case ModeIndirectY:
		switch c.state.step {
		case 0:
			c.value = c.Bus.Read(uint16(c.low))
			c.state.step = 1
		case 1:
			hi := c.Bus.Read(uint16(uint8(c.low + 1)))
			lowBefore := c.value
			newLow := lowBefore + c.Y
			c.crossed = newLow < lowBefore
			c.low, c.high = newLow, hi
			if c.info.Kind == KindALU && !c.crossed {
				c.beginTerminal()
				return
			}
			c.state = microState{tag: stDummyRead}
		}
	case ModeIndirect: // JMP (indirect): high byte wraps within the page (6502 bug)
		switch c.state.step {
		case 0:
			c.value = c.Bus.Read(c.effAddr())
			c.state.step = 1
		case 1:
			ptrHi := c.high
			hiAddr := uint16(ptrHi)<<8 | uint16(uint8(c.low+1))
			hi := c.Bus.Read(hiAddr)
			c.PC = uint16(hi)<<8 | uint16(c.value)
			c.state = microState{tag: stFetchInstr}
		}
	}
}

// tickDummyRead performs a discarded bus read. Depending on why we're here
// (the second cycle of an implied op, the page-cross fix for indexed
// addressing, or the shared padding cycle ahead of Pull/RTS/RTI) it
// chooses what comes next.
func (c *CPU) tickDummyRead() {
	switch c.info.Kind {
	case KindPull:
		_ = c.Bus.Read(c.PC)
		c.state = microState{tag: stPull, step: 0}
		return
	case KindRTS:
		_ = c.Bus.Read(c.PC)
		c.state = microState{tag: stRTS, step: 0}
		return
	case KindRTI:
		_ = c.Bus.Read(c.PC)
		c.state = microState{tag: stRTI, step: 0}
		return
	case KindImplied:
		_ = c.Bus.Read(c.PC)
		c.execImplied()
		c.state = microState{tag: stFetchInstr}
		return
	}

	// Page-cross fixup for an indexed addressing mode (ALU read needing the
	// extra cycle, or the mandatory fixup ahead of a write/RMW).
	_ = c.Bus.Read(c.effAddr()) // unfixed-high dummy read
	if c.crossed {
		c.high++
	}
	c.beginTerminal()
}

// execImplied runs a one-cycle implied/flag/transfer opcode.
func (c *CPU) execImplied() {
	switch c.info.Mnemonic {
	case "TAX":
		c.X = c.A
		c.setNZ(c.X)
	case "TXA":
		c.A = c.X
		c.setNZ(c.A)
	case "TAY":
		c.Y = c.A
		c.setNZ(c.Y)
	case "TYA":
		c.A = c.Y
		c.setNZ(c.A)
	case "TSX":
		c.X = c.SP
		c.setNZ(c.X)
	case "TXS":
		c.SP = c.X
	case "INX":
		c.X++
		c.setNZ(c.X)
	case "INY":
		c.Y++
		c.setNZ(c.Y)
	case "DEX":
		c.X--
		c.setNZ(c.X)
	case "DEY":
		c.Y--
		c.setNZ(c.Y)
	case "CLC":
		c.setFlag(FlagCarry, false)
	case "SEC":
		c.setFlag(FlagCarry, true)
	case "CLI":
		c.setFlag(FlagInterrupt, false)
	case "SEI":
		c.setFlag(FlagInterrupt, true)
	case "CLV":
		c.setFlag(FlagOverflow, false)
	case "CLD":
		c.setFlag(FlagDecimal, false)
	case "SED":
		c.setFlag(FlagDecimal, true)
	case "NOP":
		// nothing
	}
}

// beginTerminal enters the final read/write stage for the resolved
// effective address, according to the opcode's Kind.
func (c *CPU) beginTerminal() {
	switch c.info.Kind {
	case KindALU:
		c.state = microState{tag: stRead}
	case KindStore:
		c.value = c.storeValue()
		c.state = microState{tag: stWrite}
	case KindRMW, KindCombo, KindImplied:
		// KindImplied here means an unofficial NOP with a real addressing
		// mode (zero-page, zero-page-X or absolute; the absolute-X forms end
		// in tickDummyRead instead): tickRead performs the effective-address
		// read and discards it next tick.
		c.state = microState{tag: stRead}
	}
}

// storeValue resolves the byte a KindStore opcode writes to memory: the
// named source register, or A&X for the unofficial SAX.
func (c *CPU) storeValue() uint8 {
	switch c.info.Dest {
	case DestA:
		return c.A
	case DestX:
		return c.X
	case DestY:
		return c.Y
	case DestAX:
		return c.A & c.X
	}
	return 0
}

func (c *CPU) tickRead() {
	v := c.Bus.Read(c.effAddr())
	switch c.info.Kind {
	case KindALU:
		c.alu.Set(c.info.ALU, c.regFor(c.info.Dest, c.A), v, c.getFlag(FlagCarry))
		c.alu.Settle()
		c.output = c.info.Dest
		c.state = microState{tag: stFetchInstr}
	case KindRMW, KindCombo:
		c.value = v
		c.state = microState{tag: stDummyWrite}
	case KindImplied:
		c.state = microState{tag: stFetchInstr}
	}
}

// tickDummyWrite writes the just-read value back unmodified (the 6502's
// read-modify-write bus recycle), then stages the new value.
func (c *CPU) tickDummyWrite() {
	c.Bus.Write(c.effAddr(), c.value)
	if c.info.Kind == KindCombo {
		c.value = c.comboStep1(c.value)
	} else {
		c.alu.Set(c.info.ALU, 0, c.value, c.getFlag(FlagCarry))
		c.alu.Settle()
		c.output = DestMem
	}
	c.state = microState{tag: stWrite}
}

func (c *CPU) tickWrite() {
	c.Bus.Write(c.effAddr(), c.value)
	if c.info.Kind == KindCombo {
		c.comboStep2(c.value)
	}
	c.state = microState{tag: stFetchInstr}
}

// comboStep1 applies the unofficial opcode's first (RMW) operator, setting
// carry where the underlying RMW op would, and returns the new memory byte.
func (c *CPU) comboStep1(b uint8) uint8 {
	switch c.info.ALU {
	case OpASL:
		c.setFlag(FlagCarry, b&0x80 != 0)
		return b << 1
	case OpLSR:
		c.setFlag(FlagCarry, b&0x01 != 0)
		return b >> 1
	case OpROL:
		carryIn := c.getFlag(FlagCarry)
		c.setFlag(FlagCarry, b&0x80 != 0)
		out := b << 1
		if carryIn {
			out |= 0x01
		}
		return out
	case OpROR:
		carryIn := c.getFlag(FlagCarry)
		c.setFlag(FlagCarry, b&0x01 != 0)
		out := b >> 1
		if carryIn {
			out |= 0x80
		}
		return out
	case OpINC:
		return b + 1
	case OpDEC:
		return b - 1
	}
	return b
}

// comboStep2 applies the unofficial opcode's second (register) operator
// against the new memory byte produced by comboStep1.
func (c *CPU) comboStep2(b uint8) {
	switch c.info.ALU2 {
	case OpORA:
		c.A |= b
		c.setNZ(c.A)
	case OpAND:
		c.A &= b
		c.setNZ(c.A)
	case OpEOR:
		c.A ^= b
		c.setNZ(c.A)
	case OpADC:
		c.alu.Set(OpADC, c.A, b, c.getFlag(FlagCarry))
		c.alu.Settle()
		c.A = c.alu.Commit(&c.P)
	case OpSBC:
		c.alu.Set(OpSBC, c.A, b, c.getFlag(FlagCarry))
		c.alu.Settle()
		c.A = c.alu.Commit(&c.P)
	case OpCMP:
		c.alu.Set(OpCMP, c.A, b, false)
		c.alu.Settle()
		c.alu.Commit(&c.P)
	}
}

// evalBranch implements relative-branch timing: 2 cycles untaken, +1 taken,
// +1 more if the branch crosses a page.
func (c *CPU) evalBranch(offset uint8) {
	if !c.branchPredicate() {
		c.state = microState{tag: stFetchInstr}
		return
	}
	oldPCH := uint8(c.PC >> 8)
	newPC := c.PC + uint16(int8(offset))
	c.fixPCH = uint8(newPC>>8) != oldPCH
	c.target = newPC
	c.PC = uint16(oldPCH)<<8 | (newPC & 0xFF)
	c.state = microState{tag: stBranchFix, step: 0}
}

func (c *CPU) branchPredicate() bool {
	switch c.info.Mnemonic {
	case "BPL":
		return !c.getFlag(FlagNegative)
	case "BMI":
		return c.getFlag(FlagNegative)
	case "BVC":
		return !c.getFlag(FlagOverflow)
	case "BVS":
		return c.getFlag(FlagOverflow)
	case "BCC":
		return !c.getFlag(FlagCarry)
	case "BCS":
		return c.getFlag(FlagCarry)
	case "BNE":
		return !c.getFlag(FlagZero)
	case "BEQ":
		return c.getFlag(FlagZero)
	}
	return false
}

func (c *CPU) tickBranchFix() {
	_ = c.Bus.Read(c.PC)
	if c.state.step == 0 && c.fixPCH {
		c.PC = c.target
		c.state = microState{tag: stBranchFix, step: 1}
		return
	}
	c.state = microState{tag: stFetchInstr}
}

// tickJSR implements JSR's remaining 4 cycles after the operand low byte
// has already been fetched: an internal dummy cycle, two stack pushes, and
// the target's high byte fetch.
func (c *CPU) tickJSR() {
	switch c.state.step {
	case 0:
		_ = c.Bus.Read(0x0100 | uint16(c.SP))
		c.state.step = 1
	case 1:
		c.push(uint8(c.PC >> 8))
		c.state.step = 2
	case 2:
		c.push(uint8(c.PC))
		c.state.step = 3
	case 3:
		hi := c.Bus.Read(c.PC)
		c.PC = uint16(hi)<<8 | uint16(c.low)
		c.state = microState{tag: stFetchInstr}
	}
}

func (c *CPU) tickRTS() {
	switch c.state.step {
	case 0:
		_ = c.Bus.Read(0x0100 | uint16(c.SP))
		c.SP++
		c.state.step = 1
	case 1:
		c.low = c.pull()
		c.state.step = 2
	case 2:
		c.high = c.pull()
		c.PC = c.effAddr()
		c.state.step = 3
	case 3:
		_ = c.Bus.Read(c.PC)
		c.PC++
		c.state = microState{tag: stFetchInstr}
	}
}

func (c *CPU) tickRTI() {
	switch c.state.step {
	case 0:
		_ = c.Bus.Read(0x0100 | uint16(c.SP))
		c.SP++
		c.state.step = 1
	case 1:
		p := c.pull()
		c.P = (p &^ FlagBreak) | FlagUnused
		c.state.step = 2
	case 2:
		c.low = c.pull()
		c.state.step = 3
	case 3:
		c.high = c.pull()
		c.PC = c.effAddr()
		c.state = microState{tag: stFetchInstr}
	}
}

func (c *CPU) tickPush() {
	var v uint8
	switch c.info.Mnemonic {
	case "PHA":
		v = c.A
	case "PHP":
		v = statusForPush(c.P, true)
	}
	c.push(v)
	c.state = microState{tag: stFetchInstr}
}

func (c *CPU) tickPull() {
	switch c.state.step {
	case 0:
		_ = c.Bus.Read(0x0100 | uint16(c.SP))
		c.SP++
		c.state.step = 1
	case 1:
		v := c.Bus.Read(0x0100 | uint16(c.SP))
		switch c.info.Mnemonic {
		case "PLA":
			c.A = v
			c.setNZ(c.A)
		case "PLP":
			c.P = (v &^ FlagBreak) | FlagUnused
		}
		c.state = microState{tag: stFetchInstr}
	}
}

func (c *CPU) push(v uint8) {
	c.Bus.Write(0x0100|uint16(c.SP), v)
	c.SP--
}

func (c *CPU) pull() uint8 {
	return c.Bus.Read(0x0100 | uint16(c.SP))
}

// tickBreak runs the shared 7-cycle BRK/NMI/IRQ/reset tail: BRK spends its
// padding operand-byte read (step -1) in the cycle where hardware
// interrupts, which never fetched an operand, do a dummy read (step 0).
func (c *CPU) tickBreak() {
	src := c.state.src
	switch c.state.step {
	case -1: // BRK only: padding byte, doubling as the dummy-read cycle
		// NMI/IRQ spend in step 0, so BRK skips straight to step 1.
		_ = c.Bus.Read(c.PC)
		c.PC++
		c.state.step = 1
	case 0:
		_ = c.Bus.Read(c.PC)
		c.state.step = 1
	case 1:
		if src == srcReset {
			c.SP--
		} else {
			c.push(uint8(c.PC >> 8))
		}
		c.state.step = 2
	case 2:
		if src == srcReset {
			c.SP--
		} else {
			c.push(uint8(c.PC))
		}
		c.state.step = 3
	case 3:
		if src == srcReset {
			c.SP--
		} else {
			c.push(statusForPush(c.P, src == srcBRK))
		}
		c.setFlag(FlagInterrupt, true)
		c.state.step = 4
	case 4:
		c.low = c.Bus.Read(vectorLow(src))
		c.state.step = 5
	case 5:
		c.high = c.Bus.Read(vectorHigh(src))
		c.PC = c.effAddr()
		c.state = microState{tag: stFetchInstr}
	}
}

func vectorLow(src intSrc) uint16 {
	switch src {
	case srcNMI:
		return 0xFFFA
	case srcReset:
		return 0xFFFC
	default:
		return 0xFFFE
	}
}

func vectorHigh(src intSrc) uint16 {
	return vectorLow(src) + 1
}
