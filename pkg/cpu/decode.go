package cpu

// Mode is a 6502 addressing mode.
type Mode int

const (
	ModeImplied Mode = iota
	ModeAccumulator
	ModeImmediate
	ModeZeroPage
	ModeZeroPageX
	ModeZeroPageY
	ModeAbsolute
	ModeAbsoluteX
	ModeAbsoluteY
	ModeIndirectX
	ModeIndirectY
	ModeRelative
	ModeIndirect // JMP (abs) only
)

// Kind is the control shape an opcode's micro-state sequence takes, on top
// of whatever its Mode contributes to the memory-access schedule.
type Kind int

const (
	KindALU     Kind = iota // read operand, run through the ALU, write to Dest
	KindRMW                 // read-modify-write memory (or accumulator) through the ALU
	KindStore               // write a register (or combination) to memory, no read
	KindBranch              // conditional relative branch
	KindJMPAbs              // JMP absolute
	KindJMPInd              // JMP (indirect)
	KindJSR                 // JSR absolute
	KindRTS                 // RTS
	KindRTI                 // RTI
	KindBRK                 // BRK
	KindPush                // PHA / PHP
	KindPull                // PLA / PLP
	KindImplied             // single-byte register/flag ops, and NOPs
	KindCombo               // unofficial read-modify-write-then-ALU (SLO/RLA/SRE/RRA/DCP/ISB)
)

// Dest names the destination a KindALU/KindRMW/KindCombo result lands in.
type Dest int

const (
	DestNone Dest = iota // flags only (CMP/CPX/CPY/BIT)
	DestA
	DestX
	DestY
	DestAX // unofficial LAX: loads both A and X
	DestMem
)

// Info is everything decode needs to know about one opcode, grounded on the
// classic per-opcode lookup table convention ({name,mode} rows, extended
// here with the ALU-op/Dest/Kind fields this CPU's micro-state machine
// needs instead of a monolithic per-opcode switch).
type Info struct {
	Mnemonic string
	Mode     Mode
	Kind     Kind
	ALU      Op  // primary ALU operation
	ALU2     Op  // secondary op for KindCombo (unofficial RMW+ALU opcodes)
	Dest     Dest
}

var opcodeTable [256]Info

func reg(opcode uint8, mnemonic string, mode Mode, kind Kind, alu Op, dest Dest) {
	opcodeTable[opcode] = Info{Mnemonic: mnemonic, Mode: mode, Kind: kind, ALU: alu, Dest: dest}
}

func init() {
	for i := range opcodeTable {
		opcodeTable[i] = Info{Mnemonic: "NOP", Mode: ModeImplied, Kind: KindImplied}
	}

	type row struct {
		op   uint8
		mode Mode
	}

	alu := func(name string, op Op, dest Dest, rows ...row) {
		for _, r := range rows {
			reg(r.op, name, r.mode, KindALU, op, dest)
		}
	}
	rmw := func(name string, op Op, rows ...row) {
		for _, r := range rows {
			reg(r.op, name, r.mode, KindRMW, op, DestMem)
		}
	}
	store := func(name string, dest Dest, rows ...row) {
		for _, r := range rows {
			reg(r.op, name, r.mode, KindStore, OpNone, dest)
		}
	}
	// ORA
	alu("ORA", OpORA, DestA,
		row{0x09, ModeImmediate}, row{0x05, ModeZeroPage}, row{0x15, ModeZeroPageX},
		row{0x0D, ModeAbsolute}, row{0x1D, ModeAbsoluteX}, row{0x19, ModeAbsoluteY},
		row{0x01, ModeIndirectX}, row{0x11, ModeIndirectY})
	// AND
	alu("AND", OpAND, DestA,
		row{0x29, ModeImmediate}, row{0x25, ModeZeroPage}, row{0x35, ModeZeroPageX},
		row{0x2D, ModeAbsolute}, row{0x3D, ModeAbsoluteX}, row{0x39, ModeAbsoluteY},
		row{0x21, ModeIndirectX}, row{0x31, ModeIndirectY})
	// EOR
	alu("EOR", OpEOR, DestA,
		row{0x49, ModeImmediate}, row{0x45, ModeZeroPage}, row{0x55, ModeZeroPageX},
		row{0x4D, ModeAbsolute}, row{0x5D, ModeAbsoluteX}, row{0x59, ModeAbsoluteY},
		row{0x41, ModeIndirectX}, row{0x51, ModeIndirectY})
	// ADC
	alu("ADC", OpADC, DestA,
		row{0x69, ModeImmediate}, row{0x65, ModeZeroPage}, row{0x75, ModeZeroPageX},
		row{0x6D, ModeAbsolute}, row{0x7D, ModeAbsoluteX}, row{0x79, ModeAbsoluteY},
		row{0x61, ModeIndirectX}, row{0x71, ModeIndirectY})
	// SBC (+ unofficial 0xEB alias)
	alu("SBC", OpSBC, DestA,
		row{0xE9, ModeImmediate}, row{0xEB, ModeImmediate}, row{0xE5, ModeZeroPage}, row{0xF5, ModeZeroPageX},
		row{0xED, ModeAbsolute}, row{0xFD, ModeAbsoluteX}, row{0xF9, ModeAbsoluteY},
		row{0xE1, ModeIndirectX}, row{0xF1, ModeIndirectY})
	// CMP
	alu("CMP", OpCMP, DestNone,
		row{0xC9, ModeImmediate}, row{0xC5, ModeZeroPage}, row{0xD5, ModeZeroPageX},
		row{0xCD, ModeAbsolute}, row{0xDD, ModeAbsoluteX}, row{0xD9, ModeAbsoluteY},
		row{0xC1, ModeIndirectX}, row{0xD1, ModeIndirectY})
	// CPX / CPY
	alu("CPX", OpCMP, DestNone, row{0xE0, ModeImmediate}, row{0xE4, ModeZeroPage}, row{0xEC, ModeAbsolute})
	alu("CPY", OpCMP, DestNone, row{0xC0, ModeImmediate}, row{0xC4, ModeZeroPage}, row{0xCC, ModeAbsolute})
	// BIT
	alu("BIT", OpBIT, DestNone, row{0x24, ModeZeroPage}, row{0x2C, ModeAbsolute})
	// LDA / LDX / LDY / LAX(unofficial)
	alu("LDA", OpLoad, DestA,
		row{0xA9, ModeImmediate}, row{0xA5, ModeZeroPage}, row{0xB5, ModeZeroPageX},
		row{0xAD, ModeAbsolute}, row{0xBD, ModeAbsoluteX}, row{0xB9, ModeAbsoluteY},
		row{0xA1, ModeIndirectX}, row{0xB1, ModeIndirectY})
	alu("LDX", OpLoad, DestX,
		row{0xA2, ModeImmediate}, row{0xA6, ModeZeroPage}, row{0xB6, ModeZeroPageY},
		row{0xAE, ModeAbsolute}, row{0xBE, ModeAbsoluteY})
	alu("LDY", OpLoad, DestY,
		row{0xA0, ModeImmediate}, row{0xA4, ModeZeroPage}, row{0xB4, ModeZeroPageX},
		row{0xAC, ModeAbsolute}, row{0xBC, ModeAbsoluteX})
	alu("LAX", OpLoad, DestAX,
		row{0xA7, ModeZeroPage}, row{0xB7, ModeZeroPageY}, row{0xAF, ModeAbsolute},
		row{0xBF, ModeAbsoluteY}, row{0xA3, ModeIndirectX}, row{0xB3, ModeIndirectY})

	// STA / STX / STY / SAX(unofficial)
	store("STA", DestA,
		row{0x85, ModeZeroPage}, row{0x95, ModeZeroPageX}, row{0x8D, ModeAbsolute},
		row{0x9D, ModeAbsoluteX}, row{0x99, ModeAbsoluteY}, row{0x81, ModeIndirectX}, row{0x91, ModeIndirectY})
	store("STX", DestX, row{0x86, ModeZeroPage}, row{0x96, ModeZeroPageY}, row{0x8E, ModeAbsolute})
	store("STY", DestY, row{0x84, ModeZeroPage}, row{0x94, ModeZeroPageX}, row{0x8C, ModeAbsolute})
	store("SAX", DestAX, row{0x87, ModeZeroPage}, row{0x97, ModeZeroPageY}, row{0x8F, ModeAbsolute}, row{0x83, ModeIndirectX})

	// RMW: ASL/LSR/ROL/ROR/INC/DEC, accumulator and memory forms
	reg(0x0A, "ASL", ModeAccumulator, KindRMW, OpASL, DestA)
	rmw("ASL", OpASL, row{0x06, ModeZeroPage}, row{0x16, ModeZeroPageX}, row{0x0E, ModeAbsolute}, row{0x1E, ModeAbsoluteX})
	reg(0x4A, "LSR", ModeAccumulator, KindRMW, OpLSR, DestA)
	rmw("LSR", OpLSR, row{0x46, ModeZeroPage}, row{0x56, ModeZeroPageX}, row{0x4E, ModeAbsolute}, row{0x5E, ModeAbsoluteX})
	reg(0x2A, "ROL", ModeAccumulator, KindRMW, OpROL, DestA)
	rmw("ROL", OpROL, row{0x26, ModeZeroPage}, row{0x36, ModeZeroPageX}, row{0x2E, ModeAbsolute}, row{0x3E, ModeAbsoluteX})
	reg(0x6A, "ROR", ModeAccumulator, KindRMW, OpROR, DestA)
	rmw("ROR", OpROR, row{0x66, ModeZeroPage}, row{0x76, ModeZeroPageX}, row{0x6E, ModeAbsolute}, row{0x7E, ModeAbsoluteX})
	rmw("INC", OpINC, row{0xE6, ModeZeroPage}, row{0xF6, ModeZeroPageX}, row{0xEE, ModeAbsolute}, row{0xFE, ModeAbsoluteX})
	rmw("DEC", OpDEC, row{0xC6, ModeZeroPage}, row{0xD6, ModeZeroPageX}, row{0xCE, ModeAbsolute}, row{0xDE, ModeAbsoluteX})

	// Unofficial combined RMW+ALU: SLO/RLA/SRE/RRA/DCP/ISB
	comboRows := func(name string, first, second Op, rows ...row) {
		for _, r := range rows {
			opcodeTable[r.op] = Info{Mnemonic: name, Mode: r.mode, Kind: KindCombo, ALU: first, ALU2: second, Dest: DestA}
		}
	}
	comboRows("SLO", OpASL, OpORA, row{0x07, ModeZeroPage}, row{0x17, ModeZeroPageX}, row{0x0F, ModeAbsolute},
		row{0x1F, ModeAbsoluteX}, row{0x1B, ModeAbsoluteY}, row{0x03, ModeIndirectX}, row{0x13, ModeIndirectY})
	comboRows("RLA", OpROL, OpAND, row{0x27, ModeZeroPage}, row{0x37, ModeZeroPageX}, row{0x2F, ModeAbsolute},
		row{0x3F, ModeAbsoluteX}, row{0x3B, ModeAbsoluteY}, row{0x23, ModeIndirectX}, row{0x33, ModeIndirectY})
	comboRows("SRE", OpLSR, OpEOR, row{0x47, ModeZeroPage}, row{0x57, ModeZeroPageX}, row{0x4F, ModeAbsolute},
		row{0x5F, ModeAbsoluteX}, row{0x5B, ModeAbsoluteY}, row{0x43, ModeIndirectX}, row{0x53, ModeIndirectY})
	comboRows("RRA", OpROR, OpADC, row{0x67, ModeZeroPage}, row{0x77, ModeZeroPageX}, row{0x6F, ModeAbsolute},
		row{0x7F, ModeAbsoluteX}, row{0x7B, ModeAbsoluteY}, row{0x63, ModeIndirectX}, row{0x73, ModeIndirectY})
	comboRows("DCP", OpDEC, OpCMP, row{0xC7, ModeZeroPage}, row{0xD7, ModeZeroPageX}, row{0xCF, ModeAbsolute},
		row{0xDF, ModeAbsoluteX}, row{0xDB, ModeAbsoluteY}, row{0xC3, ModeIndirectX}, row{0xD3, ModeIndirectY})
	comboRows("ISB", OpINC, OpSBC, row{0xE7, ModeZeroPage}, row{0xF7, ModeZeroPageX}, row{0xEF, ModeAbsolute},
		row{0xFF, ModeAbsoluteX}, row{0xFB, ModeAbsoluteY}, row{0xE3, ModeIndirectX}, row{0xF3, ModeIndirectY})
	// DCP/ISB write their memory result back, not A; mark Dest accordingly.
	for _, r := range []uint8{0xC7, 0xD7, 0xCF, 0xDF, 0xDB, 0xC3, 0xD3, 0xE7, 0xF7, 0xEF, 0xFF, 0xFB, 0xE3, 0xF3} {
		opcodeTable[r].Dest = DestMem
	}

	// Branches
	reg(0x10, "BPL", ModeRelative, KindBranch, OpNone, DestNone)
	reg(0x30, "BMI", ModeRelative, KindBranch, OpNone, DestNone)
	reg(0x50, "BVC", ModeRelative, KindBranch, OpNone, DestNone)
	reg(0x70, "BVS", ModeRelative, KindBranch, OpNone, DestNone)
	reg(0x90, "BCC", ModeRelative, KindBranch, OpNone, DestNone)
	reg(0xB0, "BCS", ModeRelative, KindBranch, OpNone, DestNone)
	reg(0xD0, "BNE", ModeRelative, KindBranch, OpNone, DestNone)
	reg(0xF0, "BEQ", ModeRelative, KindBranch, OpNone, DestNone)

	// Jumps / subroutine
	reg(0x4C, "JMP", ModeAbsolute, KindJMPAbs, OpNone, DestNone)
	reg(0x6C, "JMP", ModeIndirect, KindJMPInd, OpNone, DestNone)
	reg(0x20, "JSR", ModeAbsolute, KindJSR, OpNone, DestNone)
	reg(0x60, "RTS", ModeImplied, KindRTS, OpNone, DestNone)
	reg(0x40, "RTI", ModeImplied, KindRTI, OpNone, DestNone)
	reg(0x00, "BRK", ModeImplied, KindBRK, OpNone, DestNone)

	// Stack
	reg(0x48, "PHA", ModeImplied, KindPush, OpNone, DestA)
	reg(0x08, "PHP", ModeImplied, KindPush, OpNone, DestNone) // P, with B=1
	reg(0x68, "PLA", ModeImplied, KindPull, OpNone, DestA)
	reg(0x28, "PLP", ModeImplied, KindPull, OpNone, DestNone) // P

	// Implied register/flag ops
	implied := func(op uint8, name string) { reg(op, name, ModeImplied, KindImplied, OpNone, DestNone) }
	implied(0xAA, "TAX")
	implied(0x8A, "TXA")
	implied(0xA8, "TAY")
	implied(0x98, "TYA")
	implied(0xBA, "TSX")
	implied(0x9A, "TXS")
	implied(0xE8, "INX")
	implied(0xC8, "INY")
	implied(0xCA, "DEX")
	implied(0x88, "DEY")
	implied(0x18, "CLC")
	implied(0x38, "SEC")
	implied(0x58, "CLI")
	implied(0x78, "SEI")
	implied(0xB8, "CLV")
	implied(0xD8, "CLD")
	implied(0xF8, "SED")
	implied(0xEA, "NOP")

	// Unofficial NOPs: correct addressing mode, discarded read.
	nopModes := []row{
		{0x1A, ModeImplied}, {0x3A, ModeImplied}, {0x5A, ModeImplied}, {0x7A, ModeImplied}, {0xDA, ModeImplied}, {0xFA, ModeImplied},
		{0x80, ModeImmediate}, {0x82, ModeImmediate}, {0x89, ModeImmediate}, {0xC2, ModeImmediate}, {0xE2, ModeImmediate},
		{0x04, ModeZeroPage}, {0x44, ModeZeroPage}, {0x64, ModeZeroPage},
		{0x14, ModeZeroPageX}, {0x34, ModeZeroPageX}, {0x54, ModeZeroPageX}, {0x74, ModeZeroPageX}, {0xD4, ModeZeroPageX}, {0xF4, ModeZeroPageX},
		{0x0C, ModeAbsolute},
		{0x1C, ModeAbsoluteX}, {0x3C, ModeAbsoluteX}, {0x5C, ModeAbsoluteX}, {0x7C, ModeAbsoluteX}, {0xDC, ModeAbsoluteX}, {0xFC, ModeAbsoluteX},
	}
	for _, r := range nopModes {
		reg(r.op, "NOP", r.mode, KindImplied, OpNone, DestNone)
	}
}
