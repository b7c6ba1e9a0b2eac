package cpu

import "fmt"

// Decode returns the static opcode info backing the micro-state machine's
// dispatch, for tooling (cmd/disasm) that wants to inspect an instruction
// without executing it.
func Decode(opcode uint8) Info {
	return opcodeTable[opcode]
}

// OperandLength reports how many bytes follow the opcode byte for mode.
func OperandLength(mode Mode) int {
	switch mode {
	case ModeImplied, ModeAccumulator:
		return 0
	case ModeAbsolute, ModeAbsoluteX, ModeAbsoluteY, ModeIndirect:
		return 2
	default:
		return 1
	}
}

// Disassemble renders one instruction as 6502 mnemonic text. operandLow and
// operandHigh are read even when the mode doesn't use them; callers pass
// whatever follows the opcode in memory. It never touches CPU state.
func Disassemble(opcode, operandLow, operandHigh uint8) string {
	info := opcodeTable[opcode]
	switch info.Mode {
	case ModeImplied:
		return info.Mnemonic
	case ModeAccumulator:
		return info.Mnemonic + " A"
	case ModeImmediate:
		return fmt.Sprintf("%s #$%02X", info.Mnemonic, operandLow)
	case ModeZeroPage:
		return fmt.Sprintf("%s $%02X", info.Mnemonic, operandLow)
	case ModeZeroPageX:
		return fmt.Sprintf("%s $%02X,X", info.Mnemonic, operandLow)
	case ModeZeroPageY:
		return fmt.Sprintf("%s $%02X,Y", info.Mnemonic, operandLow)
	case ModeRelative:
		offset := int8(operandLow)
		return fmt.Sprintf("%s *%+d", info.Mnemonic, offset)
	case ModeAbsolute:
		return fmt.Sprintf("%s $%02X%02X", info.Mnemonic, operandHigh, operandLow)
	case ModeAbsoluteX:
		return fmt.Sprintf("%s $%02X%02X,X", info.Mnemonic, operandHigh, operandLow)
	case ModeAbsoluteY:
		return fmt.Sprintf("%s $%02X%02X,Y", info.Mnemonic, operandHigh, operandLow)
	case ModeIndirect:
		return fmt.Sprintf("%s ($%02X%02X)", info.Mnemonic, operandHigh, operandLow)
	case ModeIndirectX:
		return fmt.Sprintf("%s ($%02X,X)", info.Mnemonic, operandLow)
	case ModeIndirectY:
		return fmt.Sprintf("%s ($%02X),Y", info.Mnemonic, operandLow)
	default:
		return info.Mnemonic
	}
}
