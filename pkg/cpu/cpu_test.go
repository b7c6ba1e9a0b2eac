package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// flatBus is a 64 KiB RAM-backed Bus for isolated CPU tests.
type flatBus struct {
	mem [65536]uint8
}

func (b *flatBus) Read(addr uint16) uint8        { return b.mem[addr] }
func (b *flatBus) Write(addr uint16, v uint8)    { b.mem[addr] = v }
func (b *flatBus) load(addr uint16, bytes ...uint8) {
	for i, v := range bytes {
		b.mem[addr+uint16(i)] = v
	}
}

func newTestCPU() (*CPU, *flatBus) {
	bus := &flatBus{}
	bus.load(0xFFFC, 0x00, 0x02) // reset vector -> 0x0200
	c := New(bus)
	return c, bus
}

func step(c *CPU, n int) {
	for i := 0; i < n; i++ {
		c.Tick()
	}
}

func TestReset(t *testing.T) {
	c, _ := newTestCPU()
	assert.Equal(t, uint8(0), c.A)
	assert.Equal(t, uint8(0), c.X)
	assert.Equal(t, uint8(0), c.Y)
	assert.Equal(t, uint8(0xFD), c.SP)
	assert.Equal(t, FlagUnused|FlagBreak|FlagInterrupt, c.P)
	assert.Equal(t, uint16(0x0200), c.PC)
}

func TestResetClearsDirtyRegisters(t *testing.T) {
	c, _ := newTestCPU()
	c.A, c.X, c.Y, c.SP, c.P = 0xFF, 0xFF, 0xFF, 0x00, 0xFF
	c.Reset()
	assert.Equal(t, uint8(0), c.A)
	assert.Equal(t, uint8(0xFD), c.SP)
}

func TestLDAImmediateSetsZero(t *testing.T) {
	c, bus := newTestCPU()
	bus.load(0x0200, 0xA9, 0x00, 0xEA) // LDA #$00, NOP
	step(c, 3)
	assert.Equal(t, uint8(0), c.A)
	assert.True(t, c.GetFlag(FlagZero))
	assert.False(t, c.GetFlag(FlagNegative))
}

func TestLDAImmediateSetsNegative(t *testing.T) {
	c, bus := newTestCPU()
	bus.load(0x0200, 0xA9, 0x80, 0xEA)
	step(c, 3)
	assert.Equal(t, uint8(0x80), c.A)
	assert.True(t, c.GetFlag(FlagNegative))
	assert.False(t, c.GetFlag(FlagZero))
}

// TestADCSignedOverflow reproduces the canonical 0x50+0x50 case: two
// positive operands summing into the negative range sets V without C.
func TestADCSignedOverflow(t *testing.T) {
	c, bus := newTestCPU()
	bus.load(0x0200,
		0xA9, 0x50, // LDA #$50
		0x18,       // CLC
		0x69, 0x50, // ADC #$50
		0xEA, // NOP
	)
	step(c, 7)
	assert.Equal(t, uint8(0xA0), c.A)
	assert.True(t, c.GetFlag(FlagOverflow), "expected signed overflow")
	assert.True(t, c.GetFlag(FlagNegative))
	assert.False(t, c.GetFlag(FlagCarry))
}

// TestADCWithExplicitStartingStatusSignedOverflow pins the starting status
// register to 0x24 (interrupt-disable and unused bits set, reset's 0x34
// without B) before reproducing the 0x50+0x50 signed-overflow case from a
// clean carry.
func TestADCWithExplicitStartingStatusSignedOverflow(t *testing.T) {
	c, bus := newTestCPU()
	assert.Equal(t, uint8(0x34), c.P, "status register at reset")
	c.P = 0x24
	bus.load(0x0200,
		0xA9, 0x50, // LDA #$50
		0x69, 0x50, // ADC #$50
		0xEA, // NOP (its fetch cycle commits the ADC's deferred flags/result)
	)
	step(c, 5)
	assert.Equal(t, uint8(0xA0), c.A)
	assert.True(t, c.GetFlag(FlagNegative))
	assert.True(t, c.GetFlag(FlagOverflow))
	assert.False(t, c.GetFlag(FlagZero))
	assert.False(t, c.GetFlag(FlagCarry))
}

// TestADCUnsignedCarryNoOverflow: 0xFF + 0x01 wraps to 0x00 with carry out
// but no signed overflow (a positive result from a negative+positive sum).
func TestADCUnsignedCarryNoOverflow(t *testing.T) {
	c, bus := newTestCPU()
	bus.load(0x0200,
		0xA9, 0xFF, // LDA #$FF
		0x18,       // CLC
		0x69, 0x01, // ADC #$01
		0xEA,
	)
	step(c, 7)
	assert.Equal(t, uint8(0x00), c.A)
	assert.True(t, c.GetFlag(FlagCarry))
	assert.False(t, c.GetFlag(FlagOverflow))
	assert.True(t, c.GetFlag(FlagZero))
}

// TestSBCBorrow: 0x00 - 0x01 with carry set (no pending borrow) underflows
// to 0xFF and clears carry (borrow occurred).
func TestSBCBorrow(t *testing.T) {
	c, bus := newTestCPU()
	bus.load(0x0200,
		0xA9, 0x00, // LDA #$00
		0x38,       // SEC
		0xE9, 0x01, // SBC #$01
		0xEA,
	)
	step(c, 7)
	assert.Equal(t, uint8(0xFF), c.A)
	assert.False(t, c.GetFlag(FlagCarry), "borrow should clear carry")
	assert.True(t, c.GetFlag(FlagNegative))
}

func TestPHAPLARoundTrip(t *testing.T) {
	c, bus := newTestCPU()
	bus.load(0x0200,
		0xA9, 0x77, // LDA #$77
		0x48,       // PHA
		0xA9, 0x00, // LDA #$00 (clobber A)
		0x68, // PLA
	)
	startSP := c.SP
	// LDA #$77 (2) + PHA (2, fused with LDA's deferred commit) +
	// LDA #$00 (2) + PLA (4, fused with the second LDA's deferred commit) = 10 ticks
	step(c, 10)
	assert.Equal(t, uint8(0x77), c.A)
	assert.Equal(t, startSP, c.SP, "stack pointer should return to its starting depth")
}

func TestBranchNotTakenIsTwoCycles(t *testing.T) {
	c, bus := newTestCPU()
	bus.load(0x0200,
		0xF0, 0x10, // BEQ +16 (Z is clear after reset, so not taken)
		0xEA,
	)
	before := c.Total
	step(c, 2)
	assert.Equal(t, before+2, c.Total)
	assert.Equal(t, uint16(0x0202), c.PC)
}

func TestBranchTakenSamePage(t *testing.T) {
	c, bus := newTestCPU()
	bus.load(0x0200,
		0xA9, 0x00, // LDA #$00 -> Z set
		0xF0, 0x02, // BEQ +2
		0xEA, 0xEA, // skipped
		0xEA, // landing NOP
	)
	step(c, 2+3+1) // LDA (2) + taken branch within page (3) + landing NOP fetch (1)
	assert.Equal(t, uint16(0x0207), c.PC)
}

func TestNMIEdgeLatchesOnce(t *testing.T) {
	c, bus := newTestCPU()
	bus.load(0xFFFA, 0x00, 0x03) // NMI vector -> 0x0300
	bus.load(0x0200, 0xEA, 0xEA, 0xEA)
	bus.load(0x0300, 0xEA, 0xEA, 0xEA)

	c.SetNMI(true)
	// NMI is sampled at the next instruction boundary (already stFetchInstr).
	step(c, 7) // 7-cycle interrupt sequence
	assert.Equal(t, uint16(0x0300), c.PC)

	c.SetNMI(false)
	c.SetNMI(false) // level held low; must not re-trigger
	before := c.PC
	step(c, 2) // a NOP at the vector target, unaffected by further low levels
	assert.NotEqual(t, before, c.PC, "a NOP should still advance PC normally")
}

// TestUnofficialNOPsDoNotHangAndAdvancePastOperand covers the addressed
// unofficial-NOP opcodes (zero-page, zero-page-X, and absolute), each of
// which discards an effective-address read before resuming normal fetch.
func TestUnofficialNOPsDoNotHangAndAdvancePastOperand(t *testing.T) {
	c, bus := newTestCPU()
	bus.load(0x0200,
		0x04, 0x10, // NOP $10 (zero page, 3 cycles)
		0x14, 0x10, // NOP $10,X (zero page,X, 4 cycles)
		0x0C, 0x00, 0x03, // NOP $0300 (absolute, 4 cycles)
		0xA9, 0x55, // LDA #$55, to prove the CPU is still fetching real opcodes
		0xEA, // NOP (its fetch cycle commits the LDA's deferred result)
	)
	step(c, 3+4+4+2+1)
	assert.Equal(t, uint8(0x55), c.A)
	assert.Equal(t, uint16(0x020A), c.PC)
}

func TestBRKIsSevenCycles(t *testing.T) {
	c, bus := newTestCPU()
	bus.load(0xFFFE, 0x00, 0x03) // IRQ/BRK vector -> 0x0300
	bus.load(0x0200, 0x00)       // BRK
	bus.load(0x0300, 0xEA)       // handler

	startSP := c.SP
	step(c, 7)
	assert.Equal(t, uint16(0x0300), c.PC)
	assert.Equal(t, startSP-3, c.SP, "BRK pushes PCH, PCL, and P")
	assert.True(t, c.GetFlag(FlagInterrupt))
}

func TestLDAImmediateThenSTAAbsoluteWritesRAMAfterSixCycles(t *testing.T) {
	bus := &flatBus{}
	bus.load(0xFFFC, 0x00, 0x80) // reset vector -> 0x8000
	bus.load(0x8000,
		0xA9, 0x42, // LDA #$42
		0x8D, 0x00, 0x02, // STA $0200
		0x00, // BRK
	)
	c := New(bus)
	// LDA #$42 (2 ticks) + STA $0200 (4 ticks: opcode, operand low, operand
	// high, write) = 6 ticks for the store to land in RAM.
	step(c, 6)
	assert.Equal(t, uint8(0x42), bus.mem[0x0200])
}

func TestDisassembleImmediate(t *testing.T) {
	assert.Equal(t, "LDA #$42", Disassemble(0xA9, 0x42, 0x00))
}

func TestDisassembleAbsolute(t *testing.T) {
	assert.Equal(t, "JMP $1234", Disassemble(0x4C, 0x34, 0x12))
}

func TestOperandLength(t *testing.T) {
	assert.Equal(t, 0, OperandLength(ModeImplied))
	assert.Equal(t, 1, OperandLength(ModeImmediate))
	assert.Equal(t, 2, OperandLength(ModeAbsolute))
}
