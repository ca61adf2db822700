package emu

import "github.com/rv32emu/sim/insts"

// BranchUnit evaluates RV32I conditional branches. Unlike an architecture
// with a condition-flags register, RV32I branches compare two GPRs
// directly, so the unit is stateless and takes its operands as arguments.
type BranchUnit struct{}

// NewBranchUnit returns a BranchUnit.
func NewBranchUnit() *BranchUnit { return &BranchUnit{} }

// Taken reports whether op's condition holds for rs1 and rs2.
func (b *BranchUnit) Taken(op insts.Op, rs1, rs2 int32) bool {
	switch op {
	case insts.OpBeq:
		return rs1 == rs2
	case insts.OpBne:
		return rs1 != rs2
	case insts.OpBlt:
		return rs1 < rs2
	case insts.OpBge:
		return rs1 >= rs2
	case insts.OpBltu:
		return uint32(rs1) < uint32(rs2)
	case insts.OpBgeu:
		return uint32(rs1) >= uint32(rs2)
	default:
		panic("emu: " + op.String() + " executed as a branch")
	}
}
