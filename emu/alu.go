package emu

import "github.com/rv32emu/sim/insts"

// ALU implements the RV32I R-type and I-type-arithmetic instructions.
// Callers read rs1/rs2 into locals before calling and the ALU computes
// into a local result before the caller writes rd, so any pairing of
// operand and destination registers (e.g. add x1, x1, x1) is safe
// without extra copies.
type ALU struct{}

// NewALU returns an ALU. It is stateless; the type exists so the
// executor's execution-unit split mirrors the load/store and branch
// units.
func NewALU() *ALU { return &ALU{} }

// R performs a register-register ALU op. rs2 is masked to its low 5 bits
// before use as a shift amount, matching hardware shift-amount truncation
// rather than Go's own shift-count rules.
func (a *ALU) R(op insts.Op, rs1, rs2 int32) int32 {
	switch op {
	case insts.OpAdd:
		return rs1 + rs2
	case insts.OpSub:
		return rs1 - rs2
	case insts.OpXor:
		return rs1 ^ rs2
	case insts.OpOr:
		return rs1 | rs2
	case insts.OpAnd:
		return rs1 & rs2
	case insts.OpSll:
		return rs1 << (uint32(rs2) & 0x1F)
	case insts.OpSrl:
		return int32(uint32(rs1) >> (uint32(rs2) & 0x1F))
	case insts.OpSra:
		return rs1 >> (uint32(rs2) & 0x1F)
	case insts.OpSlt:
		return boolToInt32(rs1 < rs2)
	case insts.OpSltu:
		return boolToInt32(uint32(rs1) < uint32(rs2))
	default:
		panic("emu: " + op.String() + " executed as an R-type")
	}
}

// I performs a register-immediate ALU op (imm already sign-extended).
// Shift amounts use the low 5 bits of imm.
func (a *ALU) I(op insts.Op, rs1, imm int32) int32 {
	switch op {
	case insts.OpAddi:
		return rs1 + imm
	case insts.OpXori:
		return rs1 ^ imm
	case insts.OpOri:
		return rs1 | imm
	case insts.OpAndi:
		return rs1 & imm
	case insts.OpSlli:
		return rs1 << (uint32(imm) & 0x1F)
	case insts.OpSrli:
		return int32(uint32(rs1) >> (uint32(imm) & 0x1F))
	case insts.OpSrai:
		return rs1 >> (uint32(imm) & 0x1F)
	case insts.OpSlti:
		return boolToInt32(rs1 < imm)
	case insts.OpSltiu:
		return boolToInt32(uint32(rs1) < uint32(imm))
	default:
		panic("emu: " + op.String() + " executed as an I-type arithmetic op")
	}
}

func boolToInt32(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
