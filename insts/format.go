// Package insts provides RV32I instruction definitions and decoding.
package insts

// SignExtend widens a value's low `bits` bits to a signed 32-bit integer by
// replicating the top bit of that field.
func SignExtend(value uint32, bits uint) int32 {
	shift := 32 - bits
	return int32(value<<shift) >> shift
}

// fields shared by every format.
func opcode(word uint32) uint8 { return uint8(word & 0x7F) }
func funct3(word uint32) uint8 { return uint8((word >> 12) & 0x7) }
func funct7(word uint32) uint8 { return uint8((word >> 25) & 0x7F) }

// RType is the register-register instruction encoding.
type RType struct{ word uint32 }

func NewRType(word uint32) RType { return RType{word} }

func (r RType) Opcode() uint8 { return opcode(r.word) }
func (r RType) Rd() uint8     { return uint8((r.word >> 7) & 0x1F) }
func (r RType) Funct3() uint8 { return funct3(r.word) }
func (r RType) Rs1() uint8    { return uint8((r.word >> 15) & 0x1F) }
func (r RType) Rs2() uint8    { return uint8((r.word >> 20) & 0x1F) }
func (r RType) Funct7() uint8 { return funct7(r.word) }

// IType is the register-immediate / load / jalr encoding.
type IType struct{ word uint32 }

func NewIType(word uint32) IType { return IType{word} }

func (i IType) Opcode() uint8 { return opcode(i.word) }
func (i IType) Rd() uint8     { return uint8((i.word >> 7) & 0x1F) }
func (i IType) Funct3() uint8 { return funct3(i.word) }
func (i IType) Rs1() uint8    { return uint8((i.word >> 15) & 0x1F) }
func (i IType) Funct7() uint8 { return funct7(i.word) }

// Imm returns imm[11:0] from bits [31:20], sign-extended from 12 bits.
func (i IType) Imm() int32 {
	raw := (i.word >> 20) & 0xFFF
	return SignExtend(raw, 12)
}

// Shamt returns the shift amount (low 5 bits of the would-be immediate)
// used by slli/srli/srai.
func (i IType) Shamt() uint8 { return uint8((i.word >> 20) & 0x1F) }

// SType is the store encoding.
type SType struct{ word uint32 }

func NewSType(word uint32) SType { return SType{word} }

func (s SType) Opcode() uint8 { return opcode(s.word) }
func (s SType) Funct3() uint8 { return funct3(s.word) }
func (s SType) Rs1() uint8    { return uint8((s.word >> 15) & 0x1F) }
func (s SType) Rs2() uint8    { return uint8((s.word >> 20) & 0x1F) }

// Imm assembles imm[11:5] from [31:25] and imm[4:0] from [11:7], sign
// extended from 12 bits.
func (s SType) Imm() int32 {
	hi := (s.word >> 25) & 0x7F
	lo := (s.word >> 7) & 0x1F
	raw := (hi << 5) | lo
	return SignExtend(raw, 12)
}

// BType is the conditional branch encoding.
type BType struct{ word uint32 }

func NewBType(word uint32) BType { return BType{word} }

func (b BType) Opcode() uint8 { return opcode(b.word) }
func (b BType) Funct3() uint8 { return funct3(b.word) }
func (b BType) Rs1() uint8    { return uint8((b.word >> 15) & 0x1F) }
func (b BType) Rs2() uint8    { return uint8((b.word >> 20) & 0x1F) }

// Imm reassembles imm[12|10:5|4:1|11] with imm[0]=0, sign extended from 13
// bits.
func (b BType) Imm() int32 {
	bit12 := (b.word >> 31) & 0x1
	bit11 := (b.word >> 7) & 0x1
	bits10_5 := (b.word >> 25) & 0x3F
	bits4_1 := (b.word >> 8) & 0xF

	raw := (bit12 << 12) | (bit11 << 11) | (bits10_5 << 5) | (bits4_1 << 1)
	return SignExtend(raw, 13)
}

// UType is the upper-immediate encoding (lui, auipc).
type UType struct{ word uint32 }

func NewUType(word uint32) UType { return UType{word} }

func (u UType) Opcode() uint8 { return opcode(u.word) }
func (u UType) Rd() uint8     { return uint8((u.word >> 7) & 0x1F) }

// Imm places imm[31:12] at bits [31:12] of a 32-bit result; the low 12
// bits are zero. Note this already carries the 20 immediate bits at their
// final shifted position; the emu package's Machine.execU shifts this
// value left by 12 again for lui and auipc, matching the original
// source's behaviour.
func (u UType) Imm() int32 { return int32(u.word & 0xFFFFF000) }

// JType is the unconditional jump-and-link encoding (jal).
type JType struct{ word uint32 }

func NewJType(word uint32) JType { return JType{word} }

func (j JType) Opcode() uint8 { return opcode(j.word) }
func (j JType) Rd() uint8     { return uint8((j.word >> 7) & 0x1F) }

// Imm reassembles imm[20|10:1|11|19:12] with imm[0]=0, sign extended from
// 21 bits.
func (j JType) Imm() int32 {
	bit20 := (j.word >> 31) & 0x1
	bits19_12 := (j.word >> 12) & 0xFF
	bit11 := (j.word >> 20) & 0x1
	bits10_1 := (j.word >> 21) & 0x3FF

	raw := (bit20 << 20) | (bits19_12 << 12) | (bit11 << 11) | (bits10_1 << 1)
	return SignExtend(raw, 21)
}
