package insts

// Format identifies which of the six RV32I encodings an instruction uses.
type Format uint8

// RV32I instruction formats.
const (
	FormatUnknown Format = iota
	FormatR
	FormatI
	FormatS
	FormatB
	FormatU
	FormatJ
)

// Op is a closed enumeration over every RV32I mnemonic this simulator
// recognises.
type Op uint8

// RV32I opcodes, grouped by instruction format.
const (
	OpUnknown Op = iota
	OpAdd
	OpSub
	OpSll
	OpSlt
	OpSltu
	OpXor
	OpSrl
	OpSra
	OpOr
	OpAnd
	OpAddi
	OpSlti
	OpSltiu
	OpXori
	OpOri
	OpAndi
	OpSlli
	OpSrli
	OpSrai
	OpLb
	OpLh
	OpLw
	OpLbu
	OpLhu
	OpSb
	OpSh
	OpSw
	OpBeq
	OpBne
	OpBlt
	OpBge
	OpBltu
	OpBgeu
	OpLui
	OpAuipc
	OpJal
	OpJalr
	OpEcall
	OpEbreak
)

var mnemonics = map[Op]string{
	OpUnknown: "unknown",
	OpAdd:     "add", OpSub: "sub", OpSll: "sll", OpSlt: "slt", OpSltu: "sltu",
	OpXor: "xor", OpSrl: "srl", OpSra: "sra", OpOr: "or", OpAnd: "and",
	OpAddi: "addi", OpSlti: "slti", OpSltiu: "sltiu", OpXori: "xori",
	OpOri: "ori", OpAndi: "andi", OpSlli: "slli", OpSrli: "srli", OpSrai: "srai",
	OpLb: "lb", OpLh: "lh", OpLw: "lw", OpLbu: "lbu", OpLhu: "lhu",
	OpSb: "sb", OpSh: "sh", OpSw: "sw",
	OpBeq: "beq", OpBne: "bne", OpBlt: "blt", OpBge: "bge", OpBltu: "bltu", OpBgeu: "bgeu",
	OpLui: "lui", OpAuipc: "auipc", OpJal: "jal", OpJalr: "jalr",
	OpEcall: "ecall", OpEbreak: "ebreak",
}

var formats = map[Op]Format{
	OpAdd: FormatR, OpSub: FormatR, OpSll: FormatR, OpSlt: FormatR, OpSltu: FormatR,
	OpXor: FormatR, OpSrl: FormatR, OpSra: FormatR, OpOr: FormatR, OpAnd: FormatR,
	OpAddi: FormatI, OpSlti: FormatI, OpSltiu: FormatI, OpXori: FormatI,
	OpOri: FormatI, OpAndi: FormatI, OpSlli: FormatI, OpSrli: FormatI, OpSrai: FormatI,
	OpLb: FormatI, OpLh: FormatI, OpLw: FormatI, OpLbu: FormatI, OpLhu: FormatI,
	OpSb: FormatS, OpSh: FormatS, OpSw: FormatS,
	OpBeq: FormatB, OpBne: FormatB, OpBlt: FormatB, OpBge: FormatB, OpBltu: FormatB, OpBgeu: FormatB,
	OpLui: FormatU, OpAuipc: FormatU,
	OpJal:    FormatJ,
	OpJalr:   FormatI,
	OpEcall:  FormatI,
	OpEbreak: FormatI,
}

// String returns the op's mnemonic.
func (o Op) String() string {
	if m, ok := mnemonics[o]; ok {
		return m
	}
	return "unknown"
}

// Format returns the encoding format this op decodes to.
func (o Op) Format() Format { return formats[o] }

type triple struct{ opcode, funct3, funct7 uint8 }
type pair struct{ opcode, funct3 uint8 }

// exactTable holds entries whose match depends on all three fields: every
// R-type op, the three I-type shift ops (the shift-amount field overlaps
// funct7's bit positions and is what distinguishes srli from srai), and
// the two system ops.
var exactTable = map[triple]Op{
	{0b0110011, 0x0, 0x00}: OpAdd,
	{0b0110011, 0x0, 0x20}: OpSub,
	{0b0110011, 0x1, 0x00}: OpSll,
	{0b0110011, 0x2, 0x00}: OpSlt,
	{0b0110011, 0x3, 0x00}: OpSltu,
	{0b0110011, 0x4, 0x00}: OpXor,
	{0b0110011, 0x5, 0x00}: OpSrl,
	{0b0110011, 0x5, 0x20}: OpSra,
	{0b0110011, 0x6, 0x00}: OpOr,
	{0b0110011, 0x7, 0x00}: OpAnd,

	{0b0010011, 0x1, 0x00}: OpSlli,
	{0b0010011, 0x5, 0x00}: OpSrli,
	{0b0010011, 0x5, 0x20}: OpSrai,

	{0b1110011, 0x0, 0x00}: OpEcall,
	{0b1110011, 0x0, 0x01}: OpEbreak,
}

// partialTable holds entries that only depend on opcode+funct3; funct7 (or
// whatever the top bits of their immediate happen to contain) is don't-care.
var partialTable = map[pair]Op{
	{0b0010011, 0x0}: OpAddi,
	{0b0010011, 0x2}: OpSlti,
	{0b0010011, 0x3}: OpSltiu,
	{0b0010011, 0x4}: OpXori,
	{0b0010011, 0x6}: OpOri,
	{0b0010011, 0x7}: OpAndi,

	{0b0000011, 0x0}: OpLb,
	{0b0000011, 0x1}: OpLh,
	{0b0000011, 0x2}: OpLw,
	{0b0000011, 0x4}: OpLbu,
	{0b0000011, 0x5}: OpLhu,

	{0b0100011, 0x0}: OpSb,
	{0b0100011, 0x1}: OpSh,
	{0b0100011, 0x2}: OpSw,

	{0b1100011, 0x0}: OpBeq,
	{0b1100011, 0x1}: OpBne,
	{0b1100011, 0x4}: OpBlt,
	{0b1100011, 0x5}: OpBge,
	{0b1100011, 0x6}: OpBltu,
	{0b1100011, 0x7}: OpBgeu,

	{0b1100111, 0x0}: OpJalr,
}

// opcodeTable holds entries that depend on opcode alone (U and J formats
// carry no funct3/funct7 field at all).
var opcodeTable = map[uint8]Op{
	0b0110111: OpLui,
	0b0010111: OpAuipc,
	0b1101111: OpJal,
}

// DecodeOp maps an (opcode, funct3, funct7) triple to an Op. Match
// priority is exact: entries naming all three fields shadow entries
// naming fewer. Unknown triples return (OpUnknown, false).
func DecodeOp(opcode, funct3, funct7 uint8) (Op, bool) {
	if op, ok := exactTable[triple{opcode, funct3, funct7}]; ok {
		return op, true
	}
	if op, ok := partialTable[pair{opcode, funct3}]; ok {
		return op, true
	}
	if op, ok := opcodeTable[opcode]; ok {
		return op, true
	}
	return OpUnknown, false
}

// Instruction is a decoded 32-bit RV32I word: an Op plus the raw word it
// came from. The format tag on Op determines which operand view (via the
// RType/IType/... accessors on Raw) is meaningful.
type Instruction struct {
	Op  Op
	Raw uint32
}

// Decode decodes a raw 32-bit instruction word. It returns ok=false when
// the (opcode, funct3, funct7) triple is not in the table, mirroring
// decode_op's Option/nil contract.
func Decode(word uint32) (Instruction, bool) {
	op, ok := DecodeOp(opcode(word), funct3(word), funct7(word))
	if !ok {
		return Instruction{}, false
	}
	return Instruction{Op: op, Raw: word}, true
}

// R returns the R-type view of the instruction's raw word.
func (i Instruction) R() RType { return NewRType(i.Raw) }

// I returns the I-type view of the instruction's raw word.
func (i Instruction) I() IType { return NewIType(i.Raw) }

// S returns the S-type view of the instruction's raw word.
func (i Instruction) S() SType { return NewSType(i.Raw) }

// B returns the B-type view of the instruction's raw word.
func (i Instruction) B() BType { return NewBType(i.Raw) }

// U returns the U-type view of the instruction's raw word.
func (i Instruction) U() UType { return NewUType(i.Raw) }

// J returns the J-type view of the instruction's raw word.
func (i Instruction) J() JType { return NewJType(i.Raw) }
