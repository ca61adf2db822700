package insts

import "errors"

// ErrUnknownInstruction is returned by callers that wrap Decode/DecodeOp
// when a raw word's (opcode, funct3, funct7) triple matches nothing in
// the decode tables.
var ErrUnknownInstruction = errors.New("insts: unknown instruction")
