package emu

import "github.com/rv32emu/sim/insts"

// LoadStoreUnit implements the RV32I load and store instructions against a
// Memory image, applying the sign/zero extension each width requires.
type LoadStoreUnit struct {
	mem *Memory
}

// NewLoadStoreUnit binds a LoadStoreUnit to the given memory image.
func NewLoadStoreUnit(mem *Memory) *LoadStoreUnit {
	return &LoadStoreUnit{mem: mem}
}

// Load reads addr according to op's width and sign, returning the value
// already widened to int32 for a register writeback.
func (u *LoadStoreUnit) Load(op insts.Op, addr uint32) (int32, error) {
	switch op {
	case insts.OpLb:
		v, err := u.mem.ReadI8(addr)
		return int32(v), err
	case insts.OpLbu:
		v, err := u.mem.ReadU8(addr)
		return int32(v), err
	case insts.OpLh:
		v, err := u.mem.ReadI16(addr)
		return int32(v), err
	case insts.OpLhu:
		v, err := u.mem.ReadU16(addr)
		return int32(v), err
	case insts.OpLw:
		return u.mem.ReadI32(addr)
	default:
		panic("emu: " + op.String() + " executed as a load")
	}
}

// Store writes value to addr, truncated to op's width.
func (u *LoadStoreUnit) Store(op insts.Op, addr uint32, value int32) error {
	switch op {
	case insts.OpSb:
		return u.mem.WriteU8(addr, uint8(value))
	case insts.OpSh:
		return u.mem.WriteU16(addr, uint16(value))
	case insts.OpSw:
		return u.mem.WriteU32(addr, uint32(value))
	default:
		panic("emu: " + op.String() + " executed as a store")
	}
}
