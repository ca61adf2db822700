// Package emu implements the RV32I virtual CPU: register file, memory
// image, execution units, and the fetch-execute-writeback driver.
package emu

// StackSize is the stack region size the original simulator reserves but
// never bounds-checks against; kept as a named constant for a future
// bounds check to use.
const StackSize = 256 * 1024

// RegFile holds the 32 general-purpose RV32I registers. Index 0 (x0) is
// hardwired to zero: writes to it are discarded and reads always observe
// zero.
type RegFile struct {
	X [32]int32
}

// ReadReg reads register index reg. Reading x0 always returns 0.
func (r *RegFile) ReadReg(reg uint8) int32 {
	if reg == 0 {
		return 0
	}
	return r.X[reg]
}

// WriteReg writes value to register index reg. Writes to x0 are discarded.
func (r *RegFile) WriteReg(reg uint8, value int32) {
	if reg == 0 {
		return
	}
	r.X[reg] = value
}
