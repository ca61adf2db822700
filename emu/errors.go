package emu

import "errors"

// Sentinel errors for the RV32I runtime error taxonomy. Each is wrapped
// with fmt.Errorf("%w: ...", Err..., detail) at the call site so callers
// can both errors.Is the kind and read the offending PC/address.
var (
	// ErrAddressFault is returned when PC has no decoded instruction.
	ErrAddressFault = errors.New("emu: address fault")

	// ErrMemoryFault is returned when a load or store reaches a byte
	// outside [0, Memory.Size()).
	ErrMemoryFault = errors.New("emu: memory fault")

	// ErrUnimplemented is returned when execution reaches ecall or
	// ebreak, which this simulator recognises but does not execute.
	ErrUnimplemented = errors.New("emu: unimplemented instruction")

	// ErrSegmentOverflow is returned at load time when a PT_LOAD segment
	// extends past the end of the memory image.
	ErrSegmentOverflow = errors.New("emu: segment exceeds memory size")
)
