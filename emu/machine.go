package emu

import (
	"fmt"
	"io"

	"github.com/rv32emu/sim/insts"
	"github.com/rv32emu/sim/loader"
)

// Option configures a Machine at construction time.
type Option func(*Machine)

// WithTrace streams one diagnostic line per retired instruction to w.
func WithTrace(w io.Writer) Option {
	return func(m *Machine) { m.trace = w }
}

// WithMaxSteps bounds RunUntilLoop to at most n steps, guarding against a
// program that never reaches a self-loop. Zero (the default) means no
// bound.
func WithMaxSteps(n uint64) Option {
	return func(m *Machine) { m.maxSteps = n }
}

// Machine is the RV32I virtual CPU: a register file, a memory image, the
// decoded .text instruction table, and the execution units that retire
// one instruction per Step.
type Machine struct {
	Regs RegFile
	mem  *Memory
	text map[uint32]insts.Instruction
	pc   uint32

	alu *ALU
	ls  *LoadStoreUnit
	br  *BranchUnit

	trace    io.Writer
	maxSteps uint64
	steps    uint64
}

// New builds a Machine: it allocates the memory image, overlays the
// PT_LOAD segments, decodes text (the .text section bytes, four at a
// time starting at textBase) into an address-keyed instruction table,
// zeroes the register file, sets sp (x2) to DefaultMemorySize rounded
// down to 16 bytes, and sets PC to entry.
func New(text []byte, textBase uint32, segs []loader.Segment, entry uint32, opts ...Option) (*Machine, error) {
	mem := NewMemory(DefaultMemorySize)
	if err := mem.LoadSegments(segs); err != nil {
		return nil, err
	}

	table := make(map[uint32]insts.Instruction, len(text)/4)
	// A .text whose length is not a multiple of 4 has its trailing partial
	// word truncated rather than rejected.
	words := len(text) / 4
	for i := 0; i < words; i++ {
		off := i * 4
		word := uint32(text[off]) | uint32(text[off+1])<<8 |
			uint32(text[off+2])<<16 | uint32(text[off+3])<<24
		addr := textBase + uint32(off)
		ins, ok := insts.Decode(word)
		if !ok {
			return nil, fmt.Errorf("%w: addr=%#x word=%#08x", insts.ErrUnknownInstruction, addr, word)
		}
		table[addr] = ins
	}

	m := &Machine{
		mem:  mem,
		text: table,
		pc:   entry,
		alu:  NewALU(),
		ls:   NewLoadStoreUnit(mem),
		br:   NewBranchUnit(),
	}
	m.Regs.WriteReg(2, int32(DefaultMemorySize&^0xF))

	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// PC returns the current program counter.
func (m *Machine) PC() uint32 { return m.pc }

// Memory exposes the machine's memory image, e.g. for inspecting state
// after a run.
func (m *Machine) Memory() *Memory { return m.mem }

// Step retires exactly one instruction: fetch at PC, dispatch to the
// format-specific executor, force x0 back to 0, and advance PC (either
// by 4 or to the handler's requested jump target).
func (m *Machine) Step() error {
	ins, ok := m.text[m.pc]
	if !ok {
		return fmt.Errorf("%w: pc=%#x", ErrAddressFault, m.pc)
	}

	nextPC, jumped, err := m.execute(ins)
	if err != nil {
		return err
	}

	m.Regs.WriteReg(0, 0)
	m.steps++

	if m.trace != nil {
		if jumped {
			fmt.Fprintf(m.trace, "%#08x: %-6s jumping to %#08x\n", m.pc, ins.Op, nextPC)
		} else {
			fmt.Fprintf(m.trace, "%#08x: %-6s\n", m.pc, ins.Op)
		}
	}

	if jumped {
		m.pc = nextPC
	} else {
		m.pc += 4
	}
	return nil
}

// RunUntilLoop repeatedly steps until PC does not change across a step —
// the simulator's only halt heuristic, typically a single-instruction
// self-loop trampoline at end of program. Any step error propagates
// immediately.
func (m *Machine) RunUntilLoop() error {
	for {
		prevPC := m.pc
		if err := m.Step(); err != nil {
			return err
		}
		if m.pc == prevPC {
			return nil
		}
		if m.maxSteps != 0 && m.steps >= m.maxSteps {
			return fmt.Errorf("emu: exceeded max steps (%d) without reaching a self-loop", m.maxSteps)
		}
	}
}

// execute dispatches ins to the format-specific handler, returning the
// next PC and whether it is an explicit jump target (false means the
// caller should advance PC by 4).
func (m *Machine) execute(ins insts.Instruction) (nextPC uint32, jumped bool, err error) {
	switch ins.Op.Format() {
	case insts.FormatR:
		return m.execR(ins)
	case insts.FormatI:
		return m.execI(ins)
	case insts.FormatS:
		return m.execS(ins)
	case insts.FormatB:
		return m.execB(ins)
	case insts.FormatU:
		return m.execU(ins)
	case insts.FormatJ:
		return m.execJ(ins)
	default:
		return 0, false, fmt.Errorf("%w: %s has no known format", ErrUnimplemented, ins.Op)
	}
}

func (m *Machine) execR(ins insts.Instruction) (uint32, bool, error) {
	r := ins.R()
	rs1 := m.Regs.ReadReg(r.Rs1())
	rs2 := m.Regs.ReadReg(r.Rs2())
	m.Regs.WriteReg(r.Rd(), m.alu.R(ins.Op, rs1, rs2))
	return 0, false, nil
}

func (m *Machine) execI(ins insts.Instruction) (uint32, bool, error) {
	switch ins.Op {
	case insts.OpJalr:
		i := ins.I()
		rs1 := m.Regs.ReadReg(i.Rs1())
		link := m.pc + 4
		target := uint32(rs1 + i.Imm())
		m.Regs.WriteReg(i.Rd(), int32(link))
		return target, true, nil
	case insts.OpEcall, insts.OpEbreak:
		return 0, false, fmt.Errorf("%w: %s", ErrUnimplemented, ins.Op)
	case insts.OpLb, insts.OpLh, insts.OpLw, insts.OpLbu, insts.OpLhu:
		i := ins.I()
		rs1 := m.Regs.ReadReg(i.Rs1())
		addr := uint32(rs1 + i.Imm())
		v, err := m.ls.Load(ins.Op, addr)
		if err != nil {
			return 0, false, err
		}
		m.Regs.WriteReg(i.Rd(), v)
		return 0, false, nil
	default:
		i := ins.I()
		rs1 := m.Regs.ReadReg(i.Rs1())
		var imm int32
		switch ins.Op {
		case insts.OpSlli, insts.OpSrli, insts.OpSrai:
			imm = int32(i.Shamt())
		default:
			imm = i.Imm()
		}
		m.Regs.WriteReg(i.Rd(), m.alu.I(ins.Op, rs1, imm))
		return 0, false, nil
	}
}

func (m *Machine) execS(ins insts.Instruction) (uint32, bool, error) {
	s := ins.S()
	rs1 := m.Regs.ReadReg(s.Rs1())
	rs2 := m.Regs.ReadReg(s.Rs2())
	addr := uint32(rs1 + s.Imm())
	return 0, false, m.ls.Store(ins.Op, addr, rs2)
}

func (m *Machine) execB(ins insts.Instruction) (uint32, bool, error) {
	b := ins.B()
	rs1 := m.Regs.ReadReg(b.Rs1())
	rs2 := m.Regs.ReadReg(b.Rs2())
	if !m.br.Taken(ins.Op, rs1, rs2) {
		return 0, false, nil
	}
	return uint32(int32(m.pc) + b.Imm()), true, nil
}

func (m *Machine) execU(ins insts.Instruction) (uint32, bool, error) {
	u := ins.U()
	switch ins.Op {
	case insts.OpLui:
		m.Regs.WriteReg(u.Rd(), u.Imm()<<12)
	case insts.OpAuipc:
		m.Regs.WriteReg(u.Rd(), int32(m.pc)+(u.Imm()<<12))
	}
	return 0, false, nil
}

func (m *Machine) execJ(ins insts.Instruction) (uint32, bool, error) {
	j := ins.J()
	link := m.pc + 4
	m.Regs.WriteReg(j.Rd(), int32(link))
	return uint32(int32(m.pc) + j.Imm()), true, nil
}
