// Package loader provides ELF32 RISC-V binary loading. It is the external
// collaborator the simulator core depends on: it understands enough of the
// ELF format to hand back an entry point, the loadable segments, and named
// section lookups, but nothing more.
package loader

import (
	"debug/elf"
	"errors"
	"fmt"
)

// Sentinel load-time errors.
var (
	ErrNotELF32        = errors.New("loader: not an ELF32 file")
	ErrNotRISCV        = errors.New("loader: not a RISC-V file")
	ErrNoSectionHeader = errors.New("loader: file has no section headers")
	ErrNoSegmentHeader = errors.New("loader: file has no program headers")
	ErrSectionNotFound = errors.New("loader: section not found")
)

// SegmentFlags represents a PT_LOAD segment's memory protection bits.
type SegmentFlags uint32

// Segment protection flags, matching ELF's PF_X/PF_W/PF_R.
const (
	SegmentFlagExecute SegmentFlags = 1 << iota
	SegmentFlagWrite
	SegmentFlagRead
)

// Segment is a single PT_LOAD program header: a virtual address, its file
// payload, and the in-memory size it should occupy (which may exceed
// len(Data) for BSS).
type Segment struct {
	VirtAddr uint32
	Data     []byte
	MemSize  uint32
	Flags    SegmentFlags
}

// Section is a named section header's virtual address and raw contents.
type Section struct {
	VirtAddr uint32
	Data     []byte
}

// Program is a loaded ELF32 RISC-V executable, ready to be materialised
// into a Memory image.
type Program struct {
	EntryPoint uint32
	Segments   []Segment
	Sections   map[string]Section
}

// Load opens path, validates it is an ELF32 RISC-V executable, and
// collects its loadable segments and section headers.
func Load(path string) (*Program, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loader: opening %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	if err := validate(f); err != nil {
		return nil, err
	}

	prog := &Program{
		EntryPoint: uint32(f.Entry),
		Sections:   make(map[string]Section, len(f.Sections)),
	}

	for _, phdr := range f.Progs {
		if phdr.Type != elf.PT_LOAD {
			continue
		}
		data := make([]byte, phdr.Filesz)
		if phdr.Filesz > 0 {
			if _, err := phdr.ReadAt(data, 0); err != nil {
				return nil, fmt.Errorf("loader: reading segment at %#x: %w", phdr.Vaddr, err)
			}
		}
		var flags SegmentFlags
		if phdr.Flags&elf.PF_X != 0 {
			flags |= SegmentFlagExecute
		}
		if phdr.Flags&elf.PF_W != 0 {
			flags |= SegmentFlagWrite
		}
		if phdr.Flags&elf.PF_R != 0 {
			flags |= SegmentFlagRead
		}

		prog.Segments = append(prog.Segments, Segment{
			VirtAddr: uint32(phdr.Vaddr),
			Data:     data,
			MemSize:  uint32(phdr.Memsz),
			Flags:    flags,
		})
	}

	for _, sec := range f.Sections {
		if sec.Name == "" {
			continue
		}
		data, err := sec.Data()
		if err != nil {
			continue
		}
		prog.Sections[sec.Name] = Section{VirtAddr: uint32(sec.Addr), Data: data}
	}

	return prog, nil
}

func validate(f *elf.File) error {
	if f.Class != elf.ELFCLASS32 {
		return ErrNotELF32
	}
	if f.Machine != elf.EM_RISCV {
		return ErrNotRISCV
	}
	if len(f.Sections) == 0 {
		return ErrNoSectionHeader
	}
	if len(f.Progs) == 0 {
		return ErrNoSegmentHeader
	}
	return nil
}

// FindSection returns the named section's virtual address and bytes.
func (p *Program) FindSection(name string) (Section, error) {
	sec, ok := p.Sections[name]
	if !ok {
		return Section{}, fmt.Errorf("%w: %s", ErrSectionNotFound, name)
	}
	return sec, nil
}

// TextSection is a convenience wrapper for FindSection(".text"), which
// every valid program must have.
func (p *Program) TextSection() (Section, error) {
	return p.FindSection(".text")
}
