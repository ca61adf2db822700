// Command rv32sim loads an ELF32 RISC-V executable and either runs it to
// its self-loop halt or inspects a named section's decoded instructions.
package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/rv32emu/sim/emu"
	"github.com/rv32emu/sim/insts"
	"github.com/rv32emu/sim/loader"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "rv32sim:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "rv32sim",
		Short: "A simulator for the RV32I base integer instruction set",
	}

	var trace bool
	var maxSteps uint64

	executeCmd := &cobra.Command{
		Use:   "execute <path>",
		Short: "Load and run an ELF32 RISC-V executable until its self-loop",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeProgram(args[0], trace, maxSteps)
		},
	}
	executeCmd.Flags().BoolVarP(&trace, "trace", "v", false, "stream one diagnostic line per retired instruction")
	executeCmd.Flags().Uint64Var(&maxSteps, "max-steps", 0, "abort after this many steps without reaching a self-loop (0 = unlimited)")

	inspectCmd := &cobra.Command{
		Use:   "inspect <path> <section>",
		Short: "Decode and print a section's instructions in address order",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return inspectSection(args[0], args[1])
		},
	}

	root.AddCommand(executeCmd, inspectCmd)
	return root
}

func executeProgram(path string, trace bool, maxSteps uint64) error {
	prog, err := loader.Load(path)
	if err != nil {
		return err
	}
	text, err := prog.TextSection()
	if err != nil {
		return err
	}

	opts := []emu.Option{emu.WithMaxSteps(maxSteps)}
	if trace {
		opts = append(opts, emu.WithTrace(os.Stdout))
	}

	m, err := emu.New(text.Data, text.VirtAddr, prog.Segments, prog.EntryPoint, opts...)
	if err != nil {
		return err
	}
	return m.RunUntilLoop()
}

func inspectSection(path, section string) error {
	prog, err := loader.Load(path)
	if err != nil {
		return err
	}
	sec, err := prog.FindSection(section)
	if err != nil {
		return err
	}

	type entry struct {
		addr uint32
		op   insts.Op
	}
	var entries []entry
	words := len(sec.Data) / 4
	for i := 0; i < words; i++ {
		off := i * 4
		word := uint32(sec.Data[off]) | uint32(sec.Data[off+1])<<8 |
			uint32(sec.Data[off+2])<<16 | uint32(sec.Data[off+3])<<24
		ins, ok := insts.Decode(word)
		addr := sec.VirtAddr + uint32(off)
		if !ok {
			entries = append(entries, entry{addr: addr, op: insts.OpUnknown})
			continue
		}
		entries = append(entries, entry{addr: addr, op: ins.Op})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].addr < entries[j].addr })
	for _, e := range entries {
		fmt.Printf("%08x: %s\n", e.addr, e.op)
	}
	return nil
}
