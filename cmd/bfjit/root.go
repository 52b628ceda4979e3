package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lcox74/bfjit/internal/codegen/jit"
	"github.com/lcox74/bfjit/internal/ir"
	"github.com/lcox74/bfjit/internal/vm"
)

var (
	executeSrc string
	replMode   bool
	backend    string
	optLevel   int
	strictEOF  bool
)

var rootCmd = &cobra.Command{
	Use:   "bfjit [file]",
	Short: "A Brainfuck compiler, interpreter and JIT",
	Long: `bfjit runs Brainfuck programs three ways: compiled straight to
native x86-64 machine code and executed in-process, interpreted by a
bytecode VM, or typed line by line at a REPL.

Examples:
  bfjit hello.bf
  bfjit -i
  bfjit -e ',.'
  bfjit --backend=interp hello.bf`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRoot,
}

func init() {
	rootCmd.Flags().StringVarP(&executeSrc, "execute", "e", "", "execute literal source instead of reading a file")
	rootCmd.Flags().BoolVarP(&replMode, "interpreter", "i", false, "enter the interactive REPL")
	rootCmd.Flags().StringVarP(&backend, "backend", "b", "jit", "execution backend for FILE/-e: jit or interp")
	rootCmd.PersistentFlags().IntVarP(&optLevel, "opt", "O", 2, "optimization level (0, 1, or 2)")
	rootCmd.PersistentFlags().BoolVar(&strictEOF, "strict-eof", false, "treat EOF on input as a runtime error instead of zeroing the cell")
}

func parseOptLevel(n int) (ir.OptLevel, error) {
	switch n {
	case 0:
		return ir.O0, nil
	case 1:
		return ir.O1, nil
	case 2:
		return ir.O2, nil
	default:
		return 0, fmt.Errorf("invalid optimization level: %d (must be 0, 1, or 2)", n)
	}
}

func readSource(file string) ([]byte, error) {
	src, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", file, err)
	}
	return src, nil
}

func runRoot(cmd *cobra.Command, args []string) error {
	switch {
	case replMode:
		return runREPL()
	case executeSrc != "":
		return runSource([]byte(executeSrc))
	case len(args) == 1:
		source, err := readSource(args[0])
		if err != nil {
			return err
		}
		return runSource(source)
	default:
		return fmt.Errorf("no input provided: pass FILE, -e STRING, or -i for the REPL")
	}
}

func eofBehaviorForVM() vm.EOFBehavior {
	if strictEOF {
		return vm.EOFFail
	}
	return vm.EOFZero
}

func eofBehaviorForJIT() jit.EOFBehavior {
	if strictEOF {
		return jit.EOFFail
	}
	return jit.EOFZero
}

// runSource compiles source to native code and runs it in-process
// unless --backend=interp was passed or the JIT is unavailable on this
// platform, in which case it falls back to the bytecode VM.
func runSource(source []byte) error {
	if backend != "interp" {
		exe, err := jit.Compile(source, os.Stdin, os.Stdout, jit.WithEOFBehavior(eofBehaviorForJIT()))
		if err == nil {
			defer exe.Close()
			return exe.Run()
		}
	}

	level, err := parseOptLevel(optLevel)
	if err != nil {
		return err
	}
	ops, err := ir.Parse(source, level)
	if err != nil {
		return err
	}
	return vm.NewVM(vm.WithEOFBehavior(eofBehaviorForVM())).Run(ops)
}

// Execute runs the root command, printing any error to stderr.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
