package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lcox74/bfjit/internal/ir"
	"github.com/lcox74/bfjit/internal/vm"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Enter the interactive REPL",
	Args:  cobra.NoArgs,
	RunE:  func(cmd *cobra.Command, args []string) error { return runREPL() },
}

func init() {
	rootCmd.AddCommand(replCmd)
}

// runREPL reads Brainfuck one line at a time, buffering across lines
// until a loop closes, and keeps one VM's tape alive for the life of
// the session.
func runREPL() error {
	level, err := parseOptLevel(optLevel)
	if err != nil {
		return err
	}

	fmt.Println("Write exit to finish the interpreter")

	interp := vm.NewVM(vm.WithEOFBehavior(eofBehaviorForVM()))
	reader := bufio.NewReader(os.Stdin)
	var buffer strings.Builder

	for {
		if buffer.Len() == 0 {
			fmt.Print(">")
		} else {
			fmt.Print("==>")
		}

		line, err := reader.ReadString('\n')
		if err != nil {
			return nil
		}
		buffer.WriteString(line)

		if strings.Contains(buffer.String(), "exit") {
			return nil
		}

		ops, err := ir.Parse([]byte(buffer.String()), level)
		switch {
		case err == nil:
			if runErr := interp.Run(ops); runErr != nil {
				return runErr
			}
		case ir.IsIncompleteLoop(err):
			continue
		default:
			fmt.Fprintln(os.Stderr, "Error: Cannot close ']' without first open '[' it")
		}
		buffer.Reset()
	}
}
