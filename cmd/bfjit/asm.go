package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lcox74/bfjit/internal/codegen/gas"
	"github.com/lcox74/bfjit/internal/ir"
)

var asmOutput string

var asmCmd = &cobra.Command{
	Use:   "asm <file>",
	Short: "Emit GAS assembly for the freestanding ELF backend",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file := args[0]
		src, err := readSource(file)
		if err != nil {
			return err
		}

		level, err := parseOptLevel(optLevel)
		if err != nil {
			return err
		}

		ops, err := ir.Parse(src, level)
		if err != nil {
			return err
		}

		out := asmOutput
		if out == "" {
			out = strings.TrimSuffix(file, ".bf") + ".s"
		}

		gen := gas.NewGenerator(ops)
		if err := os.WriteFile(out, []byte(gen.Generate()), 0644); err != nil {
			return err
		}

		fmt.Printf("generated %s -> %s\n", file, out)
		return nil
	},
}

func init() {
	asmCmd.Flags().StringVarP(&asmOutput, "output", "o", "", "output file (default: input file with .s extension)")
	rootCmd.AddCommand(asmCmd)
}
