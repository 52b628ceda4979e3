package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lcox74/bfjit/internal/codegen/linux"
	"github.com/lcox74/bfjit/internal/ir"
)

var buildOutput string

var buildCmd = &cobra.Command{
	Use:   "build <file>",
	Short: "Build a standalone ELF64 Linux executable",
	Long:  "Produces a freestanding native ELF64 Linux executable directly, with no runtime dependency on bfjit itself.",
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

		out := buildOutput
		if out == "" {
			out = strings.TrimSuffix(file, ".bf")
		}

		gen := linux.NewX86_64Generator(ops)
		binary := gen.GenerateELF()

		if err := os.WriteFile(out, binary, 0755); err != nil {
			return err
		}

		fmt.Printf("built %s -> %s\n", file, out)
		return nil
	},
}

func init() {
	buildCmd.Flags().StringVarP(&buildOutput, "output", "o", "", "output file (default: input file without extension)")
	rootCmd.AddCommand(buildCmd)
}
