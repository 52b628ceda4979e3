package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lcox74/bfjit/internal/ir"
)

var irCmd = &cobra.Command{
	Use:   "ir <file>",
	Short: "Dump lowered and optimized IR",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := readSource(args[0])
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

		fmt.Print(ir.Dump(ops))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(irCmd)
}
