package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lcox74/bfjit/internal/ir"
)

var tokensCmd = &cobra.Command{
	Use:   "tokens <file>",
	Short: "Dump tokenizer output",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := readSource(args[0])
		if err != nil {
			return err
		}

		for _, tok := range ir.Tokenize(src) {
			fmt.Printf("%d:%d\t%v\n", tok.Pos.Line, tok.Pos.Column, tok.Kind)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokensCmd)
}
