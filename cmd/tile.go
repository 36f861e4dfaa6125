package main

import (
	"github.com/spf13/cobra"
)

var tileCmd = &cobra.Command{
	Use:   "tile",
	Short: "Encode, decode, and export hierarchical hex tiles",
}

func init() {
	rootCmd.AddCommand(tileCmd)
}
