package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tabforge"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the selectable models",
	Long:  "List the model catalog. The starred entry is used when no model is chosen.",
	Args:  cobra.NoArgs,
	Run:   runModels,
}

func runModels(cmd *cobra.Command, _ []string) {
	for _, m := range tabforge.Catalog {
		marker := " "
		if m.ID == tabforge.DefaultModel {
			marker = "*"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s. %s\n", marker, m.Choice, m.ID)
	}
}
