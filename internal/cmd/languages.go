package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Yass5002/Lyrebird/pkg/synth"
)

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List supported synthesis languages",
	Run: func(cmd *cobra.Command, _ []string) {
		for _, name := range synth.LanguageNames() {
			code, _ := synth.LanguageCode(name)
			fmt.Printf("%-12s %s\n", name, code)
		}
	},
}

func init() {
	rootCmd.AddCommand(languagesCmd)
}
