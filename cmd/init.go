package cmd

import (
	"github.com/spf13/cobra"

	"github.com/lexrag/lexrag/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize lexrag configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure lexrag and generates a .lexrag.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
