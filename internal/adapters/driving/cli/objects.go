package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var objectsCmd = &cobra.Command{
	Use:   "objects",
	Short: "Inspect configured object types",
}

var objectsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured object types",
	Long: `List the object types that extract would retrieve, with their date
filter, write mode and primary key. Without [[objects]] in the settings file
the default catalogue is shown.`,
	Args: cobra.NoArgs,
	RunE: runObjectsList,
}

func init() {
	objectsCmd.AddCommand(objectsListCmd)
	rootCmd.AddCommand(objectsCmd)
}

func runObjectsList(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	registry, err := newRegistry(settings)
	if err != nil {
		return err
	}

	specs := registry.List()
	if len(specs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No object types configured.")
		return nil
	}
	printSpecs(cmd.OutOrStdout(), specs)
	return nil
}
