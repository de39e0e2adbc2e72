package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noureldenadel/notly/internal/config"
)

// newVersionCmd creates the version command
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show notly version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("notly version " + config.AppVersion)
		},
	}
}
