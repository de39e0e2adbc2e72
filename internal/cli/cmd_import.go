package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newImportCmd creates the import command
func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <bundle-file>",
		Short: "Import a bundle as a new project",
		Long: `Import a bundle file produced by notly export.

The imported project, its boards, and its cards all receive fresh
identifiers, so importing never collides with existing data. Importing
the same bundle twice creates two independent projects.

Example:
  notly import research.notly`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, cleanup, err := openWorkspace()
			if err != nil {
				return err
			}
			defer cleanup()

			projectID, err := svc.ImportBundle(args[0])
			if err != nil {
				return err
			}

			p := svc.Project(projectID)
			if jsonOut {
				return printJSON(p)
			}
			title := projectID
			if p != nil {
				title = p.Title
			}
			fmt.Printf("Imported %q as project %s\n", title, projectID)
			return nil
		},
	}
}
