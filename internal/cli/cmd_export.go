package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

// newExportCmd creates the export command
func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <project-id>",
		Short: "Export a project as a portable bundle",
		Long: `Export a project and everything it owns into a single bundle file.

The bundle is a ZIP archive holding the project, its boards, the binary
assets referenced by board snapshots, and the cards those snapshots
embed. Import it on any installation with: notly import <file>

Examples:
  notly export 7c2e...                  # writes <title>.notly next to you
  notly export 7c2e... -o research.notly`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")

			svc, _, cleanup, err := openWorkspace()
			if err != nil {
				return err
			}
			defer cleanup()

			if output == "" {
				p := svc.Project(args[0])
				if p == nil {
					return wrapProjectNotFound(args[0])
				}
				output = bundleFilename(p.Title)
			}

			manifest, err := svc.ExportProject(args[0], output, appVersion())
			if err != nil {
				return err
			}

			if jsonOut {
				return printJSON(manifest)
			}
			fmt.Printf("Exported %q: %d board(s), %d asset(s) to %s\n",
				manifest.ProjectName, manifest.BoardCount, manifest.AssetCount, output)
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "", "output file path (default <title>.notly)")
	return cmd
}

// bundleFilename derives a filesystem-safe bundle name from a project
// title.
func bundleFilename(title string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '-'
		}
		return r
	}, strings.TrimSpace(title))
	if name == "" {
		name = "project"
	}
	return filepath.Clean(name + ".notly")
}
