package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// newSearchCmd creates the search command
func newSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search cards by title and content",
		Long: `Search cards with a full-text query. Terms match as prefixes,
best match first.

Examples:
  notly search meeting
  notly search "quarterly plan"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, cleanup, err := openWorkspace()
			if err != nil {
				return err
			}
			defer cleanup()

			matches, err := svc.SearchCards(strings.Join(args, " "))
			if err != nil {
				return err
			}

			if jsonOut {
				return printJSON(matches)
			}
			if len(matches) == 0 {
				fmt.Println("No matching cards.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tMATCH")
			for _, m := range matches {
				title := m.Title
				if title == "" {
					title = "(untitled)"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", m.CardID, truncate(title, 30), truncate(m.Snippet, 60))
			}
			return w.Flush()
		},
	}
}
