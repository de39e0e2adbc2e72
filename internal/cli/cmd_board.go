package cli

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	notlyerrors "github.com/noureldenadel/notly/internal/errors"
	"github.com/noureldenadel/notly/internal/model"
	"github.com/noureldenadel/notly/internal/snapshot"
)

// newBoardCmd creates the board command group
func newBoardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "board",
		Aliases: []string{"boards"},
		Short:   "Manage canvas boards",
	}
	cmd.AddCommand(newBoardCreateCmd())
	cmd.AddCommand(newBoardListCmd())
	cmd.AddCommand(newBoardShowCmd())
	cmd.AddCommand(newBoardRenameCmd())
	cmd.AddCommand(newBoardSetSnapshotCmd())
	cmd.AddCommand(newBoardDeleteCmd())
	return cmd
}

func newBoardCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <project-id> <title>",
		Short: "Create a board in a project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			parent, _ := cmd.Flags().GetString("parent")

			svc, _, cleanup, err := openWorkspace()
			if err != nil {
				return err
			}
			defer cleanup()

			b, err := svc.CreateBoard(args[0], parent, args[1])
			if err != nil {
				return err
			}

			if jsonOut {
				return printJSON(b)
			}
			fmt.Printf("Created board %s (%s)\n", b.Title, b.ID)
			return nil
		},
	}
	cmd.Flags().String("parent", "", "parent board id (nested board)")
	return cmd
}

func newBoardListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list <project-id>",
		Aliases: []string{"ls"},
		Short:   "List a project's boards",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, cleanup, err := openWorkspace()
			if err != nil {
				return err
			}
			defer cleanup()

			if svc.Project(args[0]) == nil {
				return wrapProjectNotFound(args[0])
			}

			boards := svc.Boards(args[0])
			sort.Slice(boards, func(a, b int) bool {
				return boards[a].Position < boards[b].Position
			})

			if jsonOut {
				return printJSON(boards)
			}
			if len(boards) == 0 {
				fmt.Println("No boards in this project.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tPOS\tPARENT\tUPDATED")
			for _, b := range boards {
				parent := b.ParentBoardID
				if parent == "" {
					parent = "-"
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
					b.ID, truncate(b.Title, 40), b.Position, parent, formatMillis(b.UpdatedAt))
			}
			return w.Flush()
		},
	}
}

func newBoardShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <board-id>",
		Short: "Show a board and the cards its canvas references",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, cleanup, err := openWorkspace()
			if err != nil {
				return err
			}
			defer cleanup()

			b := svc.Board(args[0])
			if b == nil {
				return notlyerrors.ErrBoardNotFound(args[0])
			}

			cards, err := svc.BoardCards(b.ID)
			if err != nil {
				return err
			}

			if jsonOut {
				return printJSON(struct {
					Board *model.Board  `json:"board"`
					Cards []*model.Card `json:"cards"`
				}{b, cards})
			}

			fmt.Printf("Board:   %s\n", b.Title)
			fmt.Printf("ID:      %s\n", b.ID)
			fmt.Printf("Project: %s\n", b.ProjectID)
			if b.ParentBoardID != "" {
				fmt.Printf("Parent:  %s\n", b.ParentBoardID)
			}
			snap, err := svc.BoardSnapshot(b.ID)
			if err != nil {
				return err
			}
			if snap == "" {
				fmt.Println("Canvas:  empty")
			} else if snapshot.HasAssetRecords(snap) {
				fmt.Println("Canvas:  has embedded assets")
			} else {
				fmt.Println("Canvas:  no embedded assets")
			}
			if len(cards) > 0 {
				fmt.Printf("Cards:   %d\n", len(cards))
				for _, c := range cards {
					title := c.Title
					if title == "" {
						title = "(untitled)"
					}
					fmt.Printf("  - %s (%s)\n", title, c.ID)
				}
			}
			return nil
		},
	}
}

func newBoardRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <board-id> <title>",
		Short: "Rename a board",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, cleanup, err := openWorkspace()
			if err != nil {
				return err
			}
			defer cleanup()

			b, err := svc.UpdateBoard(args[0], func(b *model.Board) {
				b.Title = args[1]
			})
			if err != nil {
				return err
			}
			fmt.Printf("Renamed board %s to %s\n", b.ID, b.Title)
			return nil
		},
	}
}

func newBoardSetSnapshotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-snapshot <board-id>",
		Short: "Replace a board's canvas snapshot with JSON read from stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := readStdin()
			if err != nil {
				return err
			}

			svc, _, cleanup, err := openWorkspace()
			if err != nil {
				return err
			}
			defer cleanup()

			if err := svc.ScheduleSnapshot(args[0], snap); err != nil {
				return err
			}
			// One-shot invocation, nothing to coalesce with.
			svc.FlushSnapshot(args[0])
			fmt.Printf("Saved snapshot for board %s\n", args[0])
			return nil
		},
	}
}

func newBoardDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <board-id>",
		Short: "Delete a board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, cleanup, err := openWorkspace()
			if err != nil {
				return err
			}
			defer cleanup()

			if err := svc.DeleteBoard(args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted board %s\n", args[0])
			return nil
		},
	}
}
