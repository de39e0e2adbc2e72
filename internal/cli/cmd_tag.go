package cli

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// newTagCmd creates the tag command group
func newTagCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tag",
		Aliases: []string{"tags"},
		Short:   "Manage workspace tags",
	}
	cmd.AddCommand(newTagCreateCmd())
	cmd.AddCommand(newTagListCmd())
	cmd.AddCommand(newTagAttachCmd())
	cmd.AddCommand(newTagDetachCmd())
	cmd.AddCommand(newTagDeleteCmd())
	return cmd
}

func newTagAttachCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "attach <card-id> <tag-id>",
		Short: "Attach a tag to a card",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, cleanup, err := openWorkspace()
			if err != nil {
				return err
			}
			defer cleanup()

			if err := svc.TagCard(args[0], args[1]); err != nil {
				return err
			}
			fmt.Printf("Tagged card %s with %s\n", args[0], args[1])
			return nil
		},
	}
}

func newTagDetachCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detach <card-id> <tag-id>",
		Short: "Detach a tag from a card",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, cleanup, err := openWorkspace()
			if err != nil {
				return err
			}
			defer cleanup()

			if err := svc.UntagCard(args[0], args[1]); err != nil {
				return err
			}
			fmt.Printf("Untagged card %s from %s\n", args[0], args[1])
			return nil
		},
	}
}

func newTagCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			color, _ := cmd.Flags().GetString("color")

			svc, _, cleanup, err := openWorkspace()
			if err != nil {
				return err
			}
			defer cleanup()

			tag, err := svc.CreateTag(args[0], color)
			if err != nil {
				return err
			}

			if jsonOut {
				return printJSON(tag)
			}
			fmt.Printf("Created tag %s (%s)\n", tag.Name, tag.ID)
			return nil
		},
	}
	cmd.Flags().String("color", "", "tag color (hex)")
	return cmd
}

func newTagListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tags",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, cleanup, err := openWorkspace()
			if err != nil {
				return err
			}
			defer cleanup()

			tags, err := svc.Tags()
			if err != nil {
				return err
			}
			sort.Slice(tags, func(a, b int) bool { return tags[a].Name < tags[b].Name })

			if jsonOut {
				return printJSON(tags)
			}
			if len(tags) == 0 {
				fmt.Println("No tags found.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tCOLOR")
			for _, tag := range tags {
				color := tag.Color
				if color == "" {
					color = "-"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", tag.ID, tag.Name, color)
			}
			return w.Flush()
		},
	}
}

func newTagDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <tag-id>",
		Short: "Delete a tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, cleanup, err := openWorkspace()
			if err != nil {
				return err
			}
			defer cleanup()

			if err := svc.DeleteTag(args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted tag %s\n", args[0])
			return nil
		},
	}
}
