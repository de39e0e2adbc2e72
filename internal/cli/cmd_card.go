package cli

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/noureldenadel/notly/internal/model"
)

// newCardCmd creates the card command group
func newCardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "card",
		Aliases: []string{"cards"},
		Short:   "Manage note cards",
	}
	cmd.AddCommand(newCardCreateCmd())
	cmd.AddCommand(newCardListCmd())
	cmd.AddCommand(newCardShowCmd())
	cmd.AddCommand(newCardEditCmd())
	cmd.AddCommand(newCardDeleteCmd())
	return cmd
}

func newCardCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a note card",
		Long: `Create a note card.

Content is read from --content, or from stdin when --content is absent:
  notly card create "Reading list" --content "<p>start here</p>"
  cat notes.html | notly card create "Imported notes"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, _ := cmd.Flags().GetString("content")
			if !cmd.Flags().Changed("content") {
				data, err := readStdin()
				if err != nil {
					return err
				}
				content = data
			}

			svc, _, cleanup, err := openWorkspace()
			if err != nil {
				return err
			}
			defer cleanup()

			c, err := svc.CreateCard(args[0], content)
			if err != nil {
				return err
			}

			if jsonOut {
				return printJSON(c)
			}
			fmt.Printf("Created card %s (%s), %d words\n", c.Title, c.ID, c.WordCount)
			return nil
		},
	}
	cmd.Flags().String("content", "", "card content (rich-text HTML)")
	return cmd
}

func newCardListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List cards",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, cleanup, err := openWorkspace()
			if err != nil {
				return err
			}
			defer cleanup()

			cards := svc.Cards()
			sort.Slice(cards, func(a, b int) bool {
				return cards[a].CreatedAt < cards[b].CreatedAt
			})

			if jsonOut {
				return printJSON(cards)
			}
			if len(cards) == 0 {
				fmt.Println("No cards found.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tWORDS\tUPDATED")
			for _, c := range cards {
				title := c.Title
				if title == "" {
					title = "(untitled)"
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
					c.ID, truncate(title, 40), c.WordCount, formatMillis(c.UpdatedAt))
			}
			return w.Flush()
		},
	}
}

func newCardShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <card-id>",
		Short: "Show a card's content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asMarkdown, _ := cmd.Flags().GetBool("markdown")

			svc, _, cleanup, err := openWorkspace()
			if err != nil {
				return err
			}
			defer cleanup()

			var card *model.Card
			for _, c := range svc.Cards() {
				if c.ID == args[0] {
					card = c
					break
				}
			}
			if card == nil {
				return wrapCardNotFound(args[0])
			}

			if jsonOut {
				return printJSON(card)
			}

			if card.Title != "" {
				fmt.Printf("Title: %s\n", card.Title)
			}
			if tags, terr := svc.CardTags(card.ID); terr == nil && len(tags) > 0 {
				names := make([]string, len(tags))
				for i, tag := range tags {
					names[i] = tag.Name
				}
				fmt.Printf("Tags:  %s\n", strings.Join(names, ", "))
			}
			fmt.Println()
			if asMarkdown {
				md, merr := svc.CardMarkdown(card.ID)
				if merr != nil {
					return merr
				}
				fmt.Println(md)
				return nil
			}
			fmt.Println(card.Content)
			return nil
		},
	}
	cmd.Flags().BoolP("markdown", "m", false, "render content as markdown")
	return cmd
}

func newCardEditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <card-id>",
		Short: "Update a card's title or content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title, _ := cmd.Flags().GetString("title")
			content, _ := cmd.Flags().GetString("content")

			svc, _, cleanup, err := openWorkspace()
			if err != nil {
				return err
			}
			defer cleanup()

			c, err := svc.UpdateCard(args[0], func(c *model.Card) {
				if cmd.Flags().Changed("title") {
					c.Title = title
				}
				if cmd.Flags().Changed("content") {
					c.Content = content
				}
			})
			if err != nil {
				return err
			}
			fmt.Printf("Updated card %s, %d words\n", c.ID, c.WordCount)
			return nil
		},
	}
	cmd.Flags().String("title", "", "new title")
	cmd.Flags().String("content", "", "new content")
	return cmd
}

func newCardDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <card-id>",
		Short: "Delete a card",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, cleanup, err := openWorkspace()
			if err != nil {
				return err
			}
			defer cleanup()

			if err := svc.DeleteCard(args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted card %s\n", args[0])
			return nil
		},
	}
}
