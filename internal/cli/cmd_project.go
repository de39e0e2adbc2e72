package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/noureldenadel/notly/internal/config"
	"github.com/noureldenadel/notly/internal/model"
)

// newProjectCmd creates the project command group
func newProjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "project",
		Aliases: []string{"projects"},
		Short:   "Manage projects",
	}
	cmd.AddCommand(newProjectCreateCmd())
	cmd.AddCommand(newProjectListCmd())
	cmd.AddCommand(newProjectShowCmd())
	cmd.AddCommand(newProjectUpdateCmd())
	cmd.AddCommand(newProjectDeleteCmd())
	return cmd
}

func newProjectCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			description, _ := cmd.Flags().GetString("description")
			color, _ := cmd.Flags().GetString("color")

			svc, _, cleanup, err := openWorkspace()
			if err != nil {
				return err
			}
			defer cleanup()

			p, err := svc.CreateProject(args[0], description, color)
			if err != nil {
				return err
			}

			if jsonOut {
				return printJSON(p)
			}
			fmt.Printf("Created project %s (%s)\n", p.Title, p.ID)
			return nil
		},
	}
	cmd.Flags().StringP("description", "d", "", "project description")
	cmd.Flags().String("color", "", "project color (hex)")
	return cmd
}

func newProjectListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, cleanup, err := openWorkspace()
			if err != nil {
				return err
			}
			defer cleanup()

			projects := svc.Projects()
			sort.Slice(projects, func(a, b int) bool {
				return projects[a].CreatedAt < projects[b].CreatedAt
			})

			if jsonOut {
				return printJSON(projects)
			}
			if len(projects) == 0 {
				fmt.Println("No projects found. Create one with: notly project create \"Title\"")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tBOARDS\tUPDATED")
			for _, p := range projects {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
					p.ID, truncate(p.Title, 40), len(svc.Boards(p.ID)), formatMillis(p.UpdatedAt))
			}
			return w.Flush()
		},
	}
}

func newProjectShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <project-id>",
		Short: "Show a project and its boards",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, cleanup, err := openWorkspace()
			if err != nil {
				return err
			}
			defer cleanup()

			p := svc.Project(args[0])
			if p == nil {
				return wrapProjectNotFound(args[0])
			}

			boards := svc.Boards(p.ID)
			sort.Slice(boards, func(a, b int) bool {
				return boards[a].Position < boards[b].Position
			})

			if jsonOut {
				return printJSON(struct {
					Project *model.Project `json:"project"`
					Boards  []*model.Board `json:"boards"`
				}{p, boards})
			}

			fmt.Printf("Project: %s\n", p.Title)
			fmt.Printf("ID:      %s\n", p.ID)
			if p.Description != "" {
				fmt.Printf("About:   %s\n", p.Description)
			}
			fmt.Printf("Created: %s\n", formatMillis(p.CreatedAt))
			fmt.Printf("Boards:  %d\n", len(boards))
			for _, b := range boards {
				marker := "  -"
				if b.ParentBoardID != "" {
					marker = "    ↳"
				}
				fmt.Printf("%s %s (%s)\n", marker, b.Title, b.ID)
			}
			return nil
		},
	}
}

func newProjectUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <project-id>",
		Short: "Update a project's title, description, or color",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, cleanup, err := openWorkspace()
			if err != nil {
				return err
			}
			defer cleanup()

			title, _ := cmd.Flags().GetString("title")
			description, _ := cmd.Flags().GetString("description")
			color, _ := cmd.Flags().GetString("color")

			p, err := svc.UpdateProject(args[0], func(p *model.Project) {
				if cmd.Flags().Changed("title") {
					p.Title = title
				}
				if cmd.Flags().Changed("description") {
					p.Description = description
				}
				if cmd.Flags().Changed("color") {
					p.Color = color
				}
			})
			if err != nil {
				return err
			}

			if jsonOut {
				return printJSON(p)
			}
			fmt.Printf("Updated project %s\n", p.ID)
			return nil
		},
	}
	cmd.Flags().String("title", "", "new title")
	cmd.Flags().StringP("description", "d", "", "new description")
	cmd.Flags().String("color", "", "new color")
	return cmd
}

func newProjectDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <project-id>",
		Short: "Delete a project and all its boards",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, cleanup, err := openWorkspace()
			if err != nil {
				return err
			}
			defer cleanup()

			if err := svc.DeleteProject(args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted project %s\n", args[0])
			return nil
		},
	}
}

// appVersion is what gets stamped into exported bundles.
func appVersion() string {
	return config.AppVersion
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
