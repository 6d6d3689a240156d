package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/AtRiskMedia/pagecraft-go/internal/application/container"
	"github.com/AtRiskMedia/pagecraft-go/internal/application/services"
	"github.com/AtRiskMedia/pagecraft-go/internal/application/startup"
	"github.com/spf13/cobra"
)

var (
	pageID    string
	pretty    bool
	outFile   string
	projectID string
)

var rootCmd = &cobra.Command{
	Use:   "pagecraft-go",
	Short: "Visual page editor backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		return startup.Initialize()
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the editor API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return startup.Initialize()
	},
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a stored page with its background layer",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withContainer(func(ctx context.Context, c *container.Container) error {
			markup, err := c.PageService.Render(ctx, pageID, pretty)
			if err != nil {
				return err
			}
			if outFile == "" {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), markup)
				return err
			}
			return os.WriteFile(outFile, []byte(markup), 0o644)
		})
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the pages of a project",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withContainer(func(ctx context.Context, c *container.Container) error {
			pages, err := c.PageService.List(ctx, projectID)
			if err != nil {
				return err
			}
			for _, p := range pages {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", p.PageID, p.Title, p.Created.Format(time.RFC3339))
			}
			return nil
		})
	},
}

var hashCmd = &cobra.Command{
	Use:   "hash-password <password>",
	Short: "Print a bcrypt hash for ADMIN_PASSWORD or EDITOR_PASSWORD",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hashed, err := services.HashPassword(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hashed)
		return nil
	},
}

func withContainer(fn func(ctx context.Context, c *container.Container) error) error {
	c, err := container.NewContainer()
	if err != nil {
		return err
	}
	defer c.Close()
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	return fn(ctx, c)
}

func init() {
	renderCmd.Flags().StringVar(&pageID, "page", "", "Page ID to render")
	renderCmd.Flags().BoolVar(&pretty, "pretty", false, "Indent the output")
	renderCmd.Flags().StringVarP(&outFile, "out", "o", "", "Write to a file instead of stdout")
	renderCmd.MarkFlagRequired("page")

	listCmd.Flags().StringVar(&projectID, "project", "default", "Project ID")

	rootCmd.AddCommand(serveCmd, renderCmd, listCmd, hashCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("pagecraft-go: %v", err)
	}
}
