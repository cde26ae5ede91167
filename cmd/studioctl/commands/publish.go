package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nwhitfield/site-studio/internal/models"
)

// NewPublishCmd creates the publish command tree
func NewPublishCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish content to the static site repository",
	}

	cmd.AddCommand(newPublishContentCmd())
	cmd.AddCommand(newPublishResearchCmd())
	cmd.AddCommand(newPublishSiteCmd())
	cmd.AddCommand(newPublishNowCmd())

	return cmd
}

func newPublishContentCmd() *cobra.Command {
	var withConfig bool

	cmd := &cobra.Command{
		Use:   "content <type> <slug>",
		Short: "Publish one content piece",
		Long:  "Serialize a content piece and commit it to the site repository. Draft-flagged types have their draft flag cleared once the commit is confirmed.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			contentType := models.ContentType(args[0])
			if !contentType.Valid() || contentType == models.ContentTypeNow {
				return fmt.Errorf("invalid content type %q", args[0])
			}
			ref := models.ContentRef{Type: contentType, Slug: args[1]}

			cfg, db, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB(db)

			pub, err := newPublisher(cfg, db)
			if err != nil {
				return err
			}

			ctx := context.Background()
			var entry *models.PublishLog
			if withConfig {
				entry, err = pub.PublishContentWithConfig(ctx, ref)
			} else {
				entry, err = pub.PublishContent(ctx, ref)
			}
			if err != nil {
				return err
			}

			fmt.Printf("Published %s %q\n", ref.Type, ref.Slug)
			fmt.Printf("  Commit: %s\n", entry.CommitSHA)
			if entry.CommitURL != "" {
				fmt.Printf("  URL:    %s\n", entry.CommitURL)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&withConfig, "with-config", false, "Commit site.json in the same commit")

	return cmd
}

func newPublishResearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "research",
		Short: "Publish the public research corpus",
		Long:  "Export all public sources, links, and threads and commit them in one atomic commit.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB(db)

			pub, err := newPublisher(cfg, db)
			if err != nil {
				return err
			}

			entry, err := pub.PublishResearch(context.Background())
			if err != nil {
				return err
			}

			fmt.Printf("Published research data (%d records)\n", entry.RecordCount)
			fmt.Printf("  Commit: %s\n", entry.CommitSHA)
			return nil
		},
	}
}

func newPublishSiteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "site",
		Short: "Publish the site configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB(db)

			pub, err := newPublisher(cfg, db)
			if err != nil {
				return err
			}

			entry, err := pub.PublishSiteConfig(context.Background())
			if err != nil {
				return err
			}

			fmt.Printf("Published site configuration\n  Commit: %s\n", entry.CommitSHA)
			return nil
		},
	}
}

func newPublishNowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "now",
		Short: "Publish the now page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB(db)

			pub, err := newPublisher(cfg, db)
			if err != nil {
				return err
			}

			entry, err := pub.PublishNowPage(context.Background())
			if err != nil {
				return err
			}

			fmt.Printf("Published now page\n  Commit: %s\n", entry.CommitSHA)
			return nil
		},
	}
}
