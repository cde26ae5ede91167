package commands

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/nwhitfield/site-studio/internal/database"
	"github.com/nwhitfield/site-studio/internal/intake"
	"github.com/nwhitfield/site-studio/internal/models"
	"github.com/nwhitfield/site-studio/internal/validation"
)

// newIntakeService builds an intake service without a job queue:
// captures from the CLI skip metadata enrichment.
func newIntakeService(db *database.DB) *intake.Service {
	return intake.NewService(
		database.NewRawSourceRepository(db),
		database.NewSourceRepository(db),
		nil,
		newLogger(),
	)
}

// NewCaptureCmd creates the capture command
func NewCaptureCmd() *cobra.Command {
	var tags []string

	cmd := &cobra.Command{
		Use:   "capture <url>",
		Short: "Capture a URL onto the intake board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB(db)

			service := newIntakeService(db)
			card, created, err := service.Capture(context.Background(), intake.CaptureInput{
				URL:  args[0],
				Tags: tags,
			})
			if err != nil {
				return fmt.Errorf("failed to capture: %w", err)
			}

			if created {
				fmt.Printf("Captured card %s\n", card.ID)
			} else {
				fmt.Printf("Already on the board as card %s (phase %s)\n", card.ID, card.Phase)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Tag the card (repeatable)")

	return cmd
}

// NewTriageCmd creates the triage command
func NewTriageCmd() *cobra.Command {
	var note string

	cmd := &cobra.Command{
		Use:   "triage <card-id> <decision>",
		Short: "Record a triage decision for an intake card",
		Long:  "Record accepted, rejected, or deferred for a card. Accepting a card promotes it to a source record.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid card ID %q", args[0])
			}
			if err := validation.ValidateDecision(args[1]); err != nil {
				return err
			}

			_, db, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB(db)

			service := newIntakeService(db)
			card, source, err := service.Triage(context.Background(), id, models.Decision(args[1]), note)
			if err != nil {
				return fmt.Errorf("failed to triage: %w", err)
			}

			fmt.Printf("Card %s: %s\n", card.ID, card.Decision)
			if source != nil {
				fmt.Printf("Promoted to source %q\n", source.Slug)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&note, "note", "", "Decision note")

	return cmd
}
