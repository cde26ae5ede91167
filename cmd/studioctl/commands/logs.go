package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nwhitfield/site-studio/internal/database"
	"github.com/nwhitfield/site-studio/internal/models"
)

// NewLogsCmd creates the logs command
func NewLogsCmd() *cobra.Command {
	var dataTypeFlag string
	var failedOnly bool
	var limit int

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the publish audit log",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB(db)

			var dataType *models.PublishDataType
			if dataTypeFlag != "" {
				dt := models.PublishDataType(dataTypeFlag)
				dataType = &dt
			}

			var success *bool
			if failedOnly {
				v := false
				success = &v
			}

			logRepo := database.NewPublishLogRepository(db)
			entries, err := logRepo.List(context.Background(), dataType, success, limit)
			if err != nil {
				return fmt.Errorf("failed to list publish logs: %w", err)
			}

			if len(entries) == 0 {
				fmt.Println("No publish attempts recorded")
				return nil
			}

			for _, entry := range entries {
				status := "ok"
				if !entry.Success {
					status = "FAILED"
				}
				fmt.Printf("%s  %-10s %-30s %s\n",
					entry.CreatedAt.Format("2006-01-02 15:04:05"),
					entry.DataType,
					entry.ContentSlug,
					status,
				)
				if !entry.Success && entry.ErrorMessage != "" {
					fmt.Printf("    %s\n", entry.ErrorMessage)
				}
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&dataTypeFlag, "data-type", "", "Filter by data type (essay, field_note, research, ...)")
	cmd.Flags().BoolVar(&failedOnly, "failed", false, "Show only failed attempts")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum entries to show")

	return cmd
}
