package database

import (
	"context"
	"fmt"
	"time"

	"github.com/nwhitfield/site-studio/internal/models"
)

// PublishLogRepository handles the append-only publish audit log. There
// is deliberately no update or delete: a log entry records one attempt
// and is never rewritten.
type PublishLogRepository struct {
	db *DB
}

// NewPublishLogRepository creates a new publish log repository
func NewPublishLogRepository(db *DB) *PublishLogRepository {
	return &PublishLogRepository{db: db}
}

// Create appends one audit entry.
func (r *PublishLogRepository) Create(ctx context.Context, log *models.PublishLog) error {
	query := `
		INSERT INTO publish_logs (
			id, data_type, content_slug, content_title, record_count,
			commit_sha, commit_url, success, error_message, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		log.ID,
		log.DataType,
		log.ContentSlug,
		log.ContentTitle,
		log.RecordCount,
		log.CommitSHA,
		log.CommitURL,
		log.Success,
		log.ErrorMessage,
		time.Now(),
	).Scan(&log.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create publish log: %w", err)
	}

	return nil
}

// List retrieves audit entries newest first, optionally filtered by data
// type and outcome. limit <= 0 means no limit.
func (r *PublishLogRepository) List(ctx context.Context, dataType *models.PublishDataType, success *bool, limit int) ([]*models.PublishLog, error) {
	query := `
		SELECT id, data_type, content_slug, content_title, record_count,
			commit_sha, commit_url, success, error_message, created_at
		FROM publish_logs
		WHERE 1=1
	`
	args := []any{}
	argIndex := 1

	if dataType != nil {
		query += fmt.Sprintf(" AND data_type = $%d", argIndex)
		args = append(args, string(*dataType))
		argIndex++
	}

	if success != nil {
		query += fmt.Sprintf(" AND success = $%d", argIndex)
		args = append(args, *success)
		argIndex++
	}

	query += " ORDER BY created_at DESC"

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query publish logs: %w", err)
	}
	defer rows.Close()

	var logs []*models.PublishLog
	for rows.Next() {
		log := &models.PublishLog{}
		err := rows.Scan(
			&log.ID,
			&log.DataType,
			&log.ContentSlug,
			&log.ContentTitle,
			&log.RecordCount,
			&log.CommitSHA,
			&log.CommitURL,
			&log.Success,
			&log.ErrorMessage,
			&log.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan publish log: %w", err)
		}
		logs = append(logs, log)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating publish logs: %w", err)
	}

	return logs, nil
}

// LastSuccess returns the most recent successful entry for a data type,
// or nil when nothing has been published yet.
func (r *PublishLogRepository) LastSuccess(ctx context.Context, dataType models.PublishDataType) (*models.PublishLog, error) {
	yes := true
	logs, err := r.List(ctx, &dataType, &yes, 1)
	if err != nil {
		return nil, err
	}
	if len(logs) == 0 {
		return nil, nil
	}
	return logs[0], nil
}
