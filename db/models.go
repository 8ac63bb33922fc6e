package db

import (
	"context"
	"database/sql"
	"fmt"

	"regdoc-scraper/models"

	"github.com/lib/pq"
)

// StartRun inserts a run in the 'running' state
func (db *DB) StartRun(ctx context.Context, run models.RunReport) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO scrape_runs (id, site, status, started_at)
		VALUES ($1, $2, 'running', $3)
	`, run.ID, run.Site, run.StartedAt)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// FinishRun stores the final status and counts of a run
func (db *DB) FinishRun(ctx context.Context, run models.RunReport) error {
	totals := run.Totals()
	_, err := db.conn.ExecContext(ctx, `
		UPDATE scrape_runs
		SET status = $1, keywords_count = $2, failed_keywords = $3, pages_count = $4,
			documents_count = $5, html_pages_count = $6, failed_records = $7, finished_at = $8
		WHERE id = $9
	`, run.Status(), len(run.Keywords), len(run.FailedKeywords()), totals.PagesVisited,
		totals.Documents, totals.Pages, totals.Failed, run.FinishedAt, run.ID)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	return nil
}

// SaveRecords bulk-inserts the records persisted for one keyword
func (db *DB) SaveRecords(ctx context.Context, runID, site, keyword string, records []models.Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("scraped_records",
		"run_id", "site", "keyword", "identifier", "kind", "record_date", "url", "description"))
	if err != nil {
		return fmt.Errorf("failed to prepare copy: %w", err)
	}

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, runID, site, keyword, r.Identifier, string(r.Kind),
			nullString(r.Date), r.URL, nullString(r.Description)); err != nil {
			stmt.Close()
			return fmt.Errorf("failed to copy record %s: %w", r.Identifier, err)
		}
	}

	// Flush the COPY buffer
	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return fmt.Errorf("failed to flush records: %w", err)
	}
	if err := stmt.Close(); err != nil {
		return fmt.Errorf("failed to close copy: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit records: %w", err)
	}

	db.logger.Debug("records saved", "run", runID, "keyword", keyword, "count", len(records))
	return nil
}

// CountRecords returns how many records a run stored
func (db *DB) CountRecords(ctx context.Context, runID string) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM scraped_records WHERE run_id = $1`, runID).Scan(&n)
	if err != nil {
		return 0, err
	}
	return n, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
