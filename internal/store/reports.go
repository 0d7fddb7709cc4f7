// Package store persists validated report datasets in PostgreSQL.
//
// It implements the report-cache contract: accepted records are stored in
// their sanitized form, rejected records are kept alongside their errors and
// warnings for operator review, and nothing is silently dropped.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/arclend/lenddash/internal/validation"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// ReportStore reads and writes report datasets.
type ReportStore struct {
	db DBTX
}

// New creates a ReportStore backed by db.
func New(db DBTX) *ReportStore {
	return &ReportStore{db: db}
}

const createTablesSQL = `
CREATE TABLE IF NOT EXISTS report_datasets (
	id             UUID PRIMARY KEY,
	report_type    TEXT NOT NULL,
	sub_type       TEXT,
	file_name      TEXT,
	total_records  INTEGER NOT NULL,
	valid_count    INTEGER NOT NULL,
	invalid_count  INTEGER NOT NULL,
	total_errors   INTEGER NOT NULL,
	total_warnings INTEGER NOT NULL,
	truncated      BOOLEAN NOT NULL DEFAULT FALSE,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS report_records (
	dataset_id UUID NOT NULL REFERENCES report_datasets(id) ON DELETE CASCADE,
	idx        INTEGER NOT NULL,
	record     JSONB NOT NULL,
	warnings   TEXT[] NOT NULL DEFAULT '{}',
	PRIMARY KEY (dataset_id, idx)
);

CREATE TABLE IF NOT EXISTS rejected_records (
	dataset_id UUID NOT NULL REFERENCES report_datasets(id) ON DELETE CASCADE,
	idx        INTEGER NOT NULL,
	record     JSONB NOT NULL,
	errors     TEXT[] NOT NULL DEFAULT '{}',
	warnings   TEXT[] NOT NULL DEFAULT '{}',
	PRIMARY KEY (dataset_id, idx)
);

CREATE INDEX IF NOT EXISTS idx_report_datasets_type
	ON report_datasets (report_type, created_at DESC);
`

// EnsureSchema creates the storage tables if they do not exist.
func (s *ReportStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, createTablesSQL); err != nil {
		return fmt.Errorf("create report tables: %w", err)
	}
	return nil
}

// DatasetMeta identifies a stored dataset.
type DatasetMeta struct {
	ID         uuid.UUID
	ReportType string
	SubType    string
	FileName   string
}

// DatasetSummary is the stored aggregate view of a dataset validation run.
type DatasetSummary struct {
	ID           uuid.UUID          `json:"datasetId"`
	ReportType   string             `json:"reportType"`
	SubType      string             `json:"subType,omitempty"`
	FileName     string             `json:"fileName,omitempty"`
	TotalRecords int                `json:"totalRecords"`
	Summary      validation.Summary `json:"summary"`
	Truncated    bool               `json:"truncated,omitempty"`
	CreatedAt    time.Time          `json:"createdAt"`
}

// RejectedRow is a stored invalid record surfaced for operator review.
type RejectedRow struct {
	Index    int             `json:"index"`
	Record   json.RawMessage `json:"record"`
	Errors   []string        `json:"errors"`
	Warnings []string        `json:"warnings,omitempty"`
}

// SaveDataset persists the dataset header, all accepted records (sanitized),
// and all rejected records (original form). Record inserts are batched.
func (s *ReportStore) SaveDataset(ctx context.Context, meta DatasetMeta, res *validation.DatasetResult) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO report_datasets
			(id, report_type, sub_type, file_name, total_records, valid_count, invalid_count, total_errors, total_warnings, truncated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		meta.ID, meta.ReportType, toPgText(meta.SubType), toPgText(meta.FileName),
		res.TotalRecords, res.Summary.Valid, res.Summary.Invalid,
		res.Summary.TotalErrors, res.Summary.TotalWarnings, res.Truncated,
	)
	if err != nil {
		return fmt.Errorf("insert dataset %s: %w", meta.ID, err)
	}

	batch := &pgx.Batch{}
	for _, rec := range res.ValidRecords {
		body, err := json.Marshal(rec.Record)
		if err != nil {
			return fmt.Errorf("encode record %d: %w", rec.Index, err)
		}
		batch.Queue(`
			INSERT INTO report_records (dataset_id, idx, record, warnings)
			VALUES ($1, $2, $3, $4)`,
			meta.ID, rec.Index, body, emptyIfNil(rec.Warnings))
	}
	for _, rec := range res.InvalidRecords {
		body, err := json.Marshal(rec.Record)
		if err != nil {
			return fmt.Errorf("encode rejected record %d: %w", rec.Index, err)
		}
		batch.Queue(`
			INSERT INTO rejected_records (dataset_id, idx, record, errors, warnings)
			VALUES ($1, $2, $3, $4, $5)`,
			meta.ID, rec.Index, body, emptyIfNil(rec.Errors), emptyIfNil(rec.Warnings))
	}
	if batch.Len() == 0 {
		return nil
	}

	br := s.db.SendBatch(ctx, batch)
	defer br.Close()
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("insert records for dataset %s: %w", meta.ID, err)
		}
	}
	return nil
}

// Summary returns the stored summary for a dataset, or nil if unknown.
func (s *ReportStore) Summary(ctx context.Context, id uuid.UUID) (*DatasetSummary, error) {
	var (
		out     DatasetSummary
		subType pgtype.Text
		file    pgtype.Text
	)
	err := s.db.QueryRow(ctx, `
		SELECT id, report_type, sub_type, file_name, total_records,
		       valid_count, invalid_count, total_errors, total_warnings, truncated, created_at
		FROM report_datasets WHERE id = $1`, id).
		Scan(&out.ID, &out.ReportType, &subType, &file, &out.TotalRecords,
			&out.Summary.Valid, &out.Summary.Invalid,
			&out.Summary.TotalErrors, &out.Summary.TotalWarnings,
			&out.Truncated, &out.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load dataset %s: %w", id, err)
	}
	out.SubType = subType.String
	out.FileName = file.String
	return &out, nil
}

// InvalidRecords returns a page of rejected records for a dataset, in
// ascending original-index order.
func (s *ReportStore) InvalidRecords(ctx context.Context, id uuid.UUID, limit, offset int) ([]RejectedRow, error) {
	rows, err := s.db.Query(ctx, `
		SELECT idx, record, errors, warnings
		FROM rejected_records
		WHERE dataset_id = $1
		ORDER BY idx
		LIMIT $2 OFFSET $3`, id, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("load rejected records for %s: %w", id, err)
	}
	defer rows.Close()

	var out []RejectedRow
	for rows.Next() {
		var r RejectedRow
		if err := rows.Scan(&r.Index, &r.Record, &r.Errors, &r.Warnings); err != nil {
			return nil, fmt.Errorf("scan rejected record: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// RecentDatasets returns the most recently stored dataset summaries.
func (s *ReportStore) RecentDatasets(ctx context.Context, limit int) ([]DatasetSummary, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, report_type, sub_type, file_name, total_records,
		       valid_count, invalid_count, total_errors, total_warnings, truncated, created_at
		FROM report_datasets
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("load recent datasets: %w", err)
	}
	defer rows.Close()

	var out []DatasetSummary
	for rows.Next() {
		var (
			d       DatasetSummary
			subType pgtype.Text
			file    pgtype.Text
		)
		if err := rows.Scan(&d.ID, &d.ReportType, &subType, &file, &d.TotalRecords,
			&d.Summary.Valid, &d.Summary.Invalid,
			&d.Summary.TotalErrors, &d.Summary.TotalWarnings,
			&d.Truncated, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan dataset: %w", err)
		}
		d.SubType = subType.String
		d.FileName = file.String
		out = append(out, d)
	}
	return out, rows.Err()
}

func toPgText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

func emptyIfNil(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}
