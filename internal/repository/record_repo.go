package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"logsift"
	"logsift/internal/models"

	"github.com/google/uuid"
)

type RecordSQLite struct {
	db *sql.DB
}

func NewRecordSQLite(db *sql.DB) *RecordSQLite { return &RecordSQLite{db: db} }

var _ RecordRepo = (*RecordSQLite)(nil)

const topServicesLimit = 5

const (
	insertRecordSQL = `
		INSERT INTO log_records (id, job_id, ts, level, service, message, host, trace_id, anomaly_score, raw_line)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	selectRecordCols = `id, job_id, ts, level, service, message, host, trace_id, anomaly_score, raw_line`

	analyticsTotalsSQL = `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN level = 'ERROR' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN level = 'WARN' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN anomaly_score >= ? THEN 1 ELSE 0 END), 0)
		FROM log_records
	`
	analyticsTopServicesSQL = `
		SELECT service, COUNT(*) AS c FROM log_records GROUP BY service ORDER BY c DESC, service ASC LIMIT ?
	`
	analyticsHourlySQL = `
		SELECT CAST(strftime('%H', ts) AS INTEGER) AS hour, COUNT(*) FROM log_records GROUP BY hour ORDER BY hour ASC
	`
)

// BulkInsert writes the whole batch inside one transaction. Records with an
// empty ID are assigned one.
func (r *RecordSQLite) BulkInsert(ctx context.Context, records []models.LogRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bulk insert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, insertRecordSQL)
	if err != nil {
		return fmt.Errorf("prepare record insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range records {
		rec := &records[i]
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		var trace any
		if rec.TraceID != "" {
			trace = rec.TraceID
		}
		if _, err := stmt.ExecContext(ctx,
			rec.ID,
			rec.JobID,
			rec.Timestamp.UTC().Format(tsLayout),
			rec.Level,
			rec.Service,
			rec.Message,
			rec.Host,
			trace,
			rec.AnomalyScore,
			rec.RawLine,
		); err != nil {
			return fmt.Errorf("insert record %d of %d: %w", i+1, len(records), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit bulk insert: %w", err)
	}
	return nil
}

// List returns records matching the filter, ordered by timestamp ascending.
func (r *RecordSQLite) List(ctx context.Context, f RecordFilter) ([]models.LogRecord, error) {
	var (
		conds []string
		args  []any
	)
	if !f.From.IsZero() {
		conds = append(conds, "ts >= ?")
		args = append(args, f.From.UTC().Format(tsLayout))
	}
	if !f.To.IsZero() {
		conds = append(conds, "ts <= ?")
		args = append(args, f.To.UTC().Format(tsLayout))
	}
	if f.Level != "" {
		conds = append(conds, "level = ?")
		args = append(args, f.Level)
	}
	if f.Service != "" {
		conds = append(conds, "service = ?")
		args = append(args, f.Service)
	}
	if f.MinScore > 0 {
		conds = append(conds, "anomaly_score >= ?")
		args = append(args, f.MinScore)
	}

	q := `SELECT ` + selectRecordCols + ` FROM log_records`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY ts ASC"
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanRecords(rows)
}

// GetByIDs fetches specific records. Unknown ids are silently absent from
// the result.
func (r *RecordSQLite) GetByIDs(ctx context.Context, ids []string) ([]models.LogRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	q := `SELECT ` + selectRecordCols + ` FROM log_records WHERE id IN (` + placeholders + `) ORDER BY ts ASC`
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("get records by ids: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanRecords(rows)
}

// Analytics aggregates the whole record table into the overview response.
// anomalyThreshold is the score at or above which a record counts as flagged.
func (r *RecordSQLite) Analytics(ctx context.Context, anomalyThreshold float64) (logsift.AnalyticsResponse, error) {
	var out logsift.AnalyticsResponse

	err := r.db.QueryRowContext(ctx, analyticsTotalsSQL, anomalyThreshold).Scan(
		&out.TotalLogs, &out.ErrorCount, &out.WarnCount, &out.AnomalyCount,
	)
	if err != nil {
		return logsift.AnalyticsResponse{}, fmt.Errorf("analytics totals: %w", err)
	}
	if out.TotalLogs > 0 {
		out.ErrorRate = float64(out.ErrorCount) / float64(out.TotalLogs) * 100
	}

	rows, err := r.db.QueryContext(ctx, analyticsTopServicesSQL, topServicesLimit)
	if err != nil {
		return logsift.AnalyticsResponse{}, fmt.Errorf("analytics top services: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var sc logsift.ServiceCount
		if err := rows.Scan(&sc.Service, &sc.Count); err != nil {
			return logsift.AnalyticsResponse{}, fmt.Errorf("scan top service: %w", err)
		}
		out.TopServices = append(out.TopServices, sc)
	}
	if err := rows.Err(); err != nil {
		return logsift.AnalyticsResponse{}, err
	}

	hourRows, err := r.db.QueryContext(ctx, analyticsHourlySQL)
	if err != nil {
		return logsift.AnalyticsResponse{}, fmt.Errorf("analytics hourly: %w", err)
	}
	defer func() { _ = hourRows.Close() }()
	for hourRows.Next() {
		var hc logsift.HourCount
		if err := hourRows.Scan(&hc.Hour, &hc.Count); err != nil {
			return logsift.AnalyticsResponse{}, fmt.Errorf("scan hourly bucket: %w", err)
		}
		out.HourlyBreakdown = append(out.HourlyBreakdown, hc)
	}
	if err := hourRows.Err(); err != nil {
		return logsift.AnalyticsResponse{}, err
	}

	return out, nil
}

func scanRecords(rows *sql.Rows) ([]models.LogRecord, error) {
	out := make([]models.LogRecord, 0, 64)
	for rows.Next() {
		var (
			rec   models.LogRecord
			trace sql.NullString
		)
		if err := rows.Scan(
			&rec.ID, &rec.JobID, &rec.Timestamp, &rec.Level, &rec.Service,
			&rec.Message, &rec.Host, &trace, &rec.AnomalyScore, &rec.RawLine,
		); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		rec.Timestamp = rec.Timestamp.UTC()
		rec.TraceID = trace.String
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
