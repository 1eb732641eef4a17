package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"reelsmith/internal/config"
)

// Store manages queue persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the queue database and applies migrations.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.LogDir, "queue.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	// WAL lets the CLI read while a stage writes; busy_timeout covers the
	// brief write locks that still occur.
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// NewJob inserts a new pending video job. Topic may be empty for scheduled
// runs; the scripting stage picks one. Trigger records how the job was
// enqueued (scheduled or manual).
func (s *Store) NewJob(ctx context.Context, topic, trigger string) (*Item, error) {
	trigger = strings.TrimSpace(trigger)
	if trigger == "" {
		return nil, errors.New("trigger is required")
	}
	timestamp := nowStamp()

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO queue_items (
            topic, trigger_kind, status, created_at, updated_at,
            progress_stage, progress_percent, progress_message
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		nullableString(strings.TrimSpace(topic)),
		trigger,
		StatusPending,
		timestamp,
		timestamp,
		nil,
		0.0,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

// GetByID fetches a queue item by identifier, nil when absent.
func (s *Store) GetByID(ctx context.Context, id int64) (*Item, error) {
	item, err := s.queryItem(ctx, `SELECT `+itemColumns+` FROM queue_items WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// Update persists changes to an existing queue item.
func (s *Store) Update(ctx context.Context, item *Item) error {
	if item == nil {
		return errors.New("item is nil")
	}
	item.UpdatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE queue_items
         SET topic = ?, angle = ?, trigger_kind = ?, status = ?, script_text = ?,
             scenes_json = ?, staging_dir = ?, video_file = ?, metadata_json = ?,
             watch_url = ?, error_message = ?, updated_at = ?,
             progress_stage = ?, progress_percent = ?, progress_message = ?,
             last_heartbeat = ?
         WHERE id = ?`,
		nullableString(item.Topic),
		nullableString(item.Angle),
		item.Trigger,
		item.Status,
		nullableString(item.ScriptText),
		nullableString(item.ScenesJSON),
		nullableString(item.StagingDir),
		nullableString(item.VideoFile),
		nullableString(item.MetadataJSON),
		nullableString(item.WatchURL),
		nullableString(item.ErrorMessage),
		item.UpdatedAt.Format(time.RFC3339Nano),
		nullableString(item.ProgressStage),
		item.ProgressPercent,
		nullableString(item.ProgressMessage),
		nullableTime(item.LastHeartbeat),
		item.ID,
	)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

// UpdateProgress persists progress fields without touching status, error
// message, or heartbeat, so a heartbeat goroutine and a stage can write
// concurrently without clobbering each other.
func (s *Store) UpdateProgress(ctx context.Context, item *Item) error {
	if item == nil {
		return errors.New("item is nil")
	}
	item.UpdatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE queue_items
         SET progress_stage = ?, progress_percent = ?, progress_message = ?, updated_at = ?
         WHERE id = ?`,
		nullableString(item.ProgressStage),
		item.ProgressPercent,
		nullableString(item.ProgressMessage),
		item.UpdatedAt.Format(time.RFC3339Nano),
		item.ID,
	)
	if err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	return nil
}

// ItemsByStatus returns items matching a status ordered by creation time.
func (s *Store) ItemsByStatus(ctx context.Context, status Status) ([]*Item, error) {
	items, err := s.queryItems(ctx, `SELECT `+itemColumns+` FROM queue_items WHERE status = ? ORDER BY created_at, id`, status)
	if err != nil {
		return nil, fmt.Errorf("query by status: %w", err)
	}
	return items, nil
}

// List returns queue items filtered by status set, or every item when no
// status is given.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Item, error) {
	query := `SELECT ` + itemColumns + ` FROM queue_items`
	var args []any
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + placeholders(len(statuses)) + `)`
		args = statusArgs(statuses)
	}
	query += ` ORDER BY created_at, id`

	items, err := s.queryItems(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list queue items: %w", err)
	}
	return items, nil
}

// NextForStatuses returns the oldest item in any of the given statuses.
func (s *Store) NextForStatuses(ctx context.Context, statuses ...Status) (*Item, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	query := `SELECT ` + itemColumns + ` FROM queue_items WHERE status IN (` +
		placeholders(len(statuses)) + `) ORDER BY created_at, id LIMIT 1`
	return s.queryItem(ctx, query, statusArgs(statuses)...)
}

// HasActive reports whether any item with the given trigger is still moving
// through the pipeline. The scheduler uses this to avoid stacking runs.
func (s *Store) HasActive(ctx context.Context, trigger string) (bool, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT COUNT(1) FROM queue_items WHERE trigger_kind = ? AND status NOT IN (?, ?)`,
		trigger,
		StatusCompleted,
		StatusFailed,
	)
	var count int
	if err := row.Scan(&count); err != nil {
		return false, fmt.Errorf("count active items: %w", err)
	}
	return count > 0, nil
}

// CompletedSince returns items completed at or after the provided instant.
func (s *Store) CompletedSince(ctx context.Context, since time.Time) ([]*Item, error) {
	items, err := s.queryItems(
		ctx,
		`SELECT `+itemColumns+` FROM queue_items WHERE status = ? AND updated_at >= ? ORDER BY updated_at`,
		StatusCompleted,
		since.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("query completed items: %w", err)
	}
	return items, nil
}

// ResetStuckProcessing rolls items in processing states back to the
// checkpoint status their stage started from.
func (s *Store) ResetStuckProcessing(ctx context.Context) (int64, error) {
	return s.rollbackProcessing(ctx, "Reset from stuck processing", "", nil, nil)
}

// UpdateHeartbeat updates the last heartbeat timestamp for an in-flight item.
func (s *Store) UpdateHeartbeat(ctx context.Context, id int64) error {
	timestamp := nowStamp()
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE queue_items SET last_heartbeat = ?, updated_at = ? WHERE id = ?`,
		timestamp,
		timestamp,
		id,
	)
	if err != nil {
		return fmt.Errorf("update heartbeat: %w", err)
	}
	return nil
}

// ReclaimStaleProcessing rolls items with expired heartbeats back to their
// checkpoint statuses. When statuses are provided only those processing
// states are examined.
func (s *Store) ReclaimStaleProcessing(ctx context.Context, cutoff time.Time, statuses ...Status) (int64, error) {
	only := make(map[Status]struct{}, len(statuses))
	for _, status := range statuses {
		only[status] = struct{}{}
	}
	extraWhere := ` AND last_heartbeat IS NOT NULL AND last_heartbeat < ?`
	extraArgs := []any{cutoff.UTC().Format(time.RFC3339Nano)}
	return s.rollbackProcessing(ctx, "Reclaimed from stale processing", extraWhere, extraArgs, only)
}

// rollbackProcessing walks the processing->checkpoint transitions, moving
// matching rows back and clearing their progress and heartbeat. When only
// is non-empty, transitions whose source state is absent are skipped.
func (s *Store) rollbackProcessing(ctx context.Context, note, extraWhere string, extraArgs []any, only map[Status]struct{}) (int64, error) {
	var total int64
	timestamp := nowStamp()
	for _, transition := range processingRollbackTransitions() {
		if len(only) > 0 {
			if _, ok := only[transition.from]; !ok {
				continue
			}
		}
		args := append([]any{transition.to, note, timestamp, transition.from}, extraArgs...)
		res, err := s.db.ExecContext(
			ctx,
			`UPDATE queue_items
             SET status = ?, progress_stage = ?,
                 progress_percent = 0, progress_message = NULL, last_heartbeat = NULL, updated_at = ?
             WHERE status = ?`+extraWhere,
			args...,
		)
		if err != nil {
			return total, fmt.Errorf("roll back processing items (%s): %w", transition.from, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("rows affected: %w", err)
		}
		total += affected
	}
	return total, nil
}

// RetryFailed moves failed items back to pending for reprocessing. With no
// ids every failed item is retried.
func (s *Store) RetryFailed(ctx context.Context, ids ...int64) (int64, error) {
	set := `SET status = ?, progress_stage = 'Retry requested', progress_percent = 0,
            progress_message = NULL, error_message = NULL, updated_at = ?`
	args := []any{StatusPending, nowStamp()}

	var query string
	if len(ids) == 0 {
		query = `UPDATE queue_items ` + set + ` WHERE status = ?`
		args = append(args, StatusFailed)
	} else {
		query = `UPDATE queue_items ` + set + ` WHERE id IN (` + placeholders(len(ids)) + `) AND status = ?`
		for _, id := range ids {
			args = append(args, id)
		}
		args = append(args, StatusFailed)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("retry failed items: %w", err)
	}
	return res.RowsAffected()
}

// Stats returns a count of items grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM queue_items GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("queue stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// Health aggregates queue state for diagnostic output.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return HealthSummary{}, err
	}
	health := HealthSummary{}
	for status, count := range stats {
		health.Total += count
		switch status {
		case StatusPending:
			health.Pending += count
		case StatusFailed:
			health.Failed += count
		case StatusCompleted:
			health.Completed += count
		default:
			if _, ok := processingStatuses[status]; ok {
				health.Processing += count
			}
		}
	}
	return health, nil
}

// CheckHealth returns diagnostic information about the queue database.
func (s *Store) CheckHealth(ctx context.Context) (DatabaseHealth, error) {
	health := DatabaseHealth{
		DBPath:        s.path,
		SchemaVersion: "current",
	}

	if s.path == "" {
		return health, errors.New("queue database path is unknown")
	}

	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			health.DatabaseExists = false
			return health, nil
		}
		return health, fmt.Errorf("stat queue database: %w", err)
	}
	if info.IsDir() {
		return health, fmt.Errorf("queue database path %q is a directory", s.path)
	}
	health.DatabaseExists = true

	if s.db == nil {
		return health, errors.New("queue database connection unavailable")
	}

	connCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(connCtx); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("ping queue database: %w", err)
	}
	health.DatabaseReadable = true

	var tableName string
	row := s.db.QueryRowContext(connCtx, "SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'queue_items'")
	switch err := row.Scan(&tableName); {
	case err == nil:
		health.TableExists = true
	case errors.Is(err, sql.ErrNoRows):
		health.TableExists = false
	default:
		health.Error = err.Error()
		return health, fmt.Errorf("query table info: %w", err)
	}

	if health.TableExists {
		columns, err := s.tableColumns(connCtx, "queue_items")
		if err != nil {
			health.Error = err.Error()
			return health, err
		}
		health.ColumnsPresent = append(health.ColumnsPresent, columns...)
		health.MissingColumns = missingColumns(columns)

		row = s.db.QueryRowContext(connCtx, "SELECT COUNT(*) FROM queue_items")
		if err := row.Scan(&health.TotalItems); err != nil {
			health.Error = err.Error()
			return health, fmt.Errorf("count queue items: %w", err)
		}
	}

	row = s.db.QueryRowContext(connCtx, "PRAGMA integrity_check")
	var integrityResult string
	if err := row.Scan(&integrityResult); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("integrity check: %w", err)
	}
	health.IntegrityCheck = strings.EqualFold(integrityResult, "ok")

	return health, nil
}

func (s *Store) tableColumns(ctx context.Context, table string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "PRAGMA table_info("+table+")")
	if err != nil {
		return nil, fmt.Errorf("table info: %w", err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var (
			cid     int
			name    string
			typeStr string
			notNull int
			dflt    any
			pk      int
		)
		if err := rows.Scan(&cid, &name, &typeStr, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scan table info: %w", err)
		}
		columns = append(columns, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate table info: %w", err)
	}
	return columns, nil
}

func missingColumns(present []string) []string {
	have := make(map[string]struct{}, len(present))
	for _, col := range present {
		have[col] = struct{}{}
	}
	var missing []string
	for _, col := range strings.Split(itemColumns, ", ") {
		if _, ok := have[col]; !ok {
			missing = append(missing, col)
		}
	}
	return missing
}

// Remove deletes an item by identifier.
func (s *Store) Remove(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM queue_items WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// ClearCompleted removes only completed items from the queue.
func (s *Store) ClearCompleted(ctx context.Context) (int64, error) {
	return s.deleteWhere(ctx, `WHERE status = ?`, StatusCompleted)
}

// Clear removes all items from the queue.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	return s.deleteWhere(ctx, "")
}

// ClearFailed removes only failed items from the queue.
func (s *Store) ClearFailed(ctx context.Context) (int64, error) {
	return s.deleteWhere(ctx, `WHERE status = ?`, StatusFailed)
}

func (s *Store) deleteWhere(ctx context.Context, where string, args ...any) (int64, error) {
	query := `DELETE FROM queue_items`
	if where != "" {
		query += " " + where
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete queue items: %w", err)
	}
	return res.RowsAffected()
}

const itemColumns = "id, topic, angle, trigger_kind, status, script_text, scenes_json, staging_dir, video_file, metadata_json, watch_url, error_message, created_at, updated_at, progress_stage, progress_percent, progress_message, last_heartbeat"

// queryItem runs a single-row item query, returning nil when no row matches.
func (s *Store) queryItem(ctx context.Context, query string, args ...any) (*Item, error) {
	item, err := scanItem(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return item, err
}

// queryItems runs a multi-row item query and scans every result.
func (s *Store) queryItems(ctx context.Context, query string, args ...any) ([]*Item, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// itemRow holds the raw column values for one queue row before null
// handling and time parsing.
type itemRow struct {
	id              int64
	topic           sql.NullString
	angle           sql.NullString
	trigger         sql.NullString
	status          string
	scriptText      sql.NullString
	scenesJSON      sql.NullString
	stagingDir      sql.NullString
	videoFile       sql.NullString
	metadata        sql.NullString
	watchURL        sql.NullString
	errorMessage    sql.NullString
	created         sql.NullString
	updated         sql.NullString
	progressStage   sql.NullString
	progressPercent sql.NullFloat64
	progressMessage sql.NullString
	lastHeartbeat   sql.NullString
}

func scanItem(scanner interface{ Scan(dest ...any) error }) (*Item, error) {
	var r itemRow
	if err := scanner.Scan(
		&r.id, &r.topic, &r.angle, &r.trigger, &r.status,
		&r.scriptText, &r.scenesJSON, &r.stagingDir, &r.videoFile,
		&r.metadata, &r.watchURL, &r.errorMessage,
		&r.created, &r.updated,
		&r.progressStage, &r.progressPercent, &r.progressMessage, &r.lastHeartbeat,
	); err != nil {
		return nil, err
	}

	item := &Item{
		ID:              r.id,
		Topic:           r.topic.String,
		Angle:           r.angle.String,
		Trigger:         r.trigger.String,
		Status:          Status(r.status),
		ScriptText:      r.scriptText.String,
		ScenesJSON:      r.scenesJSON.String,
		StagingDir:      r.stagingDir.String,
		VideoFile:       r.videoFile.String,
		MetadataJSON:    r.metadata.String,
		WatchURL:        r.watchURL.String,
		ErrorMessage:    r.errorMessage.String,
		ProgressStage:   r.progressStage.String,
		ProgressPercent: r.progressPercent.Float64,
		ProgressMessage: r.progressMessage.String,
	}

	if created, err := parseTimeString(r.created.String); err == nil {
		item.CreatedAt = created
	}
	if updated, err := parseTimeString(r.updated.String); err == nil {
		item.UpdatedAt = updated
	}
	if r.lastHeartbeat.Valid {
		if heartbeat, err := parseTimeString(r.lastHeartbeat.String); err == nil {
			item.LastHeartbeat = &heartbeat
		}
	}
	return item, nil
}

func nowStamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func placeholders(count int) string {
	if count <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", count), ",")
}

func statusArgs(statuses []Status) []any {
	args := make([]any, len(statuses))
	for i, status := range statuses {
		args[i] = status
	}
	return args
}
