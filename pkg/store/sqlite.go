package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/logtools/ingressparse/pkg/models"
	"github.com/logtools/ingressparse/pkg/nginx"
)

// SQLiteStore is the file-backed default store.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at dbPath.
// WAL mode and a busy timeout keep concurrent import/serve processes
// from tripping over SQLITE_BUSY.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=10000&_synchronous=NORMAL&_fk=1", dbPath)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single writer to avoid lock contention; SQLite serializes writes anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(30 * time.Minute)

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		entry_count INTEGER NOT NULL DEFAULT 0,
		bad_lines INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		remote_addr TEXT NOT NULL,
		time_local TEXT NOT NULL,
		time_utc DATETIME,
		method TEXT,
		uri TEXT,
		path TEXT,
		query TEXT,
		proto TEXT,
		status INTEGER,
		body_bytes_sent INTEGER,
		http_referer TEXT,
		http_user_agent TEXT,
		request_length INTEGER,
		request_time REAL,
		upstream_name TEXT,
		upstream_alternative TEXT,
		upstream_addr TEXT,
		upstream_response_length INTEGER,
		upstream_response_time REAL,
		upstream_status TEXT,
		request_id TEXT,
		query_keys_count INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_entries_run ON entries(run_id);
	CREATE INDEX IF NOT EXISTS idx_entries_run_time ON entries(run_id, time_utc);
	CREATE INDEX IF NOT EXISTS idx_entries_run_status ON entries(run_id, status);
	`
	_, err := s.db.Exec(schema)
	return err
}

// CreateRun inserts a new import run.
func (s *SQLiteStore) CreateRun(run *models.ImportRun) error {
	_, err := s.db.Exec(`
		INSERT INTO runs (id, source, created_at, entry_count, bad_lines)
		VALUES (?, ?, ?, ?, ?)
	`, run.ID, run.Source, run.CreatedAt.UTC(), run.EntryCount, run.BadLines)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// GetRun fetches a run by ID.
func (s *SQLiteStore) GetRun(id string) (*models.ImportRun, error) {
	row := s.db.QueryRow(`
		SELECT id, source, created_at, entry_count, bad_lines
		FROM runs WHERE id = ?
	`, id)
	return scanRun(row)
}

// ListRuns returns all runs, newest first.
func (s *SQLiteStore) ListRuns() ([]*models.ImportRun, error) {
	rows, err := s.db.Query(`
		SELECT id, source, created_at, entry_count, bad_lines
		FROM runs ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.ImportRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// DeleteRun removes a run and cascades to its entries.
func (s *SQLiteStore) DeleteRun(id string) error {
	res, err := s.db.Exec(`DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRunNotFound
	}
	return nil
}

// InsertEntries writes a batch of entries for a run in one transaction.
func (s *SQLiteStore) InsertEntries(runID string, entries []*nginx.Entry) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO entries (
			run_id, remote_addr, time_local, time_utc, method, uri, path, query,
			proto, status, body_bytes_sent, http_referer, http_user_agent,
			request_length, request_time, upstream_name, upstream_alternative,
			upstream_addr, upstream_response_length, upstream_response_time,
			upstream_status, request_id, query_keys_count
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		_, err := stmt.Exec(
			runID, e.RemoteAddr, e.TimeLocal, e.Time.UTC(), e.Method, e.URI, e.Path,
			e.Query, e.Proto, nullInt(e.Status), nullInt64(e.BodyBytesSent),
			e.HTTPReferer, e.HTTPUserAgent, nullInt64(e.RequestLength),
			nullFloat(e.RequestTime), e.UpstreamName, e.UpstreamAlternative,
			e.UpstreamAddr, nullInt64(e.UpstreamResponseLength),
			nullFloat(e.UpstreamResponseTime), e.UpstreamStatusRaw, e.RequestID,
			e.QueryKeysCount,
		)
		if err != nil {
			return fmt.Errorf("failed to insert entry: %w", err)
		}
	}
	return tx.Commit()
}

// GetEntries returns entries for a run, filtered, ordered by time, paged.
func (s *SQLiteStore) GetEntries(runID string, q EntryQuery) ([]*nginx.Entry, error) {
	if _, err := s.GetRun(runID); err != nil {
		return nil, err
	}

	where, args := entryWhere(runID, q, sqlitePlaceholders)
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultQueryLimit
	}
	query := fmt.Sprintf(`
		SELECT remote_addr, time_local, time_utc, method, uri, path, query, proto,
		       status, body_bytes_sent, http_referer, http_user_agent,
		       request_length, request_time, upstream_name, upstream_alternative,
		       upstream_addr, upstream_response_length, upstream_response_time,
		       upstream_status, request_id, query_keys_count
		FROM entries WHERE %s
		ORDER BY time_utc ASC, id ASC
		LIMIT %d OFFSET %d
	`, where, limit, q.Offset)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// CountEntries returns the number of stored entries for a run.
func (s *SQLiteStore) CountEntries(runID string) (int, error) {
	if _, err := s.GetRun(runID); err != nil {
		return 0, err
	}
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM entries WHERE run_id = ?`, runID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return n, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// HealthCheck pings the database.
func (s *SQLiteStore) HealthCheck() error {
	return s.db.Ping()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row scanner) (*models.ImportRun, error) {
	run := &models.ImportRun{}
	err := row.Scan(&run.ID, &run.Source, &run.CreatedAt, &run.EntryCount, &run.BadLines)
	if err == sql.ErrNoRows {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	run.CreatedAt = run.CreatedAt.UTC()
	return run, nil
}

func scanEntries(rows *sql.Rows) ([]*nginx.Entry, error) {
	var entries []*nginx.Entry
	for rows.Next() {
		var (
			e        nginx.Entry
			timeUTC  sql.NullTime
			status   sql.NullInt64
			bytes    sql.NullInt64
			reqLen   sql.NullInt64
			reqTime  sql.NullFloat64
			upLen    sql.NullInt64
			upTime   sql.NullFloat64
			upStatus sql.NullString
		)
		err := rows.Scan(
			&e.RemoteAddr, &e.TimeLocal, &timeUTC, &e.Method, &e.URI, &e.Path,
			&e.Query, &e.Proto, &status, &bytes, &e.HTTPReferer, &e.HTTPUserAgent,
			&reqLen, &reqTime, &e.UpstreamName, &e.UpstreamAlternative,
			&e.UpstreamAddr, &upLen, &upTime, &upStatus, &e.RequestID,
			&e.QueryKeysCount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		if timeUTC.Valid {
			e.Time = timeUTC.Time.UTC()
		}
		if status.Valid {
			v := int(status.Int64)
			e.Status = &v
		}
		if bytes.Valid {
			v := bytes.Int64
			e.BodyBytesSent = &v
		}
		if reqLen.Valid {
			v := reqLen.Int64
			e.RequestLength = &v
		}
		if reqTime.Valid {
			v := reqTime.Float64
			e.RequestTime = &v
		}
		if upLen.Valid {
			v := upLen.Int64
			e.UpstreamResponseLength = &v
		}
		if upTime.Valid {
			v := upTime.Float64
			e.UpstreamResponseTime = &v
		}
		if upStatus.Valid {
			e.UpstreamStatusRaw = upStatus.String
			if v := parseDigits(upStatus.String); v != nil {
				e.UpstreamStatus = v
			}
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

func parseDigits(s string) *int {
	if s == "" {
		return nil
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return nil
		}
		n = n*10 + int(r-'0')
	}
	return &n
}

// entryWhere builds the WHERE clause shared by the SQLite and Postgres
// stores. placeholders rewrites "?" markers for the target dialect.
func entryWhere(runID string, q EntryQuery, placeholders func(string, int) string) (string, []interface{}) {
	var (
		clauses = []string{"run_id = ?"}
		args    = []interface{}{runID}
	)

	f := q.Filter
	if len(f.Statuses) > 0 {
		marks := strings.TrimSuffix(strings.Repeat("?,", len(f.Statuses)), ",")
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", marks))
		for _, v := range f.Statuses {
			args = append(args, v)
		}
	}
	if len(f.Methods) > 0 {
		marks := strings.TrimSuffix(strings.Repeat("?,", len(f.Methods)), ",")
		clauses = append(clauses, fmt.Sprintf("method IN (%s)", marks))
		for _, v := range f.Methods {
			args = append(args, v)
		}
	}
	if len(f.IPs) > 0 {
		marks := strings.TrimSuffix(strings.Repeat("?,", len(f.IPs)), ",")
		clauses = append(clauses, fmt.Sprintf("remote_addr IN (%s)", marks))
		for _, v := range f.IPs {
			args = append(args, v)
		}
	}
	if f.PathContains != "" {
		clauses = append(clauses, `path LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(f.PathContains)+"%")
	}
	if f.Since != nil {
		clauses = append(clauses, "time_utc >= ?")
		args = append(args, f.Since.UTC())
	}
	if f.Until != nil {
		clauses = append(clauses, "time_utc <= ?")
		args = append(args, f.Until.UTC())
	}

	return placeholders(strings.Join(clauses, " AND "), 1), args
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	return strings.ReplaceAll(s, "_", `\_`)
}

// sqlitePlaceholders keeps "?" markers as-is.
func sqlitePlaceholders(clause string, _ int) string { return clause }
