package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/fwdgo/fwd-nagaoka/internal/models"
)

type SQLiteDB struct {
	db *sql.DB
}

func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// A single connection keeps the foreign-key pragma effective and
	// serializes writers, which sqlite wants anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("error enabling foreign keys: %w", err)
	}

	s := &SQLiteDB{
		db: db,
	}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("error while migrating to database: %w", err)
	}

	return s, nil
}

func (s *SQLiteDB) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS raw_statements (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			raw_text TEXT NOT NULL,
			retrieved_at DATETIME NOT NULL,
			zone TEXT NOT NULL,
			notify_state TEXT NOT NULL,
			UNIQUE (raw_text, zone)
		);

		CREATE TABLE IF NOT EXISTS disaster_details (
			statement_id INTEGER PRIMARY KEY,
			category TEXT NOT NULL,
			category_detail TEXT NOT NULL,
			opened_at DATETIME NOT NULL,
			closed_at DATETIME,
			status TEXT NOT NULL,
			locality TEXT,
			address_primary TEXT NOT NULL,
			address_secondary TEXT,
			FOREIGN KEY (statement_id) REFERENCES raw_statements(id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_raw_statements_notify ON raw_statements(notify_state);
		CREATE INDEX IF NOT EXISTS idx_disaster_details_opened ON disaster_details(opened_at);
  	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteDB) AddStatement(ctx context.Context, st *models.RawStatement) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO raw_statements (raw_text, retrieved_at, zone, notify_state) VALUES (?, ?, ?, ?)`,
		st.Text, st.RetrievedAt, string(st.Zone), string(st.NotifyState),
	)
	if err != nil {
		return fmt.Errorf("error inserting statement: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("error reading inserted statement id: %w", err)
	}
	st.ID = id
	return nil
}

func (s *SQLiteDB) StatementExists(ctx context.Context, text string, zone models.Zone) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM raw_statements WHERE raw_text = ? AND zone = ?`,
		text, string(zone),
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("error checking statement existence: %w", err)
	}
	return count > 0, nil
}

// ListUnanalyzed returns statements with no parsed detail yet, oldest first.
func (s *SQLiteDB) ListUnanalyzed(ctx context.Context) ([]models.RawStatement, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.raw_text, s.retrieved_at, s.zone, s.notify_state
		FROM raw_statements s
		LEFT JOIN disaster_details d ON d.statement_id = s.id
		WHERE d.statement_id IS NULL
		ORDER BY s.id`)
	if err != nil {
		return nil, fmt.Errorf("error listing unanalyzed statements: %w", err)
	}
	defer rows.Close()

	return scanStatements(rows)
}

func (s *SQLiteDB) ListPendingNotify(ctx context.Context) ([]models.RawStatement, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, raw_text, retrieved_at, zone, notify_state
		FROM raw_statements
		WHERE notify_state = ?
		ORDER BY id`, string(models.NotifyPending))
	if err != nil {
		return nil, fmt.Errorf("error listing pending statements: %w", err)
	}
	defer rows.Close()

	return scanStatements(rows)
}

func (s *SQLiteDB) MarkSent(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE raw_statements SET notify_state = ? WHERE id = ?`,
		string(models.NotifySent), id,
	)
	if err != nil {
		return fmt.Errorf("error marking statement %d as sent: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("statement %d not found", id)
	}
	return nil
}

func (s *SQLiteDB) DeleteStatement(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM raw_statements WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("error deleting statement %d: %w", id, err)
	}
	return nil
}

func (s *SQLiteDB) CountStatements(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM raw_statements`).Scan(&count); err != nil {
		return 0, fmt.Errorf("error counting statements: %w", err)
	}
	return count, nil
}

func (s *SQLiteDB) AddDetail(ctx context.Context, d *models.DisasterDetail) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO disaster_details
			(statement_id, category, category_detail, opened_at, closed_at, status, locality, address_primary, address_secondary)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.StatementID, string(d.Category), d.CategoryDetail, d.OpenedAt,
		nullableTime(d.ClosedAt), string(d.Status),
		nullableString(d.Locality), d.AddressPrimary, nullableString(d.AddressSecondary),
	)
	if err != nil {
		return fmt.Errorf("error inserting detail for statement %d: %w", d.StatementID, err)
	}
	return nil
}

func (s *SQLiteDB) DetailByStatementID(ctx context.Context, statementID int64) (*models.DisasterDetail, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT statement_id, category, category_detail, opened_at, closed_at, status, locality, address_primary, address_secondary
		FROM disaster_details
		WHERE statement_id = ?`, statementID)

	d, err := scanDetail(row)
	if err != nil {
		return nil, fmt.Errorf("error loading detail for statement %d: %w", statementID, err)
	}
	return d, nil
}

func (s *SQLiteDB) ListDisasters(ctx context.Context, opts Filter) ([]DisasterRecord, error) {
	query := `
		SELECT s.id, s.raw_text, s.retrieved_at, s.zone, s.notify_state,
		       d.statement_id, d.category, d.category_detail, d.opened_at, d.closed_at,
		       d.status, d.locality, d.address_primary, d.address_secondary
		FROM raw_statements s
		JOIN disaster_details d ON d.statement_id = s.id`

	var conds []string
	var args []any
	if opts.Zone != nil {
		conds = append(conds, "s.zone = ?")
		args = append(args, string(*opts.Zone))
	}
	if opts.Category != nil {
		conds = append(conds, "d.category = ?")
		args = append(args, string(*opts.Category))
	}
	if opts.Status != nil {
		conds = append(conds, "d.status = ?")
		args = append(args, string(*opts.Status))
	}
	if opts.Since != nil {
		conds = append(conds, "d.opened_at >= ?")
		args = append(args, *opts.Since)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY d.opened_at DESC, s.id DESC"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
		if opts.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, opts.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing disasters: %w", err)
	}
	defer rows.Close()

	var records []DisasterRecord
	for rows.Next() {
		var (
			rec      DisasterRecord
			zone     string
			state    string
			category string
			status   string
			closedAt sql.NullTime
			locality sql.NullString
			addrSec  sql.NullString
		)
		if err := rows.Scan(
			&rec.Statement.ID, &rec.Statement.Text, &rec.Statement.RetrievedAt, &zone, &state,
			&rec.Detail.StatementID, &category, &rec.Detail.CategoryDetail, &rec.Detail.OpenedAt, &closedAt,
			&status, &locality, &rec.Detail.AddressPrimary, &addrSec,
		); err != nil {
			return nil, fmt.Errorf("error scanning disaster row: %w", err)
		}
		rec.Statement.Zone = models.Zone(zone)
		rec.Statement.NotifyState = models.NotifyState(state)
		rec.Detail.Category = models.Category(category)
		rec.Detail.Status = models.Status(status)
		rec.Detail.ClosedAt = timePtr(closedAt)
		rec.Detail.Locality = stringPtr(locality)
		rec.Detail.AddressSecondary = stringPtr(addrSec)
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

func scanStatements(rows *sql.Rows) ([]models.RawStatement, error) {
	var statements []models.RawStatement
	for rows.Next() {
		var (
			st    models.RawStatement
			zone  string
			state string
		)
		if err := rows.Scan(&st.ID, &st.Text, &st.RetrievedAt, &zone, &state); err != nil {
			return nil, fmt.Errorf("error scanning statement row: %w", err)
		}
		st.Zone = models.Zone(zone)
		st.NotifyState = models.NotifyState(state)
		statements = append(statements, st)
	}
	return statements, rows.Err()
}

func scanDetail(row *sql.Row) (*models.DisasterDetail, error) {
	var (
		d        models.DisasterDetail
		category string
		status   string
		closedAt sql.NullTime
		locality sql.NullString
		addrSec  sql.NullString
	)
	err := row.Scan(&d.StatementID, &category, &d.CategoryDetail, &d.OpenedAt, &closedAt,
		&status, &locality, &d.AddressPrimary, &addrSec)
	if err != nil {
		return nil, err
	}
	d.Category = models.Category(category)
	d.Status = models.Status(status)
	d.ClosedAt = timePtr(closedAt)
	d.Locality = stringPtr(locality)
	d.AddressSecondary = stringPtr(addrSec)
	return &d, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
