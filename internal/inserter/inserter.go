package inserter

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/exportdeck/seedkit/internal/schema"
)

// InsertionFailure reports the first failing row of an atomic seeding
// run. By the time it propagates the transaction has been rolled back.
type InsertionFailure struct {
	Table string
	Row   int // 1-based, matching the loader's row numbering
	Err   error
}

func (e *InsertionFailure) Error() string {
	return fmt.Sprintf("insertion failed at table %s row %d: %v", e.Table, e.Row, e.Err)
}

func (e *InsertionFailure) Unwrap() error { return e.Err }

// Inserter executes one insertion plan as a single transaction.
type Inserter struct {
	db          *sql.DB
	placeholder sq.PlaceholderFormat
}

// New returns an Inserter for the given provider. The provider only
// selects the placeholder dialect; the connection itself is the
// caller's.
func New(db *sql.DB, provider string) *Inserter {
	placeholder := sq.PlaceholderFormat(sq.Question)
	switch provider {
	case "postgresql", "postgres":
		placeholder = sq.Dollar
	}
	return &Inserter{db: db, placeholder: placeholder}
}

// Insert seeds every table in plan order inside one transaction.
// Exactly one commit or one rollback happens per call: the first
// failure aborts everything and nothing stays behind to resume from.
// Returns the number of rows committed.
func (ins *Inserter) Insert(ctx context.Context, m *schema.Manifest, plan []string, rows map[string][]schema.RowRecord) (int, error) {
	tx, err := ins.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}

	total := 0
	for _, tableName := range plan {
		spec := m.Table(tableName)
		if spec == nil {
			tx.Rollback()
			return 0, fmt.Errorf("plan names table %s not present in manifest", tableName)
		}

		inserted, err := ins.insertTable(ctx, tx, spec, rows[tableName])
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				return 0, fmt.Errorf("rollback failed: %v (original: %w)", rbErr, err)
			}
			return 0, err
		}
		total += inserted
	}

	// A failed commit already ends the transaction; no rollback follows.
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return total, nil
}

// insertTable inserts the table's rows in input order through one
// prepared statement. Order matters: later rows may reference earlier
// rows of the same file by primary key.
func (ins *Inserter) insertTable(ctx context.Context, tx *sql.Tx, spec *schema.TableSpec, rows []schema.RowRecord) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	columns := make([]string, len(spec.Columns))
	placeholders := make([]interface{}, len(spec.Columns))
	for i, col := range spec.Columns {
		columns[i] = col.Name
		placeholders[i] = nil
	}

	query, _, err := sq.Insert(spec.Name).
		Columns(columns...).
		Values(placeholders...).
		PlaceholderFormat(ins.placeholder).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build insert for table %s: %w", spec.Name, err)
	}

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, &InsertionFailure{Table: spec.Name, Row: 1, Err: err}
	}
	defer stmt.Close()

	for i, row := range rows {
		args := make([]interface{}, len(spec.Columns))
		for j, col := range spec.Columns {
			args[j] = row[col.Name]
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, &InsertionFailure{Table: spec.Name, Row: i + 1, Err: err}
		}
	}
	return len(rows), nil
}
