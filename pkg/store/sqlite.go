package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	gerrors "github.com/matzehuels/genelim/pkg/errors"
	"github.com/matzehuels/genelim/pkg/locate"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS diagnosis (
	run_id     TEXT NOT NULL,
	dataset    TEXT NOT NULL,
	locus      TEXT NOT NULL,
	typed      INTEGER NOT NULL,
	checks     INTEGER NOT NULL,
	version    TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL,
	PRIMARY KEY (run_id, locus)
);
CREATE INDEX IF NOT EXISTS diagnosis_locus ON diagnosis (dataset, locus, created_at);
CREATE TABLE IF NOT EXISTS suspect (
	run_id   TEXT NOT NULL,
	locus    TEXT NOT NULL,
	position INTEGER NOT NULL,
	id       TEXT NOT NULL,
	sire     TEXT NOT NULL,
	dam      TEXT NOT NULL,
	PRIMARY KEY (run_id, locus, position)
);
`

// SQLiteStore keeps every diagnosis in an SQLite database. The driver is
// the cgo sqlite3 driver when cgo is available and the pure Go one
// otherwise.
type SQLiteStore struct {
	db *sqlx.DB
}

// OpenSQLite opens or creates the database at path and applies the schema.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	// URI filenames have to begin with "file:".
	if !strings.HasPrefix(path, "file:") {
		path = "file:" + path
	}
	db, err := sqlx.ConnectContext(ctx, whichSQLiteDriver, path)
	if err != nil {
		return nil, gerrors.Wrap(gerrors.ErrCodeStorage, err, "open sqlite")
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, gerrors.Wrap(gerrors.ErrCodeStorage, err, "apply schema")
	}
	return &SQLiteStore{db: db}, nil
}

type suspectRow struct {
	Position int    `db:"position"`
	ID       string `db:"id"`
	Sire     string `db:"sire"`
	Dam      string `db:"dam"`
}

func (s *SQLiteStore) Load(ctx context.Context, dataset, locus string) (*Diagnosis, error) {
	var d Diagnosis
	err := s.db.GetContext(ctx, &d, `
		SELECT run_id, dataset, locus, typed, checks, version, created_at
		FROM diagnosis WHERE dataset = ? AND locus = ?
		ORDER BY created_at DESC LIMIT 1`, dataset, locus)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, gerrors.Wrap(gerrors.ErrCodeStorage, err, "load diagnosis")
	}

	var rows []suspectRow
	err = s.db.SelectContext(ctx, &rows, `
		SELECT position, id, sire, dam FROM suspect
		WHERE run_id = ? AND locus = ? ORDER BY position`, d.RunID, locus)
	if err != nil {
		return nil, gerrors.Wrap(gerrors.ErrCodeStorage, err, "load suspects")
	}
	d.Suspects = make([]locate.Suspect, len(rows))
	for k, r := range rows {
		d.Suspects[k] = locate.Suspect{ID: r.ID, Sire: r.Sire, Dam: r.Dam}
	}
	return &d, nil
}

func (s *SQLiteStore) Save(ctx context.Context, d *Diagnosis) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return gerrors.Wrap(gerrors.ErrCodeStorage, err, "begin")
	}
	defer tx.Rollback()

	_, err = tx.NamedExecContext(ctx, `
		INSERT OR REPLACE INTO diagnosis (run_id, dataset, locus, typed, checks, version, created_at)
		VALUES (:run_id, :dataset, :locus, :typed, :checks, :version, :created_at)`, d)
	if err != nil {
		return gerrors.Wrap(gerrors.ErrCodeStorage, err, "save diagnosis")
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM suspect WHERE run_id = ? AND locus = ?`, d.RunID, d.Locus); err != nil {
		return gerrors.Wrap(gerrors.ErrCodeStorage, err, "clear suspects")
	}
	for k, sus := range d.Suspects {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO suspect (run_id, locus, position, id, sire, dam) VALUES (?, ?, ?, ?, ?, ?)`,
			d.RunID, d.Locus, k, sus.ID, sus.Sire, sus.Dam)
		if err != nil {
			return gerrors.Wrap(gerrors.ErrCodeStorage, err, "save suspect %d", k)
		}
	}
	if err := tx.Commit(); err != nil {
		return gerrors.Wrap(gerrors.ErrCodeStorage, err, "commit")
	}
	return nil
}

// History returns every stored diagnosis of a dataset, newest first,
// without suspects.
func (s *SQLiteStore) History(ctx context.Context, dataset string) ([]Diagnosis, error) {
	var out []Diagnosis
	err := s.db.SelectContext(ctx, &out, `
		SELECT run_id, dataset, locus, typed, checks, version, created_at
		FROM diagnosis WHERE dataset = ? ORDER BY created_at DESC, locus`, dataset)
	if err != nil {
		return nil, gerrors.Wrap(gerrors.ErrCodeStorage, err, "history")
	}
	return out, nil
}

func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close sqlite: %w", err)
	}
	return nil
}

var (
	_ Store     = (*SQLiteStore)(nil)
	_ Historian = (*SQLiteStore)(nil)
)
