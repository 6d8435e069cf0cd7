package server

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/oncomatch/trialmatch/internal/extract"
)

// History is a SQLite-backed audit log of matching attempts. It exists for
// after-the-fact review; the live "latest result" stays in ResultStore.
type History struct {
	db *sqlx.DB
}

const historySchema = `
CREATE TABLE IF NOT EXISTS attempts (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at  TEXT NOT NULL,
	outcome     TEXT NOT NULL,
	phase       TEXT NOT NULL DEFAULT '',
	t_staging   TEXT NOT NULL DEFAULT '',
	n_staging   TEXT NOT NULL DEFAULT '',
	er_status   TEXT NOT NULL DEFAULT '',
	her2        TEXT NOT NULL DEFAULT '',
	metastasis  TEXT NOT NULL DEFAULT '',
	match_count INTEGER NOT NULL DEFAULT 0,
	failure     TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_attempts_created_at ON attempts(created_at);
`

// Attempt is one audit row.
type Attempt struct {
	ID         int64  `db:"id" json:"id"`
	CreatedAt  string `db:"created_at" json:"created_at"`
	Outcome    string `db:"outcome" json:"outcome"`
	Phase      string `db:"phase" json:"phase"`
	TStaging   string `db:"t_staging" json:"t_staging"`
	NStaging   string `db:"n_staging" json:"n_staging"`
	ERStatus   string `db:"er_status" json:"er_status"`
	HER2       string `db:"her2" json:"her2"`
	Metastasis string `db:"metastasis" json:"metastasis"`
	MatchCount int    `db:"match_count" json:"match_count"`
	Failure    string `db:"failure" json:"failure"`
}

func OpenHistory(path string) (*History, error) {
	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open attempt history: %w", err)
	}
	if _, err := db.Exec(historySchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply attempt history schema: %w", err)
	}
	return &History{db: db}, nil
}

func (h *History) Close() error { return h.db.Close() }

func (h *History) RecordSuccess(res extract.Result) error {
	_, err := h.db.Exec(
		`INSERT INTO attempts (created_at, outcome, phase, t_staging, n_staging, er_status, her2, metastasis, match_count)
		 VALUES (?, 'success', ?, ?, ?, ?, ?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339Nano),
		string(res.Extraction.Phase),
		res.Extraction.TStaging,
		res.Extraction.NStaging,
		res.Extraction.ERStatus,
		res.Extraction.HER2,
		res.Extraction.Metastasis,
		len(res.Trials),
	)
	if err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}
	return nil
}

func (h *History) RecordFailure(condition string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	_, err := h.db.Exec(
		`INSERT INTO attempts (created_at, outcome, failure) VALUES (?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339Nano),
		condition,
		msg,
	)
	if err != nil {
		return fmt.Errorf("record failed attempt: %w", err)
	}
	return nil
}

func (h *History) Recent(limit int) ([]Attempt, error) {
	if limit <= 0 {
		limit = 20
	}
	var attempts []Attempt
	if err := h.db.Select(&attempts, `SELECT * FROM attempts ORDER BY id DESC LIMIT ?`, limit); err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	return attempts, nil
}
