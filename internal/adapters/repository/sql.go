package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/okian/jury/internal/domain/model"
)

// SQLStore keeps drafts in SQLite or PostgreSQL through database/sql.
// Scores are stored as a JSON object.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore wraps an open database whose schema already exists.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Save(ctx context.Context, d model.Draft) error {
	if err := validateKey(d.DraftKey); err != nil {
		return err
	}
	scores := d.Scores
	if scores == nil {
		scores = model.Scores{}
	}
	buf, err := json.Marshal(scores)
	if err != nil {
		return fmt.Errorf("encode scores: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO drafts (event_id, judge_id, application_id, scores_json, comment, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (event_id, judge_id, application_id) DO UPDATE SET
			scores_json=EXCLUDED.scores_json, comment=EXCLUDED.comment, updated_at=EXCLUDED.updated_at`,
		d.EventID, d.JudgeID, d.ApplicationID, string(buf), d.Comment, d.UpdatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

func (s *SQLStore) Get(ctx context.Context, key model.DraftKey) (model.Draft, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT event_id, judge_id, application_id, scores_json, comment, updated_at
		FROM drafts WHERE event_id=$1 AND judge_id=$2 AND application_id=$3`,
		key.EventID, key.JudgeID, key.ApplicationID)
	d, err := scanDraft(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Draft{}, ErrNotFound
	}
	return d, err
}

func (s *SQLStore) Delete(ctx context.Context, key model.DraftKey) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM drafts WHERE event_id=$1 AND judge_id=$2 AND application_id=$3`,
		key.EventID, key.JudgeID, key.ApplicationID)
	if err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	return nil
}

func (s *SQLStore) List(ctx context.Context, eventID, judgeID string) ([]model.Draft, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT event_id, judge_id, application_id, scores_json, comment, updated_at
		FROM drafts WHERE event_id=$1 AND judge_id=$2 ORDER BY application_id`,
		eventID, judgeID)
	if err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]model.Draft, 0)
	for rows.Next() {
		d, err := scanDraft(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *SQLStore) Count(ctx context.Context) int {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM drafts`).Scan(&n); err != nil {
		return 0
	}
	return n
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDraft(sc scanner) (model.Draft, error) {
	var (
		d       model.Draft
		raw     string
		updated int64
	)
	if err := sc.Scan(&d.EventID, &d.JudgeID, &d.ApplicationID, &raw, &d.Comment, &updated); err != nil {
		return model.Draft{}, err
	}
	d.Scores = model.Scores{}
	if err := json.Unmarshal([]byte(raw), &d.Scores); err != nil {
		return model.Draft{}, fmt.Errorf("decode scores: %w", err)
	}
	d.UpdatedAt = time.UnixMilli(updated).UTC()
	return d, nil
}
