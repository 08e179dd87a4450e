package backlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/runbookqa/internal/db"
)

// ErrGapNotFound is returned when no gap has the given id.
var ErrGapNotFound = errors.New("knowledge gap not found")

const gapColumns = `id, question, times_asked, status, answer, answered_by, answered_at, last_asked_at, created_at, updated_at`

// Store manages persistence of knowledge gaps.
type Store struct {
	db *db.DB
}

// NewStore creates a new backlog store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanGap(row scanner) (*Gap, error) {
	var g Gap
	var answeredAt sql.NullTime
	if err := row.Scan(&g.ID, &g.Question, &g.TimesAsked, &g.Status, &g.Answer, &g.AnsweredBy,
		&answeredAt, &g.LastAskedAt, &g.CreatedAt, &g.UpdatedAt); err != nil {
		return nil, err
	}
	if answeredAt.Valid {
		g.AnsweredAt = &answeredAt.Time
	}
	return &g, nil
}

// Record notes that question went unanswered. A repeat of an existing gap
// bumps its counter and reopens it if it had been answered; retired gaps
// stay retired.
func (s *Store) Record(ctx context.Context, question string) (*Gap, error) {
	question = strings.TrimSpace(question)
	key := questionKey(question)
	if key == "" {
		return nil, fmt.Errorf("recording gap: empty question")
	}
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO knowledge_gaps (id, question, question_key, last_asked_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(question_key) DO UPDATE SET
		     times_asked = times_asked + 1,
		     last_asked_at = excluded.last_asked_at,
		     updated_at = excluded.updated_at,
		     status = CASE WHEN status = 'answered' THEN 'open' ELSE status END`,
		uuid.New().String(), question, key, now, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("recording gap: %w", err)
	}

	g, err := scanGap(s.db.QueryRowContext(ctx,
		`SELECT `+gapColumns+` FROM knowledge_gaps WHERE question_key = ?`, key))
	if err != nil {
		return nil, fmt.Errorf("reading recorded gap: %w", err)
	}
	return g, nil
}

// GetByID retrieves a gap by its ID.
func (s *Store) GetByID(ctx context.Context, id string) (*Gap, error) {
	g, err := scanGap(s.db.QueryRowContext(ctx,
		`SELECT `+gapColumns+` FROM knowledge_gaps WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGapNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting gap: %w", err)
	}
	return g, nil
}

// List returns gaps matching the filter, most asked first. The result is
// never nil.
func (s *Store) List(ctx context.Context, filter ListFilter) ([]Gap, error) {
	query := `SELECT ` + gapColumns + ` FROM knowledge_gaps WHERE 1=1`
	args := []any{}

	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}

	query += " ORDER BY times_asked DESC, last_asked_at DESC"

	if filter.Limit > 0 || filter.Offset > 0 {
		limit := filter.Limit
		if limit <= 0 {
			limit = -1
		}
		query += " LIMIT ? OFFSET ?"
		args = append(args, limit, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing gaps: %w", err)
	}
	defer rows.Close()

	gaps := []Gap{}
	for rows.Next() {
		g, err := scanGap(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning gap: %w", err)
		}
		gaps = append(gaps, *g)
	}
	return gaps, rows.Err()
}

// Answer closes a gap with a human-provided answer.
func (s *Store) Answer(ctx context.Context, id, answer, answeredBy string) error {
	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx,
		`UPDATE knowledge_gaps SET answer = ?, answered_by = ?, answered_at = ?, status = ?, updated_at = ?
		 WHERE id = ?`,
		answer, answeredBy, now, StatusAnswered, now, id,
	)
	if err != nil {
		return fmt.Errorf("answering gap: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrGapNotFound
	}
	return nil
}

// UpdateStatus changes the status of a gap.
func (s *Store) UpdateStatus(ctx context.Context, id string, status Status) error {
	if !status.Valid() {
		return fmt.Errorf("invalid status %q", status)
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE knowledge_gaps SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("updating status: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrGapNotFound
	}
	return nil
}

// OpenCount returns the number of open gaps.
func (s *Store) OpenCount(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM knowledge_gaps WHERE status = ?`, StatusOpen,
	).Scan(&count)
	return count, err
}
