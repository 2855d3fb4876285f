package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

/* =================================================================================
						ANALYSIS SESSION HISTORY
	Every completed analysis is recorded so users can revisit past scans.
	History is best-effort metadata: a write failure degrades the feature,
	never the analysis itself.
=================================================================================*/

// AnalysisSession is one stored analysis result summary.
type AnalysisSession struct {
	SessionID   string    `json:"session_id"`
	UserID      string    `json:"user_id"`
	Query       string    `json:"query"`
	ProductName string    `json:"product_name"`
	HealthScore float64   `json:"health_score"`
	Confidence  float64   `json:"confidence_score"`
	Summary     string    `json:"summary"`
	CreatedAt   time.Time `json:"created_at"`
}

// SessionStore persists analysis sessions to Postgres.
type SessionStore struct {
	pool *pgxpool.Pool
}

// NewSessionStore wraps the shared connection pool.
func NewSessionStore(pool *pgxpool.Pool) *SessionStore {
	return &SessionStore{pool: pool}
}

// Save records one analysis session and returns its generated id.
func (s *SessionStore) Save(ctx context.Context, userID, query, productName string, healthScore, confidence float64, summary string) (string, error) {
	sessionID := uuid.New().String()

	const q = `
		INSERT INTO analysis_sessions
			(session_id, user_id, query, product_name, health_score, confidence_score, summary, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())`

	if _, err := s.pool.Exec(ctx, q, sessionID, userID, query, productName, healthScore, confidence, summary); err != nil {
		return "", fmt.Errorf("failed to store analysis session: %w", err)
	}
	return sessionID, nil
}

// List returns a page of a user's sessions, newest first.
func (s *SessionStore) List(ctx context.Context, userID string, limit, offset int) ([]AnalysisSession, error) {
	const q = `
		SELECT session_id, user_id, query, product_name, health_score, confidence_score, summary, created_at
		FROM analysis_sessions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := s.pool.Query(ctx, q, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list analysis sessions: %w", err)
	}
	defer rows.Close()

	sessions := []AnalysisSession{}
	for rows.Next() {
		var sess AnalysisSession
		if err := rows.Scan(
			&sess.SessionID, &sess.UserID, &sess.Query, &sess.ProductName,
			&sess.HealthScore, &sess.Confidence, &sess.Summary, &sess.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan analysis session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// Count returns the total number of sessions stored for a user.
func (s *SessionStore) Count(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM analysis_sessions WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count analysis sessions: %w", err)
	}
	return count, nil
}
