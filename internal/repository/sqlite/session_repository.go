package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"votebox/internal/domain"
	"votebox/internal/repository"
)

const createSessionsTable = `
CREATE TABLE IF NOT EXISTS sessions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	topic_id INTEGER NOT NULL,
	start_time DATETIME NOT NULL,
	end_time DATETIME NOT NULL,
	FOREIGN KEY(topic_id) REFERENCES topics(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_sessions_topic_id ON sessions(topic_id);
`

type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) repository.SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createSessionsTable); err != nil {
		return fmt.Errorf("create sessions table: %w", err)
	}
	return nil
}

func (r *SessionRepository) Create(ctx context.Context, session *domain.VotingSession) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
INSERT INTO sessions (topic_id, start_time, end_time)
VALUES (?, ?, ?)`,
		session.TopicID,
		session.StartTime,
		session.EndTime,
	)
	if err != nil {
		return 0, fmt.Errorf("insert session: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("session last insert id: %w", err)
	}
	session.ID = id
	return id, nil
}

func (r *SessionRepository) ListByTopic(ctx context.Context, topicID int64) ([]domain.VotingSession, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, topic_id, start_time, end_time
FROM sessions
WHERE topic_id = ?
ORDER BY end_time`,
		topicID,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.VotingSession
	for rows.Next() {
		var s domain.VotingSession
		if err := rows.Scan(&s.ID, &s.TopicID, &s.StartTime, &s.EndTime); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}
