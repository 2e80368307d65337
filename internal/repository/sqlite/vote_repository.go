package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"votebox/internal/domain"
	"votebox/internal/repository"
)

const createVotesTable = `
CREATE TABLE IF NOT EXISTS votes (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL,
	topic_id INTEGER NOT NULL,
	choice TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE,
	FOREIGN KEY(topic_id) REFERENCES topics(id) ON DELETE CASCADE,
	UNIQUE(user_id, topic_id)
);
CREATE INDEX IF NOT EXISTS idx_votes_topic_id ON votes(topic_id);
`

type VoteRepository struct {
	db *sql.DB
}

func NewVoteRepository(db *sql.DB) repository.VoteRepository {
	return &VoteRepository{db: db}
}

func (r *VoteRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createVotesTable); err != nil {
		return fmt.Errorf("create votes table: %w", err)
	}
	return nil
}

func (r *VoteRepository) Create(ctx context.Context, vote *domain.Vote) (int64, error) {
	if vote.CreatedAt.IsZero() {
		vote.CreatedAt = time.Now().UTC()
	}

	res, err := r.db.ExecContext(ctx, `
INSERT INTO votes (user_id, topic_id, choice, created_at)
VALUES (?, ?, ?, ?)`,
		vote.UserID,
		vote.TopicID,
		string(vote.Choice),
		vote.CreatedAt,
	)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			return 0, fmt.Errorf("insert vote: %w", repository.ErrVoteAlreadyExists)
		}
		return 0, fmt.Errorf("insert vote: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("vote last insert id: %w", err)
	}
	vote.ID = id
	return id, nil
}

func (r *VoteRepository) HasVoted(ctx context.Context, userID, topicID int64) (bool, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT EXISTS(SELECT 1 FROM votes WHERE user_id = ? AND topic_id = ?)`,
		userID,
		topicID,
	)
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, fmt.Errorf("check vote exists: %w", err)
	}
	return exists, nil
}

// TallyByTopic counts every vote ever cast for the topic, across all of its
// sessions. Votes are not session-scoped in storage.
func (r *VoteRepository) TallyByTopic(ctx context.Context, topicID int64) (domain.Tally, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT
	COUNT(*),
	COALESCE(SUM(CASE WHEN choice = ? THEN 1 ELSE 0 END), 0),
	COALESCE(SUM(CASE WHEN choice = ? THEN 1 ELSE 0 END), 0)
FROM votes
WHERE topic_id = ?`,
		string(domain.ChoiceYes),
		string(domain.ChoiceNo),
		topicID,
	)

	var tally domain.Tally
	if err := row.Scan(&tally.Total, &tally.Yes, &tally.No); err != nil {
		return domain.Tally{}, fmt.Errorf("tally votes: %w", err)
	}
	return tally, nil
}
