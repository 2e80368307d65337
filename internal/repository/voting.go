package repository

import (
	"context"

	"votebox/internal/domain"
)

// TopicRepository exposes persistence operations for Topic aggregates.
type TopicRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, topic *domain.Topic) (int64, error)
	Get(ctx context.Context, id int64) (*domain.Topic, error)
	List(ctx context.Context) ([]domain.Topic, error)
	Delete(ctx context.Context, id int64) error
}

// SessionRepository manages the voting sessions attached to topics.
type SessionRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, session *domain.VotingSession) (int64, error)
	ListByTopic(ctx context.Context, topicID int64) ([]domain.VotingSession, error)
}

// VoteRepository records cast ballots. The (user, topic) pair is unique at
// the storage level; Create surfaces a violation as ErrVoteAlreadyExists.
type VoteRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, vote *domain.Vote) (int64, error)
	HasVoted(ctx context.Context, userID, topicID int64) (bool, error)
	TallyByTopic(ctx context.Context, topicID int64) (domain.Tally, error)
}
