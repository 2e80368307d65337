package service

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"votebox/internal/archive"
	"votebox/internal/clock"
	"votebox/internal/domain"
	"votebox/internal/repository"
)

var (
	// ErrTopicNotFound indicates the referenced topic does not exist.
	ErrTopicNotFound = errors.New("topic not found")
	// ErrSessionAlreadyOpen is returned when a topic already has an open session.
	ErrSessionAlreadyOpen = errors.New("a session is already open for this topic")
	// ErrNoOpenSession covers both a missing topic and a topic whose sessions
	// are all expired or absent; voters cannot tell the cases apart.
	ErrNoOpenSession = errors.New("session not found or not open for this topic")
	// ErrAlreadyVoted is returned on a second ballot for the same (user, topic).
	ErrAlreadyVoted = errors.New("you have already voted on this topic")
	// ErrInvalidChoice rejects ballots outside {Yes, No}.
	ErrInvalidChoice = errors.New("invalid choice, use 'Yes' or 'No'")
	// ErrSessionStillOpen gates results until the latest session expires.
	ErrSessionStillOpen = errors.New("session is still open")
	// ErrNoSessions means results were requested for a topic never put to vote.
	ErrNoSessions = errors.New("session not found for this topic")
)

// DefaultSessionMinutes is used when the caller omits or mangles the duration.
const DefaultSessionMinutes = 1

// TopicSummary pairs a topic with its status derived at read time.
type TopicSummary struct {
	domain.Topic
	Status domain.TopicStatus
}

// VotingService owns the session lifecycle, ballot box, and tally rules.
type VotingService interface {
	CreateTopic(ctx context.Context, title, description string) (*TopicSummary, error)
	ListTopics(ctx context.Context) ([]TopicSummary, error)
	CreateSession(ctx context.Context, topicID int64, durationMinutes int) (*domain.VotingSession, error)
	CastVote(ctx context.Context, topicID, userID int64, choice string) (*domain.Vote, error)
	Results(ctx context.Context, topicID int64) (*domain.Tally, error)
}

type votingService struct {
	topics   repository.TopicRepository
	sessions repository.SessionRepository
	votes    repository.VoteRepository
	clock    clock.Clock
	archiver archive.Archiver
	logger   *logrus.Logger
}

// NewVotingService wires the voting rules over the given repositories. The
// archiver is optional; pass nil to disable tally snapshots.
func NewVotingService(
	topics repository.TopicRepository,
	sessions repository.SessionRepository,
	votes repository.VoteRepository,
	clk clock.Clock,
	archiver archive.Archiver,
	logger *logrus.Logger,
) VotingService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &votingService{
		topics:   topics,
		sessions: sessions,
		votes:    votes,
		clock:    clk,
		archiver: archiver,
		logger:   logger,
	}
}

func (s *votingService) CreateTopic(ctx context.Context, title, description string) (*TopicSummary, error) {
	if title == "" {
		return nil, FieldErrors{"title": {"title is required"}}
	}

	topic := &domain.Topic{
		Title:       title,
		Description: description,
		CreatedAt:   s.clock.Now(),
	}
	if _, err := s.topics.Create(ctx, topic); err != nil {
		return nil, err
	}

	// a fresh topic has no sessions yet
	return &TopicSummary{Topic: *topic, Status: domain.TopicStatusWaiting}, nil
}

func (s *votingService) ListTopics(ctx context.Context) ([]TopicSummary, error) {
	topics, err := s.topics.List(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	summaries := make([]TopicSummary, len(topics))
	for i := range topics {
		sessions, err := s.sessions.ListByTopic(ctx, topics[i].ID)
		if err != nil {
			return nil, err
		}
		summaries[i] = TopicSummary{
			Topic:  topics[i],
			Status: domain.StatusAt(sessions, now),
		}
	}
	return summaries, nil
}

func (s *votingService) CreateSession(ctx context.Context, topicID int64, durationMinutes int) (*domain.VotingSession, error) {
	topic, err := s.topics.Get(ctx, topicID)
	if err != nil {
		if errors.Is(err, repository.ErrTopicNotFound) {
			return nil, ErrTopicNotFound
		}
		return nil, err
	}

	now := s.clock.Now()
	sessions, err := s.sessions.ListByTopic(ctx, topic.ID)
	if err != nil {
		return nil, err
	}
	for _, existing := range sessions {
		if existing.IsOpen(now) {
			return nil, ErrSessionAlreadyOpen
		}
	}

	session := &domain.VotingSession{
		TopicID:   topic.ID,
		StartTime: now,
		EndTime:   now.Add(time.Duration(durationMinutes) * time.Minute),
	}
	if _, err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *votingService) CastVote(ctx context.Context, topicID, userID int64, choice string) (*domain.Vote, error) {
	now := s.clock.Now()

	// a missing topic and a topic with no open session are indistinguishable here
	sessions, err := s.sessions.ListByTopic(ctx, topicID)
	if err != nil {
		return nil, err
	}
	open := false
	for _, session := range sessions {
		if session.IsOpen(now) {
			open = true
			break
		}
	}
	if !open {
		return nil, ErrNoOpenSession
	}

	voted, err := s.votes.HasVoted(ctx, userID, topicID)
	if err != nil {
		return nil, err
	}
	if voted {
		return nil, ErrAlreadyVoted
	}

	if !domain.Choice(choice).Valid() {
		return nil, ErrInvalidChoice
	}

	vote := &domain.Vote{
		UserID:    userID,
		TopicID:   topicID,
		Choice:    domain.Choice(choice),
		CreatedAt: now,
	}
	if _, err := s.votes.Create(ctx, vote); err != nil {
		// the unique index backstops the HasVoted check under concurrent requests
		if errors.Is(err, repository.ErrVoteAlreadyExists) {
			return nil, ErrAlreadyVoted
		}
		return nil, err
	}
	return vote, nil
}

func (s *votingService) Results(ctx context.Context, topicID int64) (*domain.Tally, error) {
	topic, err := s.topics.Get(ctx, topicID)
	if err != nil {
		if errors.Is(err, repository.ErrTopicNotFound) {
			return nil, ErrTopicNotFound
		}
		return nil, err
	}

	sessions, err := s.sessions.ListByTopic(ctx, topic.ID)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, ErrNoSessions
	}

	// only the most recently ending session gates the tally
	now := s.clock.Now()
	last := sessions[0]
	for _, session := range sessions[1:] {
		if session.EndTime.After(last.EndTime) {
			last = session
		}
	}
	if last.IsOpen(now) {
		return nil, ErrSessionStillOpen
	}

	// every vote ever cast for the topic counts, regardless of session
	tally, err := s.votes.TallyByTopic(ctx, topic.ID)
	if err != nil {
		return nil, err
	}

	if s.archiver != nil {
		snap := archive.Snapshot{
			TopicID:    topic.ID,
			Title:      topic.Title,
			Tally:      tally,
			ArchivedAt: now,
		}
		if _, err := s.archiver.StoreSnapshot(ctx, snap); err != nil {
			s.logger.Warnf("archive tally for topic %d: %v", topic.ID, err)
		}
	}

	return &tally, nil
}
