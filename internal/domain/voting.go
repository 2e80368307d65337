package domain

import "time"

type TopicStatus string

const (
	TopicStatusWaiting TopicStatus = "waiting"
	TopicStatusOpen    TopicStatus = "open"
	TopicStatusClosed  TopicStatus = "closed"
)

type Choice string

const (
	ChoiceYes Choice = "Yes"
	ChoiceNo  Choice = "No"
)

// Valid reports whether the choice is one of the two accepted ballot values.
func (c Choice) Valid() bool {
	return c == ChoiceYes || c == ChoiceNo
}

// Topic is a subject put up for a yes/no vote.
type Topic struct {
	ID          int64
	Title       string
	Description string
	CreatedAt   time.Time
}

// VotingSession is a time window during which votes on a topic may be cast.
// Sessions are immutable once created; they close by wall-clock expiry only.
type VotingSession struct {
	ID        int64
	TopicID   int64
	StartTime time.Time
	EndTime   time.Time
}

// IsOpen reports whether now falls within [StartTime, EndTime).
func (s VotingSession) IsOpen(now time.Time) bool {
	return !now.Before(s.StartTime) && now.Before(s.EndTime)
}

// Vote records a single user's choice for a topic.
type Vote struct {
	ID        int64
	UserID    int64
	TopicID   int64
	Choice    Choice
	CreatedAt time.Time
}

// Tally aggregates the recorded votes for a topic.
type Tally struct {
	Total int64
	Yes   int64
	No    int64
}

// StatusAt derives a topic's status from its sessions at the given instant.
// It is recomputed on every read and never persisted.
func StatusAt(sessions []VotingSession, now time.Time) TopicStatus {
	closed := false
	for _, s := range sessions {
		if s.IsOpen(now) {
			return TopicStatusOpen
		}
		if !s.EndTime.After(now) {
			closed = true
		}
	}
	if closed {
		return TopicStatusClosed
	}
	return TopicStatusWaiting
}
