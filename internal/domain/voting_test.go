package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestVotingSessionIsOpen(t *testing.T) {
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	session := VotingSession{StartTime: start, EndTime: start.Add(5 * time.Minute)}

	assert.False(t, session.IsOpen(start.Add(-time.Second)), "before start")
	assert.True(t, session.IsOpen(start), "start is inclusive")
	assert.True(t, session.IsOpen(start.Add(time.Minute)), "inside window")
	assert.False(t, session.IsOpen(start.Add(5*time.Minute)), "end is exclusive")
	assert.False(t, session.IsOpen(start.Add(time.Hour)), "after end")
}

func TestStatusAt(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	past := VotingSession{StartTime: now.Add(-10 * time.Minute), EndTime: now.Add(-5 * time.Minute)}
	open := VotingSession{StartTime: now.Add(-time.Minute), EndTime: now.Add(time.Minute)}
	future := VotingSession{StartTime: now.Add(5 * time.Minute), EndTime: now.Add(10 * time.Minute)}

	tests := []struct {
		name     string
		sessions []VotingSession
		want     TopicStatus
	}{
		{"no sessions", nil, TopicStatusWaiting},
		{"only future session", []VotingSession{future}, TopicStatusWaiting},
		{"open session", []VotingSession{open}, TopicStatusOpen},
		{"expired session", []VotingSession{past}, TopicStatusClosed},
		{"expired and open", []VotingSession{past, open}, TopicStatusOpen},
		{"expired and future", []VotingSession{past, future}, TopicStatusClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusAt(tt.sessions, now))
		})
	}
}

func TestChoiceValid(t *testing.T) {
	assert.True(t, ChoiceYes.Valid())
	assert.True(t, ChoiceNo.Valid())
	assert.False(t, Choice("yes").Valid())
	assert.False(t, Choice("Maybe").Valid())
	assert.False(t, Choice("").Valid())
}
