package archive

import (
	"context"
	"time"

	"votebox/internal/domain"
)

// Snapshot is the durable record of a topic's final tally.
type Snapshot struct {
	TopicID    int64        `json:"topic_id"`
	Title      string       `json:"title"`
	Tally      domain.Tally `json:"tally"`
	ArchivedAt time.Time    `json:"archived_at"`
}

// Archiver stores tally snapshots in remote object storage. Archiving is
// best effort; callers log failures and never surface them to voters.
type Archiver interface {
	StoreSnapshot(ctx context.Context, snap Snapshot) (string, error)
}
