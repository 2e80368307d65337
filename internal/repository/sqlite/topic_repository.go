package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"votebox/internal/domain"
	"votebox/internal/repository"
)

const createTopicsTable = `
CREATE TABLE IF NOT EXISTS topics (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL
);
`

type TopicRepository struct {
	db *sql.DB
}

func NewTopicRepository(db *sql.DB) repository.TopicRepository {
	return &TopicRepository{db: db}
}

func (r *TopicRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createTopicsTable); err != nil {
		return fmt.Errorf("create topics table: %w", err)
	}
	return nil
}

func (r *TopicRepository) Create(ctx context.Context, topic *domain.Topic) (int64, error) {
	if topic.CreatedAt.IsZero() {
		topic.CreatedAt = time.Now().UTC()
	}

	res, err := r.db.ExecContext(ctx, `
INSERT INTO topics (title, description, created_at)
VALUES (?, ?, ?)`,
		topic.Title,
		topic.Description,
		topic.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert topic: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("topic last insert id: %w", err)
	}
	topic.ID = id
	return id, nil
}

func (r *TopicRepository) Get(ctx context.Context, id int64) (*domain.Topic, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, title, description, created_at
FROM topics
WHERE id = ?`,
		id,
	)

	var topic domain.Topic
	if err := row.Scan(&topic.ID, &topic.Title, &topic.Description, &topic.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrTopicNotFound
		}
		return nil, fmt.Errorf("scan topic: %w", err)
	}
	return &topic, nil
}

func (r *TopicRepository) List(ctx context.Context) ([]domain.Topic, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, title, description, created_at
FROM topics
ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	defer rows.Close()

	var topics []domain.Topic
	for rows.Next() {
		var topic domain.Topic
		if err := rows.Scan(&topic.ID, &topic.Title, &topic.Description, &topic.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan topic: %w", err)
		}
		topics = append(topics, topic)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate topics: %w", err)
	}
	return topics, nil
}

func (r *TopicRepository) Delete(ctx context.Context, id int64) error {
	// sessions and votes go with the topic via ON DELETE CASCADE
	res, err := r.db.ExecContext(ctx, `DELETE FROM topics WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete topic: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("topic rows affected: %w", err)
	}
	if affected == 0 {
		return repository.ErrTopicNotFound
	}
	return nil
}
