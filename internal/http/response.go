package http

import (
	"time"

	"votebox/internal/domain"
	"votebox/internal/service"
)

type UserResponse struct {
	ID   int64  `json:"id"`
	CPF  string `json:"cpf"`
	Name string `json:"name"`
}

type TopicResponse struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
}

type SessionResponse struct {
	ID        int64  `json:"id"`
	Topic     int64  `json:"topic"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type VoteResponse struct {
	ID        int64  `json:"id"`
	Choice    string `json:"choice"`
	CreatedAt string `json:"created_at"`
}

// ResultResponse keeps the sim/nao keys of the assembly wire format.
type ResultResponse struct {
	Total int64 `json:"total"`
	Sim   int64 `json:"sim"`
	Nao   int64 `json:"nao"`
}

func userToResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:   user.ID,
		CPF:  user.CPF,
		Name: user.Name,
	}
}

func topicToResponse(topic service.TopicSummary) TopicResponse {
	return TopicResponse{
		ID:          topic.ID,
		Title:       topic.Title,
		Description: topic.Description,
		Status:      string(topic.Status),
		CreatedAt:   topic.CreatedAt.Format(time.RFC3339),
	}
}
