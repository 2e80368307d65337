package repository

import "errors"

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrTopicNotFound     = errors.New("topic not found")
	ErrVoteAlreadyExists = errors.New("vote already exists")
)
