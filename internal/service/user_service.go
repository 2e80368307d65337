package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"votebox/internal/domain"
	"votebox/internal/repository"
)

// ErrInvalidCredentials indicates that provided login credentials are incorrect.
var ErrInvalidCredentials = errors.New("invalid credentials")

const (
	cpfLength   = 11
	minPassword = 6
)

// UserService describes user lifecycle operations.
type UserService interface {
	Register(ctx context.Context, cpf, name, password string) (*domain.User, error)
	Authenticate(ctx context.Context, cpf, password string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

type userService struct {
	users repository.UserRepository
}

func NewUserService(users repository.UserRepository) UserService {
	return &userService{users: users}
}

func (s *userService) Register(ctx context.Context, cpf, name, password string) (*domain.User, error) {
	cpf = strings.TrimSpace(cpf)
	name = strings.TrimSpace(name)

	errs := FieldErrors{}
	if cpf == "" {
		errs.add("cpf", "cpf is required")
	} else if !validCPF(cpf) {
		errs.add("cpf", fmt.Sprintf("cpf must be %d numeric digits", cpfLength))
	}
	if name == "" {
		errs.add("name", "name is required")
	}
	if password == "" {
		errs.add("password", "password is required")
	} else if len(password) < minPassword {
		errs.add("password", fmt.Sprintf("password must be at least %d characters", minPassword))
	}
	if len(errs) > 0 {
		return nil, errs
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		CPF:          cpf,
		Name:         name,
		PasswordHash: string(hash),
		IsActive:     true,
	}

	if _, err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserAlreadyExists) {
			return nil, FieldErrors{"cpf": {"a user with this cpf already exists"}}
		}
		return nil, err
	}

	return sanitizeUser(user), nil
}

func (s *userService) Authenticate(ctx context.Context, cpf, password string) (*domain.User, error) {
	cpf = strings.TrimSpace(cpf)
	if cpf == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByCPF(ctx, cpf)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return sanitizeUser(user), nil
}

func (s *userService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return sanitizeUser(user), nil
}

func validCPF(cpf string) bool {
	if len(cpf) != cpfLength {
		return false
	}
	for _, r := range cpf {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	return &domain.User{
		ID:        user.ID,
		CPF:       user.CPF,
		Name:      user.Name,
		IsActive:  user.IsActive,
		IsStaff:   user.IsStaff,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
