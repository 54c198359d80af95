// Package account implements signup, login, session lookup and profile updates.
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/matheus3301/chatline/internal/apperr"
	"github.com/matheus3301/chatline/internal/auth"
	"github.com/matheus3301/chatline/internal/media"
	"github.com/matheus3301/chatline/internal/model"
	"github.com/matheus3301/chatline/internal/store"
)

const minPasswordLen = 6

// Users is the slice of the store the service needs.
type Users interface {
	CreateUser(u *store.User) error
	FindUserByEmail(email string) (*store.User, error)
	FindUserByID(id string) (*store.User, error)
	UpdateProfilePic(id, url string) error
}

// Service owns credential checks and profile mutations.
type Service struct {
	users    Users
	uploader media.Uploader
	logger   *zap.Logger
}

func NewService(users Users, uploader media.Uploader, logger *zap.Logger) *Service {
	return &Service{users: users, uploader: uploader, logger: logger}
}

// Signup creates an identity for a new email.
func (s *Service) Signup(ctx context.Context, fullName, email, password string) (*model.Identity, error) {
	fullName, email = strings.TrimSpace(fullName), strings.TrimSpace(email)
	if fullName == "" || email == "" || password == "" {
		return nil, apperr.Validation("Please provide all required fields.")
	}
	if len(password) < minPasswordLen {
		return nil, apperr.Validation("Password must be at least 6 characters long.")
	}

	if _, err := s.users.FindUserByEmail(email); err == nil {
		return nil, apperr.Auth("User already exists with this email.")
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	u := &store.User{
		Identity:     model.Identity{FullName: fullName, Email: email},
		PasswordHash: hash,
	}
	if err := s.users.CreateUser(u); err != nil {
		return nil, err
	}
	s.logger.Info("user signed up", zap.String("user_id", u.ID))
	return &u.Identity, nil
}

// Login returns the identity for matching credentials.
func (s *Service) Login(ctx context.Context, email, password string) (*model.Identity, error) {
	u, err := s.users.FindUserByEmail(strings.TrimSpace(email))
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.Auth("Invalid credentials")
	}
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return nil, apperr.Auth("Invalid credentials")
	}
	return &u.Identity, nil
}

// Get returns the identity behind a verified session.
func (s *Service) Get(ctx context.Context, id string) (*model.Identity, error) {
	u, err := s.users.FindUserByID(id)
	if err != nil {
		return nil, err
	}
	return &u.Identity, nil
}

// UpdateProfile uploads a new avatar for id. Only the caller's own record is touched.
func (s *Service) UpdateProfile(ctx context.Context, id, profilePic string) (*model.Identity, error) {
	if profilePic == "" {
		return nil, apperr.Validation("Profile picture is required.")
	}
	if _, err := s.users.FindUserByID(id); err != nil {
		return nil, err
	}
	url, err := s.uploader.Upload(ctx, profilePic)
	if err != nil {
		s.logger.Warn("profile upload failed", zap.String("user_id", id), zap.Error(err))
		return nil, err
	}
	if err := s.users.UpdateProfilePic(id, url); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return s.Get(ctx, id)
}
