// Package service holds the business rules, between the HTTP handlers and the
// repositories:
//
//	handler (HTTP) → service (rules, messages) → repository (SQL)
//
// Services never see an http.Request. They take forms and ids, and return
// models or *apperror.AppError values whose messages are ready to show.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/game-list/internal/apperror"
	"github.com/sakif/game-list/internal/auth"
	"github.com/sakif/game-list/internal/model"
	"github.com/sakif/game-list/internal/repository"
	"github.com/sakif/game-list/internal/validation"
)

// User-visible outcomes of the account flows. The wording is fixed; tests
// and templates compare against these exactly.
const (
	MsgBothTaken        = "Username and email has already exist."
	MsgEmailTaken       = "Email has already exist."
	MsgUsernameTaken    = "Username has already been taken."
	MsgBadCredentials   = "Username or password incorrect."
	MsgWrongPassword    = "Password incorrect."
	MsgPasswordUpdated  = "Password updated successfully."
	MsgRegistered       = "Registration successful. Please log in."
	msgPasswordTooLong  = "Password must be 72 bytes or fewer."
	maxPasswordByteSize = 72
)

// AuthService owns registration, credential checks and password changes.
type AuthService struct {
	users     repository.UserRepository
	passwords *auth.PasswordService
	validator *validation.Validator
	logger    *slog.Logger
}

// NewAuthService creates an AuthService.
func NewAuthService(
	users repository.UserRepository,
	passwords *auth.PasswordService,
	validator *validation.Validator,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		passwords: passwords,
		validator: validator,
		logger:    logger,
	}
}

// Register creates a non-admin account.
//
// The email and username are looked up independently so the caller gets the
// one message that covers both collisions. The lookups and the insert are not
// atomic: if another registration wins the race, the UNIQUE constraint fires
// and that is reported with the same message the lookup would have given.
func (s *AuthService) Register(ctx context.Context, form validation.RegisterForm) (*model.User, error) {
	if err := s.validator.Validate(form, validation.RegisterMessages); err != nil {
		return nil, err
	}
	if len(form.Password) > maxPasswordByteSize {
		return nil, apperror.ValidationFailed("password", msgPasswordTooLong)
	}

	emailTaken, err := s.exists(ctx, s.users.GetUserByEmail, form.Email)
	if err != nil {
		return nil, err
	}
	usernameTaken, err := s.exists(ctx, s.users.GetUserByUsername, form.Username)
	if err != nil {
		return nil, err
	}

	switch {
	case emailTaken && usernameTaken:
		return nil, apperror.Conflict(MsgBothTaken)
	case emailTaken:
		return nil, apperror.Conflict(MsgEmailTaken)
	case usernameTaken:
		return nil, apperror.Conflict(MsgUsernameTaken)
	}

	hash, err := s.passwords.Hash(form.Password)
	if err != nil {
		return nil, fmt.Errorf("registering user: %w", err)
	}

	user := &model.User{
		Email:    form.Email,
		Username: form.Username,
		Password: hash,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) && errors.Is(err, apperror.ErrConflict) {
			if appErr.Field == "email" {
				return nil, apperror.Conflict(MsgEmailTaken)
			}
			return nil, apperror.Conflict(MsgUsernameTaken)
		}
		return nil, fmt.Errorf("registering user: %w", err)
	}

	s.logger.Info("user registered",
		slog.Int64("userID", user.ID),
		slog.String("username", user.Username),
	)
	return user, nil
}

// Authenticate checks a username and password. An unknown username and a
// wrong password produce the same error so callers cannot tell them apart.
func (s *AuthService) Authenticate(ctx context.Context, form validation.LoginForm) (*model.User, error) {
	if err := s.validator.Validate(form, validation.LoginMessages); err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByUsername(ctx, form.Username)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized(MsgBadCredentials)
		}
		return nil, fmt.Errorf("authenticating: %w", err)
	}

	if err := s.passwords.Verify(user.Password, form.Password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, apperror.Unauthorized(MsgBadCredentials)
		}
		return nil, fmt.Errorf("authenticating user %d: %w", user.ID, err)
	}

	return user, nil
}

// ChangePassword replaces the password of userID after checking the old one.
// Existing sessions, this one included, stay valid.
func (s *AuthService) ChangePassword(ctx context.Context, userID int64, form validation.PasswordForm) error {
	if err := s.validator.Validate(form, validation.PasswordMessages); err != nil {
		return err
	}
	if len(form.Password) > maxPasswordByteSize {
		return apperror.ValidationFailed("password", msgPasswordTooLong)
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("changing password: %w", err)
	}

	if err := s.passwords.Verify(user.Password, form.OldPassword); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return &apperror.AppError{Err: apperror.ErrUnauthorized, Message: MsgWrongPassword, Field: "old_password"}
		}
		return fmt.Errorf("changing password for user %d: %w", userID, err)
	}

	hash, err := s.passwords.Hash(form.Password)
	if err != nil {
		return fmt.Errorf("changing password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("changing password: %w", err)
	}

	s.logger.Info("password changed", slog.Int64("userID", userID))
	return nil
}

// exists runs one of the user lookups and turns ErrNotFound into false.
func (s *AuthService) exists(
	ctx context.Context,
	lookup func(context.Context, string) (*model.User, error),
	value string,
) (bool, error) {
	_, err := lookup(ctx, value)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, apperror.ErrNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("checking existing user: %w", err)
	}
}
