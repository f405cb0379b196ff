package services

import (
	"chat-relay/auth"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/repositories"
	stderrors "errors"
	"fmt"
	"log/slog"
)

type IAuthService interface {
	Register(username, password string) (Session, error)
	Login(username, password string) (Session, error)
}

// Session is what a client needs after authenticating.
type Session struct {
	UserID domain.UserID `json:"userId"`
	Token  string        `json:"token"`
}

type AuthService struct {
	log            *slog.Logger
	userRepository repositories.IUserRepository
	issuer         *auth.TokenIssuer
}

func NewAuthService(log *slog.Logger, repo repositories.IUserRepository, issuer *auth.TokenIssuer) IAuthService {
	return &AuthService{log: log, userRepository: repo, issuer: issuer}
}

// Register validates before hashing, the repository never sees a plain password.
// Presence is untouched: an account starts offline until it announces itself.
func (s *AuthService) Register(username, password string) (Session, error) {
	if err := auth.ValidateRegister(auth.RegisterRequest{Username: username, Password: password}); err != nil {
		return Session{}, err
	}

	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return Session{}, fmt.Errorf("hashing failed: %w", err)
	}

	userID, err := s.userRepository.CreateUser(username, hashedPassword)
	if err != nil {
		return Session{}, err
	}
	s.log.Info("Account created", "user_id", userID, "username", username)

	return s.session(userID)
}

func (s *AuthService) Login(username, password string) (Session, error) {
	if err := auth.ValidateLogin(auth.LoginRequest{Username: username, Password: password}); err != nil {
		return Session{}, err
	}

	user, err := s.userRepository.GetUserByUsername(username)
	if err != nil {
		if !stderrors.Is(err, errors.ErrNotFound) {
			s.log.Error("Failed to load account", "username", username, "error", err)
		}
		// Same answer for unknown user and wrong password
		return Session{}, errors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil || !match {
		return Session{}, errors.ErrInvalidCredentials
	}

	return s.session(user.ID)
}

func (s *AuthService) session(userID domain.UserID) (Session, error) {
	token, err := s.issuer.GenerateToken(userID)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", errors.ErrTokenGeneration, err)
	}
	return Session{UserID: userID, Token: token}, nil
}
