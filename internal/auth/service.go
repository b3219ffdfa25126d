// Package auth authenticates and registers local users. Password hashes are
// bcrypt; tokens for the HTTP surface live in the middleware subpackage.
package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrUserNotFound       = errors.New("auth: user not found")
	ErrUserExists         = errors.New("auth: user already exists")
	ErrInvalidInput       = errors.New("auth: invalid registration input")
)

// Login rules: 3-20 chars of [A-Za-z0-9_]. Password rule: length >= 4, no
// further strength requirement.
var loginRe = regexp.MustCompile(`^[A-Za-z0-9_]{3,20}$`)

const minPasswordLen = 4

func ValidLogin(login string) bool { return loginRe.MatchString(login) }

func ValidPassword(password string) bool { return len(password) >= minPasswordLen }

// UserStore is the credential storage the service runs against.
type UserStore interface {
	// FindByLogin returns the user and its password hash, found=false when
	// no such login exists.
	FindByLogin(ctx context.Context, login string) (u User, passwordHash string, found bool, err error)
	ExistsByLogin(ctx context.Context, login string) (bool, error)
	Create(ctx context.Context, login, passwordHash, fullName, role string) (int64, error)
}

type Service struct {
	users UserStore
	log   *logrus.Logger
}

func NewService(users UserStore, log *logrus.Logger) *Service {
	return &Service{users: users, log: log}
}

// Login authenticates by login+password. Domain failures come back as
// ErrUserNotFound / ErrInvalidCredentials; anything else is a storage error.
func (s *Service) Login(ctx context.Context, login, password string) (User, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return User{}, ErrInvalidCredentials
	}
	u, hash, found, err := s.users.FindByLogin(ctx, login)
	if err != nil {
		return User{}, fmt.Errorf("auth: lookup %q: %w", login, err)
	}
	if !found {
		return User{}, ErrUserNotFound
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return User{}, ErrInvalidCredentials
	}
	s.log.WithFields(logrus.Fields{"user": u.Login, "role": u.Role}).Info("user authenticated")
	return u, nil
}

// Register creates a new user. Role defaults to student; only callers that
// already verified admin rights should pass RoleAdmin.
func (s *Service) Register(ctx context.Context, login, password, fullName, role string) (User, error) {
	login = strings.TrimSpace(login)
	fullName = strings.TrimSpace(fullName)
	if role == "" {
		role = RoleStudent
	}
	if !ValidLogin(login) || !ValidPassword(password) || fullName == "" {
		return User{}, ErrInvalidInput
	}
	if role != RoleStudent && role != RoleAdmin {
		return User{}, ErrInvalidInput
	}

	exists, err := s.users.ExistsByLogin(ctx, login)
	if err != nil {
		return User{}, fmt.Errorf("auth: check %q: %w", login, err)
	}
	if exists {
		return User{}, ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("auth: hash password: %w", err)
	}
	id, err := s.users.Create(ctx, login, string(hash), fullName, role)
	if err != nil {
		return User{}, fmt.Errorf("auth: create %q: %w", login, err)
	}
	s.log.WithFields(logrus.Fields{"user": login, "role": role}).Info("user registered")
	return User{ID: id, Login: login, FullName: fullName, Role: role}, nil
}
