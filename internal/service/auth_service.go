package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/pet-buddy/internal/apperror"
	"github.com/iliyamo/pet-buddy/internal/repository"
	"github.com/iliyamo/pet-buddy/internal/utils"
)

const (
	RoleOwner  = "owner"
	RoleSitter = "sitter"
)

type UserStore interface {
	Create(ctx context.Context, u repository.NewUser, cost int) (string, error)
	GetByEmail(ctx context.Context, email string) (repository.User, error)
}

type SitterChecker interface {
	IsSitter(ctx context.Context, userRef string) (bool, error)
}

type RegisterInput struct {
	Email    string
	Password string
	Phone    string
	FullName string
}

// UserView is the public part of a user returned after authentication.
type UserView struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Phone    string `json:"phone,omitempty"`
	Role     string `json:"role"`
}

type AuthResult struct {
	User      UserView  `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type AuthService struct {
	users      UserStore
	sitters    SitterChecker
	secret     string
	ttl        time.Duration
	bcryptCost int
	log        zerolog.Logger
}

func NewAuthService(users UserStore, sitters SitterChecker, secret string, ttl time.Duration, bcryptCost int, log zerolog.Logger) *AuthService {
	return &AuthService{
		users:      users,
		sitters:    sitters,
		secret:     secret,
		ttl:        ttl,
		bcryptCost: bcryptCost,
		log:        log.With().Str("component", "auth-service").Logger(),
	}
}

// Register creates an owner account and signs the first token for it.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (AuthResult, error) {
	var missing []string
	if strings.TrimSpace(in.Email) == "" {
		missing = append(missing, "email")
	}
	if in.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return AuthResult{}, apperror.MissingFields(missing...)
	}

	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		return AuthResult{}, apperror.Conflict("user already exists")
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return AuthResult{}, err
	}

	id, err := s.users.Create(ctx, repository.NewUser{
		Email:    in.Email,
		Password: in.Password,
		Phone:    in.Phone,
		FullName: in.FullName,
	}, s.bcryptCost)
	if err != nil {
		return AuthResult{}, err
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	return s.issue(repository.User{ID: id, Email: email, Phone: in.Phone, FullName: in.FullName}, RoleOwner)
}

// Login checks the password and signs a token. The role is sitter when the
// user has a sitter profile.
func (s *AuthService) Login(ctx context.Context, email, password string) (AuthResult, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return AuthResult{}, apperror.MissingFields("email", "password")
	}
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, apperror.ErrNotFound) {
		return AuthResult{}, apperror.Unauthorized("invalid email or password")
	}
	if err != nil {
		return AuthResult{}, err
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return AuthResult{}, apperror.Unauthorized("invalid email or password")
	}

	role := RoleOwner
	if s.sitters != nil {
		ok, err := s.sitters.IsSitter(ctx, u.ID)
		if err != nil {
			s.log.Debug().Err(err).Str("user_id", u.ID).Msg("sitter profile lookup failed")
		}
		if ok {
			role = RoleSitter
		}
	}
	return s.issue(u, role)
}

func (s *AuthService) issue(u repository.User, role string) (AuthResult, error) {
	tok, err := utils.NewAccessToken(s.secret, u.ID, role, s.ttl)
	if err != nil {
		return AuthResult{}, err
	}
	name := u.FullName
	if name == "" {
		name, _, _ = strings.Cut(u.Email, "@")
	}
	return AuthResult{
		User:      UserView{ID: u.ID, Email: u.Email, FullName: name, Phone: u.Phone, Role: role},
		Token:     tok.Token,
		ExpiresAt: tok.Exp,
	}, nil
}
