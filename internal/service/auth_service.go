package service

import (
	"context"
	"errors"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"lexiq-backend/internal/metrics"
	"lexiq-backend/internal/model"
	"lexiq-backend/internal/repository"
	"lexiq-backend/pkg/logging"
	"lexiq-backend/utilities"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

const (
	minPasswordLength = 5
	maxPasswordLength = 128
)

type RegisterInput struct {
	Username       *string `json:"username"`
	Email          *string `json:"email"`
	Password       string  `json:"password"`
	PasswordRepeat string  `json:"password_repeat"`
}

type LoginInput struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password string  `json:"password"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	UserID       string `json:"user_id"`
}

// AuthService interface
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*model.User, error)
	Login(ctx context.Context, in LoginInput) (*TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	VerifyToken(ctx context.Context, token string) (uuid.UUID, error)
	Logout(ctx context.Context, token string) error
}

type authService struct {
	repos     repository.Repositories
	jwt       *utilities.JWTManager
	blacklist TokenBlacklist
	bus       *utilities.EventBus
}

// NewAuthService initializes authentication service
func NewAuthService(repos repository.Repositories, jwt *utilities.JWTManager, blacklist TokenBlacklist, bus *utilities.EventBus) AuthService {
	return &authService{repos: repos, jwt: jwt, blacklist: blacklist, bus: bus}
}

func normalize(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func (in *RegisterInput) validate() error {
	in.Username = normalize(in.Username)
	in.Email = normalize(in.Email)
	if in.Username == nil && in.Email == nil {
		return validationError("either username or email is required")
	}
	if in.Username != nil && !usernamePattern.MatchString(*in.Username) {
		return validationError("username contains invalid characters")
	}
	if in.Email != nil {
		if _, err := mail.ParseAddress(*in.Email); err != nil {
			return validationError("email is not a valid address")
		}
		lower := strings.ToLower(*in.Email)
		in.Email = &lower
	}
	if n := len(in.Password); n < minPasswordLength || n > maxPasswordLength {
		return validationError("password must be between %d and %d characters", minPasswordLength, maxPasswordLength)
	}
	if in.Password != in.PasswordRepeat {
		return validationError("passwords do not match")
	}
	return nil
}

func (s *authService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	if err := in.validate(); err != nil {
		metrics.Registrations.WithLabelValues("failure").Inc()
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, internalError(err, "failed to hash password")
	}
	user := &model.User{
		Username:       in.Username,
		Email:          in.Email,
		HashedPassword: string(hashed),
		EnglishLevel:   model.LevelUnknown,
	}

	err = s.repos.Transaction(ctx, func(tx repository.Repositories) error {
		if in.Username != nil {
			if err := s.ensureFree(ctx, tx.Users().GetUserByUsername, *in.Username); err != nil {
				return err
			}
		}
		if in.Email != nil {
			if err := s.ensureFree(ctx, tx.Users().GetUserByEmail, *in.Email); err != nil {
				return err
			}
		}
		if err := tx.Users().CreateUser(ctx, user); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return newError(CodeConflict, err, "user with this username or email already exists")
			}
			return internalError(err, "failed to store user")
		}
		return nil
	})
	if err != nil {
		metrics.Registrations.WithLabelValues("failure").Inc()
		return nil, err
	}

	metrics.Registrations.WithLabelValues("success").Inc()
	logger.Info("registered user %s (%s)", user.ID, user.DisplayName())
	if s.bus != nil {
		s.bus.Publish(utilities.EventUserRegistered, utilities.UserRegisteredEvent{UserID: user.ID, At: time.Now().UTC()})
	}
	return user, nil
}

func (s *authService) ensureFree(ctx context.Context, lookup func(context.Context, string) (*model.User, error), value string) error {
	_, err := lookup(ctx, value)
	switch {
	case err == nil:
		return newError(CodeConflict, nil, "user with this username or email already exists")
	case errors.Is(err, repository.ErrNotFound):
		return nil
	default:
		return internalError(err, "failed to look up user")
	}
}

// Login authenticates by username or email and issues a token pair.
func (s *authService) Login(ctx context.Context, in LoginInput) (*TokenPair, error) {
	username, email := normalize(in.Username), normalize(in.Email)
	if username == nil && email == nil {
		return nil, validationError("either username or email is required")
	}
	if in.Password == "" {
		return nil, validationError("password is required")
	}

	var (
		user *model.User
		err  error
	)
	if username != nil {
		user, err = s.repos.Users().GetUserByUsername(ctx, *username)
	} else {
		user, err = s.repos.Users().GetUserByEmail(ctx, strings.ToLower(*email))
	}
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, internalError(err, "failed to look up user")
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(in.Password)) != nil {
		metrics.LoginAttempts.WithLabelValues("failure").Inc()
		return nil, newError(CodeUnauthorized, nil, "invalid username/email or password")
	}

	pair, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	metrics.LoginAttempts.WithLabelValues("success").Inc()
	return pair, nil
}

func (s *authService) issue(user *model.User) (*TokenPair, error) {
	access, refresh, err := s.jwt.GenerateTokens(user)
	if err != nil {
		return nil, internalError(err, "failed to generate tokens")
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh, TokenType: "bearer", UserID: user.ID.String()}, nil
}

// Refresh trades a refresh token for a new pair unless its pair was
// logged out.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, validationError("refresh_token is required")
	}
	access, refresh, claims, err := s.jwt.RefreshTokens(refreshToken)
	if err != nil {
		if errors.Is(err, utilities.ErrInvalidToken) || errors.Is(err, utilities.ErrExpiredToken) {
			return nil, newError(CodeUnauthorized, err, "invalid or expired refresh token")
		}
		return nil, internalError(err, "failed to generate tokens")
	}
	revoked, err := utilities.IsTokenRevoked(ctx, s.blacklist, refreshToken, claims)
	if err != nil {
		return nil, internalError(err, "failed to check token")
	}
	if revoked {
		return nil, newError(CodeUnauthorized, nil, "refresh token has been revoked")
	}
	if _, err := s.repos.Users().GetUserByID(ctx, uuid.MustParse(claims.UserID)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(CodeUnauthorized, err, "user no longer exists")
		}
		return nil, internalError(err, "failed to look up user")
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh, TokenType: "bearer", UserID: claims.UserID}, nil
}

func (s *authService) VerifyToken(ctx context.Context, token string) (uuid.UUID, error) {
	claims, err := s.jwt.ValidateToken(token, false)
	if err != nil {
		return uuid.Nil, newError(CodeForbidden, err, "invalid or expired token")
	}
	revoked, err := utilities.IsTokenRevoked(ctx, s.blacklist, token, claims)
	if err != nil {
		return uuid.Nil, internalError(err, "failed to check token")
	}
	if revoked {
		return uuid.Nil, newError(CodeForbidden, nil, "token has been revoked")
	}
	return uuid.MustParse(claims.UserID), nil
}

// Logout revokes token and, when it is a valid access token, the refresh
// token issued with it.
func (s *authService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return validationError("token is required")
	}
	if err := s.blacklist.Revoke(ctx, token); err != nil {
		return internalError(err, "failed to revoke token")
	}
	if claims, err := s.jwt.ValidateToken(token, false); err == nil {
		if err := s.blacklist.Revoke(ctx, utilities.PairKey(claims)); err != nil {
			return internalError(err, "failed to revoke token")
		}
	}
	metrics.Logouts.Inc()
	logger.Info("token revoked")
	return nil
}
