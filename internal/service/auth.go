package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/clipfeed/clipfeed/internal/model"
	"github.com/clipfeed/clipfeed/internal/repository"
	"github.com/clipfeed/clipfeed/internal/validation"
)

// AuthService is the local IdentityProvider: users live in a UserRepository,
// passwords are bcrypt hashed and tokens are HS256 JWTs.
type AuthService struct {
	userRepository repository.UserRepository
	jwtSecret      string
	jwtExpiry      time.Duration
	now            func() time.Time
}

func NewAuthService(userRepository repository.UserRepository, jwtSecret string, jwtExpiry time.Duration) *AuthService {
	return &AuthService{
		userRepository: userRepository,
		jwtSecret:      jwtSecret,
		jwtExpiry:      jwtExpiry,
		now:            time.Now,
	}
}

func (s *AuthService) Register(ctx context.Context, username, password, displayName string) (*AuthResult, error) {
	username = strings.TrimSpace(username)
	displayName = strings.TrimSpace(displayName)

	err := validation.ValidateUsername(username)
	if err != nil {
		return nil, err
	}
	err = validation.ValidatePassword(password)
	if err != nil {
		return nil, err
	}
	err = validation.ValidateDisplayName(displayName)
	if err != nil {
		return nil, err
	}
	if displayName == "" {
		displayName = username
	}

	hash, err := s.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Username:     username,
		DisplayName:  displayName,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}

	err = s.userRepository.Create(user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateUsername) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("%w: failed to create user: %w", ErrPersistence, err)
	}

	slog.Info("user registered", "user_id", user.ID, "username", user.Username)
	return s.issue(user)
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	user, err := s.userRepository.ByUsername(username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !user.HasPassword() {
		return nil, ErrInvalidCredentials
	}

	err = s.ComparePassword(password, user.PasswordHash)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if user.Banned {
		slog.Warn("banned user attempted login", "user_id", user.ID)
		return nil, ErrBanned
	}

	return s.issue(user)
}

func (s *AuthService) BanStatus(ctx context.Context, code string) (bool, error) {
	user, err := s.lookup(code)
	if errors.Is(err, repository.ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return user.Banned, nil
}

func (s *AuthService) User(ctx context.Context, username string) (*model.UserSummary, error) {
	user, err := s.userRepository.ByUsername(username)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	summary := user.Summary()
	return &summary, nil
}

func (s *AuthService) VerifyToken(ctx context.Context, token string) (*model.UserSummary, error) {
	claims, err := s.VerifyJWT(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		return nil, ErrUnauthorized
	}

	user, err := s.userRepository.ByID(userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}

	summary := user.Summary()
	return &summary, nil
}

// SetBanned changes a user's ban flag. Tokens already issued stay valid;
// the auth middleware rejects banned callers on every request.
func (s *AuthService) SetBanned(code string, banned bool) (*model.UserSummary, error) {
	user, err := s.lookup(code)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	err = s.userRepository.SetBanned(user.ID, banned)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	user.Banned = banned
	slog.Info("user ban status changed", "user_id", user.ID, "banned", banned)
	summary := user.Summary()
	return &summary, nil
}

func (s *AuthService) Users() ([]model.UserSummary, error) {
	users, err := s.userRepository.All()
	if err != nil {
		return nil, err
	}

	summaries := make([]model.UserSummary, 0, len(users))
	for _, u := range users {
		summaries = append(summaries, u.Summary())
	}
	return summaries, nil
}

// lookup resolves a user id first, then a username.
func (s *AuthService) lookup(code string) (*model.User, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, repository.ErrUserNotFound
	}

	user, err := s.userRepository.ByID(code)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}
	return s.userRepository.ByUsername(code)
}

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	token, err := s.GenerateJWT(user)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return &AuthResult{Token: token, User: user.Summary()}, nil
}

func (s *AuthService) HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

func (s *AuthService) ComparePassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

func (s *AuthService) GenerateJWT(user *model.User) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"exp":      now.Add(s.jwtExpiry).Unix(),
		"iat":      now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

func (s *AuthService) VerifyJWT(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}
