package service

import (
	"context"
	"log"
	"sync"
	"time"

	"viktorai/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

const (
	maxFailedLogins = 10
	lockoutDuration = 10 * time.Minute
)

type failedLoginAttempt struct {
	failedAt     int64
	failedNumber int
}

// UserStore is the user persistence surface the credential service needs.
// *repository.UserRepository satisfies it.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	Delete(ctx context.Context, id string) error
}

type AuthService struct {
	userRepo   UserStore
	redis      *redis.Client
	bcryptCost int

	mu                  sync.Mutex
	failedLoginAttempts map[string]*failedLoginAttempt
}

// NewAuthService builds the credential store service. redisClient may be nil,
// in which case login lockout is disabled.
func NewAuthService(userRepo UserStore, redisClient *redis.Client, bcryptCost int) *AuthService {
	return &AuthService{
		userRepo:            userRepo,
		redis:               redisClient,
		bcryptCost:          bcryptCost,
		failedLoginAttempts: make(map[string]*failedLoginAttempt),
	}
}

func (s *AuthService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		JWTVersion:   1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateIdentity
		}
		return nil, err
	}
	return user, nil
}

// Login verifies credentials. Unknown usernames and wrong passwords both
// return ErrInvalidCredentials so the response never leaks which field was
// wrong; comparison is delegated to bcrypt.
func (s *AuthService) Login(ctx context.Context, username, password string) (*models.User, error) {
	if s.isLocked(ctx, username) {
		return nil, ErrUserLocked
	}

	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil || user.PasswordHash == "" {
		s.recordFailure(ctx, username)
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.recordFailure(ctx, username)
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *AuthService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}

// DeleteAccount removes the user record. Quizzes the user created are left
// in place; attempt listings tolerate the resulting orphaned references.
func (s *AuthService) DeleteAccount(ctx context.Context, userID string) error {
	return s.userRepo.Delete(ctx, userID)
}

func lockKey(username string) string { return "viktorai-lock-user-" + username }

func (s *AuthService) isLocked(ctx context.Context, username string) bool {
	if s.redis == nil {
		return false
	}
	n, err := s.redis.Exists(ctx, lockKey(username)).Result()
	if err != nil {
		log.Printf("Warning: redis lock check failed for %s: %v", username, err)
		return false
	}
	return n > 0
}

func (s *AuthService) recordFailure(ctx context.Context, username string) {
	loginTime := time.Now().UnixMilli()

	s.mu.Lock()
	attempt := s.failedLoginAttempts[username]
	if attempt == nil {
		attempt = &failedLoginAttempt{}
		s.failedLoginAttempts[username] = attempt
	}
	lastFailed := attempt.failedAt
	attempt.failedAt = loginTime
	attempt.failedNumber++
	failed := attempt.failedNumber
	s.mu.Unlock()

	if s.redis == nil {
		return
	}
	if loginTime-lastFailed < 1000 {
		log.Printf("WARN: suspicious login activity for user %s, locking", username)
		s.redis.Set(ctx, lockKey(username), loginTime, lockoutDuration)
	}
	if failed > maxFailedLogins {
		log.Printf("User %s failed login %d times, locked for %v", username, failed, lockoutDuration)
		s.redis.Set(ctx, lockKey(username), loginTime, lockoutDuration)
	}
}
