package user

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"causeway-backend/internal/application/emails"
	"causeway-backend/internal/domain"
	"causeway-backend/internal/pkg/apperr"
	"causeway-backend/internal/pkg/constants"
	"causeway-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Service holds DB and Redis for user operations. Rdb is used to drop
// sessions when an account changes credentials.
type Service struct {
	DB          *gorm.DB
	Rdb         *redis.Client
	EmailSender emails.Sender
}

// CreateUserInput is the public registration body.
type CreateUserInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Fullname string `json:"fullname"`
}

// CreateUser registers an account with the volunteer global role and
// sends the welcome email best-effort after the row is durable.
func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) (*domain.User, error) {
	if in.Email == "" || !validation.IsValidEmail(in.Email) {
		return nil, errors.New("Invalid email format")
	}
	if in.Password == "" || !validation.IsValidPassword(in.Password) {
		return nil, errors.New("Invalid password format")
	}
	trimmed := strings.TrimSpace(in.Fullname)
	if trimmed == "" || !validation.IsValidFullname(trimmed) {
		return nil, errors.New("Full name contains invalid characters (only letters, spaces, hyphens, and apostrophes allowed)")
	}

	email := strings.TrimSpace(strings.ToLower(in.Email))
	fullname := titleCaseAndNormalize(trimmed)

	var existing domain.User
	if err := s.DB.WithContext(ctx).Where("email = ?", email).First(&existing).Error; err == nil {
		return nil, errors.New("Email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), 10)
	if err != nil {
		return nil, err
	}

	u := &domain.User{
		Email:        email,
		PasswordHash: string(hash),
		Fullname:     fullname,
		GlobalRole:   constants.Volunteer,
	}
	if err := s.DB.WithContext(ctx).Create(u).Error; err != nil {
		return nil, err
	}

	if s.EmailSender != nil {
		first := strings.SplitN(fullname, " ", 2)[0]
		if err := s.EmailSender.SendWelcome(ctx, email, first); err != nil {
			log.Warn().Err(err).Str("user_id", u.UserID.String()).Msg("Welcome email delivery failed")
		}
	}
	return u, nil
}

// ViewUser returns a user by id, password hash excluded by the model tag.
func (s *Service) ViewUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	var u domain.User
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// UpdateUserInput carries the self-service updatable fields.
type UpdateUserInput struct {
	Fullname string `json:"fullname"`
	Password string `json:"password"`
}

// UpdateUser lets a principal update their own profile. A password
// change invalidates every other session for the account.
func (s *Service) UpdateUser(ctx context.Context, userID uuid.UUID, in UpdateUserInput, keepSessionID string) (*domain.User, error) {
	var u domain.User
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Fullname != "" {
		trimmed := strings.TrimSpace(in.Fullname)
		if !validation.IsValidFullname(trimmed) {
			return nil, errors.New("Full name contains invalid characters (only letters, spaces, hyphens, and apostrophes allowed)")
		}
		updates["fullname"] = titleCaseAndNormalize(trimmed)
	}
	if in.Password != "" {
		if !validation.IsValidPassword(in.Password) {
			return nil, errors.New("Invalid password format")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), 10)
		if err != nil {
			return nil, err
		}
		updates["password_hash"] = string(hash)
	}
	if len(updates) == 0 {
		return nil, errors.New("Missing update fields")
	}

	if err := s.DB.WithContext(ctx).Model(&u).Updates(updates).Error; err != nil {
		return nil, err
	}

	if _, changed := updates["password_hash"]; changed && s.Rdb != nil {
		s.invalidateOtherSessions(ctx, u.UserID.String(), keepSessionID)
	}
	return &u, nil
}

// invalidateOtherSessions scans session keys and deletes every session
// belonging to the user except the current one.
func (s *Service) invalidateOtherSessions(ctx context.Context, userID, keepSessionID string) {
	iter := s.Rdb.Scan(ctx, 0, "session:*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		if keepSessionID != "" && key == "session:"+keepSessionID {
			continue
		}
		b, err := s.Rdb.Get(ctx, key).Bytes()
		if err != nil {
			continue
		}
		if strings.Contains(string(b), userID) {
			s.Rdb.Del(ctx, key)
		}
	}
}

// titleCaseAndNormalize collapses whitespace and capitalizes each word.
func titleCaseAndNormalize(name string) string {
	fields := strings.Fields(name)
	for i, f := range fields {
		runes := []rune(strings.ToLower(f))
		runes[0] = unicode.ToUpper(runes[0])
		fields[i] = string(runes)
	}
	return strings.Join(fields, " ")
}
