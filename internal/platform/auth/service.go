package auth

import (
	"context"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"LIBRA-backend/internal/platform/apierr"
	"LIBRA-backend/internal/platform/clock"
	"LIBRA-backend/internal/platform/config"
)

const (
	minPasswordLen = 6
	maxUsernameLen = 64
)

type Service struct {
	store  UserStore
	secret []byte
	ttl    time.Duration
	clock  clock.Clock
}

func NewService(store UserStore, cfg config.AuthConfig, clk clock.Clock) *Service {
	return &Service{
		store:  store,
		secret: []byte(cfg.JWTSecret),
		ttl:    cfg.TokenTTL,
		clock:  clk,
	}
}

type AuthService interface {
	Login(ctx context.Context, username, password string) (TokenResponse, error)
	Register(ctx context.Context, in RegisterRequest) (UserResponse, error)
	Delete(ctx context.Context, id uint64) error
}

func (s *Service) Secret() []byte { return s.secret }

func (s *Service) Login(ctx context.Context, username, password string) (TokenResponse, error) {
	u, err := s.store.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return TokenResponse{}, apierr.Wrap(apierr.CodeInternal, "login failed", err)
	}
	// ユーザー不在とパスワード不一致は区別しない
	if u == nil || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return TokenResponse{}, apierr.Unauthorized("invalid username or password")
	}

	exp := s.clock.Now().Add(s.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  u.Username,
		"role": u.Role,
		"exp":  exp.Unix(),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return TokenResponse{}, apierr.Wrap(apierr.CodeInternal, "sign token", err)
	}
	return TokenResponse{Token: signed, Role: u.Role, ExpiresAt: exp}, nil
}

func (s *Service) Register(ctx context.Context, in RegisterRequest) (UserResponse, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" || utf8.RuneCountInString(username) > maxUsernameLen {
		return UserResponse{}, apierr.Invalid("username must be 1-64 characters")
	}
	if utf8.RuneCountInString(in.Password) < minPasswordLen {
		return UserResponse{}, apierr.Invalid("password must be at least 6 characters")
	}
	if in.Password != in.ConfirmPassword {
		return UserResponse{}, apierr.Invalid("passwords do not match")
	}

	u, err := s.create(ctx, username, in.Password, RoleUser)
	if err != nil {
		return UserResponse{}, err
	}
	return toUserResponse(u), nil
}

// EnsureDefaultAdmin はユーザーが1人もいない時だけ管理者を作る
func (s *Service) EnsureDefaultAdmin(ctx context.Context, username, password string) (bool, error) {
	n, err := s.store.Count(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	if username == "" || password == "" {
		log.Printf("[WARN] users table is empty and no default admin is configured")
		return false, nil
	}
	if _, err := s.create(ctx, username, password, RoleAdmin); err != nil {
		return false, err
	}
	log.Printf("[INFO] default admin %q created", username)
	return true, nil
}

func (s *Service) create(ctx context.Context, username, password, role string) (*User, error) {
	exists, err := s.store.GetByUsername(ctx, username)
	if err != nil {
		return nil, apierr.Wrap(apierr.CodeInternal, "register failed", err)
	}
	if exists != nil {
		return nil, apierr.Conflict("username already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apierr.Wrap(apierr.CodeInternal, "hash password", err)
	}
	u := &User{Username: username, PasswordHash: string(hash), Role: role, CreatedAt: s.clock.Now()}
	if err := s.store.Create(ctx, u); err != nil {
		if apierr.IsDuplicate(err) {
			return nil, apierr.Conflict("username already exists")
		}
		return nil, apierr.Wrap(apierr.CodeInternal, "register failed", err)
	}
	return u, nil
}

func (s *Service) Delete(ctx context.Context, id uint64) error {
	n, err := s.store.Delete(ctx, id)
	if err != nil {
		return apierr.Wrap(apierr.CodeInternal, "delete user failed", err)
	}
	if n == 0 {
		return apierr.NotFound("user not found")
	}
	return nil
}
