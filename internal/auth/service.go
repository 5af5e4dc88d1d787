package auth

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"visaverse/internal/config"
	"visaverse/internal/redis"
)

const redisTokenPrefix = "auth:token:"

var (
	ErrTokenRequired = errors.New("token required")
	ErrInvalidToken  = errors.New("invalid token")
	ErrTokenExpired  = errors.New("token expired")
)

// Service issues, validates, and revokes user authentication tokens. Tokens
// live in SQL; when a redis client is configured it fronts the lookups.
type Service struct {
	db       *sql.DB
	cache    *redis.Client
	logger   *logrus.Entry
	tokenTTL time.Duration
	names    config.AuthConfig
}

// NewService constructs an auth service with the supplied token lifetime.
// cache may be nil.
func NewService(db *sql.DB, cache *redis.Client, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Service{
		db:       db,
		cache:    cache,
		logger:   logrus.WithField("component", "auth"),
		tokenTTL: ttl,
		names:    config.AuthConfig{}.WithDefaults(),
	}
}

// WithLogger replaces the default logger.
func (s *Service) WithLogger(logger *logrus.Logger) *Service {
	if logger != nil {
		s.logger = logger.WithField("component", "auth")
	}
	return s
}

// WithNames sets the session and CSRF cookie/header names.
func (s *Service) WithNames(cfg config.AuthConfig) *Service {
	s.names = cfg.WithDefaults()
	return s
}

// IssueToken mints a new random token for the user and persists it.
func (s *Service) IssueToken(ctx context.Context, userID int64) (string, error) {
	if userID <= 0 {
		return "", errors.New("invalid user id")
	}
	now := time.Now().UTC()
	expiresAt := now.Add(s.tokenTTL)
	for i := 0; i < 5; i++ {
		token, err := generateToken()
		if err != nil {
			return "", err
		}
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO user_tokens (token, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)`,
			token, userID, now, expiresAt,
		)
		if err == nil {
			s.cacheToken(ctx, token, userID, s.tokenTTL)
			return token, nil
		}
		s.logger.WithError(err).Warn("insert token failed, retrying")
	}
	return "", errors.New("could not issue token")
}

// NewCSRFToken returns a random token used for CSRF protection.
func (s *Service) NewCSRFToken() (string, error) {
	return generateToken()
}

// ValidateToken verifies the token exists and has not expired, returning the user id.
func (s *Service) ValidateToken(ctx context.Context, authToken string) (int64, error) {
	if authToken == "" {
		return 0, ErrTokenRequired
	}
	if userID, ok := s.cachedUser(ctx, authToken); ok {
		return userID, nil
	}

	var userID int64
	var expires time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, expires_at FROM user_tokens WHERE token = ?`, authToken,
	).Scan(&userID, &expires)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrInvalidToken
		}
		return 0, fmt.Errorf("lookup token: %w", err)
	}
	remaining := time.Until(expires)
	if remaining <= 0 {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM user_tokens WHERE token = ?`, authToken)
		return 0, ErrTokenExpired
	}
	s.cacheToken(ctx, authToken, userID, remaining)
	return userID, nil
}

// RevokeToken deletes a single token.
func (s *Service) RevokeToken(ctx context.Context, authToken string) error {
	if authToken == "" {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM user_tokens WHERE token = ?`, authToken); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	s.evict(ctx, authToken)
	return nil
}

// RevokeUserTokens removes all tokens belonging to the user.
func (s *Service) RevokeUserTokens(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return nil
	}
	if s.cache.Enabled() {
		rows, err := s.db.QueryContext(ctx, `SELECT token FROM user_tokens WHERE user_id = ?`, userID)
		if err != nil {
			return fmt.Errorf("list user tokens: %w", err)
		}
		var tokens []string
		for rows.Next() {
			var tok string
			if err := rows.Scan(&tok); err != nil {
				rows.Close()
				return fmt.Errorf("scan user token: %w", err)
			}
			tokens = append(tokens, tok)
		}
		rows.Close()
		s.evict(ctx, tokens...)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM user_tokens WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("revoke user tokens: %w", err)
	}
	return nil
}

func (s *Service) cacheToken(ctx context.Context, token string, userID int64, ttl time.Duration) {
	if !s.cache.Enabled() {
		return
	}
	if err := s.cache.Set(ctx, redisTokenPrefix+token, strconv.FormatInt(userID, 10), ttl); err != nil {
		s.logger.WithError(err).Warn("cache token failed")
	}
}

func (s *Service) cachedUser(ctx context.Context, token string) (int64, bool) {
	if !s.cache.Enabled() {
		return 0, false
	}
	val, err := s.cache.Get(ctx, redisTokenPrefix+token)
	if err != nil {
		if !errors.Is(err, redis.ErrCacheMiss) {
			s.logger.WithError(err).Warn("read cached token failed")
		}
		return 0, false
	}
	userID, err := strconv.ParseInt(val, 10, 64)
	if err != nil || userID <= 0 {
		return 0, false
	}
	return userID, true
}

func (s *Service) evict(ctx context.Context, tokens ...string) {
	if !s.cache.Enabled() || len(tokens) == 0 {
		return
	}
	keys := make([]string, 0, len(tokens))
	for _, t := range tokens {
		keys = append(keys, redisTokenPrefix+t)
	}
	if err := s.cache.Del(ctx, keys...); err != nil {
		s.logger.WithError(err).Warn("evict cached tokens failed")
	}
}

func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// AuthCookieName returns the session cookie name.
func (s *Service) AuthCookieName() string {
	return s.names.CookieName
}

// CSRFCookieName returns the cookie used for CSRF tokens.
func (s *Service) CSRFCookieName() string {
	return s.names.CSRFCookieName
}

// CSRFHeaderName returns the header that must echo the CSRF cookie.
func (s *Service) CSRFHeaderName() string {
	return s.names.CSRFHeaderName
}

// TokenTTL reports the configured token lifetime.
func (s *Service) TokenTTL() time.Duration {
	return s.tokenTTL
}
