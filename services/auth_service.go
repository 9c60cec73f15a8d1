package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/nimven/autotourney/lichess"
	"github.com/nimven/autotourney/models"
	"github.com/nimven/autotourney/repositories"
)

// Scopes requested from lichess: tournament creation plus the email address
// used to identify returning users.
var oauthScopes = []string{"tournament:write", "email:read"}

const sessionTTL = 24 * time.Hour

// OAuthClient is the login slice of the lichess client.
type OAuthClient interface {
	AuthorizeURL(scopes []string, state string) (string, string, error)
	AccessToken(ctx context.Context, code, verifier string) (string, error)
	CurrentUser(ctx context.Context, token string) (*lichess.Account, error)
}

// Session identifies the logged-in user for one request. The lichess bearer
// token rides inside the session JWT so every core operation receives the
// user and token explicitly.
type Session struct {
	UserID   string
	Username string
	Token    string
}

type AuthService struct {
	users  repositories.UserRepository
	oauth  OAuthClient
	secret []byte
	logger *slog.Logger
	now    func() time.Time
}

func NewAuthService(users repositories.UserRepository, oauth OAuthClient, sessionSecret string, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		users:  users,
		oauth:  oauth,
		secret: []byte(sessionSecret),
		logger: logger,
		now:    time.Now,
	}
}

// LoginURL starts the PKCE flow; the returned verifier must come back with
// the authorization code.
func (s *AuthService) LoginURL(state string) (string, string, error) {
	return s.oauth.AuthorizeURL(oauthScopes, state)
}

// CompleteLogin exchanges the authorization code, records the account and
// mints the session token.
func (s *AuthService) CompleteLogin(ctx context.Context, code, verifier string) (string, error) {
	token, err := s.oauth.AccessToken(ctx, code, verifier)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
	}

	account, err := s.oauth.CurrentUser(ctx, token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
	}

	if err := s.users.Upsert(ctx, &models.User{
		ID:       account.ID,
		Username: account.Username,
		Email:    account.Email,
	}); err != nil {
		return "", fmt.Errorf("failed to store user: %w", err)
	}

	now := s.now()
	claims := jwt.MapClaims{
		"user_id":  account.ID,
		"username": account.Username,
		"token":    token,
		"exp":      now.Add(sessionTTL).Unix(),
		"iat":      now.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	s.logger.Info("user logged in", slog.String("user", account.ID))
	return signed, nil
}

// VerifySession validates a session token and returns its identity.
func (s *AuthService) VerifySession(tokenString string) (*Session, error) {
	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrAuthenticationFailed
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrAuthenticationFailed
	}
	userID, _ := claims["user_id"].(string)
	username, _ := claims["username"].(string)
	token, _ := claims["token"].(string)
	if userID == "" || token == "" {
		return nil, ErrAuthenticationFailed
	}
	return &Session{UserID: userID, Username: username, Token: token}, nil
}
