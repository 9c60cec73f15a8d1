package services

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/nimven/autotourney/lichess"
)

type fakeOAuth struct {
	token   string
	account *lichess.Account
	fail    bool
}

func (o *fakeOAuth) AuthorizeURL(scopes []string, state string) (string, string, error) {
	return "https://lichess.org/oauth?state=" + state, "verifier", nil
}

func (o *fakeOAuth) AccessToken(ctx context.Context, code, verifier string) (string, error) {
	if o.fail {
		return "", errors.New("invalid grant")
	}
	return o.token, nil
}

func (o *fakeOAuth) CurrentUser(ctx context.Context, token string) (*lichess.Account, error) {
	return o.account, nil
}

func TestCompleteLoginRoundTrip(t *testing.T) {
	users := &fakeUserRepo{}
	oauth := &fakeOAuth{
		token:   "lichess-token",
		account: &lichess.Account{ID: "nimven", Username: "Nimven", Email: "n@example.com"},
	}
	s := NewAuthService(users, oauth, "secret", slog.Default())

	signed, err := s.CompleteLogin(context.Background(), "code", "verifier")
	if err != nil {
		t.Fatalf("CompleteLogin returned error: %v", err)
	}

	session, err := s.VerifySession(signed)
	if err != nil {
		t.Fatalf("VerifySession returned error: %v", err)
	}
	if session.UserID != "nimven" || session.Username != "Nimven" {
		t.Errorf("session = %+v", session)
	}
	if session.Token != "lichess-token" {
		t.Errorf("session token = %q, want the lichess bearer token", session.Token)
	}

	stored, err := users.GetByID(context.Background(), "nimven")
	if err != nil {
		t.Fatalf("user was not stored: %v", err)
	}
	if stored.Email != "n@example.com" {
		t.Errorf("stored email = %q", stored.Email)
	}
}

func TestCompleteLoginFailedExchange(t *testing.T) {
	s := NewAuthService(&fakeUserRepo{}, &fakeOAuth{fail: true}, "secret", slog.Default())

	if _, err := s.CompleteLogin(context.Background(), "code", "verifier"); !errors.Is(err, ErrAuthenticationFailed) {
		t.Errorf("err = %v, want ErrAuthenticationFailed", err)
	}
}

func TestVerifySessionRejectsForeignToken(t *testing.T) {
	users := &fakeUserRepo{}
	oauth := &fakeOAuth{token: "tok", account: &lichess.Account{ID: "nimven"}}

	issuer := NewAuthService(users, oauth, "secret-one", slog.Default())
	verifier := NewAuthService(users, oauth, "secret-two", slog.Default())

	signed, err := issuer.CompleteLogin(context.Background(), "code", "verifier")
	if err != nil {
		t.Fatalf("CompleteLogin returned error: %v", err)
	}

	if _, err := verifier.VerifySession(signed); !errors.Is(err, ErrAuthenticationFailed) {
		t.Errorf("err = %v, want ErrAuthenticationFailed", err)
	}
	if _, err := issuer.VerifySession("garbage"); !errors.Is(err, ErrAuthenticationFailed) {
		t.Errorf("garbage token err = %v, want ErrAuthenticationFailed", err)
	}
}
