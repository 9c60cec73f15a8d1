package lichess

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Account is the authenticated lichess account, merged from the account and
// email endpoints.
type Account struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// AuthorizeURL builds the PKCE authorization URL and returns it together with
// the code verifier the caller must present when exchanging the code.
func (c *Client) AuthorizeURL(scopes []string, state string) (string, string, error) {
	buf := make([]byte, 48)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("generate code verifier: %w", err)
	}
	verifier := base64.RawURLEncoding.EncodeToString(buf)

	sum := sha256.Sum256([]byte(verifier))
	challenge := base64.RawURLEncoding.EncodeToString(sum[:])

	args := url.Values{
		"response_type":         {"code"},
		"redirect_uri":          {c.redirectURL},
		"client_id":             {c.clientID},
		"scope":                 {strings.Join(scopes, " ")},
		"code_challenge":        {challenge},
		"code_challenge_method": {"S256"},
	}
	if state != "" {
		args.Set("state", state)
	}
	return c.baseURL + "/oauth?" + args.Encode(), verifier, nil
}

// AccessToken exchanges an authorization code for a bearer token.
func (c *Client) AccessToken(ctx context.Context, code, verifier string) (string, error) {
	form := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"code_verifier": {verifier},
		"redirect_uri":  {c.redirectURL},
		"client_id":     {c.clientID},
	}

	raw, err := c.do(ctx, http.MethodPost, "/api/token", "", nil, form)
	if err != nil {
		return "", err
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if body.AccessToken == "" {
		return "", fmt.Errorf("token response contains no access_token")
	}
	return body.AccessToken, nil
}

// CurrentUser fetches the account behind a token. Account and email live on
// separate endpoints and are fetched together.
func (c *Client) CurrentUser(ctx context.Context, token string) (*Account, error) {
	account := &Account{}
	var email struct {
		Email string `json:"email"`
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		raw, err := c.do(gCtx, http.MethodGet, "/api/account", token, nil, nil)
		if err != nil {
			return err
		}
		return json.Unmarshal(raw, account)
	})
	g.Go(func() error {
		raw, err := c.do(gCtx, http.MethodGet, "/api/account/email", token, nil, nil)
		if err != nil {
			return err
		}
		return json.Unmarshal(raw, &email)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	account.Email = email.Email
	return account, nil
}
