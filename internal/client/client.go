// internal/client/client.go
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"booknest/internal/auth"
	"booknest/internal/result"
	"booknest/internal/session"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrSignedOut is returned by calls that need a session when none is held.
var ErrSignedOut = errors.New("not signed in")

// Client talks to a booknest server over HTTP on behalf of one user. It keeps
// that user's session and refreshes it when the access token lapses.
type Client struct {
	baseURL string
	http    *http.Client
	session *session.Machine
	log     *zap.SugaredLogger
}

func New(baseURL string, httpClient *http.Client, log *zap.SugaredLogger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL: baseURL,
		http:    httpClient,
		session: session.NewMachine(time.Now),
		log:     log,
	}
}

// Session returns the held session and its state.
func (c *Client) Session() (*session.Session, session.State) {
	return c.session.Current()
}

func (c *Client) SignUp(ctx context.Context, in auth.SignUpInput) (*session.Session, error) {
	return c.establish(ctx, "/api/auth/signup", in)
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*session.Session, error) {
	return c.establish(ctx, "/api/auth/signin", map[string]string{
		"email":    email,
		"password": password,
	})
}

// VerifyOTP completes a one-time-code sign-in started with RequestOTP.
func (c *Client) VerifyOTP(ctx context.Context, email, code string) (*session.Session, error) {
	return c.establish(ctx, "/api/auth/verify", map[string]string{
		"email": email,
		"token": code,
	})
}

func (c *Client) RequestOTP(ctx context.Context, email string) error {
	return c.send(ctx, http.MethodPost, "/api/auth/otp", "", map[string]string{"email": email}, nil)
}

func (c *Client) establish(ctx context.Context, path string, body any) (*session.Session, error) {
	if err := c.session.Begin(); err != nil {
		return nil, err
	}
	var sess *session.Session
	if err := c.send(ctx, http.MethodPost, path, "", body, &sess); err != nil {
		_ = c.session.Fail()
		return nil, err
	}
	if err := c.session.Establish(sess); err != nil {
		return nil, err
	}
	c.log.Debugw("Session established", "user_id", sess.UserID)
	return sess, nil
}

// SignOut revokes the session on the server and forgets it locally. The local
// session is cleared even when the server call fails.
func (c *Client) SignOut(ctx context.Context) error {
	defer c.session.Clear()
	token, err := c.token(ctx)
	if err != nil {
		return err
	}
	return c.send(ctx, http.MethodPost, "/api/auth/signout", token, nil, nil)
}

// Refresh trades the refresh token for a new session.
func (c *Client) Refresh(ctx context.Context) (*session.Session, error) {
	current, _ := c.session.Current()
	if current == nil || current.RefreshToken == "" {
		return nil, ErrSignedOut
	}
	var sess *session.Session
	err := c.send(ctx, http.MethodPost, "/api/auth/refresh", "", map[string]string{
		"refresh_token": current.RefreshToken,
	}, &sess)
	if err != nil {
		if result.KindOf(err) == result.KindUnauthorized {
			c.session.Clear()
		}
		return nil, err
	}
	if err := c.session.Establish(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// token returns a usable access token, refreshing an expired session first.
func (c *Client) token(ctx context.Context) (string, error) {
	sess, state := c.session.Current()
	switch state {
	case session.Authenticated:
		return sess.AccessToken, nil
	case session.Expired:
		fresh, err := c.Refresh(ctx)
		if err != nil {
			return "", err
		}
		return fresh.AccessToken, nil
	default:
		return "", ErrSignedOut
	}
}

// call performs an authenticated request and decodes the envelope into out.
func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}
	return c.send(ctx, method, path, token, body, out)
}

type envelope struct {
	Success bool                `json:"success"`
	Data    jsoniter.RawMessage `json:"data"`
	Error   string              `json:"error"`
	Kind    result.Kind         `json:"kind"`
}

func (c *Client) send(ctx context.Context, method, path, token string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if resp.StatusCode == http.StatusUnauthorized {
			return result.Unauthorized("%s", e.Error)
		}
		return fmt.Errorf("unexpected status code: %d: %s", resp.StatusCode, e.Error)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if !env.Success {
		return &result.Error{Kind: env.Kind, Message: env.Error}
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode data: %w", err)
		}
	}
	return nil
}
