package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"notespace/model"
	"notespace/utils"

	"github.com/rs/zerolog/log"
)

type AuthEventType string

const (
	EventSignedIn       AuthEventType = "SIGNED_IN"
	EventSignedOut      AuthEventType = "SIGNED_OUT"
	EventTokenRefreshed AuthEventType = "TOKEN_REFRESHED"
)

// AuthEvent is published whenever the auth client's current session changes.
// Session is nil for EventSignedOut.
type AuthEvent struct {
	Type    AuthEventType
	Session *model.Session
}

// SignUpResult carries the session when the service confirms sign-ups
// automatically; otherwise only the user is known until the email link is
// followed.
type SignUpResult struct {
	User                 model.User
	Session              *model.Session
	ConfirmationRequired bool
}

// AuthClient is the hosted authentication service.
type AuthClient interface {
	SignInWithPassword(ctx context.Context, email, password string) (*model.Session, error)
	SignUp(ctx context.Context, email, password, username string) (*SignUpResult, error)
	// SignOut ends the session of accessToken remotely and drops the local one.
	SignOut(ctx context.Context, accessToken string) error
	RefreshSession(ctx context.Context, refreshToken string) (*model.Session, error)
	GetUser(ctx context.Context, accessToken string) (*model.User, error)
	VerifyOTP(ctx context.Context, tokenHash, verifyType string) (*model.Session, error)
	// SetSession installs a session restored from the cache without an event.
	SetSession(session *model.Session)
	Events() <-chan AuthEvent
}

// GoTrueClient speaks the hosted service's /auth/v1 API. It owns the current
// session the way the browser SDK does, refreshes it shortly before expiry
// and publishes every change on Events.
type GoTrueClient struct {
	baseURL       string
	apiKey        string
	client        *http.Client
	tokens        *TokenParser
	refreshMargin time.Duration

	mu      sync.RWMutex
	current *model.Session

	events chan AuthEvent
}

func NewGoTrueClient(baseURL, apiKey string, timeout, refreshMargin time.Duration, tokens *TokenParser) *GoTrueClient {
	if tokens == nil {
		tokens = NewTokenParser("")
	}
	return &GoTrueClient{
		baseURL:       strings.TrimRight(baseURL, "/") + "/auth/v1",
		apiKey:        apiKey,
		client:        &http.Client{Timeout: timeout},
		tokens:        tokens,
		refreshMargin: refreshMargin,
		events:        make(chan AuthEvent, 32),
	}
}

type gotrueUser struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	CreatedAt    time.Time      `json:"created_at"`
	UserMetadata map[string]any `json:"user_metadata"`
}

type gotrueSession struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	TokenType    string     `json:"token_type"`
	ExpiresIn    int64      `json:"expires_in"`
	ExpiresAt    int64      `json:"expires_at"`
	User         gotrueUser `json:"user"`
}

// gotrueSignUp covers both answers of /signup: a session when sign-ups are
// auto-confirmed, the bare user otherwise.
type gotrueSignUp struct {
	gotrueSession
	ID                 string         `json:"id"`
	Email              string         `json:"email"`
	CreatedAt          time.Time      `json:"created_at"`
	UserMetadata       map[string]any `json:"user_metadata"`
	ConfirmationSentAt *time.Time     `json:"confirmation_sent_at"`
}

type gotrueError struct {
	Code             any    `json:"code"`
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (u gotrueUser) toModel() model.User {
	user := model.User{ID: u.ID, Email: u.Email, CreatedAt: u.CreatedAt}
	if name, ok := u.UserMetadata["username"].(string); ok {
		user.Username = name
	}
	return user
}

func (c *GoTrueClient) toSession(s gotrueSession) *model.Session {
	session := &model.Session{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		TokenType:    s.TokenType,
		User:         s.User.toModel(),
	}
	switch {
	case s.ExpiresAt > 0:
		session.ExpiresAt = time.Unix(s.ExpiresAt, 0)
	case s.ExpiresIn > 0:
		session.ExpiresAt = time.Now().Add(time.Duration(s.ExpiresIn) * time.Second)
	}

	if claims, err := c.tokens.Parse(s.AccessToken); claims != nil {
		if session.ExpiresAt.IsZero() {
			session.ExpiresAt = claims.ExpiresAt
		}
		if session.User.ID == "" {
			session.User.ID = claims.UserID
		}
		if session.User.Email == "" {
			session.User.Email = claims.Email
		}
	} else if err != nil {
		log.Debug().Err(err).Msg("access token claims unreadable")
	}
	return session
}

func (c *GoTrueClient) do(ctx context.Context, method, path string, query url.Values, body any, bearer string, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode auth request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build auth request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer == "" {
		bearer = c.apiKey
	}
	req.Header.Set("Authorization", "Bearer "+bearer)

	timer := utils.TrackRemoteCall(strings.TrimPrefix(path, "/"), "auth")
	resp, err := c.client.Do(req)
	timer.ObserveDuration()
	if err != nil {
		return fmt.Errorf("%w: auth %s: %w", model.ErrOffline, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeAuthError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode auth response: %w", err)
	}
	return nil
}

func decodeAuthError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var body gotrueError
	_ = json.Unmarshal(data, &body)

	remoteErr := &model.RemoteError{Status: resp.StatusCode, Code: body.ErrorCode}
	if remoteErr.Code == "" {
		remoteErr.Code = body.Error
	}
	for _, msg := range []string{body.Msg, body.Message, body.ErrorDescription, body.Error, strings.TrimSpace(string(data))} {
		if msg != "" {
			remoteErr.Message = msg
			break
		}
	}
	if remoteErr.Message == "" {
		remoteErr.Message = http.StatusText(resp.StatusCode)
	}

	if remoteErr.Code == "bad_jwt" || remoteErr.Code == "session_not_found" || remoteErr.Code == "refresh_token_not_found" ||
		remoteErr.Code == "refresh_token_already_used" {
		return fmt.Errorf("%w: %w", model.ErrSessionExpired, remoteErr)
	}
	return remoteErr
}

func (c *GoTrueClient) SignInWithPassword(ctx context.Context, email, password string) (*model.Session, error) {
	var out gotrueSession
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/token", url.Values{"grant_type": {"password"}}, body, "", &out); err != nil {
		return nil, err
	}

	session := c.toSession(out)
	c.install(session, EventSignedIn)
	return session, nil
}

func (c *GoTrueClient) SignUp(ctx context.Context, email, password, username string) (*SignUpResult, error) {
	body := map[string]any{
		"email":    email,
		"password": password,
		"data":     map[string]string{"username": username},
	}

	var out gotrueSignUp
	if err := c.do(ctx, http.MethodPost, "/signup", nil, body, "", &out); err != nil {
		return nil, err
	}

	if out.AccessToken != "" {
		session := c.toSession(out.gotrueSession)
		c.install(session, EventSignedIn)
		return &SignUpResult{User: session.User, Session: session}, nil
	}

	user := gotrueUser{ID: out.ID, Email: out.Email, CreatedAt: out.CreatedAt, UserMetadata: out.UserMetadata}
	if user.ID == "" {
		user = out.User
	}
	return &SignUpResult{User: user.toModel(), ConfirmationRequired: true}, nil
}

// SignOut ends the session remotely. The local session is dropped whatever
// the service answers.
func (c *GoTrueClient) SignOut(ctx context.Context, accessToken string) error {
	c.mu.Lock()
	if accessToken == "" && c.current != nil {
		accessToken = c.current.AccessToken
	}
	c.current = nil
	c.mu.Unlock()

	c.emit(AuthEvent{Type: EventSignedOut})

	if accessToken == "" {
		return nil
	}
	return c.do(ctx, http.MethodPost, "/logout", nil, nil, accessToken, nil)
}

func (c *GoTrueClient) RefreshSession(ctx context.Context, refreshToken string) (*model.Session, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("%w: no refresh token", model.ErrSessionExpired)
	}

	var out gotrueSession
	body := map[string]string{"refresh_token": refreshToken}
	if err := c.do(ctx, http.MethodPost, "/token", url.Values{"grant_type": {"refresh_token"}}, body, "", &out); err != nil {
		utils.TrackAuthAttempt("failure", "refresh")
		return nil, err
	}
	utils.TrackAuthAttempt("success", "refresh")

	session := c.toSession(out)
	c.install(session, EventTokenRefreshed)
	return session, nil
}

func (c *GoTrueClient) GetUser(ctx context.Context, accessToken string) (*model.User, error) {
	if accessToken == "" {
		return nil, model.ErrUnauthenticated
	}

	var out gotrueUser
	if err := c.do(ctx, http.MethodGet, "/user", nil, nil, accessToken, &out); err != nil {
		var remoteErr *model.RemoteError
		if errors.As(err, &remoteErr) && remoteErr.Status == http.StatusUnauthorized {
			return nil, fmt.Errorf("%w: %w", model.ErrSessionExpired, err)
		}
		return nil, err
	}
	user := out.toModel()
	return &user, nil
}

// VerifyOTP confirms an email link (token_hash + type). The service may or
// may not hand back a session.
func (c *GoTrueClient) VerifyOTP(ctx context.Context, tokenHash, verifyType string) (*model.Session, error) {
	body := map[string]string{"token_hash": tokenHash, "type": verifyType}

	var out gotrueSession
	if err := c.do(ctx, http.MethodPost, "/verify", nil, body, "", &out); err != nil {
		return nil, err
	}
	if out.AccessToken == "" {
		return nil, nil
	}

	session := c.toSession(out)
	c.install(session, EventSignedIn)
	return session, nil
}

func (c *GoTrueClient) SetSession(session *model.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if session == nil {
		c.current = nil
		return
	}
	copied := *session
	c.current = &copied
}

func (c *GoTrueClient) Session() *model.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return nil
	}
	copied := *c.current
	return &copied
}

// AccessToken makes the client a token source for the table backends.
func (c *GoTrueClient) AccessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return ""
	}
	return c.current.AccessToken
}

func (c *GoTrueClient) Events() <-chan AuthEvent {
	return c.events
}

func (c *GoTrueClient) install(session *model.Session, evt AuthEventType) {
	c.SetSession(session)
	copied := *session
	c.emit(AuthEvent{Type: evt, Session: &copied})
}

func (c *GoTrueClient) emit(evt AuthEvent) {
	select {
	case c.events <- evt:
	default:
		log.Warn().Str("event", string(evt.Type)).Msg("auth event dropped, no consumer")
	}
}

// AutoRefresh refreshes the current session once it is within the refresh
// margin of expiring, until ctx is done. A refresh rejected by the service
// signs the client out.
func (c *GoTrueClient) AutoRefresh(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.refreshIfDue(ctx)
		}
	}
}

func (c *GoTrueClient) refreshIfDue(ctx context.Context) {
	current := c.Session()
	if current == nil || !current.ExpiresWithin(c.refreshMargin, time.Now()) {
		return
	}

	_, err := c.RefreshSession(ctx, current.RefreshToken)
	if err == nil {
		log.Debug().Str("user_id", current.User.ID).Msg("session refreshed")
		return
	}

	if model.Classify(err) == model.KindOffline {
		// retried on the next tick
		log.Warn().Err(err).Msg("session refresh failed, service unreachable")
		return
	}

	log.Warn().Err(err).Msg("session refresh rejected, signing out")
	c.mu.Lock()
	c.current = nil
	c.mu.Unlock()
	c.emit(AuthEvent{Type: EventSignedOut})
}
