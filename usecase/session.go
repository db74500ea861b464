package usecase

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"notespace/model"
	"notespace/repository"
	"notespace/services"
	"notespace/utils"

	"github.com/rs/zerolog/log"
)

const (
	DefaultConnectivityInterval = 30 * time.Second
	DefaultRefreshMargin        = 60 * time.Second

	msgConnectionLost     = "Connection lost. Unable to reach the server."
	msgConnectionRestored = "Connection restored"
	msgSessionExpired     = "Your session has expired. Please sign in again."
)

type SessionManagerOptions struct {
	ConnectivityInterval time.Duration
	RefreshMargin        time.Duration
}

// SessionManager owns the signed-in identity and the connectivity flag. It
// restores the cached session on Start, follows the auth client's events
// and polls the remote service for reachability.
type SessionManager struct {
	auth     services.AuthClient
	profiles repository.ProfileTable
	pinger   repository.Pinger
	cache    services.SessionCache
	revoked  services.RevokedTokens
	notifier services.Notifier

	interval      time.Duration
	refreshMargin time.Duration
	now           func() time.Time

	mu        sync.RWMutex
	state     model.SessionState
	session   *model.Session
	loading   bool
	connected bool
	listeners []func(*model.Session)
}

func NewSessionManager(auth services.AuthClient, profiles repository.ProfileTable, pinger repository.Pinger,
	cache services.SessionCache, revoked services.RevokedTokens, notifier services.Notifier, opts SessionManagerOptions) *SessionManager {
	if opts.ConnectivityInterval <= 0 {
		opts.ConnectivityInterval = DefaultConnectivityInterval
	}
	if opts.RefreshMargin <= 0 {
		opts.RefreshMargin = DefaultRefreshMargin
	}
	if cache == nil {
		cache = services.NewMemorySessionCache()
	}
	if revoked == nil {
		revoked = services.NewMemoryTokenBlacklist()
	}
	return &SessionManager{
		auth:          auth,
		profiles:      profiles,
		pinger:        pinger,
		cache:         cache,
		revoked:       revoked,
		notifier:      notifier,
		interval:      opts.ConnectivityInterval,
		refreshMargin: opts.RefreshMargin,
		now:           time.Now,
		state:         model.SessionUninitialized,
		loading:       true,
		connected:     true,
	}
}

// OnChange registers fn to run whenever the signed-in identity changes.
// fn receives nil on sign-out and expiry.
func (m *SessionManager) OnChange(fn func(*model.Session)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

func (m *SessionManager) fireChange(session *model.Session) {
	m.mu.RLock()
	listeners := make([]func(*model.Session), len(m.listeners))
	copy(listeners, m.listeners)
	m.mu.RUnlock()

	for _, fn := range listeners {
		var copied *model.Session
		if session != nil {
			s := *session
			copied = &s
		}
		fn(copied)
	}
}

func (m *SessionManager) notify(level model.NotificationLevel, message string) {
	if m.notifier != nil && message != "" {
		m.notifier.Notify(level, message)
	}
}

// Start resolves the initial session and launches the event consumer and
// the connectivity poll. Both stop when ctx is done.
func (m *SessionManager) Start(ctx context.Context) {
	m.mu.Lock()
	m.state = model.SessionLoading
	m.loading = true
	m.mu.Unlock()

	session := m.restore(ctx)
	m.resolve(session)

	go m.consumeEvents(ctx)
	go m.pollConnectivity(ctx)
}

// resolve ends the loading phase with session (nil for anonymous).
func (m *SessionManager) resolve(session *model.Session) {
	m.mu.Lock()
	m.session = session
	m.loading = false
	if session != nil {
		m.state = model.SessionAuthenticated
	} else {
		m.state = model.SessionAnonymous
	}
	m.mu.Unlock()

	m.auth.SetSession(session)
	if session != nil {
		log.Info().Str("user_id", session.User.ID).Msg("session restored")
		m.fireChange(session)
	}
}

// restore loads the cached session and makes sure it is still usable. A
// token near expiry or rejected by the service is refreshed once.
func (m *SessionManager) restore(ctx context.Context) *model.Session {
	cached, err := m.cache.Load(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("failed to load cached session")
		return nil
	}
	if !cached.Valid() {
		return nil
	}

	revoked, err := m.revoked.IsRevoked(ctx, cached.AccessToken)
	if err != nil {
		log.Warn().Err(err).Msg("failed to check revoked tokens")
	}
	if revoked {
		log.Info().Str("user_id", cached.User.ID).Msg("cached session was signed out")
		m.clearCache(ctx)
		return nil
	}

	if cached.ExpiresWithin(m.refreshMargin, m.now()) {
		return m.refreshCached(ctx, cached)
	}

	user, err := m.auth.GetUser(ctx, cached.AccessToken)
	switch model.Classify(err) {
	case model.KindNone:
		if user.Username == "" {
			user.Username = cached.User.Username
		}
		cached.User = *user
		m.saveCache(ctx, cached)
		return cached
	case model.KindOffline:
		// keep it, the refresh loop takes over once reachable
		log.Warn().Err(err).Msg("auth service unreachable, using cached session")
		return cached
	case model.KindSessionExpired:
		return m.refreshCached(ctx, cached)
	default:
		log.Warn().Err(err).Msg("cached session rejected")
		m.clearCache(ctx)
		return nil
	}
}

func (m *SessionManager) refreshCached(ctx context.Context, cached *model.Session) *model.Session {
	refreshed, err := m.auth.RefreshSession(ctx, cached.RefreshToken)
	if err == nil {
		refreshed.DeviceInfo = cached.DeviceInfo
		m.saveCache(ctx, refreshed)
		return refreshed
	}
	if model.Classify(err) == model.KindOffline && !cached.ExpiresWithin(0, m.now()) {
		return cached
	}
	log.Info().Err(err).Msg("cached session could not be refreshed")
	m.clearCache(ctx)
	return nil
}

func (m *SessionManager) saveCache(ctx context.Context, session *model.Session) {
	if err := m.cache.Save(ctx, session); err != nil {
		log.Warn().Err(err).Msg("failed to cache session")
	}
}

func (m *SessionManager) clearCache(ctx context.Context) {
	if err := m.cache.Clear(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to clear cached session")
	}
}

func (m *SessionManager) consumeEvents(ctx context.Context) {
	events := m.auth.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			m.HandleEvent(ctx, evt)
		}
	}
}

// HandleEvent applies one auth event. Events that only echo a change this
// manager already made are ignored.
func (m *SessionManager) HandleEvent(ctx context.Context, evt services.AuthEvent) {
	switch evt.Type {
	case services.EventSignedIn, services.EventTokenRefreshed:
		if !evt.Session.Valid() {
			return
		}
		m.mu.RLock()
		current := m.session
		m.mu.RUnlock()
		if current != nil && current.AccessToken == evt.Session.AccessToken {
			return
		}
		if current != nil && evt.Session.DeviceInfo == "" {
			evt.Session.DeviceInfo = current.DeviceInfo
		}
		log.Debug().Str("event", string(evt.Type)).Str("user_id", evt.Session.User.ID).Msg("auth event")
		m.install(ctx, evt.Session)

	case services.EventSignedOut:
		m.mu.RLock()
		signedIn := m.session != nil
		m.mu.RUnlock()
		if signedIn {
			m.Expire(ctx)
		}
	}
}

// install replaces the current session. Listeners run only when the
// identity changed, not on a plain token refresh.
func (m *SessionManager) install(ctx context.Context, session *model.Session) {
	copied := *session

	m.mu.Lock()
	previous := m.session
	m.session = &copied
	m.state = model.SessionAuthenticated
	m.loading = false
	m.mu.Unlock()

	m.saveCache(ctx, &copied)
	if previous == nil || previous.User.ID != copied.User.ID {
		m.fireChange(&copied)
	}
}

// clear drops the session locally and returns what was there.
func (m *SessionManager) clear(ctx context.Context) *model.Session {
	m.mu.Lock()
	previous := m.session
	m.session = nil
	m.state = model.SessionAnonymous
	m.loading = false
	m.mu.Unlock()

	m.auth.SetSession(nil)
	m.clearCache(ctx)
	if previous != nil {
		m.fireChange(nil)
	}
	return previous
}

// Expire is the re-authentication path taken when the service rejects the
// session. Everything is cleared and the user is asked to sign in again.
func (m *SessionManager) Expire(ctx context.Context) {
	previous := m.clear(ctx)
	utils.TrackError("session", string(model.KindSessionExpired))
	if previous == nil {
		return
	}
	log.Info().Str("user_id", previous.User.ID).Msg("session expired")
	m.notify(model.LevelError, msgSessionExpired)
}

func (m *SessionManager) requireConnected(authType string) error {
	if m.Connected() {
		return nil
	}
	utils.TrackAuthAttempt("failure", authType)
	m.notify(model.LevelError, model.UserMessage(model.ErrOffline))
	return fmt.Errorf("%w: %s skipped", model.ErrOffline, authType)
}

func (m *SessionManager) authFailed(authType string, err error) error {
	utils.TrackAuthAttempt("failure", authType)
	log.Warn().Err(err).Str("type", authType).Msg("authentication failed")
	m.notify(model.LevelError, model.UserMessage(err))
	return err
}

// SignIn signs in with email and password. userAgent labels the session.
func (m *SessionManager) SignIn(ctx context.Context, creds model.Credentials, userAgent string) (*model.Session, error) {
	if err := m.requireConnected("signin"); err != nil {
		return nil, err
	}

	email := strings.TrimSpace(strings.ToLower(creds.Email))
	session, err := m.auth.SignInWithPassword(ctx, email, creds.Password)
	if err != nil {
		return nil, m.authFailed("signin", err)
	}

	session.DeviceInfo = utils.DeviceLabel(userAgent)
	m.install(ctx, session)

	utils.TrackAuthAttempt("success", "signin")
	log.Info().Str("user_id", session.User.ID).Str("device", session.DeviceInfo).Msg("signed in")
	m.notify(model.LevelSuccess, "Welcome back!")

	copied := *session
	return &copied, nil
}

// SignUp registers a new account. The username must be free in profiles
// and the password typed twice.
func (m *SessionManager) SignUp(ctx context.Context, in model.SignUpInput, userAgent string) (*services.SignUpResult, error) {
	if err := m.requireConnected("signup"); err != nil {
		return nil, err
	}

	if in.Password != in.ConfirmPassword {
		return nil, m.authFailed("signup", model.Invalid("Passwords do not match"))
	}

	username := strings.TrimSpace(in.Username)
	taken, err := m.profiles.UsernameTaken(ctx, username)
	if err != nil {
		return nil, m.authFailed("signup", err)
	}
	if taken {
		return nil, m.authFailed("signup", &model.RemoteError{
			Status:  http.StatusConflict,
			Code:    "username_taken",
			Message: "Username is already taken",
		})
	}

	email := strings.TrimSpace(strings.ToLower(in.Email))
	result, err := m.auth.SignUp(ctx, email, in.Password, username)
	if err != nil {
		return nil, m.authFailed("signup", err)
	}
	utils.TrackAuthAttempt("success", "signup")

	if result.Session != nil {
		result.Session.DeviceInfo = utils.DeviceLabel(userAgent)
		m.install(ctx, result.Session)
		m.notify(model.LevelSuccess, "Sign up successful!")
		return result, nil
	}

	m.notify(model.LevelSuccess, "Sign up successful! Please check your email to verify your account.")
	return result, nil
}

// SignOut always ends the local session; a failing remote logout is only
// logged. The access token is remembered as revoked until it expires.
func (m *SessionManager) SignOut(ctx context.Context) error {
	if err := m.requireConnected("signout"); err != nil {
		return err
	}

	previous := m.clear(ctx)
	var token string
	if previous != nil {
		token = previous.AccessToken
		if err := m.revoked.Revoke(ctx, token, previous.ExpiresAt); err != nil {
			log.Warn().Err(err).Msg("failed to revoke access token")
		}
	}

	if err := m.auth.SignOut(ctx, token); err != nil {
		log.Warn().Err(err).Msg("remote sign out failed")
	}

	if previous != nil {
		log.Info().Str("user_id", previous.User.ID).Msg("signed out")
	}
	m.notify(model.LevelSuccess, "Signed out successfully")
	return nil
}

// ConfirmEmail completes the email link flow with the token_hash and type
// query parameters of the link.
func (m *SessionManager) ConfirmEmail(ctx context.Context, tokenHash, verifyType string) error {
	tokenHash = strings.TrimSpace(tokenHash)
	verifyType = strings.TrimSpace(verifyType)
	if tokenHash == "" || verifyType == "" {
		err := model.Invalid("Invalid confirmation link.")
		utils.TrackAuthAttempt("failure", "confirm")
		m.notify(model.LevelError, "Invalid confirmation link.")
		return err
	}

	session, err := m.auth.VerifyOTP(ctx, tokenHash, verifyType)
	if err != nil {
		utils.TrackAuthAttempt("failure", "confirm")
		log.Warn().Err(err).Msg("email confirmation failed")
		m.notify(model.LevelError, "Failed to confirm email. Please try again or contact support.")
		return err
	}
	utils.TrackAuthAttempt("success", "confirm")

	if session != nil {
		m.install(ctx, session)
	}
	m.notify(model.LevelSuccess, "Email confirmed successfully!")
	return nil
}

// CheckConnectivity issues one reachability query and notifies on edges
// only. Any answer from the service, even a rejection, counts as reachable.
func (m *SessionManager) CheckConnectivity(ctx context.Context) bool {
	err := m.pinger.Ping(ctx)
	if ctx.Err() != nil {
		return m.Connected()
	}
	connected := model.Classify(err) != model.KindOffline

	m.mu.Lock()
	changed := connected != m.connected
	m.connected = connected
	m.mu.Unlock()

	utils.SetConnected(connected)
	if !changed {
		return connected
	}

	if connected {
		log.Info().Msg("remote service reachable again")
		m.notify(model.LevelSuccess, msgConnectionRestored)
	} else {
		log.Warn().Err(err).Msg("remote service unreachable")
		m.notify(model.LevelError, msgConnectionLost)
	}
	return connected
}

func (m *SessionManager) pollConnectivity(ctx context.Context) {
	m.CheckConnectivity(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.CheckConnectivity(ctx)
		}
	}
}

func (m *SessionManager) State() model.SessionState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

func (m *SessionManager) Session() *model.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session == nil {
		return nil
	}
	copied := *m.session
	return &copied
}

func (m *SessionManager) User() *model.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session == nil {
		return nil
	}
	user := m.session.User
	return &user
}

func (m *SessionManager) Loading() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loading
}

func (m *SessionManager) Connected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

func (m *SessionManager) AccessToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session == nil {
		return ""
	}
	return m.session.AccessToken
}
