// Package session signs users in and out of Addressable.
//
// Login and logout are the only writers of the keychain. Every other
// component reads the stored basic token through the API client.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/five82/addressable/internal/addressable"
	"github.com/five82/addressable/internal/analytics"
	"github.com/five82/addressable/internal/keychain"
	"github.com/five82/addressable/internal/logging"
)

var (
	// ErrEmptyCredentials is returned when the username or password is blank.
	ErrEmptyCredentials = errors.New("please enter a username and password")
	// ErrInvalidCredentials is returned when /auth rejects the credentials.
	ErrInvalidCredentials = errors.New("incorrect username or password")
	// ErrNotLoggedIn is returned by Current when no user is stored.
	ErrNotLoggedIn = errors.New("not logged in")
)

// Options configures a Manager.
type Options struct {
	API       addressable.API
	Keychain  keychain.Store
	Analytics analytics.Sink
	Logger    logging.Logger
	// NewDeviceID generates the device id registered at mobile login.
	NewDeviceID func() string
}

// Manager runs the login and logout flows.
type Manager struct {
	api      addressable.API
	keys     keychain.Store
	events   analytics.Sink
	log      logging.Logger
	deviceID func() string
}

// Session describes a signed-in user.
type Session struct {
	User     addressable.User
	DeviceID string
	// Identity is the server's name for the registered device.
	Identity string
	// TokenExpiry is when the device access token expires, zero if the
	// token carries no expiry.
	TokenExpiry time.Time
}

// New returns a Manager. API and Keychain are required.
func New(opts Options) (*Manager, error) {
	if opts.API == nil {
		return nil, errors.New("session: api is required")
	}
	if opts.Keychain == nil {
		return nil, errors.New("session: keychain is required")
	}
	if opts.Analytics == nil {
		opts.Analytics = analytics.Nop{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	if opts.NewDeviceID == nil {
		opts.NewDeviceID = uuid.NewString
	}
	return &Manager{
		api:      opts.API,
		keys:     opts.Keychain,
		events:   opts.Analytics,
		log:      opts.Logger,
		deviceID: opts.NewDeviceID,
	}, nil
}

// Login authenticates username and password, stores the basic token and the
// user record, then registers this device for a mobile access token. Any
// failure after authentication rolls the keychain back.
func (m *Manager) Login(ctx context.Context, username, password string) (*Session, error) {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)
	if username == "" || password == "" {
		return nil, ErrEmptyCredentials
	}

	token := addressable.BasicToken(username, password)
	user, err := m.api.Authenticate(ctx, token)
	if err != nil {
		m.events.Record(ctx, analytics.LoginFailed, nil)
		m.log.Warn(ctx, "login failed", "user", username, "error", err)
		if errors.Is(err, addressable.ErrUnauthorized) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	sess, err := m.store(ctx, token, user)
	if err != nil {
		if clearErr := keychain.Clear(m.keys); clearErr != nil {
			m.log.Error(ctx, "failed to roll back keychain", "error", clearErr)
		}
		m.events.Record(ctx, analytics.LoginFailed, nil)
		return nil, err
	}

	m.events.Record(ctx, analytics.LoginSuccess, map[string]any{"user_id": user.ID})
	m.log.Info(ctx, "logged in", "user_id", user.ID, "device_id", sess.DeviceID)
	return sess, nil
}

func (m *Manager) store(ctx context.Context, token string, user *addressable.User) (*Session, error) {
	if err := m.keys.Set(keychain.KeyBasicAuthToken, token); err != nil {
		return nil, fmt.Errorf("store token: %w", err)
	}
	data, err := json.Marshal(user)
	if err != nil {
		return nil, fmt.Errorf("encode user: %w", err)
	}
	if err := m.keys.Set(keychain.KeyUserData, string(data)); err != nil {
		return nil, fmt.Errorf("store user: %w", err)
	}

	deviceID := m.deviceID()
	mobile, err := m.api.MobileLogin(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("register device: %w", err)
	}
	if mobile.JWTToken == "" {
		return nil, errors.New("register device: empty access token")
	}
	if err := m.keys.Set(keychain.KeyMobileIdentity, deviceID); err != nil {
		return nil, fmt.Errorf("store device id: %w", err)
	}

	sess := &Session{User: *user, DeviceID: deviceID}
	if mobile.Identity != nil {
		sess.Identity = *mobile.Identity
	}
	expiry, err := TokenExpiry(mobile.JWTToken)
	if err != nil {
		m.log.Warn(ctx, "could not read access token expiry", "error", err)
	}
	sess.TokenExpiry = expiry
	return sess, nil
}

// Logout ends the device session on the server and clears the keychain. The
// keychain is cleared even when the server call fails.
func (m *Manager) Logout(ctx context.Context) error {
	var errs []error
	if _, err := m.api.MobileLogout(ctx); err != nil {
		m.log.Warn(ctx, "mobile logout failed", "error", err)
		errs = append(errs, fmt.Errorf("mobile logout: %w", err))
	}
	if err := keychain.Clear(m.keys); err != nil {
		errs = append(errs, fmt.Errorf("clear keychain: %w", err))
	}
	m.events.Record(ctx, analytics.LogoutSuccess, nil)
	m.log.Info(ctx, "logged out")
	return errors.Join(errs...)
}

// ForceLogout clears the keychain after the server rejected the stored
// token. No request is made.
func (m *Manager) ForceLogout(ctx context.Context) error {
	m.events.Record(ctx, analytics.UnauthorizedLogout, nil)
	m.log.Warn(ctx, "stored credentials rejected, logging out")
	return keychain.Clear(m.keys)
}

// Current returns the stored user.
func (m *Manager) Current() (*addressable.User, error) {
	raw, ok, err := m.keys.Get(keychain.KeyUserData)
	if err != nil {
		return nil, fmt.Errorf("read user: %w", err)
	}
	if !ok || raw == "" {
		return nil, ErrNotLoggedIn
	}
	var user addressable.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	return &user, nil
}

// LoggedIn reports whether a basic token is stored.
func (m *Manager) LoggedIn() bool {
	token, ok, err := m.keys.Get(keychain.KeyBasicAuthToken)
	return err == nil && ok && token != ""
}

// TokenExpiry reads the exp claim of a device access token. The signature is
// not checked; the server is the only party that can verify it.
func TokenExpiry(token string) (time.Time, error) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, fmt.Errorf("parse access token: %w", err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, nil
	}
	return claims.ExpiresAt.Time, nil
}
