package session

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/careguardian/careguardian-api/internal/apperr"
	"github.com/careguardian/careguardian-api/internal/geo"
	"github.com/careguardian/careguardian-api/internal/model"
	"github.com/careguardian/careguardian-api/internal/utils"
)

// ErrInvalidCredentials is the single login failure. It does not say
// whether the username exists.
var ErrInvalidCredentials = fmt.Errorf("invalid credentials: %w", apperr.ErrAuthenticationRequired)

// NewAccount is what registration persists in one unit: the user and, for
// the hospital and ambulance roles, the directory row they operate.
type NewAccount struct {
	User      model.User
	Hospital  *model.Hospital
	Ambulance *model.Ambulance
}

// UserStore is the credential-record side of persistence. Lookups return
// apperr.ErrNotFound when absent; CreateAccount returns apperr.ErrConflict
// when the username or email is already taken.
type UserStore interface {
	CreateAccount(ctx context.Context, acct NewAccount) (model.User, error)
	GetByUsername(ctx context.Context, username string) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// SessionStore holds live sessions. Create must be atomic and fail with
// apperr.ErrConflict if the id exists. Get returns apperr.ErrNotFound for
// absent sessions. Delete of an absent session is not an error.
type SessionStore interface {
	Create(ctx context.Context, s model.Session) error
	Get(ctx context.Context, id string) (model.Session, error)
	Delete(ctx context.Context, id string) error
}

// Hasher is the credential service.
type Hasher interface {
	Hash(plain string) (string, error)
	Verify(stored, plain string) (bool, error)
}

// Observer receives auth outcomes for metrics. May be nil.
type Observer interface {
	ObserveLogin(outcome string)
}

// Gate authenticates requests and manages the session lifecycle.
//
// Register validates the payload, persists the account (plus the hospital or
// ambulance row for operator roles) and opens a session. Login verifies the
// password hash and opens a new session on every call; every failure is
// ErrInvalidCredentials, and unknown usernames still pay for one hash
// verification. Sessions live for a fixed ttl from creation and are not
// extended by use. Authenticate resolves a session ID to an Identity and
// Logout deletes it, succeeding when it is already gone.
//
// The Gate holds no per-request state and is safe for concurrent use.
type Gate struct {
	users    UserStore
	sessions SessionStore
	hasher   Hasher
	ttl      time.Duration
	log      zerolog.Logger
	observer Observer
	now      func() time.Time

	dummyOnce sync.Once
	dummy     string
	dummyErr  error
}

type Option func(*Gate)

func WithClock(now func() time.Time) Option { return func(g *Gate) { g.now = now } }
func WithObserver(o Observer) Option       { return func(g *Gate) { g.observer = o } }

// NewGate wires a gate. ttl is the fixed session lifetime.
func NewGate(users UserStore, sessions SessionStore, hasher Hasher, ttl time.Duration, log zerolog.Logger, opts ...Option) *Gate {
	g := &Gate{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		ttl:      ttl,
		log:      log.With().Str("component", "session").Logger(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// RegisterInput is the registration payload after HTTP decoding.
type RegisterInput struct {
	Username      string
	Password      string
	Email         string
	Role          string
	FullName      string
	Phone         string
	Address       string
	City          string
	State         string
	VehicleNumber string

	// Latitude and Longitude optionally place a hospital on the map so it
	// shows up in proximity search. Both or neither.
	Latitude  *float64
	Longitude *float64
}

// Register validates and creates the account, then opens a session for it.
func (g *Gate) Register(ctx context.Context, in RegisterInput) (model.User, Identity, error) {
	acct, password, err := g.validateRegistration(in)
	if err != nil {
		return model.User{}, Identity{}, err
	}

	if _, err := g.users.GetByUsername(ctx, acct.User.Username); err == nil {
		return model.User{}, Identity{}, apperr.Validation("username", "username already exists")
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return model.User{}, Identity{}, fmt.Errorf("lookup username: %w", err)
	}
	if _, err := g.users.GetByEmail(ctx, acct.User.Email); err == nil {
		return model.User{}, Identity{}, apperr.Validation("email", "email already exists")
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return model.User{}, Identity{}, fmt.Errorf("lookup email: %w", err)
	}

	hash, err := g.hasher.Hash(password)
	if err != nil {
		return model.User{}, Identity{}, fmt.Errorf("hash password: %w", err)
	}
	acct.User.PasswordHash = hash

	user, err := g.users.CreateAccount(ctx, acct)
	if errors.Is(err, apperr.ErrConflict) {
		// lost a race with a concurrent registration
		return model.User{}, Identity{}, apperr.Validation("username", "username or email already exists")
	}
	if err != nil {
		return model.User{}, Identity{}, fmt.Errorf("create account: %w", err)
	}

	id, err := g.open(ctx, user)
	if err != nil {
		return model.User{}, Identity{}, err
	}
	g.log.Info().Uint64("user_id", user.ID).Str("role", string(user.Role)).Msg("account registered")
	return user, id, nil
}

func (g *Gate) validateRegistration(in RegisterInput) (NewAccount, string, error) {
	username := strings.TrimSpace(in.Username)
	if n := len(username); n < 3 || n > 50 {
		return NewAccount{}, "", apperr.Validation("username", "must be between 3 and 50 characters")
	}
	if len(in.Password) < 8 {
		return NewAccount{}, "", apperr.Validation("password", "must be at least 8 characters long")
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return NewAccount{}, "", apperr.Validation("email", "invalid email format")
	}
	role := model.Role(strings.ToLower(strings.TrimSpace(in.Role)))
	if role == "" {
		role = model.RoleUser
	}
	if !role.Valid() {
		return NewAccount{}, "", apperr.Validation("role", "must be one of user, hospital, ambulance")
	}

	acct := NewAccount{User: model.User{
		Username: username,
		Email:    email,
		Role:     role,
		FullName: strings.TrimSpace(in.FullName),
		Phone:    strings.TrimSpace(in.Phone),
		City:     strings.TrimSpace(in.City),
		State:    strings.TrimSpace(in.State),
	}}

	switch role {
	case model.RoleHospital:
		address := strings.TrimSpace(in.Address)
		if address == "" || acct.User.City == "" || acct.User.State == "" {
			return NewAccount{}, "", apperr.Validation("address", "address, city and state are required for hospital registration")
		}
		name := acct.User.FullName
		if name == "" {
			name = username
		}
		if (in.Latitude == nil) != (in.Longitude == nil) {
			return NewAccount{}, "", apperr.Validation("latitude", "latitude and longitude must be given together")
		}
		if in.Latitude != nil {
			if err := geo.ValidateCoordinates(*in.Latitude, *in.Longitude); err != nil {
				return NewAccount{}, "", err
			}
		}
		acct.Hospital = &model.Hospital{
			Name:              name,
			Address:           address,
			City:              acct.User.City,
			State:             acct.User.State,
			Phone:             acct.User.Phone,
			Latitude:          in.Latitude,
			Longitude:         in.Longitude,
			EmergencyServices: true,
		}
	case model.RoleAmbulance:
		v := strings.TrimSpace(in.VehicleNumber)
		if v == "" {
			return NewAccount{}, "", apperr.Validation("vehicle_number", "required for ambulance registration")
		}
		acct.Ambulance = &model.Ambulance{
			VehicleNumber: v,
			Status:        model.AmbulanceAvailable,
			DriverName:    acct.User.FullName,
			DriverPhone:   acct.User.Phone,
		}
	}
	return acct, in.Password, nil
}

// Login verifies the credential and opens a fixed-lifetime session.
func (g *Gate) Login(ctx context.Context, username, password string) (Identity, error) {
	user, err := g.users.GetByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, apperr.ErrNotFound) {
		// burn the same work as a real verification
		if _, verr := g.verifyDummy(password); verr != nil {
			return Identity{}, verr
		}
		g.observe("invalid")
		return Identity{}, ErrInvalidCredentials
	}
	if err != nil {
		return Identity{}, fmt.Errorf("lookup user: %w", err)
	}

	ok, err := g.hasher.Verify(user.PasswordHash, password)
	if err != nil {
		return Identity{}, fmt.Errorf("verify credential: %w", err)
	}
	if !ok {
		g.observe("invalid")
		return Identity{}, ErrInvalidCredentials
	}

	id, err := g.open(ctx, user)
	if err != nil {
		return Identity{}, err
	}
	g.observe("success")
	return id, nil
}

func (g *Gate) verifyDummy(password string) (bool, error) {
	g.dummyOnce.Do(func() {
		g.dummy, g.dummyErr = g.hasher.Hash("careguardian-timing-equalizer")
	})
	if g.dummyErr != nil {
		return false, fmt.Errorf("hash password: %w", g.dummyErr)
	}
	return g.hasher.Verify(g.dummy, password)
}

func (g *Gate) open(ctx context.Context, user model.User) (Identity, error) {
	sid, err := utils.NewSessionID()
	if err != nil {
		return Identity{}, fmt.Errorf("session id: %w", err)
	}
	now := g.now()
	s := model.Session{ID: sid, UserID: user.ID, CreatedAt: now, ExpiresAt: now.Add(g.ttl)}
	if err := g.sessions.Create(ctx, s); err != nil {
		return Identity{}, fmt.Errorf("create session: %w", err)
	}
	return Identity{SessionID: sid, UserID: user.ID, Username: user.Username, Role: user.Role, ExpiresAt: s.ExpiresAt}, nil
}

// Authenticate resolves a session id to an Identity. A missing, unknown or
// expired session, or one whose user no longer exists, yields
// apperr.ErrAuthenticationRequired.
func (g *Gate) Authenticate(ctx context.Context, sessionID string) (Identity, error) {
	if sessionID == "" {
		return Identity{}, apperr.ErrAuthenticationRequired
	}
	s, err := g.sessions.Get(ctx, sessionID)
	if errors.Is(err, apperr.ErrNotFound) {
		return Identity{}, apperr.ErrAuthenticationRequired
	}
	if err != nil {
		return Identity{}, fmt.Errorf("load session: %w", err)
	}
	if s.Expired(g.now()) {
		if err := g.sessions.Delete(ctx, sessionID); err != nil {
			g.log.Warn().Err(err).Msg("drop expired session")
		}
		return Identity{}, apperr.ErrAuthenticationRequired
	}

	user, err := g.users.GetByID(ctx, s.UserID)
	if errors.Is(err, apperr.ErrNotFound) {
		return Identity{}, apperr.ErrAuthenticationRequired
	}
	if err != nil {
		return Identity{}, fmt.Errorf("load session subject: %w", err)
	}
	return Identity{SessionID: s.ID, UserID: user.ID, Username: user.Username, Role: user.Role, ExpiresAt: s.ExpiresAt}, nil
}

// Logout destroys the session. Logging out twice, or with no session, is fine.
func (g *Gate) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := g.sessions.Delete(ctx, sessionID); err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// CurrentUser loads the full user record behind an identity.
func (g *Gate) CurrentUser(ctx context.Context, id Identity) (model.User, error) {
	u, err := g.users.GetByID(ctx, id.UserID)
	if errors.Is(err, apperr.ErrNotFound) {
		return model.User{}, apperr.ErrAuthenticationRequired
	}
	return u, err
}

func (g *Gate) observe(outcome string) {
	if g.observer != nil {
		g.observer.ObserveLogin(outcome)
	}
}
