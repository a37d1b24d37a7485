package token

import (
	"bytes"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrExpired is returned by ParseAccess and ParseRefresh when the token
// signature is valid but the exp claim is in the past.
var ErrExpired = errors.New("token expired")

// ErrInvalid is returned for any other verification failure: bad signature,
// wrong issuer or audience, malformed token, or unexpected algorithm.
var ErrInvalid = errors.New("token invalid")

// Config defines signing and validation parameters for both token families.
//
// AccessSecret and RefreshSecret must differ: compromise of one family's key
// must never allow forging the other.
type Config struct {
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	AccessSecret  []byte
	RefreshSecret []byte
	Issuer        string
	Audience      string
	Leeway        time.Duration
	RequireIAT    bool
	MaxFutureIAT  time.Duration
}

// Manager signs and verifies access and refresh claims. Safe for concurrent
// use after construction.
type Manager struct {
	config Config
}

// AccessClaims is the claim set carried by access tokens. It is ephemeral and
// never persisted; validity is determined solely by signature, issuer,
// audience, and expiry.
type AccessClaims struct {
	UID   string `json:"uid"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// RefreshClaims is the claim set embedded in refresh tokens. TokenVersion
// anchors the token to one refresh chain; a mismatch against the stored
// session record signals replay or supersession.
type RefreshClaims struct {
	UID          string `json:"uid"`
	TokenVersion int64  `json:"tv"`
	jwt.RegisteredClaims
}

const minSecretSize = 32

// NewManager validates cfg and returns a [Manager].
func NewManager(cfg Config) (*Manager, error) {
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if len(cfg.AccessSecret) < minSecretSize {
		return nil, errors.New("access secret too short")
	}
	if len(cfg.RefreshSecret) < minSecretSize {
		return nil, errors.New("refresh secret too short")
	}
	if bytes.Equal(cfg.AccessSecret, cfg.RefreshSecret) {
		return nil, errors.New("access and refresh secrets must differ")
	}
	if cfg.Issuer == "" || cfg.Audience == "" {
		return nil, errors.New("issuer and audience are required")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if cfg.MaxFutureIAT == 0 {
		cfg.MaxFutureIAT = 10 * time.Minute
	}
	if cfg.MaxFutureIAT < 0 || cfg.MaxFutureIAT > 24*time.Hour {
		return nil, errors.New("invalid MaxFutureIAT configuration")
	}

	return &Manager{config: cfg}, nil
}

// AccessTTL reports the configured access token lifetime.
func (m *Manager) AccessTTL() time.Duration {
	return m.config.AccessTTL
}

// RefreshTTL reports the configured refresh token lifetime.
func (m *Manager) RefreshTTL() time.Duration {
	return m.config.RefreshTTL
}

// CreateAccess signs a new access token for the user. The jti is unique even
// when many tokens are minted for the same user within the same clock tick.
func (m *Manager) CreateAccess(uid, email string) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		UID:   uid,
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        NewJTI(),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.AccessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    m.config.Issuer,
			Audience:  jwt.ClaimStrings{m.config.Audience},
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(m.config.AccessSecret)
}

// CreateRefresh signs a new refresh token bound to the given token version.
func (m *Manager) CreateRefresh(uid string, version int64) (string, error) {
	now := time.Now()
	claims := RefreshClaims{
		UID:          uid,
		TokenVersion: version,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        NewJTI(),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.RefreshTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    m.config.Issuer,
			Audience:  jwt.ClaimStrings{m.config.Audience},
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(m.config.RefreshSecret)
}

// ParseAccess verifies an access token against the access secret and returns
// its claims. Fails with [ErrExpired] or [ErrInvalid].
func (m *Manager) ParseAccess(tokenStr string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := m.parse(tokenStr, claims, m.config.AccessSecret); err != nil {
		return nil, err
	}
	if err := m.checkFutureIAT(claims.IssuedAt); err != nil {
		return nil, err
	}
	return claims, nil
}

// ParseRefresh verifies a refresh token against the refresh secret and
// returns its claims. Fails with [ErrExpired] or [ErrInvalid].
func (m *Manager) ParseRefresh(tokenStr string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := m.parse(tokenStr, claims, m.config.RefreshSecret); err != nil {
		return nil, err
	}
	if err := m.checkFutureIAT(claims.IssuedAt); err != nil {
		return nil, err
	}
	return claims, nil
}

func (m *Manager) parse(tokenStr string, claims jwt.Claims, secret []byte) error {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.config.Issuer),
		jwt.WithAudience(m.config.Audience),
		jwt.WithExpirationRequired(),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.RequireIAT {
		options = append(options, jwt.WithIssuedAt())
	}

	parser := jwt.NewParser(options...)
	t, err := parser.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrExpired
		}
		return ErrInvalid
	}
	if !t.Valid {
		return ErrInvalid
	}
	return nil
}

func (m *Manager) checkFutureIAT(iat *jwt.NumericDate) error {
	if iat == nil || m.config.MaxFutureIAT <= 0 {
		return nil
	}
	if iat.Time.After(time.Now().Add(m.config.MaxFutureIAT)) {
		return ErrInvalid
	}
	return nil
}
