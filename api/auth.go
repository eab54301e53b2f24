package api

import (
	"errors"
	"sync"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/golang-jwt/jwt/v4"

	"kanban-board/domain"
)

const defaultJWKSCacheTTL = 15 * time.Minute

var errIssueUnsupported = errors.New("token issuing is disabled when an external identity provider is configured")

// Auth issues and validates bearer tokens. With a shared secret it signs
// HS256 tokens for local accounts; with a JWKS it only validates RS256
// tokens minted by an external identity provider.
type Auth struct {
	JWKS     *keyfunc.JWKS
	Audience string
	Issuer   string
	Secret   []byte
	TTL      time.Duration

	parser      *jwt.Parser
	keyCache    sync.Map
	keyCacheTTL time.Duration
	now         func() time.Time
}

type cachedKey struct {
	key       any
	expiresAt time.Time
}

// NewAuth returns an HS256 authenticator able to issue tokens.
func NewAuth(secret []byte, ttl time.Duration, audience, issuer string) *Auth {
	if len(secret) == 0 {
		panic("auth secret must not be empty")
	}
	return &Auth{
		Secret:   secret,
		TTL:      ttl,
		Audience: audience,
		Issuer:   issuer,
		parser:   jwt.NewParser(jwt.WithValidMethods([]string{"HS256"})),
		now:      time.Now,
	}
}

// NewJWKSAuth returns an RS256 authenticator backed by a remote key set.
func NewJWKSAuth(jwks *keyfunc.JWKS, audience, issuer string) *Auth {
	return &Auth{
		JWKS:        jwks,
		Audience:    audience,
		Issuer:      issuer,
		parser:      jwt.NewParser(jwt.WithValidMethods([]string{"RS256"})),
		keyCacheTTL: defaultJWKSCacheTTL,
		now:         time.Now,
	}
}

// CanIssue reports whether IssueToken is available.
func (a *Auth) CanIssue() bool { return len(a.Secret) > 0 }

// IssueToken signs an access token for u.
func (a *Auth) IssueToken(u domain.User) (string, error) {
	if !a.CanIssue() {
		return "", errIssueUnsupported
	}
	now := a.now()
	claims := jwt.MapClaims{
		"sub":    u.ID,
		"userId": u.ID,
		"email":  u.Email,
		"iat":    now.Unix(),
		"exp":    now.Add(a.TTL).Unix(),
	}
	if a.Audience != "" {
		claims["aud"] = a.Audience
	}
	if a.Issuer != "" {
		claims["iss"] = a.Issuer
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.Secret)
}

// UserIDFromAuthHeader extracts the user identifier from the Authorization header.
func (a *Auth) UserIDFromAuthHeader(h string) (string, error) {
	if h == "" {
		return "", errMissingAuthorization
	}
	token, err := bearerTokenFromString(h)
	if err != nil {
		return "", err
	}
	return a.UserIDFromBearer(token)
}

// UserIDFromBearer extracts the user identifier from a raw bearer token.
func (a *Auth) UserIDFromBearer(token []byte) (string, error) {
	if len(token) == 0 {
		return "", errBadAuthorization
	}

	parsed, err := a.parser.Parse(readOnlyString(token), a.keyFor)
	if err != nil {
		return "", err
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid claims")
	}

	now := a.now().Add(time.Minute).Unix()
	if !claims.VerifyExpiresAt(now, true) {
		return "", errors.New("token expired")
	}
	if !claims.VerifyNotBefore(now, false) {
		return "", errors.New("token not valid yet")
	}
	if !claims.VerifyIssuedAt(now, false) {
		return "", errors.New("token used before issued")
	}
	if a.Audience != "" && !claims.VerifyAudience(a.Audience, false) {
		return "", errors.New("invalid audience")
	}
	if a.Issuer != "" && !claims.VerifyIssuer(a.Issuer, false) {
		return "", errors.New("invalid issuer")
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		sub, _ = claims["userId"].(string)
	}
	if sub == "" {
		return "", errors.New("missing sub")
	}
	return sub, nil
}

func (a *Auth) keyFor(t *jwt.Token) (any, error) {
	if a.CanIssue() {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return a.Secret, nil
	}
	if a.JWKS == nil {
		return nil, errors.New("jwks not configured")
	}

	kid, _ := t.Header["kid"].(string)
	if kid != "" && a.keyCacheTTL > 0 {
		if cached, ok := a.keyCache.Load(kid); ok {
			entry := cached.(cachedKey)
			if a.now().Before(entry.expiresAt) {
				return entry.key, nil
			}
			a.keyCache.Delete(kid)
		}
	}

	key, err := a.JWKS.Keyfunc(t)
	if err != nil {
		return nil, err
	}
	if kid != "" && a.keyCacheTTL > 0 {
		a.keyCache.Store(kid, cachedKey{key: key, expiresAt: a.now().Add(a.keyCacheTTL)})
	}
	return key, nil
}
