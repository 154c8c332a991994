package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// DefaultTokenExpiration in minutes
const DefaultTokenExpiration = 15

// TokenClaims is the token payload: iss carries the user id
type TokenClaims struct {
	jwt.RegisteredClaims
}

// UserID returns the user id the token was issued for
func (c *TokenClaims) UserID() string {
	if c == nil {
		return ""
	}
	return c.Issuer
}

// TokenService issues and decodes bearer tokens
type TokenService interface {
	Issue(subjectID string, now time.Time) (string, error)
	Decode(token string) (*TokenClaims, error)
}

// TokenServiceImpl implements the TokenService interface
type TokenServiceImpl struct {
	signingKey []byte
	method     jwt.SigningMethod
	ttl        time.Duration
	clock      Clock
	logger     Logger
}

// TokenServiceOption configures a TokenServiceImpl
type TokenServiceOption func(*TokenServiceImpl)

// WithClock overrides the time source used to validate exp and iat
func WithClock(clock Clock) TokenServiceOption {
	return func(ts *TokenServiceImpl) {
		if clock != nil {
			ts.clock = clock
		}
	}
}

// WithTokenLogger sets the logger
func WithTokenLogger(logger Logger) TokenServiceOption {
	return func(ts *TokenServiceImpl) {
		ts.logger = normalizeLogger(logger)
	}
}

// NewTokenService creates a new TokenService instance. Only HMAC
// algorithms are accepted, anything else is a configuration error.
func NewTokenService(signingKey []byte, method string, expirationMinutes int, opts ...TokenServiceOption) (*TokenServiceImpl, error) {
	if len(signingKey) == 0 {
		return nil, errors.New("signing key must not be empty", errors.CategoryInternal)
	}

	if method == "" {
		method = jwt.SigningMethodHS256.Alg()
	}

	signingMethod, ok := jwt.GetSigningMethod(method).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, errors.New("unsupported signing method: "+method, errors.CategoryInternal).
			WithMetadata(map[string]any{
				"method": method,
			})
	}

	if expirationMinutes <= 0 {
		expirationMinutes = DefaultTokenExpiration
	}

	ts := &TokenServiceImpl{
		signingKey: signingKey,
		method:     signingMethod,
		ttl:        time.Duration(expirationMinutes) * time.Minute,
		clock:      time.Now,
		logger:     defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(ts)
		}
	}

	return ts, nil
}

// NewTokenServiceFromConfig reads key, method and TTL from cfg
func NewTokenServiceFromConfig(cfg Config, opts ...TokenServiceOption) (*TokenServiceImpl, error) {
	return NewTokenService([]byte(cfg.GetSigningKey()), cfg.GetSigningMethod(), cfg.GetTokenExpiration(), opts...)
}

// TTL returns the configured token lifetime
func (ts *TokenServiceImpl) TTL() time.Duration {
	return ts.ttl
}

// Now returns the service clock
func (ts *TokenServiceImpl) Now() time.Time {
	return ts.clock()
}

// Issue creates a token for subjectID valid from now until now+TTL
func (ts *TokenServiceImpl) Issue(subjectID string, now time.Time) (string, error) {
	if subjectID == "" {
		return "", errors.New("token subject must not be empty", errors.CategoryInternal)
	}

	claims := &TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt(now, ts.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(ts.method, claims).SignedString(ts.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign JWT")
	}

	return signed, nil
}

// expiresAt rounds now+ttl up to the next whole second, NumericDate
// truncates and the token must not expire before its TTL
func expiresAt(now time.Time, ttl time.Duration) time.Time {
	exp := now.Add(ttl)
	if whole := exp.Truncate(time.Second); whole.Before(exp) {
		return whole.Add(time.Second)
	}
	return exp
}

// Decode verifies signature, algorithm and expiry. Every failure is
// reported as ErrInvalidToken, expiry as its ErrTokenExpired variant.
func (ts *TokenServiceImpl) Decode(tokenString string) (*TokenClaims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(t *jwt.Token) (any, error) {
		return ts.signingKey, nil
	},
		jwt.WithValidMethods([]string{ts.method.Alg()}),
		jwt.WithTimeFunc(ts.clock),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			ts.logger.Debug("token decode rejected expired token")
			return nil, ErrTokenExpired
		}
		ts.logger.Debug("token decode failed", "error", err)
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid || claims.Issuer == "" {
		ts.logger.Debug("token decode missing issuer claim")
		return nil, ErrInvalidToken
	}

	return claims, nil
}
