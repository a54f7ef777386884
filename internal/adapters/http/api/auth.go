package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Roles carried in the token "role" claim.
const (
	RoleJudge = "judge"
	RoleAdmin = "admin"
)

// JudgeHeader identifies the caller when no signing secret is configured.
const JudgeHeader = "X-Judge-ID"

const tokenIssuer = "jury"

// Identity is the authenticated caller of a request.
type Identity struct {
	JudgeID string
	Role    string
}

// Claims is the JWT body accepted by the API.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type identityKey struct{}

// IdentityFrom returns the identity attached by the auth middleware.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// Authenticator validates HS256 bearer tokens. With an empty secret it falls
// back to trusting the X-Judge-ID header, which is only meant for development.
type Authenticator struct {
	hmac []byte
}

// NewAuthenticator creates an authenticator for secret.
func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{hmac: []byte(secret)}
}

// Enabled reports whether tokens are required.
func (a *Authenticator) Enabled() bool {
	return a != nil && len(a.hmac) > 0
}

// IssueToken signs a token for judgeID. Tokens are normally issued by the
// platform; this exists for tooling and tests.
func (a *Authenticator) IssueToken(judgeID, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   judgeID,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(a.hmac)
}

// Parse validates tokenStr and returns the identity it names.
func (a *Authenticator) Parse(tokenStr string) (Identity, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return a.hmac, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Identity{}, err
	}
	c, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Identity{}, errors.New("invalid token claims")
	}
	if strings.TrimSpace(c.Subject) == "" {
		return Identity{}, errors.New("token has no subject")
	}
	role := c.Role
	if role == "" {
		role = RoleJudge
	}
	if role != RoleJudge && role != RoleAdmin {
		return Identity{}, errors.New("unknown role " + role)
	}
	return Identity{JudgeID: c.Subject, Role: role}, nil
}

func (a *Authenticator) identify(r *http.Request) (Identity, error) {
	const op = "api.authenticate"
	if !a.Enabled() {
		judge := strings.TrimSpace(r.Header.Get(JudgeHeader))
		if judge == "" {
			return Identity{}, WrapKind(op, ErrUnauthorized, errors.New("missing "+JudgeHeader+" header"))
		}
		return Identity{JudgeID: judge, Role: RoleJudge}, nil
	}
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return Identity{}, WrapKind(op, ErrUnauthorized, errors.New("missing bearer token"))
	}
	id, err := a.Parse(strings.TrimPrefix(h, "Bearer "))
	if err != nil {
		return Identity{}, WrapKind(op, ErrUnauthorized, err)
	}
	return id, nil
}

// Middleware rejects unauthenticated requests and stores the caller identity
// in the request context.
func (a *Authenticator) Middleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := a.identify(r)
		if err != nil {
			writeErr(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	}
}

// judgeFor resolves whose evaluations a request acts on. Admins may name
// another judge with the judgeId query parameter.
func judgeFor(r *http.Request) (string, error) {
	const op = "api.judge"
	id, ok := IdentityFrom(r.Context())
	if !ok {
		return "", NewKind(op, ErrUnauthorized)
	}
	other := strings.TrimSpace(r.URL.Query().Get("judgeId"))
	if other == "" || other == id.JudgeID {
		return id.JudgeID, nil
	}
	if id.Role != RoleAdmin {
		return "", WrapKind(op, ErrForbidden, errors.New("judges may only act for themselves"))
	}
	return other, nil
}
