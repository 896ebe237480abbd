package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

var (
	ErrMissingToken = errors.New("auth: token ausente")
	ErrInvalidToken = errors.New("auth: token inválido")
)

const defaultRolesClaim = "roles"

// Verifier valida tokens Bearer assinados com HMAC.
type Verifier struct {
	keys       KeySource
	issuer     string
	audience   string
	rolesClaim string
}

type VerifierOption func(*Verifier)

func WithIssuer(iss string) VerifierOption {
	return func(v *Verifier) { v.issuer = iss }
}

func WithAudience(aud string) VerifierOption {
	return func(v *Verifier) { v.audience = aud }
}

// WithRolesClaim define a claim lida como lista de roles (padrão "roles").
func WithRolesClaim(name string) VerifierOption {
	return func(v *Verifier) {
		if name != "" {
			v.rolesClaim = name
		}
	}
}

func NewVerifier(keys KeySource, opts ...VerifierOption) *Verifier {
	v := &Verifier{keys: keys, rolesClaim: defaultRolesClaim}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify valida a assinatura e as claims registradas do token.
func (v *Verifier) Verify(tokenString string) (*Principal, error) {
	secret, err := v.keys.Get()
	if err != nil {
		return nil, err
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	sub, _ := claims.GetSubject()
	return &Principal{
		Subject: sub,
		Roles:   stringList(claims[v.rolesClaim]),
		Claims:  claims,
	}, nil
}

// FromRequest extrai e valida o token do header Authorization.
func (v *Verifier) FromRequest(header http.Header) (*Principal, error) {
	raw := header.Get("Authorization")
	if raw == "" {
		return nil, ErrMissingToken
	}
	scheme, token, ok := strings.Cut(raw, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return nil, ErrInvalidToken
	}
	return v.Verify(strings.TrimSpace(token))
}

// Middleware exige um token válido e anexa o principal ao contexto.
// Um verifier nil deixa todas as requisições passarem como anônimas.
func Middleware(v *Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if v == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := v.FromRequest(r.Header)
			if err != nil {
				zerolog.Ctx(r.Context()).Warn().Err(err).Msg("autenticação recusada")
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), p)))
		})
	}
}

// NewToken emite um token HS256; usado pela CLI e pelos testes.
func NewToken(secret, subject string, roles []string, expiry time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("segredo não configurado")
	}
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub": subject,
		"iat": now.Unix(),
		"exp": now.Add(expiry).Unix(),
	}
	claims[defaultRolesClaim] = roles
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func stringList(v interface{}) []string {
	switch tv := v.(type) {
	case string:
		return strings.Fields(strings.ReplaceAll(tv, ",", " "))
	case []string:
		return tv
	case []interface{}:
		out := make([]string, 0, len(tv))
		for _, item := range tv {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
