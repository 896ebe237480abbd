package auth

import "context"

// Principal é a identidade extraída do token.
type Principal struct {
	Subject string
	Roles   []string
	Claims  map[string]interface{}
}

// HasRole informa se o principal possui a role.
func (p *Principal) HasRole(role string) bool {
	if p == nil {
		return false
	}
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Map é a forma exposta às regras de acesso como `auth`.
// Um principal nil vira um mapa anônimo.
func (p *Principal) Map() map[string]interface{} {
	if p == nil {
		return map[string]interface{}{
			"authenticated": false,
			"sub":           "",
			"roles":         []string{},
			"claims":        map[string]interface{}{},
		}
	}
	claims := p.Claims
	if claims == nil {
		claims = map[string]interface{}{}
	}
	roles := p.Roles
	if roles == nil {
		roles = []string{}
	}
	return map[string]interface{}{
		"authenticated": true,
		"sub":           p.Subject,
		"roles":         roles,
		"claims":        claims,
	}
}

type principalKey struct{}

// NewContext anexa o principal ao contexto.
func NewContext(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext recupera o principal; nil quando a requisição é anônima.
func FromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey{}).(*Principal)
	return p
}
