package ledgerclient

import (
	"time"

	"github.com/jhoicas/inventario-scan/internal/application/syncer"
	"github.com/jhoicas/inventario-scan/pkg/jwt"
)

var _ syncer.Credentials = (*TokenCredentials)(nil)

// TokenCredentials credenciales del operador a partir del token del ledger.
// El cliente no conoce el secreto: solo lee exp y actor sin verificar la firma.
type TokenCredentials struct {
	claims *jwt.Claims
	now    func() time.Time
}

// NewTokenCredentials inspecciona el token. Un token vacío o ilegible nunca autentica.
func NewTokenCredentials(token string) *TokenCredentials {
	c := &TokenCredentials{now: time.Now}
	if token == "" {
		return c
	}
	if claims, err := jwt.Inspect(token); err == nil {
		c.claims = claims
	}
	return c
}

// Authenticated token presente y no vencido.
func (c *TokenCredentials) Authenticated() bool {
	return c.claims != nil && !c.claims.Expired(c.now())
}

// Actor operador del token; vacío si no hay token legible.
func (c *TokenCredentials) Actor() string {
	if c.claims == nil {
		return ""
	}
	return c.claims.Actor
}
