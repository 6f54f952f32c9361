package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const roleClaimURI = "http://schemas.microsoft.com/ws/2008/06/identity/claims/role"

// Claims is the part of the JWT payload the client looks at. The signature
// is never checked here; the service does that on every request.
type Claims struct {
	Subject   string
	Name      string
	ExpiresAt time.Time
	Roles     []string
}

// Expired reports whether the token carries an expiry that is not after now.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// ParseClaims decodes token without verifying it.
func ParseClaims(token string) (Claims, error) {
	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mc); err != nil {
		return Claims{}, fmt.Errorf("session: parse token: %w", err)
	}
	var c Claims
	c.Subject, _ = mc.GetSubject()
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	for _, key := range []string{"unique_name", "name", "userName"} {
		if v, ok := mc[key].(string); ok && v != "" {
			c.Name = v
			break
		}
	}
	c.Roles = append(stringList(mc["role"]), stringList(mc[roleClaimURI])...)
	return c, nil
}

func stringList(v any) []string {
	switch t := v.(type) {
	case string:
		if t == "" {
			return nil
		}
		return []string{t}
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
