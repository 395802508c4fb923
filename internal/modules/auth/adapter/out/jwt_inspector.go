package out

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"todoterm/internal/modules/auth/domain"
)

// JWTInspector reads claims without checking the signature. The result is
// for display; only the server decides whether a credential is valid.
type JWTInspector struct {
	parser *jwt.Parser
}

func NewJWTInspector() *JWTInspector {
	return &JWTInspector{parser: jwt.NewParser()}
}

func (i *JWTInspector) Inspect(credential domain.Credential) (domain.TokenInfo, error) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := i.parser.ParseUnverified(string(credential), claims); err != nil {
		return domain.TokenInfo{}, fmt.Errorf("inspect token: %w", err)
	}
	info := domain.TokenInfo{Subject: claims.Subject}
	if claims.IssuedAt != nil {
		info.IssuedAt = claims.IssuedAt.Time.UTC()
	}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time.UTC()
	}
	return info, nil
}
