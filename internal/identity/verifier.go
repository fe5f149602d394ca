package identity

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/pol60/bastshin-sessions/internal/errors"
	"github.com/pol60/bastshin-sessions/internal/model"
)

// Verifier validates Identity Store access tokens locally, without a network
// round trip. The provider signs with HS256 and puts the user id in `sub`.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

type claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Verify returns the user the token was issued for, or an AppError the
// caller can map to 401.
func (v *Verifier) Verify(tokenString string) (*model.User, error) {
	token, err := jwt.ParseWithClaims(tokenString, &claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.New(apperrors.ErrCodeTokenExpired, "Access token expired")
		}
		return nil, apperrors.InvalidToken("Access token rejected").WithCause(err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || c.Subject == "" {
		return nil, apperrors.InvalidToken("Access token has no subject")
	}

	return &model.User{ID: c.Subject, Email: c.Email}, nil
}
