package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// ScopeRestore authorizes operations that destroy ledger or status data.
const ScopeRestore = "restore"

// ConfirmationHeader carries the confirmation token on destructive requests.
const ConfirmationHeader = "X-Confirmation-Token"

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrWrongScope   = errors.New("token scope does not allow this operation")
)

type Claims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// ConfirmAuth issues and checks short-lived confirmation tokens. A client
// fetches one right before each destructive call.
type ConfirmAuth struct {
	Secret string
	TTL    time.Duration
	now    func() time.Time
}

func NewConfirmAuth(secret string, ttl time.Duration) *ConfirmAuth {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ConfirmAuth{
		Secret: secret,
		TTL:    ttl,
		now:    time.Now,
	}
}

func (a *ConfirmAuth) GenerateToken(scope string) (string, time.Time, error) {
	issued := a.now()
	expires := issued.Add(a.TTL)
	claims := &Claims{
		Scope: scope,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(issued),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(a.Secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expires, nil
}

func (a *ConfirmAuth) ValidateToken(tokenString, scope string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(a.Secret), nil
	}, jwt.WithTimeFunc(a.now))

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Scope != scope {
		return nil, ErrWrongScope
	}

	return claims, nil
}

// RequireConfirmation rejects requests that do not carry a valid token for
// scope in the confirmation header.
func (a *ConfirmAuth) RequireConfirmation(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(ConfirmationHeader)
		if raw == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   gin.H{"code": "UNAUTHORIZED", "message": ConfirmationHeader + " header required"},
			})
			c.Abort()
			return
		}

		if _, err := a.ValidateToken(raw, scope); err != nil {
			if errors.Is(err, ErrWrongScope) {
				c.JSON(http.StatusForbidden, gin.H{
					"success": false,
					"error":   gin.H{"code": "FORBIDDEN", "message": err.Error()},
				})
			} else {
				c.JSON(http.StatusUnauthorized, gin.H{
					"success": false,
					"error":   gin.H{"code": "UNAUTHORIZED", "message": "Invalid or expired confirmation token"},
				})
			}
			c.Abort()
			return
		}

		c.Next()
	}
}
