package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const adminSubjectKey = "admin_subject"

var errAdminDisabled = errors.New("admin endpoints are disabled")

// AdminAuth validates HS256 bearer tokens for maintenance endpoints.
type AdminAuth struct {
	secret []byte
	issuer string
}

// NewAdminAuth builds the verifier. An empty secret rejects every request.
func NewAdminAuth(secret, issuer string) *AdminAuth {
	return &AdminAuth{secret: []byte(secret), issuer: issuer}
}

// SignAdminToken issues a token the verifier accepts.
func SignAdminToken(secret, issuer, subject string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errAdminDisabled
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// Verify returns the token subject.
func (a *AdminAuth) Verify(token string) (string, error) {
	if len(a.secret) == 0 {
		return "", errAdminDisabled
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
		}
		return a.secret, nil
	}, opts...)
	if err != nil {
		return "", err
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid {
		return "", errors.New("token invalid")
	}
	return claims.Subject, nil
}

func adminMiddleware(auth *AdminAuth) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "missing authorization header", nil))
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "invalid authorization header", nil))
			return
		}
		subject, err := auth.Verify(strings.TrimSpace(parts[1]))
		if err != nil {
			status := http.StatusForbidden
			if errors.Is(err, errAdminDisabled) {
				status = http.StatusNotFound
			}
			abortWithError(c, NewHTTPError(status, "invalid_token", errMessage(err), err))
			return
		}
		c.Set(adminSubjectKey, subject)
		c.Next()
	}
}

func adminSubject(c *gin.Context) string {
	value, ok := c.Get(adminSubjectKey)
	if !ok {
		return ""
	}
	subject, _ := value.(string)
	return subject
}
