package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"foodgram/internal/apperr"
	"foodgram/internal/http-api/dto"
	"foodgram/internal/shared"
)

const (
	ctxClaims   = "claims"
	ctxIdentity = "identity"
	ctxUserID   = "userID"
	ctxRole     = "role"
)

// TokenValidator is the part of the auth service the middleware needs.
type TokenValidator interface {
	ValidateToken(ctx context.Context, tokenString string) (*shared.AuthClaims, error)
}

// OptionalAuth resolves the requester when an Authorization header is
// present and continues anonymously otherwise. A header carrying a bad
// token is still rejected. Both "Token <jwt>" and "Bearer <jwt>" are
// accepted.
func OptionalAuth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Set(ctxIdentity, shared.Anonymous())
			c.Next()
			return
		}
		authenticate(c, validator)
	}
}

func authenticate(c *gin.Context, validator TokenValidator) {
	tokenString, ok := tokenFromHeader(c.GetHeader("Authorization"))
	if !ok {
		Abort(c, apperr.Unauthorized("invalid authorization header format"))
		return
	}

	claims, err := validator.ValidateToken(c.Request.Context(), tokenString)
	if err != nil {
		Abort(c, err)
		return
	}

	SetClaims(c, claims)
	c.Next()
}

func tokenFromHeader(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 {
		return "", false
	}
	switch strings.ToLower(parts[0]) {
	case "token", "bearer":
		return parts[1], true
	default:
		return "", false
	}
}

// Authenticated rejects requests that OptionalAuth left anonymous.
func Authenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		if Identity(c).IsAnonymous() {
			Abort(c, apperr.Unauthorized("authentication credentials were not provided"))
			return
		}
		c.Next()
	}
}

// RequireRole checks if the user has the specified role.
// It must run after OptionalAuth.
func RequireRole(requiredRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := Identity(c)
		if identity.IsAnonymous() {
			Abort(c, apperr.Unauthorized("authentication credentials were not provided"))
			return
		}
		if identity.Role != requiredRole {
			Abort(c, apperr.Forbidden("you do not have permission to perform this action"))
			return
		}
		c.Next()
	}
}

// RequireAdmin is a convenience function for requiring admin role
func RequireAdmin() gin.HandlerFunc {
	return RequireRole("admin")
}

// Identity returns the requester resolved by the auth middleware, or the
// anonymous identity.
func Identity(c *gin.Context) shared.Identity {
	if v, ok := c.Get(ctxIdentity); ok {
		if id, ok := v.(shared.Identity); ok {
			return id
		}
	}
	return shared.Anonymous()
}

// Claims returns the validated token claims, nil for anonymous requests.
func Claims(c *gin.Context) *shared.AuthClaims {
	if v, ok := c.Get(ctxClaims); ok {
		if claims, ok := v.(*shared.AuthClaims); ok {
			return claims
		}
	}
	return nil
}

// SetIdentity stores id on the request; handler tests use it in place of
// token validation.
func SetIdentity(c *gin.Context, id shared.Identity) {
	c.Set(ctxIdentity, id)
	c.Set(ctxUserID, id.UserID)
	c.Set(ctxRole, id.Role)
}

// SetClaims stores validated claims and the identity they carry.
func SetClaims(c *gin.Context, claims *shared.AuthClaims) {
	c.Set(ctxClaims, claims)
	SetIdentity(c, claims.Identity())
}

// Abort renders err and stops the chain.
func Abort(c *gin.Context, err error) {
	status, body := dto.NewErrorResponse(err)
	c.AbortWithStatusJSON(status, body)
}
