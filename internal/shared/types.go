package shared

import "github.com/golang-jwt/jwt/v5"

// shared types across the application
// 1st: the requester identity every projection and permission check takes explicitly
// 2nd: the JWT claims the identity is derived from

// Identity is who is making a request. The zero value is the anonymous requester.
type Identity struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

func Anonymous() Identity { return Identity{} }

func (i Identity) IsAnonymous() bool { return i.UserID == "" }

func (i Identity) IsAdmin() bool { return i.Role == "admin" }

// CanModify reports whether the identity may change a resource owned by ownerID.
func (i Identity) CanModify(ownerID string) bool {
	return !i.IsAnonymous() && (i.UserID == ownerID || i.IsAdmin())
}

// AuthClaims is the access token payload. RegisteredClaims.ID carries the
// jti used for revocation on logout.
type AuthClaims struct {
	UserID   string `json:"user_id"`
	UserName string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

func (c *AuthClaims) Identity() Identity {
	return Identity{UserID: c.UserID, Username: c.UserName, Role: c.Role}
}
