package jwt

import "github.com/golang-jwt/jwt/v5"

// Claims is the payload of an identity token. The JSON names fullName and id
// are read by existing downstream verifiers and must not change.
type Claims struct {
	FullName string `json:"fullName"`
	ID       string `json:"id"`
	jwt.RegisteredClaims
}

// Email returns the subject claim, which holds the identity's email.
func (c *Claims) Email() string {
	return c.Subject
}

// Subject is the identity a token is issued for.
type Subject struct {
	Email    string
	FullName string
	ID       string
}
