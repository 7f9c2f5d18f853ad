package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MrEthical07/goIdentity/jwt"
)

// ClaimsKey is the gin context key holding *jwt.Claims after RequireBearer.
const ClaimsKey = "goidentity.claims"

// ErrMissingBearer is passed to the rejection handler when the request has
// no usable Authorization header.
var ErrMissingBearer = jwt.ErrMalformedToken

// RejectFunc writes the response for a rejected request. err is a jwt
// verification error.
type RejectFunc func(c *gin.Context, err error)

// RequireBearer verifies the bearer token and stores its claims under
// ClaimsKey. Rejections go to reject, or a bare 401 JSON body when nil.
func RequireBearer(verifier TokenVerifier, reject RejectFunc) gin.HandlerFunc {
	if reject == nil {
		reject = func(c *gin.Context, _ error) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "Invalid or expired token",
			})
		}
	}

	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok || verifier == nil {
			reject(c, ErrMissingBearer)
			c.Abort()
			return
		}

		claims, err := verifier.VerifyToken(c.Request.Context(), token)
		if err != nil {
			reject(c, err)
			c.Abort()
			return
		}

		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// ClaimsFromGin returns the claims stored by RequireBearer.
func ClaimsFromGin(c *gin.Context) (*jwt.Claims, bool) {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*jwt.Claims)
	return claims, ok
}
