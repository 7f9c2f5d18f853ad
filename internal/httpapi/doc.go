// Package httpapi exposes the Engine over HTTP with gin.
//
// Routes:
//
//	POST /api/auth/register    201 {"token","type"}
//	POST /api/auth/login       200 {"token","type"}
//	GET  /api/auth/public-key  200 base64 SPKI, text/plain
//	GET  /api/auth/me          200 verified claims (bearer)
//	GET  /healthz
//	GET  /metrics              when a metrics handler is configured
//
// Every failure is written as an [ErrorResponse]. Request fields pass
// through the configured fieldcrypt codec before the Engine sees them.
package httpapi
