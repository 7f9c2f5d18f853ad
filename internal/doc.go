// Package internal holds code that is private to goIdentity.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher and Sink implementations)
//   - config: identityd process configuration (koanf)
//   - fieldcrypt: encrypted request field codecs
//   - flows: pure-function orchestration for Register and Login
//   - httpapi: gin routes and the error envelope
//   - rate: Redis-backed failed-login limiter
//
// # What this package must NOT do
//
//   - Export types that appear in the public goIdentity API.
//   - Be imported by any package outside the goIdentity module.
package internal
