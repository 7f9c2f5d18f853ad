package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	goIdentity "github.com/MrEthical07/goIdentity"
	"github.com/MrEthical07/goIdentity/internal/fieldcrypt"
	"github.com/MrEthical07/goIdentity/jwt"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Message   string    `json:"message"`
	Status    int       `json:"status"`
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
	Path      string    `json:"path"`
	Details   []string  `json:"details,omitempty"`
}

// errBadRequest marks input that could not be bound at all.
var errBadRequest = errors.New("bad request")

// validationError carries per-field messages ("field: message").
type validationError struct {
	details []string
}

func (e *validationError) Error() string { return "validation failed" }

type errorMapping struct {
	status  int
	message string
	label   string
}

var (
	mapConflict    = errorMapping{http.StatusConflict, "User already exists", "User Already Exists"}
	mapCredentials = errorMapping{http.StatusUnauthorized, "Invalid email or password", "Invalid Credentials"}
	mapToken       = errorMapping{http.StatusUnauthorized, "Invalid or expired token", "Invalid Token"}
	mapValidation  = errorMapping{http.StatusBadRequest, "Validation failed", "Validation Error"}
	mapDecryption  = errorMapping{http.StatusBadRequest, "Invalid encrypted data format", "Encryption Error"}
	mapBadRequest  = errorMapping{http.StatusBadRequest, "Invalid request parameter", "Bad Request"}
	mapRateLimited = errorMapping{http.StatusTooManyRequests, "Too many failed login attempts, try again later", "Too Many Requests"}
	mapUnavailable = errorMapping{http.StatusServiceUnavailable, "Service not ready", "Service Unavailable"}
	mapUnexpected  = errorMapping{http.StatusInternalServerError, "An unexpected error occurred", "Internal Server Error"}
)

// existsError names the email that is already registered.
type existsError struct {
	email string
}

func (e *existsError) Error() string {
	return "User with email " + e.email + " already exists"
}

func (e *existsError) Unwrap() error { return goIdentity.ErrIdentityExists }

func classifyError(err error) (errorMapping, []string) {
	var (
		verr   *validationError
		exists *existsError
	)
	switch {
	case errors.As(err, &verr):
		return mapValidation, verr.details
	case errors.As(err, &exists):
		m := mapConflict
		m.message = exists.Error()
		return m, nil
	case errors.Is(err, goIdentity.ErrIdentityExists):
		return mapConflict, nil
	case errors.Is(err, goIdentity.ErrInvalidCredentials):
		return mapCredentials, nil
	case jwt.IsVerificationError(err):
		return mapToken, nil
	case errors.Is(err, goIdentity.ErrInvalidRegistration):
		return mapValidation, []string{err.Error()}
	case errors.Is(err, fieldcrypt.ErrMalformedField):
		return mapDecryption, nil
	case errors.Is(err, errBadRequest):
		return mapBadRequest, nil
	case errors.Is(err, goIdentity.ErrLoginRateLimited):
		return mapRateLimited, nil
	case errors.Is(err, goIdentity.ErrEngineNotReady):
		return mapUnavailable, nil
	default:
		return mapUnexpected, nil
	}
}

// abortWithError writes the envelope for err. Unmapped errors are logged
// with their cause; the client only sees the generic message.
func (h *handler) abortWithError(c *gin.Context, err error) {
	m, details := classifyError(err)
	if m.status >= http.StatusInternalServerError {
		h.logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	} else {
		h.logger.Debug().Err(err).Str("path", c.Request.URL.Path).Int("status", m.status).Msg("request rejected")
	}
	_ = c.Error(err)

	c.AbortWithStatusJSON(m.status, ErrorResponse{
		Message:   m.message,
		Status:    m.status,
		Error:     m.label,
		Timestamp: h.now().UTC(),
		Path:      c.Request.URL.Path,
		Details:   details,
	})
}
