package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	goIdentity "github.com/MrEthical07/goIdentity"
	"github.com/MrEthical07/goIdentity/internal/fieldcrypt"
	"github.com/MrEthical07/goIdentity/middleware"
)

// Service is the part of *goIdentity.Engine the HTTP layer uses.
type Service interface {
	middleware.TokenVerifier
	Register(ctx context.Context, req goIdentity.RegisterRequest) (*goIdentity.AuthResult, error)
	Login(ctx context.Context, email, password string) (*goIdentity.AuthResult, error)
	PublicKey() string
}

// RegisterBody is the JSON body of POST /api/auth/register. Fields arrive
// encoded with the configured fieldcrypt codec.
type RegisterBody struct {
	FullName          string `json:"fullName" validate:"notblank,max=4096"`
	Email             string `json:"email" validate:"notblank,max=4096"`
	ProfessionalTitle string `json:"professionalTitle" validate:"max=4096"`
	Company           string `json:"company" validate:"max=4096"`
	Password          string `json:"password" validate:"notblank,max=4096"`
}

// LoginBody is the JSON body of POST /api/auth/login.
type LoginBody struct {
	Email    string `json:"email" validate:"notblank,max=4096"`
	Password string `json:"password" validate:"notblank,max=4096"`
}

// TokenResponse is returned by register and login.
type TokenResponse struct {
	Token string `json:"token"`
	Type  string `json:"type"`
}

// MeResponse describes the caller's verified token.
type MeResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type handler struct {
	svc    Service
	codec  fieldcrypt.Codec
	logger zerolog.Logger
	now    func() time.Time
}

func (h *handler) register(c *gin.Context) {
	var body RegisterBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.abortWithError(c, errBadRequest)
		return
	}
	if err := validateRequest(&body); err != nil {
		h.abortWithError(c, err)
		return
	}

	req, err := h.decodeRegister(body)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	res, err := h.svc.Register(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, goIdentity.ErrIdentityExists) {
			err = &existsError{email: goIdentity.NormalizeEmail(req.Email)}
		}
		h.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, TokenResponse{Token: res.Token, Type: res.TokenType})
}

func (h *handler) login(c *gin.Context) {
	var body LoginBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.abortWithError(c, errBadRequest)
		return
	}
	if err := validateRequest(&body); err != nil {
		h.abortWithError(c, err)
		return
	}

	email, err := h.codec.Decode(body.Email)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	password, err := h.codec.Decode(body.Password)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	res, err := h.svc.Login(c.Request.Context(), email, password)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, TokenResponse{Token: res.Token, Type: res.TokenType})
}

func (h *handler) publicKey(c *gin.Context) {
	c.String(http.StatusOK, h.svc.PublicKey())
}

func (h *handler) me(c *gin.Context) {
	claims, ok := middleware.ClaimsFromGin(c)
	if !ok {
		h.abortWithError(c, errors.New("claims missing after bearer middleware"))
		return
	}

	resp := MeResponse{
		ID:       claims.ID,
		Email:    claims.Email(),
		FullName: claims.FullName,
	}
	if claims.ExpiresAt != nil {
		resp.ExpiresAt = claims.ExpiresAt.Time.UTC()
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handler) decodeRegister(body RegisterBody) (goIdentity.RegisterRequest, error) {
	var (
		req goIdentity.RegisterRequest
		err error
	)
	fields := []struct {
		dst *string
		src string
	}{
		{&req.FullName, body.FullName},
		{&req.Email, body.Email},
		{&req.ProfessionalTitle, body.ProfessionalTitle},
		{&req.Company, body.Company},
		{&req.Password, body.Password},
	}
	for _, f := range fields {
		if *f.dst, err = h.codec.Decode(f.src); err != nil {
			return goIdentity.RegisterRequest{}, err
		}
	}
	return req, nil
}
