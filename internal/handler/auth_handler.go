package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/qbank-admin-api/internal/dto"
	"github.com/noah-isme/qbank-admin-api/internal/models"
	appErrors "github.com/noah-isme/qbank-admin-api/pkg/errors"
	"github.com/noah-isme/qbank-admin-api/pkg/response"
)

type tokenIssuer interface {
	IssueToken(user models.TokenSubject) (string, time.Time, error)
}

// AuthHandler reports the current caller and, in development, issues tokens.
type AuthHandler struct {
	issuer      tokenIssuer
	validator   *validator.Validate
	allowIssuer bool
}

// NewAuthHandler creates a new handler. Token issuance answers 404 unless allowIssue is set.
func NewAuthHandler(issuer tokenIssuer, validate *validator.Validate, allowIssue bool) *AuthHandler {
	if validate == nil {
		validate = validator.New()
	}
	return &AuthHandler{issuer: issuer, validator: validate, allowIssuer: allowIssue}
}

// Me godoc
// @Summary Current user
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	response.JSON(c, http.StatusOK, dto.CurrentUserResponse{
		UserID:   claims.UserID,
		Role:     string(claims.Role),
		Email:    claims.Email,
		FullName: claims.FullName,
	}, nil)
}

// IssueDevToken godoc
// @Summary Issue a development access token
// @Description Only available when ENV=development.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body dto.IssueTokenRequest true "Token subject"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /auth/dev-token [post]
func (h *AuthHandler) IssueDevToken(c *gin.Context) {
	if !h.allowIssuer {
		response.Error(c, appErrors.ErrNotFound)
		return
	}
	var req dto.IssueTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid token payload"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid token payload"))
		return
	}

	token, expiresAt, err := h.issuer.IssueToken(models.TokenSubject{
		UserID:   req.UserID,
		Role:     models.UserRole(req.Role),
		Email:    req.Email,
		FullName: req.FullName,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.IssueTokenResponse{AccessToken: token, TokenType: "Bearer", ExpiresAt: expiresAt})
}
