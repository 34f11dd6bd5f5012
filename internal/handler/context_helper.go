package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/qbank-admin-api/internal/middleware"
	"github.com/noah-isme/qbank-admin-api/internal/models"
	appErrors "github.com/noah-isme/qbank-admin-api/pkg/errors"
	"github.com/noah-isme/qbank-admin-api/pkg/response"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	return middleware.CurrentClaims(c)
}

// ownerFromContext returns the caller's user id, writing a 401 when the request carries none.
func ownerFromContext(c *gin.Context) (string, bool) {
	claims := claimsFromContext(c)
	if claims == nil || claims.UserID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return "", false
	}
	return claims.UserID, true
}

// bindFilterState decodes a FilterState body on top of the defaults, so omitted sections and
// fields keep their default values. An empty body yields the defaults.
func bindFilterState(c *gin.Context, dst *models.FilterState) error {
	*dst = models.DefaultFilterState()
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		if errors.Is(err, io.EOF) {
			*dst = models.DefaultFilterState()
			return nil
		}
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid filter payload")
	}
	return nil
}
