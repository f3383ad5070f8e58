package gate

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// AdminTokenHeader carries the admin session token on gated requests.
const AdminTokenHeader = "X-Admin-Token"

// Handler exposes the passkey exchange endpoint.
type Handler struct {
	gate   *Gate
	logger zerolog.Logger
}

// NewHandler creates a gate handler.
func NewHandler(g *Gate, logger zerolog.Logger) *Handler {
	return &Handler{gate: g, logger: logger}
}

// RegisterRoutes registers the admin access route on the given group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/admin/access", h.RequestAccess)
}

type accessRequest struct {
	Passkey string `json:"passkey"`
}

type accessResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RequestAccess exchanges a valid passkey for a session token.
func (h *Handler) RequestAccess(c echo.Context) error {
	var req accessRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "invalid request body",
		})
	}

	token, expiresAt, err := h.gate.Issue(strings.TrimSpace(req.Passkey))
	if err != nil {
		h.logger.Warn().
			Str("remote_ip", c.RealIP()).
			Msg("admin access denied")
		return c.JSON(http.StatusUnauthorized, map[string]interface{}{
			"error": ErrInvalidPasskey.Error(),
		})
	}

	h.logger.Info().
		Str("remote_ip", c.RealIP()).
		Time("expires_at", expiresAt).
		Msg("admin session issued")

	return c.JSON(http.StatusOK, accessResponse{
		Token:     EncodeKey(token),
		ExpiresAt: expiresAt,
	})
}

// RequireAdmin returns middleware that rejects requests without a valid
// admin session token in the X-Admin-Token header. The header value is the
// encoded form produced by RequestAccess.
func RequireAdmin(g *Gate) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			encoded := c.Request().Header.Get(AdminTokenHeader)
			if encoded == "" {
				return c.JSON(http.StatusUnauthorized, map[string]interface{}{
					"error": ErrInvalidToken.Error(),
				})
			}

			token, err := DecodeKey(encoded)
			if err == nil {
				err = g.Check(token)
			}
			if err != nil {
				if !errors.Is(err, ErrInvalidToken) {
					err = ErrInvalidToken
				}
				return c.JSON(http.StatusUnauthorized, map[string]interface{}{
					"error": err.Error(),
				})
			}

			return next(c)
		}
	}
}
