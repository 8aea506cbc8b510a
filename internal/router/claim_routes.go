package router

import (
	"github.com/labstack/echo/v4"

	"github.com/niranjanbala/remoteinbound-claims/internal/handler"
	"github.com/niranjanbala/remoteinbound-claims/internal/middleware"
)

// RegisterClaims registers the session-claim endpoints under /v1.
// Reads are public so the schedule page can show claim availability to
// guests.  Single-claim mutations require an authenticated SPEAKER (or
// ADMIN), and the bulk action endpoint is ADMIN-only: bulk confirm and
// bulk reset are administrative rollback/advance tools, not speaker
// self-service.
func RegisterClaims(e *echo.Echo, h *handler.ClaimHandler, jwtSecret string) {
	// Public browse endpoints.  The listing powers the claim dashboard
	// tallies; the detail endpoint backs the per-session claim card.
	e.GET("/v1/sessions/claims", h.List)
	e.GET("/v1/sessions/:id/claim", h.Get)

	// Claim mutations by the claiming speaker.
	speaker := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("SPEAKER", "ADMIN"),
	)
	speaker.POST("/sessions/:id/claim", h.Claim)
	speaker.PUT("/sessions/:id/claim", h.Update)
	speaker.DELETE("/sessions/:id/claim", h.Release)

	// Administrative bulk operations.
	admin := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("ADMIN"),
	)
	admin.POST("/sessions/claims", h.Bulk)
}
