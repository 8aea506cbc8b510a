package handler

import (
    "errors"         // for errors.Is and errors.As comparisons
    "net/http"       // HTTP status codes
    "strconv"        // parsing query parameters

    "github.com/labstack/echo/v4" // Echo web framework

    "github.com/niranjanbala/remoteinbound-claims/internal/claim" // claim service and domain errors
    "github.com/niranjanbala/remoteinbound-claims/internal/model" // data shapes
)

// ClaimHandler exposes the session-claim workflow over HTTP. All
// methods translate the service's error taxonomy into structured
// responses: not-found and bad-request cases carry explanatory bodies,
// conflicts name the current status and holder, and persistence
// failures surface as a generic 500 without internal detail.
type ClaimHandler struct {
    Service     *claim.Service // claim orchestration
    DefaultYear int            // event year assumed when the caller omits one
}

// NewClaimHandler constructs a ClaimHandler. The service must be non-nil.
func NewClaimHandler(svc *claim.Service, defaultYear int) *ClaimHandler {
    if svc == nil {
        panic("nil service passed to NewClaimHandler")
    }
    return &ClaimHandler{Service: svc, DefaultYear: defaultYear}
}

// Claim handles POST /v1/sessions/:id/claim. A speaker takes ownership
// of an orphaned session slot. Exactly one of two concurrent attempts
// succeeds; the loser receives 409 with the winner's identity.
func (h *ClaimHandler) Claim(c echo.Context) error {
    sessionID := c.Param("id")
    if sessionID == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
    }
    var body struct {
        SpeakerID string  `json:"speakerId"`
        Notes     *string `json:"notes"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if body.SpeakerID == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "speakerId is required"})
    }
    detail, err := h.Service.Claim(c.Request().Context(), sessionID, body.SpeakerID, body.Notes)
    if err != nil {
        return h.claimError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "claim":   detail,
        "speaker": detail.Speaker,
        "message": "session claimed successfully",
    })
}

// Update handles PUT /v1/sessions/:id/claim. Only the allow-listed
// fields are considered; unknown fields in the payload are ignored and
// a payload with no recognized field is rejected.
func (h *ClaimHandler) Update(c echo.Context) error {
    sessionID := c.Param("id")
    if sessionID == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
    }
    var body struct {
        YoutubeStreamURL *string `json:"youtube_stream_url"`
        YoutubeVideoID   *string `json:"youtube_video_id"`
        Notes            *string `json:"notes"`
        ClaimStatus      *string `json:"claim_status"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    patch := claim.Patch{
        YoutubeStreamURL: body.YoutubeStreamURL,
        YoutubeVideoID:   body.YoutubeVideoID,
        Notes:            body.Notes,
    }
    if body.ClaimStatus != nil {
        st := model.ClaimStatus(*body.ClaimStatus)
        patch.Status = &st
    }
    detail, err := h.Service.Update(c.Request().Context(), sessionID, patch)
    if err != nil {
        return h.claimError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "claim":   detail,
        "message": "claim updated successfully",
    })
}

// Release handles DELETE /v1/sessions/:id/claim. Releasing an
// already-available session is a no-op success.
func (h *ClaimHandler) Release(c echo.Context) error {
    sessionID := c.Param("id")
    if sessionID == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
    }
    if err := h.Service.Release(c.Request().Context(), sessionID); err != nil {
        return h.claimError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "success": true,
        "message": "claim released",
    })
}

// Get handles GET /v1/sessions/:id/claim.
func (h *ClaimHandler) Get(c echo.Context) error {
    sessionID := c.Param("id")
    if sessionID == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
    }
    detail, err := h.Service.Get(c.Request().Context(), sessionID)
    if err != nil {
        return h.claimError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"claim": detail})
}

// List handles GET /v1/sessions/claims. Supported query parameters:
// status, userId (the claiming speaker), eventYear and day. The summary
// tallies cover the year/day/speaker scope before the status filter
// narrows the list, so dashboard counts stay stable across tabs.
func (h *ClaimHandler) List(c echo.Context) error {
    eventYear := h.DefaultYear
    if v := c.QueryParam("eventYear"); v != "" {
        n, err := strconv.Atoi(v)
        if err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid eventYear"})
        }
        eventYear = n
    }
    var status *model.ClaimStatus
    if v := c.QueryParam("status"); v != "" {
        st := model.ClaimStatus(v)
        if !st.Valid() {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status filter"})
        }
        status = &st
    }
    var speakerID *string
    if v := c.QueryParam("userId"); v != "" {
        speakerID = &v
    }
    var day *string
    if v := c.QueryParam("day"); v != "" {
        day = &v
    }
    res, err := h.Service.List(c.Request().Context(), eventYear, status, speakerID, day)
    if err != nil {
        var dayErr *claim.DayFilterError
        if errors.As(err, &dayErr) {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": dayErr.Error()})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load claims"})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "sessions": res.Items,
        "total":    res.Total,
        "summary":  res.Summary,
    })
}

// Bulk handles POST /v1/sessions/claims with an action envelope:
// bulk_confirm transitions claimed sessions to confirmed, bulk_reset
// releases every listed session. Both report how many were affected.
func (h *ClaimHandler) Bulk(c echo.Context) error {
    var body struct {
        Action     string   `json:"action"`
        SessionIDs []string `json:"sessionIds"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if len(body.SessionIDs) == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "sessionIds is required"})
    }
    ctx := c.Request().Context()
    switch body.Action {
    case "bulk_confirm":
        n, err := h.Service.BulkConfirm(ctx, body.SessionIDs)
        if err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "bulk confirm failed"})
        }
        return c.JSON(http.StatusOK, echo.Map{
            "success":  true,
            "affected": n,
            "message":  "claimed sessions confirmed",
        })
    case "bulk_reset":
        n, err := h.Service.BulkReset(ctx, body.SessionIDs)
        if err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "bulk reset failed"})
        }
        return c.JSON(http.StatusOK, echo.Map{
            "success":  true,
            "affected": n,
            "message":  "sessions reset to available",
        })
    default:
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid action"})
    }
}

// claimError maps the service's error taxonomy onto HTTP responses.
func (h *ClaimHandler) claimError(c echo.Context, err error) error {
    var conflict *claim.ConflictError
    switch {
    case errors.Is(err, claim.ErrClaimNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "session claim not found"})
    case errors.Is(err, claim.ErrSpeakerNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "speaker not found"})
    case errors.Is(err, claim.ErrNoUpdatableFields):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "no valid fields to update"})
    case errors.Is(err, claim.ErrInvalidStatus):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid claim status"})
    case errors.As(err, &conflict):
        resp := echo.Map{
            "error":          conflict.Reason,
            "current_status": conflict.Status,
        }
        if conflict.ClaimedBy != nil {
            resp["claimed_by"] = conflict.ClaimedBy
        }
        return c.JSON(http.StatusConflict, resp)
    default:
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
}
