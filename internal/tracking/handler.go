package tracking

import (
	"fmt"
	"net/http"
	"strconv"

	"farewatch/internal/flight"
	"farewatch/pkg/identity"
	"farewatch/pkg/logger"

	"github.com/gin-gonic/gin"
)

const (
	ActionPriceHistory         = "get-price-history"
	ActionCreateSearch         = "create-search"
	ActionCreateAlert          = "create-alert"
	ActionUserAlerts           = "get-user-alerts"
	ActionUserNotifications    = "get-user-notifications"
	ActionDeactivateSearch     = "deactivate-search"
	ActionMarkNotificationRead = "mark-notification-read"
)

type actionFunc func(c *gin.Context) (gin.H, error)

type Handler struct {
	service *Service
	scanner Runner
	logger  logger.Client
	actions map[string]actionFunc
}

func NewHandler(service *Service, scanner Runner, log logger.Client) *Handler {
	h := &Handler{service: service, scanner: scanner, logger: log}
	h.actions = map[string]actionFunc{
		ActionPriceHistory:         h.priceHistory,
		ActionCreateSearch:         h.createSearch,
		ActionCreateAlert:          h.createAlert,
		ActionUserAlerts:           h.userAlerts,
		ActionUserNotifications:    h.userNotifications,
		ActionDeactivateSearch:     h.deactivateSearch,
		ActionMarkNotificationRead: h.markNotificationRead,
	}
	return h
}

// RegisterRoutes mounts the action endpoint behind the given middleware and
// the scan trigger.
func (h *Handler) RegisterRoutes(router gin.IRouter, middleware ...gin.HandlerFunc) {
	chain := append(append([]gin.HandlerFunc{}, middleware...), h.ActionHandler)
	router.GET("/v1/flight-api", chain...)
	router.POST("/v1/flight-api", chain...)
	router.POST("/v1/scan", append(append([]gin.HandlerFunc{}, middleware...), h.ScanHandler)...)
}

// ActionHandler godoc
// @Summary      Price tracking actions
// @Description  Dispatches on the action query parameter: get-price-history, create-search, create-alert, get-user-alerts, get-user-notifications, deactivate-search, mark-notification-read
// @Tags         tracking
// @Accept       json
// @Produce      json
// @Param        action query string true "Action name"
// @Success      200 {object} map[string]interface{}
// @Failure      400 {object} map[string]interface{}
// @Failure      500 {object} map[string]interface{}
// @Router       /v1/flight-api [get]
// @Router       /v1/flight-api [post]
func (h *Handler) ActionHandler(c *gin.Context) {
	action := c.Query("action")
	fn, ok := h.actions[action]
	if !ok {
		h.sendError(c, fmt.Errorf("%w: unknown action %q", flight.ErrValidation, action))
		return
	}

	payload, err := fn(c)
	if err != nil {
		h.logger.Warn("action_failed",
			logger.Field{Key: "action", Value: action},
			logger.Err(err),
		)
		h.sendError(c, err)
		return
	}

	resp := gin.H{"success": true}
	for k, v := range payload {
		resp[k] = v
	}
	c.JSON(http.StatusOK, resp)
}

// ScanHandler godoc
// @Summary      Run the recurring search scanner once
// @Tags         tracking
// @Produce      json
// @Success      200 {object} map[string]interface{}
// @Failure      500 {object} map[string]interface{}
// @Failure      502 {object} map[string]interface{}
// @Router       /v1/scan [post]
func (h *Handler) ScanHandler(c *gin.Context) {
	report, err := h.scanner.Run(c.Request.Context())
	if err != nil {
		h.sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "results": report.Results})
}

func (h *Handler) priceHistory(c *gin.Context) (gin.H, error) {
	points, stats, err := h.service.PriceHistory(c.Request.Context(), HistoryQuery{
		Origin:        c.Query("origin"),
		Destination:   c.Query("destination"),
		DepartureDate: c.Query("departureDate"),
	})
	if err != nil {
		return nil, err
	}
	return gin.H{"data": points, "stats": stats}, nil
}

func (h *Handler) createSearch(c *gin.Context) (gin.H, error) {
	var in CreateSearchInput
	if err := bindBody(c, &in); err != nil {
		return nil, err
	}
	in.UserID = userID(c, in.UserID)

	search, err := h.service.CreateSearch(c.Request.Context(), in)
	if err != nil {
		return nil, err
	}
	return gin.H{"data": search}, nil
}

func (h *Handler) createAlert(c *gin.Context) (gin.H, error) {
	var in CreateAlertInput
	if err := bindBody(c, &in); err != nil {
		return nil, err
	}
	in.UserID = userID(c, in.UserID)

	alert, err := h.service.CreateAlert(c.Request.Context(), in)
	if err != nil {
		return nil, err
	}
	return gin.H{"data": alert}, nil
}

func (h *Handler) userAlerts(c *gin.Context) (gin.H, error) {
	alerts, err := h.service.AlertsByUser(c.Request.Context(), userID(c, c.Query("userId")))
	if err != nil {
		return nil, err
	}
	return gin.H{"data": alerts}, nil
}

func (h *Handler) userNotifications(c *gin.Context) (gin.H, error) {
	notes, err := h.service.NotificationsByUser(c.Request.Context(), userID(c, c.Query("userId")))
	if err != nil {
		return nil, err
	}
	return gin.H{"data": notes}, nil
}

func (h *Handler) deactivateSearch(c *gin.Context) (gin.H, error) {
	var in struct {
		UserID   string `json:"userId"`
		SearchID int64  `json:"searchId"`
	}
	if err := bindBody(c, &in); err != nil {
		return nil, err
	}
	if err := h.service.DeactivateSearch(c.Request.Context(), in.SearchID, userID(c, in.UserID)); err != nil {
		return nil, err
	}
	return gin.H{"data": gin.H{"id": strconv.FormatInt(in.SearchID, 10), "is_active": false}}, nil
}

func (h *Handler) markNotificationRead(c *gin.Context) (gin.H, error) {
	var in struct {
		UserID         string `json:"userId"`
		NotificationID int64  `json:"notificationId"`
	}
	if err := bindBody(c, &in); err != nil {
		return nil, err
	}
	if err := h.service.MarkNotificationRead(c.Request.Context(), in.NotificationID, userID(c, in.UserID)); err != nil {
		return nil, err
	}
	return gin.H{"data": gin.H{"id": strconv.FormatInt(in.NotificationID, 10), "is_read": true}}, nil
}

func bindBody(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", flight.ErrValidation, err)
	}
	return nil
}

// userID prefers the authenticated subject over whatever the caller sent.
func userID(c *gin.Context, fromRequest string) string {
	if sub, ok := identity.Subject(c); ok {
		return sub
	}
	return fromRequest
}

func (h *Handler) sendError(c *gin.Context, err error) {
	appErr := flight.ToAppError(err)
	if appErr.Status >= http.StatusInternalServerError {
		h.logger.Error("request_failed", logger.Field{Key: "path", Value: c.FullPath()}, logger.Err(err))
	}
	c.JSON(appErr.Status, gin.H{
		"success": false,
		"error":   appErr.Message,
		"code":    appErr.Code,
	})
}
