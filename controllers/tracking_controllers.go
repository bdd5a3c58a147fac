package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/yeremiapane/hostel-meals/middlewares"
	"github.com/yeremiapane/hostel-meals/models"
	"github.com/yeremiapane/hostel-meals/services"
	"github.com/yeremiapane/hostel-meals/tracking"
	"github.com/yeremiapane/hostel-meals/utils"
)

const pongWait = 60 * time.Second

// feedCapability is what each role needs to open the status feed.
var feedCapability = map[models.Role]services.Capability{
	models.RoleResident:      services.CapOrderTrack,
	models.RoleDeliveryAgent: services.CapDeliveryUpdate,
	models.RoleWarden:        services.CapOrderOverview,
	models.RoleAdmin:         services.CapOrderOverview,
}

type TrackingController struct {
	Hub      *tracking.Hub
	Users    *services.UserService
	upgrader websocket.Upgrader
}

func NewTrackingController(hub *tracking.Hub, users *services.UserService, allowedOrigin string) *TrackingController {
	return &TrackingController{
		Hub:   hub,
		Users: users,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowedOrigin == "*" || origin == "" || origin == allowedOrigin
			},
		},
	}
}

// filterFor limits what each role sees on the feed: residents their own
// orders, agents their assignments, wardens their residents' orders.
func (tc *TrackingController) filterFor(c *gin.Context, user *models.User) (tracking.Filter, bool) {
	switch user.Role {
	case models.RoleAdmin:
		return nil, true
	case models.RoleResident:
		return func(e services.OrderEvent) bool { return e.ResidentID == user.ID }, true
	case models.RoleDeliveryAgent:
		return func(e services.OrderEvent) bool {
			return e.DeliveryAgentID != nil && *e.DeliveryAgentID == user.ID
		}, true
	case models.RoleWarden:
		residents, err := tc.Users.Residents(c.Request.Context(), user.ID)
		if err != nil {
			respondServiceError(c, err)
			return nil, false
		}
		ids := make(map[uint]bool, len(residents))
		for _, r := range residents {
			ids[r.ID] = true
		}
		return func(e services.OrderEvent) bool { return ids[e.ResidentID] }, true
	}
	c.AbortWithStatus(http.StatusForbidden)
	return nil, false
}

// Stream -> endpoint WebSocket, read-only status feed
func (tc *TrackingController) Stream(c *gin.Context) {
	user := middlewares.CurrentUser(c)
	if user == nil {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	capability, ok := feedCapability[user.Role]
	if !ok || services.Authorize(services.ActorFromUser(user), capability) != nil {
		c.AbortWithStatus(http.StatusForbidden)
		return
	}
	filter, ok := tc.filterFor(c, user)
	if !ok {
		return
	}

	ws, err := tc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.ErrorLogger.Errorf("WebSocket upgrade failed: %v", err)
		return
	}

	tc.Hub.Register(ws, filter)
	defer tc.Hub.Unregister(ws)
	_ = tc.Hub.Send(ws, tracking.Message{
		Event: tracking.EventConnected,
		Data:  gin.H{"user_id": user.ID, "role": user.Role},
	})

	// clients only read; drain control frames until they go away
	ws.SetReadLimit(512)
	ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
		ws.SetReadDeadline(time.Now().Add(pongWait))
	}
}
