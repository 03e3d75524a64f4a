package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"github.com/dinilH/SkillConnect/internal/app/dto"
	apppresence "github.com/dinilH/SkillConnect/internal/app/presence"
	domainpresence "github.com/dinilH/SkillConnect/internal/domain/presence"
)

// PresenceHTTP exposes the presence endpoints.
type PresenceHTTP interface {
	SetActivity(c *gin.Context)
	ListActive(c *gin.Context)
}

// PresenceHandler bridges HTTP with the presence tracker.
type PresenceHandler struct {
	Tracker *apppresence.Tracker
	Logger  *slog.Logger
}

// SetActivity records an explicit online or offline signal for the
// caller. The heartbeat path on the websocket covers the common case;
// this endpoint serves clients without a live socket.
func (h PresenceHandler) SetActivity(c *gin.Context) {
	p, ok := requireUser(c)
	if !ok {
		return
	}
	userID := strings.TrimSpace(c.Param("id"))
	if userID != p.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "activity can only be reported for yourself"})
		return
	}
	var req struct {
		Online bool `json:"online"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	var err error
	if req.Online {
		err = h.Tracker.Heartbeat(c.Request.Context(), domainpresence.UserID(userID))
	} else {
		err = h.Tracker.GoOffline(c.Request.Context(), domainpresence.UserID(userID))
	}
	if err != nil {
		if errors.Is(err, domainpresence.ErrUserRequired) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if h.Logger != nil {
			h.Logger.Error("activity update failed", "error", err, "user_id", userID, "online", req.Online)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"online": req.Online})
}

// ListActive returns users with recent activity, most recent first.
func (h PresenceHandler) ListActive(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}
	members, err := h.Tracker.ActiveMembers(c.Request.Context())
	if err != nil {
		if h.Logger != nil {
			h.Logger.Error("active members listing failed", "error", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	collection := dto.ActiveMemberList{
		Items:  make([]dto.ActiveMember, 0, len(members)),
		Window: h.Tracker.ActiveWindow.String(),
	}
	for _, member := range members {
		collection.Items = append(collection.Items, dto.ActiveMember{
			UserID:       string(member.UserID),
			Online:       member.Online,
			LastActiveAt: member.LastActiveAt,
		})
	}
	c.JSON(http.StatusOK, collection)
}

var _ PresenceHTTP = (*PresenceHandler)(nil)
