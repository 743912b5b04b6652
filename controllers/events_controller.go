package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/winterarc/events"
	"github.com/cppla/winterarc/utils"
)

const sseHeartbeat = 25 * time.Second

// EventsController streams progress events as server-sent events.
type EventsController struct {
	bus       events.Bus
	heartbeat time.Duration
}

// NewEventsController creates an EventsController.
func NewEventsController(bus events.Bus) *EventsController {
	return &EventsController{bus: bus, heartbeat: sseHeartbeat}
}

// Stream sends the caller's own events in full and other users' progress as leaderboard.updated.
// The stream ends when the client disconnects or the bus closes.
func (e *EventsController) Stream(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	ch, cancel := e.bus.Subscribe()
	defer cancel()

	ctx.Header("Content-Type", "text/event-stream")
	ctx.Header("Cache-Control", "no-cache")
	ctx.Header("Connection", "keep-alive")
	ctx.Header("X-Accel-Buffering", "no")
	ctx.Status(http.StatusOK)
	ctx.SSEvent("ready", gin.H{"user_id": userID})
	ctx.Writer.Flush()

	ticker := time.NewTicker(e.heartbeat)
	defer ticker.Stop()
	done := ctx.Request.Context().Done()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			ctx.SSEvent("ping", time.Now().Unix())
		case ev, ok := <-ch:
			if !ok {
				return
			}
			out, send := project(ev, userID)
			if !send {
				continue
			}
			ctx.SSEvent(out.Type, out)
		}
		ctx.Writer.Flush()
	}
}

// project filters ev for viewer. Other users' achievements are not forwarded.
func project(ev events.Event, viewer uint) (events.Event, bool) {
	if ev.UserID == viewer {
		return ev, true
	}
	switch ev.Type {
	case events.TypeCompleted, events.TypeReverted:
		return events.Event{Type: events.TypeLeaderboardUpdated, At: ev.At}, true
	default:
		return events.Event{}, false
	}
}
