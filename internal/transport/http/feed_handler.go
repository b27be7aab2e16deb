package http

import (
	"context"
	stdhttp "net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/portfolio-server/internal/feed"
)

const feedWriteTimeout = 5 * time.Second

// FeedHandler streams new submissions over a websocket.
type FeedHandler struct {
	hub     *feed.Hub
	origins []string
	log     *zerolog.Logger
}

// NewFeedHandler creates a websocket handler bound to hub.
// origins lists additional host patterns allowed to connect cross-origin.
func NewFeedHandler(hub *feed.Hub, origins []string, logger *zerolog.Logger) *FeedHandler {
	return &FeedHandler{
		hub:     hub,
		origins: origins,
		log:     logger,
	}
}

// ServeHTTP upgrades the request and pushes each published submission as JSON
// until the client disconnects or the hub is closed.
// GET /ws/submissions
func (h *FeedHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.origins,
	})
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket accept failed")
		return
	}
	defer conn.CloseNow()

	// Clients never send anything; CloseRead handles control frames and
	// cancels ctx when the peer goes away.
	ctx := conn.CloseRead(r.Context())

	events, cancel := h.hub.Subscribe()
	defer cancel()

	h.log.Debug().Int("subscribers", h.hub.Subscribers()).Msg("feed subscriber connected")

	for {
		select {
		case <-ctx.Done():
			return
		case sub, ok := <-events:
			if !ok {
				_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
				return
			}
			wctx, wcancel := context.WithTimeout(ctx, feedWriteTimeout)
			err := wsjson.Write(wctx, conn, sub)
			wcancel()
			if err != nil {
				h.log.Debug().Err(err).Msg("feed write failed")
				return
			}
		}
	}
}
