package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The gateway fronts a browser SPA served from another origin.
	CheckOrigin: func(*http.Request) bool { return true },
}

// liveLeaderboard upgrades to a websocket and relays the quiz's pubsub
// channel to the client until either side goes away. The client sends
// nothing; its read pump only detects the close.
func (a *API) liveLeaderboard(c *gin.Context) {
	quizID := c.Param("quizID")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	sub := a.redis.Subscribe(ctx, a.quizChannel(quizID))
	defer sub.Close()

	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case msg, ok := <-sub.Channel():
			if !ok {
				return
			}

			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				slog.DebugContext(ctx, "ws: relay write failed, closing",
					"quiz", quizID,
					"error", err,
				)
				return
			}
		}
	}
}
