package webserver

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/stake-plus/middlefinger/src/feed"
)

const writeWait = 10 * time.Second

// Live pushes the page as JSON over a websocket: once on connect, then after
// every state change. Slow readers only see the latest state.
func (h Handlers) Live(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Debug().Err(err).Msg("websocket upgrade")
		return
	}
	defer conn.Close()

	updates := make(chan feed.State, 1)
	stop := h.app.Listen(func(s feed.State) {
		for {
			select {
			case updates <- s:
				return
			default:
			}
			select {
			case <-updates:
			default:
			}
		}
	})
	defer stop()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	s := h.app.State()
	for {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(h.view.Project(s)); err != nil {
			log.Debug().Err(err).Msg("websocket write")
			return
		}
		select {
		case <-closed:
			return
		case <-c.Request.Context().Done():
			return
		case s = <-updates:
		}
	}
}
