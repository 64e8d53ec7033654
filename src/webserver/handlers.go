package webserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/OneOfOne/xxhash"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/stake-plus/middlefinger/src/feed"
	"github.com/stake-plus/middlefinger/src/view"
)

// App is the part of the feed controller the HTTP surface drives.
type App interface {
	State() feed.State
	Listen(fn func(feed.State)) (cancel func())
	SetDraft(text string)
	Connect(ctx context.Context)
	Submit(ctx context.Context)
}

var _ App = (*feed.Controller)(nil)

type Handlers struct {
	app      App
	view     *view.Renderer
	upgrader websocket.Upgrader
}

func NewHandlers(app App, renderer *view.Renderer) Handlers {
	return Handlers{
		app:  app,
		view: renderer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
}

func (h Handlers) page() view.Page {
	return h.view.Project(h.app.State())
}

func (h Handlers) Index(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.view.Render(&buf, h.page()); err != nil {
		log.Error().Err(err).Msg("render page")
		c.JSON(http.StatusInternalServerError, gin.H{"err": "render failed"})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// State returns the page as JSON, tagged with a content hash.
func (h Handlers) State(c *gin.Context) {
	body, err := json.Marshal(h.page())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	etag := fmt.Sprintf(`"%016x"`, xxhash.Checksum64(body))
	c.Header("ETag", etag)
	if c.GetHeader("If-None-Match") == etag {
		c.Status(http.StatusNotModified)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

type draftReq struct {
	Message *string `json:"message" binding:"required"`
}

func (h Handlers) Draft(c *gin.Context) {
	var req draftReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	h.app.SetDraft(*req.Message)
	c.JSON(http.StatusOK, h.page())
}

func (h Handlers) Connect(c *gin.Context) {
	h.app.Connect(c.Request.Context())
	c.JSON(http.StatusOK, h.page())
}

// Submit hands the draft to the wallet. The feed only changes once the
// contract event arrives, so the response is Accepted.
func (h Handlers) Submit(c *gin.Context) {
	h.app.Submit(c.Request.Context())
	c.JSON(http.StatusAccepted, h.page())
}
