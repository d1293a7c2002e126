package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"linkwise/internal/middleware"
	"linkwise/internal/render"
	"linkwise/internal/service"
)

type LinkHandler struct {
	links *service.LinkService
}

func NewLinkHandler(links *service.LinkService) *LinkHandler {
	return &LinkHandler{links: links}
}

type createLinkRequest struct {
	URL string `json:"url"`
}

func (h *LinkHandler) List(c *gin.Context) {
	links, err := h.links.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "links": links})
}

// Cards returns the user's links as escaped HTML cards, filtered by the q query parameter.
// The Linkwise page swaps the fragment into its list container.
func (h *LinkHandler) Cards(c *gin.Context) {
	links, err := h.links.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	fragment, err := render.HTML(render.Items(links, c.Query("q"), time.Now()))
	if err != nil {
		handleError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(fragment))
}

func (h *LinkHandler) Create(c *gin.Context) {
	var req createLinkRequest
	// A missing or malformed body is treated like an empty URL.
	_ = c.ShouldBindJSON(&req)
	link, err := h.links.Create(c.Request.Context(), middleware.UserID(c), req.URL)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "link": link})
}

func (h *LinkHandler) Delete(c *gin.Context) {
	if err := h.links.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
