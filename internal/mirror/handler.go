package mirror

import (
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

const maxNum = 250

// Handler re-reads the catalog file on every request so edits show up without
// a restart.
type Handler struct {
	Path string
}

func NewHandler(path string) *Handler {
	return &Handler{Path: path}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/apps", h.list)       // GET /api/apps?collection=&category=&num= or ?q=&num=
	rg.GET("/apps/:appId", h.get) // GET /api/apps/:appId
}

func (h *Handler) load(c *gin.Context) (*Catalog, bool) {
	cat, err := Load(h.Path)
	if err != nil {
		log.Printf("[mirror] %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "catalog unavailable"})
		return nil, false
	}
	return cat, true
}

func (h *Handler) list(c *gin.Context) {
	cat, ok := h.load(c)
	if !ok {
		return
	}

	num := parseInt(c.Query("num"), 20)
	if num < 1 {
		num = 1
	}
	if num > maxNum {
		num = maxNum
	}

	if q := c.Query("q"); q != "" {
		c.JSON(http.StatusOK, cat.Search(q, num))
		return
	}
	c.JSON(http.StatusOK, cat.List(c.Query("collection"), c.Query("category"), num))
}

func (h *Handler) get(c *gin.Context) {
	cat, ok := h.load(c)
	if !ok {
		return
	}
	app, found := cat.Get(c.Param("appId"))
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, app)
}

func parseInt(s string, def int) int {
	if strings.TrimSpace(s) == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
