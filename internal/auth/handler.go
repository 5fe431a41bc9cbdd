package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// Handler exchanges the admin password for a bearer token. There are no user
// accounts; the bcrypt hash comes from configuration.
type Handler struct {
	AdminHash []byte
	Tokens    TokenService
}

func NewHandler(adminHash string, tokens TokenService) *Handler {
	return &Handler{AdminHash: []byte(adminHash), Tokens: tokens}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/token", h.token)
}

type tokenReq struct {
	Password string `json:"password"`
	Subject  string `json:"subject"`
}

func (h *Handler) token(c *gin.Context) {
	var req tokenReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password required"})
		return
	}
	if len(h.AdminHash) == 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "token issuance not configured"})
		return
	}

	if err := bcrypt.CompareHashAndPassword(h.AdminHash, []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	subject := strings.TrimSpace(req.Subject)
	if subject == "" {
		subject = "admin"
	}

	token, exp, err := h.Tokens.Sign(subject)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_at": exp.UTC().Format(time.RFC3339),
	})
}

// HashPassword returns the bcrypt hash to put in auth.admin_password_hash.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
