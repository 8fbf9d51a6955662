package handlers

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/qasimdev/sijill/config"
	"github.com/qasimdev/sijill/internal/api/middleware"
	"github.com/qasimdev/sijill/internal/utils"
)

type AuthHandler struct {
	cfg *config.Config
	log *logrus.Logger
}

func NewAuthHandler(cfg *config.Config, log *logrus.Logger) *AuthHandler {
	return &AuthHandler{cfg: cfg, log: log}
}

func (h *AuthHandler) LoginForm(c *gin.Context) {
	render(c, http.StatusOK, "login.html", gin.H{
		"Next": c.Query("next"),
	}, h.cfg.MaxUploadMB)
}

func (h *AuthHandler) Login(c *gin.Context) {
	username := strings.TrimSpace(c.PostForm("username"))
	password := strings.TrimSpace(c.PostForm("password"))

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(h.cfg.AdminUser)) == 1
	passOK := utils.VerifyAdminPassword(h.cfg.AdminPass, password)
	if !userOK || !passOK {
		h.log.WithField("ip", c.ClientIP()).Warn("failed login attempt")
		addFlash(c, "danger", "بيانات الدخول غير صحيحة")
		c.Redirect(http.StatusFound, "/login")
		return
	}

	ttl := time.Duration(h.cfg.SessionTTLHours) * time.Hour
	token, err := middleware.IssueSession(h.cfg.SecretKey, username, ttl)
	if err != nil {
		writeError(c, utils.E(utils.CodeInternal, "AuthHandler.Login", "failed to issue session", err))
		return
	}
	middleware.SetSession(c, token, ttl)

	addFlash(c, "success", "تم تسجيل الدخول بنجاح")

	next := c.Query("next")
	if next == "" || !strings.HasPrefix(next, "/") {
		next = "/"
	}
	c.Redirect(http.StatusFound, next)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	middleware.ClearSession(c)
	addFlash(c, "info", "تم تسجيل الخروج")
	c.Redirect(http.StatusFound, "/login")
}
