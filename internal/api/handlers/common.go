package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/qasimdev/sijill/internal/api/middleware"
	"github.com/qasimdev/sijill/internal/utils"
)

const (
	appName     = "نظام بيانات الموظفين"
	flashCookie = "sijill_flash"
)

type APIError struct {
	Code    utils.Code `json:"code"`
	Message string     `json:"message"`
}

func writeError(c *gin.Context, err error) {
	status := utils.HTTPStatus(err)

	var ae *utils.AppError
	if errors.As(err, &ae) {
		c.JSON(status, APIError{
			Code:    ae.Code,
			Message: ae.Message,
		})
		return
	}

	c.JSON(status, APIError{
		Code:    utils.CodeInternal,
		Message: http.StatusText(status),
	})
}

func requireActor(c *gin.Context) (string, bool) {
	if v, ok := c.Get(middleware.ContextAdminKey); ok {
		if s, ok := v.(string); ok && s != "" {
			return s, true
		}
	}

	writeError(c, utils.E(utils.CodeUnauthenticated, "Auth", "unauthorized", nil))
	return "", false
}

func paramUint(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || v == 0 {
		return 0, false
	}
	return uint(v), true
}

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Level   string `json:"level"` // success | info | warning | danger
	Message string `json:"message"`
}

func addFlash(c *gin.Context, level, message string) {
	flashes := readFlashes(c)
	flashes = append(flashes, Flash{Level: level, Message: message})
	raw, err := json.Marshal(flashes)
	if err != nil {
		return
	}
	c.SetCookie(flashCookie, base64.RawURLEncoding.EncodeToString(raw), 60, "/", "", false, true)
}

func popFlashes(c *gin.Context) []Flash {
	flashes := readFlashes(c)
	if len(flashes) > 0 {
		c.SetCookie(flashCookie, "", -1, "/", "", false, true)
	}
	return flashes
}

func readFlashes(c *gin.Context) []Flash {
	raw, err := c.Cookie(flashCookie)
	if err != nil || raw == "" {
		return nil
	}
	decoded, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return nil
	}
	var flashes []Flash
	if err := json.Unmarshal(decoded, &flashes); err != nil {
		return nil
	}
	return flashes
}

// render merges page data with the chrome every template expects.
func render(c *gin.Context, status int, tmpl string, data gin.H, maxMB int64) {
	if data == nil {
		data = gin.H{}
	}
	data["AppName"] = appName
	data["MaxMB"] = maxMB
	data["Flashes"] = popFlashes(c)
	c.HTML(status, tmpl, data)
}
