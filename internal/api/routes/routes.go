package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/qasimdev/sijill/config"
	"github.com/qasimdev/sijill/internal/api/handlers"
	"github.com/qasimdev/sijill/internal/api/middleware"
)

type Deps struct {
	Auth      *handlers.AuthHandler
	Employees *handlers.EmployeeHandler
	Files     *handlers.FileHandler
}

func RegisterRoutes(r *gin.Engine, d Deps, cfg *config.Config) {
	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	maxBytes := cfg.MaxUploadBytes()
	r.Use(func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	})

	r.GET("/login", d.Auth.LoginForm)
	r.POST("/login", d.Auth.Login)

	// Everything else requires the admin session
	auth := r.Group("/")
	auth.Use(middleware.SessionAuth(cfg.SecretKey))

	auth.GET("/logout", d.Auth.Logout)

	auth.GET("/", d.Employees.Dashboard)
	auth.GET("/employees/new", d.Employees.NewForm)
	auth.POST("/employees/new", d.Employees.Create)
	auth.GET("/employees/:id", d.Employees.View)
	auth.GET("/employees/:id/edit", d.Employees.EditForm)
	auth.POST("/employees/:id/edit", d.Employees.Update)
	auth.POST("/employees/:id/delete", d.Employees.Delete)

	auth.GET("/files/*relpath", d.Files.ServePath)
	auth.GET("/employees/:id/files/:file_id", d.Files.ServeEmployeeFile)
	auth.POST("/employees/:id/files/:file_id/delete", d.Files.DeleteEmployeeFile)
}
