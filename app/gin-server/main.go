package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"

	"github.com/qasimdev/sijill/config"
	"github.com/qasimdev/sijill/internal/api/handlers"
	"github.com/qasimdev/sijill/internal/api/middleware"
	"github.com/qasimdev/sijill/internal/api/routes"
	"github.com/qasimdev/sijill/internal/logger"
	"github.com/qasimdev/sijill/internal/repositories"
	"github.com/qasimdev/sijill/internal/services"
	"github.com/qasimdev/sijill/internal/storage"
	"github.com/qasimdev/sijill/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	l := logger.New(cfg.LogLevel)

	db, err := config.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("Database init error: %v", err)
	}
	l.Info("database connected")

	store, err := storage.NewLocalStore(afero.NewOsFs(), cfg.UploadRoot)
	if err != nil {
		log.Fatalf("Storage init error: %v", err)
	}
	l.WithField("root", store.Root()).Info("upload storage ready")

	employeeRepo := repositories.NewEmployeeRepo(db)
	fileRepo := repositories.NewEmployeeFileRepo(db)

	employeeSvc := services.NewEmployeeService(employeeRepo)
	attachmentSvc := services.NewAttachmentService(fileRepo, employeeRepo, store, l)

	r := gin.New()
	r.Use(middleware.RequestLogger(l), gin.Recovery())
	r.SetHTMLTemplate(web.Parse())
	r.MaxMultipartMemory = cfg.MaxUploadBytes()

	routes.RegisterRoutes(r, routes.Deps{
		Auth:      handlers.NewAuthHandler(cfg, l),
		Employees: handlers.NewEmployeeHandler(employeeSvc, attachmentSvc, cfg.MaxUploadMB),
		Files:     handlers.NewFileHandler(attachmentSvc),
	}, cfg)

	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
