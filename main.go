package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/visionlab/visionbackend/config"
	"github.com/visionlab/visionbackend/database"
	"github.com/visionlab/visionbackend/handlers"
	"github.com/visionlab/visionbackend/media"
	"github.com/visionlab/visionbackend/realtime"
	"github.com/visionlab/visionbackend/repository"
	"github.com/visionlab/visionbackend/workers"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Printf("Info: No .env file found or error loading: %v", err)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	storagePaths := []string{cfg.UploadsPath, cfg.ResultsPath, cfg.ArchivesPath, filepath.Dir(cfg.DatabasePath)}
	for _, p := range storagePaths {
		log.Printf("Ensuring storage directory exists: %s", p)
		if err := os.MkdirAll(p, 0755); err != nil {
			log.Fatalf("FATAL: Failed to create storage directory %s: %v", p, err)
		}
	}

	db, err := database.InitGormDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize database: %v", err)
	}
	if err := database.AutoMigrateModels(db); err != nil {
		log.Fatalf("FATAL: Failed to migrate database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("FATAL: Failed to get underlying sql.DB: %v", err)
	}

	mediaSubDirs := map[media.AssetType]string{
		media.AssetTypeUpload:  filepath.Base(cfg.UploadsPath),
		media.AssetTypeResult:  filepath.Base(cfg.ResultsPath),
		media.AssetTypeArchive: filepath.Base(cfg.ArchivesPath),
	}
	mediaStore, err := media.NewLocalStorage(cfg.MediaStoragePath, mediaSubDirs)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize media store: %v", err)
	}
	mediaProcessor := media.NewProcessor(mediaStore)

	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	imageRepo := repository.NewProjectImageRepository(db)
	operationRepo := repository.NewOperationRepository(db)

	hub := realtime.NewHub()
	go hub.Run()

	log.Printf("Initializing processing worker pool (Workers: %d, Queue Size: %d)...", cfg.NumProcessingWorkers, cfg.ProcessingQueueSize)
	processor := workers.NewOperationProcessor(imageRepo, operationRepo, mediaProcessor, hub, cfg.ProcessingQueueSize, cfg.NumProcessingWorkers)
	defer processor.Stop()

	log.Printf("Using database: %s", cfg.DatabasePath)
	log.Printf("Storing media in: %s", cfg.MediaStoragePath)

	r := chi.NewRouter()

	corsOptions := cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173"}, //TODO: configurable
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}

	corsHandler := cors.New(corsOptions)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(corsHandler.Handler)

	authHandler := handlers.NewAuthHandler(userRepo, cfg)
	projectHandler := &handlers.ProjectHandler{Projects: projectRepo, Images: imageRepo, Store: mediaStore, Cfg: cfg}
	imageHandler := &handlers.ProjectImageHandler{Projects: projectRepo, Images: imageRepo, Store: mediaStore}
	operationHandler := &handlers.OperationHandler{
		Projects:  projectRepo,
		Images:    imageRepo,
		Ops:       operationRepo,
		Processor: processor,
		SQLDB:     sqlDB,
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
		})

		// authenticated API
		r.Group(func(r chi.Router) {
			r.Use(handlers.AuthMiddleware(userRepo, cfg.JWTSecret))

			r.Route("/projects", func(r chi.Router) {
				r.Post("/", projectHandler.CreateProject)
				r.Get("/", projectHandler.ListProjects)
				r.Route("/{project_id}", func(r chi.Router) {
					r.Get("/", projectHandler.GetProject)
					r.Put("/", projectHandler.UpdateProject)
					r.Delete("/", projectHandler.DeleteProject)
					r.Get("/export", projectHandler.ExportProject)
					r.Route("/images", func(r chi.Router) {
						r.Post("/", imageHandler.UploadImage)
						r.Get("/", imageHandler.ListImages)
					})
				})
			})

			r.Route("/images/{image_id}", func(r chi.Router) {
				r.Get("/", imageHandler.GetImage)
				r.Delete("/", imageHandler.DeleteImage)
				r.Post("/process", operationHandler.ProcessImage)
				r.Get("/operations", operationHandler.ListImageOperations)
			})

			r.Route("/operations", func(r chi.Router) {
				r.Get("/", operationHandler.SearchOperations)
				r.Get("/{operation_id}", operationHandler.GetOperation)
			})
		})

		uploadsSubDir := filepath.Base(cfg.UploadsPath)
		r.Get(fmt.Sprintf("/%s/*", uploadsSubDir), handlers.AssetFileServer(cfg.MediaStoragePath, uploadsSubDir))
		log.Printf("Registered upload server at /%s/*", uploadsSubDir)

		resultsSubDir := filepath.Base(cfg.ResultsPath)
		r.Get(fmt.Sprintf("/%s/*", resultsSubDir), handlers.AssetFileServer(cfg.MediaStoragePath, resultsSubDir))
		log.Printf("Registered result server at /%s/*", resultsSubDir)
	})

	r.Get("/ws/operations", hub.ServeWS)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	serverAddr := ":" + port
	fmt.Printf("Server starting on http://localhost:%s\n", port)
	log.Printf("Server listening on %s", serverAddr)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	log.Fatal(server.ListenAndServe())
}
