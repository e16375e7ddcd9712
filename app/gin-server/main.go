package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/hirevid/hirevid/config"
	"github.com/hirevid/hirevid/internal/api/handlers"
	"github.com/hirevid/hirevid/internal/api/middleware"
	"github.com/hirevid/hirevid/internal/api/routes"
	"github.com/hirevid/hirevid/internal/cache"
	"github.com/hirevid/hirevid/internal/email"
	"github.com/hirevid/hirevid/internal/logger"
	"github.com/hirevid/hirevid/internal/media"
	"github.com/hirevid/hirevid/internal/models"
	pgrepo "github.com/hirevid/hirevid/internal/repositories/postgres"
	"github.com/hirevid/hirevid/internal/services"
	"github.com/hirevid/hirevid/internal/storage"
	"github.com/hirevid/hirevid/internal/workers"
)

func main() {
	_ = godotenv.Load()

	logg := logger.New()
	ctx := context.Background()

	if err := config.InitPostgres(); err != nil {
		log.Fatalf("PostgreSQL init error: %v", err)
	}
	logg.Info("PostgreSQL connected")

	if err := config.InitRedis(); err != nil {
		log.Fatalf("Redis init error: %v", err)
	}
	logg.Info("Redis connected")

	db := config.PostgresDB
	if err := db.AutoMigrate(
		&models.Interviewer{},
		&models.Role{},
		&models.Question{},
		&models.Interview{},
		&models.Candidate{},
		&models.InterviewLink{},
		&models.VideoAnswer{},
	); err != nil {
		log.Fatalf("migration error: %v", err)
	}

	bucket := os.Getenv("GCS_BUCKET")
	if bucket == "" {
		log.Fatal("GCS_BUCKET environment variable is not set")
	}
	store, err := storage.NewGCSStore(ctx, bucket)
	if err != nil {
		log.Fatalf("GCS init error: %v", err)
	}

	var sender email.Sender
	sender, err = email.NewSendGridSender()
	if err != nil {
		if os.Getenv("APP_ENV") == "production" {
			log.Fatalf("SendGrid init error: %v", err)
		}
		logg.WithError(err).Warn("SendGrid unavailable; emails will be logged")
		sender = &email.LogSender{Log: logg}
	}

	redisCache := cache.NewRedisCache(config.RedisClient)

	interviewerRepo := pgrepo.NewInterviewerRepo(db)
	roleRepo := pgrepo.NewRoleRepo(db)
	questionRepo := pgrepo.NewQuestionRepo(db)
	interviewRepo := pgrepo.NewInterviewRepo(db)
	candidateRepo := pgrepo.NewCandidateRepo(db)
	linkRepo := pgrepo.NewLinkRepo(db)
	answerRepo := pgrepo.NewVideoAnswerRepo(db)

	authSvc := services.NewAuthService(interviewerRepo)
	roleSvc := services.NewRoleService(roleRepo, interviewerRepo)
	linkSvc := services.NewLinkService(linkRepo)
	questionSvc := services.NewQuestionService(questionRepo, roleRepo, linkSvc, redisCache)
	inviteSvc := services.NewInviteService(roleRepo, interviewRepo, candidateRepo, linkSvc, sender, logg, os.Getenv("FRONTEND_URL"))
	stitchSvc := services.NewStitchService(linkRepo, answerRepo, store, media.NewFFmpeg(), sender, logg)

	pool := &workers.StitchWorkerPool{
		Redis:     config.RedisClient,
		Stitcher:  stitchSvc,
		Links:     linkRepo,
		Answers:   answerRepo,
		Questions: questionRepo,
		Logger:    logg,
	}
	if err := pool.Start(ctx); err != nil {
		log.Fatalf("stitch worker init error: %v", err)
	}

	videoSvc := services.NewVideoService(answerRepo, questionRepo, linkSvc, store, redisCache, pool, logg)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logg))

	routes.RegisterRoutes(r, routes.Deps{
		Auth:      handlers.NewAuthHandler(authSvc),
		Role:      handlers.NewRoleHandler(roleSvc),
		Question:  handlers.NewQuestionHandler(questionSvc),
		Interview: handlers.NewInterviewHandler(inviteSvc, linkSvc),
		Video:     handlers.NewVideoHandler(videoSvc, linkSvc, store),
		Stitch:    handlers.NewStitchHandler(stitchSvc, pool),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
