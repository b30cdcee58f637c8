package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/examstack/examhall/internal/config"
	"github.com/examstack/examhall/internal/database"
	"github.com/examstack/examhall/internal/handler"
	"github.com/examstack/examhall/internal/middleware"
	"github.com/examstack/examhall/internal/queue"
	"github.com/examstack/examhall/internal/repository"
	"github.com/examstack/examhall/internal/router"
	"github.com/examstack/examhall/internal/seating"
)

func main() {
	// .env is optional; real deployments set variables directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer func() { _ = db.Close() }()

	// Redis is optional: nil client turns cache and rate limiting into
	// pass-through middleware.
	rdb := config.NewRedisClient()

	// Repositories.
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	courses := repository.NewCourseRepo(db)
	exams := repository.NewExamRepo(db)
	halls := repository.NewHallRepo(db)
	tickets := repository.NewHallTicketRepo(db)
	syllabi := repository.NewSyllabusRepo(db)
	seatingStore := repository.NewSeatingRepo(db)

	// Seating core: the exam and enrollment repositories double as its
	// lookup ports.
	assigner := seating.NewAssigner(exams, courses)
	seatingSvc := seating.NewService(assigner, seatingStore)

	// Handlers.
	authH := handler.NewAuthHandler(cfg, users, tokens)
	examH := handler.NewExamHandler(exams)
	hallH := handler.NewHallHandler(halls)
	courseH := handler.NewCourseHandler(courses, users)
	ticketH := handler.NewHallTicketHandler(tickets, exams, users)
	seatingH := handler.NewSeatingHandler(seatingSvc, exams)
	syllabusH := handler.NewSyllabusHandler(syllabi, courses)
	dashH := handler.NewDashboardHandler(users, exams, halls, courses, tickets, syllabi)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	e.Use(middleware.NewRedisCache(config.LoadCacheConfig(), rdb))

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterReads(e, examH, hallH, courseH, syllabusH, cfg.JWTSecret)
	router.RegisterAdmin(e, examH, hallH, courseH, ticketH, dashH, cfg.JWTSecret)
	router.RegisterStaff(e, seatingH, ticketH, courseH, syllabusH, cfg.JWTSecret)
	router.RegisterStudent(e, seatingH, ticketH, courseH, dashH, cfg.JWTSecret)

	// Notification consumer runs for the life of the process and
	// reconnects on broker failures.
	go func() {
		if err := queue.StartNotificationConsumer(); err != nil {
			log.Printf("notification consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
