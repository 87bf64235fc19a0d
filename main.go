package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"viktorai/configs"
	"viktorai/internal/db"
	"viktorai/internal/event"
	"viktorai/internal/gateway"
	"viktorai/internal/handlers"
	"viktorai/internal/repository"
	"viktorai/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := configs.Load()
	if cfg.JWTAccessSecret == "" || cfg.JWTRefreshSecret == "" {
		log.Fatal("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET are required")
	}
	gin.SetMode(cfg.GinMode)

	db.InitMongo(cfg.MongoURI)
	defer db.Disconnect()
	database := db.Client.Database(cfg.MongoDatabase)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := db.EnsureIndexes(ctx, database); err != nil {
		cancel()
		log.Fatalf("Failed to create indexes: %v", err)
	}
	cancel()

	// Redis backs login lockouts; the service degrades gracefully without it.
	var redisClient *redis.Client
	if cfg.RedisURI != "" {
		opts, err := redis.ParseURL(cfg.RedisURI)
		if err != nil {
			log.Fatalf("Invalid REDIS_URI: %v", err)
		}
		redisClient = redis.NewClient(opts)
	} else {
		log.Println("Redis not configured, login lockouts are in-memory only")
	}

	var publisher *event.EventPublisher
	if cfg.RabbitMQURI != "" && cfg.RabbitMQExchange != "" {
		var err error
		publisher, err = event.NewEventPublisher(cfg.RabbitMQURI, cfg.RabbitMQExchange)
		if err != nil {
			log.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		defer publisher.Close()
	} else {
		log.Println("RabbitMQ not configured, events will not be published")
	}

	catalog, err := service.LoadCourseCatalog(cfg.CourseCatalog)
	if err != nil {
		log.Printf("Course catalog unavailable (%v), using minimal course info", err)
	}

	userRepo := repository.NewUserRepository(database)
	quizRepo := repository.NewQuizRepository(database)
	questionRepo := repository.NewQuestionRepository(database)
	attemptRepo := repository.NewAttemptRepository(database)

	llmClient := gateway.NewLLMClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel)
	chiselClient := gateway.NewChiselClient(cfg.ChiselURL)

	authService := service.NewAuthService(userRepo, redisClient, cfg.BcryptCost)
	tokenService := service.NewTokenService(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, userRepo)
	quizService := service.NewQuizService(quizRepo, questionRepo)
	attemptService := service.NewAttemptService(attemptRepo, quizRepo, questionRepo, llmClient)
	generationService := service.NewGenerationService(quizRepo, questionRepo, llmClient, chiselClient, catalog)

	authHandler := handlers.NewAuthHandler(authService, tokenService)
	quizHandler := handlers.NewQuizHandler(quizService, attemptService, generationService)

	r := gin.New()
	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf("%v | %3d | %13v | %15s | %-7s %#v\n%s",
			param.TimeStamp.Format("2006/01/02 - 15:04:05"),
			param.StatusCode,
			param.Latency,
			param.ClientIP,
			param.Method,
			param.Path,
			param.ErrorMessage,
		)
	}))
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.ClientOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Content-Length", "Accept-Encoding", "Authorization", "accept", "origin", "Cache-Control", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Session routes: identity comes from the access cookie.
	r.POST("/register", func(c *gin.Context) {
		authHandler.Register(c)
		if publisher != nil && c.Writer.Status() == http.StatusOK {
			publisher.Publish("user.registered", gin.H{"timestamp": time.Now()})
		}
	})
	r.POST("/login", authHandler.Login)
	r.GET("/user", authHandler.GetUser)

	refresh := r.Group("/refresh")
	{
		refresh.POST("", authHandler.Refresh)
		refresh.POST("/logout", authHandler.Logout)
		refresh.POST("/delete_account", authHandler.DeleteAccount)
	}

	session := r.Group("/")
	session.Use(handlers.AccessTokenAuth(tokenService))
	{
		session.POST("/quiz/create", func(c *gin.Context) {
			quizHandler.CreateQuiz(c)
			if publisher != nil && c.Writer.Status() == http.StatusCreated {
				publisher.Publish("quiz.created", gin.H{"source": "manual", "timestamp": time.Now()})
			}
		})
		session.POST("/quiz/create-ai", func(c *gin.Context) {
			quizHandler.CreateAIQuiz(c)
			if publisher != nil && c.Writer.Status() == http.StatusCreated {
				publisher.Publish("quiz.ai.generated", gin.H{"timestamp": time.Now()})
			}
		})
		session.GET("/quizzes", quizHandler.ListQuizzes)
		session.GET("/quiz/:quizId", quizHandler.GetQuiz)
		session.POST("/quiz/:quizId/attempt", quizHandler.StartAttempt)
		session.POST("/quiz/attempt/:attemptId/complete", func(c *gin.Context) {
			quizHandler.CompleteAttempt(c)
			if publisher != nil && c.Writer.Status() == http.StatusOK {
				publisher.Publish("quiz.attempt.completed", gin.H{
					"attemptId": c.Param("attemptId"),
					"timestamp": time.Now(),
				})
			}
		})
		session.GET("/quiz/attempt/:attemptId/results", quizHandler.AttemptResults)
		session.GET("/user/quiz-attempts", quizHandler.ListAttempts)
		session.GET("/course-categories", quizHandler.CourseCategories)
	}

	// Machine routes: a trusted backend authenticates with the static API
	// token and names the acting user in the path.
	machine := r.Group("/")
	machine.Use(handlers.ServiceTokenAuth(cfg.APIAccessToken))
	{
		machine.GET("/test-quiz-auth", handlers.TestAuth)
		machine.POST("/quiz/create-ai-from-course", func(c *gin.Context) {
			quizHandler.CreateAIQuiz(c)
			if publisher != nil && c.Writer.Status() == http.StatusCreated {
				publisher.Publish("quiz.ai.generated", gin.H{"timestamp": time.Now()})
			}
		})
		machine.GET("/quizzes/:userId/from-course", quizHandler.ListQuizzes)
		machine.GET("/quiz/:quizId/from-course", quizHandler.GetQuiz)
		machine.POST("/quiz/:quizId/:userId/attempt-from-course", quizHandler.StartAttempt)
		machine.POST("/quiz/attempt/:attemptId/:userId/complete-from-course", quizHandler.CompleteAttempt)
		machine.GET("/quiz/attempt/:attemptId/:userId/results-from-course", quizHandler.AttemptResults)
		machine.GET("/user/:userId/quiz-attempts-from-course", quizHandler.ListAttempts)
		machine.GET("/course/:courseId/quiz-recommendations", quizHandler.QuizRecommendations)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Printf("Listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
