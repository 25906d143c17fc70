package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	_ "queuelist/docs"
	"queuelist/internal/auth"
	"queuelist/internal/handlers"
	"queuelist/internal/logging"
	"queuelist/internal/models"
	"queuelist/internal/service"
	"queuelist/internal/storage"
	"queuelist/internal/tasks"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// Горизонт жизни очереди по умолчанию — два года с момента создания.
const defaultQueueHorizon = time.Hour * 24 * 365 * 2

// @Title						Онлайн-очереди
// @Description				Сервис именованных очередей: вступление, выход, порядок обслуживания
// @securityDefinitions.apikey	BearerAuth
// @in							header
// @name						Authorization
func main() {
	key := os.Getenv("ENV_CHEK")
	if key == "" {
		fmt.Println("Подключение к .env")
		if err := godotenv.Load(); err != nil {
			fmt.Println("Ошибка получения .env")
			os.Exit(1)
		}
	}

	log := logging.New()
	defer log.Sync()

	db, err := storage.Connect()
	if err != nil {
		log.Fatal("ошибка подключения к базе данных", zap.Error(err))
	}

	if err := db.AutoMigrate(&models.User{}, &models.Queue{}, &models.QueueEntry{}); err != nil {
		log.Fatal("ошибка при миграции", zap.Error(err))
	}

	rdb := storage.NewRedis(os.Getenv("REDIS_ADDR"))

	horizon := defaultQueueHorizon
	if hours, err := strconv.Atoi(os.Getenv("QUEUE_TTL_HOURS")); err == nil && hours > 0 {
		horizon = time.Duration(hours) * time.Hour
	}

	svc := service.New(db, rdb, horizon, log)

	tasks.InitScheduler(svc, log)

	accessSecret := []byte(os.Getenv("JWT_ACCESS_SECRET"))
	refreshSecret := []byte(os.Getenv("JWT_REFRESH_SECRET"))
	h := handlers.New(db, svc, accessSecret, refreshSecret)
	verifier := auth.NewJWTVerifier(accessSecret)

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/ping", h.Ping)

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/refresh", h.RefreshToken)
	}

	api := r.Group("/api", auth.Middleware(verifier))
	{
		api.POST("/queues", h.CreateQueue)
		api.GET("/queues/:id", h.GetQueue)
		api.DELETE("/queues/:id", h.DeleteQueue)
		api.GET("/queues/:id/members", h.GetMembers)
		api.POST("/queues/:id/join", h.JoinQueue)
		api.POST("/queues/:id/leave", h.LeaveQueue)
		api.GET("/profile/queues", h.MyQueues)
		api.GET("/users/:id", h.GetUser)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := r.Run(":" + port); err != nil {
		log.Fatal("ошибка запуска сервера", zap.Error(err))
	}
}
