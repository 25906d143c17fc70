package handlers

import (
	"queuelist/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handler держит зависимости обработчиков: базу для учетных записей,
// сервис очередей и секреты для выдачи токенов.
type Handler struct {
	db            *gorm.DB
	svc           *service.Service
	accessSecret  []byte
	refreshSecret []byte
}

func New(db *gorm.DB, svc *service.Service, accessSecret, refreshSecret []byte) *Handler {
	return &Handler{
		db:            db,
		svc:           svc,
		accessSecret:  accessSecret,
		refreshSecret: refreshSecret,
	}
}

// Ping godoc
// @Summary	Проверка доступности сервиса
// @Tags		health
// @Produce	plain
// @Success	200	{string}	string	"Pong!"
// @Router		/ping [get]
func (h *Handler) Ping(c *gin.Context) {
	c.String(200, "Pong!")
}
