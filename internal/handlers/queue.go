package handlers

import (
	"errors"
	"net/http"
	"time"

	"queuelist/internal/auth"
	"queuelist/internal/models"
	"queuelist/internal/ranking"
	"queuelist/internal/response"
	"queuelist/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CreateQueueRequest struct {
	Name        string `json:"name" binding:"required,min=3,max=100"`
	Description string `json:"description" binding:"max=500"`
	// Если поле не передано, создатель становится организатором.
	AddOrganizer *bool `json:"add_organizer"`
}

// QueueResponse описывает очередь в ответах API.
type QueueResponse struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	OrganizerID *uuid.UUID `json:"organizer_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   time.Time  `json:"expires_at"`
}

func queueToResponse(q *models.Queue) QueueResponse {
	return QueueResponse{
		ID:          q.ID,
		Name:        q.Name,
		Description: q.Description,
		OrganizerID: q.OrganizerID,
		CreatedAt:   q.CreatedAt,
		ExpiresAt:   q.ExpiresAt,
	}
}

func parseQueueID(c *gin.Context) (uuid.UUID, bool) {
	queueID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_QUEUE_ID",
			Message: "Неверный идентификатор очереди",
		})
		return uuid.Nil, false
	}
	return queueID, true
}

// CreateQueue godoc
// @Summary		Создание очереди
// @Description	Создает очередь; создатель сразу становится её участником
// @Tags			queue
// @Accept			json
// @Produce		json
// @Param			queue	body		CreateQueueRequest	true	"Данные очереди"
// @Security		BearerAuth
// @Success		201	{object}	QueueResponse			"Созданная очередь"
// @Failure		400	{object}	response.ErrorResponse	"Ошибка валидации (VALIDATION_ERROR)"
// @Failure		500	{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/api/queues [post]
func (h *Handler) CreateQueue(c *gin.Context) {
	var req CreateQueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Ошибка валидации данных",
			Details: err.Error(),
		})
		return
	}

	addOrganizer := true
	if req.AddOrganizer != nil {
		addOrganizer = *req.AddOrganizer
	}

	q, err := h.svc.CreateQueue(auth.UserID(c), req.Name, req.Description, addOrganizer)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка при создании очереди",
			Details: err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, queueToResponse(q))
}

// GetQueue godoc
// @Summary		Информация об очереди
// @Tags			queue
// @Produce		json
// @Param			id	path		string	true	"ID очереди"
// @Security		BearerAuth
// @Success		200	{object}	QueueResponse			"Очередь"
// @Failure		400	{object}	response.ErrorResponse	"Ошибка валидации (INVALID_QUEUE_ID)"
// @Failure		404	{object}	response.ErrorResponse	"Очередь не найдена (QUEUE_NOT_FOUND)"
// @Failure		500	{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/api/queues/{id} [get]
func (h *Handler) GetQueue(c *gin.Context) {
	queueID, ok := parseQueueID(c)
	if !ok {
		return
	}

	q, err := h.svc.GetQueue(queueID)
	if err != nil {
		if errors.Is(err, service.ErrQueueNotFound) {
			c.JSON(http.StatusNotFound, response.ErrorResponse{
				Code:    "QUEUE_NOT_FOUND",
				Message: "Очередь не найдена",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка загрузки очереди",
			Details: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, queueToResponse(q))
}

// DeleteQueue godoc
// @Summary		Удаление очереди
// @Description	Удаляет очередь вместе со всеми записями участников. Доступно только организатору
// @Tags			queue
// @Produce		json
// @Param			id	path		string	true	"ID очереди"
// @Security		BearerAuth
// @Success		200	{object}	response.SuccessResponse	"Очередь удалена"
// @Failure		400	{object}	response.ErrorResponse		"Ошибка валидации (INVALID_QUEUE_ID)"
// @Failure		403	{object}	response.ErrorResponse		"Пользователь не организатор (NOT_ORGANIZER)"
// @Failure		404	{object}	response.ErrorResponse		"Очередь не найдена (QUEUE_NOT_FOUND)"
// @Failure		500	{object}	response.ErrorResponse		"Ошибка сервера (DB_ERROR)"
// @Router			/api/queues/{id} [delete]
func (h *Handler) DeleteQueue(c *gin.Context) {
	queueID, ok := parseQueueID(c)
	if !ok {
		return
	}

	err := h.svc.DeleteQueue(auth.UserID(c), queueID)
	switch {
	case errors.Is(err, service.ErrQueueNotFound):
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code:    "QUEUE_NOT_FOUND",
			Message: "Очередь не найдена",
		})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, response.ErrorResponse{
			Code:    "NOT_ORGANIZER",
			Message: "Вы не организатор очереди",
		})
	case err != nil:
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка при удалении очереди",
			Details: err.Error(),
		})
	default:
		c.JSON(http.StatusOK, response.SuccessResponse{Message: "Очередь успешно удалена"})
	}
}

// JoinQueue godoc
// @Summary		Вступление в очередь
// @Description	Добавляет пользователя в очередь и возвращает его позицию
// @Tags			queue
// @Produce		json
// @Param			id	path		string	true	"ID очереди"
// @Security		BearerAuth
// @Success		200	{object}	map[string]interface{}	"Успешное вступление в очередь с указанием позиции"
// @Failure		400	{object}	response.ErrorResponse	"Ошибка валидации (INVALID_QUEUE_ID, ALREADY_IN_QUEUE)"
// @Failure		404	{object}	response.ErrorResponse	"Очередь не найдена (QUEUE_NOT_FOUND)"
// @Failure		500	{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/api/queues/{id}/join [post]
func (h *Handler) JoinQueue(c *gin.Context) {
	queueID, ok := parseQueueID(c)
	if !ok {
		return
	}

	position, err := h.svc.Join(auth.UserID(c), queueID)
	switch {
	case errors.Is(err, service.ErrQueueNotFound):
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code:    "QUEUE_NOT_FOUND",
			Message: "Очередь не найдена",
		})
	case errors.Is(err, service.ErrAlreadyMember):
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "ALREADY_IN_QUEUE",
			Message: "Пользователь уже состоит в этой очереди",
		})
	case err != nil:
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка добавления в очередь",
			Details: err.Error(),
		})
	default:
		c.JSON(http.StatusOK, gin.H{"message": "Вступление в очередь прошло успешно", "position": position})
	}
}

// LeaveQueue godoc
// @Summary		Выход из очереди
// @Description	Удаляет запись пользователя из очереди
// @Tags			queue
// @Produce		json
// @Param			id	path		string	true	"ID очереди"
// @Security		BearerAuth
// @Success		200	{object}	response.SuccessResponse	"Успешный выход из очереди"
// @Failure		400	{object}	response.ErrorResponse		"Ошибка валидации (INVALID_QUEUE_ID, NOT_IN_QUEUE)"
// @Failure		500	{object}	response.ErrorResponse		"Ошибка сервера (DB_ERROR)"
// @Router			/api/queues/{id}/leave [post]
func (h *Handler) LeaveQueue(c *gin.Context) {
	queueID, ok := parseQueueID(c)
	if !ok {
		return
	}

	err := h.svc.Leave(auth.UserID(c), queueID)
	switch {
	case errors.Is(err, service.ErrNotMember):
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "NOT_IN_QUEUE",
			Message: "Активная запись в очереди не найдена",
		})
	case err != nil:
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка при выходе из очереди",
			Details: err.Error(),
		})
	default:
		c.JSON(http.StatusOK, response.SuccessResponse{Message: "Вы успешно вышли из очереди"})
	}
}

// GetMembers godoc
// @Summary		Участники очереди
// @Description	Возвращает участников в порядке обслуживания: приоритетные раньше остальных, внутри класса — по времени вступления
// @Tags			queue
// @Produce		json
// @Param			id	path		string	true	"ID очереди"
// @Security		BearerAuth
// @Success		200	{array}		ranking.Member			"Упорядоченный список участников"
// @Failure		400	{object}	response.ErrorResponse	"Ошибка валидации (INVALID_QUEUE_ID)"
// @Failure		404	{object}	response.ErrorResponse	"Очередь не найдена (QUEUE_NOT_FOUND)"
// @Failure		500	{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/api/queues/{id}/members [get]
func (h *Handler) GetMembers(c *gin.Context) {
	queueID, ok := parseQueueID(c)
	if !ok {
		return
	}

	members, err := h.svc.Members(queueID)
	if err != nil {
		if errors.Is(err, service.ErrQueueNotFound) {
			c.JSON(http.StatusNotFound, response.ErrorResponse{
				Code:    "QUEUE_NOT_FOUND",
				Message: "Очередь не найдена",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка загрузки записей очереди",
			Details: err.Error(),
		})
		return
	}

	if members == nil {
		members = []ranking.Member{}
	}
	c.JSON(http.StatusOK, members)
}

// MyQueues godoc
// @Summary		Получение списка своих очередей
// @Description	Получение списка очередей, в которых пользователь участвует
// @Tags			profile
// @Produce		json
// @Security		BearerAuth
// @Success		200	{array}		QueueResponse			"Список очередей пользователя"
// @Failure		500	{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/api/profile/queues [get]
func (h *Handler) MyQueues(c *gin.Context) {
	queues, err := h.svc.QueuesFor(auth.UserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка загрузки очередей пользователя",
			Details: err.Error(),
		})
		return
	}

	result := make([]QueueResponse, 0, len(queues))
	for i := range queues {
		result = append(result, queueToResponse(&queues[i]))
	}
	c.JSON(http.StatusOK, result)
}
