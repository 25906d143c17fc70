package handlers

import (
	"errors"
	"net/http"

	"queuelist/internal/response"
	"queuelist/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type UserInfoResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// GetUser godoc
// @Summary		Информация о пользователе
// @Description	Возвращает публичную информацию о пользователе по id
// @Tags			users
// @Produce		json
// @Param			id	path		string	true	"ID пользователя"
// @Security		BearerAuth
// @Success		200	{object}	UserInfoResponse		"Пользователь"
// @Failure		400	{object}	response.ErrorResponse	"Ошибка валидации (INVALID_USER_ID)"
// @Failure		404	{object}	response.ErrorResponse	"Пользователь не найден (USER_NOT_FOUND)"
// @Failure		500	{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/api/users/{id} [get]
func (h *Handler) GetUser(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_USER_ID",
			Message: "Неверный идентификатор пользователя",
		})
		return
	}

	user, err := h.svc.UserByID(userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, response.ErrorResponse{
				Code:    "USER_NOT_FOUND",
				Message: "Пользователь не найден",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка загрузки пользователя",
			Details: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, UserInfoResponse{ID: user.ID, Name: user.Name})
}
