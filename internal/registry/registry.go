// Package registry отвечает за жизненный цикл очередей: создание, поиск,
// удаление с каскадом записей участников.
package registry

import (
	"errors"
	"time"

	"queuelist/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("очередь не найдена")

type Registry struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Registry {
	return &Registry{db: db}
}

// Tx возвращает реестр, привязанный к транзакции tx.
func (r *Registry) Tx(tx *gorm.DB) *Registry {
	return &Registry{db: tx}
}

func (r *Registry) Create(q *models.Queue) error {
	return r.db.Create(q).Error
}

func (r *Registry) Get(id uuid.UUID) (*models.Queue, error) {
	var q models.Queue
	if err := r.db.Where("id = ?", id).First(&q).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &q, nil
}

// Delete удаляет очередь вместе со всеми записями участников в одной
// транзакции: частичное удаление недопустимо.
func (r *Registry) Delete(id uuid.UUID) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&models.Queue{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Where("queue_id = ?", id).Delete(&models.QueueEntry{}).Error
	})
}

// ListForUser возвращает очереди, в которых пользователь состоит.
func (r *Registry) ListForUser(userID uuid.UUID) ([]models.Queue, error) {
	var queues []models.Queue
	err := r.db.
		Joins("JOIN queue_entries ON queue_entries.queue_id = queues.id").
		Where("queue_entries.user_id = ?", userID).
		Order("queue_entries.joined_at ASC").
		Find(&queues).Error
	if err != nil {
		return nil, err
	}
	return queues, nil
}

// ListExpired возвращает идентификаторы очередей, у которых вышел горизонт
// жизни. Само удаление делает вызывающий через Delete, чтобы каскад и
// инвалидация кэша шли по общему пути.
func (r *Registry) ListExpired(now time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.Model(&models.Queue{}).
		Where("expires_at < ?", now).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
