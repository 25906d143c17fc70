// Package ledger хранит записи участников очередей. Уникальность пары
// (queue_id, user_id) обеспечивает составной первичный ключ, поэтому
// одновременные вступления одного пользователя не дают дублей.
package ledger

import (
	"errors"

	"queuelist/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrQueueNotFound = errors.New("очередь не найдена")
	ErrAlreadyMember = errors.New("пользователь уже состоит в очереди")
	ErrNotMember     = errors.New("запись участника не найдена")
)

type Ledger struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// Tx возвращает леджер, привязанный к транзакции tx.
func (l *Ledger) Tx(tx *gorm.DB) *Ledger {
	return &Ledger{db: tx}
}

// Add добавляет запись участника. Повторное вступление ловится составным
// ключом, а не предварительным SELECT. Предварительная проверка очереди
// дает понятную ошибку в обычном случае, но гонку с параллельным удалением
// очереди она не закрывает: это делает внешний ключ — если очередь исчезла
// между проверкой и вставкой, вставка падает на констрейнте.
func (l *Ledger) Add(entry *models.QueueEntry) error {
	return l.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Queue{}).Where("id = ?", entry.QueueID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrQueueNotFound
		}
		if err := tx.Create(entry).Error; err != nil {
			switch {
			case errors.Is(err, gorm.ErrDuplicatedKey):
				return ErrAlreadyMember
			case errors.Is(err, gorm.ErrForeignKeyViolated):
				return ErrQueueNotFound
			}
			return err
		}
		return nil
	})
}

func (l *Ledger) Remove(queueID, userID uuid.UUID) error {
	res := l.db.Where("queue_id = ? AND user_id = ?", queueID, userID).Delete(&models.QueueEntry{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotMember
	}
	return nil
}

// List возвращает снимок записей очереди без какого-либо порядка —
// упорядочивание делает internal/ranking.
func (l *Ledger) List(queueID uuid.UUID) ([]models.QueueEntry, error) {
	var entries []models.QueueEntry
	if err := l.db.Where("queue_id = ?", queueID).Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
