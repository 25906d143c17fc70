package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name         string    `gorm:"not null"`
	Email        string    `gorm:"uniqueIndex;not null"`
	PasswordHash string    `gorm:"not null"`
	CreatedAt    time.Time
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

type Queue struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name        string    `gorm:"not null"`
	Description string
	// Организатор назначается только при создании и больше не меняется.
	// nil — очередь без организатора, удалить её через API нельзя.
	OrganizerID *uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt   time.Time  `gorm:"not null"`
	ExpiresAt   time.Time  `gorm:"index;not null"` // Горизонт жизни очереди, чистится фоновой задачей
}

func (q *Queue) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}

// QueueEntry — запись участника в очереди. Составной первичный ключ
// гарантирует, что пользователь не может вступить в одну очередь дважды.
// Позиция участника нигде не хранится — она пересчитывается из записей
// при каждом чтении (см. internal/ranking).
type QueueEntry struct {
	QueueID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID      uuid.UUID `gorm:"type:uuid;primaryKey;index"`
	HasPriority bool      `gorm:"not null;default:false"` // Приоритетные участники идут раньше остальных
	IsHeld      bool      `gorm:"not null;default:false"` // Участник на паузе; на порядок не влияет
	JoinedAt    time.Time `gorm:"index;not null"`
	// Внешний ключ с каскадом: вставка записи в уже удаленную очередь
	// падает на констрейнте, а удаление очереди забирает записи с собой —
	// даже если вступление и удаление идут в параллельных транзакциях.
	Queue Queue `gorm:"foreignKey:QueueID;constraint:OnDelete:CASCADE"`
}
