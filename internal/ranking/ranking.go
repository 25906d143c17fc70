// Package ranking превращает снимок записей очереди в итоговый порядок
// участников. Функция чистая: для одного и того же снимка результат
// всегда одинаковый, независимо от порядка строк из базы.
package ranking

import (
	"sort"
	"time"

	"queuelist/internal/models"

	"github.com/google/uuid"
)

// Member — участник очереди с вычисленной позицией.
type Member struct {
	UserID      uuid.UUID `json:"user_id"`
	Order       int       `json:"order"`
	HasPriority bool      `json:"has_priority"`
	IsHeld      bool      `json:"is_held"`
	JoinedAt    time.Time `json:"joined_at"`
}

// Rank упорядочивает записи: сначала все приоритетные, потом остальные;
// внутри класса — по времени вступления, при равных временах — по user_id.
// Позиции идут с единицы, без пропусков. Флаг is_held на порядок не влияет
// и отдается как есть.
func Rank(entries []models.QueueEntry) []Member {
	sorted := make([]models.QueueEntry, len(entries))
	copy(sorted, entries)

	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.HasPriority != b.HasPriority {
			return a.HasPriority
		}
		if !a.JoinedAt.Equal(b.JoinedAt) {
			return a.JoinedAt.Before(b.JoinedAt)
		}
		return a.UserID.String() < b.UserID.String()
	})

	members := make([]Member, len(sorted))
	for i, e := range sorted {
		members[i] = Member{
			UserID:      e.UserID,
			Order:       i + 1,
			HasPriority: e.HasPriority,
			IsHeld:      e.IsHeld,
			JoinedAt:    e.JoinedAt,
		}
	}
	return members
}
