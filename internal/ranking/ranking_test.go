package ranking

import (
	"testing"
	"time"

	"queuelist/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func entry(userID uuid.UUID, priority, held bool, joinedAt time.Time) models.QueueEntry {
	return models.QueueEntry{
		QueueID:     uuid.Nil,
		UserID:      userID,
		HasPriority: priority,
		IsHeld:      held,
		JoinedAt:    joinedAt,
	}
}

func TestRankEmpty(t *testing.T) {
	members := Rank(nil)
	assert.Empty(t, members)
}

func TestRankPriorityBeforeStandard(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	early := uuid.New()
	late := uuid.New()

	// Приоритетный участник вступил позже, но должен быть первым.
	members := Rank([]models.QueueEntry{
		entry(early, false, false, base),
		entry(late, true, false, base.Add(time.Hour)),
	})

	assert.Equal(t, late, members[0].UserID, "приоритетный участник должен быть первым")
	assert.Equal(t, 1, members[0].Order)
	assert.Equal(t, early, members[1].UserID)
	assert.Equal(t, 2, members[1].Order)
}

func TestRankTenureWithinClass(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	first := uuid.New()
	second := uuid.New()
	third := uuid.New()

	members := Rank([]models.QueueEntry{
		entry(third, false, false, base.Add(2*time.Minute)),
		entry(first, false, false, base),
		entry(second, false, false, base.Add(time.Minute)),
	})

	assert.Equal(t, []uuid.UUID{first, second, third},
		[]uuid.UUID{members[0].UserID, members[1].UserID, members[2].UserID},
		"внутри класса порядок определяется временем вступления")
}

func TestRankTotalOrderNoGaps(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	var entries []models.QueueEntry
	for i := 0; i < 7; i++ {
		entries = append(entries, entry(uuid.New(), i%2 == 0, i%3 == 0, base.Add(time.Duration(i)*time.Second)))
	}

	members := Rank(entries)
	assert.Len(t, members, 7)
	for i, m := range members {
		assert.Equal(t, i+1, m.Order, "позиции идут с единицы без пропусков")
	}
}

func TestRankEqualTimesDeterministic(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	a := uuid.New()
	b := uuid.New()
	c := uuid.New()

	// Одинаковое время вступления — порядок задает user_id,
	// поэтому результат не зависит от порядка строк на входе.
	forward := Rank([]models.QueueEntry{
		entry(a, false, false, base),
		entry(b, false, false, base),
		entry(c, false, false, base),
	})
	backward := Rank([]models.QueueEntry{
		entry(c, false, false, base),
		entry(b, false, false, base),
		entry(a, false, false, base),
	})

	assert.Equal(t, forward, backward)
}

func TestRankHeldKeepsPosition(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	first := uuid.New()
	held := uuid.New()
	last := uuid.New()

	members := Rank([]models.QueueEntry{
		entry(first, false, false, base),
		entry(held, false, true, base.Add(time.Minute)),
		entry(last, false, false, base.Add(2*time.Minute)),
	})

	// Пауза не выкидывает участника из порядка и не двигает соседей.
	assert.Equal(t, held, members[1].UserID)
	assert.Equal(t, 2, members[1].Order)
	assert.True(t, members[1].IsHeld)
	assert.Equal(t, 3, members[2].Order)
}

func TestRankDoesNotMutateInput(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	a := uuid.New()
	b := uuid.New()
	entries := []models.QueueEntry{
		entry(a, false, false, base.Add(time.Minute)),
		entry(b, true, false, base),
	}

	Rank(entries)

	assert.Equal(t, a, entries[0].UserID, "входной снимок не должен переупорядочиваться")
	assert.Equal(t, b, entries[1].UserID)
}
