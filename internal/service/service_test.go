package service

import (
	"errors"
	"sync"
	"testing"
	"time"

	"queuelist/internal/ledger"
	"queuelist/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:?_pragma=foreign_keys(1)"), &gorm.Config{TranslateError: true})
	require.NoError(t, err, "ошибка открытия тестовой базы")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Одно соединение, иначе in-memory база потеряется между коннектами пула.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Queue{}, &models.QueueEntry{}))

	// Без Redis: кэш в тестах не нужен.
	return New(db, nil, time.Hour*24*365*2, nil), db
}

func TestCreateQueueEnrollsCreator(t *testing.T) {
	svc, _ := newTestService(t)
	creator := uuid.New()

	q, err := svc.CreateQueue(creator, "Сдача лабораторных", "", true)
	require.NoError(t, err)
	require.NotNil(t, q.OrganizerID)
	assert.Equal(t, creator, *q.OrganizerID)
	assert.Equal(t, q.CreatedAt.Add(time.Hour*24*365*2), q.ExpiresAt)

	members, err := svc.Members(q.ID)
	require.NoError(t, err)
	require.Len(t, members, 1, "создатель сразу должен быть участником")
	assert.Equal(t, creator, members[0].UserID)
	assert.Equal(t, 1, members[0].Order)
	assert.False(t, members[0].HasPriority)
	assert.False(t, members[0].IsHeld)
}

func TestCreateQueueWithoutOrganizer(t *testing.T) {
	svc, _ := newTestService(t)
	creator := uuid.New()

	q, err := svc.CreateQueue(creator, "Очередь без организатора", "", false)
	require.NoError(t, err)
	assert.Nil(t, q.OrganizerID)

	// Даже создатель не может удалить очередь без организатора.
	err = svc.DeleteQueue(creator, q.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestJoinAndOrdering(t *testing.T) {
	svc, db := newTestService(t)
	organizer := uuid.New()
	userB := uuid.New()
	userC := uuid.New()

	q, err := svc.CreateQueue(organizer, "Очередь", "", true)
	require.NoError(t, err)

	position, err := svc.Join(userB, q.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, position, "второй участник без приоритета встает в конец")

	// Приоритетные записи пока не создаются через API — добавляем напрямую.
	require.NoError(t, ledger.New(db).Add(&models.QueueEntry{
		QueueID:     q.ID,
		UserID:      userC,
		HasPriority: true,
		JoinedAt:    time.Now().UTC(),
	}))

	members, err := svc.Members(q.ID)
	require.NoError(t, err)
	require.Len(t, members, 3)

	// Приоритет всегда выше стажа: C обгоняет и организатора, и B.
	assert.Equal(t, userC, members[0].UserID)
	assert.Equal(t, 1, members[0].Order)
	assert.Equal(t, organizer, members[1].UserID)
	assert.Equal(t, 2, members[1].Order)
	assert.Equal(t, userB, members[2].UserID)
	assert.Equal(t, 3, members[2].Order)

	// B выходит — позиции пересчитываются без дыр.
	require.NoError(t, svc.Leave(userB, q.ID))
	members, err = svc.Members(q.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, userC, members[0].UserID)
	assert.Equal(t, 1, members[0].Order)
	assert.Equal(t, organizer, members[1].UserID)
	assert.Equal(t, 2, members[1].Order)
}

func TestJoinDuplicate(t *testing.T) {
	svc, _ := newTestService(t)
	organizer := uuid.New()
	user := uuid.New()

	q, err := svc.CreateQueue(organizer, "Очередь", "", true)
	require.NoError(t, err)

	_, err = svc.Join(user, q.ID)
	require.NoError(t, err)

	_, err = svc.Join(user, q.ID)
	assert.ErrorIs(t, err, ErrAlreadyMember)

	members, err := svc.Members(q.ID)
	require.NoError(t, err)
	assert.Len(t, members, 2, "повторное вступление не меняет состав очереди")
}

func TestJoinConcurrentDuplicate(t *testing.T) {
	svc, _ := newTestService(t)
	organizer := uuid.New()
	user := uuid.New()

	q, err := svc.CreateQueue(organizer, "Очередь", "", true)
	require.NoError(t, err)

	// Один и тот же пользователь вступает из нескольких горутин разом:
	// пройти должна ровно одна, остальные упираются в первичный ключ.
	const workers = 8
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		joined     int
		duplicates int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Join(user, q.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				joined++
			case errors.Is(err, ErrAlreadyMember):
				duplicates++
			default:
				t.Errorf("неожиданная ошибка вступления: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, joined, "вступить должен ровно один запрос")
	assert.Equal(t, workers-1, duplicates)

	members, err := svc.Members(q.ID)
	require.NoError(t, err)
	assert.Len(t, members, 2, "гонка не должна плодить дубликаты участника")
}

func TestJoinPositionCountsPriority(t *testing.T) {
	svc, db := newTestService(t)
	organizer := uuid.New()
	priorityUser := uuid.New()
	newcomer := uuid.New()

	q, err := svc.CreateQueue(organizer, "Очередь", "", true)
	require.NoError(t, err)

	require.NoError(t, ledger.New(db).Add(&models.QueueEntry{
		QueueID:     q.ID,
		UserID:      priorityUser,
		HasPriority: true,
		JoinedAt:    time.Now().UTC(),
	}))

	// Позиция считается по актуальному срезу внутри той же транзакции,
	// что и вставка: приоритетный участник уже учтен.
	position, err := svc.Join(newcomer, q.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, position, "позиция должна учитывать приоритетных участников")
}

func TestJoinQueueNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Join(uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrQueueNotFound)
}

func TestLeaveNotMember(t *testing.T) {
	svc, _ := newTestService(t)
	organizer := uuid.New()

	q, err := svc.CreateQueue(organizer, "Очередь", "", true)
	require.NoError(t, err)

	err = svc.Leave(uuid.New(), q.ID)
	assert.ErrorIs(t, err, ErrNotMember)
}

func TestMembersDeterministic(t *testing.T) {
	svc, _ := newTestService(t)
	organizer := uuid.New()

	q, err := svc.CreateQueue(organizer, "Очередь", "", true)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		_, err := svc.Join(uuid.New(), q.ID)
		require.NoError(t, err)
	}

	first, err := svc.Members(q.ID)
	require.NoError(t, err)
	second, err := svc.Members(q.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second, "повторное чтение без мутаций дает тот же порядок")
}

func TestDeleteQueueAuthorization(t *testing.T) {
	svc, _ := newTestService(t)
	organizer := uuid.New()
	outsider := uuid.New()

	q, err := svc.CreateQueue(organizer, "Очередь", "", true)
	require.NoError(t, err)

	err = svc.DeleteQueue(outsider, q.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	// Очередь на месте.
	_, err = svc.GetQueue(q.ID)
	assert.NoError(t, err)

	require.NoError(t, svc.DeleteQueue(organizer, q.ID))

	err = svc.DeleteQueue(organizer, q.ID)
	assert.ErrorIs(t, err, ErrQueueNotFound)
}

func TestDeleteQueueCascade(t *testing.T) {
	svc, db := newTestService(t)
	organizer := uuid.New()

	q, err := svc.CreateQueue(organizer, "Очередь", "", true)
	require.NoError(t, err)
	_, err = svc.Join(uuid.New(), q.ID)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteQueue(organizer, q.ID))

	_, err = svc.Members(q.ID)
	assert.ErrorIs(t, err, ErrQueueNotFound)

	// Записи участников не должны остаться сиротами.
	var count int64
	require.NoError(t, db.Model(&models.QueueEntry{}).Where("queue_id = ?", q.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestQueuesFor(t *testing.T) {
	svc, _ := newTestService(t)
	organizer := uuid.New()
	user := uuid.New()

	q1, err := svc.CreateQueue(organizer, "Первая", "", true)
	require.NoError(t, err)
	q2, err := svc.CreateQueue(organizer, "Вторая", "", true)
	require.NoError(t, err)

	_, err = svc.Join(user, q2.ID)
	require.NoError(t, err)

	mine, err := svc.QueuesFor(user)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, q2.ID, mine[0].ID)

	organizerQueues, err := svc.QueuesFor(organizer)
	require.NoError(t, err)
	require.Len(t, organizerQueues, 2)
	assert.Equal(t, q1.ID, organizerQueues[0].ID, "очереди идут в порядке вступления")
	assert.Equal(t, q2.ID, organizerQueues[1].ID)
}

func TestSweepExpired(t *testing.T) {
	svc, db := newTestService(t)
	organizer := uuid.New()

	fresh, err := svc.CreateQueue(organizer, "Живая", "", true)
	require.NoError(t, err)
	stale, err := svc.CreateQueue(organizer, "Просроченная", "", true)
	require.NoError(t, err)

	// Сдвигаем горизонт в прошлое и запускаем чистку.
	require.NoError(t, db.Model(&models.Queue{}).
		Where("id = ?", stale.ID).
		Update("expires_at", time.Now().UTC().Add(-time.Minute)).Error)

	deleted, err := svc.SweepExpired()
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	_, err = svc.GetQueue(stale.ID)
	assert.ErrorIs(t, err, ErrQueueNotFound)
	_, err = svc.GetQueue(fresh.ID)
	assert.NoError(t, err)
}

func TestUserByID(t *testing.T) {
	svc, db := newTestService(t)

	u := &models.User{Name: "Иван", Email: "ivan@example.com", PasswordHash: "hash"}
	require.NoError(t, db.Create(u).Error)

	got, err := svc.UserByID(u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Иван", got.Name)

	_, err = svc.UserByID(uuid.New())
	assert.ErrorIs(t, err, ErrUserNotFound)
}
