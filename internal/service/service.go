// Package service связывает реестр очередей, леджер участников и ранжирование,
// проверяет права и переводит ошибки нижних слоев в единую таксономию.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"queuelist/internal/ledger"
	"queuelist/internal/models"
	"queuelist/internal/ranking"
	"queuelist/internal/registry"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrQueueNotFound = errors.New("очередь не найдена")
	ErrUserNotFound  = errors.New("пользователь не найден")
	ErrAlreadyMember = errors.New("пользователь уже состоит в очереди")
	ErrNotMember     = errors.New("пользователь не состоит в очереди")
	ErrForbidden     = errors.New("действие доступно только организатору")
)

var ctx = context.Background()

// Кэш списков участников живет недолго и сбрасывается при каждой мутации,
// чтобы позиция не успевала разъехаться с базой.
const membersCacheTTL = 10 * time.Second

type Service struct {
	db      *gorm.DB
	reg     *registry.Registry
	entries *ledger.Ledger
	cache   *redis.Client // nil — работаем без кэша
	horizon time.Duration
	log     *zap.Logger
}

func New(db *gorm.DB, cache *redis.Client, horizon time.Duration, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		db:      db,
		reg:     registry.New(db),
		entries: ledger.New(db),
		cache:   cache,
		horizon: horizon,
		log:     log,
	}
}

// CreateQueue создает очередь и сразу записывает создателя её участником
// (без приоритета, время вступления равно времени создания). Если
// addOrganizer истинно, создатель становится организатором.
func (s *Service) CreateQueue(userID uuid.UUID, name, description string, addOrganizer bool) (*models.Queue, error) {
	now := time.Now().UTC()
	q := &models.Queue{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.horizon),
	}
	if addOrganizer {
		organizerID := userID
		q.OrganizerID = &organizerID
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.reg.Tx(tx).Create(q); err != nil {
			return err
		}
		return s.entries.Tx(tx).Add(&models.QueueEntry{
			QueueID:  q.ID,
			UserID:   userID,
			JoinedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("очередь создана",
		zap.String("queue_id", q.ID.String()),
		zap.Bool("with_organizer", addOrganizer))
	return q, nil
}

// DeleteQueue удаляет очередь вместе с участниками. Разрешено только
// организатору; очередь без организатора таким путем не удаляется никогда.
func (s *Service) DeleteQueue(userID, queueID uuid.UUID) error {
	q, err := s.reg.Get(queueID)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			return ErrQueueNotFound
		}
		return err
	}

	if q.OrganizerID == nil || *q.OrganizerID != userID {
		return ErrForbidden
	}

	if err := s.reg.Delete(queueID); err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			return ErrQueueNotFound
		}
		return err
	}

	s.invalidateMembers(queueID)
	s.log.Info("очередь удалена", zap.String("queue_id", queueID.String()))
	return nil
}

// Join добавляет пользователя в очередь без приоритета и возвращает его
// позицию. Вставка и пересчет позиции идут в одной транзакции: в её снимке
// свежая запись видна всегда, поэтому позиция не бывает нулевой. К моменту
// ответа она справочная и могла уже измениться.
func (s *Service) Join(userID, queueID uuid.UUID) (int, error) {
	var position int
	err := s.db.Transaction(func(tx *gorm.DB) error {
		entriesTx := s.entries.Tx(tx)
		if err := entriesTx.Add(&models.QueueEntry{
			QueueID:  queueID,
			UserID:   userID,
			JoinedAt: time.Now().UTC(),
		}); err != nil {
			return err
		}

		snapshot, err := entriesTx.List(queueID)
		if err != nil {
			return err
		}
		for _, m := range ranking.Rank(snapshot) {
			if m.UserID == userID {
				position = m.Order
				break
			}
		}
		return nil
	})
	switch {
	case errors.Is(err, ledger.ErrQueueNotFound):
		return 0, ErrQueueNotFound
	case errors.Is(err, ledger.ErrAlreadyMember):
		return 0, ErrAlreadyMember
	case err != nil:
		return 0, err
	}

	s.invalidateMembers(queueID)
	return position, nil
}

func (s *Service) Leave(userID, queueID uuid.UUID) error {
	if err := s.entries.Remove(queueID, userID); err != nil {
		if errors.Is(err, ledger.ErrNotMember) {
			return ErrNotMember
		}
		return err
	}
	s.invalidateMembers(queueID)
	return nil
}

// Members возвращает участников очереди в итоговом порядке. Позиции каждый
// раз пересчитываются из снимка леджера; готовый список ненадолго оседает
// в Redis.
func (s *Service) Members(queueID uuid.UUID) ([]ranking.Member, error) {
	if cached, ok := s.cachedMembers(queueID); ok {
		return cached, nil
	}

	if _, err := s.reg.Get(queueID); err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			return nil, ErrQueueNotFound
		}
		return nil, err
	}

	entries, err := s.entries.List(queueID)
	if err != nil {
		return nil, err
	}

	members := ranking.Rank(entries)
	s.storeMembers(queueID, members)
	return members, nil
}

func (s *Service) GetQueue(queueID uuid.UUID) (*models.Queue, error) {
	q, err := s.reg.Get(queueID)
	if errors.Is(err, registry.ErrNotFound) {
		return nil, ErrQueueNotFound
	}
	return q, err
}

// QueuesFor возвращает очереди, в которых состоит пользователь.
func (s *Service) QueuesFor(userID uuid.UUID) ([]models.Queue, error) {
	return s.reg.ListForUser(userID)
}

func (s *Service) UserByID(id uuid.UUID) (*models.User, error) {
	var u models.User
	if err := s.db.Where("id = ?", id).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// SweepExpired удаляет очереди с истекшим горизонтом жизни. Вызывается
// фоновой задачей; сам сервис срок нигде не проверяет.
func (s *Service) SweepExpired() (int, error) {
	ids, err := s.reg.ListExpired(time.Now().UTC())
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, id := range ids {
		if err := s.reg.Delete(id); err != nil {
			if errors.Is(err, registry.ErrNotFound) {
				continue
			}
			return deleted, err
		}
		s.invalidateMembers(id)
		deleted++
	}
	return deleted, nil
}

func membersCacheKey(queueID uuid.UUID) string {
	return "queue_members_" + queueID.String()
}

func (s *Service) cachedMembers(queueID uuid.UUID) ([]ranking.Member, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, membersCacheKey(queueID)).Result()
	if err != nil || raw == "" {
		return nil, false
	}
	var members []ranking.Member
	if err := json.Unmarshal([]byte(raw), &members); err != nil {
		return nil, false
	}
	return members, true
}

func (s *Service) storeMembers(queueID uuid.UUID, members []ranking.Member) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(members)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, membersCacheKey(queueID), raw, membersCacheTTL).Err(); err != nil {
		s.log.Warn("не удалось записать кэш участников", zap.Error(err))
	}
}

func (s *Service) invalidateMembers(queueID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, membersCacheKey(queueID)).Err(); err != nil {
		s.log.Warn("не удалось сбросить кэш участников", zap.Error(err))
	}
}
