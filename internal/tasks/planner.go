package tasks

import (
	"queuelist/internal/service"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// InitScheduler инициализирует планировщик cron-задач.
func InitScheduler(svc *service.Service, log *zap.Logger) *cron.Cron {
	c := cron.New(cron.WithSeconds())

	// Чистка очередей с истекшим горизонтом, каждый день в 03:00.
	// Внутри сервиса срок жизни нигде не проверяется — только здесь.
	_, err := c.AddFunc("0 0 3 * * *", func() {
		SweepExpiredQueues(svc, log)
	})
	if err != nil {
		log.Error("ошибка запуска cron-задачи SweepExpiredQueues", zap.Error(err))
	}

	c.Start()
	log.Info("cron-планировщик запущен")
	return c
}

// SweepExpiredQueues удаляет очереди, у которых вышел expires_at, вместе
// с записями участников.
func SweepExpiredQueues(svc *service.Service, log *zap.Logger) {
	deleted, err := svc.SweepExpired()
	if err != nil {
		log.Error("ошибка при удалении устаревших очередей", zap.Error(err))
		return
	}
	if deleted > 0 {
		log.Info("устаревшие очереди удалены", zap.Int("count", deleted))
	}
}
