package workers

import (
	"context"
	"encoding/json"
	"time"

	"servimarket_backend/internal/email"
	"servimarket_backend/internal/logger"
	"servimarket_backend/internal/models"
	"servimarket_backend/internal/repositories"

	"gorm.io/gorm"
)

const outboxBatchSize = 50

// OutboxWorker drains notifications_outbox. Rows are marked processed only
// after a successful delivery, so a crashed delivery is retried on the next
// tick. Deliveries can repeat; they never get lost.
type OutboxWorker struct {
	db         *gorm.DB
	outboxRepo repositories.OutboxRepository
	userRepo   repositories.UserRepository
	emailer    email.Provider
	interval   time.Duration
}

func NewOutboxWorker(
	db *gorm.DB,
	outboxRepo repositories.OutboxRepository,
	userRepo repositories.UserRepository,
	emailer email.Provider,
	interval time.Duration,
) *OutboxWorker {
	return &OutboxWorker{
		db:         db,
		outboxRepo: outboxRepo,
		userRepo:   userRepo,
		emailer:    emailer,
		interval:   interval,
	}
}

func (w *OutboxWorker) Start(ctx context.Context) {
	go w.loop(ctx)
}

func (w *OutboxWorker) loop(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("outbox worker stopped")
			return
		case <-ticker.C:
			w.drain(ctx)
		}
	}
}

func (w *OutboxWorker) drain(ctx context.Context) {
	rows, err := w.outboxRepo.FindUnprocessed(w.db, outboxBatchSize)
	if err != nil {
		logger.WorkerLog("outbox", "find unprocessed", err)
		return
	}

	for i := range rows {
		row := &rows[i]
		if err := w.deliver(row); err != nil {
			logger.WorkerLog("outbox", "deliver "+row.Template, err)
			continue
		}
		if err := w.outboxRepo.MarkProcessed(w.db, row.ID); err != nil {
			logger.WorkerLog("outbox", "mark processed", err)
		}
	}

	if len(rows) > 0 {
		logger.Info("outbox batch drained", "count", len(rows))
	}
}

func (w *OutboxWorker) deliver(row *models.OutboxNotification) error {
	var payload map[string]string
	if len(row.Payload) > 0 {
		if err := json.Unmarshal(row.Payload, &payload); err != nil {
			return err
		}
	}

	switch row.Channel {
	case models.OutboxChannelEmail:
		user, err := w.userRepo.FindByID(w.db, row.UserID)
		if err != nil {
			return err
		}
		data := email.TemplateData{}
		for k, v := range payload {
			data[k] = v
		}
		if _, ok := data["nombre"]; !ok {
			data["nombre"] = user.Name
		}
		return w.emailer.SendTemplate([]string{user.Email}, subjectFor(row.Template), row.Template, data)
	case models.OutboxChannelWhatsApp:
		// No WhatsApp gateway is connected yet; deliveries are logged so the
		// row still leaves the queue.
		logger.Info("whatsapp notification", "user_id", row.UserID, "template", row.Template)
		return nil
	default:
		logger.Warn("unknown outbox channel", "channel", row.Channel, "id", row.ID)
		return nil
	}
}

func subjectFor(template string) string {
	switch template {
	case models.TemplateAccountApproved:
		return "Tu cuenta fue aprobada"
	case models.TemplateDocumentRejected:
		return "Un documento fue rechazado"
	default:
		return "Notificación"
	}
}
