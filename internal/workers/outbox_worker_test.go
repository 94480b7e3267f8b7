package workers

import (
	"context"
	"errors"
	"testing"
	"time"

	"servimarket_backend/internal/email"
	"servimarket_backend/internal/models"
	"servimarket_backend/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type stubOutboxRepo struct {
	repositories.OutboxRepository
	rows      []models.OutboxNotification
	processed []string
}

func (s *stubOutboxRepo) FindUnprocessed(db *gorm.DB, limit int) ([]models.OutboxNotification, error) {
	return s.rows, nil
}

func (s *stubOutboxRepo) MarkProcessed(db *gorm.DB, id string) error {
	s.processed = append(s.processed, id)
	return nil
}

type stubUserRepo struct {
	repositories.UserRepository
	user *models.User
}

func (s *stubUserRepo) FindByID(db *gorm.DB, id string) (*models.User, error) {
	return s.user, nil
}

type captureEmail struct {
	email.Provider
	fail     bool
	to       []string
	subject  string
	template string
	data     email.TemplateData
}

func (c *captureEmail) SendTemplate(to []string, subject, templateName string, data email.TemplateData) error {
	if c.fail {
		return errors.New("smtp down")
	}
	c.to = to
	c.subject = subject
	c.template = templateName
	c.data = data
	return nil
}

func rejectionRow(id string) models.OutboxNotification {
	return models.OutboxNotification{
		BaseModel: models.BaseModel{ID: id},
		UserID:    "user-1",
		Channel:   models.OutboxChannelEmail,
		Template:  models.TemplateDocumentRejected,
		Payload:   datatypes.JSON(`{"tipo":"id_front","rechazo_motivo":"imagen borrosa"}`),
	}
}

func TestDrainDeliversRejectionWithReason(t *testing.T) {
	outbox := &stubOutboxRepo{rows: []models.OutboxNotification{rejectionRow("row-1")}}
	users := &stubUserRepo{user: &models.User{
		BaseModel: models.BaseModel{ID: "user-1"},
		Name:      "Luis",
		Email:     "luis@example.com",
	}}
	emailer := &captureEmail{}
	w := NewOutboxWorker(nil, outbox, users, emailer, time.Second)

	w.drain(context.Background())

	require.Equal(t, []string{"row-1"}, outbox.processed)
	assert.Equal(t, []string{"luis@example.com"}, emailer.to)
	assert.Equal(t, models.TemplateDocumentRejected, emailer.template)

	// The payload keys reach the template data untouched, plus the
	// recipient's name for the greeting.
	assert.Equal(t, "imagen borrosa", emailer.data["rechazo_motivo"])
	assert.Equal(t, "id_front", emailer.data["tipo"])
	assert.Equal(t, "Luis", emailer.data["nombre"])
}

func TestDrainKeepsRowOnDeliveryFailure(t *testing.T) {
	outbox := &stubOutboxRepo{rows: []models.OutboxNotification{rejectionRow("row-1")}}
	users := &stubUserRepo{user: &models.User{BaseModel: models.BaseModel{ID: "user-1"}, Email: "a@b.c"}}
	w := NewOutboxWorker(nil, outbox, users, &captureEmail{fail: true}, time.Second)

	w.drain(context.Background())

	// Undelivered rows stay in the queue for the next tick.
	assert.Empty(t, outbox.processed)
}

func TestDrainMarksWhatsAppRowsProcessed(t *testing.T) {
	row := rejectionRow("row-2")
	row.Channel = models.OutboxChannelWhatsApp
	outbox := &stubOutboxRepo{rows: []models.OutboxNotification{row}}
	users := &stubUserRepo{}
	w := NewOutboxWorker(nil, outbox, users, &captureEmail{}, time.Second)

	w.drain(context.Background())

	assert.Equal(t, []string{"row-2"}, outbox.processed)
}
