package notify

import (
	"context"

	"gorm.io/gorm"

	"nyumbani/internal/models"
)

// Notifier persists in-app notifications and pushes them to any open
// websocket of the recipient.
type Notifier struct {
	DB  *gorm.DB
	Hub *Hub
}

func New(db *gorm.DB, hub *Hub) *Notifier {
	return &Notifier{DB: db, Hub: hub}
}

func (n *Notifier) Send(ctx context.Context, note *models.Notification) error {
	if err := n.DB.WithContext(ctx).Create(note).Error; err != nil {
		return err
	}
	if n.Hub != nil {
		n.Hub.Publish(note.UserID, note)
	}
	return nil
}
