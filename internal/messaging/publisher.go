package messaging

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/pixil98/go-idle/internal/game"
)

// Publisher sends raw payloads to a subject.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NotificationPublisher forwards engine notifications onto the bus as JSON.
type NotificationPublisher struct {
	pub Publisher
}

func NewNotificationPublisher(pub Publisher) *NotificationPublisher {
	return &NotificationPublisher{pub: pub}
}

func (p *NotificationPublisher) Publish(n game.Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshalling notification: %w", err)
	}
	if err := p.pub.Publish(NotifySubject(n.Kind), data); err != nil {
		return fmt.Errorf("publishing %s: %w", n.Kind, err)
	}
	return nil
}

// Notify is a game.Engine subscriber. Failures are logged; the engine never
// waits on the bus.
func (p *NotificationPublisher) Notify(n game.Notification) {
	if err := p.Publish(n); err != nil {
		slog.Warn("forwarding notification", "kind", n.Kind, "error", err)
	}
}
