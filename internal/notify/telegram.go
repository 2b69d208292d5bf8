package notify

import (
	"encoding/json"
	"fmt"

	"rciconnect/internal/domain"
	"rciconnect/internal/events"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// Notifier pushes application workflow events to the admin Telegram chats.
// It subscribes to the in-process bus, so services never know about Telegram.
type Notifier struct {
	sender  domain.TelegramSender
	chatIDs []int64
	logger  *zerolog.Logger
}

func NewNotifier(sender domain.TelegramSender, chatIDs []int64, logger *zerolog.Logger) *Notifier {
	return &Notifier{
		sender:  sender,
		chatIDs: chatIDs,
		logger:  logger,
	}
}

// SubscribeAll registers the notifier for every event type it reports on.
func (n *Notifier) SubscribeAll(bus *events.EventBus) {
	for _, eventType := range []string{
		events.EventApplicationSubmitted,
		events.EventSectionsCompleted,
		events.EventApplicationApproved,
		events.EventApplicationRejected,
		events.EventCredentialsSent,
	} {
		bus.Subscribe(eventType, n.Handle)
	}
}

func (n *Notifier) Handle(event *events.Event) error {
	var payload events.ApplicationEventPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		n.logger.Error().Err(err).Str("event_type", event.Type).Msg("bad event payload")
		return err
	}

	text := formatEvent(event.Type, payload)
	if text == "" {
		return nil
	}

	for _, chatID := range n.chatIDs {
		msg := tgbotapi.NewMessage(chatID, text)
		if _, err := n.sender.Send(msg); err != nil {
			n.logger.Error().Err(err).Int64("chat_id", chatID).Msg("failed to send notification")
		}
	}
	return nil
}

func formatEvent(eventType string, p events.ApplicationEventPayload) string {
	switch eventType {
	case events.EventApplicationSubmitted:
		return fmt.Sprintf("New consultant application\n%s (%s)\nLicense: %s\nID: %s",
			p.FullName, p.Email, p.LicenseNumber, p.ApplicationID)
	case events.EventSectionsCompleted:
		return fmt.Sprintf("Application sections completed (%d/7)\n%s\nID: %s",
			p.SectionsCompleted, p.FullName, p.ApplicationID)
	case events.EventApplicationApproved:
		return fmt.Sprintf("Application approved\n%s (%s)\nID: %s",
			p.FullName, p.Email, p.ApplicationID)
	case events.EventApplicationRejected:
		return fmt.Sprintf("Application rejected\n%s (%s)\nID: %s",
			p.FullName, p.Email, p.ApplicationID)
	case events.EventCredentialsSent:
		return fmt.Sprintf("Consultant account created\n%s (%s)", p.FullName, p.Email)
	default:
		return ""
	}
}
