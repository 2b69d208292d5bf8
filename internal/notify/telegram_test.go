package notify

import (
	"io"
	"testing"

	"rciconnect/internal/events"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	sent []tgbotapi.Chattable
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, f.err
}

func TestNotifierSendsToEveryChat(t *testing.T) {
	sender := &fakeSender{}
	logger := zerolog.New(io.Discard)
	notifier := NewNotifier(sender, []int64{100, 200}, &logger)

	bus := events.NewEventBus()
	notifier.SubscribeAll(bus)

	payload := events.ApplicationEventPayload{
		ApplicationID: "app-1",
		Email:         "jordan@example.com",
		FullName:      "Jordan Lee",
		LicenseNumber: "R512345",
	}
	require.NoError(t, bus.PublishJSON(events.EventApplicationSubmitted, payload))

	require.Len(t, sender.sent, 2)
	msg, ok := sender.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, int64(100), msg.ChatID)
	assert.Contains(t, msg.Text, "Jordan Lee")
	assert.Contains(t, msg.Text, "app-1")
}

func TestNotifierIgnoresUnknownEvent(t *testing.T) {
	sender := &fakeSender{}
	logger := zerolog.New(io.Discard)
	notifier := NewNotifier(sender, []int64{100}, &logger)

	err := notifier.Handle(&events.Event{Type: "unrelated", Payload: []byte(`{}`)})
	assert.NoError(t, err)
	assert.Empty(t, sender.sent)
}

func TestNotifierBadPayload(t *testing.T) {
	sender := &fakeSender{}
	logger := zerolog.New(io.Discard)
	notifier := NewNotifier(sender, []int64{100}, &logger)

	err := notifier.Handle(&events.Event{Type: events.EventApplicationApproved, Payload: []byte(`{bad`)})
	assert.Error(t, err)
	assert.Empty(t, sender.sent)
}
