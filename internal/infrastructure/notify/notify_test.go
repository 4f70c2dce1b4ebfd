package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/smtp"
	"testing"
	"time"

	"event-ticketing/internal/config"
	"event-ticketing/internal/domain/event"
	domainUser "event-ticketing/internal/domain/user"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedMessage struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

type fakeBroker struct {
	messages []recordedMessage
	err      error
}

func (f *fakeBroker) Publish(topic string, qos byte, retained bool, payload []byte) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, recordedMessage{topic, qos, retained, payload})
	return nil
}

func TestEventPublisher_PublishStatusChange(t *testing.T) {
	broker := &fakeBroker{}
	publisher := NewEventPublisher(broker, "ticketing/events", 1)

	change := event.StatusChange{
		EventID:   uuid.New(),
		HostID:    uuid.New(),
		Slug:      "afrobeats-night-1",
		From:      event.StatusDraft,
		To:        event.StatusPublished,
		ChangedAt: time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, publisher.PublishStatusChange(context.Background(), change))

	require.Len(t, broker.messages, 1)
	msg := broker.messages[0]
	assert.Equal(t, "ticketing/events/"+change.EventID.String()+"/status", msg.topic)
	assert.Equal(t, byte(1), msg.qos)
	assert.True(t, msg.retained)

	var decoded event.StatusChange
	require.NoError(t, json.Unmarshal(msg.payload, &decoded))
	assert.Equal(t, change, decoded)

	broker.err = errors.New("not connected")
	assert.Error(t, publisher.PublishStatusChange(context.Background(), change))
}

func TestStatusTopic_DefaultPrefix(t *testing.T) {
	assert.Equal(t, "events/abc/status", StatusTopic("", "abc"))
}

func TestSMTPSender_SendResetCode(t *testing.T) {
	email := "ada@example.com"
	u := &domainUser.User{ID: uuid.New(), Email: &email, FirstName: "Ada"}

	var gotAddr string
	var gotTo []string
	var gotMsg []byte
	sender := NewSMTPSender(config.SMTPConfig{Host: "smtp.example.com", Port: 587, From: "no-reply@example.com"})
	sender.sendMail = func(addr string, _ smtp.Auth, _ string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, msg
		return nil
	}

	require.NoError(t, sender.SendResetCode(context.Background(), u, "123456", time.Minute))
	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, []string{email}, gotTo)
	assert.Contains(t, string(gotMsg), "Your password reset code is 123456.")
	assert.Contains(t, string(gotMsg), "Subject: Your password reset code")

	assert.Error(t, sender.SendResetCode(context.Background(), &domainUser.User{ID: uuid.New()}, "123456", time.Minute))
}

type countingSender struct {
	calls int
}

func (c *countingSender) SendResetCode(context.Context, *domainUser.User, string, time.Duration) error {
	c.calls++
	return nil
}

func TestRoutingSender_PicksChannelPerUser(t *testing.T) {
	email := "ada@example.com"
	phone := "+2348012345678"
	withEmail := &domainUser.User{ID: uuid.New(), Email: &email}
	phoneOnly := &domainUser.User{ID: uuid.New(), PhoneNumber: &phone}

	mailed := 0
	smtpSender := NewSMTPSender(config.SMTPConfig{Host: "smtp.example.com", Port: 587, From: "no-reply@example.com"})
	smtpSender.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
		mailed++
		return nil
	}
	fallback := &countingSender{}
	sender := NewRoutingSender(smtpSender, fallback)

	require.NoError(t, sender.SendResetCode(context.Background(), withEmail, "123456", time.Minute))
	require.NoError(t, sender.SendResetCode(context.Background(), phoneOnly, "123456", time.Minute))

	assert.Equal(t, 1, mailed)
	assert.Equal(t, 1, fallback.calls)
}

func TestSMTPSender_NoEmailAddress(t *testing.T) {
	sender := NewSMTPSender(config.SMTPConfig{Host: "smtp.example.com", Port: 587})
	err := sender.SendResetCode(context.Background(), &domainUser.User{ID: uuid.New()}, "123456", time.Minute)
	assert.ErrorIs(t, err, ErrNoEmailAddress)
}
