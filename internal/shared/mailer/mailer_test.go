package mailer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogMailerRecordsRecipient(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	m := NewLogMailer(zap.New(core))

	err := m.Send(context.Background(), "ana@example.com", "Welcome", "hello")
	assert.NoError(t, err)

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "ana@example.com", entries[0].ContextMap()["to"])
	}
}

func TestSMTPMailerHonoursCancelledContext(t *testing.T) {
	m := NewSMTPMailer(SMTPConfig{Host: "127.0.0.1", Port: 1, From: "noreply@example.com"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, m.Send(ctx, "ana@example.com", "s", "b"), context.Canceled)
}
