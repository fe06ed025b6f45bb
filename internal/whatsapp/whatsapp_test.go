package whatsapp

import (
	"context"
	"testing"
)

func TestSendMessageValidation(t *testing.T) {
	c := &Client{}
	if err := c.SendMessage(context.Background(), "5541999380969", "oi"); err == nil {
		t.Error("expected error for uninitialized client")
	}

	c = &Client{waClient: nil}
	if err := c.SendMessage(context.Background(), "", "oi"); err == nil {
		t.Error("expected error for empty recipient")
	}
	if err := c.SendMessage(context.Background(), "5541999380969", ""); err == nil {
		t.Error("expected error for empty body")
	}
}

func TestMockClientRecordsMessages(t *testing.T) {
	m := NewMockClient()
	if err := m.SendMessage(context.Background(), "5541999380969", "olá"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m.Sent) != 1 || m.Sent[0].To != "5541999380969" || m.Sent[0].Body != "olá" {
		t.Errorf("unexpected recorded messages: %+v", m.Sent)
	}
}
