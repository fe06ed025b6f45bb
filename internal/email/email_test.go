package email

import (
	"errors"
	"net/smtp"
	"strings"
	"testing"
)

func TestNewSenderSelectsByHost(t *testing.T) {
	if _, ok := NewSender(WithHost(DevLogHost)).(*LogSender); !ok {
		t.Error("expected LogSender for dev-log host")
	}
	if _, ok := NewSender().(*LogSender); !ok {
		t.Error("expected LogSender when host unset")
	}
	if _, ok := NewSender(WithHost("smtp.example.com")).(*SMTPSender); !ok {
		t.Error("expected SMTPSender for a real host")
	}
}

func TestSMTPSenderBuildsMessage(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg string
	sender := &SMTPSender{
		opts: Opts{Host: "smtp.example.com", Port: 2525, From: "inscricao@biosummit.com.br"},
		send: func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
			gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, string(msg)
			return nil
		},
	}

	if err := sender.SendRegistrationConfirmation("maria@example.com", "Maria Silva"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAddr != "smtp.example.com:2525" {
		t.Errorf("unexpected addr %q", gotAddr)
	}
	if gotFrom != "inscricao@biosummit.com.br" || len(gotTo) != 1 || gotTo[0] != "maria@example.com" {
		t.Errorf("unexpected envelope: from=%q to=%v", gotFrom, gotTo)
	}
	if !strings.Contains(gotMsg, "Olá, Maria Silva!") {
		t.Errorf("expected personalized body, got %q", gotMsg)
	}
	if !strings.Contains(gotMsg, "Subject: Confirmação de inscrição - BioSummit 2026") {
		t.Errorf("expected subject header, got %q", gotMsg)
	}
}

func TestSMTPSenderWrapsDeliveryError(t *testing.T) {
	sender := &SMTPSender{
		opts: Opts{Host: "smtp.example.com", Port: 587, From: DefaultFrom},
		send: func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
			return errors.New("connection refused")
		},
	}
	err := sender.SendRegistrationConfirmation("maria@example.com", "Maria Silva")
	if !errors.Is(err, ErrDelivery) {
		t.Errorf("expected ErrDelivery, got %v", err)
	}
}

func TestSendRejectsEmptyRecipient(t *testing.T) {
	sender := &LogSender{From: DefaultFrom}
	if err := sender.SendRegistrationConfirmation("", "Maria Silva"); err == nil {
		t.Error("expected error for empty email")
	}
	if err := sender.SendRegistrationConfirmation("maria@example.com", "  "); err == nil {
		t.Error("expected error for empty name")
	}
}
