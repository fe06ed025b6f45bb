package messaging

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/openai/openai-go"

	"github.com/BioSummitBR/eventbot/internal/engine"
	"github.com/BioSummitBR/eventbot/internal/models"
	"github.com/BioSummitBR/eventbot/internal/promptctx"
	"github.com/BioSummitBR/eventbot/internal/registration"
	"github.com/BioSummitBR/eventbot/internal/session"
	"github.com/BioSummitBR/eventbot/internal/store"
	"github.com/BioSummitBR/eventbot/internal/twiliowhatsapp"
	"github.com/BioSummitBR/eventbot/internal/whatsapp"
)

func TestCanonicalizeRecipient(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"whatsapp:+5541999380969", "5541999380969", false},
		{"+55 41 99938-0969", "5541999380969", false},
		{"5541999380969", "5541999380969", false},
		{"", "", true},
		{"abc", "", true},
		{"12345", "", true},
	}
	for _, tc := range tests {
		got, err := canonicalizeRecipient(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("%q: expected error", tc.in)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("%q: got (%q, %v), want %q", tc.in, got, err, tc.want)
		}
	}
}

func TestWhatsAppServiceSendAfterStop(t *testing.T) {
	svc := NewWhatsAppService(whatsapp.NewMockClient())
	if err := svc.Stop(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.SendMessage(context.Background(), "5541999380969", "oi"); err != ErrServiceStopped {
		t.Errorf("expected ErrServiceStopped, got %v", err)
	}
	// Stop is idempotent.
	if err := svc.Stop(); err != nil {
		t.Errorf("unexpected error on second stop: %v", err)
	}
}

func TestWhatsAppServiceSendCanonicalizes(t *testing.T) {
	mock := whatsapp.NewMockClient()
	svc := NewWhatsAppService(mock)
	if err := svc.SendMessage(context.Background(), "+55 41 99938-0969", "olá"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mock.Sent) != 1 || mock.Sent[0].To != "5541999380969" {
		t.Errorf("expected canonicalized recipient, got %+v", mock.Sent)
	}
}

func TestTwilioWebhookEmitsResponse(t *testing.T) {
	svc := NewTwilioService(twiliowhatsapp.NewMockClient())

	form := url.Values{}
	form.Set("From", "whatsapp:+5541999380969")
	form.Set("Body", "quero me inscrever")
	req := httptest.NewRequest(http.MethodPost, "/webhook/twilio", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	svc.TwilioWebhookHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	select {
	case response := <-svc.Responses():
		if response.From != "5541999380969" || response.Body != "quero me inscrever" {
			t.Errorf("unexpected response: %+v", response)
		}
	case <-time.After(time.Second):
		t.Fatal("expected response on channel")
	}
}

func TestTwilioWebhookRejectsMissingFields(t *testing.T) {
	svc := NewTwilioService(twiliowhatsapp.NewMockClient())

	form := url.Values{}
	form.Set("From", "whatsapp:+5541999380969")
	req := httptest.NewRequest(http.MethodPost, "/webhook/twilio", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	svc.TwilioWebhookHandler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

type scriptedModel struct{ reply string }

func (m *scriptedModel) GenerateWithMessages(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error) {
	return m.reply, nil
}

type noopSender struct{}

func (noopSender) SendRegistrationConfirmation(toEmail, fullName string) error { return nil }

// fakeService feeds scripted inbound messages and records outbound sends.
type fakeService struct {
	responses chan models.Response
	mu        sync.Mutex
	sent      []models.Response
}

func newFakeService() *fakeService {
	return &fakeService{responses: make(chan models.Response, 10)}
}

func (f *fakeService) ValidateAndCanonicalizeRecipient(recipient string) (string, error) {
	return canonicalizeRecipient(recipient)
}

func (f *fakeService) SendMessage(ctx context.Context, to string, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, models.Response{From: to, Body: body})
	return nil
}

func (f *fakeService) Start(ctx context.Context) error       { return nil }
func (f *fakeService) Stop() error                           { close(f.responses); return nil }
func (f *fakeService) Responses() <-chan models.Response     { return f.responses }
func (f *fakeService) sentMessages() []models.Response {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Response(nil), f.sent...)
}

func TestResponderAnswersInboundMessages(t *testing.T) {
	st := store.NewInMemoryStore()
	eng := engine.New(
		session.NewInMemoryManager(10),
		registration.NewManager(st, noopSender{}),
		promptctx.NewManager(promptctx.NewBasePromptProvider(""), promptctx.NewRegistrationProvider()),
		&scriptedModel{reply: "Olá! Como posso ajudar?"},
	)

	svc := newFakeService()
	responder := NewResponder(svc, eng, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		responder.Run(ctx)
		close(done)
	}()

	svc.responses <- models.Response{From: "5541999380969", Body: "oi", Time: time.Now().Unix()}

	deadline := time.After(2 * time.Second)
	for len(svc.sentMessages()) == 0 {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for reply")
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()
	<-done

	sent := svc.sentMessages()
	if sent[0].From != "5541999380969" || sent[0].Body != "Olá! Como posso ajudar?" {
		t.Errorf("unexpected reply: %+v", sent[0])
	}
}
