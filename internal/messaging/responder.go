package messaging

import (
	"context"
	"log/slog"

	"github.com/BioSummitBR/eventbot/internal/engine"
	"github.com/BioSummitBR/eventbot/internal/models"
)

// fallbackReply is sent when the engine fails so the user is not left
// waiting. Detail stays in the logs.
const fallbackReply = "Desculpe, não consegui processar sua mensagem agora. Pode tentar novamente em instantes?"

// Responder answers inbound channel messages through the engine. One
// responder serves one messaging service.
type Responder struct {
	service      Service
	engine       *engine.Engine
	contextTypes []models.ContextType
}

// NewResponder creates a responder that handles messages with the given
// context types (nil means the default context).
func NewResponder(service Service, eng *engine.Engine, contextTypes []models.ContextType) *Responder {
	return &Responder{service: service, engine: eng, contextTypes: contextTypes}
}

// Run consumes inbound messages until the context is cancelled or the
// service's response channel closes. Each message is answered synchronously;
// ordering per user follows channel delivery order.
func (r *Responder) Run(ctx context.Context) {
	slog.Info("Responder started")
	for {
		select {
		case <-ctx.Done():
			slog.Info("Responder stopping, context cancelled")
			return
		case response, ok := <-r.service.Responses():
			if !ok {
				slog.Info("Responder stopping, response channel closed")
				return
			}
			r.handle(ctx, response)
		}
	}
}

func (r *Responder) handle(ctx context.Context, response models.Response) {
	result, err := r.engine.HandleMessage(ctx, response.From, response.Body, r.contextTypes)
	reply := result.Reply
	if err != nil {
		slog.Error("Responder engine failure", "error", err, "from", response.From)
		reply = fallbackReply
	}
	if sendErr := r.service.SendMessage(ctx, response.From, reply); sendErr != nil {
		slog.Error("Responder failed to send reply", "error", sendErr, "to", response.From)
	}
}
