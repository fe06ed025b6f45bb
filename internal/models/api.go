package models

// API status values used in HTTP responses.
const (
	APIStatusOK    = "ok"
	APIStatusError = "error"
)

// APIResponse is the envelope for every JSON response served by the API.
type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Result  interface{} `json:"result,omitempty"`
}

// Success creates a successful API response with optional result data.
func Success(result interface{}) APIResponse {
	return APIResponse{Status: APIStatusOK, Result: result}
}

// Error creates an error API response with a message.
func Error(message string) APIResponse {
	return APIResponse{Status: APIStatusError, Message: message}
}

// ChatRequest is the POST /chat payload.
type ChatRequest struct {
	UserID      string `json:"user_id"`
	Message     string `json:"message"`
	ContextType string `json:"context_type,omitempty"`
}

// Validate checks required chat request fields.
func (r *ChatRequest) Validate() error {
	if r.UserID == "" {
		return ErrEmptyUserID
	}
	if r.Message == "" {
		return ErrEmptyMessage
	}
	return nil
}

// ChatResult is the outcome of one handled message, returned by the engine
// and serialized as the POST /chat result.
type ChatResult struct {
	UserID string `json:"user_id"`
	Reply  string `json:"reply"`
	Turns  int    `json:"turns"`
}
