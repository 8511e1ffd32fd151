package dto

type StartConversationResponse struct {
	SessionId      string `json:"session_id"`
	Prompt         string `json:"prompt"`
	SilenceTimeout int64  `json:"silence_timeout"`
}

// RespondRequest carries one utterance. The session id may come from the
// query string instead of the body.
type RespondRequest struct {
	SessionId string `json:"session_id"`
	Text      string `json:"text" validate:"max=4000"`
}

type RespondResponse struct {
	SessionId      string            `json:"session_id"`
	NextPrompt     string            `json:"next_prompt"`
	Collected      map[string]string `json:"collected"`
	Status         string            `json:"status"`
	Pending        string            `json:"pending_field,omitempty"`
	Done           bool              `json:"done"`
	SilenceTimeout int64             `json:"silence_timeout"`
	Transcript     string            `json:"transcript,omitempty"`
	RedirectUrl    string            `json:"redirect_url,omitempty"`
}

type SessionResponse struct {
	SessionId string            `json:"session_id"`
	Status    string            `json:"status"`
	Collected map[string]string `json:"collected"`
	Turns     int               `json:"turns"`
}
