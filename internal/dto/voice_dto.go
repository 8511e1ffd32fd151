package dto

type TranscriptionResponse struct {
	Text string `json:"text"`
}

// TTSRequest synthesizes either free text or the prompt of a claim field.
type TTSRequest struct {
	Text  string `json:"text" validate:"max=2000"`
	Field string `json:"field"`
}

type Audio struct {
	Bytes     []byte
	MediaType string
}
