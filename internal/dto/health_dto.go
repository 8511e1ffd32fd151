package dto

type HealthEnvironment struct {
	ElevenApiConfigured   bool   `json:"eleven_api_configured"`
	ElevenVoiceConfigured bool   `json:"eleven_voice_configured"`
	ElevenApiKeyLength    int    `json:"eleven_api_key_length"`
	ElevenVoiceIdLength   int    `json:"eleven_voice_id_length"`
	ZohoEnabled           bool   `json:"zoho_enabled"`
	LlmEnabled            bool   `json:"llm_enabled"`
	DatabaseConfigured    bool   `json:"database_configured"`
	NatsConnected         bool   `json:"nats_connected"`
	RedisConfigured       bool   `json:"redis_configured"`
	FfmpegAvailable       bool   `json:"ffmpeg_available"`
	FrontendUrl           string `json:"frontend_url"`
	BackendUrl            string `json:"backend_url"`
}

type HealthResponse struct {
	Status      string            `json:"status"`
	Version     string            `json:"version"`
	GoVersion   string            `json:"go_version"`
	Environment HealthEnvironment `json:"environment"`
}

type DebugEnvResponse struct {
	ElevenApiKeyPresent  bool              `json:"eleven_api_key_present"`
	ElevenApiKeyLength   int               `json:"eleven_api_key_length"`
	ElevenVoiceIdPresent bool              `json:"eleven_voice_id_present"`
	ElevenVoiceIdValue   string            `json:"eleven_voice_id_value"`
	EnvironmentVars      map[string]string `json:"environment_vars"`
	LiveSessions         int               `json:"live_sessions"`
	RequiredFields       []string          `json:"required_fields"`
}

type LogListResponse struct {
	Items  interface{} `json:"items"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}
