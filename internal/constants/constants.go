package constants

// Context keys
const (
	ContextKeyPrincipal = "principal"
	ContextKeyUserID    = "user_id"
	ContextKeyRequestID = "request_id"
)

// Headers
const (
	HeaderAuthorization = "Authorization"
	HeaderRequestID     = "X-Request-ID"
	BearerPrefix        = "Bearer "
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// AI
const (
	MaxAIGeneratedTasks = 20
	MaxAudioUploadBytes = 25 << 20 // Whisper upload limit
)

// Defaults
const (
	DefaultColor               = "#3498db"
	DefaultBoardName           = "Kanban Board"
	DefaultTaskReminderMinutes = 30
	DefaultThemePreference     = "light"
	DefaultLanguagePreference  = "en"
)
