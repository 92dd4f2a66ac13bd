package domain

// AlertKind classifies a user-visible alert.
type AlertKind string

const (
	AlertSuccess AlertKind = "success"
	AlertInfo    AlertKind = "info"
	AlertError   AlertKind = "error"
)

// Alert is a blocking message for the shell to present. The core emits
// exactly one alert per terminal state transition; raw SDK or backend
// errors never reach the shell directly.
type Alert struct {
	Kind    AlertKind `json:"kind"`
	Title   string    `json:"title"`
	Message string    `json:"message"`
}
