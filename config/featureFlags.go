package config

import (
	"os"
	"strings"
	"time"
)

func envBool(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// IsProduction reports GO_ENV=production. Production relaxes fail-loud checks
// (unknown process statuses fall back to the pending bucket) and tightens CORS.
func IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production")
}

// StrictProcessTransitions loads the recommended workflow graph instead of the
// permissive default.
//
// Set via env:
// - PROCESS_TRANSITIONS_STRICT=true
func StrictProcessTransitions() bool {
	return envBool("PROCESS_TRANSITIONS_STRICT")
}

// ProcessTransitionsJSON is an operator-supplied transition table, e.g.
// PROCESS_TRANSITIONS='{"AGUARDANDO_DOCUMENTOS":["DOCUMENTOS_RECEBIDOS","CANCELADO"]}'
// It takes precedence over PROCESS_TRANSITIONS_STRICT.
func ProcessTransitionsJSON() string {
	return strings.TrimSpace(os.Getenv("PROCESS_TRANSITIONS"))
}

// EventPublishTimeout bounds a single fire-and-forget publish.
//
// Set via env:
// - EVENT_PUBLISH_TIMEOUT_MS (default 5000)
func EventPublishTimeout() time.Duration {
	return time.Duration(intFromEnv("EVENT_PUBLISH_TIMEOUT_MS", 5000)) * time.Millisecond
}

// EventsEnabled allows turning the realtime side-channel off entirely.
//
// Set via env:
// - EVENTS_DISABLED=true
func EventsEnabled() bool {
	return !envBool("EVENTS_DISABLED")
}

// MLTimeout bounds calls to the prediction service.
//
// Set via env:
// - ML_TIMEOUT_MS (default 3000)
func MLTimeout() time.Duration {
	return time.Duration(intFromEnv("ML_TIMEOUT_MS", 3000)) * time.Millisecond
}

// SkipMigrations disables AutoMigrate on boot.
func SkipMigrations() bool {
	return envBool("SKIP_MIGRATIONS")
}
