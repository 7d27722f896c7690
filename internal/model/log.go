package model

import (
	"time"

	"github.com/google/uuid"
)

// Level is the severity of a log event.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
	LevelFatal Level = "fatal"
)

// Levels lists every accepted severity, in ascending order.
var Levels = []Level{LevelDebug, LevelInfo, LevelWarn, LevelError, LevelFatal}

// ValidLevel reports whether s is one of the accepted severities.
// Matching is case-sensitive.
func ValidLevel(s string) bool {
	for _, l := range Levels {
		if string(l) == s {
			return true
		}
	}
	return false
}

// Log is a persisted log event. It is written exactly once per accepted
// ingestion call and immutable thereafter. Optional fields are pointers so
// absent values round-trip as explicit JSON nulls rather than missing keys.
type Log struct {
	ID          uuid.UUID      `db:"id" json:"id"`
	ProjectID   string         `db:"project_id" json:"projectId"`
	Level       Level          `db:"level" json:"level"`
	Message     string         `db:"message" json:"message"`
	Service     *string        `db:"service" json:"service"`
	Environment *string        `db:"environment" json:"environment"`
	Timestamp   time.Time      `db:"timestamp" json:"timestamp"`
	Meta        map[string]any `db:"meta" json:"meta"`
	TraceID     *string        `db:"trace_id" json:"traceId"`
	SpanID      *string        `db:"span_id" json:"spanId"`
	UserID      *string        `db:"user_id" json:"userId"`
	RequestID   *string        `db:"request_id" json:"requestId"`
	Host        *string        `db:"host" json:"host"`
	Tags        []string       `db:"tags" json:"tags"`
	IP          *string        `db:"ip" json:"ip"`
	CreatedAt   time.Time      `db:"created_at" json:"createdAt"`
}
