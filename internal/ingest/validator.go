// Package ingest validates and normalizes inbound log payloads. Nothing
// past this boundary handles an untyped map: callers get either a
// normalized model.Log or a FieldError naming the offending field.
package ingest

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/logify-sh/logify/internal/model"
)

// FieldError is a payload rejection. Field is "" when the body as a whole
// is malformed.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string { return e.Reason }

func levelList() string {
	names := make([]string, len(model.Levels))
	for i, l := range model.Levels {
		names[i] = string(l)
	}
	return strings.Join(names, ", ")
}

// optionalStringFields are checked in this order so rejection messages are
// stable.
var optionalStringFields = []string{"service", "environment", "traceId", "spanId", "userId", "requestId", "host"}

// timestampLayouts are tried in order for string timestamps.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Validate checks a raw request body against the ingestion schema and
// returns the normalized event. Rules run in a fixed order and the first
// failure wins. acceptedAt becomes the event timestamp when the payload
// carries none. Unknown fields are ignored.
//
// The returned Log has no ID, ProjectID, IP or CreatedAt; the gateway
// assigns those at persistence time.
func Validate(body []byte, acceptedAt time.Time) (*model.Log, *FieldError) {
	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, &FieldError{Reason: "Request body must be a JSON object."}
	}
	payload, ok := decoded.(map[string]any)
	if !ok {
		return nil, &FieldError{Reason: "Request body must be a JSON object."}
	}

	level, ok := payload["level"].(string)
	if !ok || !model.ValidLevel(level) {
		return nil, &FieldError{
			Field:  "level",
			Reason: `"level" is required and must be one of: ` + levelList() + ".",
		}
	}

	message, ok := payload["message"].(string)
	if !ok || message == "" {
		return nil, &FieldError{Field: "message", Reason: `"message" is required and must be a string.`}
	}

	strFields := make(map[string]*string, len(optionalStringFields))
	for _, field := range optionalStringFields {
		value, present := payload[field]
		if !present || value == nil {
			continue
		}
		s, ok := value.(string)
		if !ok {
			return nil, &FieldError{
				Field:  field,
				Reason: fmt.Sprintf("%q must be a string if provided.", field),
			}
		}
		strFields[field] = &s
	}

	timestamp := acceptedAt
	if value, present := payload["timestamp"]; present && value != nil {
		parsed, ok := parseTimestamp(value)
		if !ok {
			return nil, &FieldError{
				Field:  "timestamp",
				Reason: `"timestamp" must be a valid ISO 8601 date string or Unix timestamp.`,
			}
		}
		timestamp = parsed
	}

	var meta map[string]any
	if value, present := payload["meta"]; present && value != nil {
		m, ok := value.(map[string]any)
		if !ok {
			return nil, &FieldError{Field: "meta", Reason: `"meta" must be an object if provided.`}
		}
		meta = m
	}

	var tags []string
	if value, present := payload["tags"]; present && value != nil {
		list, ok := value.([]any)
		if !ok {
			return nil, &FieldError{Field: "tags", Reason: `"tags" must be an array of strings if provided.`}
		}
		tags = make([]string, len(list))
		for i, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, &FieldError{Field: "tags", Reason: `"tags" must be an array of strings if provided.`}
			}
			tags[i] = s
		}
	}

	return &model.Log{
		Level:       model.Level(level),
		Message:     message,
		Service:     strFields["service"],
		Environment: strFields["environment"],
		Timestamp:   timestamp,
		Meta:        meta,
		TraceID:     strFields["traceId"],
		SpanID:      strFields["spanId"],
		UserID:      strFields["userId"],
		RequestID:   strFields["requestId"],
		Host:        strFields["host"],
		Tags:        tags,
	}, nil
}

// parseTimestamp accepts ISO 8601 strings or numeric epochs. Numbers are
// epoch milliseconds, matching what JavaScript clients send.
func parseTimestamp(value any) (time.Time, bool) {
	switch v := value.(type) {
	case float64:
		ms := int64(v)
		return time.UnixMilli(ms).UTC(), true
	case string:
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}
