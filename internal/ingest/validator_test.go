package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logify-sh/logify/internal/model"
)

var accepted = time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC)

func TestValidate_Rejections(t *testing.T) {
	cases := []struct {
		name      string
		body      string
		wantField string
	}{
		{"empty body", ``, ""},
		{"scalar body", `"hello"`, ""},
		{"array body", `[{"level":"info"}]`, ""},
		{"missing level", `{"message":"hi"}`, "level"},
		{"level not in enum", `{"level":"critical","message":"hi"}`, "level"},
		{"level wrong case", `{"level":"ERROR","message":"hi"}`, "level"},
		{"level wrong type", `{"level":5,"message":"hi"}`, "level"},
		{"missing message", `{"level":"info"}`, "message"},
		{"empty message", `{"level":"info","message":""}`, "message"},
		{"message wrong type", `{"level":"info","message":12}`, "message"},
		{"service wrong type", `{"level":"info","message":"hi","service":123}`, "service"},
		{"traceId wrong type", `{"level":"info","message":"hi","traceId":true}`, "traceId"},
		{"bad timestamp", `{"level":"info","message":"hi","timestamp":"not-a-date"}`, "timestamp"},
		{"meta scalar", `{"level":"info","message":"hi","meta":"string"}`, "meta"},
		{"meta array", `{"level":"info","message":"hi","meta":[1]}`, "meta"},
		{"tags not strings", `{"level":"info","message":"hi","tags":[1,2,3]}`, "tags"},
		{"tags scalar", `{"level":"info","message":"hi","tags":"prod"}`, "tags"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			log, ferr := Validate([]byte(tc.body), accepted)
			require.Nil(t, log)
			require.NotNil(t, ferr)
			assert.Equal(t, tc.wantField, ferr.Field)
			assert.NotEmpty(t, ferr.Reason)
			if tc.wantField != "" {
				assert.Contains(t, ferr.Reason, `"`+tc.wantField+`"`, "message names the field")
			}
		})
	}
}

func TestValidate_FirstFailureWins(t *testing.T) {
	// Both level and message are invalid; level is checked first.
	_, ferr := Validate([]byte(`{"level":"critical","message":""}`), accepted)
	require.NotNil(t, ferr)
	assert.Equal(t, "level", ferr.Field)
}

func TestValidate_MinimalPayloadDefaults(t *testing.T) {
	log, ferr := Validate([]byte(`{"level":"error","message":"db down"}`), accepted)
	require.Nil(t, ferr)

	assert.Equal(t, model.LevelError, log.Level)
	assert.Equal(t, "db down", log.Message)
	assert.Equal(t, accepted, log.Timestamp, "event timestamp defaults to acceptance time")
	assert.Nil(t, log.Service)
	assert.Nil(t, log.Environment)
	assert.Nil(t, log.Meta)
	assert.Nil(t, log.Tags)
	assert.Nil(t, log.TraceID)
}

func TestValidate_FullPayload(t *testing.T) {
	body := `{
		"level": "warn",
		"message": "slow query",
		"service": "billing",
		"environment": "production",
		"timestamp": "2025-06-01T09:00:00Z",
		"meta": {"durationMs": 950, "query": "SELECT"},
		"traceId": "t-1",
		"spanId": "s-1",
		"userId": "u-1",
		"requestId": "r-1",
		"host": "web-3",
		"tags": ["db", "slow"],
		"somethingUnknown": {"ignored": true}
	}`
	log, ferr := Validate([]byte(body), accepted)
	require.Nil(t, ferr)

	assert.Equal(t, model.LevelWarn, log.Level)
	require.NotNil(t, log.Service)
	assert.Equal(t, "billing", *log.Service)
	assert.Equal(t, time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC), log.Timestamp)
	assert.Equal(t, float64(950), log.Meta["durationMs"])
	assert.Equal(t, []string{"db", "slow"}, log.Tags)
	require.NotNil(t, log.Host)
	assert.Equal(t, "web-3", *log.Host)
}

func TestValidate_NumericEpochTimestamp(t *testing.T) {
	log, ferr := Validate([]byte(`{"level":"info","message":"hi","timestamp":1717235400000}`), accepted)
	require.Nil(t, ferr)
	assert.Equal(t, time.UnixMilli(1717235400000).UTC(), log.Timestamp)
}

func TestValidate_ExplicitNullsTreatedAsAbsent(t *testing.T) {
	log, ferr := Validate([]byte(`{"level":"info","message":"hi","service":null,"tags":null,"meta":null}`), accepted)
	require.Nil(t, ferr)
	assert.Nil(t, log.Service)
	assert.Nil(t, log.Tags)
	assert.Nil(t, log.Meta)
}
