package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldRunID is the structured log field key for the digest run identifier.
	FieldRunID = "run_id"
	// FieldSubscriber is the structured log field key for the subscriber email.
	FieldSubscriber = "subscriber"
	// FieldFrequency is the structured log field key for the normalized send frequency.
	FieldFrequency = "frequency"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the provided key/value pairs into zap fields, trimming
// whitespace and omitting entries with empty keys or values.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}

		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields safely attaches the provided fields to the logger.
// A nil logger becomes a no-op logger.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// SubscriberFields describes the subscriber a log entry is about.
func SubscriberFields(email, frequency string) []zap.Field {
	return StringFields(
		StringField{Key: FieldSubscriber, Value: email},
		StringField{Key: FieldFrequency, Value: frequency},
	)
}

// WithRun attaches the run identifier to the logger.
func WithRun(logger *zap.Logger, runID string) *zap.Logger {
	return WithFields(logger, StringFields(StringField{Key: FieldRunID, Value: runID})...)
}
