package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	FieldSessionID = "session_id"
	FieldQuestion  = "question"
	FieldTotal     = "total_questions"
	FieldAudioPath = "audio_path"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts key/value pairs into zap fields, trimming whitespace
// and omitting entries with empty keys or values.
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

// WithFields attaches fields to the logger, defaulting to a no-op logger when nil.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// SessionFields describes where an interview stands. The question counters are
// left out until the backend has reported a total.
func SessionFields(sessionID string, current, total int) []zap.Field {
	fields := StringFields(StringField{Key: FieldSessionID, Value: sessionID})
	if total > 0 {
		fields = append(fields, zap.Int(FieldQuestion, current), zap.Int(FieldTotal, total))
	}
	return fields
}

// AudioFields returns the field for a server-side recording path.
func AudioFields(path string) []zap.Field {
	return StringFields(StringField{Key: FieldAudioPath, Value: path})
}
