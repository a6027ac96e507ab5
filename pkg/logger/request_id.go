package logger

import (
	"context"

	"github.com/google/uuid"
)

type requestIDKeyType struct{}

var requestIDKey = requestIDKeyType{}

// NewRequestIDContext помечает ctx идентификатором запроса. Пустой
// идентификатор заменяется новым.
func NewRequestIDContext(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		requestID = GenerateRequestID()
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

// InheritRequestID переносит идентификатор запроса из from в ctx.
// Так фоновая мутация пишет в лог тот же request_id, что и HTTP запрос,
// который ее породил.
func InheritRequestID(ctx, from context.Context) context.Context {
	id, _ := GetRequestID(from)
	return NewRequestIDContext(ctx, id)
}

// GetRequestID возвращает идентификатор запроса из ctx.
func GetRequestID(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(requestIDKey).(string)
	return id, ok && id != ""
}

// GenerateRequestID новый идентификатор запроса.
func GenerateRequestID() string {
	return uuid.NewString()
}
