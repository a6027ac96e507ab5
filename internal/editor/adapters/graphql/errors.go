package graphql

import (
	"errors"
	"strings"
)

// Ошибки GraphQL шлюза.
var (
	ErrGraphQL          = errors.New("graphql error")
	ErrHTTPStatus       = errors.New("unexpected http status")
	ErrTokenExpired     = errors.New("access token expired")
	ErrConnectionLost   = errors.New("subscription connection lost")
	ErrNoAck            = errors.New("connection not acknowledged")
	ErrGatewayClosed    = errors.New("graphql gateway closed")
	ErrSubscriptionDone = errors.New("subscription completed by server")
)

// Error одна ошибка из ответа GraphQL.
type Error struct {
	Message   string `json:"message"`
	ErrorType string `json:"errorType,omitempty"`
	Path      []any  `json:"path,omitempty"`
}

// Errors список ошибок ответа.
type Errors []Error

func (e Errors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, item := range e {
		if item.ErrorType != "" {
			msgs = append(msgs, item.ErrorType+": "+item.Message)
			continue
		}
		msgs = append(msgs, item.Message)
	}
	return ErrGraphQL.Error() + ": " + strings.Join(msgs, "; ")
}

// Is позволяет проверять errors.Is(err, ErrGraphQL).
func (e Errors) Is(target error) bool {
	return target == ErrGraphQL
}
