package middleware

import (
	"github.com/gofiber/fiber/v3"

	"notetaker/pkg/logger"
)

// HeaderRequestID заголовок с идентификатором запроса.
const HeaderRequestID = "X-Request-ID"

// NewRequestIDMiddleware берет идентификатор запроса из заголовка или
// генерирует новый и кладет его в контекст запроса.
func NewRequestIDMiddleware(base *logger.Logger) fiber.Handler {
	return func(c fiber.Ctx) error {
		requestID := c.Get(HeaderRequestID)
		if requestID == "" {
			requestID = logger.GenerateRequestID()
		}
		c.Set(HeaderRequestID, requestID)

		ctx := logger.NewRequestIDContext(c.Context(), requestID)
		if base != nil {
			ctx = logger.NewContext(ctx, base)
		}
		c.Locals(RequestContextKey, ctx)

		return c.Next()
	}
}
