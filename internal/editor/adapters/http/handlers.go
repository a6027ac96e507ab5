package http

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"notetaker/internal/editor/adapters/http/middleware"
	"notetaker/internal/editor/app"
	"notetaker/pkg/logger"
)

// Константы ошибок и сообщений для логирования.
const (
	LogHandlerView       = "handling view request"
	LogHandlerSelect     = "handling select request"
	LogHandlerChangeText = "handling change text request"
	LogHandlerSubmit     = "handling submit request"
	LogHandlerDelete     = "handling delete request"

	ErrMsgInvalidNoteID      = "invalid note id"
	ErrMsgInvalidRequestBody = "invalid request body"
	ErrMsgNoteNotFound       = "note not found"
	ErrMsgEditorUnavailable  = "editor unavailable"
	ErrMsgInternal           = "Internal server error"
)

// Editor операции редактора, доступные по HTTP.
type Editor interface {
	Snapshot(ctx context.Context) (app.View, error)
	Select(ctx context.Context, id string) error
	ChangeText(ctx context.Context, text string) error
	Submit(ctx context.Context) (app.Intent, error)
	Delete(ctx context.Context, id string) error
}

var _ Editor = (*app.NoteEditor)(nil)

// Handler обработчик HTTP-запросов редактора.
type Handler struct {
	editor Editor
}

// NewHandler создает обработчик поверх редактора.
func NewHandler(editor Editor) *Handler {
	return &Handler{editor: editor}
}

// View возвращает текущий снимок редактора.
func (h *Handler) View(c fiber.Ctx) error {
	ctx := middleware.RequestContext(c)
	log := logger.Log(ctx).With(zap.String("handler", "Handler.View"))
	log.Debug(ctx, LogHandlerView)

	return h.respondView(ctx, c)
}

// Select выбирает заметку для редактирования.
func (h *Handler) Select(c fiber.Ctx) error {
	ctx := middleware.RequestContext(c)
	log := logger.Log(ctx).With(zap.String("handler", "Handler.Select"))
	log.Debug(ctx, LogHandlerSelect)

	noteID := c.Params("note_id")
	if noteID == "" {
		return sendError(c, fiber.StatusBadRequest, ErrMsgInvalidNoteID)
	}

	if err := h.editor.Select(ctx, noteID); err != nil {
		log.Warn(ctx, "select failed", zap.String("note_id", noteID), zap.Error(err))
		return handleError(c, err)
	}
	return h.respondView(ctx, c)
}

// ChangeText заменяет текст буфера.
func (h *Handler) ChangeText(c fiber.Ctx) error {
	ctx := middleware.RequestContext(c)
	log := logger.Log(ctx).With(zap.String("handler", "Handler.ChangeText"))
	log.Debug(ctx, LogHandlerChangeText)

	var req ChangeTextRequest
	if err := c.Bind().Body(&req); err != nil {
		log.Warn(ctx, ErrMsgInvalidRequestBody, zap.Error(err))
		return sendError(c, fiber.StatusBadRequest, ErrMsgInvalidRequestBody)
	}

	if err := h.editor.ChangeText(ctx, req.Text); err != nil {
		return handleError(c, err)
	}
	return h.respondView(ctx, c)
}

// Submit отправляет буфер как создание или обновление.
func (h *Handler) Submit(c fiber.Ctx) error {
	ctx := middleware.RequestContext(c)
	log := logger.Log(ctx).With(zap.String("handler", "Handler.Submit"))
	log.Debug(ctx, LogHandlerSubmit)

	intent, err := h.editor.Submit(ctx)
	if err != nil {
		return handleError(c, err)
	}

	if err := c.Status(fiber.StatusAccepted).JSON(intentResponse(intent)); err != nil {
		return fmt.Errorf("error sending response: %w", err)
	}
	return nil
}

// Delete запрашивает удаление заметки. Коллекция изменится по событию.
func (h *Handler) Delete(c fiber.Ctx) error {
	ctx := middleware.RequestContext(c)
	log := logger.Log(ctx).With(zap.String("handler", "Handler.Delete"))
	log.Debug(ctx, LogHandlerDelete)

	noteID := c.Params("note_id")
	if noteID == "" {
		return sendError(c, fiber.StatusBadRequest, ErrMsgInvalidNoteID)
	}

	if err := h.editor.Delete(ctx, noteID); err != nil {
		return handleError(c, err)
	}

	if err := c.Status(fiber.StatusAccepted).JSON(fiber.Map{"id": noteID}); err != nil {
		return fmt.Errorf("error sending response: %w", err)
	}
	return nil
}

func (h *Handler) respondView(ctx context.Context, c fiber.Ctx) error {
	view, err := h.editor.Snapshot(ctx)
	if err != nil {
		return handleError(c, err)
	}
	if err := c.JSON(viewResponse(view)); err != nil {
		return fmt.Errorf("error sending response: %w", err)
	}
	return nil
}

func sendError(c fiber.Ctx, status int, msg string) error {
	if err := c.Status(status).JSON(fiber.Map{"error": msg}); err != nil {
		return fmt.Errorf("failed to send error response: %w", err)
	}
	return nil
}

func handleError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, app.ErrNoteNotFound):
		return sendError(c, fiber.StatusNotFound, ErrMsgNoteNotFound)
	case errors.Is(err, app.ErrNotStarted), errors.Is(err, app.ErrClosed):
		return sendError(c, fiber.StatusServiceUnavailable, ErrMsgEditorUnavailable)
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return sendError(c, fiberErr.Code, fiberErr.Message)
	}

	return sendError(c, fiber.StatusInternalServerError, ErrMsgInternal)
}
