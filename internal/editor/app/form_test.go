package app_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"notetaker/internal/editor/app"
	"notetaker/internal/editor/domain/entities"
)

func TestSelect(t *testing.T) {
	s := stateWith(entities.Note{ID: "1", Note: "a"})

	app.Select(s, entities.Note{ID: "1", Note: "a"})

	assert.Equal(t, entities.EditBuffer{ID: "1", Text: "a"}, s.Buffer)
	assert.Equal(t, entities.ModeEditing, s.Buffer.Mode())
}

func TestChangeText(t *testing.T) {
	t.Run("empty text returns to create mode", func(t *testing.T) {
		s := stateWith()
		s.Buffer = entities.EditBuffer{ID: "2", Text: "x"}

		app.ChangeText(s, "")

		assert.Empty(t, s.Buffer.ID)
		assert.Empty(t, s.Buffer.Text)
		assert.Equal(t, entities.ModeCreate, s.Buffer.Mode())
	})

	t.Run("non-empty text keeps target", func(t *testing.T) {
		s := stateWith()
		s.Buffer = entities.EditBuffer{ID: "2", Text: "x"}

		app.ChangeText(s, "xy")

		assert.Equal(t, entities.EditBuffer{ID: "2", Text: "xy"}, s.Buffer)
	})
}

func TestSubmit(t *testing.T) {
	t.Run("create clears text immediately", func(t *testing.T) {
		s := stateWith()
		s.Buffer.Text = "hello"

		intent := app.Submit(s)

		assert.Equal(t, app.Intent{Kind: app.IntentCreate, Text: "hello"}, intent)
		assert.Empty(t, s.Buffer.Text)
		assert.Empty(t, s.Notes.Notes(), "collection is never changed on submit")
	})

	t.Run("update keeps buffer until event arrives", func(t *testing.T) {
		s := stateWith(entities.Note{ID: "1", Note: "a"})
		s.Buffer = entities.EditBuffer{ID: "1", Text: "b"}

		intent := app.Submit(s)

		assert.Equal(t, app.Intent{Kind: app.IntentUpdate, ID: "1", Text: "b"}, intent)
		assert.Equal(t, entities.EditBuffer{ID: "1", Text: "b"}, s.Buffer)
		assert.Equal(t, []entities.Note{{ID: "1", Note: "a"}}, s.Notes.Notes())
	})

	t.Run("vanished target falls back to create", func(t *testing.T) {
		s := stateWith(entities.Note{ID: "2", Note: "b"})
		s.Buffer = entities.EditBuffer{ID: "1", Text: "orphan"}

		intent := app.Submit(s)

		assert.Equal(t, app.Intent{Kind: app.IntentCreate, Text: "orphan"}, intent)
		assert.Empty(t, s.Buffer.Text)
	})

	t.Run("empty create is still submitted", func(t *testing.T) {
		s := stateWith()

		intent := app.Submit(s)

		assert.Equal(t, app.IntentCreate, intent.Kind)
		assert.Empty(t, intent.Text)
	})
}

func TestIntentKind_String(t *testing.T) {
	assert.Equal(t, "create", app.IntentCreate.String())
	assert.Equal(t, "update", app.IntentUpdate.String())
	assert.Equal(t, "delete", app.IntentDelete.String())
	assert.Equal(t, "unknown", app.IntentKind(0).String())
}
