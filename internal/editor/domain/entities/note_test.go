package entities_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"notetaker/internal/editor/domain/entities"
)

func TestNoteCollection_Replace(t *testing.T) {
	c := entities.NewNoteCollection([]entities.Note{
		{ID: "1", Note: "a"},
		{ID: "2", Note: "b"},
		{ID: "1", Note: "a2"},
	})

	assert.Equal(t, []entities.Note{{ID: "1", Note: "a2"}, {ID: "2", Note: "b"}}, c.Notes())
}

func TestNoteCollection_Append(t *testing.T) {
	var c entities.NoteCollection

	c.Append(entities.Note{ID: "1", Note: "a"})
	c.Append(entities.Note{ID: "2", Note: "b"})
	c.Append(entities.Note{ID: "1", Note: "a2"})

	assert.Equal(t, []entities.Note{{ID: "2", Note: "b"}, {ID: "1", Note: "a2"}}, c.Notes())
}

func TestNoteCollection_Remove(t *testing.T) {
	c := entities.NewNoteCollection([]entities.Note{{ID: "1"}, {ID: "2"}, {ID: "3"}})

	assert.True(t, c.Remove("2"))
	assert.False(t, c.Remove("2"))
	assert.Equal(t, []entities.Note{{ID: "1"}, {ID: "3"}}, c.Notes())
}

func TestNoteCollection_ReplaceInPlace(t *testing.T) {
	c := entities.NewNoteCollection([]entities.Note{{ID: "1", Note: "a"}, {ID: "2", Note: "b"}, {ID: "3", Note: "c"}})

	assert.True(t, c.ReplaceInPlace(entities.Note{ID: "2", Note: "B"}))
	assert.False(t, c.ReplaceInPlace(entities.Note{ID: "9", Note: "x"}))
	assert.Equal(t, 1, c.Index("2"))

	n, ok := c.Get("2")
	assert.True(t, ok)
	assert.Equal(t, "B", n.Note)
	assert.Equal(t, 3, c.Len())
}

func TestNoteCollection_NotesIsCopy(t *testing.T) {
	c := entities.NewNoteCollection([]entities.Note{{ID: "1", Note: "a"}})

	notes := c.Notes()
	notes[0].Note = "mutated"

	n, _ := c.Get("1")
	assert.Equal(t, "a", n.Note)
}

func TestEditBuffer_Mode(t *testing.T) {
	b := entities.EditBuffer{ID: "2", Text: "x"}
	assert.Equal(t, entities.ModeEditing, b.Mode())
	assert.Equal(t, "editing", b.Mode().String())

	b.Clear()
	assert.Equal(t, entities.ModeCreate, b.Mode())
	assert.Empty(t, b.Text)
}
