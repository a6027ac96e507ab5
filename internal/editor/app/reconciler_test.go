package app_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"notetaker/internal/editor/app"
	"notetaker/internal/editor/domain/entities"
	"notetaker/internal/editor/domain/events"
)

func stateWith(notes ...entities.Note) *app.State {
	s := &app.State{}
	s.Seed(notes)
	return s
}

func TestReconcile_Scenarios(t *testing.T) {
	t.Run("update replaces and clears buffer", func(t *testing.T) {
		s := stateWith(entities.Note{ID: "1", Note: "a"})
		s.Buffer = entities.EditBuffer{ID: "1", Text: "b"}

		changed := app.Reconcile(s, events.NoteUpdated(entities.Note{ID: "1", Note: "b"}))

		assert.True(t, changed)
		assert.Equal(t, []entities.Note{{ID: "1", Note: "b"}}, s.Notes.Notes())
		assert.Equal(t, entities.EditBuffer{}, s.Buffer)
	})

	t.Run("delete removes entry", func(t *testing.T) {
		s := stateWith(entities.Note{ID: "1", Note: "a"}, entities.Note{ID: "2", Note: "b"})

		app.Reconcile(s, events.NoteDeleted("1"))

		assert.Equal(t, []entities.Note{{ID: "2", Note: "b"}}, s.Notes.Notes())
	})

	t.Run("repeated create keeps latest content", func(t *testing.T) {
		s := stateWith()

		app.Reconcile(s, events.NoteCreated(entities.Note{ID: "3", Note: "c"}))
		app.Reconcile(s, events.NoteCreated(entities.Note{ID: "3", Note: "c2"}))

		assert.Equal(t, []entities.Note{{ID: "3", Note: "c2"}}, s.Notes.Notes())
	})

	t.Run("delete of unknown id is a no-op", func(t *testing.T) {
		s := stateWith(entities.Note{ID: "1", Note: "a"})

		changed := app.Reconcile(s, events.NoteDeleted("42"))

		assert.False(t, changed)
		assert.Equal(t, []entities.Note{{ID: "1", Note: "a"}}, s.Notes.Notes())
	})

	t.Run("update of unknown id is dropped but clears buffer", func(t *testing.T) {
		s := stateWith(entities.Note{ID: "1", Note: "a"})
		s.Buffer = entities.EditBuffer{ID: "1", Text: "draft"}

		changed := app.Reconcile(s, events.NoteUpdated(entities.Note{ID: "7", Note: "x"}))

		assert.True(t, changed)
		assert.Equal(t, []entities.Note{{ID: "1", Note: "a"}}, s.Notes.Notes())
		assert.Equal(t, entities.EditBuffer{}, s.Buffer)
	})

	t.Run("update of unknown id with empty buffer changes nothing", func(t *testing.T) {
		s := stateWith(entities.Note{ID: "1", Note: "a"})

		assert.False(t, app.Reconcile(s, events.NoteUpdated(entities.Note{ID: "7", Note: "x"})))
	})

	t.Run("delete before create of same id", func(t *testing.T) {
		s := stateWith()

		app.Reconcile(s, events.NoteDeleted("5"))
		app.Reconcile(s, events.NoteCreated(entities.Note{ID: "5", Note: "e"}))

		assert.Equal(t, []entities.Note{{ID: "5", Note: "e"}}, s.Notes.Notes())
	})
}

func idGen() *rapid.Generator[string] {
	return rapid.SampledFrom([]string{"1", "2", "3", "4", "5"})
}

func noteGen() *rapid.Generator[entities.Note] {
	return rapid.Custom(func(t *rapid.T) entities.Note {
		return entities.Note{
			ID:   idGen().Draw(t, "id"),
			Note: rapid.StringMatching(`[a-z]{0,6}`).Draw(t, "note"),
		}
	})
}

func eventGen() *rapid.Generator[events.Event] {
	return rapid.Custom(func(t *rapid.T) events.Event {
		switch rapid.IntRange(0, 2).Draw(t, "kind") {
		case 0:
			return events.NoteCreated(noteGen().Draw(t, "created"))
		case 1:
			return events.NoteUpdated(noteGen().Draw(t, "updated"))
		default:
			return events.NoteDeleted(idGen().Draw(t, "deleted"))
		}
	})
}

func seedState(t *rapid.T) *app.State {
	s := stateWith(rapid.SliceOfN(noteGen(), 0, 5).Draw(t, "seed")...)
	s.Buffer = entities.EditBuffer{
		ID:   rapid.OneOf(rapid.Just(""), idGen()).Draw(t, "bufferID"),
		Text: rapid.StringMatching(`[a-z]{0,4}`).Draw(t, "bufferText"),
	}
	return s
}

func assertUnique(t *rapid.T, s *app.State) {
	seen := map[string]bool{}
	for _, n := range s.Notes.Notes() {
		if seen[n.ID] {
			t.Fatalf("duplicate id %q in %v", n.ID, s.Notes.Notes())
		}
		seen[n.ID] = true
	}
}

func TestReconcile_Properties(t *testing.T) {
	t.Run("uniqueness holds for any event sequence", func(t *testing.T) {
		rapid.Check(t, func(t *rapid.T) {
			s := seedState(t)
			for _, ev := range rapid.SliceOf(eventGen()).Draw(t, "events") {
				app.Reconcile(s, ev)
				assertUnique(t, s)
			}
		})
	})

	t.Run("delete of absent id is a no-op", func(t *testing.T) {
		rapid.Check(t, func(t *rapid.T) {
			s := seedState(t)
			id := idGen().Draw(t, "id")
			s.Notes.Remove(id)
			before := s.Notes.Notes()
			buffer := s.Buffer

			app.Reconcile(s, events.NoteDeleted(id))

			if !assert.ObjectsAreEqual(before, s.Notes.Notes()) || s.Buffer != buffer {
				t.Fatalf("delete of absent %q changed state", id)
			}
		})
	})

	t.Run("create replaces rather than duplicates", func(t *testing.T) {
		rapid.Check(t, func(t *rapid.T) {
			s := seedState(t)
			n := noteGen().Draw(t, "note")
			before := s.Notes.Len()
			existed := s.Notes.Contains(n.ID)

			app.Reconcile(s, events.NoteCreated(n))

			want := before + 1
			if existed {
				want = before
			}
			if s.Notes.Len() != want {
				t.Fatalf("len = %d, want %d", s.Notes.Len(), want)
			}
			if got, _ := s.Notes.Get(n.ID); got != n {
				t.Fatalf("got %v, want %v", got, n)
			}
		})
	})

	t.Run("update keeps position and order", func(t *testing.T) {
		rapid.Check(t, func(t *rapid.T) {
			s := seedState(t)
			before := s.Notes.Notes()
			n := noteGen().Draw(t, "note")
			pos := s.Notes.Index(n.ID)

			app.Reconcile(s, events.NoteUpdated(n))

			after := s.Notes.Notes()
			if len(after) != len(before) {
				t.Fatalf("len changed %d -> %d", len(before), len(after))
			}
			for i := range before {
				want := before[i]
				if i == pos {
					want = n
				}
				if after[i] != want {
					t.Fatalf("position %d: got %v, want %v", i, after[i], want)
				}
			}
		})
	})

	t.Run("buffer cleared after any update", func(t *testing.T) {
		rapid.Check(t, func(t *rapid.T) {
			s := seedState(t)

			app.Reconcile(s, events.NoteUpdated(noteGen().Draw(t, "note")))

			if s.Buffer != (entities.EditBuffer{}) {
				t.Fatalf("buffer not cleared: %+v", s.Buffer)
			}
		})
	})
}
