// Package entities описывает доменные сущности редактора заметок.
package entities

// Note заметка. Идентификатор назначает бэкенд, клиент его никогда не создает.
type Note struct {
	ID   string `json:"id"`
	Note string `json:"note"`
}

// NoteCollection упорядоченный список заметок, не более одной на идентификатор.
// Нулевое значение готово к использованию.
type NoteCollection struct {
	items []Note
}

// NewNoteCollection строит коллекцию из среза. При повторе идентификатора
// остается последняя запись на позиции первой.
func NewNoteCollection(notes []Note) NoteCollection {
	var c NoteCollection
	c.Replace(notes)
	return c
}

// Replace целиком заменяет содержимое коллекции.
func (c *NoteCollection) Replace(notes []Note) {
	items := make([]Note, 0, len(notes))
	seen := make(map[string]int, len(notes))
	for _, n := range notes {
		if i, ok := seen[n.ID]; ok {
			items[i] = n
			continue
		}
		seen[n.ID] = len(items)
		items = append(items, n)
	}
	c.items = items
}

// Index позиция заметки с идентификатором id или -1.
func (c *NoteCollection) Index(id string) int {
	for i := range c.items {
		if c.items[i].ID == id {
			return i
		}
	}
	return -1
}

// Contains сообщает, есть ли заметка с идентификатором id.
func (c *NoteCollection) Contains(id string) bool {
	return c.Index(id) >= 0
}

// Get возвращает заметку по идентификатору.
func (c *NoteCollection) Get(id string) (Note, bool) {
	if i := c.Index(id); i >= 0 {
		return c.items[i], true
	}
	return Note{}, false
}

// Append удаляет запись с тем же идентификатором, если она есть, и добавляет note в конец.
func (c *NoteCollection) Append(note Note) {
	c.Remove(note.ID)
	c.items = append(c.items, note)
}

// Remove удаляет запись с идентификатором id. Отсутствие записи не ошибка.
func (c *NoteCollection) Remove(id string) bool {
	i := c.Index(id)
	if i < 0 {
		return false
	}
	c.items = append(c.items[:i:i], c.items[i+1:]...)
	return true
}

// ReplaceInPlace заменяет запись с тем же идентификатором, сохраняя позицию.
// Возвращает false, если такой записи нет.
func (c *NoteCollection) ReplaceInPlace(note Note) bool {
	i := c.Index(note.ID)
	if i < 0 {
		return false
	}
	c.items[i] = note
	return true
}

// Len количество заметок.
func (c *NoteCollection) Len() int {
	return len(c.items)
}

// Notes копия содержимого.
func (c *NoteCollection) Notes() []Note {
	out := make([]Note, len(c.items))
	copy(out, c.items)
	return out
}
