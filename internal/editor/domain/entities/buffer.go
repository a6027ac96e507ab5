package entities

// Mode режим формы.
type Mode int

const (
	// ModeCreate цель не выбрана, отправка создает новую заметку.
	ModeCreate Mode = iota
	// ModeEditing выбрана заметка для правки.
	ModeEditing
)

func (m Mode) String() string {
	if m == ModeEditing {
		return "editing"
	}
	return "create"
}

// EditBuffer состояние формы: введенный текст и необязательная цель правки.
type EditBuffer struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Mode возвращает режим по наличию цели.
func (b EditBuffer) Mode() Mode {
	if b.ID == "" {
		return ModeCreate
	}
	return ModeEditing
}

// Clear сбрасывает цель и текст.
func (b *EditBuffer) Clear() {
	b.ID = ""
	b.Text = ""
}
