package graphql

// Документы GraphQL схемы заметок. Поле note хранит текст заметки.
const (
	listNotesQuery = `query ListNotes($nextToken: String) {
  listNotes(nextToken: $nextToken) {
    items { id note }
    nextToken
  }
}`

	createNoteMutation = `mutation CreateNote($input: CreateNoteInput!) {
  createNote(input: $input) { id note }
}`

	updateNoteMutation = `mutation UpdateNote($input: UpdateNoteInput!) {
  updateNote(input: $input) { id note }
}`

	deleteNoteMutation = `mutation DeleteNote($input: DeleteNoteInput!) {
  deleteNote(input: $input) { id note }
}`

	onCreateNoteSubscription = `subscription OnCreateNote {
  onCreateNote { id note }
}`

	onUpdateNoteSubscription = `subscription OnUpdateNote {
  onUpdateNote { id note }
}`

	onDeleteNoteSubscription = `subscription OnDeleteNote {
  onDeleteNote { id note }
}`
)

// Имена полей результата.
const (
	fieldListNotes    = "listNotes"
	fieldCreateNote   = "createNote"
	fieldUpdateNote   = "updateNote"
	fieldDeleteNote   = "deleteNote"
	fieldOnCreateNote = "onCreateNote"
	fieldOnUpdateNote = "onUpdateNote"
	fieldOnDeleteNote = "onDeleteNote"
)
