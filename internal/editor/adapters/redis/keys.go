package redis

// keys раскладка ключей шлюза под общим префиксом.
type keys struct {
	notes  string // hash id -> json заметки
	order  string // zset id по порядку создания
	seq    string // счетчик порядка
	create string
	update string
	delete string
}

func newKeys(prefix string) keys {
	return keys{
		notes:  prefix + ":notes",
		order:  prefix + ":order",
		seq:    prefix + ":seq",
		create: prefix + ":events:create",
		update: prefix + ":events:update",
		delete: prefix + ":events:delete",
	}
}
