package renewal

import "sync"

// MemoryStore keeps the token in process memory.
type MemoryStore struct {
	mu  sync.Mutex
	tok Token
	ok  bool
}

func NewMemoryStore(tok Token) *MemoryStore {
	return &MemoryStore{tok: tok, ok: tok.Value != ""}
}

func (m *MemoryStore) Load() (Token, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tok, m.ok
}

func (m *MemoryStore) Save(t Token) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tok, m.ok = t, t.Value != ""
}

func (m *MemoryStore) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tok, m.ok = Token{}, false
}
