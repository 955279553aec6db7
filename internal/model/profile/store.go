package profile

// Store exposes profile lookup for handlers and the chat service.
type Store interface {
	List() []Profile
	FindByID(id string) (Profile, bool)
	Default() Profile
}

// MemoryStore keeps the fixed profile list in memory. It is read-only after construction.
type MemoryStore struct {
	items []Profile
	byID  map[string]int
}

// NewMemoryStore returns a MemoryStore preloaded with items; the first item is the default.
func NewMemoryStore(items []Profile) *MemoryStore {
	s := &MemoryStore{
		items: append([]Profile(nil), items...),
		byID:  make(map[string]int, len(items)),
	}
	for i, item := range s.items {
		if _, dup := s.byID[item.ID]; !dup {
			s.byID[item.ID] = i
		}
	}
	return s
}

func (s *MemoryStore) List() []Profile {
	return append([]Profile(nil), s.items...)
}

func (s *MemoryStore) FindByID(id string) (Profile, bool) {
	i, ok := s.byID[id]
	if !ok {
		return Profile{}, false
	}
	return s.items[i], true
}

// Default returns the first profile, or the zero Profile when the store is empty.
func (s *MemoryStore) Default() Profile {
	if len(s.items) == 0 {
		return Profile{}
	}
	return s.items[0]
}
