package catalog

// Store exposes the closed set of models a session may select.
type Store interface {
	List() []Option
	FindByID(id string) (Option, bool)
	Default() Option
}

// MemoryStore implements Store with an in-memory slice.
type MemoryStore struct {
	items       []Option
	defaultItem Option
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied options.
// defaultID falls back to the first option when it is not listed.
func NewMemoryStore(items []Option, defaultID string) *MemoryStore {
	s := &MemoryStore{items: append([]Option(nil), items...)}
	if opt, ok := s.FindByID(defaultID); ok {
		s.defaultItem = opt
	} else if len(s.items) > 0 {
		s.defaultItem = s.items[0]
	}
	return s
}

// List returns the selectable models in display order.
func (s *MemoryStore) List() []Option {
	return append([]Option(nil), s.items...)
}

// FindByID looks up a model by identifier.
func (s *MemoryStore) FindByID(id string) (Option, bool) {
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return Option{}, false
}

// Default returns the model preselected for new sessions.
func (s *MemoryStore) Default() Option {
	return s.defaultItem
}
