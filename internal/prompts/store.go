package prompts

import (
	"fmt"
	"sort"
	"sync"

	pkgerrors "github.com/yungbote/relocation-intake/internal/pkg/errors"
)

// Store is the prompt/config repository. It is built once at start and passed to
// whatever renders prompts.
type Store interface {
	Get(name PromptName) (Template, error)
	Put(t Template) error
	List() []Template
}

type memoryStore struct {
	mu        sync.RWMutex
	templates map[PromptName]Template
}

// NewMemoryStore returns a Store holding ts. Later entries replace earlier ones by name.
func NewMemoryStore(ts ...Template) (Store, error) {
	s := &memoryStore{templates: make(map[PromptName]Template, len(ts))}
	for _, t := range ts {
		if err := s.Put(t); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *memoryStore) Get(name PromptName) (Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.templates[name]
	if !ok {
		return Template{}, fmt.Errorf("prompt %s: %w", name, pkgerrors.ErrNotFound)
	}
	return t, nil
}

func (s *memoryStore) Put(t Template) error {
	if err := t.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.templates[t.Name] = t
	s.mu.Unlock()
	return nil
}

func (s *memoryStore) List() []Template {
	s.mu.RLock()
	out := make([]Template, 0, len(s.templates))
	for _, t := range s.templates {
		out = append(out, t)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// RequireAll checks that every name resolves in s.
func RequireAll(s Store, names ...PromptName) error {
	for _, n := range names {
		if _, err := s.Get(n); err != nil {
			return err
		}
	}
	return nil
}
