package exchange

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Factory builds a ready to use Exchange.
type Factory func(Options) (Exchange, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// Register makes an exchange available under id. It panics when id is
// registered twice.
func Register(id string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()

	id = normalizeID(id)
	if _, dup := registry[id]; dup {
		panic("exchange: Register called twice for " + id)
	}
	registry[id] = f
}

// IDs returns every registered exchange id, sorted.
func IDs() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	out := make([]string, 0, len(registry))
	for id := range registry {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// New resolves id to a live Exchange.
func New(id string, opts Options) (Exchange, error) {
	registryMu.RLock()
	f, ok := registry[normalizeID(id)]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownExchange, id)
	}
	return f(opts)
}

func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
