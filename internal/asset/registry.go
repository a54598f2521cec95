package asset

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/fd1az/xrpl-liquidity/internal/apperror"
)

type listing struct {
	asset Asset
	name  string
}

// Registry is a thread-safe map of human aliases to ledger assets.
type Registry struct {
	byAlias map[string]listing
	byAsset map[Asset]string // asset -> display name
	mu      sync.RWMutex
}

// NewRegistry creates a new empty asset registry.
func NewRegistry() *Registry {
	return &Registry{
		byAlias: make(map[string]listing),
		byAsset: make(map[Asset]string),
	}
}

// Register adds an alias. Aliases are case-insensitive.
// Panics if the alias is already registered.
func (r *Registry) Register(alias string, a Asset, name string) {
	key := strings.ToUpper(alias)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byAlias[key]; exists {
		panic(fmt.Sprintf("asset: alias %s already registered", alias))
	}
	r.byAlias[key] = listing{asset: a, name: name}
	if _, named := r.byAsset[a]; !named {
		r.byAsset[a] = name
	}
}

// Get retrieves an asset by alias.
func (r *Registry) Get(alias string) (Asset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.byAlias[strings.ToUpper(alias)]
	return l.asset, ok
}

// MustGet retrieves an asset by alias, panics if not found.
func (r *Registry) MustGet(alias string) Asset {
	a, ok := r.Get(alias)
	if !ok {
		panic(fmt.Sprintf("asset: alias %s not found in registry", alias))
	}
	return a
}

// Resolve accepts an alias or a literal "XRP" / "CODE.issuer" asset.
func (r *Registry) Resolve(s string) (Asset, error) {
	if a, ok := r.Get(strings.TrimSpace(s)); ok {
		return a, nil
	}
	a, err := ParseAsset(s)
	if err != nil {
		return Asset{}, apperror.Wrap(err, apperror.CodeInvalidAsset, "unknown alias or malformed asset "+s)
	}
	return a, nil
}

// Name returns the display name of a, falling back to its currency code.
func (r *Registry) Name(a Asset) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if name, ok := r.byAsset[a]; ok && name != "" {
		return name
	}
	return a.Currency
}

// Aliases returns every registered alias, sorted.
func (r *Registry) Aliases() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]string, 0, len(r.byAlias))
	for alias := range r.byAlias {
		result = append(result, alias)
	}
	sort.Strings(result)
	return result
}

// Count returns the number of registered aliases.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byAlias)
}
