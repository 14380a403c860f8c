package headers

import (
	"net/http"
	"strings"
	"sync"
)

// Headers preserves the order of request headers, keeps every value of a
// repeated header and handles case-insensitive lookups
type Headers struct {
	mu      sync.RWMutex
	entries []Header         // Preserves arrival order
	index   map[string][]int // Lowercase name -> positions in entries
}

// Header represents a single header name-value pair
type Header struct {
	Name  string
	Value string
}

// New creates an empty Headers instance
func New() *Headers {
	return &Headers{
		entries: make([]Header, 0, 8),
		index:   make(map[string][]int),
	}
}

// FromHTTP copies a net/http header map. Map order is not defined, so
// the relative order of different names is not preserved.
func FromHTTP(src http.Header) *Headers {
	h := New()
	for name, values := range src {
		for _, value := range values {
			h.Add(name, value)
		}
	}
	return h
}

// Add appends a value, keeping earlier values of the same name
func (h *Headers) Add(name, value string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.addUnsafe(name, value)
}

func (h *Headers) addUnsafe(name, value string) {
	lowerName := strings.ToLower(name)
	h.index[lowerName] = append(h.index[lowerName], len(h.entries))
	h.entries = append(h.entries, Header{Name: name, Value: value})
}

// Set replaces every value of name. The header keeps the position of its
// first occurrence, or is appended when new.
func (h *Headers) Set(name, value string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	lowerName := strings.ToLower(name)
	positions, exists := h.index[lowerName]
	if !exists {
		h.addUnsafe(name, value)
		return
	}

	first := positions[0]
	h.entries[first] = Header{Name: name, Value: value}
	if len(positions) > 1 {
		h.removeUnsafe(func(i int, e Header) bool {
			return i != first && strings.EqualFold(e.Name, lowerName)
		})
	}
}

// Get returns the first value of name, or "" when absent
func (h *Headers) Get(name string) string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	positions := h.index[strings.ToLower(name)]
	if len(positions) == 0 {
		return ""
	}
	return h.entries[positions[0]].Value
}

// Values returns every value of name in arrival order
func (h *Headers) Values(name string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	positions := h.index[strings.ToLower(name)]
	if len(positions) == 0 {
		return nil
	}
	values := make([]string, len(positions))
	for i, p := range positions {
		values[i] = h.entries[p].Value
	}
	return values
}

// Joined returns every value of name joined with ", ", which is how a
// list-valued header split over several lines is read (RFC 9110 5.3).
// ok is false when the header is absent.
func (h *Headers) Joined(name string) (value string, ok bool) {
	values := h.Values(name)
	if values == nil {
		return "", false
	}
	return strings.Join(values, ", "), true
}

// Has checks if header exists (case-insensitive)
func (h *Headers) Has(name string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	_, exists := h.index[strings.ToLower(name)]
	return exists
}

// Del removes every value of name
func (h *Headers) Del(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	lowerName := strings.ToLower(name)
	if _, exists := h.index[lowerName]; !exists {
		return
	}
	h.removeUnsafe(func(_ int, e Header) bool {
		return strings.EqualFold(e.Name, lowerName)
	})
}

// removeUnsafe drops matching entries and rebuilds the index
func (h *Headers) removeUnsafe(drop func(int, Header) bool) {
	kept := h.entries[:0]
	for i, e := range h.entries {
		if !drop(i, e) {
			kept = append(kept, e)
		}
	}
	h.entries = kept

	h.index = make(map[string][]int, len(h.index))
	for i, e := range h.entries {
		lowerName := strings.ToLower(e.Name)
		h.index[lowerName] = append(h.index[lowerName], i)
	}
}

// All returns a copy of every header in arrival order
func (h *Headers) All() []Header {
	h.mu.RLock()
	defer h.mu.RUnlock()

	result := make([]Header, len(h.entries))
	copy(result, h.entries)
	return result
}

// Len returns the number of header lines
func (h *Headers) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.entries)
}
