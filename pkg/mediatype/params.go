package mediatype

import (
	"strings"

	"github.com/WhileEndless/go-conneg/pkg/quality"
)

// Param is a single name=value parameter
type Param struct {
	Name  string
	Value string
}

// Params preserves parameter order. Values are read-only once parsed.
// Names keep their original case; lookups are exact except for the
// reserved quality parameters q and qs, which match case-insensitively.
type Params struct {
	list []Param
}

// NewParams builds Params from name/value pairs. A repeated name keeps its
// first position and takes the last value.
func NewParams(pairs ...Param) Params {
	var p Params
	for _, pair := range pairs {
		p = p.with(pair.Name, pair.Value)
	}
	return p
}

func (p Params) with(name, value string) Params {
	if i := p.index(name); i >= 0 {
		list := p.clone()
		list[i].Value = value
		return Params{list: list}
	}
	list := append(p.clone(), Param{Name: name, Value: value})
	return Params{list: list}
}

func (p Params) clone() []Param {
	if len(p.list) == 0 {
		return nil
	}
	out := make([]Param, len(p.list), len(p.list)+1)
	copy(out, p.list)
	return out
}

func (p Params) index(name string) int {
	reserved := quality.IsQualityParam(name)
	for i, param := range p.list {
		if param.Name == name || reserved && strings.EqualFold(param.Name, name) {
			return i
		}
	}
	return -1
}

// Get retrieves a parameter value
func (p Params) Get(name string) string {
	if i := p.index(name); i >= 0 {
		return p.list[i].Value
	}
	return ""
}

// Lookup retrieves a parameter value and whether it was present
func (p Params) Lookup(name string) (string, bool) {
	if i := p.index(name); i >= 0 {
		return p.list[i].Value, true
	}
	return "", false
}

// Has checks if a parameter exists
func (p Params) Has(name string) bool {
	return p.index(name) >= 0
}

// Len returns the number of parameters
func (p Params) Len() int {
	return len(p.list)
}

// All returns a copy of the parameters in their original order
func (p Params) All() []Param {
	out := make([]Param, len(p.list))
	copy(out, p.list)
	return out
}

// Names returns parameter names in their original order
func (p Params) Names() []string {
	names := make([]string, len(p.list))
	for i, param := range p.list {
		names[i] = param.Name
	}
	return names
}

// Map returns the parameters as a map, for callers that do not need order
func (p Params) Map() map[string]string {
	m := make(map[string]string, len(p.list))
	for _, param := range p.list {
		m[param.Name] = param.Value
	}
	return m
}

// Without returns a copy of p with the named parameters removed
func (p Params) Without(names ...string) Params {
	if len(p.list) == 0 {
		return p
	}
	var out []Param
	for _, param := range p.list {
		drop := false
		for _, name := range names {
			if param.Name == name || quality.IsQualityParam(name) && strings.EqualFold(param.Name, name) {
				drop = true
				break
			}
		}
		if !drop {
			out = append(out, param)
		}
	}
	return Params{list: out}
}

// Equal reports whether both lists hold the same parameters in the same order
func (p Params) Equal(o Params) bool {
	if len(p.list) != len(o.list) {
		return false
	}
	for i := range p.list {
		if p.list[i] != o.list[i] {
			return false
		}
	}
	return true
}
