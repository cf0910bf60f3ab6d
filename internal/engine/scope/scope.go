// Package scope holds the symbol tables used to resolve version placeholders:
// flat property scopes and explicit, ordered chains of them.
package scope

import "strings"

// Value is either a scalar string or an ordered list of strings.
type Value struct {
	text  string
	items []string
	list  bool
}

func Scalar(s string) Value {
	return Value{text: s}
}

func List(items ...string) Value {
	out := make([]string, len(items))
	copy(out, items)
	return Value{items: out, list: true}
}

func (v Value) IsList() bool { return v.list }

// String returns the scalar text, or the list items joined with ", ".
func (v Value) String() string {
	if v.list {
		return strings.Join(v.items, ", ")
	}
	return v.text
}

func (v Value) Items() []string {
	if !v.list {
		return []string{v.text}
	}
	out := make([]string, len(v.items))
	copy(out, v.items)
	return out
}

// Lookup is implemented by anything that can answer a key query.
type Lookup interface {
	Lookup(key string) (Value, bool)
}

// Scope is a flat identifier -> value table.
type Scope map[string]Value

func New() Scope {
	return make(Scope)
}

func (s Scope) Lookup(key string) (Value, bool) {
	v, ok := s[key]
	return v, ok
}

func (s Scope) Set(key, value string) {
	s[key] = Scalar(value)
}

// Merge copies every entry of other into s, overwriting on collision.
func (s Scope) Merge(other Scope) {
	for k, v := range other {
		s[k] = v
	}
}

func (s Scope) Len() int { return len(s) }

// Layer is a named scope inside a Chain.
type Layer struct {
	Name  string
	Scope Scope
}

// Chain is an ordered list of layers. Later layers take precedence over
// earlier ones, so Lookup walks the chain from the end.
type Chain struct {
	layers []Layer
}

func NewChain(layers ...Layer) Chain {
	out := make([]Layer, 0, len(layers))
	for _, l := range layers {
		if l.Scope == nil {
			l.Scope = New()
		}
		out = append(out, l)
	}
	return Chain{layers: out}
}

func (c Chain) Lookup(key string) (Value, bool) {
	v, _, ok := c.LookupLayer(key)
	return v, ok
}

// LookupLayer also reports which layer answered.
func (c Chain) LookupLayer(key string) (Value, string, bool) {
	for i := len(c.layers) - 1; i >= 0; i-- {
		if v, ok := c.layers[i].Scope[key]; ok {
			return v, c.layers[i].Name, true
		}
	}
	return Value{}, "", false
}

// flatten merges the chain into one scope, honoring precedence.
func (c Chain) flatten() Scope {
	out := New()
	for _, l := range c.layers {
		out.Merge(l.Scope)
	}
	return out
}

func (c Chain) layerList() []Layer {
	out := make([]Layer, len(c.layers))
	copy(out, c.layers)
	return out
}
