package resolver

import (
	"fmt"
	"regexp"
	"strings"

	domainerrors "gradledeps/internal/core/errors"
	"gradledeps/internal/engine/scope"
)

// placeholderPattern matches ${a.b.c} and bare $a.b.c references. A dot
// only joins the name when a word follows it, so "$major.$minor" holds two
// placeholders.
var placeholderPattern = regexp.MustCompile(`\$\{?(\w+(?:\.\w+)*)\}?`)

// Stage is one named lookup attempted while resolving a placeholder.
type Stage struct {
	Name   string
	Lookup scope.Lookup
}

// Unresolved describes a placeholder that no stage could answer. Its literal
// text is left in the resolved version.
type Unresolved struct {
	Expression  string
	Placeholder string
	Key         string
}

// Resolver substitutes placeholders in version expressions. Stages are tried
// in the order given; the first stage that knows the key wins.
type Resolver struct {
	stages       []Stage
	onUnresolved func(Unresolved)
}

func New(stages ...Stage) *Resolver {
	return &Resolver{stages: append([]Stage{}, stages...)}
}

// WithUnresolvedHook registers a callback for placeholders left unresolved.
func (r *Resolver) WithUnresolvedHook(fn func(Unresolved)) *Resolver {
	r.onUnresolved = fn
	return r
}

// Resolve replaces every placeholder in expr. The lookup key is the last dot
// segment of the referenced name, so ${rootProject.ext.kotlinVersion} looks
// up "kotlinVersion". A placeholder bound to a list value is an error.
func (r *Resolver) Resolve(expr string) (string, error) {
	if !strings.Contains(expr, "$") {
		return expr, nil
	}

	var resolveErr error
	out := placeholderPattern.ReplaceAllStringFunc(expr, func(match string) string {
		if resolveErr != nil {
			return match
		}
		sub := placeholderPattern.FindStringSubmatch(match)
		key := lastSegment(sub[1])

		value, stage, ok := r.lookup(key)
		if !ok {
			if r.onUnresolved != nil {
				r.onUnresolved(Unresolved{Expression: expr, Placeholder: match, Key: key})
			}
			return match
		}
		if value.IsList() {
			de := &domainerrors.DomainError{
				Code:    domainerrors.CodeResolution,
				Message: fmt.Sprintf("cannot resolve variable %s as it maps to a list", key),
			}
			resolveErr = de.WithContext(domainerrors.CtxPlaceholder, match).WithContext("stage", stage)
			return match
		}
		return value.String()
	})
	if resolveErr != nil {
		return "", resolveErr
	}
	return out, nil
}

func (r *Resolver) lookup(key string) (scope.Value, string, bool) {
	for _, stage := range r.stages {
		if stage.Lookup == nil {
			continue
		}
		if v, ok := stage.Lookup.Lookup(key); ok {
			return v, stage.Name, true
		}
	}
	return scope.Value{}, "", false
}

// Placeholders lists the placeholder texts found in expr, in order.
func Placeholders(expr string) []string {
	return placeholderPattern.FindAllString(expr, -1)
}

func lastSegment(name string) string {
	if idx := strings.LastIndex(name, "."); idx != -1 {
		return name[idx+1:]
	}
	return name
}
