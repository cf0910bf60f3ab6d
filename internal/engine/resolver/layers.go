package resolver

import "gradledeps/internal/engine/scope"

// Layers are the four property scopes visible to one module's build script.
type Layers struct {
	RootProperties  scope.Scope
	RootExt         scope.Scope
	LocalProperties scope.Scope
	LocalExt        scope.Scope
}

// Chain merges the layers with precedence
// root properties < root ext < local properties < local ext.
func (l Layers) Chain() scope.Chain {
	return scope.NewChain(
		scope.Layer{Name: "rootProperties", Scope: l.RootProperties},
		scope.Layer{Name: "rootExt", Scope: l.RootExt},
		scope.Layer{Name: "localProperties", Scope: l.LocalProperties},
		scope.Layer{Name: "localExt", Scope: l.LocalExt},
	)
}

// Stages is the lookup order for version placeholders: the merged chain,
// then local properties, then root properties.
func (l Layers) Stages() []Stage {
	return []Stage{
		{Name: "merged", Lookup: l.Chain()},
		{Name: "localProperties", Lookup: nilSafe(l.LocalProperties)},
		{Name: "rootProperties", Lookup: nilSafe(l.RootProperties)},
	}
}

// ForModule builds a resolver over the module's layers.
func ForModule(l Layers) *Resolver {
	return New(l.Stages()...)
}

func nilSafe(s scope.Scope) scope.Scope {
	if s == nil {
		return scope.New()
	}
	return s
}
