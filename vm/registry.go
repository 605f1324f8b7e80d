package vm

import (
	"fmt"

	"github.com/solenne/incant/pkg/bytecode"
)

// ComponentFunc is the two-phase implementation of one component. With
// commit=false it is a dry run: it returns the cast's base energy and
// must not touch the spell. With commit=true it applies the effect and
// returns the component's value (NoneValue for components that yield
// nothing usable in expressions).
type ComponentFunc func(s *Spell, args []bytecode.Value, commit bool) (bytecode.Value, float64, error)

// Registry binds component signatures to their implementations. It is
// built once, read-only thereafter, and shared by reference across all
// entities; per-cast state lives on the Spell, never here.
type Registry struct {
	sigs  *bytecode.Signatures
	impls map[bytecode.Word]ComponentFunc
}

// NewRegistry builds a registry from a signature set and a name-keyed
// implementation table. Every signature must have an implementation.
func NewRegistry(sigs *bytecode.Signatures, impls map[string]ComponentFunc) (*Registry, error) {
	r := &Registry{
		sigs:  sigs,
		impls: make(map[bytecode.Word]ComponentFunc, len(impls)),
	}
	for _, name := range sigs.Names() {
		sig, _ := sigs.ByName(name)
		fn, ok := impls[name]
		if !ok {
			return nil, fmt.Errorf("vm: component %s has no implementation", name)
		}
		r.impls[sig.Code] = fn
	}
	return r, nil
}

// StandardRegistry returns the registry for the built-in component set.
func StandardRegistry() *Registry {
	r, err := NewRegistry(bytecode.StandardSignatures(), standardComponents())
	if err != nil {
		// The built-in tables are defined together; a gap is a
		// programming error, not a runtime condition.
		panic(err)
	}
	return r
}

// Signatures returns the static half of the registry.
func (r *Registry) Signatures() *bytecode.Signatures { return r.sigs }

// lookup resolves a component code to its signature and implementation.
func (r *Registry) lookup(code bytecode.Word) (*bytecode.Signature, ComponentFunc, error) {
	sig, ok := r.sigs.ByCode(code)
	if !ok {
		return nil, nil, internalf("unknown component code %d", uint64(code))
	}
	fn, ok := r.impls[code]
	if !ok {
		return nil, nil, internalf("component %s has no implementation", sig.Name)
	}
	return sig, fn, nil
}
