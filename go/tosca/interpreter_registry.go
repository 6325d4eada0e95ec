// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package tosca

import (
	"fmt"
	"strings"
	"sync"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// InterpreterFactory creates an Interpreter from an implementation specific
// configuration. A nil configuration selects the default.
type InterpreterFactory func(config any) (Interpreter, error)

// InterpreterVariant is a named interpreter configuration offered by an
// implementation package. Variants are registered during package
// initialization, so importing an implementation makes its variants available.
type InterpreterVariant struct {
	Name        string // lookup key, not case-sensitive
	Description string // one line shown in variant listings
	Factory     InterpreterFactory
}

type variantRegistry struct {
	mutex    sync.Mutex
	variants map[string]InterpreterVariant
}

var interpreters = variantRegistry{variants: map[string]InterpreterVariant{}}

func (r *variantRegistry) register(variant InterpreterVariant) error {
	variant.Name = strings.ToLower(variant.Name)
	if variant.Name == "" || strings.ContainsAny(variant.Name, " \t\n") {
		return fmt.Errorf("invalid variant name %q", variant.Name)
	}
	if variant.Factory == nil {
		return fmt.Errorf("variant %s has no factory", variant.Name)
	}
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if _, found := r.variants[variant.Name]; found {
		return fmt.Errorf("variant %s is already registered", variant.Name)
	}
	r.variants[variant.Name] = variant
	return nil
}

func (r *variantRegistry) lookup(name string) (InterpreterVariant, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	variant, found := r.variants[strings.ToLower(name)]
	return variant, found
}

func (r *variantRegistry) list() []InterpreterVariant {
	r.mutex.Lock()
	variants := maps.Values(r.variants)
	r.mutex.Unlock()
	slices.SortFunc(variants, func(a, b InterpreterVariant) int {
		return strings.Compare(a.Name, b.Name)
	})
	return variants
}

// RegisterInterpreter makes the given variant available to NewInterpreter.
// Names must be non-empty, free of white space and unique.
func RegisterInterpreter(variant InterpreterVariant) error {
	return interpreters.register(variant)
}

// GetInterpreterVariant looks up a registered variant by name.
func GetInterpreterVariant(name string) (InterpreterVariant, bool) {
	return interpreters.lookup(name)
}

// GetAllRegisteredInterpreters lists all registered variants sorted by name.
func GetAllRegisteredInterpreters() []InterpreterVariant {
	return interpreters.list()
}

// NewInterpreter creates an instance of the named variant. At most one
// configuration may be passed on to the variant's factory.
func NewInterpreter(name string, config ...any) (Interpreter, error) {
	if len(config) > 1 {
		return nil, fmt.Errorf("expected at most one configuration, got %d", len(config))
	}
	variant, found := interpreters.lookup(name)
	if !found {
		return nil, fmt.Errorf("unknown interpreter variant: %s", name)
	}
	var c any
	if len(config) == 1 {
		c = config[0]
	}
	return variant.Factory(c)
}
