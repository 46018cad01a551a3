package store

import (
	"fmt"
	"io"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/spetr/vuexref/pkg/types"
)

// Outline is a YAML-friendly view of a store model grouped by namespace.
type Outline struct {
	Modules    []OutlineModule    `yaml:"modules,omitempty"`
	Namespaces []OutlineNamespace `yaml:"namespaces"`
}

// OutlineModule describes one registered module.
type OutlineModule struct {
	Namespace  string `yaml:"namespace"`
	StatePath  string `yaml:"state_path"`
	Namespaced bool   `yaml:"namespaced"`
	File       string `yaml:"file"`
}

// OutlineNamespace lists the symbol names declared under a namespace.
type OutlineNamespace struct {
	Namespace string   `yaml:"namespace"`
	State     []string `yaml:"state,omitempty"`
	Getters   []string `yaml:"getters,omitempty"`
	Mutations []string `yaml:"mutations,omitempty"`
	Actions   []string `yaml:"actions,omitempty"`
}

// NewOutline groups the model by namespace. Detached module ranges are
// omitted.
func NewOutline(model *types.StoreModel) *Outline {
	out := &Outline{}
	for _, m := range model.Modules {
		if m.Detached {
			continue
		}
		out.Modules = append(out.Modules, OutlineModule{
			Namespace:  m.Namespace,
			StatePath:  m.StatePath,
			Namespaced: m.Namespaced,
			File:       m.FilePath,
		})
	}

	byNS := make(map[string]*OutlineNamespace)
	for _, sym := range model.Symbols {
		ns, ok := byNS[sym.Namespace]
		if !ok {
			ns = &OutlineNamespace{Namespace: sym.Namespace}
			byNS[sym.Namespace] = ns
		}
		switch sym.Kind {
		case types.SymbolKindState:
			ns.State = append(ns.State, sym.Name)
		case types.SymbolKindGetter:
			ns.Getters = append(ns.Getters, sym.Name)
		case types.SymbolKindMutation:
			ns.Mutations = append(ns.Mutations, sym.Name)
		case types.SymbolKindAction:
			ns.Actions = append(ns.Actions, sym.Name)
		}
	}

	keys := make([]string, 0, len(byNS))
	for k := range byNS {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out.Namespaces = append(out.Namespaces, *byNS[k])
	}
	return out
}

// WriteYAML writes the outline of model to w.
func WriteYAML(w io.Writer, model *types.StoreModel) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(NewOutline(model)); err != nil {
		return fmt.Errorf("failed to encode store outline: %w", err)
	}
	return enc.Close()
}
