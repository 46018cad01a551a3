// Package builtin registers all built-in providers with the default registry.
package builtin

import (
	"fmt"

	"github.com/spetr/vuexref/builtin/storeindex/memory"
	"github.com/spetr/vuexref/builtin/storeindex/sqlite"
	"github.com/spetr/vuexref/pkg/plugin/host"
	"github.com/spetr/vuexref/pkg/plugin/shared"
	"github.com/spetr/vuexref/pkg/provider"
	"github.com/spetr/vuexref/pkg/types"
)

func init() {
	provider.RegisterStoreIndex("memory", func(cfg provider.StoreIndexConfig) (provider.StoreIndex, error) {
		return memory.New(), nil
	})

	provider.RegisterStoreIndex("sqlite", func(cfg provider.StoreIndexConfig) (provider.StoreIndex, error) {
		return sqlite.New(), nil
	})

	// External store indexes run as go-plugin processes.
	provider.RegisterStoreIndex("plugin", func(cfg provider.StoreIndexConfig) (provider.StoreIndex, error) {
		if cfg.Plugin == "" {
			return nil, fmt.Errorf("%w: plugin store index requires index_store.plugin", types.ErrInvalidConfig)
		}
		m := host.NewManager(cfg.PluginDir)
		loaded, err := m.LoadPlugin(cfg.Plugin, shared.PluginTypeStoreIndex)
		if err != nil {
			return nil, err
		}
		return host.NewStoreIndexAdapter(loaded.StoreIndex, func() error {
			return m.Release(cfg.Plugin)
		}), nil
	})
}
