// Package host loads store index plugins and adapts them to
// provider.StoreIndex.
package host

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"

	"github.com/spetr/vuexref/pkg/plugin/shared"
	"github.com/spetr/vuexref/pkg/types"
)

// Manager starts plugin executables found in one directory and keeps their
// processes until they are released.
type Manager struct {
	pluginsDir string
	logger     hclog.Logger

	mu      sync.Mutex
	plugins map[string]*LoadedPlugin
}

// LoadedPlugin is a running plugin process and the provider it dispensed.
type LoadedPlugin struct {
	Name       string
	Type       shared.PluginType
	Path       string
	Client     *plugin.Client
	StoreIndex shared.StoreIndexProvider
}

// NewManager creates a manager for the executables in pluginsDir.
func NewManager(pluginsDir string) *Manager {
	return &Manager{
		pluginsDir: pluginsDir,
		plugins:    make(map[string]*LoadedPlugin),
		// go-plugin only logs through hclog.
		logger: hclog.New(&hclog.LoggerOptions{
			Name:   "plugins",
			Level:  hclog.Warn,
			Output: os.Stderr,
		}),
	}
}

// DiscoverPlugins returns the sorted names of executable files in the
// plugins directory. A missing directory is not an error.
func (m *Manager) DiscoverPlugins() ([]string, error) {
	entries, err := os.ReadDir(m.pluginsDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read plugins directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.Mode()&0111 == 0 {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// LoadPlugin starts the named executable and dispenses a provider of
// pluginType. Loading an already running plugin returns it unchanged.
func (m *Manager) LoadPlugin(name string, pluginType shared.PluginType) (*LoadedPlugin, error) {
	if pluginType != shared.PluginTypeStoreIndex {
		return nil, fmt.Errorf("unsupported plugin type: %s", pluginType)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if p, ok := m.plugins[name]; ok {
		return p, nil
	}

	path := filepath.Join(m.pluginsDir, name)
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: plugin %s", types.ErrNotFound, name)
	}

	slog.Info("loading plugin", "name", name, "type", pluginType, "path", path)

	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig:  shared.Handshake,
		Plugins:          shared.PluginMap,
		Cmd:              exec.Command(path),
		Logger:           m.logger,
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolNetRPC},
	})

	index, err := dispenseStoreIndex(client, pluginType)
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("%w: %s: %v", types.ErrPluginFailed, name, err)
	}

	loaded := &LoadedPlugin{
		Name:       name,
		Type:       pluginType,
		Path:       path,
		Client:     client,
		StoreIndex: index,
	}
	m.plugins[name] = loaded
	slog.Info("plugin loaded", "name", name, "provider", index.Name())

	return loaded, nil
}

func dispenseStoreIndex(client *plugin.Client, pluginType shared.PluginType) (shared.StoreIndexProvider, error) {
	rpcClient, err := client.Client()
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	raw, err := rpcClient.Dispense(string(pluginType))
	if err != nil {
		return nil, fmt.Errorf("failed to dispense: %w", err)
	}
	index, ok := raw.(shared.StoreIndexProvider)
	if !ok {
		return nil, fmt.Errorf("dispensed %T, not a store index", raw)
	}
	return index, nil
}

// Loaded returns a running plugin.
func (m *Manager) Loaded(name string) (*LoadedPlugin, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.plugins[name]
	return p, ok
}

// Release stops the plugin process without calling into the provider.
// Used after the provider was closed through its adapter.
func (m *Manager) Release(name string) error {
	m.mu.Lock()
	p, ok := m.plugins[name]
	delete(m.plugins, name)
	m.mu.Unlock()

	if !ok {
		return nil
	}
	p.Client.Kill()
	slog.Debug("plugin released", "name", name)
	return nil
}

// UnloadPlugin closes the provider and stops the plugin process.
func (m *Manager) UnloadPlugin(name string) error {
	p, ok := m.Loaded(name)
	if !ok {
		return nil
	}

	var closeErr error
	if p.StoreIndex != nil {
		closeErr = p.StoreIndex.Close()
	}
	if err := m.Release(name); err != nil {
		return err
	}
	if closeErr != nil {
		return fmt.Errorf("%w: close %s: %v", types.ErrPluginFailed, name, closeErr)
	}
	return nil
}
