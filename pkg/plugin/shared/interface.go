// Package shared defines shared interfaces and types for external plugins.
package shared

import (
	"net/rpc"

	"github.com/hashicorp/go-plugin"

	"github.com/spetr/vuexref/pkg/types"
)

// Handshake is a common handshake that is shared by plugin and host.
// Prevents plugins compiled with different versions from running.
var Handshake = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "VUEXREF_PLUGIN",
	MagicCookieValue: "vuexref-v1",
}

// PluginType identifies the type of plugin.
type PluginType string

const (
	PluginTypeStoreIndex PluginType = "storeindex"
)

// PluginMap is the map of plugins we can dispense.
var PluginMap = map[string]plugin.Plugin{
	string(PluginTypeStoreIndex): &StoreIndexPlugin{},
}

// StoreIndexProvider is the interface that store index plugins must
// implement. It mirrors pkg/provider.StoreIndex but reports every failure
// so errors survive the process boundary.
type StoreIndexProvider interface {
	Name() string
	Init(path string) error
	Load(model *types.StoreModel) error
	Lookup(namespace, name string, kind types.SymbolKind) (*types.StoreSymbol, bool, error)
	HasNamespace(namespace string, kind types.SymbolKind) (bool, error)
	ModuleNamespace(filePath string, offset uint32, kind types.SymbolKind) (string, bool, error)
	StatePath(namespace string) (string, bool, error)
	Symbols(filter types.SymbolFilter) ([]*types.StoreSymbol, error)
	Modules() ([]*types.StoreModule, error)
	GetMetadata() (*types.IndexMetadata, error)
	SetMetadata(meta *types.IndexMetadata) error
	GetStats() (*types.IndexStats, error)
	GetAllFileHashes() (map[string]string, error)
	SetFileHashes(hashes map[string]string) error
	Close() error
}

// StoreIndexPlugin is the plugin.Plugin implementation for store indexes.
type StoreIndexPlugin struct {
	Impl StoreIndexProvider
}

func (p *StoreIndexPlugin) Server(*plugin.MuxBroker) (interface{}, error) {
	return &StoreIndexRPCServer{Impl: p.Impl}, nil
}

func (p *StoreIndexPlugin) Client(b *plugin.MuxBroker, c *rpc.Client) (interface{}, error) {
	return &StoreIndexRPCClient{client: c}, nil
}

// PluginError represents an error from a plugin.
type PluginError struct {
	Message string
}

func (e *PluginError) Error() string {
	return e.Message
}

func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func remoteError(msg string) error {
	if msg == "" {
		return nil
	}
	return &PluginError{Message: msg}
}
