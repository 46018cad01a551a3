package shared

import (
	"net/rpc"

	"github.com/spetr/vuexref/pkg/types"
)

// StoreIndexRPCClient is the RPC client for store index plugins.
type StoreIndexRPCClient struct {
	client *rpc.Client
}

// NewStoreIndexRPCClient wraps an established RPC connection.
func NewStoreIndexRPCClient(client *rpc.Client) *StoreIndexRPCClient {
	return &StoreIndexRPCClient{client: client}
}

// Name returns the provider name.
func (c *StoreIndexRPCClient) Name() string {
	var resp string
	err := c.client.Call("Plugin.Name", new(interface{}), &resp)
	if err != nil {
		return ""
	}
	return resp
}

// call performs an RPC whose reply carries only an error string.
func (c *StoreIndexRPCClient) call(method string, args interface{}) error {
	var resp string
	if err := c.client.Call("Plugin."+method, args, &resp); err != nil {
		return err
	}
	return remoteError(resp)
}

// Init initializes the index at path.
func (c *StoreIndexRPCClient) Init(path string) error {
	return c.call("Init", path)
}

// Load replaces the indexed model.
func (c *StoreIndexRPCClient) Load(model *types.StoreModel) error {
	return c.call("Load", model)
}

// LookupArgs are the arguments for the Lookup RPC call.
type LookupArgs struct {
	Namespace string
	Name      string
	Kind      types.SymbolKind
}

// LookupReply is the reply for the Lookup RPC call.
type LookupReply struct {
	Symbol *types.StoreSymbol
	Found  bool
	Error  string
}

// Lookup finds a symbol.
func (c *StoreIndexRPCClient) Lookup(namespace, name string, kind types.SymbolKind) (*types.StoreSymbol, bool, error) {
	var resp LookupReply
	err := c.client.Call("Plugin.Lookup", &LookupArgs{Namespace: namespace, Name: name, Kind: kind}, &resp)
	if err != nil {
		return nil, false, err
	}
	if resp.Error != "" {
		return nil, false, &PluginError{Message: resp.Error}
	}
	return resp.Symbol, resp.Found, nil
}

// NamespaceArgs are the arguments for the HasNamespace RPC call.
type NamespaceArgs struct {
	Namespace string
	Kind      types.SymbolKind
}

// BoolReply is a boolean reply.
type BoolReply struct {
	Value bool
	Error string
}

// HasNamespace reports whether a module is registered under namespace.
func (c *StoreIndexRPCClient) HasNamespace(namespace string, kind types.SymbolKind) (bool, error) {
	var resp BoolReply
	err := c.client.Call("Plugin.HasNamespace", &NamespaceArgs{Namespace: namespace, Kind: kind}, &resp)
	if err != nil {
		return false, err
	}
	return resp.Value, remoteError(resp.Error)
}

// ModuleArgs are the arguments for the ModuleNamespace RPC call.
type ModuleArgs struct {
	FilePath string
	Offset   uint32
	Kind     types.SymbolKind
}

// ModuleReply is the reply for the ModuleNamespace RPC call.
type ModuleReply struct {
	Namespace string
	Found     bool
	Error     string
}

// ModuleNamespace returns the kind's namespace of the module containing offset.
func (c *StoreIndexRPCClient) ModuleNamespace(filePath string, offset uint32, kind types.SymbolKind) (string, bool, error) {
	var resp ModuleReply
	err := c.client.Call("Plugin.ModuleNamespace", &ModuleArgs{FilePath: filePath, Offset: offset, Kind: kind}, &resp)
	if err != nil {
		return "", false, err
	}
	if resp.Error != "" {
		return "", false, &PluginError{Message: resp.Error}
	}
	return resp.Namespace, resp.Found, nil
}

// StatePath returns the state path of the namespaced module under namespace.
func (c *StoreIndexRPCClient) StatePath(namespace string) (string, bool, error) {
	var resp ModuleReply
	if err := c.client.Call("Plugin.StatePath", namespace, &resp); err != nil {
		return "", false, err
	}
	if resp.Error != "" {
		return "", false, &PluginError{Message: resp.Error}
	}
	return resp.Namespace, resp.Found, nil
}

// SymbolsReply is the reply for the Symbols RPC call.
type SymbolsReply struct {
	Symbols []*types.StoreSymbol
	Error   string
}

// Symbols lists symbols matching filter.
func (c *StoreIndexRPCClient) Symbols(filter types.SymbolFilter) ([]*types.StoreSymbol, error) {
	var resp SymbolsReply
	if err := c.client.Call("Plugin.Symbols", &filter, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, &PluginError{Message: resp.Error}
	}
	return resp.Symbols, nil
}

// ModulesReply is the reply for the Modules RPC call.
type ModulesReply struct {
	Modules []*types.StoreModule
	Error   string
}

// Modules lists registered modules.
func (c *StoreIndexRPCClient) Modules() ([]*types.StoreModule, error) {
	var resp ModulesReply
	if err := c.client.Call("Plugin.Modules", new(interface{}), &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, &PluginError{Message: resp.Error}
	}
	return resp.Modules, nil
}

// MetadataReply is the reply for the GetMetadata RPC call.
type MetadataReply struct {
	Metadata *types.IndexMetadata
	Error    string
}

// GetMetadata returns index metadata.
func (c *StoreIndexRPCClient) GetMetadata() (*types.IndexMetadata, error) {
	var resp MetadataReply
	if err := c.client.Call("Plugin.GetMetadata", new(interface{}), &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, &PluginError{Message: resp.Error}
	}
	return resp.Metadata, nil
}

// SetMetadata stores index metadata.
func (c *StoreIndexRPCClient) SetMetadata(meta *types.IndexMetadata) error {
	return c.call("SetMetadata", meta)
}

// StatsReply is the reply for the GetStats RPC call.
type StatsReply struct {
	Stats *types.IndexStats
	Error string
}

// GetStats returns index statistics.
func (c *StoreIndexRPCClient) GetStats() (*types.IndexStats, error) {
	var resp StatsReply
	if err := c.client.Call("Plugin.GetStats", new(interface{}), &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, &PluginError{Message: resp.Error}
	}
	return resp.Stats, nil
}

// HashesReply is the reply for the GetAllFileHashes RPC call.
type HashesReply struct {
	Hashes map[string]string
	Error  string
}

// GetAllFileHashes returns all cached file hashes.
func (c *StoreIndexRPCClient) GetAllFileHashes() (map[string]string, error) {
	var resp HashesReply
	if err := c.client.Call("Plugin.GetAllFileHashes", new(interface{}), &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, &PluginError{Message: resp.Error}
	}
	return resp.Hashes, nil
}

// SetFileHashes replaces the cached file hashes.
func (c *StoreIndexRPCClient) SetFileHashes(hashes map[string]string) error {
	return c.call("SetFileHashes", hashes)
}

// Close closes the provider.
func (c *StoreIndexRPCClient) Close() error {
	return c.call("Close", new(interface{}))
}

var _ StoreIndexProvider = (*StoreIndexRPCClient)(nil)

// StoreIndexRPCServer is the RPC server for store index plugins.
type StoreIndexRPCServer struct {
	Impl StoreIndexProvider
}

// Name returns the provider name.
func (s *StoreIndexRPCServer) Name(args interface{}, resp *string) error {
	*resp = s.Impl.Name()
	return nil
}

// Init initializes the index.
func (s *StoreIndexRPCServer) Init(path string, resp *string) error {
	*resp = errorString(s.Impl.Init(path))
	return nil
}

// Load replaces the indexed model.
func (s *StoreIndexRPCServer) Load(model *types.StoreModel, resp *string) error {
	*resp = errorString(s.Impl.Load(model))
	return nil
}

// Lookup finds a symbol.
func (s *StoreIndexRPCServer) Lookup(args *LookupArgs, resp *LookupReply) error {
	sym, found, err := s.Impl.Lookup(args.Namespace, args.Name, args.Kind)
	if err != nil {
		resp.Error = err.Error()
		return nil
	}
	resp.Symbol = sym
	resp.Found = found
	return nil
}

// HasNamespace reports whether a module is registered under a namespace.
func (s *StoreIndexRPCServer) HasNamespace(args *NamespaceArgs, resp *BoolReply) error {
	ok, err := s.Impl.HasNamespace(args.Namespace, args.Kind)
	resp.Value = ok
	resp.Error = errorString(err)
	return nil
}

// ModuleNamespace returns the namespace of the module containing an offset.
func (s *StoreIndexRPCServer) ModuleNamespace(args *ModuleArgs, resp *ModuleReply) error {
	ns, found, err := s.Impl.ModuleNamespace(args.FilePath, args.Offset, args.Kind)
	if err != nil {
		resp.Error = err.Error()
		return nil
	}
	resp.Namespace = ns
	resp.Found = found
	return nil
}

// StatePath returns the state path of a namespaced module.
func (s *StoreIndexRPCServer) StatePath(namespace string, resp *ModuleReply) error {
	path, found, err := s.Impl.StatePath(namespace)
	if err != nil {
		resp.Error = err.Error()
		return nil
	}
	resp.Namespace = path
	resp.Found = found
	return nil
}

// Symbols lists symbols.
func (s *StoreIndexRPCServer) Symbols(filter *types.SymbolFilter, resp *SymbolsReply) error {
	syms, err := s.Impl.Symbols(*filter)
	if err != nil {
		resp.Error = err.Error()
		return nil
	}
	resp.Symbols = syms
	return nil
}

// Modules lists modules.
func (s *StoreIndexRPCServer) Modules(args interface{}, resp *ModulesReply) error {
	modules, err := s.Impl.Modules()
	if err != nil {
		resp.Error = err.Error()
		return nil
	}
	resp.Modules = modules
	return nil
}

// GetMetadata returns index metadata.
func (s *StoreIndexRPCServer) GetMetadata(args interface{}, resp *MetadataReply) error {
	meta, err := s.Impl.GetMetadata()
	if err != nil {
		resp.Error = err.Error()
		return nil
	}
	resp.Metadata = meta
	return nil
}

// SetMetadata stores index metadata.
func (s *StoreIndexRPCServer) SetMetadata(meta *types.IndexMetadata, resp *string) error {
	*resp = errorString(s.Impl.SetMetadata(meta))
	return nil
}

// GetStats returns index statistics.
func (s *StoreIndexRPCServer) GetStats(args interface{}, resp *StatsReply) error {
	stats, err := s.Impl.GetStats()
	if err != nil {
		resp.Error = err.Error()
		return nil
	}
	resp.Stats = stats
	return nil
}

// GetAllFileHashes returns cached file hashes.
func (s *StoreIndexRPCServer) GetAllFileHashes(args interface{}, resp *HashesReply) error {
	hashes, err := s.Impl.GetAllFileHashes()
	if err != nil {
		resp.Error = err.Error()
		return nil
	}
	resp.Hashes = hashes
	return nil
}

// SetFileHashes replaces cached file hashes.
func (s *StoreIndexRPCServer) SetFileHashes(hashes map[string]string, resp *string) error {
	*resp = errorString(s.Impl.SetFileHashes(hashes))
	return nil
}

// Close closes the provider.
func (s *StoreIndexRPCServer) Close(args interface{}, resp *string) error {
	*resp = errorString(s.Impl.Close())
	return nil
}
