package host

import (
	"errors"
	"net"
	"net/rpc"
	"os"
	"path/filepath"
	"testing"

	"github.com/spetr/vuexref/builtin/storeindex/memory"
	"github.com/spetr/vuexref/pkg/plugin/shared"
	"github.com/spetr/vuexref/pkg/provider/providertest"
	"github.com/spetr/vuexref/pkg/types"
)

// servePipe serves impl over an in-process net/rpc connection, the same
// protocol the plugin process speaks.
func servePipe(t *testing.T, impl shared.StoreIndexProvider) *shared.StoreIndexRPCClient {
	t.Helper()

	server := rpc.NewServer()
	if err := server.RegisterName("Plugin", &shared.StoreIndexRPCServer{Impl: impl}); err != nil {
		t.Fatalf("RegisterName failed: %v", err)
	}

	serverConn, clientConn := net.Pipe()
	go server.ServeConn(serverConn)

	client := rpc.NewClient(clientConn)
	t.Cleanup(func() { client.Close() })
	return shared.NewStoreIndexRPCClient(client)
}

func TestStoreIndexAdapterRoundTrip(t *testing.T) {
	closed := false
	adapter := NewStoreIndexAdapter(servePipe(t, shared.FromStoreIndex(memory.New())), func() error {
		closed = true
		return nil
	})

	if got := adapter.Name(); got != "memory" {
		t.Errorf("Name() = %q, want memory", got)
	}
	if err := adapter.Init(t.TempDir()); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	providertest.TestStoreIndex(t, adapter)

	if err := adapter.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if !closed {
		t.Error("Close did not run the release callback")
	}
}

func TestStoreIndexAdapterCloseError(t *testing.T) {
	want := errors.New("kill failed")
	adapter := NewStoreIndexAdapter(servePipe(t, shared.FromStoreIndex(memory.New())), func() error {
		return want
	})
	if err := adapter.Close(); !errors.Is(err, want) {
		t.Errorf("Close() = %v, want %v", err, want)
	}
}

func TestManagerDiscoverPlugins(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "missing"))
	plugins, err := m.DiscoverPlugins()
	if err != nil || len(plugins) != 0 {
		t.Errorf("DiscoverPlugins() on missing dir = %v, %v", plugins, err)
	}

	dir := t.TempDir()
	files := map[string]os.FileMode{"zeta": 0755, "alpha": 0755, "notes.txt": 0644}
	for name, mode := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("#!/bin/sh\n"), mode); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0755); err != nil {
		t.Fatal(err)
	}

	m = NewManager(dir)
	plugins, err = m.DiscoverPlugins()
	if err != nil {
		t.Fatalf("DiscoverPlugins failed: %v", err)
	}
	if len(plugins) != 2 || plugins[0] != "alpha" || plugins[1] != "zeta" {
		t.Errorf("DiscoverPlugins() = %v, want [alpha zeta]", plugins)
	}
}

func TestManagerLoadErrors(t *testing.T) {
	m := NewManager(t.TempDir())

	if _, err := m.LoadPlugin("nope", shared.PluginTypeStoreIndex); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("LoadPlugin of a missing binary = %v, want ErrNotFound", err)
	}
	if _, err := m.LoadPlugin("nope", shared.PluginType("embedding")); err == nil {
		t.Error("LoadPlugin with an unsupported type should fail")
	}
	if _, ok := m.Loaded("nope"); ok {
		t.Error("Loaded reported a plugin that never started")
	}
	if err := m.Release("nope"); err != nil {
		t.Errorf("Release of unknown plugin = %v", err)
	}
	if err := m.UnloadPlugin("nope"); err != nil {
		t.Errorf("UnloadPlugin of unknown plugin = %v", err)
	}
}
