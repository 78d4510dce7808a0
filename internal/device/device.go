// Package device resolves human-readable peer names to connectable
// device references.  It stands in for the platform's bonded-device
// list: a name maps to a network, a host and a base port, and the
// selected channel picks the concrete port at connect time.
package device

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"sync"

	"github.com/BurntSushi/toml"
)

// Ref is an opaque handle for a paired peer.
type Ref struct {
	Name     string `toml:"name"`
	Network  string `toml:"network"` // "tcp", "ws" or "wss"
	Host     string `toml:"host"`
	BasePort int    `toml:"base_port"`
	Path     string `toml:"path"` // websocket path, ignored for tcp
}

// Directory enumerates bonded devices.  When two devices share a name
// the last one seen wins.
type Directory interface {
	Bonded() (map[string]Ref, error)
}

// Static is a fixed in-memory Directory.
type Static []Ref

// Bonded implements [Directory].
func (s Static) Bonded() (map[string]Ref, error) {
	out := make(map[string]Ref, len(s))
	for _, r := range s {
		out[r.Name] = r
	}
	return out, nil
}

// registryFile is the on-disk layout of a device registry:
//
//	[[device]]
//	name = "kitchen-pi"
//	network = "tcp"
//	host = "192.168.1.20"
//	base_port = 7000
type registryFile struct {
	Devices []Ref `toml:"device"`
}

// Registry is a Directory backed by a TOML file that is re-read on
// every Bonded call, so edits show up on the next "update".
type Registry struct {
	Path     string
	Defaults Ref // Network and BasePort fill entries that omit them

	mu sync.Mutex
}

// Bonded implements [Directory].
func (r *Registry) Bonded() (map[string]Ref, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Path == "" {
		return map[string]Ref{}, nil
	}

	var f registryFile
	if _, err := toml.DecodeFile(r.Path, &f); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]Ref{}, nil
		}
		return nil, fmt.Errorf("device registry %s: %w", r.Path, err)
	}

	out := make(map[string]Ref, len(f.Devices))
	for i, d := range f.Devices {
		if d.Name == "" {
			return nil, fmt.Errorf("device registry %s: entry %d has no name", r.Path, i+1)
		}
		if d.Network == "" {
			d.Network = r.Defaults.Network
		}
		if d.BasePort == 0 {
			d.BasePort = r.Defaults.BasePort
		}
		if d.Path == "" {
			d.Path = r.Defaults.Path
		}
		out[d.Name] = d
	}
	return out, nil
}

// Chain merges several directories.  Later directories win when names
// clash, so flag-defined peers can shadow registry entries.
type Chain []Directory

// Bonded implements [Directory].
func (c Chain) Bonded() (map[string]Ref, error) {
	out := map[string]Ref{}
	for _, d := range c {
		devices, err := d.Bonded()
		if err != nil {
			return nil, err
		}
		for name, ref := range devices {
			out[name] = ref
		}
	}
	return out, nil
}

// Names returns the device names in sorted order.
func Names(devices map[string]Ref) []string {
	names := make([]string, 0, len(devices))
	for n := range devices {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
