/*
	Copyright NetFoundry Inc.

	Licensed under the Apache License, Version 2.0 (the "License");
	you may not use this file except in compliance with the License.
	You may obtain a copy of the License at

	https://www.apache.org/licenses/LICENSE-2.0

	Unless required by applicable law or agreed to in writing, software
	distributed under the License is distributed on an "AS IS" BASIS,
	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
	See the License for the specific language governing permissions and
	limitations under the License.
*/

// Package prefs stores string preferences in a hierarchy of nodes. Node paths are the key paths produced by
// fragment.Scope.PreferenceKeyPath.
package prefs

import (
	"sort"
	"strings"
	"sync"

	"github.com/openziti/xsite/fragment"
	"github.com/pkg/errors"
)

// Store is a hierarchical key/value store. A node is addressed by its path of encoded segments.
type Store interface {
	Get(path []string, key string) (string, bool, error)
	Set(path []string, key, value string) error
	Delete(path []string, key string) error
	Keys(path []string) ([]string, error)
}

// Memory is a Store kept in process memory.
type Memory struct {
	lock  sync.RWMutex
	nodes map[string]map[string]string
}

func NewMemory() *Memory {
	return &Memory{nodes: map[string]map[string]string{}}
}

func memoryKey(path []string) string {
	return strings.Join(path, "/")
}

func (m *Memory) Get(path []string, key string) (string, bool, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	value, found := m.nodes[memoryKey(path)][key]
	return value, found, nil
}

func (m *Memory) Set(path []string, key, value string) error {
	if key == "" {
		return errors.New("preference key must not be empty")
	}
	m.lock.Lock()
	defer m.lock.Unlock()
	node, found := m.nodes[memoryKey(path)]
	if !found {
		node = map[string]string{}
		m.nodes[memoryKey(path)] = node
	}
	node[key] = value
	return nil
}

func (m *Memory) Delete(path []string, key string) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	delete(m.nodes[memoryKey(path)], key)
	return nil
}

func (m *Memory) Keys(path []string) ([]string, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	var keys []string
	for key := range m.nodes[memoryKey(path)] {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

// Chain reads from the first store holding a value and writes to the first store. A page-view overlay over
// persistent storage is a typical use.
type Chain []Store

func (chain Chain) Get(path []string, key string) (string, bool, error) {
	for _, store := range chain {
		value, found, err := store.Get(path, key)
		if err != nil || found {
			return value, found, err
		}
	}
	return "", false, nil
}

func (chain Chain) Set(path []string, key, value string) error {
	if len(chain) == 0 {
		return errors.New("empty preference store chain")
	}
	return chain[0].Set(path, key, value)
}

func (chain Chain) Delete(path []string, key string) error {
	if len(chain) == 0 {
		return errors.New("empty preference store chain")
	}
	return chain[0].Delete(path, key)
}

func (chain Chain) Keys(path []string) ([]string, error) {
	seen := map[string]bool{}
	var keys []string
	for _, store := range chain {
		storeKeys, err := store.Keys(path)
		if err != nil {
			return nil, err
		}
		for _, key := range storeKeys {
			if !seen[key] {
				seen[key] = true
				keys = append(keys, key)
			}
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Node is a store bound to one node path.
type Node struct {
	store Store
	path  []string
}

// For binds the scope's key path in the store. Temporary scopes get a private memory store, so their preferences
// are never persisted.
func For(store Store, scope *fragment.Scope) *Node {
	if scope.IsTemporary() || store == nil {
		return &Node{store: NewMemory()}
	}
	return &Node{store: store, path: scope.PreferenceKeyPath()}
}

func (node *Node) Path() []string {
	return append([]string(nil), node.path...)
}

// Node returns a child node. The name is encoded like fragment path segments.
func (node *Node) Node(name string) *Node {
	path := make([]string, len(node.path), len(node.path)+1)
	copy(path, node.path)
	return &Node{store: node.store, path: append(path, fragment.EncodeKey(name))}
}

// Get returns the stored value or fallback when none is stored.
func (node *Node) Get(key, fallback string) (string, error) {
	value, found, err := node.store.Get(node.path, key)
	if err != nil {
		return fallback, errors.Wrapf(err, "failed to read preference [%s]", key)
	}
	if !found {
		return fallback, nil
	}
	return value, nil
}

func (node *Node) Set(key, value string) error {
	return errors.Wrapf(node.store.Set(node.path, key, value), "failed to write preference [%s]", key)
}

func (node *Node) Delete(key string) error {
	return errors.Wrapf(node.store.Delete(node.path, key), "failed to delete preference [%s]", key)
}

func (node *Node) Keys() ([]string, error) {
	return node.store.Keys(node.path)
}
