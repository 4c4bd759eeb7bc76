package regstore

import (
	"fmt"
	"strings"
	"sync"
)

// Compile-time interface guards.
var (
	_ Registry = (*Memory)(nil)
	_ Key      = (*memoryKey)(nil)
)

type memoryNode struct {
	name     string
	values   map[string]any
	children []*memoryNode
}

func (n *memoryNode) child(name string) *memoryNode {
	for _, c := range n.children {
		if strings.EqualFold(c.name, name) {
			return c
		}
	}
	return nil
}

// Memory is an in-process registry. Key paths and value names are
// case-insensitive and subkeys enumerate in creation order, like the real
// hive.
type Memory struct {
	mu   sync.Mutex
	root *memoryNode
}

// NewMemory returns an empty registry.
func NewMemory() *Memory {
	return &Memory{root: &memoryNode{values: map[string]any{}}}
}

func splitPath(path string) []string {
	var parts []string
	for _, p := range strings.Split(path, `\`) {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

func (m *Memory) walk(path string, create bool) *memoryNode {
	n := m.root
	for _, part := range splitPath(path) {
		next := n.child(part)
		if next == nil {
			if !create {
				return nil
			}
			next = &memoryNode{name: part, values: map[string]any{}}
			n.children = append(n.children, next)
		}
		n = next
	}
	return n
}

// OpenKey opens an existing key.
func (m *Memory) OpenKey(path string) (Key, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := m.walk(path, false)
	if n == nil {
		return nil, fmt.Errorf("open %s: %w", path, ErrNotExist)
	}
	return &memoryKey{reg: m, node: n}, nil
}

// CreateKey opens path, creating it if needed.
func (m *Memory) CreateKey(path string) (Key, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &memoryKey{reg: m, node: m.walk(path, true)}, nil
}

// Exists reports whether path names a key.
func (m *Memory) Exists(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.walk(path, false) != nil
}

// Values returns a copy of the values stored at path, keyed by lower-cased
// name, or nil if the key does not exist.
func (m *Memory) Values(path string) map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := m.walk(path, false)
	if n == nil {
		return nil
	}
	out := make(map[string]any, len(n.values))
	for k, v := range n.values {
		out[k] = v
	}
	return out
}

// SetBinary stores a REG_BINARY value, creating the key if needed. Only
// fixtures need it; the application never writes binary values.
func (m *Memory) SetBinary(path, name string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.walk(path, true).values[strings.ToLower(name)] = append([]byte(nil), value...)
}

type memoryKey struct {
	reg  *Memory
	node *memoryNode
}

func (k *memoryKey) get(name string) (any, error) {
	k.reg.mu.Lock()
	defer k.reg.mu.Unlock()
	v, ok := k.node.values[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrNotExist)
	}
	return v, nil
}

func (k *memoryKey) set(name string, v any) error {
	k.reg.mu.Lock()
	defer k.reg.mu.Unlock()
	k.node.values[strings.ToLower(name)] = v
	return nil
}

func (k *memoryKey) GetString(name string) (string, error) {
	v, err := k.get(name)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s: value is %T, not a string", name, v)
	}
	return s, nil
}

func (k *memoryKey) GetDWord(name string) (uint32, error) {
	v, err := k.get(name)
	if err != nil {
		return 0, err
	}
	d, ok := v.(uint32)
	if !ok {
		return 0, fmt.Errorf("%s: value is %T, not a DWORD", name, v)
	}
	return d, nil
}

func (k *memoryKey) GetBinary(name string) ([]byte, error) {
	v, err := k.get(name)
	if err != nil {
		return nil, err
	}
	b, ok := v.([]byte)
	if !ok {
		return nil, fmt.Errorf("%s: value is %T, not binary", name, v)
	}
	return append([]byte(nil), b...), nil
}

func (k *memoryKey) SetString(name, value string) error { return k.set(name, value) }

func (k *memoryKey) SetDWord(name string, value uint32) error { return k.set(name, value) }

func (k *memoryKey) DeleteValue(name string) error {
	k.reg.mu.Lock()
	defer k.reg.mu.Unlock()
	delete(k.node.values, strings.ToLower(name))
	return nil
}

func (k *memoryKey) SubKeyNames() ([]string, error) {
	k.reg.mu.Lock()
	defer k.reg.mu.Unlock()
	names := make([]string, 0, len(k.node.children))
	for _, c := range k.node.children {
		names = append(names, c.name)
	}
	return names, nil
}

func (k *memoryKey) Close() error { return nil }
