//go:build windows

package regstore

import (
	"errors"
	"fmt"

	"golang.org/x/sys/windows/registry"
)

// Compile-time interface guards.
var (
	_ Registry = (*systemRegistry)(nil)
	_ Key      = (*systemKey)(nil)
)

type systemRegistry struct{}

// NewSystem returns the machine registry.
func NewSystem() Registry { return systemRegistry{} }

func (systemRegistry) OpenKey(path string) (Key, error) {
	k, err := registry.OpenKey(registry.LOCAL_MACHINE, path, registry.QUERY_VALUE|registry.SET_VALUE|registry.ENUMERATE_SUB_KEYS)
	if err != nil {
		return nil, mapErr(fmt.Sprintf("open %s", path), err)
	}
	return &systemKey{k: k}, nil
}

func (systemRegistry) CreateKey(path string) (Key, error) {
	k, _, err := registry.CreateKey(registry.LOCAL_MACHINE, path, registry.QUERY_VALUE|registry.SET_VALUE|registry.ENUMERATE_SUB_KEYS)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	return &systemKey{k: k}, nil
}

type systemKey struct {
	k registry.Key
}

func (s *systemKey) GetString(name string) (string, error) {
	v, _, err := s.k.GetStringValue(name)
	if err != nil {
		return "", mapErr(name, err)
	}
	return v, nil
}

func (s *systemKey) GetDWord(name string) (uint32, error) {
	v, _, err := s.k.GetIntegerValue(name)
	if err != nil {
		return 0, mapErr(name, err)
	}
	return uint32(v), nil
}

func (s *systemKey) GetBinary(name string) ([]byte, error) {
	v, _, err := s.k.GetBinaryValue(name)
	if err != nil {
		return nil, mapErr(name, err)
	}
	return v, nil
}

func (s *systemKey) SetString(name, value string) error {
	return s.k.SetStringValue(name, value)
}

func (s *systemKey) SetDWord(name string, value uint32) error {
	return s.k.SetDWordValue(name, value)
}

func (s *systemKey) DeleteValue(name string) error {
	if err := s.k.DeleteValue(name); err != nil && !errors.Is(err, registry.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", name, err)
	}
	return nil
}

func (s *systemKey) SubKeyNames() ([]string, error) {
	return s.k.ReadSubKeyNames(-1)
}

func (s *systemKey) Close() error {
	return s.k.Close()
}

func mapErr(what string, err error) error {
	if errors.Is(err, registry.ErrNotExist) {
		return fmt.Errorf("%s: %w", what, ErrNotExist)
	}
	return fmt.Errorf("%s: %w", what, err)
}
