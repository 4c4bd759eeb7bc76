//go:build !windows

package regstore

// Compile-time interface guard.
var _ Registry = unsupportedRegistry{}

type unsupportedRegistry struct{}

// NewSystem returns a registry whose every call fails with ErrUnsupported.
func NewSystem() Registry { return unsupportedRegistry{} }

func (unsupportedRegistry) OpenKey(string) (Key, error)   { return nil, ErrUnsupported }
func (unsupportedRegistry) CreateKey(string) (Key, error) { return nil, ErrUnsupported }
