// Package regstore is a small abstraction over the HKEY_LOCAL_MACHINE
// registry hive. The system implementation is backed by
// golang.org/x/sys/windows/registry; Memory serves tests and non-Windows
// builds.
package regstore

import "errors"

var (
	// ErrNotExist is returned when a key or value is missing.
	ErrNotExist = errors.New("registry key or value does not exist")

	// ErrUnsupported is returned by the system registry on platforms
	// without one.
	ErrUnsupported = errors.New("registry is not available on this platform")
)

// Key is an open registry key. Callers must Close it.
type Key interface {
	GetString(name string) (string, error)
	GetDWord(name string) (uint32, error)
	GetBinary(name string) ([]byte, error)
	SetString(name, value string) error
	SetDWord(name string, value uint32) error
	// DeleteValue removes name. A missing value is not an error.
	DeleteValue(name string) error
	// SubKeyNames lists direct children in enumeration order.
	SubKeyNames() ([]string, error)
	Close() error
}

// Registry opens keys relative to HKEY_LOCAL_MACHINE.
type Registry interface {
	// OpenKey opens an existing key for reading and writing.
	OpenKey(path string) (Key, error)
	// CreateKey opens path, creating any missing keys along the way.
	CreateKey(path string) (Key, error)
}
