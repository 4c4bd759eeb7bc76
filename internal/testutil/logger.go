// Package testutil provides shared test helpers for dnsswitch packages.
package testutil

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// Logger returns a development Zap logger for use in tests.
// Panics on construction failure (should never happen in tests).
func Logger() *zap.Logger {
	l, err := zap.NewDevelopment()
	if err != nil {
		panic("testutil.Logger: " + err.Error())
	}
	return l
}

// TestLogger returns a logger that writes through t.Log, so output only
// shows for failing tests.
func TestLogger(t zaptest.TestingT) *zap.Logger {
	return zaptest.NewLogger(t, zaptest.Level(zap.DebugLevel))
}
