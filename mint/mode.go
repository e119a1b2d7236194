package mint

import (
	"os"
	"sync"
)

// Mode selects what Finalize does with the staged files.
type Mode int

const (
	// ModeCheck compares staged files against their golden copies.
	ModeCheck Mode = iota
	// ModeUpdate overwrites golden copies with the staged files.
	ModeUpdate
)

// String returns a human-readable string for Mode.
func (m Mode) String() string {
	switch m {
	case ModeCheck:
		return "check"
	case ModeUpdate:
		return "update"
	default:
		return "unknown"
	}
}

const (
	// EnvUpdate selects update mode when set to "1".
	EnvUpdate = "UPDATE_GOLDENFILES"
	// EnvRegenerate is the deprecated spelling of EnvUpdate.
	EnvRegenerate = "REGENERATE_GOLDENFILES"
)

// ModeFromEnv reads the mode switch from the environment. Either EnvUpdate or
// EnvRegenerate set to "1" selects ModeUpdate; anything else ModeCheck.
func ModeFromEnv() Mode {
	if os.Getenv(EnvUpdate) == "1" || os.Getenv(EnvRegenerate) == "1" {
		return ModeUpdate
	}
	return ModeCheck
}

var (
	defaultMode     Mode
	defaultModeOnce sync.Once
	defaultModeMu   sync.RWMutex
)

// DefaultMode returns the process-wide mode used by NewT. It is read from the
// environment the first time it is needed.
func DefaultMode() Mode {
	defaultModeOnce.Do(func() {
		defaultModeMu.Lock()
		defaultMode = ModeFromEnv()
		defaultModeMu.Unlock()
	})
	defaultModeMu.RLock()
	defer defaultModeMu.RUnlock()
	return defaultMode
}

// SetDefaultMode overrides the process-wide mode (call from TestMain, for
// example after parsing an -update flag).
func SetDefaultMode(m Mode) {
	defaultModeOnce.Do(func() {})
	defaultModeMu.Lock()
	defaultMode = m
	defaultModeMu.Unlock()
}
