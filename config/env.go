package config

import (
	"os"
	"sync"
)

// envMu serializes WithEnv. The process environment is global, so two
// overlapping scopes would restore each other's values.
var envMu sync.Mutex

type savedVar struct {
	value string
	set   bool
}

// WithEnv sets env for the duration of fn and then restores every key to
// its previous value, unsetting keys that did not exist before.
func WithEnv(env map[string]string, fn func() error) error {
	envMu.Lock()
	defer envMu.Unlock()

	prev := make(map[string]savedVar, len(env))
	defer restoreEnv(prev)

	for k, v := range env {
		old, ok := os.LookupEnv(k)
		prev[k] = savedVar{value: old, set: ok}
		if err := os.Setenv(k, v); err != nil {
			return err
		}
	}
	return fn()
}

func restoreEnv(prev map[string]savedVar) {
	for k, s := range prev {
		if s.set {
			os.Setenv(k, s.value)
		} else {
			os.Unsetenv(k)
		}
	}
}
