package kv

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"
)

// Open returns the backend named by backend, rooted at dataDir. An empty
// dataDir keeps everything in memory.
func Open(backend, dataDir string, logger *zap.Logger) (Store, error) {
	path := func(name string) string {
		if dataDir == "" {
			return ""
		}
		return filepath.Join(dataDir, name)
	}
	switch backend {
	case BackendFile, "":
		return OpenFile(path("store.json"))
	case BackendBadger:
		return OpenBadger(path("badger"), logger)
	}
	return nil, fmt.Errorf("unknown store backend %q. Valid values are: %s, %s", backend, BackendFile, BackendBadger)
}
