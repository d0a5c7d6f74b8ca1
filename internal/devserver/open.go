package devserver

import (
	"fmt"
	"strings"

	"github.com/idilsaglam/planner/internal/store"
	"github.com/idilsaglam/planner/internal/store/jsonstore"
	"github.com/idilsaglam/planner/internal/store/sqlitestore"
)

// OpenStore returns the store named by kind: memory, json or sqlite.
// path is the backing file for json and sqlite.
func OpenStore(kind, path string) (store.Store, error) {
	switch strings.ToLower(kind) {
	case "", "memory", "mem":
		return store.NewMemory(), nil
	case "json":
		return jsonstore.Open(path)
	case "sqlite", "sqlite3":
		return sqlitestore.Open(path)
	}
	return nil, fmt.Errorf("unknown store %q (want memory, json or sqlite)", kind)
}
