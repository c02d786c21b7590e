package core

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

const (
	insertPrefix = "INSERT INTO `"
	insertSuffix = "` VALUES"
)

var (
	registry   = make(map[string]TableDefinition) // by Key
	byTable    = make(map[string]string)          // dump table name -> Key
	registryMu sync.RWMutex
)

// Register adds a table definition to the registry.
// Panics if the key or the dump table is already registered.
func Register(def TableDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[def.Key]; exists {
		panic(fmt.Sprintf("table already registered: %s", def.Key))
	}
	if other, exists := byTable[def.Table]; exists {
		panic(fmt.Sprintf("dump table %s already registered by %s", def.Table, other))
	}
	if def.Apply == nil {
		panic(fmt.Sprintf("table %s has no Apply func", def.Key))
	}

	registry[def.Key] = def
	byTable[def.Table] = def.Key
}

// Get returns a table definition by key.
// Returns false if not found.
func Get(key string) (TableDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[key]
	return def, ok
}

// All returns all registered table definitions sorted by key.
func All() []TableDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]TableDefinition, 0, len(registry))
	for _, def := range registry {
		result = append(result, def)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Key < result[j].Key
	})

	return result
}

// TableCount returns the number of registered tables.
func TableCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Lookup classifies a dump line by its ``INSERT INTO `table` VALUES`` prefix.
// It is a literal prefix check and never looks past the table name.
func Lookup(line string) (TableDefinition, bool) {
	if !strings.HasPrefix(line, insertPrefix) {
		return TableDefinition{}, false
	}
	rest := line[len(insertPrefix):]
	end := strings.IndexByte(rest, '`')
	if end <= 0 || !strings.HasPrefix(rest[end:], insertSuffix) {
		return TableDefinition{}, false
	}

	registryMu.RLock()
	defer registryMu.RUnlock()

	key, ok := byTable[rest[:end]]
	if !ok {
		return TableDefinition{}, false
	}
	return registry[key], true
}
