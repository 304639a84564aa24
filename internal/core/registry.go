package core

import (
	"errors"
	"fmt"
	"sync"
)

// ErrUnknownPurpose is returned when a purpose has no registered schema.
var ErrUnknownPurpose = errors.New("unknown purpose")

var (
	registry   = make(map[PurposeID]SchemaDefinition)
	order      []PurposeID
	registryMu sync.RWMutex
)

// Register adds a schema definition to the registry.
// Panics if the purpose is already registered, if a field key repeats, or if
// the schema has no required field.
func Register(def SchemaDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if !def.Purpose.Active() {
		panic(fmt.Sprintf("cannot register reserved purpose %q", def.Purpose))
	}
	if _, exists := registry[def.Purpose]; exists {
		panic(fmt.Sprintf("purpose already registered: %s", def.Purpose))
	}

	seen := make(map[string]bool, len(def.Fields))
	required := 0
	for _, f := range def.Fields {
		if seen[f.Key] {
			panic(fmt.Sprintf("purpose %s: duplicate field key %q", def.Purpose, f.Key))
		}
		seen[f.Key] = true
		if f.Required {
			required++
		}
	}
	if required == 0 {
		panic(fmt.Sprintf("purpose %s: schema has no required field", def.Purpose))
	}

	registry[def.Purpose] = def
	order = append(order, def.Purpose)
}

// GetSchema returns the schema registered for purpose.
func GetSchema(purpose PurposeID) (SchemaDefinition, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[purpose]
	if !ok {
		return SchemaDefinition{}, fmt.Errorf("%w: %q", ErrUnknownPurpose, purpose)
	}
	return def, nil
}

// Schemas returns all registered schemas in registration order.
func Schemas() []SchemaDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]SchemaDefinition, 0, len(order))
	for _, p := range order {
		result = append(result, registry[p])
	}
	return result
}

// ListPurposes returns the purpose picker options: the unset placeholder,
// the ignore sentinel, then every registered purpose in registration order.
func ListPurposes() []PurposeOption {
	registryMu.RLock()
	defer registryMu.RUnlock()

	opts := make([]PurposeOption, 0, len(order)+2)
	opts = append(opts,
		PurposeOption{ID: PurposeUnset, Text: "請選擇此工作表的用途..."},
		PurposeOption{ID: PurposeIgnore, Text: "忽略此工作表"},
	)
	for _, p := range order {
		opts = append(opts, PurposeOption{ID: p, Text: registry[p].Text})
	}
	return opts
}

// PurposeCount returns the number of registered purposes.
func PurposeCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(order)
}
