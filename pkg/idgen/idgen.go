// Package idgen provides the row key generators selectable per table.
package idgen

import (
	"fmt"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/raywall/fast-data-interface/tableapi"
)

const (
	UUID   = "uuid"
	NanoID = "nanoid"
)

// NanoIDSize is the length of generated nanoids.
const NanoIDSize = 21

// New returns the generator registered under name. An empty name selects UUID.
func New(name string) (tableapi.IDGenerator, error) {
	switch name {
	case "", UUID:
		return uuid.NewString, nil
	case NanoID:
		return func() string { return gonanoid.Must(NanoIDSize) }, nil
	}
	return nil, fmt.Errorf("idgen: unknown generator %q", name)
}
