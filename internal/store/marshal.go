package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/layersync/internal/ir"
)

// marshalStep serializes a step to canonical JSON for the canonical column.
func marshalStep(step ir.SyncStep) (string, error) {
	data, err := ir.MarshalCanonical(step.Canonical())
	if err != nil {
		return "", fmt.Errorf("marshal step: %w", err)
	}
	return string(data), nil
}

// unmarshalStep decodes the canonical column back into a step.
func unmarshalStep(data string) (ir.SyncStep, error) {
	var step ir.SyncStep
	if err := json.Unmarshal([]byte(data), &step); err != nil {
		return ir.SyncStep{}, fmt.Errorf("unmarshal step: %w", err)
	}
	return step, nil
}
