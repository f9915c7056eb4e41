package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/phobologic/nodedocs/internal/model"
	"github.com/phobologic/nodedocs/internal/toon"
)

// JSON renders docs.json, the id to entry map.
type JSON struct{}

func (JSON) Render(_ context.Context, store model.EntryStore) (map[string]string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(store); err != nil {
		return nil, fmt.Errorf("encoding json: %w", err)
	}
	return map[string]string{"docs.json": buf.String()}, nil
}

// YAML renders docs.yaml.
type YAML struct{}

func (YAML) Render(_ context.Context, store model.EntryStore) (map[string]string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(map[string]model.DocEntry(store)); err != nil {
		return nil, fmt.Errorf("encoding yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding yaml: %w", err)
	}
	return map[string]string{"docs.yaml": buf.String()}, nil
}

// TOON renders docs.toon.
type TOON struct {
	Project string
}

func (t TOON) Render(_ context.Context, store model.EntryStore) (map[string]string, error) {
	return map[string]string{"docs.toon": toon.Encode(t.Project, store) + "\n"}, nil
}
