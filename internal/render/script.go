package render

import (
	"context"
	"fmt"
	"os"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/object"

	"github.com/phobologic/nodedocs/internal/model"
)

// Script renders through a user supplied risor program. The program sees the
// entries, sorted by id, as the global `entries` (a list of maps) and must
// evaluate to a map of file name to contents.
//
//	files := {}
//	for _, e := range entries {
//	    files[e.id + ".txt"] = e.description
//	}
//	files
type Script struct {
	Source string
}

// LoadScript reads a risor program from disk.
func LoadScript(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("loading script %s: %w", path, err)
	}
	return string(data), nil
}

func (s Script) Render(ctx context.Context, store model.EntryStore) (map[string]string, error) {
	result, err := risor.Eval(ctx, s.Source, risor.WithGlobal("entries", entriesObject(store)))
	if err != nil {
		return nil, fmt.Errorf("script: %w", err)
	}

	m, ok := result.(*object.Map)
	if !ok {
		return nil, fmt.Errorf("script: result must be a map of file name to string, got %s", result.Type())
	}

	files := make(map[string]string, len(m.Value()))
	for name, v := range m.Value() {
		str, ok := v.(*object.String)
		if !ok {
			return nil, fmt.Errorf("script: file %q: value must be a string, got %s", name, v.Type())
		}
		files[name] = str.Value()
	}
	return files, nil
}

func entriesObject(store model.EntryStore) *object.List {
	entries := store.Sorted()
	items := make([]object.Object, len(entries))
	for i := range entries {
		items[i] = entryObject(&entries[i])
	}
	return object.NewList(items)
}

func entryObject(e *model.DocEntry) *object.Map {
	params := make([]object.Object, len(e.Params))
	for i, p := range e.Params {
		params[i] = object.NewMap(map[string]object.Object{
			"name":        object.NewString(p.Name),
			"type":        object.NewString(p.Type),
			"description": object.NewString(p.Description),
			"optional":    object.NewBool(p.Optional),
			"default":     object.NewString(p.Default),
		})
	}

	var returns object.Object = object.Nil
	if e.Returns != nil {
		returns = object.NewMap(map[string]object.Object{
			"type":        object.NewString(e.Returns.Type),
			"description": object.NewString(e.Returns.Description),
		})
	}

	examples := make([]object.Object, len(e.Examples))
	for i, ex := range e.Examples {
		examples[i] = object.NewString(ex)
	}

	return object.NewMap(map[string]object.Object{
		"id":          object.NewString(e.ID),
		"name":        object.NewString(e.Name),
		"kind":        object.NewString(string(e.Kind)),
		"memberof":    object.NewString(e.MemberOf),
		"instance":    object.NewBool(e.Instance),
		"file":        object.NewString(e.Source.File),
		"line":        object.NewInt(int64(e.Source.Line)),
		"url":         object.NewString(e.Source.URL),
		"summary":     object.NewString(e.Summary()),
		"description": object.NewString(e.Description),
		"params":      object.NewList(params),
		"returns":     returns,
		"type":        object.NewString(e.Type),
		"access":      object.NewString(e.Access),
		"deprecated":  object.NewBool(e.Deprecated),
		"since":       object.NewString(e.Since),
		"examples":    object.NewList(examples),
	})
}
