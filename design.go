package cblite

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Design is a handle to a design document.
type Design struct {
	db *Database
	id string
}

// DesignDoc is a design document. Each view function may be given as a
// string of source code, a func() string returning the source, or a
// fmt.Stringer.
type DesignDoc struct {
	Rev      string
	Language string
	Views    map[string]View
}

// View is a map function with an optional reduce function.
type View struct {
	Map    interface{}
	Reduce interface{}
}

// ID returns the design document id, without the _design/ prefix.
func (d *Design) ID() string {
	return d.id
}

// Save writes the design document. spec may be a *DesignDoc or DesignDoc, a
// map[string]interface{}, or JSON in a string, []byte or json.RawMessage. It
// must define at least a views object; the language defaults to javascript.
func (d *Design) Save(ctx context.Context, spec interface{}) (*Result, error) {
	if d.id == "" {
		return nil, missingArg("designId")
	}
	doc, err := designObject(spec)
	if err != nil {
		return nil, err
	}
	if err := normalizeDesign(doc); err != nil {
		return nil, err
	}
	r, params, err := d.db.resource(ctx, pathDesign)
	if err != nil {
		return nil, err
	}
	params["designId"] = d.id
	result := &Result{}
	if err := r.Put(ctx, params, doc, result); err != nil {
		return nil, err
	}
	return result, nil
}

// Load fetches the design document.
func (d *Design) Load(ctx context.Context) (json.RawMessage, error) {
	if d.id == "" {
		return nil, missingArg("designId")
	}
	r, params, err := d.db.resource(ctx, pathDesign)
	if err != nil {
		return nil, err
	}
	params["designId"] = d.id
	var doc json.RawMessage
	if err := r.Get(ctx, params, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// View queries the named view. Key options in opts (key, startkey, endkey)
// are JSON-encoded. If keys is non-nil, only rows matching those keys are
// returned.
func (d *Design) View(ctx context.Context, viewID string, opts map[string]interface{}, keys []interface{}) (*Rows, error) {
	if d.id == "" {
		return nil, missingArg("designId")
	}
	if viewID == "" {
		return nil, missingArg("viewId")
	}
	query, err := viewParams(opts)
	if err != nil {
		return nil, err
	}
	r, params, err := d.db.resource(ctx, pathView)
	if err != nil {
		return nil, err
	}
	params["designId"] = d.id
	params["id"] = viewID
	return queryRows(ctx, r, withOptions(params, query), keys)
}

// designObject converts a design document spec to a generic object.
func designObject(spec interface{}) (map[string]interface{}, error) {
	switch t := spec.(type) {
	case *DesignDoc:
		if t == nil {
			return nil, badRequest("cblite: you can't save a null document")
		}
		return t.object(), nil
	case DesignDoc:
		return t.object(), nil
	case map[string]interface{}:
		doc := make(map[string]interface{}, len(t))
		for k, v := range t {
			doc[k] = v
		}
		return doc, nil
	}
	return toObject(spec)
}

func (d *DesignDoc) object() map[string]interface{} {
	doc := map[string]interface{}{}
	if d.Rev != "" {
		doc[fieldRev] = d.Rev
	}
	if d.Language != "" {
		doc["language"] = d.Language
	}
	if d.Views != nil {
		views := make(map[string]interface{}, len(d.Views))
		for name, view := range d.Views {
			views[name] = view.object()
		}
		doc["views"] = views
	}
	return doc
}

func (v View) object() map[string]interface{} {
	view := map[string]interface{}{"map": v.Map}
	if v.Reduce != nil {
		view["reduce"] = v.Reduce
	}
	return view
}

// normalizeDesign checks that doc holds a views object, converts each view
// function to source code, and sets the default language.
func normalizeDesign(doc map[string]interface{}) error {
	var views map[string]interface{}
	switch t := doc["views"].(type) {
	case map[string]interface{}:
		views = t
	case map[string]View:
		views = make(map[string]interface{}, len(t))
		for name, view := range t {
			views[name] = view.object()
		}
	default:
		return badRequest("cblite: design document requires a views object")
	}
	names := make([]string, 0, len(views))
	for name := range views {
		names = append(names, name)
	}
	sort.Strings(names)
	normalized := make(map[string]interface{}, len(views))
	for _, name := range names {
		var view map[string]interface{}
		switch t := views[name].(type) {
		case map[string]interface{}:
			view = t
		case View:
			view = t.object()
		default:
			return badRequest("cblite: view '%s' must be an object", name)
		}
		out := make(map[string]interface{}, len(view))
		for k, v := range view {
			out[k] = v
		}
		mapFn, err := functionSource(view["map"])
		if err != nil {
			return err
		}
		out["map"] = mapFn
		if reduce, ok := view["reduce"]; ok && reduce != nil {
			reduceFn, err := functionSource(reduce)
			if err != nil {
				return err
			}
			out["reduce"] = reduceFn
		}
		normalized[name] = out
	}
	doc["views"] = normalized
	if lang, _ := doc["language"].(string); lang == "" {
		doc["language"] = defaultLanguage
	}
	return nil
}

// functionSource returns the source of a view function. Strings are passed
// through unchanged; generated source has its whitespace collapsed.
func functionSource(fn interface{}) (string, error) {
	switch t := fn.(type) {
	case string:
		return t, nil
	case func() string:
		return collapse(t()), nil
	case fmt.Stringer:
		return collapse(t.String()), nil
	}
	return "", badRequest("cblite: invalid function definition")
}

func collapse(src string) string {
	return strings.Join(strings.Fields(src), " ")
}
