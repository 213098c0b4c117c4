package cblite

import (
	"context"
	"encoding/json"
	"sync"
)

// Document is a handle to a single document. A handle created without an id
// adopts the id generated by the server on its first Save, so that later
// saves update the same document.
type Document struct {
	db *Database

	// mu serializes Save, the only writer of id.
	mu sync.Mutex
	id string
}

// ID returns the document id, or "" if none has been assigned yet.
func (d *Document) ID() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.id
}

// Load fetches the document, with opts as query parameters (for example
// rev or revs_info).
func (d *Document) Load(ctx context.Context, opts map[string]interface{}) (json.RawMessage, error) {
	id := d.ID()
	if id == "" {
		return nil, missingArg("docID")
	}
	r, params, err := d.db.resource(ctx, pathDoc)
	if err != nil {
		return nil, err
	}
	params["doc"] = id
	var doc json.RawMessage
	if err := r.Get(ctx, withOptions(params, opts), &doc); err != nil {
		d.db.client.log.Error("unable to load document", "db", d.db.name, "doc", id, "error", err)
		return nil, err
	}
	return doc, nil
}

// Save writes content to the server. If rev is non-empty, it is stored as
// the document's _rev. The document id is taken from the handle or, failing
// that, from the content's _id field; with neither, the server assigns an id
// which the handle keeps for subsequent saves.
//
// Content is validated before any request is made; see toObject.
func (d *Document) Save(ctx context.Context, content interface{}, rev string) (*Result, error) {
	doc, err := toObject(content)
	if err != nil {
		return nil, err
	}
	if rev != "" {
		doc[fieldRev] = rev
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	id := d.id
	if id == "" {
		id, _ = doc[fieldID].(string)
	}
	r, params, err := d.db.resource(ctx, pathDoc)
	if err != nil {
		return nil, err
	}
	result := &Result{}
	if id == "" {
		if err := r.Post(ctx, params, doc, result); err != nil {
			return nil, err
		}
		d.id = result.ID
		return result, nil
	}
	params["doc"] = id
	if err := r.Put(ctx, params, doc, result); err != nil {
		return nil, err
	}
	return result, nil
}

// Delete deletes the document. If rev is empty, the current revision is
// loaded first.
func (d *Document) Delete(ctx context.Context, rev string) (*Result, error) {
	id := d.ID()
	if id == "" {
		return nil, missingArg("docID")
	}
	if rev == "" {
		raw, err := d.Load(ctx, nil)
		if err != nil {
			return nil, err
		}
		var current struct {
			Rev string `json:"_rev"`
		}
		if err := decode(raw, &current); err != nil {
			return nil, err
		}
		rev = current.Rev
	}
	r, params, err := d.db.resource(ctx, pathDoc)
	if err != nil {
		return nil, err
	}
	params["doc"] = id
	params["rev"] = rev
	result := &Result{}
	if err := r.Delete(ctx, params, result); err != nil {
		return nil, err
	}
	return result, nil
}

// PurgeResult is the server's response to a purge request.
type PurgeResult struct {
	PurgeSeq SequenceID          `json:"purge_seq"`
	Purged   map[string][]string `json:"purged"`
}

// Purge permanently removes the given revisions of the document.
func (d *Document) Purge(ctx context.Context, revs []string) (*PurgeResult, error) {
	id := d.ID()
	if id == "" {
		return nil, missingArg("docID")
	}
	if len(revs) == 0 {
		return nil, missingArg("revs")
	}
	r, params, err := d.db.resource(ctx, pathPurge)
	if err != nil {
		return nil, err
	}
	result := &PurgeResult{}
	if err := r.Post(ctx, params, map[string][]string{id: revs}, result); err != nil {
		return nil, err
	}
	return result, nil
}
