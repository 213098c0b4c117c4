package cblite

import (
	"context"
	"encoding/json"

	"github.com/go-kivik/cblite/chttp"
)

// Rows is the result of an _all_docs or view query.
type Rows struct {
	TotalRows int64      `json:"total_rows"`
	Offset    int64      `json:"offset"`
	UpdateSeq SequenceID `json:"update_seq,omitempty"`
	Rows      []Row      `json:"rows"`
}

// Row is a single query result. Error is set instead of Value for keys
// which were requested explicitly but could not be found.
type Row struct {
	ID    string          `json:"id,omitempty"`
	Key   json.RawMessage `json:"key"`
	Value json.RawMessage `json:"value,omitempty"`
	Doc   json.RawMessage `json:"doc,omitempty"`
	Error string          `json:"error,omitempty"`
}

// keysBody is the request body of a multi-key query.
type keysBody struct {
	Keys []interface{} `json:"keys"`
}

// queryRows issues a query against r: a POST with keys in the body if keys is
// non-nil, otherwise a GET.
func queryRows(ctx context.Context, r *chttp.Resource, params chttp.Params, keys []interface{}) (*Rows, error) {
	rows := &Rows{}
	var err error
	if keys != nil {
		err = r.Post(ctx, params, keysBody{Keys: keys}, rows)
	} else {
		err = r.Get(ctx, params, rows)
	}
	if err != nil {
		return nil, err
	}
	return rows, nil
}
