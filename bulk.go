package cblite

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"github.com/go-kivik/cblite/chttp"
)

// BulkResult is the outcome of one document in a BulkDocs call. Error is
// non-nil if the document was rejected.
type BulkResult struct {
	ID    string
	Rev   string
	Error error
}

type bulkResult struct {
	ID     string `json:"id"`
	Rev    string `json:"rev"`
	Error  string `json:"error"`
	Reason string `json:"reason"`
}

// bulkErrorStatus maps per-document error names to HTTP status codes.
var bulkErrorStatus = map[string]int{
	"conflict":        http.StatusConflict,
	"forbidden":       http.StatusForbidden,
	"unauthorized":    http.StatusUnauthorized,
	"not_found":       http.StatusNotFound,
	"not_implemented": http.StatusNotImplemented,
}

func (r bulkResult) result() BulkResult {
	result := BulkResult{ID: r.ID, Rev: r.Rev}
	if r.Error != "" {
		status, ok := bulkErrorStatus[r.Error]
		if !ok {
			status = http.StatusInternalServerError
		}
		result.Error = &chttp.HTTPError{Code: status, Kind: r.Error, Reason: r.Reason}
	}
	return result
}

// BulkDocs saves docs in a single request. Each document is validated as
// for Document.Save before anything is sent. opts are merged into the
// request body, e.g. {"new_edits": false}.
//
// The results are in the order of docs. A 417 response, when the server
// rejects one or more documents outright, returns the results alongside the
// error.
func (d *Database) BulkDocs(ctx context.Context, docs []interface{}, opts map[string]interface{}) ([]BulkResult, error) {
	if len(docs) == 0 {
		return nil, missingArg("docs")
	}
	objects := make([]map[string]interface{}, len(docs))
	for i, doc := range docs {
		obj, err := toObject(doc)
		if err != nil {
			return nil, badRequest("cblite: doc %d: %s", i, strings.TrimPrefix(err.Error(), "cblite: "))
		}
		objects[i] = obj
	}
	body := make(map[string]interface{}, len(opts)+1)
	for k, v := range opts {
		body[k] = v
	}
	body["docs"] = objects

	r, params, err := d.resource(ctx, pathBulkDocs)
	if err != nil {
		return nil, err
	}
	var raw []bulkResult
	err = r.Post(ctx, params, body, &raw)
	var httpErr *chttp.HTTPError
	if errors.As(err, &httpErr) && httpErr.Code == http.StatusExpectationFailed {
		if jsonErr := json.Unmarshal(httpErr.Data, &raw); jsonErr != nil {
			return nil, err
		}
		if httpErr.Reason == "" {
			httpErr.Reason = "one or more document was rejected"
		}
	} else if err != nil {
		return nil, err
	}
	results := make([]BulkResult, len(raw))
	for i, res := range raw {
		results[i] = res.result()
	}
	return results, err
}
