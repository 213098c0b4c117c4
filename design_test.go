package cblite

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"gitlab.com/flimzy/testy"
)

type jsSource string

func (s jsSource) String() string { return string(s) }

func TestDesignSave(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		spec     interface{}
		expected string
		err      string
	}{
		{
			name: "no id",
			spec: `{"views":{}}`,
			err:  "cblite: designId required",
		},
		{
			name: "JSON string",
			id:   "app",
			spec: `{"views":{"byType":{"map":"function(doc) { emit(doc.type, null); }"}}}`,
			expected: `{
				"language": "javascript",
				"views": {"byType": {"map": "function(doc) { emit(doc.type, null); }"}}
			}`,
		},
		{
			name: "invalid JSON string",
			id:   "app",
			spec: `{"views":`,
			err:  "cblite: invalid document: unexpected EOF",
		},
		{
			name: "missing views",
			id:   "app",
			spec: map[string]interface{}{"language": "javascript"},
			err:  "cblite: design document requires a views object",
		},
		{
			name: "view not an object",
			id:   "app",
			spec: map[string]interface{}{"views": map[string]interface{}{"bad": "function(doc) {}"}},
			err:  "cblite: view 'bad' must be an object",
		},
		{
			name: "invalid map function",
			id:   "app",
			spec: map[string]interface{}{"views": map[string]interface{}{"bad": map[string]interface{}{"map": 42}}},
			err:  "cblite: invalid function definition",
		},
		{
			name: "invalid reduce function",
			id:   "app",
			spec: &DesignDoc{Views: map[string]View{"bad": {Map: "function(doc) {}", Reduce: true}}},
			err:  "cblite: invalid function definition",
		},
		{
			name: "generated functions",
			id:   "app",
			spec: &DesignDoc{
				Rev:      "1-a",
				Language: "javascript",
				Views: map[string]View{
					"count": {
						Map: func() string {
							return `function(doc) {
								emit(doc._id, 1);
							}`
						},
						Reduce: jsSource("  _count\n"),
					},
				},
			},
			expected: `{
				"_rev": "1-a",
				"language": "javascript",
				"views": {"count": {"map": "function(doc) { emit(doc._id, 1); }", "reduce": "_count"}}
			}`,
		},
		{
			name: "other fields preserved",
			id:   "app",
			spec: map[string]interface{}{
				"language":            "erlang",
				"validate_doc_update": "fun(_, _, _) -> ok end.",
				"views": map[string]View{
					"all": {Map: "fun({Doc}) -> Emit(null, null) end."},
				},
			},
			expected: `{
				"language": "erlang",
				"validate_doc_update": "fun(_, _, _) -> ok end.",
				"views": {"all": {"map": "fun({Doc}) -> Emit(null, null) end."}}
			}`,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			server := respond(jsonResponse(201, `{"ok":true,"id":"_design/app","rev":"2-b"}`))
			result, err := newTestDB(t, server).Design(test.id).Save(context.Background(), test.spec)
			testy.Error(t, test.err, err)
			if d := testy.DiffInterface(&Result{OK: true, ID: "_design/app", Rev: "2-b"}, result); d != nil {
				t.Error(d)
			}
			reqs := server.Requests()
			if reqs[0].Method != http.MethodPut || reqs[0].URL != "http://my.couchbase.lite/testdb/_design/app" {
				t.Errorf("Unexpected request: %s %s", reqs[0].Method, reqs[0].URL)
			}
			if d := testy.DiffJSON([]byte(test.expected), []byte(reqs[0].Body)); d != nil {
				t.Error(d)
			}
		})
	}
}

func TestDesignLoad(t *testing.T) {
	server := respond(jsonResponse(200, `{"_id":"_design/app","views":{}}`))
	doc, err := newTestDB(t, server).Design("app").Load(context.Background())
	testy.Error(t, "", err)
	if d := testy.DiffJSON([]byte(`{"_id":"_design/app","views":{}}`), []byte(doc)); d != nil {
		t.Error(d)
	}
	if req := server.Requests()[0]; req.URL != "http://my.couchbase.lite/testdb/_design/app" {
		t.Errorf("Unexpected URL: %s", req.URL)
	}
}

func TestDesignView(t *testing.T) {
	const response = `{"total_rows":1,"offset":0,"rows":[{"id":"a","key":["x",1],"value":1}]}`
	tests := []struct {
		name    string
		viewID  string
		opts    map[string]interface{}
		keys    []interface{}
		request request
		err     string
	}{
		{
			name: "no view",
			err:  "cblite: viewId required",
		},
		{
			name:   "key range",
			viewID: "byType",
			opts: map[string]interface{}{
				"startkey": []interface{}{"x"},
				"endkey":   []interface{}{"x", map[string]interface{}{}},
				"reduce":   false,
			},
			request: request{
				Method: http.MethodGet,
				URL:    "http://my.couchbase.lite/testdb/_design/app/_view/byType?endkey=%5B%22x%22%2C%7B%7D%5D&reduce=false&startkey=%5B%22x%22%5D",
				Auth:   testAuth,
			},
		},
		{
			name:   "keys",
			viewID: "byType",
			keys:   []interface{}{[]interface{}{"x", 1}},
			request: request{
				Method: http.MethodPost,
				URL:    "http://my.couchbase.lite/testdb/_design/app/_view/byType",
				Auth:   testAuth,
				Body:   `{"keys":[["x",1]]}`,
			},
		},
		{
			name:   "unencodable key",
			viewID: "byType",
			opts:   map[string]interface{}{"key": make(chan int)},
			err:    "cblite: invalid value for 'key': json: unsupported type: chan int",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			server := respond(jsonResponse(200, response))
			rows, err := newTestDB(t, server).Design("app").View(context.Background(), test.viewID, test.opts, test.keys)
			testy.Error(t, test.err, err)
			expected := &Rows{
				TotalRows: 1,
				Rows:      []Row{{ID: "a", Key: json.RawMessage(`["x",1]`), Value: json.RawMessage(`1`)}},
			}
			if d := testy.DiffInterface(expected, rows); d != nil {
				t.Error(d)
			}
			if d := testy.DiffInterface([]request{test.request}, server.Requests()); d != nil {
				t.Error(d)
			}
		})
	}
}

func TestFunctionSource(t *testing.T) {
	tests := []struct {
		name     string
		fn       interface{}
		expected string
		err      string
	}{
		{
			name:     "string unchanged",
			fn:       "function(doc) {\n  emit(doc._id);\n}",
			expected: "function(doc) {\n  emit(doc._id);\n}",
		},
		{
			name:     "func collapsed",
			fn:       func() string { return "function(doc) {\n\t\temit(doc._id);\n}" },
			expected: "function(doc) { emit(doc._id); }",
		},
		{
			name:     "stringer collapsed",
			fn:       jsSource("  _sum \n"),
			expected: "_sum",
		},
		{
			name: "nil",
			err:  "cblite: invalid function definition",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			src, err := functionSource(test.fn)
			testy.Error(t, test.err, err)
			if src != test.expected {
				t.Errorf("Unexpected result: %q", src)
			}
		})
	}
}
