// Licensed under the Apache License, Version 2.0 (the "License"); you may not
// use this file except in compliance with the License. You may obtain a copy of
// the License at
//
//  http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS, WITHOUT
// WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the
// License for the specific language governing permissions and limitations under
// the License.

package chttp

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"

	kivik "github.com/go-kivik/kivik/v4"
)

// Options are optional parameters which may be sent with a request.
type Options struct {
	// Accept sets the request's Accept header. Defaults to "application/json".
	// To specify any, use "*/*".
	Accept string

	// ContentType sets the requests's Content-Type header. Defaults to
	// "application/json" whenever a body is present.
	ContentType string

	// Body sets the body of the request.
	Body io.Reader

	// JSON is an arbitrary data type which is marshaled to the request's body.
	// It an error to set both Body and JSON on the same request. When this is
	// set, ContentType is unconditionally set to 'application/json'.
	JSON interface{}

	// Query is appended to the exiting url, if present. If the passed url
	// already contains query parameters, the values in Query are appended.
	// No merging takes place.
	Query url.Values

	// Header is a list of default headers to be set on the request.
	Header http.Header
}

// Params maps path placeholders and query parameters to their values.
type Params map[string]interface{}

// merge returns a new Params holding p overlaid with each of others, in
// order.
func (p Params) merge(others ...Params) Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	for _, o := range others {
		for k, v := range o {
			out[k] = v
		}
	}
	return out
}

// Query converts p to URL query values. Values of type string, []string,
// bool, any integer or float kind, and json.Number are supported. Nil values
// are skipped. Any other type results in a 400 error.
func (p Params) Query() (url.Values, error) {
	query := url.Values{}
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		values, err := paramValues(key, p[key])
		if err != nil {
			return nil, err
		}
		for _, value := range values {
			query.Add(key, value)
		}
	}
	return query, nil
}

func paramValues(key string, i interface{}) ([]string, error) {
	switch v := i.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{v}, nil
	case []string:
		return v, nil
	case bool:
		return []string{fmt.Sprintf("%t", v)}, nil
	case int, uint, uint8, uint16, uint32, uint64, int8, int16, int32, int64:
		return []string{fmt.Sprintf("%d", v)}, nil
	case float32, float64:
		return []string{fmt.Sprintf("%v", v)}, nil
	case json.Number:
		return []string{v.String()}, nil
	case json.RawMessage:
		return []string{string(v)}, nil
	}
	return nil, &kivik.Error{Status: http.StatusBadRequest, Err: fmt.Errorf("chttp: invalid type %T for parameter '%s'", i, key)}
}
