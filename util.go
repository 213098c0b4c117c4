package cblite

import (
	"bytes"
	"encoding/json"
	"net/http"
	"reflect"

	"github.com/go-kivik/cblite/chttp"
)

// decode unmarshals a response body, reporting failure as a bad response
// from the server.
func decode(raw json.RawMessage, dest interface{}) error {
	if err := json.Unmarshal(raw, dest); err != nil {
		return &chttp.HTTPError{Code: http.StatusBadGateway, Reason: err.Error(), Data: raw}
	}
	return nil
}

// toObject converts document content to a JSON object. Accepted content is
// a string, []byte or json.RawMessage holding a JSON object, or a non-nil map
// or struct, or pointer to one, which marshals to a JSON object.
func toObject(content interface{}) (map[string]interface{}, error) {
	var data []byte
	switch t := content.(type) {
	case nil:
		return nil, badRequest("cblite: you can't save a null document")
	case string:
		data = []byte(t)
	case []byte:
		data = t
	case json.RawMessage:
		data = t
	default:
		v := reflect.ValueOf(content)
		for v.Kind() == reflect.Ptr {
			if v.IsNil() {
				return nil, badRequest("cblite: you can't save a null document")
			}
			v = v.Elem()
		}
		switch v.Kind() {
		case reflect.Map:
			if v.IsNil() {
				return nil, badRequest("cblite: you can't save a null document")
			}
		case reflect.Struct:
		default:
			return nil, badRequest("cblite: you can't save this type: %s", kindName(v.Kind()))
		}
		var err error
		data, err = json.Marshal(content)
		if err != nil {
			return nil, badRequest("cblite: invalid document: %s", err)
		}
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return nil, badRequest("cblite: invalid document: %s", err)
	}
	switch t := doc.(type) {
	case map[string]interface{}:
		return t, nil
	case nil:
		return nil, badRequest("cblite: you can't save a null document")
	}
	return nil, badRequest("cblite: document must be a JSON object")
}

// kindName names a Go kind after the closest JSON or JavaScript type.
func kindName(k reflect.Kind) string {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return "number"
	case reflect.Bool:
		return "boolean"
	case reflect.String:
		return "string"
	case reflect.Func:
		return "function"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Chan:
		return "channel"
	}
	return k.String()
}
