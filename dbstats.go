package cblite

import (
	"bytes"
	"encoding/json"
)

// DBInfo is the metadata returned for a database.
type DBInfo struct {
	Name         string `json:"db_name"`
	DocCount     int64  `json:"doc_count"`
	DeletedCount int64  `json:"doc_del_count"`
	UpdateSeq    string `json:"-"`
	DiskSize     int64  `json:"disk_size"`
	ActiveSize   int64  `json:"data_size"`
	ExternalSize int64  `json:"-"`

	// RawResponse is the unparsed response body.
	RawResponse json.RawMessage `json:"-"`
}

// parseDBInfo reads a database info response. Sizes reported in the newer
// "sizes" object take precedence over the legacy top-level fields.
func parseDBInfo(raw json.RawMessage) (*DBInfo, error) {
	result := struct {
		DBInfo
		Sizes struct {
			File     int64 `json:"file"`
			External int64 `json:"external"`
			Active   int64 `json:"active"`
		} `json:"sizes"`
		UpdateSeq json.RawMessage `json:"update_seq"`
	}{}
	if err := decode(raw, &result); err != nil {
		return nil, err
	}
	info := &result.DBInfo
	if result.Sizes.File > 0 {
		info.DiskSize = result.Sizes.File
	}
	if result.Sizes.External > 0 {
		info.ExternalSize = result.Sizes.External
	}
	if result.Sizes.Active > 0 {
		info.ActiveSize = result.Sizes.Active
	}
	info.UpdateSeq = string(bytes.Trim(result.UpdateSeq, `"`))
	info.RawResponse = raw
	return info, nil
}
