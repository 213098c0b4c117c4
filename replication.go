package cblite

import (
	"context"
	"net/url"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// ReplicationSpec describes the remote side of a replication.
type ReplicationSpec struct {
	// URL is the remote database URL, including any credentials, or the
	// name of another database on the same server.
	URL        string            `json:"url" validate:"required"`
	Continuous bool              `json:"continuous"`
	Headers    map[string]string `json:"headers,omitempty"`
}

// ReplicationResult is the server's response to a replication request.
// Continuous replications report only OK and LocalID.
type ReplicationResult struct {
	OK            bool                     `json:"ok"`
	SessionID     string                   `json:"session_id,omitempty"`
	SourceLastSeq SequenceID               `json:"source_last_seq,omitempty"`
	LocalID       string                   `json:"_local_id,omitempty"`
	History       []map[string]interface{} `json:"history,omitempty"`
	NoChanges     bool                     `json:"no_changes,omitempty"`
}

type replicationRequest struct {
	Source     string            `json:"source"`
	Target     string            `json:"target"`
	Continuous bool              `json:"continuous"`
	Headers    map[string]string `json:"headers,omitempty"`
}

// replicationSpec normalizes spec, which may be a bare URL string, a
// ReplicationSpec or pointer to one, or a map with the keys url, continuous
// and headers. The URL is trimmed and, unless it is a bare local database
// name, given a trailing slash.
func replicationSpec(spec interface{}) (*ReplicationSpec, error) {
	rs := &ReplicationSpec{}
	switch t := spec.(type) {
	case string:
		rs.URL = t
	case ReplicationSpec:
		*rs = t
	case *ReplicationSpec:
		if t == nil {
			return nil, missingArg("replication spec")
		}
		*rs = *t
	case map[string]interface{}:
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			TagName:     "json",
			ErrorUnused: true,
			Result:      rs,
		})
		if err != nil {
			return nil, err
		}
		if err := dec.Decode(t); err != nil {
			return nil, badRequest("cblite: invalid replication spec: %s", err)
		}
	case nil:
		return nil, missingArg("replication spec")
	default:
		return nil, badRequest("cblite: invalid replication spec type %T", spec)
	}
	rs.URL = strings.TrimSpace(rs.URL)
	if err := validateStruct(rs); err != nil {
		return nil, badRequest("cblite: invalid replication spec: %s", err)
	}
	if u, err := url.Parse(rs.URL); err == nil && u.Scheme != "" && u.Host != "" && !strings.HasSuffix(rs.URL, "/") {
		rs.URL += "/"
	}
	return rs, nil
}

// ReplicateTo replicates this database to the remote database described by
// spec; see ReplicationSpec for the accepted forms.
func (d *Database) ReplicateTo(ctx context.Context, spec interface{}) (*ReplicationResult, error) {
	rs, err := d.replicationSpec(spec)
	if err != nil {
		return nil, err
	}
	return d.replicate(ctx, d.name, rs.URL, rs)
}

// ReplicateFrom replicates the remote database described by spec to this
// database.
func (d *Database) ReplicateFrom(ctx context.Context, spec interface{}) (*ReplicationResult, error) {
	rs, err := d.replicationSpec(spec)
	if err != nil {
		return nil, err
	}
	return d.replicate(ctx, rs.URL, d.name, rs)
}

func (d *Database) replicationSpec(spec interface{}) (*ReplicationSpec, error) {
	if d.name == "" {
		return nil, missingArg("dbName")
	}
	return replicationSpec(spec)
}

func (d *Database) replicate(ctx context.Context, source, target string, rs *ReplicationSpec) (*ReplicationResult, error) {
	r, err := d.client.resource(ctx, pathReplicate)
	if err != nil {
		return nil, err
	}
	body := replicationRequest{
		Source:     source,
		Target:     target,
		Continuous: rs.Continuous,
		Headers:    rs.Headers,
	}
	result := &ReplicationResult{}
	if err := r.Post(ctx, nil, body, result); err != nil {
		return nil, err
	}
	d.client.log.Debug("replication started", "source", redact(source), "target", redact(target), "continuous", rs.Continuous)
	return result, nil
}

// SyncResult holds the outcome of both legs of a SyncWith.
type SyncResult struct {
	LocalToRemote *ReplicationResult
	RemoteToLocal *ReplicationResult
}

// SyncError is returned by SyncWith when either leg fails. Result holds the
// legs which succeeded.
type SyncError struct {
	Result        *SyncResult
	LocalToRemote error
	RemoteToLocal error
}

func (e *SyncError) Error() string {
	var parts []string
	if e.LocalToRemote != nil {
		parts = append(parts, "local to remote: "+e.LocalToRemote.Error())
	}
	if e.RemoteToLocal != nil {
		parts = append(parts, "remote to local: "+e.RemoteToLocal.Error())
	}
	return "cblite: sync failed: " + strings.Join(parts, "; ")
}

// Unwrap returns the errors of the failed legs.
func (e *SyncError) Unwrap() []error {
	var errs []error
	if e.LocalToRemote != nil {
		errs = append(errs, e.LocalToRemote)
	}
	if e.RemoteToLocal != nil {
		errs = append(errs, e.RemoteToLocal)
	}
	return errs
}

// SyncWith replicates in both directions, first to the remote database and
// then from it. The second leg runs after the first completes, whether or not
// the first succeeded. If either fails, the error is a *SyncError, and the
// returned result holds whichever leg succeeded.
func (d *Database) SyncWith(ctx context.Context, spec interface{}) (*SyncResult, error) {
	rs, err := d.replicationSpec(spec)
	if err != nil {
		return nil, err
	}
	result := &SyncResult{}
	var pushErr, pullErr error
	result.LocalToRemote, pushErr = d.replicate(ctx, d.name, rs.URL, rs)
	result.RemoteToLocal, pullErr = d.replicate(ctx, rs.URL, d.name, rs)
	if pushErr != nil || pullErr != nil {
		return result, &SyncError{
			Result:        result,
			LocalToRemote: pushErr,
			RemoteToLocal: pullErr,
		}
	}
	return result, nil
}
