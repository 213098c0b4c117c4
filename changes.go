package cblite

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-kivik/cblite/chttp"
)

// Changes is a single response from the _changes feed.
type Changes struct {
	Results []Change   `json:"results"`
	LastSeq SequenceID `json:"last_seq"`
	Pending int64      `json:"pending,omitempty"`
}

// Change is one row of a changes feed.
type Change struct {
	ID      string          `json:"id"`
	Seq     SequenceID      `json:"seq"`
	Deleted bool            `json:"deleted,omitempty"`
	Changes []ChangeRev     `json:"changes"`
	Doc     json.RawMessage `json:"doc,omitempty"`
}

// ChangeRev names a leaf revision in a Change.
type ChangeRev struct {
	Rev string `json:"rev"`
}

// SequenceID is an update sequence. Older servers send sequences as
// numbers, newer ones as opaque strings; both are kept as strings.
type SequenceID string

func (id *SequenceID) UnmarshalJSON(data []byte) error {
	sid := bytes.Trim(data, `"`)
	*id = SequenceID(sid)
	return nil
}

// Feed types accepted by the _changes endpoint.
const (
	FeedNormal      = "normal"
	FeedLongPoll    = "longpoll"
	FeedContinuous  = "continuous"
	FeedEventSource = "eventsource"
)

// Changes fetches the database's changes feed, with opts as query
// parameters. For the streaming feeds (feed=continuous or
// feed=eventsource) the rows are read until the server ends the response,
// as it does once limit or timeout is reached, and collected into a single
// Changes. Use ChangesFeed to consume a stream row by row.
func (d *Database) Changes(ctx context.Context, opts map[string]interface{}) (*Changes, error) {
	r, params, err := d.resource(ctx, pathChanges)
	if err != nil {
		return nil, err
	}
	switch opts["feed"] {
	case FeedContinuous, FeedEventSource:
		feed, err := d.openFeed(ctx, r, withOptions(params, opts))
		if err != nil {
			return nil, err
		}
		defer feed.Close() // nolint: errcheck
		changes := &Changes{Results: []Change{}}
		for feed.Next() {
			changes.Results = append(changes.Results, *feed.Change())
		}
		if err := feed.Err(); err != nil {
			return nil, err
		}
		changes.LastSeq = feed.LastSeq()
		changes.Pending = feed.Pending()
		return changes, nil
	}
	changes := &Changes{}
	if err := r.Get(ctx, withOptions(params, opts), changes); err != nil {
		return nil, err
	}
	return changes, nil
}

// ChangesFeed opens a streaming changes feed. The feed option defaults to
// "continuous"; "eventsource" is also accepted. The caller must Close the
// feed.
func (d *Database) ChangesFeed(ctx context.Context, opts map[string]interface{}) (*ChangesFeed, error) {
	query := make(map[string]interface{}, len(opts)+1)
	for k, v := range opts {
		query[k] = v
	}
	switch query["feed"] {
	case nil:
		query["feed"] = FeedContinuous
	case FeedContinuous, FeedEventSource:
	default:
		return nil, badRequest("cblite: feed type '%v' cannot be streamed", query["feed"])
	}
	r, params, err := d.resource(ctx, pathChanges)
	if err != nil {
		return nil, err
	}
	return d.openFeed(ctx, r, withOptions(params, query))
}

func (d *Database) openFeed(ctx context.Context, r *chttp.Resource, params chttp.Params) (*ChangesFeed, error) {
	body, err := r.Stream(ctx, params)
	if err != nil {
		return nil, err
	}
	d.client.log.Debug("changes feed opened", "db", d.name, "feed", params["feed"])
	f := &ChangesFeed{body: body}
	if params["feed"] == FeedEventSource {
		f.next = eventSourceReader(body)
	} else {
		f.next = continuousReader(body)
	}
	return f, nil
}

// ChangesFeed is a stream of changes, read one row at a time:
//
//	for feed.Next() {
//		change := feed.Change()
//		...
//	}
//	if err := feed.Err(); err != nil {
//		...
//	}
type ChangesFeed struct {
	body io.ReadCloser
	next func() (json.RawMessage, error)

	change  *Change
	lastSeq SequenceID
	pending int64
	err     error
}

// feedRow is a line of a streaming feed: either a change or, at the end of
// the feed, the closing last_seq summary.
type feedRow struct {
	Change
	LastSeq *SequenceID `json:"last_seq"`
	Pending int64       `json:"pending"`
}

// Next advances to the next change. It returns false at the end of the feed
// or on error; Err tells the two apart.
func (f *ChangesFeed) Next() bool {
	for f.err == nil {
		raw, err := f.next()
		if err == io.EOF {
			return false
		}
		if err != nil {
			f.err = err
			return false
		}
		row := &feedRow{}
		if err := decode(raw, row); err != nil {
			f.err = err
			return false
		}
		if row.LastSeq != nil {
			f.lastSeq = *row.LastSeq
			f.pending = row.Pending
			continue
		}
		f.lastSeq = row.Seq
		f.change = &row.Change
		return true
	}
	return false
}

// Change returns the current change.
func (f *ChangesFeed) Change() *Change {
	return f.change
}

// LastSeq returns the feed's last_seq once the feed has ended, or the
// sequence of the most recent change before then.
func (f *ChangesFeed) LastSeq() SequenceID {
	return f.lastSeq
}

// Pending returns the number of changes not yet sent, as reported at the end
// of a feed with a limit.
func (f *ChangesFeed) Pending() int64 {
	return f.pending
}

// Err returns the error which ended the feed, if any.
func (f *ChangesFeed) Err() error {
	return f.err
}

// Close closes the underlying response body.
func (f *ChangesFeed) Close() error {
	return f.body.Close()
}

// continuousReader reads a feed of concatenated JSON objects, one per line.
// Blank heartbeat lines are skipped by the decoder.
func continuousReader(r io.Reader) func() (json.RawMessage, error) {
	dec := json.NewDecoder(r)
	return func() (json.RawMessage, error) {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			if err == io.EOF {
				return nil, err
			}
			return nil, &chttp.HTTPError{Code: http.StatusBadGateway, Reason: err.Error()}
		}
		return raw, nil
	}
}

// eventSourceReader reads a Server-Sent Events feed, returning the payload of
// each data line. Event ids, event names and heartbeats are skipped.
func eventSourceReader(r io.Reader) func() (json.RawMessage, error) {
	scanner := bufio.NewScanner(r)
	return func() (json.RawMessage, error) {
		for scanner.Scan() {
			line := scanner.Bytes()
			if !bytes.HasPrefix(line, []byte("data:")) {
				continue
			}
			data := bytes.TrimSpace(line[len("data:"):])
			if len(data) == 0 {
				continue
			}
			return append(json.RawMessage(nil), data...), nil
		}
		if err := scanner.Err(); err != nil {
			return nil, &chttp.HTTPError{Code: http.StatusBadGateway, Reason: err.Error()}
		}
		return nil, io.EOF
	}
}
