package cblitetest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/go-kivik/cblite"
)

// Server is an in-memory stand-in for a Couchbase Lite listener. It keeps
// databases and documents, records replication requests and reports the
// active tasks it was given. Use it as an http.RoundTripper with
// cblite.WithTransport, or as an http.Handler behind httptest.NewServer.
//
// Only the endpoints behind database info, create and destroy, document
// load, save and delete, _all_dbs, _active_tasks and _replicate are served.
type Server struct {
	mux *http.ServeMux

	mu           sync.Mutex
	dbs          map[string]*memDB
	tasks        []cblite.Task
	replications []Replication
	nextID       int
}

type memDB struct {
	docs map[string]map[string]interface{}
	seq  int64
}

// Replication is a replication request received by a Server.
type Replication struct {
	Source     string `json:"source"`
	Target     string `json:"target"`
	Continuous bool   `json:"continuous"`
}

var (
	_ http.Handler      = &Server{}
	_ http.RoundTripper = &Server{}
)

// NewServer returns a server with no databases.
func NewServer() *Server {
	s := &Server{dbs: map[string]*memDB{}}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.info)
	mux.HandleFunc("GET /_all_dbs", s.allDBs)
	mux.HandleFunc("GET /_active_tasks", s.activeTasks)
	mux.HandleFunc("POST /_replicate", s.replicate)
	mux.HandleFunc("GET /{db}", s.dbInfo)
	mux.HandleFunc("PUT /{db}", s.createDB)
	mux.HandleFunc("DELETE /{db}", s.destroyDB)
	mux.HandleFunc("POST /{db}", s.postDoc)
	mux.HandleFunc("GET /{db}/{doc...}", s.getDoc)
	mux.HandleFunc("PUT /{db}/{doc...}", s.putDoc)
	mux.HandleFunc("DELETE /{db}/{doc...}", s.deleteDoc)
	s.mux = mux
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// RoundTrip serves req in process.
func (s *Server) RoundTrip(req *http.Request) (*http.Response, error) {
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	res := rec.Result()
	res.Request = req
	return res, nil
}

// CreateDatabase adds an empty database, if it does not exist already.
func (s *Server) CreateDatabase(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.db(name, true)
}

// SetDocument stores content as the current revision of db/id, creating the
// database if needed, and returns the new revision.
func (s *Server) SetDocument(db, id string, content map[string]interface{}) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := make(map[string]interface{}, len(content))
	for k, v := range content {
		doc[k] = v
	}
	return s.db(db, true).store(id, doc)
}

// Document returns the current revision of db/id.
func (s *Server) Document(db, id string) (map[string]interface{}, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.db(db, false)
	if d == nil {
		return nil, false
	}
	doc, ok := d.docs[id]
	return doc, ok
}

// SetActiveTasks sets the tasks reported by _active_tasks, in addition to
// the continuous replications the server has received.
func (s *Server) SetActiveTasks(tasks ...cblite.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = tasks
}

// Replications returns the replication requests received so far.
func (s *Server) Replications() []Replication {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Replication(nil), s.replications...)
}

// db returns the named database, creating it if create is set, or nil.
// s.mu must be held.
func (s *Server) db(name string, create bool) *memDB {
	d, ok := s.dbs[name]
	if !ok && create {
		d = &memDB{docs: map[string]map[string]interface{}{}}
		s.dbs[name] = d
	}
	return d
}

// store writes doc as the next revision of id and returns that revision.
func (d *memDB) store(id string, doc map[string]interface{}) string {
	gen := 1
	if current, ok := d.docs[id]; ok {
		gen = revGeneration(current["_rev"]) + 1
	}
	d.seq++
	rev := fmt.Sprintf("%d-%016x", gen, d.seq)
	doc["_id"] = id
	doc["_rev"] = rev
	d.docs[id] = doc
	return rev
}

func revGeneration(rev interface{}) int {
	s, _ := rev.(string)
	prefix, _, _ := strings.Cut(s, "-")
	gen, _ := strconv.Atoi(prefix)
	return gen
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, kind, reason string) {
	writeJSON(w, status, map[string]string{"error": kind, "reason": reason})
}

func (s *Server) info(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"couchdb":       "Welcome",
		"CouchbaseLite": "Welcome",
		"version":       "cblitetest",
		"vendor":        map[string]string{"name": "cblitetest", "version": cblite.Version},
	})
}

func (s *Server) allDBs(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	names := make([]string, 0, len(s.dbs))
	for name := range s.dbs {
		names = append(names, name)
	}
	s.mu.Unlock()
	sort.Strings(names)
	writeJSON(w, http.StatusOK, names)
}

func (s *Server) activeTasks(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	tasks := append([]cblite.Task{}, s.tasks...)
	for _, rep := range s.replications {
		if rep.Continuous {
			tasks = append(tasks, cblite.Task{
				"type":       "Replication",
				"source":     rep.Source,
				"target":     rep.Target,
				"continuous": true,
			})
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) replicate(w http.ResponseWriter, r *http.Request) {
	var rep Replication
	if err := json.NewDecoder(r.Body).Decode(&rep); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if rep.Source == "" || rep.Target == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "source and target required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replications = append(s.replications, rep)
	// Documents are copied only between local databases.
	if src, dst := s.db(rep.Source, false), s.db(rep.Target, false); src != nil && dst != nil {
		for id, doc := range src.docs {
			if _, ok := dst.docs[id]; !ok {
				dst.docs[id] = doc
			}
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":         true,
		"session_id": fmt.Sprintf("session-%d", len(s.replications)),
	})
}

func (s *Server) dbInfo(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("db")
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.db(name, false)
	if d == nil {
		writeError(w, http.StatusNotFound, "not_found", "no_db_file")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"db_name":    name,
		"doc_count":  len(d.docs),
		"update_seq": d.seq,
	})
}

func (s *Server) createDB(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("db")
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db(name, false) != nil {
		writeError(w, http.StatusPreconditionFailed, "file_exists", "The database could not be created, the file already exists.")
		return
	}
	s.db(name, true)
	writeJSON(w, http.StatusCreated, map[string]bool{"ok": true})
}

func (s *Server) destroyDB(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("db")
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db(name, false) == nil {
		writeError(w, http.StatusNotFound, "not_found", "no_db_file")
		return
	}
	delete(s.dbs, name)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) postDoc(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.nextID++
	id := fmt.Sprintf("doc-%d", s.nextID)
	s.mu.Unlock()
	s.saveDoc(w, r, id)
}

func (s *Server) putDoc(w http.ResponseWriter, r *http.Request) {
	s.saveDoc(w, r, r.PathValue("doc"))
}

func (s *Server) saveDoc(w http.ResponseWriter, r *http.Request, id string) {
	var doc map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil || doc == nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid document")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.db(r.PathValue("db"), false)
	if d == nil {
		writeError(w, http.StatusNotFound, "not_found", "no_db_file")
		return
	}
	rev, _ := doc["_rev"].(string)
	current, exists := d.docs[id]
	if (exists && current["_rev"] != rev) || (!exists && rev != "") {
		writeError(w, http.StatusConflict, "conflict", "Document update conflict.")
		return
	}
	rev = d.store(id, doc)
	writeJSON(w, http.StatusCreated, cblite.Result{OK: true, ID: id, Rev: rev})
}

func (s *Server) getDoc(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.db(r.PathValue("db"), false)
	if d == nil {
		writeError(w, http.StatusNotFound, "not_found", "no_db_file")
		return
	}
	doc, ok := d.docs[r.PathValue("doc")]
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "missing")
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) deleteDoc(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("doc")
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.db(r.PathValue("db"), false)
	if d == nil {
		writeError(w, http.StatusNotFound, "not_found", "no_db_file")
		return
	}
	current, ok := d.docs[id]
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "missing")
		return
	}
	if current["_rev"] != r.URL.Query().Get("rev") {
		writeError(w, http.StatusConflict, "conflict", "Document update conflict.")
		return
	}
	delete(d.docs, id)
	d.seq++
	writeJSON(w, http.StatusOK, cblite.Result{OK: true, ID: id, Rev: fmt.Sprintf("%d-%016x", revGeneration(current["_rev"])+1, d.seq)})
}
