package cblite

// Version is the current version of this package.
const Version = "1.0.0"

// Path templates for the server's REST endpoints. Placeholders are filled
// from request parameters; see chttp.Resource.
const (
	pathRoot        = ""
	pathActiveTasks = "/_active_tasks"
	pathAllDBs      = "/_all_dbs"
	pathReplicate   = "/_replicate"
	pathDB          = "/:db"
	pathChanges     = "/:db/_changes"
	pathCompact     = "/:db/_compact"
	pathAllDocs     = "/:db/_all_docs"
	pathPurge       = "/:db/_purge"
	pathBulkDocs    = "/:db/_bulk_docs"
	pathDoc         = "/:db/:doc"
	pathDesign      = "/:db/_design/:designId"
	pathView        = "/:db/_design/:designId/_view/:id"
)

// Well-known document fields.
const (
	fieldID  = "_id"
	fieldRev = "_rev"
)

// systemDBPrefix marks reserved databases such as _replicator and _users.
const systemDBPrefix = "_"

// defaultLanguage is the language assigned to design documents which do not
// specify one.
const defaultLanguage = "javascript"

// userAgent identifies this package in the User-Agent header.
const userAgent = "cblite/" + Version
