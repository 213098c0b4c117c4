// Command cblite talks to a Couchbase Lite or CouchDB REST listener.
package main

import (
	"os"

	"github.com/go-kivik/cblite/internal/cmd"
)

func main() {
	os.Exit(cmd.Main(os.Args))
}
