// Package explain implements the optional `compsize explain` diagnostic:
// a secondary per-argument breakdown of disk usage, computed in an
// ephemeral in-memory SQLite database that is never written to disk and
// vanishes with the process.
package explain

import (
	"database/sql"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/tarragon-labs/compsize/internal/btrfs"

	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE contrib (
	arg    TEXT    NOT NULL,
	comp   INTEGER NOT NULL,
	disk   INTEGER NOT NULL,
	uncomp INTEGER NOT NULL
)`

// Explainer accumulates per-reference contributions tagged by their
// top-level CLI argument and reports a GROUP BY breakdown on request.
//
// A single connection is pinned for the lifetime of the Explainer: an
// in-memory SQLite database lives only as long as the connection that
// created it, and database/sql's pool would otherwise hand out a second,
// empty database to a concurrent caller.
type Explainer struct {
	db *sql.DB
}

// New opens an ephemeral :memory: database and prepares its schema.
// Callers must call Close exactly once.
func New() (*Explainer, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("explain: open: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("explain: init schema: %w", err)
	}
	return &Explainer{db: db}, nil
}

// Insert records one reference's contribution. Safe to call concurrently
// from every Worker; the pinned single connection serializes writes.
//
// Errors from the underlying insert are ignored: explain is a diagnostic
// side channel that must never be able to fail a run. disk and uncomp are
// recorded once per reference, so an extent shared by several references
// is counted once for each of them here, whereas the canonical report
// counts its Disk and Uncompressed bytes only once.
func (e *Explainer) Insert(arg string, comp btrfs.Compression, disk, uncomp uint64) {
	e.db.Exec(`INSERT INTO contrib (arg, comp, disk, uncomp) VALUES (?, ?, ?, ?)`, arg, int(comp), int64(disk), int64(uncomp))
}

// Close releases the database. Call only after every Worker has stopped
// calling Insert and after Report has run.
func (e *Explainer) Close() {
	e.db.Close()
}

// Report prints the per-argument breakdown, ordered by disk usage
// descending, to w. Callers must call this only after every Worker has
// finished inserting.
func (e *Explainer) Report(w io.Writer) error {
	rows, err := e.db.Query(`
		SELECT arg, comp, SUM(disk), SUM(uncomp)
		FROM contrib
		GROUP BY arg, comp
		ORDER BY SUM(disk) DESC
	`)
	if err != nil {
		return fmt.Errorf("explain: query: %w", err)
	}
	defer rows.Close()

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Argument\tCompression\tDisk\tUncompressed")
	for rows.Next() {
		var arg string
		var comp int
		var disk, uncomp int64
		if err := rows.Scan(&arg, &comp, &disk, &uncomp); err != nil {
			return fmt.Errorf("explain: scan: %w", err)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", arg, btrfs.Compression(comp), disk, uncomp)
	}
	return tw.Flush()
}
