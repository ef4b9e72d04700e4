// Package report renders a CompsizeStat to the exact text format the
// compsize utility itself produces, so existing tooling that parses
// compsize's stdout keeps working unmodified.
package report

import (
	"fmt"
	"io"

	"github.com/tarragon-labs/compsize/internal/aggregator"
	"github.com/tarragon-labs/compsize/internal/btrfs"
	"github.com/tarragon-labs/compsize/internal/scale"
)

var compressionNames = [btrfs.NumCompression]string{
	btrfs.None: "none",
	btrfs.Zlib: "zlib",
	btrfs.Lzo:  "lzo",
	btrfs.Zstd: "zstd",
}

const (
	colType = 10
	colPerc = 8
	colDisk = 12
	colUnc  = 12
	colRef  = 12
)

// Write renders stat at the given scale to w, matching compsize's column
// widths and row ordering exactly. It reports the "No Files." /
// "All empty or still-delalloced files." edge case via the returned bool:
// when false, nothing was written to w and the caller should print the
// accompanying diagnostic to stderr instead.
func Write(w io.Writer, stat aggregator.CompsizeStat, sc scale.Scale) (wrote bool, err error) {
	if stat.TotalUncomp() == 0 {
		return false, nil
	}

	if _, err := fmt.Fprintf(w, "Processed %d files, %d regular extents (%d refs), %d inline.\n",
		stat.NFile, stat.NExtent, stat.NRef, stat.NInline); err != nil {
		return false, err
	}

	if err := writeRow(w, "Type", "Perc", "Disk Usage", "Uncompressed", "Referenced"); err != nil {
		return false, err
	}

	total := totalRow(stat)
	if err := writeStatRow(w, "TOTAL", total, sc); err != nil {
		return false, err
	}

	for i, name := range compressionNames {
		s := stat.PerComp[i]
		if s.IsEmpty() {
			continue
		}
		if err := writeStatRow(w, name, s, sc); err != nil {
			return false, err
		}
	}

	if !stat.Prealloc.IsEmpty() {
		if err := writeStatRow(w, "prealloc", stat.Prealloc, sc); err != nil {
			return false, err
		}
	}

	return true, nil
}

func totalRow(stat aggregator.CompsizeStat) btrfs.ExtentStat {
	var total btrfs.ExtentStat
	total.Add(stat.Prealloc)
	for _, s := range stat.PerComp {
		total.Add(s)
	}
	return total
}

func writeRow(w io.Writer, typ, perc, disk, unc, ref string) error {
	_, err := fmt.Fprintf(w, "%-*s %-*s %-*s %-*s %-*s\n",
		colType, typ, colPerc, perc, colDisk, disk, colUnc, unc, colRef, ref)
	return err
}

func writeStatRow(w io.Writer, name string, s btrfs.ExtentStat, sc scale.Scale) error {
	perc := "-"
	if !s.IsEmpty() {
		perc = fmt.Sprintf("%3d%%", s.Percent())
	}
	return writeRow(w, name, perc,
		scale.Format(sc, s.Disk), scale.Format(sc, s.Uncomp), scale.Format(sc, s.Refd))
}
