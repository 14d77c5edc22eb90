// Package edgelist reads gene-interaction edge lists from tab-separated files.
//
// Identifiers are kept exactly as written. Numeric-looking ids are not
// normalised ("007" and "7" are different genes) and quote characters are
// part of the id (`"A"` is not `A`). Outputs therefore differ from tools
// that coerce columns while parsing, such as pandas.read_csv.
package edgelist

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/juju/errors"
)

// DefaultNAValues are the field values treated as missing.
var DefaultNAValues = []string{
	"", "#N/A", "#N/A N/A", "#NA", "-1.#IND", "-1.#QNAN", "-NaN", "-nan",
	"1.#IND", "1.#QNAN", "<NA>", "N/A", "NA", "NULL", "NaN", "None", "n/a",
	"nan", "null",
}

// Edge is an interaction between two genes, as read from the file.
type Edge struct {
	Source string
	Target string
}

// Options controls parsing.
type Options struct {
	// NAValues overrides DefaultNAValues when non-nil. The empty field is
	// always missing.
	NAValues []string
	// MaxLineBytes bounds a single row; 0 means 1 MiB.
	MaxLineBytes int
}

// Result is the deduplicated edge collection plus parsing counters.
type Result struct {
	Edges          []Edge
	Rows           int
	DroppedMissing int
	Duplicates     int
}

// Load reads the edge list at path.
func Load(path string, opts Options) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Annotatef(err, "failed to open edge list")
	}
	defer f.Close()

	res, err := Read(f, opts)
	if err != nil {
		return nil, errors.Annotatef(err, "failed to read %s", path)
	}
	return res, nil
}

// Read parses an edge list: rows with a missing source or target are
// dropped and exact duplicate pairs keep their first occurrence.
func Read(r io.Reader, opts Options) (*Result, error) {
	na := make(map[string]struct{})
	naValues := opts.NAValues
	if naValues == nil {
		naValues = DefaultNAValues
	}
	for _, v := range naValues {
		na[v] = struct{}{}
	}
	na[""] = struct{}{}

	maxLine := opts.MaxLineBytes
	if maxLine <= 0 {
		maxLine = 1 << 20
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)

	res := &Result{Edges: make([]Edge, 0)}
	seen := make(map[Edge]struct{})
	sawData := false

	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		sawData = true
		res.Rows++

		fields := strings.SplitN(line, "\t", 3)
		if len(fields) < 2 {
			res.DroppedMissing++
			continue
		}
		_, srcMissing := na[fields[0]]
		_, dstMissing := na[fields[1]]
		if srcMissing || dstMissing {
			res.DroppedMissing++
			continue
		}

		e := Edge{Source: fields[0], Target: fields[1]}
		if _, dup := seen[e]; dup {
			res.Duplicates++
			continue
		}
		seen[e] = struct{}{}
		res.Edges = append(res.Edges, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Trace(err)
	}
	if !sawData {
		return nil, errors.New("no columns to parse from file")
	}

	return res, nil
}
