// Package export writes per-gene embedding tables to disk.
package export

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/juju/errors"
)

// IndexColumn names the identifier column of every tabular format
const IndexColumn = "gene_id"

// Format is an on-disk table encoding
type Format string

const (
	FormatCSV      Format = "csv"
	FormatParquet  Format = "parquet"
	FormatArrow    Format = "arrow"
	FormatWord2Vec Format = "word2vec"
)

// Formats lists the supported encodings
var Formats = []Format{FormatCSV, FormatParquet, FormatArrow, FormatWord2Vec}

// ParseFormat validates a format name; the empty string is allowed and
// means "infer from the output path".
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if f == "" {
		return "", nil
	}
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", errors.NotValidf("output format %q", s)
}

// FormatFor infers a format from the output file extension
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet", ".pq":
		return FormatParquet
	case ".arrow", ".feather":
		return FormatArrow
	case ".bin", ".w2v":
		return FormatWord2Vec
	default:
		return FormatCSV
	}
}

// Table is one embedding row per gene
type Table struct {
	Dimensions int
	Genes      []string
	Vectors    [][]float32
}

// Shape returns (rows, columns) excluding the index column
func (t *Table) Shape() (int, int) {
	return len(t.Genes), t.Dimensions
}

// Validate checks that every row has a gene and exactly Dimensions values
func (t *Table) Validate() error {
	if len(t.Genes) != len(t.Vectors) {
		return errors.NotValidf("table with %d genes and %d vectors", len(t.Genes), len(t.Vectors))
	}
	for i, v := range t.Vectors {
		if len(v) != t.Dimensions {
			return errors.NotValidf("vector for %q of length %d (want %d)", t.Genes[i], len(v), t.Dimensions)
		}
	}
	return nil
}

// Write encodes t to path. An empty format is inferred from the path.
func Write(path string, format Format, t *Table) error {
	if err := t.Validate(); err != nil {
		return errors.Trace(err)
	}
	if format == "" {
		format = FormatFor(path)
	}

	var err error
	switch format {
	case FormatCSV:
		err = writeCSV(path, t)
	case FormatParquet:
		err = writeParquet(path, t)
	case FormatArrow:
		err = writeArrow(path, t)
	case FormatWord2Vec:
		err = writeWord2Vec(path, t)
	default:
		return errors.NotValidf("output format %q", format)
	}
	return errors.Annotatef(err, "failed to write %s", format)
}

// formatValue renders a float32 in its shortest round-trip form
func formatValue(v float32) string {
	return strconv.FormatFloat(float64(v), 'g', -1, 32)
}
