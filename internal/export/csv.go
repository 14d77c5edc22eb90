package export

import (
	"bufio"
	"encoding/csv"
	"os"
	"strconv"

	"github.com/juju/errors"
)

// writeCSV writes a header row "gene_id,0,1,...,D-1" followed by one row per gene
func writeCSV(path string, t *Table) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Annotatef(err, "failed to create file")
	}
	defer file.Close()

	buf := bufio.NewWriter(file)
	w := csv.NewWriter(buf)

	record := make([]string, t.Dimensions+1)
	record[0] = IndexColumn
	for d := 0; d < t.Dimensions; d++ {
		record[d+1] = strconv.Itoa(d)
	}
	if err := w.Write(record); err != nil {
		return errors.Trace(err)
	}

	for i, gene := range t.Genes {
		record[0] = gene
		for d, v := range t.Vectors[i] {
			record[d+1] = formatValue(v)
		}
		if err := w.Write(record); err != nil {
			return errors.Trace(err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return errors.Trace(err)
	}
	if err := buf.Flush(); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(file.Close())
}
