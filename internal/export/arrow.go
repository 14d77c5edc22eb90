package export

import (
	"os"
	"strconv"

	"github.com/apache/arrow/go/arrow"
	"github.com/apache/arrow/go/arrow/array"
	"github.com/apache/arrow/go/arrow/ipc"
	"github.com/apache/arrow/go/arrow/memory"
	"github.com/juju/errors"
)

var arrowAllocator = memory.NewGoAllocator()

// arrowSchema mirrors the CSV layout: gene_id then one float32 column per dimension
func arrowSchema(dim int) *arrow.Schema {
	fields := make([]arrow.Field, dim+1)
	fields[0] = arrow.Field{Name: IndexColumn, Type: arrow.BinaryTypes.String}
	for d := 0; d < dim; d++ {
		fields[d+1] = arrow.Field{Name: strconv.Itoa(d), Type: arrow.PrimitiveTypes.Float32}
	}
	return arrow.NewSchema(fields, nil)
}

func toRecord(t *Table) array.Record {
	b := array.NewRecordBuilder(arrowAllocator, arrowSchema(t.Dimensions))
	defer b.Release()

	b.Field(0).(*array.StringBuilder).AppendValues(t.Genes, nil)
	for d := 0; d < t.Dimensions; d++ {
		col := b.Field(d + 1).(*array.Float32Builder)
		col.Reserve(len(t.Vectors))
		for _, vec := range t.Vectors {
			col.Append(vec[d])
		}
	}
	return b.NewRecord()
}

func writeArrow(path string, t *Table) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Annotatef(err, "failed to create file")
	}
	defer f.Close()

	rec := toRecord(t)
	defer rec.Release()

	w, err := ipc.NewFileWriter(f, ipc.WithSchema(rec.Schema()), ipc.WithAllocator(arrowAllocator))
	if err != nil {
		return errors.Annotatef(err, "failed to create Arrow writer")
	}
	if err = w.Write(rec); err != nil {
		return errors.Annotatef(err, "failed to write Arrow file")
	}
	if err = w.Close(); err != nil {
		return errors.Annotatef(err, "failed to write Arrow file")
	}
	return errors.Trace(f.Close())
}
