package export

import (
	"github.com/juju/errors"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/writer"
)

const parquetGoRoutines int64 = 4

// VectorValue is a dense embedding stored as a parquet LIST
type VectorValue []float64

// ParquetRow is one gene of a parquet embedding table
type ParquetRow struct {
	GeneID string      `parquet:"name=gene_id, type=UTF8"`
	Vector VectorValue `parquet:"name=vector, type=LIST, valuetype=DOUBLE"`
}

func writeParquet(path string, t *Table) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return errors.Annotatef(err, "failed to create file")
	}
	defer fw.Close()

	pw, err := writer.NewParquetWriter(fw, new(ParquetRow), parquetGoRoutines)
	if err != nil {
		return errors.Annotatef(err, "failed to create parquet writer")
	}
	for i, gene := range t.Genes {
		vec := make(VectorValue, len(t.Vectors[i]))
		for d, v := range t.Vectors[i] {
			vec[d] = float64(v)
		}
		if err := pw.Write(ParquetRow{GeneID: gene, Vector: vec}); err != nil {
			return errors.Annotatef(err, "failed to write parquet row %d", i)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return errors.Annotatef(err, "parquet WriteStop error")
	}
	return errors.Trace(fw.Close())
}
