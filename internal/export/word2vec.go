package export

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/juju/errors"
)

// writeWord2Vec writes the original word2vec binary layout: a "N D" header,
// then per gene its id, a space, D little-endian float32 values and a newline.
func writeWord2Vec(path string, t *Table) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Annotatef(err, "failed to create file")
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	if err := EncodeWord2Vec(w, t); err != nil {
		return errors.Trace(err)
	}
	if err := w.Flush(); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(file.Close())
}

// EncodeWord2Vec writes t in word2vec binary form to w
func EncodeWord2Vec(w io.Writer, t *Table) error {
	if _, err := fmt.Fprintf(w, "%d %d\n", len(t.Genes), t.Dimensions); err != nil {
		return errors.Trace(err)
	}
	buf := make([]byte, 4*t.Dimensions)
	for i, gene := range t.Genes {
		if strings.ContainsAny(gene, " \n") {
			return errors.NotValidf("gene id %q for word2vec format", gene)
		}
		for d, v := range t.Vectors[i] {
			binary.LittleEndian.PutUint32(buf[4*d:], math.Float32bits(v))
		}
		if _, err := io.WriteString(w, gene+" "); err != nil {
			return errors.Trace(err)
		}
		if _, err := w.Write(buf); err != nil {
			return errors.Trace(err)
		}
		if _, err := io.WriteString(w, "\n"); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

// DecodeWord2Vec reads a table written by EncodeWord2Vec
func DecodeWord2Vec(r io.Reader) (*Table, error) {
	br := bufio.NewReader(r)
	var n, dim int
	if _, err := fmt.Fscanf(br, "%d %d\n", &n, &dim); err != nil {
		return nil, errors.Annotatef(err, "failed to read word2vec header")
	}

	t := &Table{Dimensions: dim, Genes: make([]string, 0, n), Vectors: make([][]float32, 0, n)}
	buf := make([]byte, 4*dim)
	for i := 0; i < n; i++ {
		gene, err := br.ReadString(' ')
		if err != nil {
			return nil, errors.Annotatef(err, "failed to read word %d", i)
		}
		if _, err := io.ReadFull(br, buf); err != nil {
			return nil, errors.Annotatef(err, "failed to read vector %d", i)
		}
		vec := make([]float32, dim)
		for d := range vec {
			vec[d] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*d:]))
		}
		if b, err := br.ReadByte(); err == nil && b != '\n' {
			if err := br.UnreadByte(); err != nil {
				return nil, errors.Trace(err)
			}
		}
		t.Genes = append(t.Genes, strings.TrimSpace(gene))
		t.Vectors = append(t.Vectors, vec)
	}
	return t, nil
}
