// Package output provides typing result formatters.
package output

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/inodb/vibe-hla/internal/candidates"
	"github.com/inodb/vibe-hla/internal/evidence"
	"github.com/inodb/vibe-hla/internal/hla"
)

// Count table kinds, as they appear in file names.
const (
	AminoAcids  = "aminoacids"
	Nucleotides = "nucleotides"
)

// CountTablePath returns the path of a gene's count table,
// e.g. "out/S1.aminoacids.HLA-A.count.txt".
func CountTablePath(prefix, kind, gene string) string {
	return fmt.Sprintf("%s.%s.%s.count.txt", prefix, kind, hla.LongGeneName(gene))
}

// CountWriter writes a SequenceCount vertically: one line per locus holding
// the locus followed by up to six residue/count pairs, most frequent first.
// There is no header.
type CountWriter struct {
	w *bufio.Writer
}

// NewCountWriter creates a new count table writer.
func NewCountWriter(w io.Writer) *CountWriter {
	return &CountWriter{w: bufio.NewWriter(w)}
}

// Write writes every locus of counts.
func (cw *CountWriter) Write(counts *evidence.SequenceCount) error {
	for _, row := range counts.Rows() {
		values := make([]string, 0, 1+2*len(row.Residues))
		values = append(values, strconv.Itoa(row.Locus))
		for _, rc := range row.Residues {
			values = append(values, rc.Residue, strconv.Itoa(rc.Count))
		}
		if _, err := cw.w.WriteString(strings.Join(values, "\t") + "\n"); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes any buffered data to the underlying writer.
func (cw *CountWriter) Flush() error {
	return cw.w.Flush()
}

// WriteCountFile writes counts to a new file at path.
func WriteCountFile(path string, counts *evidence.SequenceCount) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create count table: %w", err)
	}

	cw := NewCountWriter(f)
	if err := cw.Write(counts); err != nil {
		f.Close()
		return fmt.Errorf("write count table %s: %w", path, err)
	}
	if err := cw.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("write count table %s: %w", path, err)
	}
	return f.Close()
}

// CandidateWriter writes the candidates of every resolution stage in
// tab-delimited format, one allele per line.
type CandidateWriter struct {
	w       *bufio.Writer
	columns []string
}

// NewCandidateWriter creates a new candidate table writer.
func NewCandidateWriter(w io.Writer) *CandidateWriter {
	return &CandidateWriter{
		w:       bufio.NewWriter(w),
		columns: []string{"#Gene", "Stage", "Allele"},
	}
}

// WriteHeader writes the header line.
func (cw *CandidateWriter) WriteHeader() error {
	_, err := cw.w.WriteString(strings.Join(cw.columns, "\t") + "\n")
	return err
}

// Write writes every stage of one gene's result.
func (cw *CandidateWriter) Write(r candidates.Result) error {
	gene := hla.LongGeneName(r.Gene)
	for i, set := range r.Stages {
		stage := candidates.Stage(i).String()
		for _, allele := range set.Alleles() {
			if _, err := cw.w.WriteString(gene + "\t" + stage + "\t" + allele.String() + "\n"); err != nil {
				return err
			}
		}
	}
	return nil
}

// Flush flushes any buffered data to the underlying writer.
func (cw *CandidateWriter) Flush() error {
	return cw.w.Flush()
}
