// Package reference loads HLA reference allele panels.
//
// A panel file holds one allele per line as "allele,sequence" in aligned
// form. The first allele is the reference the others are aligned against.
// An optional "Allele,Sequence" header is skipped, and gzipped files are read
// transparently.
package reference

import (
	"fmt"
	"os"
	"strings"

	"github.com/vertgenlab/gonomics/fileio"

	"github.com/inodb/vibe-hla/internal/hla"
)

// Panel is the full set of reference sequences for a typing run.
type Panel struct {
	AminoAcids  []hla.SequenceLoci
	Nucleotides []hla.SequenceLoci
}

// Inserts returns the amino acid sequences that carry an insertion.
func (p *Panel) Inserts() []hla.SequenceLoci {
	var out []hla.SequenceLoci
	for _, s := range p.AminoAcids {
		if s.ContainsInserts() {
			out = append(out, s)
		}
	}
	return out
}

// Deletes returns the amino acid sequences that carry a deletion.
func (p *Panel) Deletes() []hla.SequenceLoci {
	var out []hla.SequenceLoci
	for _, s := range p.AminoAcids {
		if s.ContainsDeletes() {
			out = append(out, s)
		}
	}
	return out
}

// Genes returns the distinct genes of the amino acid panel in first-seen order.
func (p *Panel) Genes() []string {
	seen := make(map[string]bool)
	var genes []string
	for _, s := range p.AminoAcids {
		if !seen[s.Allele.Gene] {
			seen[s.Allele.Gene] = true
			genes = append(genes, s.Allele.Gene)
		}
	}
	return genes
}

// Load reads amino acid and nucleotide panel files.
func Load(aminoAcidFiles, nucleotideFiles []string) (*Panel, error) {
	p := &Panel{}
	for _, path := range aminoAcidFiles {
		seqs, err := ReadFile(path)
		if err != nil {
			return nil, err
		}
		p.AminoAcids = append(p.AminoAcids, seqs...)
	}
	for _, path := range nucleotideFiles {
		seqs, err := ReadFile(path)
		if err != nil {
			return nil, err
		}
		p.Nucleotides = append(p.Nucleotides, seqs...)
	}
	return p, nil
}

// ReadFile parses one panel file.
func ReadFile(path string) ([]hla.SequenceLoci, error) {
	// fileio aborts the process on open failure, so check first.
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open panel: %w", err)
	}

	f := fileio.EasyOpen(path)
	defer f.Close()

	var seqs []hla.SequenceLoci
	var reference string
	lineNo := 0
	for line, done := fileio.EasyNextRealLine(f); !done; line, done = fileio.EasyNextRealLine(f) {
		lineNo++
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		name, sequence, ok := strings.Cut(line, ",")
		if !ok {
			return nil, fmt.Errorf("parse panel %s line %d: missing sequence", path, lineNo)
		}
		name = strings.Trim(strings.TrimSpace(name), `"`)
		sequence = strings.Trim(strings.TrimSpace(sequence), `"`)
		if strings.EqualFold(name, "allele") {
			continue
		}

		allele, err := hla.ParseAllele(name)
		if err != nil {
			return nil, fmt.Errorf("parse panel %s line %d: %w", path, lineNo, err)
		}
		if reference == "" {
			reference = sequence
		}
		seqs = append(seqs, hla.BuildSequenceLoci(allele, sequence, reference))
	}
	return seqs, nil
}
