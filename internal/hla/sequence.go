package hla

import (
	"sort"
	"strings"
)

const (
	// Wild marks a locus whose residue is unknown in the reference panel.
	Wild = "*"
	// Deletion marks a locus absent from an allele.
	Deletion = "."

	sameAsReference = '-'
	exonMarker      = "|"
)

// SequenceLoci is a reference allele sequence indexed by locus. Each locus
// holds one residue, several residues when the allele carries an insertion
// after it, "." when the allele deletes it, or "*" when it is unknown.
//
// Values are built once when the panel is loaded and are only read afterwards.
type SequenceLoci struct {
	Allele Allele

	sequences []string
	sequence  string // concatenated residues, deletions dropped
	offsets   []int  // offsets[i] = position of locus i within sequence
}

// NewSequenceLoci builds a SequenceLoci from per-locus residues.
func NewSequenceLoci(allele Allele, sequences []string) SequenceLoci {
	s := SequenceLoci{
		Allele:    allele,
		sequences: append([]string(nil), sequences...),
		offsets:   make([]int, len(sequences)),
	}

	var b strings.Builder
	for i, seq := range s.sequences {
		s.offsets[i] = b.Len()
		if seq != Deletion {
			b.WriteString(seq)
		}
	}
	s.sequence = b.String()
	return s
}

// BuildSequenceLoci converts a row of an aligned reference panel into loci.
// In the aligned form '-' means "same as reference", '.' where the reference
// has a residue is a deletion, residues where the reference has '.' are
// insertions and attach to the preceding locus, and '|' separates exons.
func BuildSequenceLoci(allele Allele, sequence, reference string) SequenceLoci {
	seq := strings.ReplaceAll(sequence, exonMarker, "")
	ref := strings.ReplaceAll(reference, exonMarker, "")

	var loci []string
	for i := 0; i < len(seq); i++ {
		c := seq[i]
		refGap := i >= len(ref) || ref[i] == '.'

		if refGap {
			if c == '.' || c == sameAsReference {
				continue
			}
			if len(loci) == 0 {
				loci = append(loci, string(c))
			} else {
				loci[len(loci)-1] += string(c)
			}
			continue
		}

		switch c {
		case sameAsReference:
			loci = append(loci, string(ref[i]))
		case '.':
			loci = append(loci, Deletion)
		default:
			loci = append(loci, string(c))
		}
	}

	return NewSequenceLoci(allele, loci)
}

// Len returns the number of loci.
func (s SequenceLoci) Len() int {
	return len(s.sequences)
}

// At returns the residues at a locus. It panics if the locus is out of range.
func (s SequenceLoci) At(locus int) string {
	return s.sequences[locus]
}

// Sequences returns the per-locus residues. The slice must not be modified.
func (s SequenceLoci) Sequences() []string {
	return s.sequences
}

// Sequence returns the contiguous residue string with deletions removed.
func (s SequenceLoci) Sequence() string {
	return s.sequence
}

// LocusAtOffset maps an offset in Sequence() to the locus whose residues
// start there. Offsets falling inside an inserted run have no locus.
func (s SequenceLoci) LocusAtOffset(offset int) (int, bool) {
	i := sort.SearchInts(s.offsets, offset)
	for ; i < len(s.offsets) && s.offsets[i] == offset; i++ {
		if s.sequences[i] != Deletion {
			return i, true
		}
	}
	return 0, false
}

// ContainsInserts reports whether any locus holds more than one residue.
func (s SequenceLoci) ContainsInserts() bool {
	for _, seq := range s.sequences {
		if len(seq) > 1 {
			return true
		}
	}
	return false
}

// ContainsDeletes reports whether any locus is deleted.
func (s SequenceLoci) ContainsDeletes() bool {
	for _, seq := range s.sequences {
		if seq == Deletion {
			return true
		}
	}
	return false
}

// ContainsIndels reports whether the allele has an insertion or a deletion.
func (s SequenceLoci) ContainsIndels() bool {
	return s.ContainsInserts() || s.ContainsDeletes()
}

// ConsistentWith reports whether the allele carries the given residues at the
// given loci. Wildcards match anything and loci past the end of the sequence
// are not held against it.
func (s SequenceLoci) ConsistentWith(residues []string, loci []int) bool {
	for i, locus := range loci {
		if locus >= len(s.sequences) {
			continue
		}
		seq := s.sequences[locus]
		if seq != Wild && seq != residues[i] {
			return false
		}
	}
	return true
}

// ConsistentWithAny reports whether any of the observed combinations is
// consistent with the allele.
func (s SequenceLoci) ConsistentWithAny(observed [][]string, loci []int) bool {
	for _, residues := range observed {
		if s.ConsistentWith(residues, loci) {
			return true
		}
	}
	return false
}
