package candidates

import (
	"golang.org/x/exp/slices"

	"github.com/inodb/vibe-hla/internal/evidence"
	"github.com/inodb/vibe-hla/internal/hla"
)

// ByGene keeps the sequences of one gene (short name, e.g. "A").
func ByGene(s Set, gene string) Set {
	gene = hla.ShortGeneName(gene)
	return s.Filter(func(seq hla.SequenceLoci) bool {
		return seq.Allele.Gene == gene
	})
}

// matchesAt reports whether the candidate can explain the observed residues
// at locus. Sequences too short to reach the locus and wildcards always can.
func matchesAt(seq hla.SequenceLoci, locus int, observed []string) bool {
	if locus >= seq.Len() {
		return true
	}
	residue := seq.At(locus)
	return residue == hla.Wild || slices.Contains(observed, residue)
}

func filterLocus(s Set, locus int, observed []string) Set {
	if len(observed) == 0 {
		return s
	}
	return s.Filter(func(seq hla.SequenceLoci) bool {
		return matchesAt(seq, locus, observed)
	})
}

// FilterAminoAcids drops candidates whose residue at a non-boundary locus
// was not observed. Loci without any residue meeting the count threshold
// carry no evidence and are skipped.
func FilterAminoAcids(s Set, counts *evidence.SequenceCount, boundaries []int) Set {
	for locus := 0; locus < counts.Len(); locus++ {
		if slices.Contains(boundaries, locus) {
			continue
		}
		s = filterLocus(s, locus, counts.MinCountSequences(locus))
	}
	return s
}

// FilterBoundaryNucleotides drops nucleotide sequences inconsistent with the
// observed nucleotides of every codon at an exon boundary.
func FilterBoundaryNucleotides(s Set, counts *evidence.SequenceCount, boundaries []int) Set {
	for _, b := range boundaries {
		for locus := 3 * b; locus < 3*b+3; locus++ {
			s = filterLocus(s, locus, counts.MinCountSequences(locus))
		}
	}
	return s
}

// FilterPhased applies each evidence item in order, keeping the candidates
// carrying a supported combination at its loci.
func FilterPhased(s Set, phased []evidence.Phased) Set {
	for _, p := range phased {
		s = s.Filter(p.ConsistentWith)
	}
	return s
}

// FilterFourDigit keeps the candidates whose four-digit group is in groups.
func FilterFourDigit(s Set, groups map[hla.Allele]bool) Set {
	return s.Filter(func(seq hla.SequenceLoci) bool {
		return groups[seq.Allele.FourDigit()]
	})
}
