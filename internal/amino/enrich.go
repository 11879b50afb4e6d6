// Package amino turns nucleotide fragments into quality-checked amino acid fragments.
package amino

import (
	"golang.org/x/exp/slices"

	"github.com/inodb/vibe-hla/internal/evidence"
	"github.com/inodb/vibe-hla/internal/fragment"
)

// QualEnrichment rescues low quality calls that agree with nucleotides seen
// often enough at high quality. Other low quality calls are left as they are
// so a later quality filter removes them.
type QualEnrichment struct {
	MinBaseQuality int
	MinBaseCount   int
}

// Enrich returns the fragments with supported low quality calls raised to
// MinBaseQuality.
func (e QualEnrichment) Enrich(fragments []*fragment.Nucleotide) []*fragment.Nucleotide {
	highQuality := make([]*fragment.Nucleotide, len(fragments))
	for i, f := range fragments {
		highQuality[i] = f.QualityFilter(e.MinBaseQuality)
	}
	counts := evidence.NucleotideCounts(e.MinBaseCount, highQuality)

	out := make([]*fragment.Nucleotide, len(fragments))
	for i, f := range fragments {
		out[i] = e.enrich(f, counts)
	}
	return out
}

func (e QualEnrichment) enrich(f *fragment.Nucleotide, counts *evidence.SequenceCount) *fragment.Nucleotide {
	quals := append([]int(nil), f.Qualities...)
	changed := false
	for i, locus := range f.Loci {
		if quals[i] >= e.MinBaseQuality {
			continue
		}
		if slices.Contains(counts.MinCountSequences(locus), f.Nucleotides[i]) {
			quals[i] = e.MinBaseQuality
			changed = true
		}
	}
	if !changed {
		return f
	}
	return fragment.NewNucleotide(f.ID, f.Genes, f.Loci, quals, f.Nucleotides)
}

// SpliceEnrichment completes codons that straddle an exon boundary. A read
// ending or starting at a junction covers only part of the boundary codon;
// where the population is homozygous at the missing bases, they are filled in.
type SpliceEnrichment struct {
	MinBaseQuality int
	MinBaseCount   int
	Boundaries     []int // amino acid loci
}

// Enrich returns the fragments with boundary codons completed.
func (e SpliceEnrichment) Enrich(fragments []*fragment.Nucleotide) []*fragment.Nucleotide {
	filtered := make([]*fragment.Nucleotide, len(fragments))
	for i, f := range fragments {
		filtered[i] = f.QualityFilter(e.MinBaseQuality)
	}
	counts := evidence.NucleotideCounts(e.MinBaseCount, filtered)

	homozygous := make(map[int]string)
	for _, locus := range counts.HomozygousLoci() {
		homozygous[locus] = counts.MinCountSequences(locus)[0]
	}

	out := make([]*fragment.Nucleotide, len(fragments))
	for i, f := range fragments {
		out[i] = e.enrich(f, homozygous)
	}
	return out
}

func (e SpliceEnrichment) enrich(f *fragment.Nucleotide, homozygous map[int]string) *fragment.Nucleotide {
	for _, boundary := range e.Boundaries {
		start := 3 * boundary
		has := func(locus int) bool { return f.ContainsNucleotide(locus) }

		switch {
		case !has(start) && has(start+1) && has(start+2):
			if n, ok := homozygous[start]; ok {
				f = f.Enrich(start, n, e.MinBaseQuality)
			}
		case has(start) && !has(start+1) && !has(start+2):
			n1, ok1 := homozygous[start+1]
			n2, ok2 := homozygous[start+2]
			if ok1 && ok2 {
				f = f.Enrich(start+1, n1, e.MinBaseQuality)
				f = f.Enrich(start+2, n2, e.MinBaseQuality)
			}
		}
	}
	return f
}

// AminoAcidQualEnrichment translates fragments and keeps only residues that
// high quality fragments observe often enough.
type AminoAcidQualEnrichment struct {
	MinBaseQuality int
	MinEvidence    int
}

// Enrich translates the fragments and drops unsupported residues.
func (e AminoAcidQualEnrichment) Enrich(fragments []*fragment.Nucleotide) []*fragment.AminoAcid {
	translated := make([]*fragment.AminoAcid, len(fragments))
	highQuality := make([]*fragment.AminoAcid, len(fragments))
	for i, f := range fragments {
		translated[i] = fragment.Translate(f)
		highQuality[i] = fragment.Translate(f.QualityFilter(e.MinBaseQuality))
	}
	counts := evidence.AminoAcidCounts(e.MinEvidence, highQuality)

	out := make([]*fragment.AminoAcid, len(translated))
	for i, a := range translated {
		out[i] = a.Filter(func(locus int, residue string) bool {
			return slices.Contains(counts.MinCountSequences(locus), residue)
		})
	}
	return out
}
