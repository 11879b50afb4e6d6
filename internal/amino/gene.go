package amino

import (
	"math"

	"github.com/inodb/vibe-hla/internal/fragment"
	"github.com/inodb/vibe-hla/internal/hla"
)

// GeneEnrichment tags a fragment aligned to one gene with every other gene
// whose exon boundaries match its own up to the fragment's last locus. Such a
// fragment cannot tell those genes apart, so each gene is typed with it.
type GeneEnrichment struct {
	// limits[gene][other] is the first nucleotide locus at which the exon
	// boundaries of the two genes differ.
	limits map[string]map[string]int
}

// NewGeneEnrichment compares the exon boundaries of every pair of contexts.
func NewGeneEnrichment(contexts ...hla.GeneContext) GeneEnrichment {
	e := GeneEnrichment{limits: make(map[string]map[string]int)}
	for _, c := range contexts {
		row := make(map[string]int)
		for _, o := range contexts {
			if o.Gene != c.Gene {
				row[o.Name()] = firstDifference(nucleotideBoundaries(c), nucleotideBoundaries(o))
			}
		}
		e.limits[c.Name()] = row
	}
	return e
}

// Enrich returns the fragments with the indistinguishable genes added.
func (e GeneEnrichment) Enrich(fragments []*fragment.Nucleotide) []*fragment.Nucleotide {
	out := make([]*fragment.Nucleotide, len(fragments))
	for i, f := range fragments {
		out[i] = e.enrich(f)
	}
	return out
}

func (e GeneEnrichment) enrich(f *fragment.Nucleotide) *fragment.Nucleotide {
	if len(f.Genes) != 1 {
		return f
	}
	genes := append([]string(nil), f.Genes...)
	for other, limit := range e.limits[f.Genes[0]] {
		if f.MaxLocus() < limit {
			genes = append(genes, other)
		}
	}
	if len(genes) == 1 {
		return f
	}
	return fragment.NewNucleotide(f.ID, genes, f.Loci, f.Qualities, f.Nucleotides)
}

func nucleotideBoundaries(c hla.GeneContext) map[int]bool {
	loci := make(map[int]bool, 3*len(c.AminoAcidBoundaries))
	for _, b := range c.AminoAcidBoundaries {
		loci[3*b] = true
		loci[3*b+1] = true
		loci[3*b+2] = true
	}
	return loci
}

// firstDifference returns the lowest locus in exactly one of a and b, or
// math.MaxInt when they are equal.
func firstDifference(a, b map[int]bool) int {
	first := math.MaxInt
	for locus := range a {
		if !b[locus] && locus < first {
			first = locus
		}
	}
	for locus := range b {
		if !a[locus] && locus < first {
			first = locus
		}
	}
	return first
}
