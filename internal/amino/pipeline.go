package amino

import (
	"github.com/inodb/vibe-hla/internal/fragment"
	"github.com/inodb/vibe-hla/internal/hla"
)

// Pipeline runs quality, splice and amino acid enrichment over a fixed set of
// nucleotide fragments. It holds no mutable state and may be used from
// several goroutines.
type Pipeline struct {
	minBaseQuality int
	minBaseCount   int
	fragments      []*fragment.Nucleotide
}

// NewPipeline creates a Pipeline over the given fragments.
func NewPipeline(minBaseQuality, minBaseCount int, fragments []*fragment.Nucleotide) *Pipeline {
	return &Pipeline{
		minBaseQuality: minBaseQuality,
		minBaseCount:   minBaseCount,
		fragments:      fragments,
	}
}

// Type processes the fragments tagged with the context's gene using the
// gene's own exon boundaries.
func (p *Pipeline) Type(ctx hla.GeneContext) []*fragment.AminoAcid {
	gene := ctx.Name()
	var geneSpecific []*fragment.Nucleotide
	for _, f := range p.fragments {
		if f.ContainsGene(gene) {
			geneSpecific = append(geneSpecific, f)
		}
	}
	return p.process(ctx.AminoAcidBoundaries, geneSpecific)
}

// Combined processes every fragment against boundaries pooled across genes.
func (p *Pipeline) Combined(boundaries []int) []*fragment.AminoAcid {
	return p.process(boundaries, p.fragments)
}

func (p *Pipeline) process(boundaries []int, fragments []*fragment.Nucleotide) []*fragment.AminoAcid {
	qual := QualEnrichment{MinBaseQuality: p.minBaseQuality, MinBaseCount: p.minBaseCount}
	splice := SpliceEnrichment{MinBaseQuality: p.minBaseQuality, MinBaseCount: p.minBaseCount, Boundaries: boundaries}
	aminoAcids := AminoAcidQualEnrichment{MinBaseQuality: p.minBaseQuality, MinEvidence: p.minBaseCount}

	enriched := aminoAcids.Enrich(splice.Enrich(qual.Enrich(fragments)))

	out := make([]*fragment.AminoAcid, len(enriched))
	for i, a := range enriched {
		out[i] = a.QualityFilter(p.minBaseQuality)
	}
	return out
}
