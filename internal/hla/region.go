package hla

import (
	"fmt"
	"sort"

	"golang.org/x/exp/slices"
)

// Exon is a coding exon in genomic coordinates (1-based, inclusive).
type Exon struct {
	Start int
	End   int
}

// Len returns the number of bases in the exon.
func (e Exon) Len() int {
	return e.End - e.Start + 1
}

// GeneRegion describes the coding exons of one HLA gene.
type GeneRegion struct {
	Name   string // long gene name, e.g. HLA-A
	Chrom  string
	Strand int8 // +1 or -1
	Exons  []Exon
}

// NewGeneRegion validates and normalises a gene region. Exons are stored in
// ascending genomic order regardless of strand.
func NewGeneRegion(name, chrom string, strand int8, exons []Exon) (*GeneRegion, error) {
	if strand != 1 && strand != -1 {
		return nil, fmt.Errorf("gene %s: invalid strand %d", name, strand)
	}
	if len(exons) == 0 {
		return nil, fmt.Errorf("gene %s: no exons", name)
	}

	sorted := append([]Exon(nil), exons...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })
	for i, e := range sorted {
		if e.End < e.Start {
			return nil, fmt.Errorf("gene %s: exon %d-%d ends before it starts", name, e.Start, e.End)
		}
		if i > 0 && e.Start <= sorted[i-1].End {
			return nil, fmt.Errorf("gene %s: exon %d-%d overlaps previous exon", name, e.Start, e.End)
		}
	}

	return &GeneRegion{Name: LongGeneName(name), Chrom: chrom, Strand: strand, Exons: sorted}, nil
}

// IsForwardStrand returns true if the gene is on the forward strand.
func (g *GeneRegion) IsForwardStrand() bool {
	return g.Strand == 1
}

// IsReverseStrand returns true if the gene is on the reverse strand.
func (g *GeneRegion) IsReverseStrand() bool {
	return g.Strand == -1
}

// CodingLength returns the number of coding bases across all exons.
func (g *GeneRegion) CodingLength() int {
	n := 0
	for _, e := range g.Exons {
		n += e.Len()
	}
	return n
}

// codingOrder returns exons in transcription order.
func (g *GeneRegion) codingOrder() []Exon {
	exons := append([]Exon(nil), g.Exons...)
	if g.IsReverseStrand() {
		slices.Reverse(exons)
	}
	return exons
}

// CodingRegions returns one region per exon in transcription order, each
// carrying the gene locus of its first coding base.
func (g *GeneRegion) CodingRegions() []CodingRegion {
	var regions []CodingRegion
	offset := 0
	for _, e := range g.codingOrder() {
		regions = append(regions, CodingRegion{
			Gene:        g.Name,
			Chrom:       g.Chrom,
			Start:       e.Start,
			End:         e.End,
			Strand:      g.Strand,
			LocusOffset: offset,
		})
		offset += e.Len()
	}
	return regions
}

// AminoAcidBoundaries returns the amino acid loci whose codons can span an
// exon junction: the codon holding the first base after each junction.
func (g *GeneRegion) AminoAcidBoundaries() []int {
	var boundaries []int
	exons := g.codingOrder()
	cumulative := 0
	for _, e := range exons[:len(exons)-1] {
		cumulative += e.Len()
		boundaries = append(boundaries, cumulative/3)
	}
	return boundaries
}

// Context returns the typing context for the gene.
func (g *GeneRegion) Context() GeneContext {
	return GeneContext{Gene: ShortGeneName(g.Name), AminoAcidBoundaries: g.AminoAcidBoundaries()}
}

// CodingRegion is one exon of a gene together with its locus offset.
type CodingRegion struct {
	Gene        string // long gene name
	Chrom       string
	Start       int // 1-based, inclusive
	End         int // 1-based, inclusive
	Strand      int8
	LocusOffset int // gene locus of the first coding base in transcription order
}

// IsReverseStrand returns true if the region is on the reverse strand.
func (c CodingRegion) IsReverseStrand() bool {
	return c.Strand == -1
}

// Overlaps reports whether [start, end] intersects the region.
func (c CodingRegion) Overlaps(start, end int) bool {
	return start <= c.End && end >= c.Start
}

// GeneContext carries the per-gene parameters of a typing run.
type GeneContext struct {
	Gene                string // short gene name, e.g. A
	AminoAcidBoundaries []int
}

// Name returns the long gene name.
func (c GeneContext) Name() string {
	return LongGeneName(c.Gene)
}

// IsBoundary reports whether the amino acid locus is an exon boundary.
func (c GeneContext) IsBoundary(locus int) bool {
	return slices.Contains(c.AminoAcidBoundaries, locus)
}

// CombinedBoundaries pools the boundaries of several genes, sorted and unique.
func CombinedBoundaries(contexts ...GeneContext) []int {
	var all []int
	for _, c := range contexts {
		all = append(all, c.AminoAcidBoundaries...)
	}
	slices.Sort(all)
	return slices.Compact(all)
}
