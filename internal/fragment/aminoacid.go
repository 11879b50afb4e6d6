package fragment

import (
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/inodb/vibe-hla/internal/codon"
)

// AminoAcid is a nucleotide fragment together with the residues translated
// from its complete codons. Loci, AminoAcids and Qualities are parallel and
// ordered by ascending amino acid locus. Qualities hold the lowest base
// quality of each codon.
type AminoAcid struct {
	Nucleotide *Nucleotide

	Loci       []int
	AminoAcids []string
	Qualities  []int
}

// Translate converts every fully covered codon of n into a residue. A codon
// holding a deletion becomes "."; inserted bases translate to extra residues.
func Translate(n *Nucleotide) *AminoAcid {
	a := &AminoAcid{Nucleotide: n}
	for _, locus := range n.AminoAcidLoci() {
		var bases string
		quality := -1
		deleted := false
		for i := 0; i < 3; i++ {
			nl := 3*locus + i
			nuc := n.Nucleotide(nl)
			if nuc == "." {
				deleted = true
			}
			bases += nuc
			if q := n.Quality(nl); quality < 0 || q < quality {
				quality = q
			}
		}

		residue := "."
		if !deleted {
			residue = codon.Translate(bases)
		}
		a.Loci = append(a.Loci, locus)
		a.AminoAcids = append(a.AminoAcids, residue)
		a.Qualities = append(a.Qualities, quality)
	}
	return a
}

// ID returns the read id.
func (a *AminoAcid) ID() string {
	return a.Nucleotide.ID
}

// ContainsGene reports whether the fragment supports the gene.
func (a *AminoAcid) ContainsGene(gene string) bool {
	return a.Nucleotide.ContainsGene(gene)
}

// ContainsAminoAcid reports whether the fragment has a residue at locus.
func (a *AminoAcid) ContainsAminoAcid(locus int) bool {
	_, ok := slices.BinarySearch(a.Loci, locus)
	return ok
}

// AminoAcid returns the residue at locus. Callers must check
// ContainsAminoAcid first; a missing locus panics.
func (a *AminoAcid) AminoAcid(locus int) string {
	i, ok := slices.BinarySearch(a.Loci, locus)
	if !ok {
		panic(fmt.Sprintf("fragment %s does not contain amino acid locus %d", a.ID(), locus))
	}
	return a.AminoAcids[i]
}

// Filter returns a fragment holding only the residues keep accepts.
func (a *AminoAcid) Filter(keep func(locus int, residue string) bool) *AminoAcid {
	out := &AminoAcid{Nucleotide: a.Nucleotide}
	for i, locus := range a.Loci {
		if keep(locus, a.AminoAcids[i]) {
			out.Loci = append(out.Loci, locus)
			out.AminoAcids = append(out.AminoAcids, a.AminoAcids[i])
			out.Qualities = append(out.Qualities, a.Qualities[i])
		}
	}
	return out
}

// QualityFilter drops nucleotides and residues below minBaseQuality.
func (a *AminoAcid) QualityFilter(minBaseQuality int) *AminoAcid {
	out := &AminoAcid{Nucleotide: a.Nucleotide.QualityFilter(minBaseQuality)}
	for i, locus := range a.Loci {
		if a.Qualities[i] >= minBaseQuality {
			out.Loci = append(out.Loci, locus)
			out.AminoAcids = append(out.AminoAcids, a.AminoAcids[i])
			out.Qualities = append(out.Qualities, a.Qualities[i])
		}
	}
	return out
}

// NucleotidesOf returns the nucleotide fragments underlying the amino acid fragments.
func NucleotidesOf(fragments []*AminoAcid) []*Nucleotide {
	out := make([]*Nucleotide, len(fragments))
	for i, f := range fragments {
		out[i] = f.Nucleotide
	}
	return out
}
