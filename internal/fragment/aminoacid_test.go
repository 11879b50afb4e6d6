package fragment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testAminoAcidSource() *Nucleotide {
	return NewNucleotide("r1", []string{"HLA-A"},
		[]int{0, 1, 2, 3, 4, 5, 6, 7, 9, 10, 11, 12, 13, 14},
		[]int{30, 20, 30, 30, 30, 30, 30, 30, 30, 30, 30, 30, 30, 30},
		[]string{"G", "C", "T", "T", "G", "G", "A", "A", ".", ".", ".", "A", "G", "TTGG"})
}

func TestTranslate(t *testing.T) {
	a := Translate(testAminoAcidSource())

	assert.Equal(t, "r1", a.ID())
	assert.True(t, a.ContainsGene("HLA-A"))
	assert.Equal(t, []int{0, 1, 3, 4}, a.Loci, "locus 2 lacks its third base")
	assert.Equal(t, []string{"A", "W", ".", "SW"}, a.AminoAcids)
	assert.Equal(t, []int{20, 30, 30, 30}, a.Qualities, "codon quality is its weakest base")

	assert.True(t, a.ContainsAminoAcid(4))
	assert.False(t, a.ContainsAminoAcid(2))
	assert.Equal(t, "SW", a.AminoAcid(4))
	assert.Panics(t, func() { a.AminoAcid(2) })
}

func TestAminoAcid_Filters(t *testing.T) {
	a := Translate(testAminoAcidSource())

	kept := a.Filter(func(locus int, residue string) bool { return residue != "." })
	assert.Equal(t, []int{0, 1, 4}, kept.Loci)
	assert.Len(t, a.Loci, 4, "original is unchanged")

	q := a.QualityFilter(30)
	assert.Equal(t, []int{1, 3, 4}, q.Loci)
	assert.False(t, q.Nucleotide.ContainsNucleotide(1))
	assert.True(t, a.Nucleotide.ContainsNucleotide(1))

	nucs := NucleotidesOf([]*AminoAcid{a, q})
	assert.Same(t, a.Nucleotide, nucs[0])
	assert.Same(t, q.Nucleotide, nucs[1])
}
