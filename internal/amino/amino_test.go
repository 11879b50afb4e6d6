package amino

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-hla/internal/fragment"
	"github.com/inodb/vibe-hla/internal/hla"
)

func nuc(id, gene string, start int, bases string, quals ...int) *fragment.Nucleotide {
	loci := make([]int, len(bases))
	q := make([]int, len(bases))
	n := make([]string, len(bases))
	for i := range bases {
		loci[i] = start + i
		q[i] = 30
		if i < len(quals) {
			q[i] = quals[i]
		}
		n[i] = bases[i : i+1]
	}
	return fragment.NewNucleotide(id, []string{gene}, loci, q, n)
}

func TestQualEnrichment(t *testing.T) {
	frags := []*fragment.Nucleotide{
		nuc("r1", "HLA-A", 0, "A"),
		nuc("r2", "HLA-A", 0, "A"),
		nuc("r3", "HLA-A", 0, "A", 10),
		nuc("r4", "HLA-A", 0, "G", 10),
	}
	out := QualEnrichment{MinBaseQuality: 30, MinBaseCount: 2}.Enrich(frags)

	require.Len(t, out, 4)
	assert.Same(t, frags[0], out[0], "unchanged fragments are reused")
	assert.Equal(t, []int{30}, out[2].Qualities, "supported low quality call is raised")
	assert.Equal(t, []int{10}, out[3].Qualities, "unsupported call stays masked")
	assert.Equal(t, []int{10}, frags[2].Qualities, "input is not modified")
}

func TestSpliceEnrichment(t *testing.T) {
	frags := []*fragment.Nucleotide{
		nuc("r1", "HLA-A", 0, "ACGTTA"),
		nuc("r2", "HLA-A", 0, "ACGTTA"),
		nuc("r3", "HLA-A", 4, "TAGGG"),
		nuc("r4", "HLA-A", 0, "ACGT"),
		nuc("r5", "HLA-A", 6, "GGG"),
	}
	out := SpliceEnrichment{MinBaseQuality: 30, MinBaseCount: 2, Boundaries: []int{1}}.Enrich(frags)

	assert.Equal(t, []int{3, 4, 5, 6, 7, 8}, out[2].Loci, "missing codon start filled")
	assert.Equal(t, "T", out[2].Nucleotide(3))
	assert.Equal(t, 30, out[2].Quality(3))

	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, out[3].Loci, "missing codon end filled")
	assert.Equal(t, "T", out[3].Nucleotide(4))
	assert.Equal(t, "A", out[3].Nucleotide(5))

	assert.Equal(t, frags[4].Loci, out[4].Loci, "fragment not touching the boundary is unchanged")
	assert.Equal(t, []int{4, 5, 6, 7, 8}, frags[2].Loci)
}

func TestSpliceEnrichment_Heterozygous(t *testing.T) {
	frags := []*fragment.Nucleotide{
		nuc("r1", "HLA-A", 0, "ACGTTA"),
		nuc("r2", "HLA-A", 0, "ACGTTA"),
		nuc("r3", "HLA-A", 0, "ACGCTA"),
		nuc("r4", "HLA-A", 0, "ACGCTA"),
		nuc("r5", "HLA-A", 4, "TA"),
	}
	out := SpliceEnrichment{MinBaseQuality: 30, MinBaseCount: 2, Boundaries: []int{1}}.Enrich(frags)
	assert.False(t, out[4].ContainsNucleotide(3), "heterozygous base is not guessed")
}

func TestAminoAcidQualEnrichment(t *testing.T) {
	frags := []*fragment.Nucleotide{
		nuc("r1", "HLA-A", 0, "GCT"),
		nuc("r2", "HLA-A", 0, "GCT"),
		nuc("r3", "HLA-A", 0, "GCT"),
		nuc("r4", "HLA-A", 0, "GGT"),
	}
	out := AminoAcidQualEnrichment{MinBaseQuality: 30, MinEvidence: 2}.Enrich(frags)

	require.Len(t, out, 4)
	assert.Equal(t, []string{"A"}, out[0].AminoAcids)
	assert.Empty(t, out[3].AminoAcids, "residue seen once is dropped")
	assert.Equal(t, []int{0, 1, 2}, out[3].Nucleotide.Loci, "nucleotides are kept")
}

func pipelineFragments() []*fragment.Nucleotide {
	var frags []*fragment.Nucleotide
	for i := 0; i < 3; i++ {
		frags = append(frags, nuc(fmt.Sprintf("a%d", i), "HLA-A", 0, "GCTTGG"))
	}
	frags = append(frags,
		nuc("low-supported", "HLA-A", 0, "GCTTGG", 30, 10),
		nuc("low-unsupported", "HLA-A", 0, "GATTGG", 30, 10),
		nuc("b0", "HLA-B", 0, "GCTTGG"),
	)
	return frags
}

func TestPipeline_Type(t *testing.T) {
	p := NewPipeline(30, 2, pipelineFragments())
	out := p.Type(hla.GeneContext{Gene: "A"})

	require.Len(t, out, 5, "HLA-B fragment is excluded")
	byID := make(map[string]*fragment.AminoAcid)
	for _, a := range out {
		byID[a.ID()] = a
	}

	assert.Equal(t, []string{"A", "W"}, byID["a0"].AminoAcids)
	assert.Equal(t, []string{"A", "W"}, byID["low-supported"].AminoAcids)
	assert.Equal(t, []int{30, 30}, byID["low-supported"].Qualities)

	unsupported := byID["low-unsupported"]
	assert.Equal(t, []int{1}, unsupported.Loci)
	assert.False(t, unsupported.Nucleotide.ContainsNucleotide(1), "low quality base is dropped")
	for _, q := range unsupported.Nucleotide.Qualities {
		assert.GreaterOrEqual(t, q, 30)
	}
}

func TestPipeline_Combined(t *testing.T) {
	p := NewPipeline(30, 2, pipelineFragments())
	out := p.Combined(nil)

	require.Len(t, out, 6)
	var ids []string
	for _, a := range out {
		ids = append(ids, a.ID())
	}
	assert.Contains(t, strings.Join(ids, ","), "b0")
}

func TestPipeline_Pure(t *testing.T) {
	frags := pipelineFragments()
	p := NewPipeline(30, 2, frags)

	first := p.Type(hla.GeneContext{Gene: "A"})
	second := p.Type(hla.GeneContext{Gene: "A"})
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].AminoAcids, second[i].AminoAcids)
	}
	assert.Equal(t, []int{30, 10, 30, 30, 30, 30}, frags[3].Qualities)
}

func TestGeneEnrichment(t *testing.T) {
	e := NewGeneEnrichment(
		hla.GeneContext{Gene: "A", AminoAcidBoundaries: []int{24, 114}},
		hla.GeneContext{Gene: "B", AminoAcidBoundaries: []int{24, 120}},
		hla.GeneContext{Gene: "C", AminoAcidBoundaries: []int{30}},
	)

	early := nuc("early", "HLA-C", 0, strings.Repeat("A", 50))
	middle := nuc("middle", "HLA-A", 100, strings.Repeat("C", 50))
	late := nuc("late", "HLA-A", 300, strings.Repeat("G", 50))
	shared := fragment.NewNucleotide("shared", []string{"HLA-A", "HLA-B"}, []int{0}, []int{30}, []string{"T"})

	out := e.Enrich([]*fragment.Nucleotide{early, middle, late, shared})
	require.Len(t, out, 4)

	// All three genes agree before the first C boundary.
	assert.Equal(t, []string{"HLA-A", "HLA-B", "HLA-C"}, out[0].Genes)
	// A and B agree until the second A boundary.
	assert.Equal(t, []string{"HLA-A", "HLA-B"}, out[1].Genes)
	assert.Equal(t, middle.Loci, out[1].Loci)
	assert.Same(t, late, out[2])
	assert.Same(t, shared, out[3])

	assert.Equal(t, []string{"HLA-A"}, middle.Genes, "input fragments are not modified")
}

func TestGeneEnrichment_SingleGene(t *testing.T) {
	e := NewGeneEnrichment(hla.GeneContext{Gene: "A", AminoAcidBoundaries: []int{24}})
	f := nuc("r1", "HLA-A", 0, "ACGT")
	assert.Same(t, f, e.Enrich([]*fragment.Nucleotide{f})[0])
}
