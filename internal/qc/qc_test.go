package qc

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-hla/internal/candidates"
	"github.com/inodb/vibe-hla/internal/evidence"
	"github.com/inodb/vibe-hla/internal/fragment"
	"github.com/inodb/vibe-hla/internal/hla"
)

// aminoAcidFragment observes residues starting at locus start.
func aminoAcidFragment(id string, start int, residues ...string) *fragment.AminoAcid {
	loci := make([]int, len(residues))
	quals := make([]int, len(residues))
	for i := range residues {
		loci[i] = start + i
		quals[i] = 30
	}
	return &fragment.AminoAcid{
		Nucleotide: fragment.NewNucleotide(id, []string{"HLA-A"}, nil, nil, nil),
		Loci:       loci,
		AminoAcids: residues,
		Qualities:  quals,
	}
}

func seq(allele string, residues ...string) hla.SequenceLoci {
	return hla.NewSequenceLoci(hla.MustParseAllele(allele), residues)
}

func testResult() (candidates.Result, []evidence.Phased) {
	var frags []*fragment.AminoAcid
	for i := 0; i < 3; i++ {
		frags = append(frags, aminoAcidFragment(fmt.Sprintf("a%d", i), 0, "M", "A", "V"))
	}
	frags = append(frags,
		aminoAcidFragment("b0", 1, "G", "V"),
		aminoAcidFragment("b1", 1, "G", "V"),
		aminoAcidFragment("c0", 2, "V"),
	)
	counts := evidence.AminoAcidCounts(2, frags)

	seed := candidates.NewSet([]hla.SequenceLoci{
		seq("A*01:01", "M", "A", "V"),
		seq("A*02:01", "M", "G", "V"),
	})
	final := seed.Filter(func(s hla.SequenceLoci) bool { return s.At(1) == "A" })

	phased, ok := evidence.NewPhased([]int{1, 2}, 2, frags)
	if !ok {
		panic("phased evidence not supported")
	}
	return candidates.Result{
		Gene:            "A",
		Stages:          []candidates.Set{seed, seed, seed, final},
		AminoAcidCounts: counts,
	}, []evidence.Phased{phased}
}

func TestSummarize(t *testing.T) {
	r, phased := testResult()
	s := Summarize(r, 6, phased)

	assert.Equal(t, "HLA-A", s.Gene)
	assert.Equal(t, 6, s.Fragments)
	// depths 3, 5, 6
	assert.InDelta(t, 14.0/3, s.MeanDepth, 1e-9)
	assert.Equal(t, 5.0, s.MedianDepth)
	assert.Equal(t, 6.0, s.MaxDepth)
	assert.Equal(t, 0, s.LowDepth)
	assert.Equal(t, []int{2, 2, 2, 1}, s.StageCounts)
	assert.Equal(t, []string{"A*01:01"}, s.Final)

	require.Len(t, s.Unmatched, 1)
	assert.Equal(t, []string{"G", "V"}, s.Unmatched[0].Residues)
	assert.Equal(t, 2, s.Unmatched[0].Count)
}

func TestSummarize_NoEvidence(t *testing.T) {
	r := candidates.Result{
		Gene:            "B",
		Stages:          []candidates.Set{candidates.NewSet(nil)},
		AminoAcidCounts: evidence.AminoAcidCounts(2, nil),
	}
	s := Summarize(r, 0, nil)
	assert.Equal(t, "HLA-B", s.Gene)
	assert.Zero(t, s.MeanDepth)
	assert.Empty(t, s.Final)
	assert.Empty(t, s.Unmatched)
}

func TestDepthPlot(t *testing.T) {
	r, _ := testResult()
	plot := DepthPlot("A", r.AminoAcidCounts, 5)
	assert.Contains(t, plot, "HLA-A amino acid depth")

	assert.Empty(t, DepthPlot("A", evidence.AminoAcidCounts(2, nil), 5))
	assert.Empty(t, DepthPlot("A", nil, 5))
}

func TestWriteSummary(t *testing.T) {
	r, phased := testResult()

	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, []GeneSummary{Summarize(r, 6, phased)}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "#Gene\tFragments"))
	assert.Equal(t, "HLA-A\t6\t4.67\t5.0\t6\t0\t2\t2\t2\t1\t1\tA*01:01", lines[1])
}

func TestFields(t *testing.T) {
	r, phased := testResult()
	fields := Summarize(r, 6, phased).Fields()

	keys := make([]string, len(fields))
	for i, f := range fields {
		keys[i] = f.Key
	}
	assert.Contains(t, keys, "gene")
	assert.Contains(t, keys, "amino_acid")
	assert.Contains(t, keys, "phased")
}
