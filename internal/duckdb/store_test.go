package duckdb

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-hla/internal/candidates"
	"github.com/inodb/vibe-hla/internal/evidence"
	"github.com/inodb/vibe-hla/internal/fragment"
	"github.com/inodb/vibe-hla/internal/hla"
	"github.com/inodb/vibe-hla/internal/reference"
)

func openInMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seq(allele, residues string) hla.SequenceLoci {
	return hla.NewSequenceLoci(hla.MustParseAllele(allele), strings.Split(residues, ""))
}

// aminoAcidFragments builds n fragments observing residues from locus 0,
// each residue encoded by a single-base stand-in codon.
func aminoAcidFragments(residues string, n int) []*fragment.AminoAcid {
	var out []*fragment.AminoAcid
	for i := 0; i < n; i++ {
		loci := make([]int, len(residues))
		aas := make([]string, len(residues))
		quals := make([]int, len(residues))
		for j := range residues {
			loci[j] = j
			aas[j] = residues[j : j+1]
			quals[j] = 30
		}
		out = append(out, &fragment.AminoAcid{
			Nucleotide: fragment.NewNucleotide(fmt.Sprintf("r%d", i), []string{"HLA-A"}, nil, nil, nil),
			Loci:       loci,
			AminoAcids: aas,
			Qualities:  quals,
		})
	}
	return out
}

func testResult() candidates.Result {
	seed := candidates.NewSet([]hla.SequenceLoci{
		seq("A*01:01:01:01", "MAV"),
		seq("A*02:01:01:01", "MGV"),
	})
	final := candidates.NewSet([]hla.SequenceLoci{seq("A*01:01:01:01", "MAV")})
	return candidates.Result{
		Gene:             "A",
		Stages:           []candidates.Set{seed, final, final, final},
		AminoAcidCounts:  evidence.AminoAcidCounts(2, append(aminoAcidFragments("MAV", 3), aminoAcidFragments("M", 1)...)),
		NucleotideCounts: evidence.NucleotideCounts(2, nil),
	}
}

// --- Result store tests (DuckDB) ---

func TestOpenClose(t *testing.T) {
	s := openInMemory(t)
	assert.NotNil(t, s.DB())
}

func TestWriteAndLookupCandidates(t *testing.T) {
	s := openInMemory(t)
	require.NoError(t, s.WriteResult("S1", testResult()))

	seed, err := s.LookupCandidates("S1", "A", "seed")
	require.NoError(t, err)
	assert.Equal(t, []string{"A*01:01:01:01", "A*02:01:01:01"}, seed)

	final, err := s.LookupCandidates("S1", "HLA-A", candidates.StagePhased.String())
	require.NoError(t, err)
	assert.Equal(t, []string{"A*01:01:01:01"}, final)

	none, err := s.LookupCandidates("S2", "A", "seed")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestWriteResultReplaces(t *testing.T) {
	s := openInMemory(t)
	require.NoError(t, s.WriteResult("S1", testResult()))
	require.NoError(t, s.WriteResult("S1", testResult()))

	seed, err := s.LookupCandidates("S1", "A", "seed")
	require.NoError(t, err)
	assert.Len(t, seed, 2)

	counts, err := s.LookupCounts("S1", "A", KindAminoAcid)
	require.NoError(t, err)
	assert.Len(t, counts, 3)
}

func TestLookupCounts(t *testing.T) {
	s := openInMemory(t)
	require.NoError(t, s.WriteResult("S1", testResult()))

	counts, err := s.LookupCounts("S1", "A", KindAminoAcid)
	require.NoError(t, err)
	require.Len(t, counts, 3)
	assert.Equal(t, CountRow{Sample: "S1", Gene: "HLA-A", Kind: KindAminoAcid, Locus: 0, Residue: "M", Count: 4}, counts[0])
	assert.Equal(t, "A", counts[1].Residue)
	assert.Equal(t, 3, counts[1].Count)

	nucs, err := s.LookupCounts("S1", "A", KindNucleotide)
	require.NoError(t, err)
	assert.Empty(t, nucs)
}

func TestSearchByAllele(t *testing.T) {
	s := openInMemory(t)
	require.NoError(t, s.WriteResult("S1", testResult()))
	require.NoError(t, s.WriteResult("S2", testResult()))

	rows, err := s.SearchByAllele("A*02:01:01:01")
	require.NoError(t, err)
	assert.Equal(t, []CandidateRow{
		{Sample: "S1", Gene: "HLA-A", Stage: "seed", Allele: "A*02:01:01:01"},
		{Sample: "S2", Gene: "HLA-A", Stage: "seed", Allele: "A*02:01:01:01"},
	}, rows)
}

func TestWriteUnmatched(t *testing.T) {
	s := openInMemory(t)
	require.NoError(t, s.WriteUnmatched("S1", "A", nil))

	require.NoError(t, s.WriteUnmatched("S1", "A", []evidence.Unmatched{
		{Loci: []int{5, 7}, Residues: []string{"T", "C"}, Count: 3},
	}))
	n, err := s.CountUnmatched("S1", "A")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	var loci, residues string
	require.NoError(t, s.DB().QueryRow("SELECT loci, residues FROM unmatched_haplotypes").Scan(&loci, &residues))
	assert.Equal(t, "5,7", loci)
	assert.Equal(t, "T,C", residues)
}

func TestClear(t *testing.T) {
	s := openInMemory(t)
	require.NoError(t, s.WriteResult("S1", testResult()))
	require.NoError(t, s.Clear())

	seed, err := s.LookupCandidates("S1", "A", "seed")
	require.NoError(t, err)
	assert.Empty(t, seed)
}

// --- Panel cache tests (gob) ---

func testPanel() *reference.Panel {
	return &reference.Panel{
		AminoAcids: []hla.SequenceLoci{
			seq("A*01:01:01:01", "MAV"),
			hla.NewSequenceLoci(hla.MustParseAllele("A*02:01"), []string{"M", "AK", "."}),
		},
		Nucleotides: []hla.SequenceLoci{seq("A*01:01:01:01", "ATGGCT")},
	}
}

func TestPanelCacheWriteAndLoad(t *testing.T) {
	pc := NewPanelCache(t.TempDir())

	fp := FileFingerprint{Path: "A_prot.csv", Size: 1000, ModTime: time.Now()}
	require.NoError(t, pc.Write(testPanel(), fp))

	p, err := pc.Load()
	require.NoError(t, err)
	require.Len(t, p.AminoAcids, 2)
	assert.Equal(t, "A*01:01:01:01", p.AminoAcids[0].Allele.String())
	assert.Equal(t, "MAV", p.AminoAcids[0].Sequence())
	assert.Equal(t, []string{"M", "AK", "."}, p.AminoAcids[1].Sequences())
	assert.True(t, p.AminoAcids[1].ContainsInserts())
	assert.True(t, p.AminoAcids[1].ContainsDeletes())
	require.Len(t, p.Nucleotides, 1)
	assert.Equal(t, "ATGGCT", p.Nucleotides[0].Sequence())
}

func TestPanelCacheValidation(t *testing.T) {
	pc := NewPanelCache(t.TempDir())

	now := time.Now()
	prot := FileFingerprint{Path: "A_prot.csv", Size: 1000, ModTime: now}
	nuc := FileFingerprint{Path: "A_nuc.csv", Size: 2000, ModTime: now}

	// No cache yet → invalid
	assert.False(t, pc.Valid(prot, nuc))

	require.NoError(t, pc.Write(testPanel(), prot, nuc))
	assert.True(t, pc.Valid(prot, nuc))

	// Different size → stale
	protChanged := prot
	protChanged.Size = 9999
	assert.False(t, pc.Valid(protChanged, nuc))

	// Different modtime → stale
	nucChanged := nuc
	nucChanged.ModTime = now.Add(time.Hour)
	assert.False(t, pc.Valid(prot, nucChanged))

	// Different source count → stale
	assert.False(t, pc.Valid(prot))
}

func TestPanelCacheClear(t *testing.T) {
	pc := NewPanelCache(t.TempDir())

	fp := FileFingerprint{Size: 100, ModTime: time.Now()}
	require.NoError(t, pc.Write(testPanel(), fp))
	assert.True(t, pc.Valid(fp))

	pc.Clear()
	assert.False(t, pc.Valid(fp))

	_, err := pc.Load()
	assert.Error(t, err)
}

func TestStatFiles(t *testing.T) {
	dir := t.TempDir()
	prot := filepath.Join(dir, "A_prot.csv")
	nuc := filepath.Join(dir, "A_nuc.csv")
	require.NoError(t, os.WriteFile(prot, []byte("Allele,Sequence\n"), 0o644))
	require.NoError(t, os.WriteFile(nuc, []byte("Allele,Sequence\nA*01:01,ATG\n"), 0o644))

	sources, err := StatFiles(prot, nuc)
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, prot, sources[0].Path)
	assert.Equal(t, int64(16), sources[0].Size)
	assert.Equal(t, int64(28), sources[1].Size)

	// Fingerprints from disk round-trip through the cache metadata.
	pc := NewPanelCache(filepath.Join(dir, "cache"))
	require.NoError(t, pc.Write(testPanel(), sources...))
	assert.True(t, pc.Valid(sources...))

	require.NoError(t, os.WriteFile(nuc, []byte("Allele,Sequence\n"), 0o644))
	changed, err := StatFiles(prot, nuc)
	require.NoError(t, err)
	assert.False(t, pc.Valid(changed...))

	_, err = StatFiles(prot, filepath.Join(dir, "missing.csv"))
	assert.ErrorContains(t, err, "stat panel")

	_, err = StatFile(dir)
	assert.ErrorContains(t, err, "is a directory")
}
