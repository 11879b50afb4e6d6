package reference

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAminoAcidPanel = `Allele,Sequence
A*01:01:01:01,MAVM|APRT..L
A*02:01:01:01,-G--|------.
A*03:01:01:01,----|----KR-
`

const testNucleotidePanel = `Allele,Sequence
A*01:01:01:01,ATGGCT
A*02:01:01:01,---GG-
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadFile(t *testing.T) {
	seqs, err := ReadFile(writeFile(t, "A_prot.csv", testAminoAcidPanel))
	require.NoError(t, err)
	require.Len(t, seqs, 3)

	assert.Equal(t, "A*01:01:01:01", seqs[0].Allele.String())
	assert.Equal(t, "MAVMAPRTL", seqs[0].Sequence())

	assert.Equal(t, []string{"M", "G", "V", "M", "A", "P", "R", "T", "."}, seqs[1].Sequences())
	assert.True(t, seqs[1].ContainsDeletes())

	assert.Equal(t, "TKR", seqs[2].At(7))
	assert.True(t, seqs[2].ContainsInserts())
}

func TestReadFile_Errors(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)

	_, err = ReadFile(writeFile(t, "bad.csv", "A*01:01,MAV\nnocomma\n"))
	assert.ErrorContains(t, err, "line 2")

	_, err = ReadFile(writeFile(t, "bad-allele.csv", "X,MAV\n"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	p, err := Load(
		[]string{writeFile(t, "A_prot.csv", testAminoAcidPanel)},
		[]string{writeFile(t, "A_nuc.csv", testNucleotidePanel)},
	)
	require.NoError(t, err)

	assert.Len(t, p.AminoAcids, 3)
	require.Len(t, p.Nucleotides, 2)
	assert.Equal(t, "ATGGGT", p.Nucleotides[1].Sequence())
	assert.Equal(t, []string{"A"}, p.Genes())

	require.Len(t, p.Inserts(), 1)
	assert.Equal(t, "A*03:01:01:01", p.Inserts()[0].Allele.String())
	require.Len(t, p.Deletes(), 1)
	assert.Equal(t, "A*02:01:01:01", p.Deletes()[0].Allele.String())

	_, err = Load([]string{"/nonexistent/panel.csv"}, nil)
	assert.Error(t, err)
}
