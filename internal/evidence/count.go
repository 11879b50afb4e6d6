// Package evidence tallies what fragments observe at each locus.
package evidence

import (
	"sort"

	"github.com/inodb/vibe-hla/internal/fragment"
)

// MaxRowResidues is the number of residues reported per locus in a count table.
const MaxRowResidues = 6

// SequenceCount holds, for each locus, how many fragments observed each
// residue (or nucleotide). Residues seen fewer than minCount times are not
// considered evidence.
type SequenceCount struct {
	minCount int
	counts   []map[string]int
}

func newSequenceCount(minCount, length int) *SequenceCount {
	c := &SequenceCount{minCount: minCount, counts: make([]map[string]int, length)}
	for i := range c.counts {
		c.counts[i] = make(map[string]int)
	}
	return c
}

// NucleotideCounts counts nucleotide calls across fragments.
func NucleotideCounts(minCount int, fragments []*fragment.Nucleotide) *SequenceCount {
	length := 0
	for _, f := range fragments {
		length = max(length, f.MaxLocus()+1)
	}

	c := newSequenceCount(minCount, length)
	for _, f := range fragments {
		for i, locus := range f.Loci {
			c.counts[locus][f.Nucleotides[i]]++
		}
	}
	return c
}

// AminoAcidCounts counts residues across amino acid fragments.
func AminoAcidCounts(minCount int, fragments []*fragment.AminoAcid) *SequenceCount {
	length := 0
	for _, f := range fragments {
		if n := len(f.Loci); n > 0 {
			length = max(length, f.Loci[n-1]+1)
		}
	}

	c := newSequenceCount(minCount, length)
	for _, f := range fragments {
		for i, locus := range f.Loci {
			c.counts[locus][f.AminoAcids[i]]++
		}
	}
	return c
}

// MinCount returns the evidence threshold.
func (c *SequenceCount) MinCount() int {
	return c.minCount
}

// Len returns one past the highest observed locus.
func (c *SequenceCount) Len() int {
	return len(c.counts)
}

// Count returns how often seq was observed at locus.
func (c *SequenceCount) Count(locus int, seq string) int {
	if locus < 0 || locus >= len(c.counts) {
		return 0
	}
	return c.counts[locus][seq]
}

// Depth returns the number of observations at locus.
func (c *SequenceCount) Depth(locus int) int {
	if locus < 0 || locus >= len(c.counts) {
		return 0
	}
	depth := 0
	for _, n := range c.counts[locus] {
		depth += n
	}
	return depth
}

// ResidueCount is one observed residue and its support.
type ResidueCount struct {
	Residue string
	Count   int
}

// ranked returns every residue at locus, most frequent first, ties broken
// alphabetically.
func (c *SequenceCount) ranked(locus int) []ResidueCount {
	if locus < 0 || locus >= len(c.counts) {
		return nil
	}
	ranked := make([]ResidueCount, 0, len(c.counts[locus]))
	for seq, n := range c.counts[locus] {
		ranked = append(ranked, ResidueCount{seq, n})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Residue < ranked[j].Residue
	})
	return ranked
}

// MinCountSequences returns the residues at locus observed at least
// MinCount times, most frequent first.
func (c *SequenceCount) MinCountSequences(locus int) []string {
	var seqs []string
	for _, rc := range c.ranked(locus) {
		if rc.Count >= c.minCount {
			seqs = append(seqs, rc.Residue)
		}
	}
	return seqs
}

// MaxCountSequence returns the most frequent residue at locus.
func (c *SequenceCount) MaxCountSequence(locus int) (string, bool) {
	ranked := c.ranked(locus)
	if len(ranked) == 0 {
		return "", false
	}
	return ranked[0].Residue, true
}

// HeterozygousLoci returns the loci with more than one residue meeting MinCount.
func (c *SequenceCount) HeterozygousLoci() []int {
	var loci []int
	for locus := range c.counts {
		if len(c.MinCountSequences(locus)) > 1 {
			loci = append(loci, locus)
		}
	}
	return loci
}

// HomozygousLoci returns the loci with exactly one residue meeting MinCount.
func (c *SequenceCount) HomozygousLoci() []int {
	var loci []int
	for locus := range c.counts {
		if len(c.MinCountSequences(locus)) == 1 {
			loci = append(loci, locus)
		}
	}
	return loci
}

// Row is one line of a count table.
type Row struct {
	Locus    int
	Residues []ResidueCount // at most MaxRowResidues, most frequent first
}

// Rows returns one row per locus for tabular output.
func (c *SequenceCount) Rows() []Row {
	rows := make([]Row, len(c.counts))
	for locus := range c.counts {
		ranked := c.ranked(locus)
		if len(ranked) > MaxRowResidues {
			ranked = ranked[:MaxRowResidues]
		}
		rows[locus] = Row{Locus: locus, Residues: ranked}
	}
	return rows
}
