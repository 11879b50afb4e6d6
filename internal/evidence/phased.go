package evidence

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/exp/slices"

	"github.com/inodb/vibe-hla/internal/fragment"
	"github.com/inodb/vibe-hla/internal/hla"
)

// Observation is one combination of residues seen together on fragments
// covering every locus of a Phased evidence item.
type Observation struct {
	Residues []string
	Count    int
}

// Phased links residues at several amino acid loci through fragments that
// cover all of them.
type Phased struct {
	Loci         []int
	Observations []Observation // most supported first
	MinEvidence  int
}

// NewPhased collects the residue combinations of fragments covering every
// locus. The second return value is false when no combination reaches
// minEvidence.
func NewPhased(loci []int, minEvidence int, fragments []*fragment.AminoAcid) (Phased, bool) {
	counts := make(map[string]int)
	for _, f := range fragments {
		residues, ok := residuesAt(f, loci)
		if !ok {
			continue
		}
		counts[strings.Join(residues, "\x00")]++
	}

	p := Phased{Loci: append([]int(nil), loci...), MinEvidence: minEvidence}
	for key, n := range counts {
		p.Observations = append(p.Observations, Observation{Residues: strings.Split(key, "\x00"), Count: n})
	}
	sort.Slice(p.Observations, func(i, j int) bool {
		a, b := p.Observations[i], p.Observations[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return strings.Join(a.Residues, "") < strings.Join(b.Residues, "")
	})

	return p, len(p.Supported()) > 0
}

func residuesAt(f *fragment.AminoAcid, loci []int) ([]string, bool) {
	residues := make([]string, len(loci))
	for i, locus := range loci {
		if !f.ContainsAminoAcid(locus) {
			return nil, false
		}
		residues[i] = f.AminoAcid(locus)
	}
	return residues, true
}

// Supported returns the combinations seen at least MinEvidence times.
func (p Phased) Supported() [][]string {
	var out [][]string
	for _, o := range p.Observations {
		if o.Count >= p.MinEvidence {
			out = append(out, o.Residues)
		}
	}
	return out
}

// ConsistentWith reports whether the allele carries one of the supported
// combinations at the evidence loci.
func (p Phased) ConsistentWith(s hla.SequenceLoci) bool {
	return s.ConsistentWithAny(p.Supported(), p.Loci)
}

func (p Phased) String() string {
	parts := make([]string, 0, len(p.Observations))
	for _, o := range p.Observations {
		parts = append(parts, fmt.Sprintf("%s=%d", strings.Join(o.Residues, ""), o.Count))
	}
	return fmt.Sprintf("%v {%s}", p.Loci, strings.Join(parts, " "))
}

// PhasedEvidence builds evidence for each pair of consecutive heterozygous
// loci in counts, in locus order. Pairs that share a locus are chained into
// longer evidence while the fragments spanning the chain still support every
// combination the shorter pieces support.
func PhasedEvidence(minEvidence int, counts *SequenceCount, fragments []*fragment.AminoAcid) []Phased {
	het := counts.HeterozygousLoci()

	var pairs []Phased
	for i := 0; i+1 < len(het); i++ {
		if p, ok := NewPhased([]int{het[i], het[i+1]}, minEvidence, fragments); ok {
			pairs = append(pairs, p)
		}
	}

	var evidence []Phased
	for i := 0; i < len(pairs); {
		current, j := pairs[i], i+1
		for ; j < len(pairs) && current.Loci[len(current.Loci)-1] == pairs[j].Loci[0]; j++ {
			merged, ok := extend(current, pairs[j], minEvidence, fragments)
			if !ok {
				break
			}
			current = merged
		}
		evidence = append(evidence, current)
		i = j
	}
	return evidence
}

// extend joins two evidence items that share a boundary locus.
func extend(left, right Phased, minEvidence int, fragments []*fragment.AminoAcid) (Phased, bool) {
	loci := append(append([]int(nil), left.Loci...), right.Loci[1:]...)
	merged, ok := NewPhased(loci, minEvidence, fragments)
	if !ok || !merged.covers(left) || !merged.covers(right) {
		return Phased{}, false
	}
	return merged, true
}

// covers reports whether every supported combination of sub appears in a
// supported combination of p. sub.Loci must be a subset of p.Loci.
func (p Phased) covers(sub Phased) bool {
	index := make(map[int]int, len(p.Loci))
	for i, locus := range p.Loci {
		index[locus] = i
	}
	var projected []string
	for _, residues := range p.Supported() {
		part := make([]string, len(sub.Loci))
		for i, locus := range sub.Loci {
			part[i] = residues[index[locus]]
		}
		projected = append(projected, strings.Join(part, "\x00"))
	}
	for _, residues := range sub.Supported() {
		if !slices.Contains(projected, strings.Join(residues, "\x00")) {
			return false
		}
	}
	return true
}

// Unmatched is a supported combination that no candidate explains.
type Unmatched struct {
	Loci     []int
	Residues []string
	Count    int
}

// UnmatchedHaplotypes returns the supported combinations of the evidence that
// are not consistent with any of the candidates.
func UnmatchedHaplotypes(evidence []Phased, candidates []hla.SequenceLoci) []Unmatched {
	var unmatched []Unmatched
	for _, p := range evidence {
		for _, o := range p.Observations {
			if o.Count < p.MinEvidence {
				continue
			}
			explained := false
			for _, c := range candidates {
				if c.ConsistentWith(o.Residues, p.Loci) {
					explained = true
					break
				}
			}
			if !explained {
				unmatched = append(unmatched, Unmatched{Loci: p.Loci, Residues: o.Residues, Count: o.Count})
			}
		}
	}
	return unmatched
}
