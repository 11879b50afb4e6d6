// Package candidates narrows a reference allele panel to the alleles
// consistent with the observed fragments.
package candidates

import (
	"github.com/inodb/vibe-hla/internal/hla"
)

// Set is an ordered selection from a shared, read-only panel. Filtering
// returns a new Set over the same panel; the panel itself is never copied
// or modified.
type Set struct {
	panel []hla.SequenceLoci
	idx   []int
}

// NewSet selects every sequence of the panel.
func NewSet(panel []hla.SequenceLoci) Set {
	idx := make([]int, len(panel))
	for i := range idx {
		idx[i] = i
	}
	return Set{panel: panel, idx: idx}
}

// Len returns the number of candidates.
func (s Set) Len() int {
	return len(s.idx)
}

// At returns the i-th candidate.
func (s Set) At(i int) hla.SequenceLoci {
	return s.panel[s.idx[i]]
}

// Sequences returns the candidates in order.
func (s Set) Sequences() []hla.SequenceLoci {
	out := make([]hla.SequenceLoci, len(s.idx))
	for i, j := range s.idx {
		out[i] = s.panel[j]
	}
	return out
}

// Alleles returns the candidate alleles in order.
func (s Set) Alleles() []hla.Allele {
	out := make([]hla.Allele, len(s.idx))
	for i, j := range s.idx {
		out[i] = s.panel[j].Allele
	}
	return out
}

// FourDigitGroups returns the distinct four-digit groups of the candidates.
func (s Set) FourDigitGroups() map[hla.Allele]bool {
	groups := make(map[hla.Allele]bool, len(s.idx))
	for _, j := range s.idx {
		groups[s.panel[j].Allele.FourDigit()] = true
	}
	return groups
}

// Filter returns the candidates keep accepts, in the same order.
func (s Set) Filter(keep func(hla.SequenceLoci) bool) Set {
	out := Set{panel: s.panel, idx: make([]int, 0, len(s.idx))}
	for _, j := range s.idx {
		if keep(s.panel[j]) {
			out.idx = append(out.idx, j)
		}
	}
	return out
}

// Subset reports whether every candidate of s is also in other.
func (s Set) Subset(other Set) bool {
	in := make(map[int]bool, len(other.idx))
	for _, j := range other.idx {
		in[j] = true
	}
	for _, j := range s.idx {
		if !in[j] {
			return false
		}
	}
	return true
}
