// Package fragment builds per-read nucleotide fragments over HLA coding loci.
package fragment

import (
	"fmt"
	"sort"

	"golang.org/x/exp/slices"
)

// Nucleotide is the set of nucleotide calls a single read (or read pair)
// contributes to one or more genes. Loci, Qualities and Nucleotides are
// parallel slices ordered by ascending locus. A value is never modified after
// construction; every transformation returns a new fragment.
type Nucleotide struct {
	ID          string
	Genes       []string // long gene names, sorted and unique
	Loci        []int
	Qualities   []int
	Nucleotides []string
}

type call struct {
	locus      int
	quality    int
	nucleotide string
}

// NewNucleotide builds a fragment from parallel slices. It panics if the
// slices differ in length or a locus repeats.
func NewNucleotide(id string, genes []string, loci, qualities []int, nucleotides []string) *Nucleotide {
	if len(loci) != len(qualities) || len(loci) != len(nucleotides) {
		panic(fmt.Sprintf("fragment %s: %d loci, %d qualities, %d nucleotides",
			id, len(loci), len(qualities), len(nucleotides)))
	}

	calls := make([]call, len(loci))
	for i := range loci {
		calls[i] = call{loci[i], qualities[i], nucleotides[i]}
	}
	return fromCalls(id, genes, calls)
}

func fromCalls(id string, genes []string, calls []call) *Nucleotide {
	sort.SliceStable(calls, func(i, j int) bool { return calls[i].locus < calls[j].locus })

	f := &Nucleotide{
		ID:          id,
		Genes:       normalizeGenes(genes),
		Loci:        make([]int, len(calls)),
		Qualities:   make([]int, len(calls)),
		Nucleotides: make([]string, len(calls)),
	}
	for i, c := range calls {
		if i > 0 && c.locus == calls[i-1].locus {
			panic(fmt.Sprintf("fragment %s: duplicate locus %d", id, c.locus))
		}
		f.Loci[i] = c.locus
		f.Qualities[i] = c.quality
		f.Nucleotides[i] = c.nucleotide
	}
	return f
}

func normalizeGenes(genes []string) []string {
	out := append([]string(nil), genes...)
	slices.Sort(out)
	return slices.Compact(out)
}

func (f *Nucleotide) calls() []call {
	calls := make([]call, len(f.Loci))
	for i := range f.Loci {
		calls[i] = call{f.Loci[i], f.Qualities[i], f.Nucleotides[i]}
	}
	return calls
}

// Len returns the number of nucleotide calls.
func (f *Nucleotide) Len() int {
	return len(f.Loci)
}

// ContainsGene reports whether the fragment supports the gene.
func (f *Nucleotide) ContainsGene(gene string) bool {
	_, found := slices.BinarySearch(f.Genes, gene)
	return found
}

func (f *Nucleotide) index(locus int) (int, bool) {
	return slices.BinarySearch(f.Loci, locus)
}

// ContainsNucleotide reports whether the fragment has a call at locus.
func (f *Nucleotide) ContainsNucleotide(locus int) bool {
	_, ok := f.index(locus)
	return ok
}

// Nucleotide returns the call at locus. Callers must check ContainsNucleotide
// first; a missing locus panics.
func (f *Nucleotide) Nucleotide(locus int) string {
	i, ok := f.index(locus)
	if !ok {
		panic(fmt.Sprintf("fragment %s does not contain nucleotide locus %d", f.ID, locus))
	}
	return f.Nucleotides[i]
}

// Quality returns the base quality at locus. A missing locus panics.
func (f *Nucleotide) Quality(locus int) int {
	i, ok := f.index(locus)
	if !ok {
		panic(fmt.Sprintf("fragment %s does not contain nucleotide locus %d", f.ID, locus))
	}
	return f.Qualities[i]
}

// ContainsIndel reports whether any call is a deletion or carries inserted bases.
func (f *Nucleotide) ContainsIndel() bool {
	for _, n := range f.Nucleotides {
		if n == "." || len(n) > 1 {
			return true
		}
	}
	return false
}

// MaxLocus returns the highest covered locus, or -1 for an empty fragment.
func (f *Nucleotide) MaxLocus() int {
	if len(f.Loci) == 0 {
		return -1
	}
	return f.Loci[len(f.Loci)-1]
}

// AminoAcidLoci returns the amino acid loci whose three nucleotides are all present.
func (f *Nucleotide) AminoAcidLoci() []int {
	var loci []int
	for _, l := range f.Loci {
		if l%3 == 0 && f.ContainsNucleotide(l+1) && f.ContainsNucleotide(l+2) {
			loci = append(loci, l/3)
		}
	}
	return loci
}

// QualityFilter returns a fragment without calls below minBaseQuality.
func (f *Nucleotide) QualityFilter(minBaseQuality int) *Nucleotide {
	var calls []call
	for _, c := range f.calls() {
		if c.quality >= minBaseQuality {
			calls = append(calls, c)
		}
	}
	return fromCalls(f.ID, f.Genes, calls)
}

// Enrich returns a fragment with the call at locus set to nucleotide and
// quality, replacing any existing call.
func (f *Nucleotide) Enrich(locus int, nucleotide string, quality int) *Nucleotide {
	calls := f.calls()
	if i, ok := f.index(locus); ok {
		calls[i] = call{locus, quality, nucleotide}
	} else {
		calls = append(calls, call{locus, quality, nucleotide})
	}
	return fromCalls(f.ID, f.Genes, calls)
}

// Merge combines fragments sharing a read id, such as the two mates of a pair
// or one read spanning several exons. Overlapping loci keep the call with the
// higher quality and genes are unioned. Output order follows first appearance.
func Merge(fragments []*Nucleotide) []*Nucleotide {
	var order []string
	byID := make(map[string][]*Nucleotide)
	for _, f := range fragments {
		if _, ok := byID[f.ID]; !ok {
			order = append(order, f.ID)
		}
		byID[f.ID] = append(byID[f.ID], f)
	}

	merged := make([]*Nucleotide, 0, len(order))
	for _, id := range order {
		group := byID[id]
		if len(group) == 1 {
			merged = append(merged, group[0])
			continue
		}
		merged = append(merged, mergeGroup(id, group))
	}
	return merged
}

func mergeGroup(id string, group []*Nucleotide) *Nucleotide {
	best := make(map[int]call)
	var genes []string
	for _, f := range group {
		genes = append(genes, f.Genes...)
		for _, c := range f.calls() {
			if prev, ok := best[c.locus]; !ok || c.quality > prev.quality {
				best[c.locus] = c
			}
		}
	}

	calls := make([]call, 0, len(best))
	for _, c := range best {
		calls = append(calls, c)
	}
	return fromCalls(id, genes, calls)
}
