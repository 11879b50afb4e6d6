package hla

import "sort"

// RegionIndex answers overlap queries of read spans against coding regions
// using a sorted-slice approach per chromosome. Regions are indexed once and
// never modified afterwards.
type RegionIndex struct {
	chroms map[string]*regionTree
}

type regionTree struct {
	regions []CodingRegion // sorted by Start
	maxEnd  []int          // maxEnd[i] = max(End) for regions[:i+1]
}

// NewRegionIndex indexes the coding regions of the given genes.
func NewRegionIndex(genes []*GeneRegion) *RegionIndex {
	byChrom := make(map[string][]CodingRegion)
	for _, g := range genes {
		for _, r := range g.CodingRegions() {
			byChrom[r.Chrom] = append(byChrom[r.Chrom], r)
		}
	}

	idx := &RegionIndex{chroms: make(map[string]*regionTree, len(byChrom))}
	for chrom, regions := range byChrom {
		idx.chroms[chrom] = buildRegionTree(regions)
	}
	return idx
}

func buildRegionTree(regions []CodingRegion) *regionTree {
	sort.Slice(regions, func(i, j int) bool {
		return regions[i].Start < regions[j].Start
	})

	// Prefix-max array so the backwards scan can stop early.
	maxEnd := make([]int, len(regions))
	maxEnd[0] = regions[0].End
	for i := 1; i < len(regions); i++ {
		maxEnd[i] = regions[i].End
		if maxEnd[i-1] > maxEnd[i] {
			maxEnd[i] = maxEnd[i-1]
		}
	}

	return &regionTree{regions: regions, maxEnd: maxEnd}
}

// FindOverlaps returns the coding regions intersecting [start, end] on chrom,
// ordered by start position.
func (idx *RegionIndex) FindOverlaps(chrom string, start, end int) []CodingRegion {
	t, ok := idx.chroms[chrom]
	if !ok {
		return nil
	}

	// Candidates all have Start <= end.
	hi := sort.Search(len(t.regions), func(i int) bool {
		return t.regions[i].Start > end
	})

	var result []CodingRegion
	for i := hi - 1; i >= 0; i-- {
		// No region in 0..i reaches start.
		if t.maxEnd[i] < start {
			break
		}
		if t.regions[i].End >= start {
			result = append(result, t.regions[i])
		}
	}

	for l, r := 0, len(result)-1; l < r; l, r = l+1, r-1 {
		result[l], result[r] = result[r], result[l]
	}
	return result
}

// Chromosomes returns the number of chromosomes with indexed regions.
func (idx *RegionIndex) Chromosomes() int {
	return len(idx.chroms)
}
