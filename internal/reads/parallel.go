package reads

import (
	"runtime"
	"sync"

	"github.com/vertgenlab/gonomics/sam"

	"github.com/inodb/vibe-hla/internal/fragment"
)

// WorkItem holds an accepted read ready for fragment construction.
type WorkItem struct {
	Seq  int
	Read *sam.Sam
}

// WorkResult holds the fragments built from a single read.
type WorkResult struct {
	Seq       int
	Fragments []*fragment.Nucleotide
	Rejected  int
}

// ParallelBuild builds fragments for work items using a pool of workers.
// Results are sent to the returned channel in arrival order (not sequence order).
// Use OrderedCollect to consume results in sequence-number order.
// If workers is 0, runtime.NumCPU() is used.
func (b *Builder) ParallelBuild(items <-chan WorkItem, workers int) <-chan WorkResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make(chan WorkResult, 2*workers)

	var wg sync.WaitGroup
	wg.Add(workers)

	for range workers {
		go func() {
			defer wg.Done()
			for item := range items {
				frags, rejected := b.Build(item.Read)
				results <- WorkResult{
					Seq:       item.Seq,
					Fragments: frags,
					Rejected:  rejected,
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// OrderedCollect calls fn for each result in sequence-number order.
// Out-of-order results wait in a pending map until their turn.
// Blocks until the results channel is closed.
func OrderedCollect(results <-chan WorkResult, fn func(WorkResult) error) error {
	pending := make(map[int]WorkResult)
	nextSeq := 0

	for r := range results {
		pending[r.Seq] = r

		for {
			rr, ok := pending[nextSeq]
			if !ok {
				break
			}
			delete(pending, nextSeq)
			nextSeq++
			if err := fn(rr); err != nil {
				// Drain so workers can exit.
				for range results {
				}
				return err
			}
		}
	}

	return nil
}
