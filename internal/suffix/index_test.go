package suffix

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIndices(t *testing.T) {
	x := New("GSHSMRYFYTSVSRPGRGEPRFIAVGYVDDTQFVRFDSDAASQRMEPRAPWIEQEGPEYWDQETRNVKAQSQTDRVDLGTLRGYYNQSEA")

	tests := []struct {
		name  string
		query string
		want  []int
	}{
		{"prefix", "GSHS", []int{0}},
		{"repeated", "EP", []int{18, 45}},
		{"absent", "WWWW", nil},
		{"empty", "", nil},
		{"suffix", "NQSEA", []int{85}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, x.Indices(tt.query))
		})
	}
}

func TestIndices_MatchesNaiveSearch(t *testing.T) {
	text := "ABABABCABABCABAB"
	x := New(text)

	for _, q := range []string{"A", "AB", "ABA", "BC", "CAB", "ABABC", "Z"} {
		var want []int
		for i := 0; i+len(q) <= len(text); i++ {
			if strings.HasPrefix(text[i:], q) {
				want = append(want, i)
			}
		}
		assert.Equal(t, want, x.Indices(q), q)
	}
}

func TestIndices_QueryLongerThanText(t *testing.T) {
	x := New("ABC")
	assert.Empty(t, x.Indices("ABCD"))
	assert.Equal(t, 3, x.Len())
}

func TestIndices_Concurrent(t *testing.T) {
	x := New(strings.Repeat("ACDEFGHIKLMNPQRSTVWY", 20))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Len(t, x.Indices("KLMN"), 20)
		}()
	}
	wg.Wait()
}
