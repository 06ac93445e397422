package diag

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_SortedAndDeduplicated(t *testing.T) {
	c := NewCollector()
	c.Report(Diagnostic{Path: "src/z.ts", Stage: StageExtract, Message: "parse error"})
	c.Report(Diagnostic{Path: "src/a.ts", Stage: StageExtract, Message: "too large"})
	c.Report(Diagnostic{Path: "src/z.ts", Stage: StageExtract, Message: "parse error"})
	c.Reportf(StageDiscover, "locked", errors.New("permission denied"))

	got := c.Sorted()
	require.Len(t, got, 3)
	assert.Equal(t, "locked", got[0].Path)
	assert.Equal(t, "src/a.ts", got[1].Path)
	assert.Equal(t, "src/z.ts", got[2].Path)
	assert.Equal(t, "discover: locked: permission denied", got[0].String())
}

func TestCollector_ConcurrentReports(t *testing.T) {
	c := NewCollector()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Report(Diagnostic{Path: fmt.Sprintf("f%02d.ts", i%10), Stage: StageClosure, Message: "x"})
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, c.Len())
}

func TestDiscard(t *testing.T) {
	Discard.Report(Diagnostic{Path: "x"})
}
