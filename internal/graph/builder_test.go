package graph

import (
	"context"
	"errors"
	"path"
	"reflect"
	"sync/atomic"
	"testing"

	"tir/internal/diag"
)

// mapSource serves specifiers from a fixed table.
type mapSource map[string][]string

func (m mapSource) Specifiers(_ context.Context, rel string) []string {
	return m[rel]
}

// mapResolver resolves relative specifiers to paths present in files.
type mapResolver struct {
	files  map[string]bool
	ghosts map[string]bool
}

func (r mapResolver) Resolve(spec, fromDir string) (string, bool) {
	if len(spec) == 0 || spec[0] != '.' {
		return "", false
	}
	p := path.Join(fromDir, spec)
	if r.files[p] || r.ghosts[p] {
		return p, true
	}
	return "", false
}

func (r mapResolver) IsGhost(rel string) bool { return r.ghosts[rel] }

func newFixture(edges map[string][]string) (mapSource, mapResolver) {
	files := make(map[string]bool)
	for from, specs := range edges {
		files[from] = true
		for _, s := range specs {
			if s[0] == '.' {
				files[path.Join(path.Dir(from), s)] = true
			}
		}
	}
	return mapSource(edges), mapResolver{files: files, ghosts: map[string]bool{}}
}

func TestClosure_Transitive(t *testing.T) {
	src, res := newFixture(map[string][]string{
		"t.test.js": {"./a.js", "react"},
		"a.js":      {"./lib/b.js"},
		"lib/b.js":  {"../c.js", "lodash"},
		"c.js":      nil,
	})
	b := NewBuilder(src, res)

	c, err := b.Closure(context.Background(), "t.test.js")
	if err != nil {
		t.Fatalf("Closure failed: %v", err)
	}
	want := []string{"a.js", "lib/b.js", "c.js"}
	if !reflect.DeepEqual(c.Files, want) {
		t.Errorf("Files = %v, want %v", c.Files, want)
	}
	if c.Contains("t.test.js") {
		t.Error("closure must not contain the test file itself")
	}
	if !c.Contains("c.js") {
		t.Error("closure should contain multi-hop dependency c.js")
	}
	if got := c.Chain("c.js"); !reflect.DeepEqual(got, []string{"t.test.js", "a.js", "lib/b.js", "c.js"}) {
		t.Errorf("Chain = %v", got)
	}
}

func TestClosure_CycleTerminates(t *testing.T) {
	src, res := newFixture(map[string][]string{
		"t.test.js": {"./a.js"},
		"a.js":      {"./b.js"},
		"b.js":      {"./a.js", "./t.test.js"},
	})
	b := NewBuilder(src, res)

	c, err := b.Closure(context.Background(), "t.test.js")
	if err != nil {
		t.Fatalf("Closure failed: %v", err)
	}
	if want := []string{"a.js", "b.js"}; !reflect.DeepEqual(c.Files, want) {
		t.Errorf("Files = %v, want %v", c.Files, want)
	}
	if c.Graph.NumEdges() != 4 {
		t.Errorf("NumEdges = %d, want 4", c.Graph.NumEdges())
	}
}

func TestClosure_MutualImportFromA(t *testing.T) {
	src, res := newFixture(map[string][]string{
		"a.test.js": {"./b.js"},
		"b.js":      {"./a.test.js"},
	})
	c, err := NewBuilder(src, res).Closure(context.Background(), "a.test.js")
	if err != nil {
		t.Fatalf("Closure failed: %v", err)
	}
	if want := []string{"b.js"}; !reflect.DeepEqual(c.Files, want) {
		t.Errorf("Files = %v, want %v", c.Files, want)
	}
}

func TestClosure_ExternalOnly(t *testing.T) {
	src, res := newFixture(map[string][]string{
		"c.test.js": {"widgets", "@scope/ui"},
	})
	c, err := NewBuilder(src, res).Closure(context.Background(), "c.test.js")
	if err != nil {
		t.Fatalf("Closure failed: %v", err)
	}
	if len(c.Files) != 0 {
		t.Errorf("Files = %v, want none", c.Files)
	}
}

func TestClosure_GhostNotExpanded(t *testing.T) {
	src, res := newFixture(map[string][]string{
		"t.test.js": {"./gone.js"},
		"gone.js":   {"./never.js"},
	})
	res.ghosts["gone.js"] = true

	c, err := NewBuilder(src, res).Closure(context.Background(), "t.test.js")
	if err != nil {
		t.Fatalf("Closure failed: %v", err)
	}
	if want := []string{"gone.js"}; !reflect.DeepEqual(c.Files, want) {
		t.Errorf("Files = %v, want %v", c.Files, want)
	}
}

func TestClosure_Cancelled(t *testing.T) {
	src, res := newFixture(map[string][]string{"t.test.js": {"./a.js"}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewBuilder(src, res).Closure(ctx, "t.test.js")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestBuildAll_SlotPerTest(t *testing.T) {
	src, res := newFixture(map[string][]string{
		"a.test.js": {"./a.js"},
		"b.test.js": {"./b.js"},
		"c.test.js": {"./a.js", "./b.js"},
		"a.js":      nil,
		"b.js":      {"./a.js"},
	})
	tests := []string{"a.test.js", "b.test.js", "c.test.js"}

	for _, workers := range []int{1, 2, 8} {
		b := NewBuilder(src, res, WithWorkers(workers))
		closures, err := b.BuildAll(context.Background(), tests)
		if err != nil {
			t.Fatalf("BuildAll failed: %v", err)
		}
		if len(closures) != len(tests) {
			t.Fatalf("got %d closures, want %d", len(closures), len(tests))
		}
		for i, c := range closures {
			if c.TestFile != tests[i] {
				t.Errorf("workers=%d slot %d = %s, want %s", workers, i, c.TestFile, tests[i])
			}
		}
		if want := []string{"b.js", "a.js"}; !reflect.DeepEqual(closures[1].Files, want) {
			t.Errorf("b.test.js Files = %v, want %v", closures[1].Files, want)
		}
	}
}

// panicSource panics for one file to check worker isolation.
type panicSource struct {
	mapSource
	bad   string
	calls atomic.Int32
}

func (p *panicSource) Specifiers(ctx context.Context, rel string) []string {
	p.calls.Add(1)
	if rel == p.bad {
		panic("boom")
	}
	return p.mapSource.Specifiers(ctx, rel)
}

func TestBuildAll_PanicIsolated(t *testing.T) {
	src, res := newFixture(map[string][]string{
		"ok.test.js":  {"./a.js"},
		"bad.test.js": {"./a.js"},
		"a.js":        nil,
	})
	sink := diag.NewCollector()
	b := NewBuilder(&panicSource{mapSource: src, bad: "bad.test.js"}, res, WithSink(sink), WithWorkers(2))

	closures, err := b.BuildAll(context.Background(), []string{"bad.test.js", "ok.test.js"})
	if err != nil {
		t.Fatalf("BuildAll failed: %v", err)
	}
	if closures[0].Err == nil {
		t.Error("expected error on panicking closure")
	}
	if len(closures[0].Files) != 0 {
		t.Errorf("failed closure should be empty, got %v", closures[0].Files)
	}
	if closures[1].Err != nil || !reflect.DeepEqual(closures[1].Files, []string{"a.js"}) {
		t.Errorf("sibling closure affected: %+v", closures[1])
	}

	diags := sink.Sorted()
	if len(diags) != 1 || diags[0].Path != "bad.test.js" || diags[0].Stage != diag.StageClosure {
		t.Errorf("diagnostics = %v", diags)
	}
}

func TestGraph_Basics(t *testing.T) {
	g := NewGraph()
	if !g.AddEdge("a", "b") {
		t.Error("b should be new")
	}
	if g.AddEdge("a", "b") {
		t.Error("duplicate edge should not add a node")
	}
	g.AddEdge("b", "a")
	g.AddEdge("a", "c")

	if g.NumNodes() != 3 || g.NumEdges() != 3 {
		t.Errorf("nodes=%d edges=%d, want 3/3", g.NumNodes(), g.NumEdges())
	}
	if got := g.Neighbors("a"); !reflect.DeepEqual(got, []string{"b", "c"}) {
		t.Errorf("Neighbors(a) = %v", got)
	}
	want := []Edge{{"a", "b"}, {"a", "c"}, {"b", "a"}}
	if got := g.Edges(); !reflect.DeepEqual(got, want) {
		t.Errorf("Edges = %v, want %v", got, want)
	}
	if g.PathTo("missing") != nil {
		t.Error("PathTo of unknown node should be nil")
	}
}
