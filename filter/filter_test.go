package filter

import (
	"context"
	"errors"
	"testing"

	"github.com/tunerec/tunerec/core"
)

type stubRatedStore struct {
	ids []string
	err error
}

func (s *stubRatedStore) GetRatedSongIDs(_ context.Context, _ string) ([]string, error) {
	return s.ids, s.err
}

func candidate(id string, liveness float64) *core.Item {
	return core.NewItem(&core.CandidateSong{
		SongID:   id,
		Title:    id,
		Features: core.NewFeatureVector(0.5, 0.5, 0.5, 0.2, 120, 0.1, -10, liveness),
	})
}

func TestRated_FiltersRatedSongs(t *testing.T) {
	f := &Rated{Store: &stubRatedStore{ids: []string{"s2"}}}
	rctx := &core.RecommendContext{UserID: "u1"}

	node := &Node{Filters: []Filter{f}}
	out, err := node.Process(context.Background(), rctx, []*core.Item{
		candidate("s1", 0.1),
		candidate("s2", 0.1),
		candidate("s3", 0.1),
	})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("kept %d items, want 2", len(out))
	}
	for _, it := range out {
		if it.Song.SongID == "s2" {
			t.Error("rated song s2 survived the filter")
		}
	}
}

func TestRated_StoreErrorTolerated(t *testing.T) {
	f := &Rated{Store: &stubRatedStore{err: errors.New("db down")}}
	rctx := &core.RecommendContext{UserID: "u1"}

	hit, err := f.ShouldFilter(context.Background(), rctx, candidate("s1", 0.1))
	if err != nil {
		t.Fatalf("ShouldFilter() error = %v", err)
	}
	if hit {
		t.Error("store failure must not filter candidates")
	}
}

func TestExpr_Filtering(t *testing.T) {
	rctx := &core.RecommendContext{UserID: "u1"}

	tests := []struct {
		name     string
		expr     string
		liveness float64
		want     bool
	}{
		{name: "live recording filtered", expr: "item.features.liveness > 0.9", liveness: 0.95, want: true},
		{name: "studio recording kept", expr: "item.features.liveness > 0.9", liveness: 0.1, want: false},
		{name: "broken expression tolerated", expr: "item.features.liveness >", liveness: 0.95, want: false},
		{name: "empty expression keeps all", expr: "", liveness: 0.95, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &Expr{Expression: tt.expr}
			hit, err := f.ShouldFilter(context.Background(), rctx, candidate("s1", tt.liveness))
			if err != nil {
				t.Fatalf("ShouldFilter() error = %v", err)
			}
			if hit != tt.want {
				t.Errorf("ShouldFilter() = %v, want %v", hit, tt.want)
			}
		})
	}
}

func TestNode_LabelsFilteredItems(t *testing.T) {
	f := &Rated{Store: &stubRatedStore{ids: []string{"s1"}}}
	rctx := &core.RecommendContext{UserID: "u1"}

	it := candidate("s1", 0.1)
	node := &Node{Filters: []Filter{f}}
	out, err := node.Process(context.Background(), rctx, []*core.Item{it})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("kept %d items, want 0", len(out))
	}
	if lbl, ok := it.Labels["filtered_by"]; !ok || lbl.Value != "filter.rated" {
		t.Errorf("filtered_by label = %v, want filter.rated", lbl)
	}
}
