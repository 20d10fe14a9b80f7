package dsl

import (
	"testing"

	"github.com/tunerec/tunerec/core"
	"github.com/tunerec/tunerec/pkg/utils"
)

func testItem() *core.Item {
	it := core.NewItem(&core.CandidateSong{
		SongID:        "s1",
		Title:         "Live at the Garden",
		Key:           7,
		Tempo:         128,
		AverageRating: 4.2,
		RatingCount:   30,
		Features:      core.NewFeatureVector(0.8, 0.6, 0.7, 0.1, 128, 0.05, -7, 0.95),
	})
	it.Score = 0.42
	it.PutLabel("recall_source", utils.Label{Value: "popular", Source: "recall"})
	return it
}

func TestEvaluate(t *testing.T) {
	rctx := &core.RecommendContext{UserID: "u1", Limit: 10}

	tests := []struct {
		name    string
		expr    string
		want    bool
		wantErr bool
	}{
		{name: "empty expression is true", expr: "", want: true},
		{name: "feature threshold hit", expr: "item.features.liveness > 0.9", want: true},
		{name: "feature threshold miss", expr: "item.features.instrumentalness > 0.8", want: false},
		{name: "combined condition", expr: "item.avg_rating > 4.0 && item.rating_count >= 30", want: true},
		{name: "label accessor", expr: `label.recall_source == "popular"`, want: true},
		{name: "rctx access", expr: `rctx.user_id == "u1"`, want: true},
		{name: "compile error", expr: "item.features.liveness >", wantErr: true},
		{name: "non-boolean result", expr: "item.tempo", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewEval(testItem(), rctx).Evaluate(tt.expr)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Evaluate(%q) expected error", tt.expr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Evaluate(%q) error = %v", tt.expr, err)
			}
			if got != tt.want {
				t.Errorf("Evaluate(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}
