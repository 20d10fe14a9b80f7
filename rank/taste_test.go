package rank

import (
	"context"
	"math"
	"testing"

	"github.com/tunerec/tunerec/core"
)

func cand(id string, energy, valence float64, avg float64, cnt int) *core.Item {
	return core.NewItem(&core.CandidateSong{
		SongID:        id,
		Title:         id,
		Features:      core.NewFeatureVector(energy, valence, 0.5, 0.2, 120, 0.1, -10, 0.1),
		AverageRating: avg,
		RatingCount:   cnt,
	})
}

func highEnergyProfile() *core.TasteProfile {
	return &core.TasteProfile{
		Centroid:      core.NewFeatureVector(0.9, 0.8, 0.7, 0.1, 125, 0.05, -6, 0.1),
		StyleKeywords: []string{"high-energy", "upbeat"},
	}
}

func TestTasteNode_OrdersBySimilarity(t *testing.T) {
	items := []*core.Item{
		cand("far", 0.05, 0.1, 3.0, 5),
		cand("near", 0.9, 0.8, 3.0, 5),
	}
	rctx := &core.RecommendContext{UserID: "u1", Limit: 10, Profile: highEnergyProfile()}

	out, err := (&TasteNode{}).Process(context.Background(), rctx, items)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if out[0].Song.SongID != "near" {
		t.Errorf("top item = %s, want near", out[0].Song.SongID)
	}
	if out[0].Score <= out[1].Score {
		t.Errorf("scores not descending: %v <= %v", out[0].Score, out[1].Score)
	}
	for _, it := range out {
		if it.Score < 0 || it.Score > 1+popularityBonus {
			t.Errorf("score %v out of range for %s", it.Score, it.Song.SongID)
		}
	}
}

func TestTasteNode_NoProfilePassthrough(t *testing.T) {
	items := []*core.Item{cand("a", 0.5, 0.5, 4, 10)}
	rctx := &core.RecommendContext{UserID: "u1", Limit: 10}

	out, err := (&TasteNode{}).Process(context.Background(), rctx, items)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if out[0].Score != 0 {
		t.Errorf("score = %v, want untouched 0", out[0].Score)
	}
}

type fixedClassifier struct{ prob float64 }

func (c *fixedClassifier) Name() string { return "fixed" }
func (c *fixedClassifier) Predict(_ map[string]float64) (float64, error) {
	return c.prob, nil
}

func TestTasteNode_ClassifierStrategy(t *testing.T) {
	p := highEnergyProfile()
	p.Classifier = &fixedClassifier{prob: 1.0}

	item := cand("a", 0.9, 0.8, 0, 0)
	rctx := &core.RecommendContext{UserID: "u1", Limit: 10, Profile: p}
	out, err := (&TasteNode{}).Process(context.Background(), rctx, []*core.Item{item})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	cos := p.Centroid.Cosine(item.Song.Features)
	want := math.Pow(weightClassifier*1.0+weightCosineWithClf*cos, amplifyExp)
	if math.Abs(out[0].Score-want) > 1e-9 {
		t.Errorf("score = %v, want %v", out[0].Score, want)
	}
	if lbl, ok := out[0].Labels["rank_model"]; !ok || lbl.Value != "fixed" {
		t.Errorf("rank_model label = %v, want fixed", lbl)
	}
}

func TestTasteNode_CosineStrategy(t *testing.T) {
	p := highEnergyProfile()
	item := cand("a", 0.9, 0.8, 4.0, 20)
	rctx := &core.RecommendContext{UserID: "u1", Limit: 10, Profile: p}

	out, err := (&TasteNode{}).Process(context.Background(), rctx, []*core.Item{item})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	cos := p.Centroid.Cosine(item.Song.Features)
	pop := math.Min(1.0, 4.0/5.0)
	want := math.Pow(weightCosine*cos+weightPop*pop, amplifyExp)
	if math.Abs(out[0].Score-want) > 1e-9 {
		t.Errorf("score = %v, want %v", out[0].Score, want)
	}
}

func TestTasteNode_PopularityBonus(t *testing.T) {
	// Same audio profile; only one qualifies for the acclaim bonus.
	plain := cand("plain", 0.9, 0.8, 4.4, 50)
	acclaimed := cand("acclaimed", 0.9, 0.8, 4.8, 50)
	rctx := &core.RecommendContext{UserID: "u1", Limit: 10, Profile: highEnergyProfile()}

	out, err := (&TasteNode{}).Process(context.Background(), rctx, []*core.Item{plain, acclaimed})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if out[0].Song.SongID != "acclaimed" {
		t.Errorf("top item = %s, want acclaimed", out[0].Song.SongID)
	}
}

func TestTasteNode_ParallelMatchesSerial(t *testing.T) {
	build := func() []*core.Item {
		return []*core.Item{
			cand("a", 0.9, 0.8, 4.8, 30),
			cand("b", 0.2, 0.3, 3.5, 10),
			cand("c", 0.6, 0.7, 4.0, 20),
			cand("d", 0.4, 0.5, 2.5, 5),
		}
	}
	rctx := &core.RecommendContext{UserID: "u1", Limit: 10, Profile: highEnergyProfile()}

	serial, err := (&TasteNode{}).Process(context.Background(), rctx, build())
	if err != nil {
		t.Fatalf("serial Process() error = %v", err)
	}
	parallel, err := (&TasteNode{MaxParallel: 4}).Process(context.Background(), rctx, build())
	if err != nil {
		t.Fatalf("parallel Process() error = %v", err)
	}

	if len(serial) != len(parallel) {
		t.Fatalf("length mismatch: %d vs %d", len(serial), len(parallel))
	}
	for i := range serial {
		if serial[i].Song.SongID != parallel[i].Song.SongID {
			t.Errorf("order differs at %d: %s vs %s", i, serial[i].Song.SongID, parallel[i].Song.SongID)
		}
		if serial[i].Score != parallel[i].Score {
			t.Errorf("score differs at %d: %v vs %v", i, serial[i].Score, parallel[i].Score)
		}
	}
}

func TestBuildReason(t *testing.T) {
	p := highEnergyProfile()

	tests := []struct {
		name string
		song *core.CandidateSong
		cos  float64
		want string
	}{
		{
			name: "very similar overrides keywords",
			song: cand("a", 0.9, 0.8, 0, 0).Song,
			cos:  0.95,
			want: "Very similar to your top songs",
		},
		{
			name: "keyword reasons capped at two",
			song: cand("a", 0.9, 0.8, 0, 0).Song,
			cos:  0.5,
			want: "Recommended for its high energy and upbeat and positive mood",
		},
		{
			name: "fallback reason",
			song: cand("a", 0.5, 0.5, 0, 0).Song,
			cos:  0.5,
			want: "Matches your music taste",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildReason(p, tt.song, tt.cos); got != tt.want {
				t.Errorf("buildReason() = %q, want %q", got, tt.want)
			}
		})
	}
}
