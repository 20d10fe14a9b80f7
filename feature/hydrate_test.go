package feature

import (
	"context"
	"errors"
	"testing"

	"github.com/tunerec/tunerec/core"
	"github.com/tunerec/tunerec/feast"
)

type stubFeastClient struct {
	values map[string]map[string]interface{} // songID -> feature ref -> value
	err    error
	calls  int
}

func (c *stubFeastClient) GetOnlineFeatures(
	_ context.Context, req *feast.GetOnlineFeaturesRequest,
) (*feast.GetOnlineFeaturesResponse, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	resp := &feast.GetOnlineFeaturesResponse{}
	for _, row := range req.EntityRows {
		id, _ := row["song_id"].(string)
		resp.FeatureVectors = append(resp.FeatureVectors, feast.FeatureVector{
			Values:    c.values[id],
			EntityRow: row,
		})
	}
	return resp, nil
}

func (c *stubFeastClient) Close() error { return nil }

func bareItem(id string) *core.Item {
	return core.NewItem(&core.CandidateSong{SongID: id})
}

func TestHydrate_FillsMissingFeatures(t *testing.T) {
	client := &stubFeastClient{
		values: map[string]map[string]interface{}{
			"s1": {
				"song_features:energy":  0.8,
				"song_features:valence": 0.7,
				"song_features:tempo":   125.0,
			},
		},
	}
	n := &Hydrate{Client: client}

	full := core.NewItem(&core.CandidateSong{
		SongID:   "s2",
		Features: core.NewFeatureVector(0.5, 0.5, 0.5, 0.2, 120, 0.1, -10, 0.1),
	})
	items := []*core.Item{bareItem("s1"), full}

	out, err := n.Process(context.Background(), &core.RecommendContext{Limit: 10}, items)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if out[0].Song.Features.IsZero() {
		t.Error("s1 features still zero after hydration")
	}
	if out[0].Song.Features.Energy != 0.8 {
		t.Errorf("s1 energy = %v, want 0.8", out[0].Song.Features.Energy)
	}
	if out[0].Song.Tempo != 125.0 {
		t.Errorf("s1 tempo = %v, want raw 125", out[0].Song.Tempo)
	}
	if lbl, ok := out[0].Labels["hydrated"]; !ok || lbl.Value != "feast" {
		t.Errorf("hydrated label = %v", lbl)
	}
	if _, ok := out[1].Labels["hydrated"]; ok {
		t.Error("item with features should not be hydrated")
	}
}

func TestHydrate_SkipsWhenNothingMissing(t *testing.T) {
	client := &stubFeastClient{}
	n := &Hydrate{Client: client}

	full := core.NewItem(&core.CandidateSong{
		SongID:   "s1",
		Features: core.NewFeatureVector(0.5, 0.5, 0.5, 0.2, 120, 0.1, -10, 0.1),
	})
	if _, err := n.Process(context.Background(), nil, []*core.Item{full}); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if client.calls != 0 {
		t.Errorf("feature platform called %d times, want 0", client.calls)
	}
}

func TestHydrate_PlatformFailureTolerated(t *testing.T) {
	n := &Hydrate{Client: &stubFeastClient{err: errors.New("feast down")}}

	items := []*core.Item{bareItem("s1")}
	out, err := n.Process(context.Background(), nil, items)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(out) != 1 {
		t.Errorf("got %d items, want passthrough of 1", len(out))
	}
	if !out[0].Song.Features.IsZero() {
		t.Error("features should remain zero on platform failure")
	}
}
