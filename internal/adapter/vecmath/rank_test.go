package vecmath

import (
	"math"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0},
		{"length mismatch", []float32{1}, []float32{1, 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestNearest(t *testing.T) {
	candidates := []Candidate{
		{ID: "far", Vector: []float32{0, 1}},
		{ID: "b", Vector: []float32{1, 0}},
		{ID: "a", Vector: []float32{2, 0}},
		{ID: "mid", Vector: []float32{1, 1}},
	}

	got := Nearest([]float32{1, 0}, candidates, 3)
	if len(got) != 3 {
		t.Fatalf("expected 3 neighbours, got %d", len(got))
	}

	wantIDs := []string{"a", "b", "mid"}
	for i, id := range wantIDs {
		if got[i].ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, got[i].ID)
		}
	}
	if got[0].Distance > 1e-9 {
		t.Errorf("expected zero distance for parallel vector, got %v", got[0].Distance)
	}

	if res := Nearest([]float32{1, 0}, candidates, 0); res != nil {
		t.Errorf("expected nil for k=0, got %v", res)
	}
	if res := Nearest([]float32{1, 0}, candidates, 10); len(res) != 4 {
		t.Errorf("expected k to be capped at candidate count, got %d", len(res))
	}
}
