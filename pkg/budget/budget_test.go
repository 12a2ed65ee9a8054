package budget

import (
	"testing"
)

func identity(v int64) int64 { return v }

func TestCompressionFactor(t *testing.T) {
	tests := []struct {
		scale float64
		want  float64
	}{
		{0.5, 0.25},
		{1, 0.33},
		{1.5, 0.33},
		{2, 0.40},
		{3, 0.50},
		{4, 0.50},
	}

	for _, tt := range tests {
		if got := CompressionFactor(tt.scale); got != tt.want {
			t.Errorf("CompressionFactor(%g) = %g, want %g", tt.scale, got, tt.want)
		}
	}
}

func TestEstimateRaster(t *testing.T) {
	// 100x50 at 2x = 200x100 px, 4 bytes each, 0.40 factor
	if got := EstimateRaster(100, 50, 2); got != 32000 {
		t.Errorf("EstimateRaster() = %d, want 32000", got)
	}
}

func TestPack(t *testing.T) {
	tests := []struct {
		name  string
		items []int64
		limit int64
		want  [][]int64
	}{
		{
			name:  "three frames over a 400MB budget",
			items: []int64{167 * MB, 167 * MB, 167 * MB},
			limit: 400 * MB,
			want:  [][]int64{{167 * MB, 167 * MB}, {167 * MB}},
		},
		{
			name:  "everything fits",
			items: []int64{1, 2, 3},
			limit: 10,
			want:  [][]int64{{1, 2, 3}},
		},
		{
			name:  "oversize item stays alone",
			items: []int64{2, 50, 3},
			limit: 10,
			want:  [][]int64{{2}, {50}, {3}},
		},
		{
			name:  "oversize first item",
			items: []int64{50, 3, 4},
			limit: 10,
			want:  [][]int64{{50}, {3, 4}},
		},
		{
			name:  "exact fit",
			items: []int64{5, 5, 5},
			limit: 10,
			want:  [][]int64{{5, 5}, {5}},
		},
		{
			name:  "empty",
			items: nil,
			limit: 10,
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Pack(tt.items, identity, tt.limit)
			if len(got) != len(tt.want) {
				t.Fatalf("Pack() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if len(got[i]) != len(tt.want[i]) {
					t.Fatalf("group %d = %v, want %v", i, got[i], tt.want[i])
				}
				for j := range got[i] {
					if got[i][j] != tt.want[i][j] {
						t.Errorf("group %d item %d = %d, want %d", i, j, got[i][j], tt.want[i][j])
					}
				}
			}
		})
	}
}

func TestPackRespectsLimit(t *testing.T) {
	items := []int64{7, 1, 9, 12, 3, 3, 3, 8, 2, 11, 1}
	const limit = 10

	var flat []int64
	for _, group := range Pack(items, identity, limit) {
		sum := Sum(group, identity)
		if sum > limit && len(group) != 1 {
			t.Errorf("group %v exceeds limit with %d items", group, len(group))
		}
		flat = append(flat, group...)
	}

	if len(flat) != len(items) {
		t.Fatalf("packing lost items: %v", flat)
	}
	for i := range items {
		if flat[i] != items[i] {
			t.Errorf("order changed at %d: %d != %d", i, flat[i], items[i])
		}
	}
}
