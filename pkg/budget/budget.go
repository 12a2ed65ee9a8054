// Package budget estimates the memory cost of raster exports and packs work
// into batches or chunks under a byte ceiling.
package budget

import "math"

const (
	MB = 1024 * 1024

	// SafeMemoryBudget bounds the estimated raster bytes exported in one pass.
	SafeMemoryBudget int64 = 400 * MB
	// ChunkCeiling bounds the raw bytes carried by one hand-off message.
	ChunkCeiling int64 = 50 * MB
	// DefaultFallbackScale is the raster scale used for raster segments and
	// for vector frames that fall back to a raster export.
	DefaultFallbackScale = 2.0
)

// CompressionFactor approximates the encoded-to-raw size ratio of a raster
// export. Lower scales compress better.
func CompressionFactor(scale float64) float64 {
	switch {
	case scale < 1:
		return 0.25
	case scale < 2:
		return 0.33
	case scale < 3:
		return 0.40
	default:
		return 0.50
	}
}

// EstimateRaster estimates the bytes held for one frame exported at scale:
// four bytes per scaled pixel times the compression factor.
func EstimateRaster(width, height, scale float64) int64 {
	w := math.Ceil(width * scale)
	h := math.Ceil(height * scale)
	return int64(w * h * 4 * CompressionFactor(scale))
}

// Pack groups items in order. An item joins the current group unless that
// would push the group over limit while the group is non-empty. Items larger
// than limit end up alone in their own group and are never split.
func Pack[T any](items []T, size func(T) int64, limit int64) [][]T {
	var (
		groups  [][]T
		current []T
		total   int64
	)
	for _, item := range items {
		s := size(item)
		if len(current) > 0 && total+s > limit {
			groups = append(groups, current)
			current, total = nil, 0
		}
		current = append(current, item)
		total += s
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}
	return groups
}

// Sum adds up the size of every item.
func Sum[T any](items []T, size func(T) int64) int64 {
	var total int64
	for _, item := range items {
		total += size(item)
	}
	return total
}

// ToMB converts bytes to megabytes for display.
func ToMB(bytes int64) float64 {
	return math.Round(float64(bytes)/MB*10) / 10
}
