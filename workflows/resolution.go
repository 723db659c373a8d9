package workflows

// The engine rejects latent dimensions that are not multiples of the
// pipeline granularity, so rounding here is a correctness requirement.
const (
	imageGranularity = 32
	videoGranularity = 16

	// aspect multiplier for the short side of portrait/landscape output
	aspectRatio = 0.66

	minOctreeResolution = 64
	maxOctreeResolution = 512
)

// dimensions computes width and height from a single linear size plus the
// aspect selection, rounded to the nearest valid multiple.
func dimensions(resolution int, aspect Aspect, granule int) (width, height int) {
	switch aspect {
	case Landscape:
		width = resolution
		height = int(float64(resolution) * aspectRatio)
	case Portrait:
		width = int(float64(resolution) * aspectRatio)
		height = resolution
	default:
		width = resolution
		height = resolution
	}
	return roundToMultiple(width, granule), roundToMultiple(height, granule)
}

// roundToMultiple rounds v to the nearest multiple of m, never below m.
func roundToMultiple(v, m int) int {
	if v < m {
		return m
	}
	rounded := ((v + m/2) / m) * m
	if rounded < m {
		return m
	}
	return rounded
}

// normalizeFrames snaps a frame count to the 4k+1 lengths the video
// pipeline accepts, never below 5.
func normalizeFrames(frames int) int {
	if frames < 5 {
		return 5
	}
	return ((frames-1)/4)*4 + 1
}

// clampOctree keeps the voxel grid resolution inside the decoder's
// supported range, rounded down to a multiple of 16.
func clampOctree(resolution int) int {
	if resolution < minOctreeResolution {
		return minOctreeResolution
	}
	if resolution > maxOctreeResolution {
		return maxOctreeResolution
	}
	return (resolution / 16) * 16
}
