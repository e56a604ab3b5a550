package telemetry

// Span attribute keys set by the heatmap pipeline.
const (
	AttrFilesTotal    = "trackheat.files_total"
	AttrPoints        = "trackheat.points"
	AttrPointsShown   = "trackheat.points_shown"
	AttrCacheOutcome  = "trackheat.cache_outcome"
	AttrWindow        = "trackheat.window"
	AttrRenderedBytes = "trackheat.rendered_bytes"
)
