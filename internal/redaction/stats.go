package redaction

// ProcessingStats is the derived report of one redaction run.
type ProcessingStats struct {
	TotalEntities       int                `json:"total_entities" yaml:"total_entities"`
	LevenshteinDistance int                `json:"levenshtein_distance" yaml:"levenshtein_distance"`
	SimilarityScore     float64            `json:"similarity_score" yaml:"similarity_score"`
	Breakdown           map[EntityType]int `json:"breakdown" yaml:"breakdown"`
	Unlocated           int                `json:"unlocated" yaml:"unlocated"`
}

// ComputeStats reports on the redaction of original into redacted.
// With no entities nothing was changed, so the report is neutral: distance 0
// and similarity 100.
func ComputeStats(original, redacted string, entities []Entity) ProcessingStats {
	stats := ProcessingStats{
		TotalEntities:   len(entities),
		SimilarityScore: 100,
		Breakdown:       Breakdown(entities),
	}
	if len(entities) == 0 {
		return stats
	}

	stats.LevenshteinDistance = Levenshtein(original, redacted)
	stats.SimilarityScore = Similarity(original, redacted)
	return stats
}

// Breakdown counts entities per type.
func Breakdown(entities []Entity) map[EntityType]int {
	counts := make(map[EntityType]int)
	for _, e := range entities {
		counts[e.Type]++
	}
	return counts
}
