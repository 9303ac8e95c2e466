package redaction

// Input is everything a redaction run is derived from.
type Input struct {
	Text       string
	Detections []Detection
	Mode       Mode
	// Expected is the optional ground truth. Empty means no evaluation.
	Expected string
}

// Result holds the artifacts derived from an Input. It is recomputed as a
// whole whenever any input changes.
type Result struct {
	Entities     []Entity        `json:"entities" yaml:"entities"`
	Unlocated    []Detection     `json:"unlocated,omitempty" yaml:"unlocated,omitempty"`
	RedactedText string          `json:"redacted_text" yaml:"redacted_text"`
	Stats        ProcessingStats `json:"stats" yaml:"stats"`
	Evaluation   *Evaluation     `json:"evaluation,omitempty" yaml:"evaluation,omitempty"`
}

// Evaluation compares the system output against a ground truth.
type Evaluation struct {
	Similarity          float64     `json:"similarity" yaml:"similarity"`
	LevenshteinDistance int         `json:"levenshtein_distance" yaml:"levenshtein_distance"`
	Segments            []Segment   `json:"segments" yaml:"segments"`
	ExpectedView        []Segment   `json:"expected_view" yaml:"expected_view"`
	SystemView          []Segment   `json:"system_view" yaml:"system_view"`
	Summary             DiffSummary `json:"summary" yaml:"summary"`
}

// Evaluate scores actual against expected and derives both diff views from a
// single segment list.
func Evaluate(expected, actual string) Evaluation {
	segs := Diff(expected, actual)
	return Evaluation{
		Similarity:          Similarity(expected, actual),
		LevenshteinDistance: Levenshtein(expected, actual),
		Segments:            segs,
		ExpectedView:        ExpectedView(segs),
		SystemView:          SystemView(segs),
		Summary:             Summarize(segs),
	}
}

// Run locates in.Detections in in.Text, applies the redaction and derives the
// stats and, when a ground truth is given, the evaluation.
//
// When nothing could be located the redacted text is empty: there is no
// redaction to show.
func Run(in Input) Result {
	loc := LocateReport(in.Text, in.Detections)

	res := Result{
		Entities:  loc.Entities,
		Unlocated: loc.Unlocated,
	}
	if len(loc.Entities) > 0 {
		res.RedactedText = Apply(in.Text, loc.Entities, in.Mode)
	}

	res.Stats = ComputeStats(in.Text, res.RedactedText, loc.Entities)
	res.Stats.Unlocated = len(loc.Unlocated)

	if in.Expected != "" {
		eval := Evaluate(in.Expected, res.RedactedText)
		res.Evaluation = &eval
	}
	return res
}
