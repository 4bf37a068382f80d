package pipeline

// Stage names, in execution order. The sequence is fixed: every item passes
// through fetch, analyze, diff, decide; a fetch failure skips the remaining
// stages for that item only.
const (
	StageFetch   = "fetch"
	StageAnalyze = "analyze"
	StageDiff    = "diff"
	StageDecide  = "decide"
)

// StageOrder is the fixed ordered stage sequence for one item evaluation.
var StageOrder = []string{StageFetch, StageAnalyze, StageDiff, StageDecide}
