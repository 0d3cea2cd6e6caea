package metrics

import "time"

// testRecorder verifies the Recorder interface stays implementable by simple fakes.
type testRecorder struct {
	taskDurations map[string]int
	taskResults   map[string]map[ResultLabel]int
	cycles        map[string]int
	entries       int
}

var _ Recorder = (*testRecorder)(nil)
var _ Recorder = NoopRecorder{}
var _ Recorder = (*PrometheusRecorder)(nil)

func (t *testRecorder) ObserveTaskDuration(task string, _ time.Duration) { t.taskDurations[task]++ }
func (t *testRecorder) IncTaskResult(task string, result ResultLabel) {
	m, ok := t.taskResults[task]
	if !ok {
		m = map[ResultLabel]int{}
		t.taskResults[task] = m
	}
	m[result]++
}
func (t *testRecorder) ObserveBuildDuration(time.Duration)      {}
func (t *testRecorder) IncBuildOutcome(BuildOutcomeLabel)       {}
func (t *testRecorder) IncWatchCycle(p string, _ ResultLabel)   { t.cycles[p]++ }
func (t *testRecorder) SetManifestEntries(n int)                { t.entries = n }
