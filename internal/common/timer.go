// Package common provides shared utilities including stage timing.
package common

import (
	"fmt"
	"time"
)

// StageTimer measures how long a named pipeline stage takes.
type StageTimer struct {
	stage    string
	start    time.Time
	duration time.Duration
}

// StartStage begins timing the named stage.
func StartStage(stage string) *StageTimer {
	return &StageTimer{stage: stage, start: time.Now()}
}

// Stop stops the timer and returns the elapsed duration.
func (t *StageTimer) Stop() time.Duration {
	t.duration = time.Since(t.start)
	return t.duration
}

// Duration returns the recorded duration (only valid after Stop).
func (t *StageTimer) Duration() time.Duration { return t.duration }

// Stage returns the stage name.
func (t *StageTimer) Stage() string { return t.stage }

// String formats the timer for log output.
func (t *StageTimer) String() string {
	return fmt.Sprintf("%s: %v", t.stage, t.duration)
}
