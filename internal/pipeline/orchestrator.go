package pipeline

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/MeKo-Tech/labelscan/internal/common"
	"github.com/MeKo-Tech/labelscan/internal/detector"
	"github.com/MeKo-Tech/labelscan/internal/extractor"
	"github.com/MeKo-Tech/labelscan/internal/frame"
	"github.com/MeKo-Tech/labelscan/internal/parser"
	"github.com/MeKo-Tech/labelscan/internal/utils"
	"github.com/google/uuid"
)

// Orchestrator sequences the pipeline stages for one frame at a time. At
// most one run is active; a newer tick cancels the previous run
// cooperatively between stages. Throttling state is per instance, so
// independent orchestrators (e.g. under test) do not interfere.
type Orchestrator struct {
	cfg       Config
	converter *frame.Converter
	detector  *detector.Detector
	extractor extractor.Extractor
	parser    *parser.Parser

	mu           sync.Mutex
	lastRunStart time.Time
	activeRunID  string
	cancelActive context.CancelFunc
}

// Run executes the pipeline for one captured frame. It never panics outward
// and never returns an error: unusable frames end in StateSkipped,
// superseded runs in StateCancelled, and all backend failures degrade to an
// empty credential list. The timestamp is the frame's capture time from a
// monotonic clock; ticks arriving before the configured minimum interval
// has elapsed since the previous run's start are skipped.
func (o *Orchestrator) Run(ctx context.Context, buf *frame.Buffer, rotationDegrees int, ts time.Time) (result Result) {
	runID := uuid.NewString()
	result = Result{RunID: runID, State: StateIdle}
	defer func() {
		if r := recover(); r != nil {
			slog.Error("pipeline run panicked", "run_id", runID, "panic", r)
			result = Result{RunID: runID, State: StateSkipped}
		}
		runsTotal.WithLabelValues(string(result.State)).Inc()
	}()

	runCtx, cancel, ok := o.admit(ctx, ts, runID)
	if !ok {
		result.State = StateSkipped
		slog.Debug("pipeline run throttled", "run_id", runID)
		return result
	}
	defer o.finish(runID, cancel)

	total := common.StartStage("run")
	defer func() { result.DurationNs = total.Stop().Nanoseconds() }()

	img, state := o.convert(runCtx, buf, rotationDegrees, runID)
	if state != "" {
		result.State = state
		return result
	}

	regions, state := o.detect(runCtx, img, runID)
	if state != "" {
		result.State = state
		return result
	}
	result.Regions = len(regions)

	candidates, state := o.extractAndParse(runCtx, img, regions, runID)
	if state != "" {
		result.State = state
		return result
	}

	result.Credentials = dedupeCredentials(candidates)
	result.State = StateDone
	credentialsFound.Observe(float64(len(result.Credentials)))
	slog.Debug("pipeline run completed",
		"run_id", runID, "regions", len(regions), "credentials", len(result.Credentials))
	return result
}

// admit applies the throttle and takes over the single-flight slot,
// cancelling any still-active previous run.
func (o *Orchestrator) admit(ctx context.Context, ts time.Time, runID string) (context.Context, context.CancelFunc, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.lastRunStart.IsZero() && ts.Sub(o.lastRunStart) < o.cfg.MinInterval {
		return nil, nil, false
	}
	o.lastRunStart = ts
	if o.cancelActive != nil {
		o.cancelActive()
	}
	runCtx, cancel := context.WithCancel(ctx)
	o.activeRunID = runID
	o.cancelActive = cancel
	return runCtx, cancel, true
}

// finish releases the single-flight slot if this run still holds it and
// always cancels the run's own context.
func (o *Orchestrator) finish(runID string, cancel context.CancelFunc) {
	o.mu.Lock()
	if o.activeRunID == runID {
		o.activeRunID = ""
		o.cancelActive = nil
	}
	o.mu.Unlock()
	cancel()
}

// convert runs the frame conversion stage. A non-empty returned state is
// terminal for the run.
func (o *Orchestrator) convert(ctx context.Context, buf *frame.Buffer, rotationDegrees int, runID string) (imgResult *imageWithBuffer, state State) {
	if err := ctx.Err(); err != nil {
		return nil, StateCancelled
	}
	timer := common.StartStage("convert")
	converted, err := o.converter.Convert(buf, rotationDegrees)
	stageDuration.WithLabelValues("convert").Observe(timer.Stop().Seconds())
	if err != nil {
		if errors.Is(err, frame.ErrUnsupportedLayout) {
			slog.Warn("frame dropped: unsupported layout", "run_id", runID)
		} else {
			slog.Warn("frame conversion failed", "run_id", runID, "error", err)
		}
		return nil, StateSkipped
	}
	if !converted.Usable(minFrameWidth, minFrameHeight) {
		slog.Debug("no usable frame, skipping run", "run_id", runID)
		return nil, StateSkipped
	}
	return &imageWithBuffer{buffer: converted}, ""
}

// detect runs region detection, applying the whole-frame fallback when
// configured and no regions were found.
func (o *Orchestrator) detect(ctx context.Context, img *imageWithBuffer, runID string) ([]detector.Region, State) {
	if err := ctx.Err(); err != nil {
		return nil, StateCancelled
	}
	if !o.detector.Initialize() {
		backendFailures.WithLabelValues("localization").Inc()
	}
	timer := common.StartStage("detect")
	regions := o.detector.Detect(img.image())
	stageDuration.WithLabelValues("detect").Observe(timer.Stop().Seconds())
	regionsDetected.Observe(float64(len(regions)))

	if len(regions) == 0 && o.cfg.WholeFrameFallback {
		slog.Debug("no regions detected, falling back to whole frame", "run_id", runID)
		regions = []detector.Region{{
			Rect:  utils.RectFromImage(img.image().Bounds()),
			Score: 0,
			Label: "frame",
		}}
	}
	return regions, ""
}

// extractAndParse runs extraction and parsing per region, accumulating all
// candidates.
func (o *Orchestrator) extractAndParse(ctx context.Context, img *imageWithBuffer, regions []detector.Region, runID string) ([]parser.Credential, State) {
	if !o.extractor.Initialize() {
		backendFailures.WithLabelValues("extraction").Inc()
	}

	var candidates []parser.Credential
	for _, region := range regions {
		if err := ctx.Err(); err != nil {
			slog.Debug("run superseded mid-extraction, discarding partial results", "run_id", runID)
			return nil, StateCancelled
		}
		rect := region.Rect
		timer := common.StartStage("extract")
		fragments := o.extractor.Extract(img.image(), &rect)
		stageDuration.WithLabelValues("extract").Observe(timer.Stop().Seconds())

		if err := ctx.Err(); err != nil {
			return nil, StateCancelled
		}
		timer = common.StartStage("parse")
		candidates = append(candidates, o.parser.Parse(fragments)...)
		stageDuration.WithLabelValues("parse").Observe(timer.Stop().Seconds())
	}
	return candidates, ""
}

// Close releases detector and extractor resources.
func (o *Orchestrator) Close() error {
	o.extractor.Release()
	return o.detector.Close()
}

// imageWithBuffer caches the materialized image for a converted buffer so
// the stages share one raster.
type imageWithBuffer struct {
	buffer *frame.Buffer
	img    *image.NRGBA
}

func (iw *imageWithBuffer) image() *image.NRGBA {
	if iw.img == nil {
		iw.img = iw.buffer.Image()
	}
	return iw.img
}
