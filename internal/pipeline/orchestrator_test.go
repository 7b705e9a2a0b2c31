package pipeline

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/MeKo-Tech/labelscan/internal/detector"
	"github.com/MeKo-Tech/labelscan/internal/extractor"
	"github.com/MeKo-Tech/labelscan/internal/frame"
	"github.com/MeKo-Tech/labelscan/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend is a scripted localization backend.
type fakeBackend struct {
	initErr    error
	candidates []detector.Candidate
}

func (f *fakeBackend) Init() error { return f.initErr }

func (f *fakeBackend) Infer(img image.Image) ([]detector.Candidate, error) {
	return f.candidates, nil
}

func (f *fakeBackend) Close() error { return nil }

// fakeExtractor returns one scripted fragment list per Extract call.
type fakeExtractor struct {
	initOK    bool
	queue     [][]extractor.TextFragment
	calls     int
	panicking bool
	released  bool
}

func (f *fakeExtractor) Initialize() bool { return f.initOK }

func (f *fakeExtractor) Extract(img image.Image, region *utils.Rect) []extractor.TextFragment {
	if f.panicking {
		panic("extractor exploded")
	}
	f.calls++
	if len(f.queue) == 0 {
		return nil
	}
	head := f.queue[0]
	f.queue = f.queue[1:]
	return head
}

func (f *fakeExtractor) Release() { f.released = true }

// blockingExtractor parks the first Extract call until released, so a
// second run can be admitted while the first is still in flight.
type blockingExtractor struct {
	mu      sync.Mutex
	calls   int
	started chan struct{}
	release chan struct{}
}

func (f *blockingExtractor) Initialize() bool { return true }

func (f *blockingExtractor) Extract(img image.Image, region *utils.Rect) []extractor.TextFragment {
	f.mu.Lock()
	f.calls++
	first := f.calls == 1
	f.mu.Unlock()
	if first {
		close(f.started)
		<-f.release
		return labelFragments("SSID: StaleNet Password: stale-secret-1", 0.9)
	}
	return labelFragments("SSID: FreshNet Password: fresh-secret-1", 0.9)
}

func (f *blockingExtractor) Release() {}

func labelFragments(text string, confidence float64) []extractor.TextFragment {
	return []extractor.TextFragment{{
		Rect:       utils.NewRect(0, 0, 50, 10),
		Text:       text,
		Confidence: confidence,
	}}
}

func usableFrame() *frame.Buffer {
	return frame.NewRGBBuffer(make([]byte, 64*64*3), 64, 64)
}

func labelCandidate(x, y int, score float64) detector.Candidate {
	return detector.Candidate{Rect: utils.NewRect(x, y, 20, 20), Score: score, ClassID: 0}
}

func buildOrchestrator(t *testing.T, backend detector.Backend, ex extractor.Extractor, opts ...func(*Builder)) *Orchestrator {
	t.Helper()
	b := NewBuilder().
		WithDetectorBackend(backend).
		WithExtractor(ex).
		WithMinInterval(0)
	for _, opt := range opts {
		opt(b)
	}
	o, err := b.Build()
	require.NoError(t, err)
	return o
}

func TestRun_HappyPath(t *testing.T) {
	backend := &fakeBackend{candidates: []detector.Candidate{labelCandidate(5, 5, 0.9)}}
	ex := &fakeExtractor{
		initOK: true,
		queue: [][]extractor.TextFragment{
			labelFragments("SSID: TestNet Password: secretpass1", 0.9),
		},
	}
	o := buildOrchestrator(t, backend, ex)
	defer func() { _ = o.Close() }()

	result := o.Run(context.Background(), usableFrame(), 0, time.Now())
	assert.Equal(t, StateDone, result.State)
	assert.Equal(t, 1, result.Regions)
	require.Len(t, result.Credentials, 1)
	assert.Equal(t, "TestNet", result.Credentials[0].Identifier)
	assert.Equal(t, "secretpass1", result.Credentials[0].Secret)
	assert.NotEmpty(t, result.RunID)
	assert.Positive(t, result.DurationNs)
}

func TestRun_ThrottleSkipsEarlyTick(t *testing.T) {
	backend := &fakeBackend{}
	ex := &fakeExtractor{initOK: true}
	o := buildOrchestrator(t, backend, ex, func(b *Builder) {
		b.WithMinInterval(500 * time.Millisecond)
	})
	defer func() { _ = o.Close() }()

	base := time.Now()
	first := o.Run(context.Background(), usableFrame(), 0, base)
	assert.Equal(t, StateDone, first.State)

	second := o.Run(context.Background(), usableFrame(), 0, base.Add(100*time.Millisecond))
	assert.Equal(t, StateSkipped, second.State)

	third := o.Run(context.Background(), usableFrame(), 0, base.Add(600*time.Millisecond))
	assert.Equal(t, StateDone, third.State)
}

func TestRun_CancelledContext(t *testing.T) {
	backend := &fakeBackend{candidates: []detector.Candidate{labelCandidate(5, 5, 0.9)}}
	ex := &fakeExtractor{initOK: true}
	o := buildOrchestrator(t, backend, ex)
	defer func() { _ = o.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := o.Run(ctx, usableFrame(), 0, time.Now())
	assert.Equal(t, StateCancelled, result.State)
	assert.Zero(t, ex.calls)
}

func TestRun_SupersededRunCancelled(t *testing.T) {
	backend := &fakeBackend{candidates: []detector.Candidate{labelCandidate(5, 5, 0.9)}}
	ex := &blockingExtractor{started: make(chan struct{}), release: make(chan struct{})}
	o := buildOrchestrator(t, backend, ex)
	defer func() { _ = o.Close() }()

	firstDone := make(chan Result, 1)
	go func() {
		firstDone <- o.Run(context.Background(), usableFrame(), 0, time.Now())
	}()
	<-ex.started

	// A newer tick takes over the single-flight slot while the first run
	// is still extracting.
	second := o.Run(context.Background(), usableFrame(), 0, time.Now())
	close(ex.release)
	first := <-firstDone

	assert.Equal(t, StateCancelled, first.State)
	assert.Empty(t, first.Credentials)
	assert.Equal(t, StateDone, second.State)
	require.Len(t, second.Credentials, 1)
	assert.Equal(t, "FreshNet", second.Credentials[0].Identifier)
}

func TestRun_UnsupportedLayoutSkipped(t *testing.T) {
	o := buildOrchestrator(t, &fakeBackend{}, &fakeExtractor{initOK: true})
	defer func() { _ = o.Close() }()

	buf := &frame.Buffer{Width: 64, Height: 64, Layout: frame.Layout(42)}
	result := o.Run(context.Background(), buf, 0, time.Now())
	assert.Equal(t, StateSkipped, result.State)
}

func TestRun_TinyFrameSkipped(t *testing.T) {
	o := buildOrchestrator(t, &fakeBackend{}, &fakeExtractor{initOK: true})
	defer func() { _ = o.Close() }()

	buf := frame.NewRGBBuffer(make([]byte, 8*8*3), 8, 8)
	result := o.Run(context.Background(), buf, 0, time.Now())
	assert.Equal(t, StateSkipped, result.State)
}

func TestRun_WholeFrameFallback(t *testing.T) {
	// Backend yields nothing; the whole frame is extracted instead.
	ex := &fakeExtractor{
		initOK: true,
		queue: [][]extractor.TextFragment{
			labelFragments("SSID: FallbackNet Password: fallback-pass", 0.8),
		},
	}
	o := buildOrchestrator(t, &fakeBackend{}, ex)
	defer func() { _ = o.Close() }()

	result := o.Run(context.Background(), usableFrame(), 0, time.Now())
	assert.Equal(t, StateDone, result.State)
	require.Len(t, result.Credentials, 1)
	assert.Equal(t, "FallbackNet", result.Credentials[0].Identifier)
	assert.Equal(t, 1, ex.calls)
}

func TestRun_FallbackDisabledYieldsEmptyDone(t *testing.T) {
	ex := &fakeExtractor{initOK: true}
	o := buildOrchestrator(t, &fakeBackend{}, ex, func(b *Builder) {
		b.WithWholeFrameFallback(false)
	})
	defer func() { _ = o.Close() }()

	result := o.Run(context.Background(), usableFrame(), 0, time.Now())
	assert.Equal(t, StateDone, result.State)
	assert.True(t, result.Empty())
	assert.Zero(t, result.Regions)
	assert.Zero(t, ex.calls)
}

func TestRun_DegradedBackendStillCompletes(t *testing.T) {
	// Backend that cannot initialize: detection yields nothing, the
	// whole-frame fallback still runs.
	backend := &fakeBackend{initErr: errors.New("runtime missing")}
	ex := &fakeExtractor{
		initOK: true,
		queue: [][]extractor.TextFragment{
			labelFragments("SSID: DegradedNet Password: degraded-pass", 0.6),
		},
	}
	o := buildOrchestrator(t, backend, ex)
	defer func() { _ = o.Close() }()

	result := o.Run(context.Background(), usableFrame(), 0, time.Now())
	assert.Equal(t, StateDone, result.State)
	require.Len(t, result.Credentials, 1)
	assert.Equal(t, "DegradedNet", result.Credentials[0].Identifier)
}

func TestRun_DeduplicatesAcrossRegions(t *testing.T) {
	backend := &fakeBackend{candidates: []detector.Candidate{
		labelCandidate(0, 0, 0.9),
		labelCandidate(40, 40, 0.8),
	}}
	ex := &fakeExtractor{
		initOK: true,
		queue: [][]extractor.TextFragment{
			labelFragments("SSID: SameNet Password: first-secret", 0.5),
			labelFragments("SSID: SameNet Password: second-secret", 0.9),
		},
	}
	o := buildOrchestrator(t, backend, ex)
	defer func() { _ = o.Close() }()

	result := o.Run(context.Background(), usableFrame(), 0, time.Now())
	assert.Equal(t, StateDone, result.State)
	assert.Equal(t, 2, result.Regions)
	require.Len(t, result.Credentials, 1)
	assert.Equal(t, "second-secret", result.Credentials[0].Secret)
}

func TestRun_CredentialsSortedByConfidence(t *testing.T) {
	backend := &fakeBackend{candidates: []detector.Candidate{
		labelCandidate(0, 0, 0.9),
		labelCandidate(40, 40, 0.8),
	}}
	ex := &fakeExtractor{
		initOK: true,
		queue: [][]extractor.TextFragment{
			labelFragments("SSID: LowNet Password: low-secret-1", 0.4),
			labelFragments("SSID: HighNet Password: high-secret-1", 0.9),
		},
	}
	o := buildOrchestrator(t, backend, ex)
	defer func() { _ = o.Close() }()

	result := o.Run(context.Background(), usableFrame(), 0, time.Now())
	require.Len(t, result.Credentials, 2)
	assert.Equal(t, "HighNet", result.Credentials[0].Identifier)
	assert.Equal(t, "LowNet", result.Credentials[1].Identifier)
}

func TestRun_RecoversFromPanic(t *testing.T) {
	backend := &fakeBackend{candidates: []detector.Candidate{labelCandidate(5, 5, 0.9)}}
	ex := &fakeExtractor{initOK: true, panicking: true}
	o := buildOrchestrator(t, backend, ex)
	defer func() { _ = o.Close() }()

	result := o.Run(context.Background(), usableFrame(), 0, time.Now())
	assert.Equal(t, StateSkipped, result.State)
}

func TestClose_ReleasesComponents(t *testing.T) {
	ex := &fakeExtractor{initOK: true}
	o := buildOrchestrator(t, &fakeBackend{}, ex)

	require.NoError(t, o.Close())
	assert.True(t, ex.released)
}

func TestBuilder_Validate(t *testing.T) {
	b := NewBuilder().WithConfig(Config{
		Detector: detector.Config{ConfidenceThreshold: 2.0, IoUThreshold: 0.5},
	})
	assert.Error(t, b.Validate())

	b = NewBuilder()
	assert.NoError(t, b.Validate())
}
