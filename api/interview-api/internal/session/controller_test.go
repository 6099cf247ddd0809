// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prepvault/pkg/commons"
	"github.com/prepvault/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Test fakes
// ============================================================================

type fakeQuestionService struct {
	questions     []string
	err           error
	blockUntilCtx bool

	mu    sync.Mutex
	calls []types.GenerateParams
}

func (f *fakeQuestionService) Generate(ctx context.Context, params types.GenerateParams) ([]string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, params)
	f.mu.Unlock()
	if f.blockUntilCtx {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.questions, f.err
}

type fakeTranscriber struct {
	text string
	err  error

	mu    sync.Mutex
	calls []types.Artifact
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, artifact types.Artifact) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, artifact)
	f.mu.Unlock()
	return f.text, f.err
}

type fakeEvaluator struct {
	feedback string
	err      error

	mu      sync.Mutex
	answers []string
}

func (f *fakeEvaluator) Evaluate(ctx context.Context, question, answer string) (string, error) {
	f.mu.Lock()
	f.answers = append(f.answers, answer)
	f.mu.Unlock()
	return f.feedback, f.err
}

type fakeSpeaker struct {
	err error

	mu     sync.Mutex
	spoken []string
	stops  int
}

func (f *fakeSpeaker) Speak(ctx context.Context, text string) error {
	f.mu.Lock()
	f.spoken = append(f.spoken, text)
	f.mu.Unlock()
	return f.err
}

func (f *fakeSpeaker) Stop() {
	f.mu.Lock()
	f.stops++
	f.mu.Unlock()
}

func (f *fakeSpeaker) spokenTexts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.spoken...)
}

type fakeHandle struct {
	mu       sync.Mutex
	releases int
}

func (h *fakeHandle) Record(ctx context.Context, pcm []byte) error { return nil }

func (h *fakeHandle) Release() (types.Artifact, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.releases++
	return types.Artifact{Data: []byte("wav")}, nil
}

func (h *fakeHandle) releaseCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.releases
}

type fakeRecorder struct {
	permissionErr error
	acquireErr    error

	mu      sync.Mutex
	handles []*fakeHandle
}

func (r *fakeRecorder) RequestPermission(ctx context.Context) error { return r.permissionErr }

func (r *fakeRecorder) Acquire(ctx context.Context) (types.RecordingHandle, error) {
	if r.acquireErr != nil {
		return nil, r.acquireErr
	}
	h := &fakeHandle{}
	r.mu.Lock()
	r.handles = append(r.handles, h)
	r.mu.Unlock()
	return h, nil
}

func (r *fakeRecorder) handleCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}

// autoDriver stands in for the presentation layer: it records every
// snapshot and raises the intent the observed phase asks for. Stray
// intents are harmless; the controller drains them between turns.
type autoDriver struct {
	c *Controller

	// endOnRecording terminates the call instead of stopping the answer.
	endOnRecording bool

	mu    sync.Mutex
	snaps []Snapshot
}

func (d *autoDriver) observe(s Snapshot) {
	d.mu.Lock()
	d.snaps = append(d.snaps, s)
	d.mu.Unlock()

	switch s.Phase {
	case PhaseAwaitingAnswerStart:
		d.c.ConfirmAnswer()
	case PhaseRecording:
		if d.endOnRecording {
			d.c.EndCall()
		} else {
			d.c.StopAnswer()
		}
	}
}

func (d *autoDriver) snapshots() []Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Snapshot(nil), d.snaps...)
}

type fixture struct {
	questions   *fakeQuestionService
	transcriber *fakeTranscriber
	evaluator   *fakeEvaluator
	speaker     *fakeSpeaker
	recorder    *fakeRecorder
	driver      *autoDriver
	controller  *Controller
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	logger, err := commons.NewApplicationLogger(
		commons.Name("test-session"),
		commons.Path(t.TempDir()),
		commons.Level("debug"),
	)
	require.NoError(t, err)

	f := &fixture{
		questions:   &fakeQuestionService{questions: []string{"What is Go?", "Explain goroutines."}},
		transcriber: &fakeTranscriber{text: "A compiled language from Google."},
		evaluator:   &fakeEvaluator{feedback: "Solid answer."},
		speaker:     &fakeSpeaker{},
		recorder:    &fakeRecorder{},
	}
	f.driver = &autoDriver{}
	all := append([]Option{
		WithRecordingLimit(20 * time.Millisecond),
		WithRemoteTimeout(200 * time.Millisecond),
		WithObserver(f.driver.observe),
	}, opts...)
	f.controller = NewController(logger, f.questions, f.transcriber, f.evaluator, f.speaker, f.recorder, all...)
	f.driver.c = f.controller
	return f
}

func run(t *testing.T, f *fixture) error {
	t.Helper()
	done := make(chan error, 1)
	go func() {
		done <- f.controller.StartCall(context.Background(), types.GenerateParams{
			Role: "Backend Engineer", Level: "Senior", TechStack: "Go,Postgres", Type: "technical",
		})
	}()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("call did not finish in time")
		return nil
	}
}

func userEntries(snap Snapshot) []string {
	var out []string
	for _, e := range snap.Transcript {
		if e.Speaker == SpeakerUser {
			out = append(out, e.Text)
		}
	}
	return out
}

// ============================================================================
// Happy path
// ============================================================================

func TestStartCall_CompletesAllTurns(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, run(t, f))

	snap := f.controller.Snapshot()
	assert.Equal(t, StatusFinished, snap.Status)
	assert.Equal(t, 2, snap.QuestionIndex, "index must terminate at questions length")

	// Conversational order: question, answer, feedback, per turn.
	require.Len(t, snap.Transcript, 6)
	assert.Equal(t, TranscriptEntry{SpeakerAssistant, "What is Go?"}, snap.Transcript[0])
	assert.Equal(t, TranscriptEntry{SpeakerUser, "A compiled language from Google."}, snap.Transcript[1])
	assert.Equal(t, TranscriptEntry{SpeakerAssistant, "Solid answer."}, snap.Transcript[2])
	assert.Equal(t, TranscriptEntry{SpeakerAssistant, "Explain goroutines."}, snap.Transcript[3])

	// One capture per question, each released exactly once.
	require.Equal(t, 2, f.recorder.handleCount())
	for i, h := range f.recorder.handles {
		assert.Equal(t, 1, h.releaseCount(), "handle %d", i)
	}

	assert.Equal(t, []string{"What is Go?", "Explain goroutines."}, f.speaker.spokenTexts())
}

func TestStartCall_QuestionIndexMonotonic(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, run(t, f))

	last := 0
	for _, s := range f.driver.snapshots() {
		assert.GreaterOrEqual(t, s.QuestionIndex, last, "index must never move backwards")
		last = s.QuestionIndex
	}
	assert.Equal(t, 2, last)
}

func TestStartCall_WhileActiveIsRejected(t *testing.T) {
	f := newFixture(t)
	f.questions.blockUntilCtx = true

	done := make(chan error, 1)
	go func() {
		done <- f.controller.StartCall(context.Background(), types.GenerateParams{Role: "x"})
	}()
	// Wait for the first call to reach Connecting.
	require.Eventually(t, func() bool {
		return f.controller.Snapshot().Status == StatusConnecting
	}, time.Second, 5*time.Millisecond)

	err := f.controller.StartCall(context.Background(), types.GenerateParams{Role: "y"})
	assert.ErrorIs(t, err, ErrCallInProgress)

	f.controller.EndCall()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("terminated call did not return")
	}
	assert.Equal(t, StatusFinished, f.controller.Snapshot().Status)
}

// ============================================================================
// Permission
// ============================================================================

func TestStartCall_PermissionDeniedFailsClosed(t *testing.T) {
	f := newFixture(t)
	f.recorder.permissionErr = types.ErrPermissionDenied

	err := run(t, f)
	assert.ErrorIs(t, err, types.ErrPermissionDenied)
	assert.Equal(t, StatusInactive, f.controller.Snapshot().Status, "denied permission returns to inactive, not finished")
	assert.Equal(t, 0, f.recorder.handleCount())
}

// ============================================================================
// Question generation fallback
// ============================================================================

func TestStartCall_GenerationFailureServesFallbackSet(t *testing.T) {
	f := newFixture(t)
	f.questions.err = errors.New("upstream 500")

	require.NoError(t, run(t, f))

	snap := f.controller.Snapshot()
	assert.Equal(t, StatusFinished, snap.Status)
	assert.Equal(t, len(FallbackQuestions), snap.QuestionIndex)
	assert.Equal(t, FallbackQuestions, f.speaker.spokenTexts(), "fallback questions spoken verbatim, in order")
}

func TestStartCall_GenerationTimeoutServesFallbackSet(t *testing.T) {
	f := newFixture(t, WithRemoteTimeout(30*time.Millisecond))
	f.questions.blockUntilCtx = true

	require.NoError(t, run(t, f))

	snap := f.controller.Snapshot()
	assert.Equal(t, StatusFinished, snap.Status)
	assert.Equal(t, len(FallbackQuestions), snap.QuestionIndex)
	assert.Equal(t, FallbackQuestions, f.speaker.spokenTexts())
}

func TestStartCall_EmptyGenerationServesFallbackSet(t *testing.T) {
	f := newFixture(t)
	f.questions.questions = nil

	require.NoError(t, run(t, f))
	assert.Equal(t, FallbackQuestions, f.speaker.spokenTexts())
}

// ============================================================================
// Transcription failure paths
// ============================================================================

func TestStartCall_TranscriptionErrorSubstitutesPlaceholder(t *testing.T) {
	f := newFixture(t)
	f.transcriber.err = errors.New("speech service down")

	require.NoError(t, run(t, f))

	snap := f.controller.Snapshot()
	assert.Equal(t, StatusFinished, snap.Status, "session still completes")
	for _, answer := range userEntries(snap) {
		assert.Equal(t, PlaceholderAnswer, answer)
	}
	assert.Equal(t, 2, snap.QuestionIndex, "failure never blocks advancement")
}

func TestStartCall_EmptyTranscriptSubstitutesPlaceholder(t *testing.T) {
	f := newFixture(t)
	f.transcriber.text = ""

	require.NoError(t, run(t, f))

	for _, answer := range userEntries(f.controller.Snapshot()) {
		assert.Equal(t, PlaceholderAnswer, answer)
	}
}

func TestStartCall_RecorderAcquireFailureSubstitutesPlaceholder(t *testing.T) {
	f := newFixture(t)
	f.recorder.acquireErr = types.ErrRecordingFailure

	require.NoError(t, run(t, f))

	snap := f.controller.Snapshot()
	assert.Equal(t, StatusFinished, snap.Status)
	for _, answer := range userEntries(snap) {
		assert.Equal(t, PlaceholderAnswer, answer)
	}
	f.transcriber.mu.Lock()
	assert.Empty(t, f.transcriber.calls, "nothing to upload when capture never opened")
	f.transcriber.mu.Unlock()
}

// ============================================================================
// Feedback failure
// ============================================================================

func TestStartCall_FeedbackFailureStillAdvances(t *testing.T) {
	f := newFixture(t)
	f.evaluator.err = errors.New("model overloaded")

	require.NoError(t, run(t, f))

	snap := f.controller.Snapshot()
	assert.Equal(t, StatusFinished, snap.Status)
	assert.Equal(t, 2, snap.QuestionIndex)
	for _, e := range snap.Transcript {
		assert.NotEqual(t, "Solid answer.", e.Text, "no feedback entry on failure")
	}
}

// ============================================================================
// Forced termination
// ============================================================================

func TestEndCall_DuringRecordingReleasesHandleOnce(t *testing.T) {
	f := newFixture(t, WithRecordingLimit(5*time.Second))
	f.driver.endOnRecording = true

	require.NoError(t, run(t, f))

	assert.Equal(t, StatusFinished, f.controller.Snapshot().Status)
	require.Equal(t, 1, f.recorder.handleCount())
	assert.Equal(t, 1, f.recorder.handles[0].releaseCount(), "forced termination releases the capture exactly once")

	f.speaker.mu.Lock()
	assert.GreaterOrEqual(t, f.speaker.stops, 1, "speech synthesis stopped on teardown")
	f.speaker.mu.Unlock()
}

func TestEndCall_IsIdempotent(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, run(t, f))

	// The call already finished; further EndCall intents are no-ops.
	f.controller.EndCall()
	f.controller.EndCall()
	assert.Equal(t, StatusFinished, f.controller.Snapshot().Status)
}

// ============================================================================
// Recording bound
// ============================================================================

func TestRecording_TimeLimitGuaranteesProgress(t *testing.T) {
	// The driver never raises a stop intent: the limit alone must move
	// the turn forward.
	f := newFixture(t, WithRecordingLimit(20*time.Millisecond))
	f.driver.endOnRecording = false
	noStop := &autoDriver{c: f.controller}
	// Replace the stopping driver with one that only confirms answers.
	f.controller.observer = func(s Snapshot) {
		noStop.mu.Lock()
		noStop.snaps = append(noStop.snaps, s)
		noStop.mu.Unlock()
		if s.Phase == PhaseAwaitingAnswerStart {
			f.controller.ConfirmAnswer()
		}
	}

	require.NoError(t, run(t, f))
	assert.Equal(t, StatusFinished, f.controller.Snapshot().Status)
	assert.Equal(t, 2, f.controller.Snapshot().QuestionIndex)
}

// ============================================================================
// Stale transcription rejection
// ============================================================================

func TestApplyTranscription_DropsStaleResult(t *testing.T) {
	f := newFixture(t)
	f.controller.session = newInterviewSession("r", "l", "t", "technical")
	f.controller.session.Questions = []string{"q0", "q1", "q2", "q3"}
	f.controller.session.CurrentQuestionIndex = 3

	// A slow response for question 2 arrives after advancing to 3.
	text, ok := f.controller.applyTranscription(transcriptionResult{questionIndex: 2, text: "late answer"})
	assert.False(t, ok, "stale result must be dropped")
	assert.Empty(t, text)

	// The current question's result is accepted.
	text, ok = f.controller.applyTranscription(transcriptionResult{questionIndex: 3, text: "fresh answer"})
	assert.True(t, ok)
	assert.Equal(t, "fresh answer", text)
}

// ============================================================================
// Concurrent observation
// ============================================================================

func TestSnapshot_SafeWhileCallRuns(t *testing.T) {
	// Generation blocks until its timeout so the fallback assignment
	// lands mid-call, while another goroutine reads snapshots the whole
	// time. Exercised under the race detector.
	f := newFixture(t, WithRemoteTimeout(30*time.Millisecond))
	f.questions.blockUntilCtx = true

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				snap := f.controller.Snapshot()
				assert.LessOrEqual(t, snap.QuestionIndex, snap.QuestionCount)
			}
		}
	}()

	require.NoError(t, run(t, f))
	close(stop)
	wg.Wait()

	assert.Equal(t, StatusFinished, f.controller.Snapshot().Status)
	assert.Equal(t, FallbackQuestions, f.speaker.spokenTexts())
}

// ============================================================================
// Full degraded scenario
// ============================================================================

func TestScenario_GenerationTimeoutFullFallbackRun(t *testing.T) {
	f := newFixture(t, WithRemoteTimeout(30*time.Millisecond))
	f.questions.blockUntilCtx = true

	done := make(chan error, 1)
	go func() {
		done <- f.controller.StartCall(context.Background(), types.GenerateParams{
			Role:      "Backend Engineer",
			Level:     "Senior",
			TechStack: "Go,Postgres",
			Type:      "technical",
			Amount:    5,
		})
	}()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("scenario did not finish")
	}

	snap := f.controller.Snapshot()
	assert.Equal(t, StatusFinished, snap.Status)
	assert.Equal(t, 5, snap.QuestionIndex, "all five fallback turns completed")
	assert.Equal(t, FallbackQuestions, f.speaker.spokenTexts(), "each fallback question spoken in order")
}
