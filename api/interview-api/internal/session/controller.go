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
	"time"

	"github.com/prepvault/pkg/commons"
	"github.com/prepvault/pkg/types"
	"github.com/prepvault/pkg/utils"
)

var ErrCallInProgress = errors.New("a call is already in progress")

const (
	DefaultRecordingLimit = 15 * time.Second
	DefaultRemoteTimeout  = 30 * time.Second
	DefaultQuestionAmount = 5
)

// Controller drives one interview call at a time: fetch questions, then
// per question speak → wait for the user → record → upload → feedback →
// advance. All orchestration is sequential on the StartCall goroutine;
// the presentation layer only observes snapshots and raises intents.
//
// Every remote failure degrades to a fallback decision — the call always
// reaches Finished, never an escaped error mid-session.
type Controller struct {
	logger      commons.Logger
	questions   types.QuestionService
	transcriber types.Transcriber
	evaluator   types.Evaluator
	speaker     types.Speaker
	recorder    types.Recorder

	recordingLimit time.Duration
	remoteTimeout  time.Duration
	questionAmount int
	observer       func(Snapshot)

	mu      sync.Mutex
	session *InterviewSession
	phase   TurnPhase
	handle  types.RecordingHandle
	cancel  context.CancelFunc

	answerStartCh chan struct{}
	answerStopCh  chan struct{}
}

type Option func(*Controller)

// WithRecordingLimit bounds a single answer capture. The limit guarantees
// forward progress even if the user never stops recording.
func WithRecordingLimit(d time.Duration) Option {
	return func(c *Controller) { c.recordingLimit = d }
}

// WithRemoteTimeout bounds each transcription/feedback round trip.
func WithRemoteTimeout(d time.Duration) Option {
	return func(c *Controller) { c.remoteTimeout = d }
}

// WithQuestionAmount sets how many questions a call requests.
func WithQuestionAmount(n int) Option {
	return func(c *Controller) { c.questionAmount = n }
}

// WithObserver registers the presentation callback invoked after every
// state transition. The callback receives a copy and runs outside the
// controller lock.
func WithObserver(fn func(Snapshot)) Option {
	return func(c *Controller) { c.observer = fn }
}

func NewController(
	logger commons.Logger,
	questions types.QuestionService,
	transcriber types.Transcriber,
	evaluator types.Evaluator,
	speaker types.Speaker,
	recorder types.Recorder,
	opts ...Option,
) *Controller {
	c := &Controller{
		logger:         logger,
		questions:      questions,
		transcriber:    transcriber,
		evaluator:      evaluator,
		speaker:        speaker,
		recorder:       recorder,
		recordingLimit: DefaultRecordingLimit,
		remoteTimeout:  DefaultRemoteTimeout,
		questionAmount: DefaultQuestionAmount,
		phase:          PhaseIdle,
		answerStartCh:  make(chan struct{}, 1),
		answerStopCh:   make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StartCall runs a full interview call and blocks until it reaches
// Finished. A fresh session is created per call; a finished session is
// never resumed. The only error surfaced to the caller is permission
// denial (which returns the controller to Inactive) or a call already
// being in progress.
func (c *Controller) StartCall(ctx context.Context, params types.GenerateParams) error {
	c.mu.Lock()
	if c.session != nil && (c.session.Status == StatusConnecting || c.session.Status == StatusActive) {
		c.mu.Unlock()
		return ErrCallInProgress
	}
	session := newInterviewSession(params.Role, params.Level, params.TechStack, params.Type)
	runCtx, cancel := context.WithCancel(ctx)
	c.session = session
	c.cancel = cancel
	c.mu.Unlock()

	c.transition(StatusConnecting, PhaseIdle)

	// Fails closed: without microphone access there is no interview.
	if err := c.recorder.RequestPermission(runCtx); err != nil {
		c.logger.Warnf("microphone permission denied: %v", err)
		c.transition(StatusInactive, PhaseIdle)
		cancel()
		return types.ErrPermissionDenied
	}

	defer c.finish(cancel)

	c.setQuestions(c.fetchQuestions(runCtx, params))
	if runCtx.Err() != nil {
		return nil
	}
	c.transition(StatusActive, PhaseIdle)

	for {
		idx, question, ok := c.currentQuestion()
		if !ok || runCtx.Err() != nil {
			return nil
		}
		c.runTurn(runCtx, idx, question)
	}
}

// ConfirmAnswer signals that the user is ready to speak. Recording never
// starts without this intent.
func (c *Controller) ConfirmAnswer() {
	select {
	case c.answerStartCh <- struct{}{}:
	default:
	}
}

// StopAnswer ends the current answer capture before the time limit.
func (c *Controller) StopAnswer() {
	select {
	case c.answerStopCh <- struct{}{}:
	default:
	}
}

// EndCall force-terminates the call from any state. Safe to call more
// than once and at any suspension point.
func (c *Controller) EndCall() {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Snapshot returns the current read-only view of the session.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return Snapshot{Status: StatusInactive, Phase: PhaseIdle}
	}
	return c.session.snapshot(c.phase)
}

// ============================================================================
// Turn orchestration
// ============================================================================

func (c *Controller) fetchQuestions(ctx context.Context, params types.GenerateParams) []string {
	if params.Amount <= 0 {
		params.Amount = c.questionAmount
	}
	gctx, cancel := context.WithTimeout(ctx, c.remoteTimeout)
	defer cancel()

	questions, err := c.questions.Generate(gctx, params)
	if err != nil || len(questions) == 0 {
		c.logger.Warnf("question generation failed, serving fallback set: %v", err)
		return append([]string(nil), FallbackQuestions...)
	}
	return questions
}

func (c *Controller) runTurn(ctx context.Context, questionIndex int, question string) {
	c.appendTranscript(SpeakerAssistant, question)
	c.setPhase(PhaseSpeaking)
	// Speech failures are non-fatal: success and error both lead to
	// waiting for the user.
	if err := c.speaker.Speak(ctx, question); err != nil {
		c.logger.Warnf("question playback failed for %d: %v", questionIndex, err)
	}

	c.drainIntents()
	c.setPhase(PhaseAwaitingAnswerStart)
	select {
	case <-c.answerStartCh:
	case <-ctx.Done():
		return
	}

	artifact, captured := c.captureAnswer(ctx)
	if ctx.Err() != nil {
		return
	}

	answer := PlaceholderAnswer
	if captured {
		c.setPhase(PhaseUploading)
		if text, ok := c.uploadAnswer(ctx, questionIndex, artifact); ok {
			answer = text
		}
	}
	c.appendTranscript(SpeakerUser, answer)

	c.setPhase(PhaseAwaitingFeedback)
	ectx, cancel := context.WithTimeout(ctx, c.remoteTimeout)
	feedback, err := c.evaluator.Evaluate(ectx, question, answer)
	cancel()
	if err != nil {
		c.logger.Warnf("no feedback for question %d: %v", questionIndex, err)
	} else if !utils.IsEmpty(feedback) {
		c.appendTranscript(SpeakerAssistant, feedback)
	}

	// The index advances whether or not feedback succeeded.
	c.advance()
}

// captureAnswer owns the RecordingHandle for the duration of the
// recording phase. Whichever of the time limit, the user stop intent, or
// call termination fires first wins; the others are cancelled so the
// handle is released exactly once.
func (c *Controller) captureAnswer(ctx context.Context) (types.Artifact, bool) {
	handle, err := c.recorder.Acquire(ctx)
	if err != nil {
		c.logger.Errorf("could not open answer capture: %v", err)
		return types.Artifact{}, false
	}
	c.mu.Lock()
	c.handle = handle
	c.mu.Unlock()

	c.setPhase(PhaseRecording)
	timer := time.NewTimer(c.recordingLimit)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-c.answerStopCh:
	case <-ctx.Done():
		c.releaseHandle()
		return types.Artifact{}, false
	}

	artifact, err := c.releaseHandle()
	if err != nil {
		c.logger.Errorf("answer capture release failed: %v", err)
		return types.Artifact{}, false
	}
	return artifact, true
}

type transcriptionResult struct {
	questionIndex int
	text          string
	err           error
}

// uploadAnswer runs the transcription round trip. The request is tagged
// with the question index it belongs to; a response that arrives after
// the controller moved on is dropped rather than appended to the wrong
// turn.
func (c *Controller) uploadAnswer(ctx context.Context, questionIndex int, artifact types.Artifact) (string, bool) {
	tctx, cancel := context.WithTimeout(ctx, c.remoteTimeout)
	defer cancel()

	resCh := make(chan transcriptionResult, 1)
	utils.Go(ctx, func() {
		text, err := c.transcriber.Transcribe(tctx, artifact)
		resCh <- transcriptionResult{questionIndex: questionIndex, text: text, err: err}
	})

	select {
	case res := <-resCh:
		return c.applyTranscription(res)
	case <-tctx.Done():
		c.logger.Warnf("transcription for question %d abandoned: %v", questionIndex, tctx.Err())
		return "", false
	}
}

// applyTranscription validates a transcription result against the
// session's current position. Stale results (belonging to a question the
// controller already advanced past) are discarded.
func (c *Controller) applyTranscription(res transcriptionResult) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil || res.questionIndex != c.session.CurrentQuestionIndex {
		c.logger.Warnf("dropping stale transcription for question %d", res.questionIndex)
		return "", false
	}
	if res.err != nil {
		c.logger.Warnf("transcription failed for question %d: %v", res.questionIndex, res.err)
		return "", false
	}
	if utils.IsEmpty(res.text) {
		// Empty transcript is recoverable but has nothing to show.
		return "", false
	}
	return res.text, true
}

// ============================================================================
// State bookkeeping
// ============================================================================

func (c *Controller) finish(cancel context.CancelFunc) {
	c.releaseHandle()
	c.speaker.Stop()
	c.transition(StatusFinished, PhaseIdle)
	cancel()
}

// releaseHandle releases the open RecordingHandle, if any. The handle
// slot is cleared before calling Release so concurrent teardown paths
// cannot double-release.
func (c *Controller) releaseHandle() (types.Artifact, error) {
	c.mu.Lock()
	handle := c.handle
	c.handle = nil
	c.mu.Unlock()
	if handle == nil {
		return types.Artifact{}, types.ErrRecordingFailure
	}
	return handle.Release()
}

func (c *Controller) currentQuestion() (int, string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := c.session.CurrentQuestionIndex
	if idx >= len(c.session.Questions) {
		return idx, "", false
	}
	return idx, c.session.Questions[idx], true
}

func (c *Controller) setQuestions(questions []string) {
	c.mu.Lock()
	c.session.Questions = questions
	snap := c.session.snapshot(c.phase)
	c.mu.Unlock()
	c.notify(snap)
}

func (c *Controller) advance() {
	c.mu.Lock()
	c.session.CurrentQuestionIndex++
	snap := c.session.snapshot(c.phase)
	c.mu.Unlock()
	c.notify(snap)
}

func (c *Controller) transition(status CallStatus, phase TurnPhase) {
	c.mu.Lock()
	c.session.Status = status
	c.phase = phase
	snap := c.session.snapshot(phase)
	c.mu.Unlock()
	c.notify(snap)
}

func (c *Controller) setPhase(phase TurnPhase) {
	c.mu.Lock()
	c.phase = phase
	snap := c.session.snapshot(phase)
	c.mu.Unlock()
	c.notify(snap)
}

func (c *Controller) appendTranscript(speaker, text string) {
	c.mu.Lock()
	c.session.TranscriptLog = append(c.session.TranscriptLog, TranscriptEntry{Speaker: speaker, Text: text})
	snap := c.session.snapshot(c.phase)
	c.mu.Unlock()
	c.notify(snap)
}

func (c *Controller) notify(snap Snapshot) {
	if c.observer != nil {
		c.observer(snap)
	}
}

// drainIntents clears intents raised in earlier phases so a stray tap
// cannot auto-start or auto-stop the next recording.
func (c *Controller) drainIntents() {
	select {
	case <-c.answerStartCh:
	default:
	}
	select {
	case <-c.answerStopCh:
	default:
	}
}
