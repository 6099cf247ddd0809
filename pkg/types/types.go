// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package types

import (
	"context"
	"errors"
)

// Failure kinds the interview core converts into local fallback decisions.
// None of these are allowed to escape to the presentation layer.
var (
	ErrPermissionDenied  = errors.New("microphone permission denied")
	ErrMalformedResponse = errors.New("malformed service response")
	ErrRecordingFailure  = errors.New("recording failure")
)

// Artifact references a completed answer recording pending upload.
// Either the file path or the in-memory data may be set depending on
// where the capture source placed the audio.
type Artifact struct {
	Path string
	Data []byte
}

// GenerateParams describe the interview a question batch is requested for.
type GenerateParams struct {
	Role      string
	Level     string
	TechStack string
	Type      string
	Amount    int
	UserID    string
}

// QuestionService produces a batch of interview questions.
type QuestionService interface {
	Generate(ctx context.Context, params GenerateParams) ([]string, error)
}

// Transcriber turns a recorded answer artifact into text. An empty
// transcript with a nil error is a recoverable case distinct from an
// error, but callers route both to the same fallback.
type Transcriber interface {
	Transcribe(ctx context.Context, artifact Artifact) (string, error)
}

// Evaluator judges a question/answer pair. One round trip, no retry;
// a failure means no feedback for that turn.
type Evaluator interface {
	Evaluate(ctx context.Context, question, answer string) (string, error)
}

// Speaker plays a question out loud. Speak blocks until playback
// finishes or the context is cancelled. Stop interrupts any in-flight
// synthesis and is safe to call at any time.
type Speaker interface {
	Speak(ctx context.Context, text string) error
	Stop()
}
