// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_session

import "github.com/google/uuid"

// CallStatus is the outer lifecycle of an interview call.
type CallStatus string

const (
	StatusInactive   CallStatus = "inactive"
	StatusConnecting CallStatus = "connecting"
	StatusActive     CallStatus = "active"
	StatusFinished   CallStatus = "finished"
)

// TurnPhase is the per-question sub-state while the call is active.
type TurnPhase string

const (
	PhaseIdle                TurnPhase = "idle"
	PhaseSpeaking            TurnPhase = "speaking"
	PhaseAwaitingAnswerStart TurnPhase = "awaiting_answer_start"
	PhaseRecording           TurnPhase = "recording"
	PhaseUploading           TurnPhase = "uploading"
	PhaseAwaitingFeedback    TurnPhase = "awaiting_feedback"
)

// Transcript speakers.
const (
	SpeakerAssistant = "assistant"
	SpeakerUser      = "user"
)

// TranscriptEntry is immutable once appended; insertion order is
// conversational order.
type TranscriptEntry struct {
	Speaker string
	Text    string
}

// InterviewSession is the controller-owned state for one call. A new
// session is created per call; a finished session is never resurrected.
type InterviewSession struct {
	SessionID     string
	Role          string
	Level         string
	TechStack     string
	InterviewType string

	Questions            []string
	CurrentQuestionIndex int
	Status               CallStatus
	TranscriptLog        []TranscriptEntry
}

func newInterviewSession(role, level, techStack, interviewType string) *InterviewSession {
	return &InterviewSession{
		SessionID:     uuid.NewString(),
		Role:          role,
		Level:         level,
		TechStack:     techStack,
		InterviewType: interviewType,
		Status:        StatusInactive,
	}
}

// Snapshot is the read-only view handed to the presentation layer. It
// copies the transcript so observers can never mutate controller state.
type Snapshot struct {
	SessionID       string
	Status          CallStatus
	Phase           TurnPhase
	QuestionIndex   int
	QuestionCount   int
	CurrentQuestion string
	Transcript      []TranscriptEntry
}

func (s *InterviewSession) snapshot(phase TurnPhase) Snapshot {
	transcript := make([]TranscriptEntry, len(s.TranscriptLog))
	copy(transcript, s.TranscriptLog)

	snap := Snapshot{
		SessionID:     s.SessionID,
		Status:        s.Status,
		Phase:         phase,
		QuestionIndex: s.CurrentQuestionIndex,
		QuestionCount: len(s.Questions),
		Transcript:    transcript,
	}
	if s.CurrentQuestionIndex < len(s.Questions) {
		snap.CurrentQuestion = s.Questions[s.CurrentQuestionIndex]
	}
	return snap
}
