// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package types

import "context"

type Recorder interface {
	// RequestPermission asks the capture source for microphone access.
	// Returns ErrPermissionDenied when the user refuses.
	RequestPermission(ctx context.Context) error
	// Acquire opens an answer capture. At most one handle may be open at
	// a time; acquiring while another handle is open is an error.
	Acquire(ctx context.Context) (RecordingHandle, error)
}

type RecordingHandle interface {
	// Record places an audio chunk on the capture timeline.
	Record(ctx context.Context, pcm []byte) error
	// Release stops the capture and returns the recorded artifact.
	// Releasing an already-released handle is a no-op returning the same
	// artifact, never an error.
	Release() (Artifact, error)
}
