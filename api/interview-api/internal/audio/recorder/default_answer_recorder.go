// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_recorder

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prepvault/pkg/commons"
	"github.com/prepvault/pkg/types"
)

const (
	AudioBytesPerSample = 2  // LINEAR16 → 2 bytes per sample
	AudioBitsPerSample  = 16 // LINEAR16 → 16 bits per sample
	AudioPCMFormat      = 1  // WAV PCM format tag
)

// chunk is a recorded audio fragment placed at a specific position on the
// timeline. ByteOffset is the byte position relative to acquisition.
type chunk struct {
	ByteOffset int
	Data       []byte
}

// answerRecorder captures one spoken answer per handle. A handle owns the
// capture timeline from Acquire to Release; releasing paints the chunks
// onto a silence-filled PCM buffer and wraps it in a WAV container.
type answerRecorder struct {
	logger      commons.Logger
	sampleRate  int
	channels    int
	artifactDir string

	mu   sync.Mutex
	open *answerHandle

	// permission is injectable for testing; defaults to always granted.
	permission func(ctx context.Context) error
	// clock is injectable for testing; defaults to time.Now.
	clock func() time.Time
}

type Option func(*answerRecorder)

// WithPermissionCheck overrides how microphone access is requested.
func WithPermissionCheck(fn func(ctx context.Context) error) Option {
	return func(r *answerRecorder) { r.permission = fn }
}

// WithClock overrides the timeline clock.
func WithClock(fn func() time.Time) Option {
	return func(r *answerRecorder) { r.clock = fn }
}

// WithArtifactDir sets where released WAV artifacts are written. Empty
// keeps artifacts in memory only.
func WithArtifactDir(dir string) Option {
	return func(r *answerRecorder) { r.artifactDir = dir }
}

func NewAnswerRecorder(logger commons.Logger, sampleRate, channels int, opts ...Option) types.Recorder {
	r := &answerRecorder{
		logger:     logger,
		sampleRate: sampleRate,
		channels:   channels,
		permission: func(context.Context) error { return nil },
		clock:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *answerRecorder) RequestPermission(ctx context.Context) error {
	return r.permission(ctx)
}

func (r *answerRecorder) Acquire(ctx context.Context) (types.RecordingHandle, error) {
	if err := r.permission(ctx); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.open != nil {
		return nil, types.ErrRecordingFailure
	}
	h := &answerHandle{
		recorder:  r,
		startTime: r.clock(),
	}
	r.open = h
	return h, nil
}

func (r *answerRecorder) bytesPerSecond() int {
	return r.sampleRate * r.channels * AudioBytesPerSample
}

// durationBytes converts a wall-clock duration to a frame-aligned byte count.
func (r *answerRecorder) durationBytes(d time.Duration) int {
	raw := int(d.Seconds() * float64(r.bytesPerSecond()))
	frameSize := AudioBytesPerSample * r.channels
	return (raw / frameSize) * frameSize
}

type answerHandle struct {
	recorder  *answerRecorder
	startTime time.Time

	mu       sync.Mutex
	chunks   []chunk
	cursor   int
	released bool
	artifact types.Artifact
}

// Record places audio on the timeline at the current wall-clock position.
// The mic delivers at real-time rate, so wall-clock offset is the correct
// placement; the cursor only wins when chunks arrive faster than time.
func (h *answerHandle) Record(ctx context.Context, pcm []byte) error {
	if len(pcm) == 0 {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return types.ErrRecordingFailure
	}

	offset := h.recorder.durationBytes(h.recorder.clock().Sub(h.startTime))
	if h.cursor > offset {
		offset = h.cursor
	}

	// Copy to avoid caller mutations.
	buf := make([]byte, len(pcm))
	copy(buf, pcm)

	h.chunks = append(h.chunks, chunk{ByteOffset: offset, Data: buf})
	h.cursor = offset + len(buf)
	return nil
}

// Release stops the capture and renders one WAV spanning the full capture
// duration, chunks painted at their timeline positions and gaps left as
// silence. Safe to call repeatedly; later calls return the same artifact.
func (h *answerHandle) Release() (types.Artifact, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return h.artifact, nil
	}
	h.released = true

	r := h.recorder
	r.mu.Lock()
	if r.open == h {
		r.open = nil
	}
	r.mu.Unlock()

	totalLen := r.durationBytes(r.clock().Sub(h.startTime))
	for _, c := range h.chunks {
		if end := c.ByteOffset + len(c.Data); end > totalLen {
			totalLen = end
		}
	}

	pcm := make([]byte, totalLen)
	recorded := 0
	for _, c := range h.chunks {
		copy(pcm[c.ByteOffset:], c.Data)
		recorded += len(c.Data)
	}

	wav := createWAVFile(pcm, r.sampleRate, r.channels)
	h.artifact = types.Artifact{Data: wav}

	if r.artifactDir != "" {
		name := uuid.NewString() + ".wav"
		path := filepath.Join(r.artifactDir, name)
		if err := os.WriteFile(path, wav, 0o644); err != nil {
			r.logger.Warnf("answer artifact not persisted to %s: %v", path, err)
		} else {
			h.artifact.Path = path
		}
	}

	r.logger.Infof("answer capture released: audio=%d (%.2fs), total=%d (%.2fs), chunks=%d",
		recorded, float64(recorded)/float64(r.bytesPerSecond()),
		totalLen, float64(totalLen)/float64(r.bytesPerSecond()),
		len(h.chunks))
	return h.artifact, nil
}

func createWAVFile(pcmData []byte, sampleRate, channels int) []byte {
	var buf bytes.Buffer
	bps := sampleRate * channels * AudioBytesPerSample

	buf.Write([]byte("RIFF"))
	binary.Write(&buf, binary.LittleEndian, uint32(36+len(pcmData)))
	buf.Write([]byte("WAVE"))

	buf.Write([]byte("fmt "))
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(AudioPCMFormat))
	binary.Write(&buf, binary.LittleEndian, uint16(channels))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(bps))
	binary.Write(&buf, binary.LittleEndian, uint16(AudioBytesPerSample))
	binary.Write(&buf, binary.LittleEndian, uint16(AudioBitsPerSample))

	// data chunk
	buf.Write([]byte("data"))
	binary.Write(&buf, binary.LittleEndian, uint32(len(pcmData)))
	buf.Write(pcmData)

	return buf.Bytes()
}
