// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_speech

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSink struct {
	mu     sync.Mutex
	played [][]byte
	block  bool
}

func (s *captureSink) Play(ctx context.Context, pcm []byte) error {
	s.mu.Lock()
	s.played = append(s.played, pcm)
	block := s.block
	s.mu.Unlock()
	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	return nil
}

func newTestSpeaker(sink Sink, synth synthesizeFn) *googleSpeaker {
	return &googleSpeaker{
		sink:       sink,
		language:   DefaultLanguageCode,
		voice:      DefaultVoice,
		sampleRate: DefaultSampleRate,
		synthesize: synth,
	}
}

func TestSpeakPlaysSynthesizedAudio(t *testing.T) {
	sink := &captureSink{}
	audio := []byte{0x01, 0x02, 0x03}
	speaker := newTestSpeaker(sink, func(ctx context.Context, text string) ([]byte, error) {
		return audio, nil
	})

	require.NoError(t, speaker.Speak(context.Background(), "What is Go?"))
	require.Len(t, sink.played, 1)
	assert.Equal(t, audio, sink.played[0])
}

func TestSpeakEmptyTextIsNoop(t *testing.T) {
	sink := &captureSink{}
	speaker := newTestSpeaker(sink, func(ctx context.Context, text string) ([]byte, error) {
		t.Fatal("synthesize must not be called for empty text")
		return nil, nil
	})

	require.NoError(t, speaker.Speak(context.Background(), "   "))
	assert.Empty(t, sink.played)
}

func TestStopInterruptsPlayback(t *testing.T) {
	sink := &captureSink{block: true}
	speaker := newTestSpeaker(sink, func(ctx context.Context, text string) ([]byte, error) {
		return []byte{0x00}, nil
	})

	done := make(chan error, 1)
	go func() {
		done <- speaker.Speak(context.Background(), "long question")
	}()

	// Wait for playback to start, then interrupt it.
	require.Eventually(t, func() bool {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		return len(sink.played) == 1
	}, time.Second, 5*time.Millisecond)
	speaker.Stop()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Speak did not return after Stop")
	}
}

func TestStopWithoutSpeakIsSafe(t *testing.T) {
	speaker := newTestSpeaker(&captureSink{}, nil)
	speaker.Stop()
	speaker.Stop()
}

func TestSilentSpeaker(t *testing.T) {
	speaker := NewSilentSpeaker()
	assert.NoError(t, speaker.Speak(context.Background(), "anything"))
	speaker.Stop()

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, speaker.Speak(cancelled, "anything"))
}
