// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_speech

import (
	"context"
	"sync"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"github.com/prepvault/pkg/commons"
	"github.com/prepvault/pkg/types"
	"github.com/prepvault/pkg/utils"
	"google.golang.org/api/option"
)

const (
	DefaultLanguageCode = "en-US"
	DefaultVoice        = "en-US-Chirp-HD-F"
	DefaultSampleRate   = 16000
)

// Sink plays linear PCM on the device output. Play blocks until the
// audio is consumed or the context is cancelled.
type Sink interface {
	Play(ctx context.Context, pcm []byte) error
}

// DiscardSink drops audio. Useful for headless runs and tests.
type DiscardSink struct{}

func (DiscardSink) Play(ctx context.Context, pcm []byte) error { return ctx.Err() }

type synthesizeFn func(ctx context.Context, text string) ([]byte, error)

// googleSpeaker synthesizes question audio with Google Cloud
// Text-to-Speech and plays it through a Sink. One utterance at a time;
// Stop interrupts the in-flight utterance.
type googleSpeaker struct {
	logger     commons.Logger
	client     *texttospeech.Client
	sink       Sink
	language   string
	voice      string
	sampleRate int32

	synthesize synthesizeFn

	mu     sync.Mutex
	cancel context.CancelFunc
}

type Option func(*googleSpeaker)

func WithVoice(name string) Option {
	return func(g *googleSpeaker) { g.voice = name }
}

func WithLanguage(code string) Option {
	return func(g *googleSpeaker) { g.language = code }
}

func WithSampleRate(hz int32) Option {
	return func(g *googleSpeaker) { g.sampleRate = hz }
}

// NewGoogleSpeaker builds a Speaker backed by Cloud Text-to-Speech.
// credentialJSON may be empty, in which case application default
// credentials apply.
func NewGoogleSpeaker(ctx context.Context, logger commons.Logger, credentialJSON string, sink Sink, opts ...Option) (*googleSpeaker, error) {
	co := make([]option.ClientOption, 0)
	if !utils.IsEmpty(credentialJSON) {
		co = append(co, option.WithCredentialsJSON([]byte(credentialJSON)))
	}
	client, err := texttospeech.NewClient(ctx, co...)
	if err != nil {
		logger.Errorf("unable to create text-to-speech client: %v", err)
		return nil, err
	}

	g := &googleSpeaker{
		logger:     logger,
		client:     client,
		sink:       sink,
		language:   DefaultLanguageCode,
		voice:      DefaultVoice,
		sampleRate: DefaultSampleRate,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.synthesize = g.remoteSynthesize
	return g, nil
}

// Speak synthesizes text and plays it to completion. A Stop call or
// context cancellation interrupts playback.
func (g *googleSpeaker) Speak(ctx context.Context, text string) error {
	if utils.IsEmpty(text) {
		return nil
	}
	sctx, cancel := context.WithCancel(ctx)
	g.mu.Lock()
	g.cancel = cancel
	g.mu.Unlock()
	defer func() {
		g.mu.Lock()
		if g.cancel != nil {
			g.cancel()
			g.cancel = nil
		}
		g.mu.Unlock()
	}()

	audio, err := g.synthesize(sctx, text)
	if err != nil {
		return err
	}
	return g.sink.Play(sctx, audio)
}

// Stop interrupts the in-flight utterance, if any. Safe to call at any
// time and more than once.
func (g *googleSpeaker) Stop() {
	g.mu.Lock()
	cancel := g.cancel
	g.cancel = nil
	g.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (g *googleSpeaker) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

func (g *googleSpeaker) remoteSynthesize(ctx context.Context, text string) ([]byte, error) {
	resp, err := g.client.SynthesizeSpeech(ctx, &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: g.language,
			Name:         g.voice,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding:   texttospeechpb.AudioEncoding_LINEAR16,
			SampleRateHertz: g.sampleRate,
		},
	})
	if err != nil {
		g.logger.Warnf("speech synthesis failed: %v", err)
		return nil, err
	}
	return resp.GetAudioContent(), nil
}

// silentSpeaker speaks nothing. It stands in when no speech credential
// is configured; the transcript still shows every question.
type silentSpeaker struct{}

func NewSilentSpeaker() types.Speaker { return silentSpeaker{} }

func (silentSpeaker) Speak(ctx context.Context, text string) error { return ctx.Err() }

func (silentSpeaker) Stop() {}
