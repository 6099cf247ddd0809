// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	speech "cloud.google.com/go/speech/apiv2"
	"cloud.google.com/go/speech/apiv2/speechpb"
	"github.com/prepvault/config"
	"github.com/prepvault/pkg/commons"
	"github.com/prepvault/pkg/types"
	"github.com/prepvault/pkg/utils"
	"google.golang.org/api/option"
)

const transcriptionLanguageCode = "en-US"

// TranscriptionService turns recorded answer audio into text.
type TranscriptionService interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

type googleTranscriptionService struct {
	cfg        *config.AppConfig
	logger     commons.Logger
	client     *speech.Client
	recognizer string
}

func NewTranscriptionService(ctx context.Context, cfg *config.AppConfig, logger commons.Logger) (TranscriptionService, error) {
	co := make([]option.ClientOption, 0)
	var projectID string
	if !utils.IsEmpty(cfg.GoogleCredential) {
		co = append(co, option.WithCredentialsJSON([]byte(cfg.GoogleCredential)))
		var credential struct {
			ProjectID string `json:"project_id"`
		}
		if err := json.Unmarshal([]byte(cfg.GoogleCredential), &credential); err == nil {
			projectID = credential.ProjectID
		}
	}
	if utils.IsEmpty(projectID) {
		logger.Warn("no project id in google credential, recognizer path may be rejected")
	}

	client, err := speech.NewClient(ctx, co...)
	if err != nil {
		logger.Errorf("unable to create speech client: %v", err)
		return nil, err
	}
	return &googleTranscriptionService{
		cfg:        cfg,
		logger:     logger,
		client:     client,
		recognizer: fmt.Sprintf("projects/%s/locations/global/recognizers/_", projectID),
	}, nil
}

func (svc *googleTranscriptionService) Transcribe(ctx context.Context, audio []byte) (string, error) {
	resp, err := svc.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Recognizer: svc.recognizer,
		Config: &speechpb.RecognitionConfig{
			DecodingConfig: &speechpb.RecognitionConfig_AutoDecodingConfig{
				AutoDecodingConfig: &speechpb.AutoDetectDecodingConfig{},
			},
			Features: &speechpb.RecognitionFeatures{
				EnableAutomaticPunctuation: true,
				ProfanityFilter:            true,
			},
			LanguageCodes: []string{transcriptionLanguageCode},
			Model:         "long",
		},
		AudioSource: &speechpb.RecognizeRequest_Content{Content: audio},
	})
	if err != nil {
		svc.logger.Errorf("speech recognition failed: %v", err)
		return "", err
	}

	segments := make([]string, 0, len(resp.GetResults()))
	for _, result := range resp.GetResults() {
		alternatives := result.GetAlternatives()
		if len(alternatives) == 0 {
			continue
		}
		if text := strings.TrimSpace(alternatives[0].GetTranscript()); text != "" {
			segments = append(segments, text)
		}
	}
	transcript := strings.Join(segments, " ")
	if utils.IsEmpty(transcript) {
		return "", types.ErrMalformedResponse
	}
	return transcript, nil
}
