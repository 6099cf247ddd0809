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

	"github.com/prepvault/config"
	"github.com/prepvault/pkg/commons"
	"github.com/prepvault/pkg/types"
	"github.com/prepvault/pkg/utils"
	"google.golang.org/genai"
)

// GenerativeService covers the two Gemini-backed operations: question
// generation and answer feedback.
type GenerativeService interface {
	GenerateQuestions(ctx context.Context, params types.GenerateParams) ([]string, error)
	AnalyzeAnswer(ctx context.Context, question, answer string) (string, error)
}

type geminiService struct {
	cfg    *config.AppConfig
	logger commons.Logger
	client *genai.Client
}

func NewGenerativeService(ctx context.Context, cfg *config.AppConfig, logger commons.Logger) (GenerativeService, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiApiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		logger.Errorf("unable to create gemini client: %v", err)
		return nil, err
	}
	return &geminiService{
		cfg:    cfg,
		logger: logger,
		client: client,
	}, nil
}

func (svc *geminiService) GenerateQuestions(ctx context.Context, params types.GenerateParams) ([]string, error) {
	prompt := fmt.Sprintf(`Prepare questions for a job interview.
The job role is %s.
The job experience level is %s.
The tech stack used in the job is: %s.
The focus between behavioural and technical questions should lean towards: %s.
The amount of questions required is: %d.
Please return only the questions, without any additional text.
The questions are going to be read by a voice assistant so do not use "/" or "*" or any other special characters which might break the voice assistant.
Return the questions formatted like this:
["Question 1", "Question 2", "Question 3"]`,
		params.Role, params.Level, params.TechStack, params.Type, params.Amount)

	resp, err := svc.client.Models.GenerateContent(ctx, svc.cfg.GeminiModel, genai.Text(prompt), nil)
	if err != nil {
		svc.logger.Errorf("question generation failed: %v", err)
		return nil, err
	}
	return parseQuestionList(resp.Text())
}

func (svc *geminiService) AnalyzeAnswer(ctx context.Context, question, answer string) (string, error) {
	prompt := fmt.Sprintf(`You are an experienced interview coach.
The candidate was asked the following interview question:
%s

The candidate answered:
%s

Give short, direct feedback on the answer: what was good, what was
missing, and one concrete way to improve it. Keep it under 120 words
and address the candidate directly. Do not repeat the question.`,
		question, answer)

	resp, err := svc.client.Models.GenerateContent(ctx, svc.cfg.GeminiModel, genai.Text(prompt), nil)
	if err != nil {
		svc.logger.Errorf("answer analysis failed: %v", err)
		return "", err
	}
	feedback := strings.TrimSpace(resp.Text())
	if utils.IsEmpty(feedback) {
		return "", types.ErrMalformedResponse
	}
	return feedback, nil
}

// parseQuestionList extracts the JSON question array from a model
// reply. The model occasionally wraps the array in a code fence or
// leading prose; everything outside the outermost brackets is ignored.
func parseQuestionList(text string) ([]string, error) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start == -1 || end == -1 || end < start {
		return nil, types.ErrMalformedResponse
	}

	var questions []string
	if err := json.Unmarshal([]byte(text[start:end+1]), &questions); err != nil {
		return nil, types.ErrMalformedResponse
	}

	out := make([]string, 0, len(questions))
	for _, q := range questions {
		if !utils.IsEmpty(q) {
			out = append(out, strings.TrimSpace(q))
		}
	}
	if len(out) == 0 {
		return nil, types.ErrMalformedResponse
	}
	return out, nil
}
