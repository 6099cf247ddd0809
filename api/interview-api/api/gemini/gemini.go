// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package gemini_api

import (
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	internal_entity "github.com/prepvault/api/interview-api/internal/entity"
	internal_service "github.com/prepvault/api/interview-api/internal/service"
	"github.com/prepvault/config"
	"github.com/prepvault/pkg/commons"
	"github.com/prepvault/pkg/connectors"
	"github.com/prepvault/pkg/types"
	"github.com/prepvault/pkg/utils"
)

var coverImages = []string{
	"/covers/adobe.png",
	"/covers/amazon.png",
	"/covers/facebook.png",
	"/covers/hostinger.png",
	"/covers/pinterest.png",
	"/covers/quora.png",
	"/covers/reddit.png",
	"/covers/skype.png",
	"/covers/spotify.png",
	"/covers/telegram.png",
	"/covers/tiktok.png",
	"/covers/yahoo.png",
}

type geminiApi struct {
	cfg              *config.AppConfig
	logger           commons.Logger
	generative       internal_service.GenerativeService
	transcription    internal_service.TranscriptionService
	interviewService internal_service.InterviewService
}

func NewGeminiApi(
	cfg *config.AppConfig,
	logger commons.Logger,
	postgres connectors.PostgresConnector,
	generative internal_service.GenerativeService,
	transcription internal_service.TranscriptionService,
) *geminiApi {
	return &geminiApi{
		cfg:              cfg,
		logger:           logger,
		generative:       generative,
		transcription:    transcription,
		interviewService: internal_service.NewInterviewService(cfg, logger, postgres),
	}
}

type generateRequest struct {
	Type      string `json:"type"`
	Role      string `json:"role"`
	Level     string `json:"level"`
	Techstack string `json:"techstack"`
	Amount    int    `json:"amount"`
	Userid    string `json:"userid"`
}

// Generate prompts Gemini for interview questions, stores the interview
// and returns the question list.
func (api *geminiApi) Generate(c *gin.Context) {
	var request generateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		api.logger.Warnf("malformed generate request: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"success": false})
		return
	}
	if request.Amount <= 0 {
		request.Amount = api.cfg.QuestionAmount
	}

	questions, err := api.generative.GenerateQuestions(c.Request.Context(), types.GenerateParams{
		Type:      request.Type,
		Role:      request.Role,
		Level:     request.Level,
		TechStack: request.Techstack,
		Amount:    request.Amount,
		UserID:    request.Userid,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false})
		return
	}

	interview := &internal_entity.Interview{
		Role:       request.Role,
		Level:      request.Level,
		Type:       request.Type,
		Techstack:  splitTechstack(request.Techstack),
		Questions:  questions,
		UserId:     request.Userid,
		Finalized:  true,
		CoverImage: coverImages[rand.Intn(len(coverImages))],
	}
	if err := api.interviewService.Create(c.Request.Context(), interview); err != nil {
		// The questions were generated; storage failure should not cost
		// the caller the interview.
		api.logger.Errorf("interview not persisted: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "questions": questions})
}

type analyzeRequest struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// AnalyzeAnswer returns coach-style feedback for one question/answer
// pair.
func (api *geminiApi) AnalyzeAnswer(c *gin.Context) {
	var request analyzeRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		api.logger.Warnf("malformed analyze request: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"success": false})
		return
	}

	feedback, err := api.generative.AnalyzeAnswer(c.Request.Context(), request.Question, request.Answer)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "feedback": feedback})
}

// Transcribe accepts a multipart answer recording, stores it under the
// upload directory and returns the recognized text.
func (api *geminiApi) Transcribe(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		api.logger.Warnf("transcribe request without file: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"success": false})
		return
	}

	if err := os.MkdirAll(api.cfg.UploadDir, 0o755); err != nil {
		api.logger.Errorf("unable to create upload dir: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false})
		return
	}
	name := fmt.Sprintf("%d-%s", time.Now().UnixMilli(), filepath.Base(file.Filename))
	dst := filepath.Join(api.cfg.UploadDir, name)
	if err := c.SaveUploadedFile(file, dst); err != nil {
		api.logger.Errorf("unable to save upload: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false})
		return
	}

	audio, err := os.ReadFile(dst)
	if err != nil {
		api.logger.Errorf("unable to read upload back: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false})
		return
	}

	transcript, err := api.transcription.Transcribe(c.Request.Context(), audio)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "transcript": transcript})
}

func splitTechstack(techstack string) internal_entity.StringList {
	parts := strings.Split(techstack, commons.SEPARATOR)
	out := make(internal_entity.StringList, 0, len(parts))
	for _, part := range parts {
		if !utils.IsEmpty(part) {
			out = append(out, strings.TrimSpace(part))
		}
	}
	return out
}
