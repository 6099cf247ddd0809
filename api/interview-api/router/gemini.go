package interview_routers

import (
	"context"

	"github.com/gin-gonic/gin"
	geminiApi "github.com/prepvault/api/interview-api/api/gemini"
	internal_service "github.com/prepvault/api/interview-api/internal/service"
	"github.com/prepvault/config"
	"github.com/prepvault/pkg/commons"
	"github.com/prepvault/pkg/connectors"
)

func GeminiApiRoute(
	cfg *config.AppConfig,
	engine *gin.Engine,
	logger commons.Logger,
	postgres connectors.PostgresConnector,
) {
	generative, err := internal_service.NewGenerativeService(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatalf("Unable to create gemini service %v", err)
	}
	transcription, err := internal_service.NewTranscriptionService(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatalf("Unable to create transcription service %v", err)
	}

	apiv1 := engine.Group("gemini")
	gmApi := geminiApi.NewGeminiApi(cfg, logger, postgres, generative, transcription)
	{
		apiv1.POST("/generate", gmApi.Generate)
		apiv1.POST("/analyze-answer", gmApi.AnalyzeAnswer)
		apiv1.POST("/transcribe", gmApi.Transcribe)
	}
}
