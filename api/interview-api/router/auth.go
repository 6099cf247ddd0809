package interview_routers

import (
	"github.com/gin-gonic/gin"
	authApi "github.com/prepvault/api/interview-api/api/auth"
	"github.com/prepvault/config"
	"github.com/prepvault/pkg/commons"
	"github.com/prepvault/pkg/connectors"
)

func AuthApiRoute(
	cfg *config.AppConfig,
	engine *gin.Engine,
	logger commons.Logger,
	postgres connectors.PostgresConnector,
) {
	apiv1 := engine.Group("auth")
	aApi := authApi.NewAuthApi(cfg, logger, postgres)
	{
		apiv1.POST("/signup", aApi.SignUp)
		apiv1.POST("/signin", aApi.SignIn)
	}

	protected := apiv1.Group("", aApi.Middleware())
	{
		protected.GET("/current-user", aApi.CurrentUser)
		protected.GET("/interview/user", aApi.UserInterviews)
		protected.GET("/interview/latest", aApi.LatestInterviews)
		protected.GET("/interview/:id", aApi.InterviewById)
	}
}
