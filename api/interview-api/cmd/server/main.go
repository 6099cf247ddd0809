// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package main

import (
	"fmt"
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	internal_entity "github.com/prepvault/api/interview-api/internal/entity"
	interview_routers "github.com/prepvault/api/interview-api/router"
	"github.com/prepvault/config"
	"github.com/prepvault/pkg/commons"
	"github.com/prepvault/pkg/connectors"
)

func main() {
	vConfig, err := config.InitConfig()
	if err != nil {
		log.Fatalf("unable to initialize config: %v", err)
	}
	cfg, err := config.GetApplicationConfig(vConfig)
	if err != nil {
		log.Fatalf("unable to read application config: %v", err)
	}

	logger, err := commons.NewApplicationLogger(
		commons.Name(cfg.Name),
		commons.Path(cfg.LogPath),
		commons.Level(cfg.LogLevel),
	)
	if err != nil {
		log.Fatalf("unable to create logger: %v", err)
	}
	defer logger.Sync()

	postgres, err := connectors.NewPostgresConnector(cfg, logger)
	if err != nil {
		logger.Fatalf("Unable to connect postgres %v", err)
	}
	if err := postgres.Database().AutoMigrate(
		&internal_entity.User{},
		&internal_entity.Interview{},
	); err != nil {
		logger.Fatalf("Unable to migrate schema %v", err)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization"},
	}))

	interview_routers.HealthCheckRoutes(cfg, engine, logger, postgres)
	interview_routers.GeminiApiRoute(cfg, engine, logger, postgres)
	interview_routers.AuthApiRoute(cfg, engine, logger, postgres)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	logger.Infof("%s %s listening on %s", cfg.Name, cfg.Version, addr)
	if err := engine.Run(addr); err != nil {
		logger.Fatalf("server stopped %v", err)
	}
}
