// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package connectors

import (
	"fmt"
	"time"

	"github.com/prepvault/config"
	"github.com/prepvault/pkg/commons"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gorm_logger "gorm.io/gorm/logger"
)

// PostgresConnector hands out the shared gorm handle.
type PostgresConnector interface {
	Database() *gorm.DB
}

type postgresConnector struct {
	logger commons.Logger
	db     *gorm.DB
}

func NewPostgresConnector(cfg *config.AppConfig, logger commons.Logger) (PostgresConnector, error) {
	pg := cfg.PostgresConfig
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		pg.Host, pg.Port, pg.User, pg.Password, pg.DbName, pg.SslMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gorm_logger.Default.LogMode(gorm_logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("postgres pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(pg.MaxOpenConnection)
	sqlDB.SetMaxIdleConns(pg.MaxIdleConnection)
	sqlDB.SetConnMaxLifetime(time.Hour)

	logger.Infof("postgres connected host=%s db=%s", pg.Host, pg.DbName)
	return &postgresConnector{logger: logger, db: db}, nil
}

func (c *postgresConnector) Database() *gorm.DB {
	return c.db
}
