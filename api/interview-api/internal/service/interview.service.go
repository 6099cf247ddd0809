// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_service

import (
	"context"

	internal_entity "github.com/prepvault/api/interview-api/internal/entity"
	"github.com/prepvault/config"
	"github.com/prepvault/pkg/commons"
	"github.com/prepvault/pkg/connectors"
)

type InterviewService interface {
	Create(ctx context.Context, interview *internal_entity.Interview) error
	GetByUser(ctx context.Context, userId string) ([]internal_entity.Interview, error)
	GetLatest(ctx context.Context, excludeUserId string, limit int) ([]internal_entity.Interview, error)
	Get(ctx context.Context, id string) (*internal_entity.Interview, error)
}

type interviewService struct {
	cfg      *config.AppConfig
	logger   commons.Logger
	postgres connectors.PostgresConnector
}

func NewInterviewService(cfg *config.AppConfig, logger commons.Logger, postgres connectors.PostgresConnector) InterviewService {
	return &interviewService{
		cfg:      cfg,
		logger:   logger,
		postgres: postgres,
	}
}

func (svc *interviewService) Create(ctx context.Context, interview *internal_entity.Interview) error {
	if err := svc.postgres.Database().WithContext(ctx).Create(interview).Error; err != nil {
		svc.logger.Errorf("unable to store interview: %v", err)
		return err
	}
	return nil
}

func (svc *interviewService) GetByUser(ctx context.Context, userId string) ([]internal_entity.Interview, error) {
	var interviews []internal_entity.Interview
	err := svc.postgres.Database().WithContext(ctx).
		Where("user_id = ?", userId).
		Order("created_date DESC").
		Find(&interviews).Error
	return interviews, err
}

// GetLatest lists finalized interviews from other users, newest first.
func (svc *interviewService) GetLatest(ctx context.Context, excludeUserId string, limit int) ([]internal_entity.Interview, error) {
	var interviews []internal_entity.Interview
	err := svc.postgres.Database().WithContext(ctx).
		Where("finalized = ? AND user_id <> ?", true, excludeUserId).
		Order("created_date DESC").
		Limit(limit).
		Find(&interviews).Error
	return interviews, err
}

func (svc *interviewService) Get(ctx context.Context, id string) (*internal_entity.Interview, error) {
	var interview internal_entity.Interview
	if err := svc.postgres.Database().WithContext(ctx).First(&interview, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &interview, nil
}
