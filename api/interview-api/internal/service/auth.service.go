// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_service

import (
	"context"
	"errors"
	"time"

	internal_entity "github.com/prepvault/api/interview-api/internal/entity"
	"github.com/prepvault/config"
	"github.com/prepvault/pkg/commons"
	"github.com/prepvault/pkg/connectors"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const tokenValidity = 7 * 24 * time.Hour

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// Principle is the authenticated identity extracted from a token.
type Principle struct {
	UserId string
	Email  string
}

type AuthService interface {
	SignUp(ctx context.Context, name, email, password string) (*internal_entity.User, error)
	SignIn(ctx context.Context, email, password string) (*internal_entity.User, string, error)
	Verify(token string) (*Principle, error)
	GetUser(ctx context.Context, userId string) (*internal_entity.User, error)
}

type authService struct {
	cfg      *config.AppConfig
	logger   commons.Logger
	postgres connectors.PostgresConnector
}

func NewAuthService(cfg *config.AppConfig, logger commons.Logger, postgres connectors.PostgresConnector) AuthService {
	return &authService{
		cfg:      cfg,
		logger:   logger,
		postgres: postgres,
	}
}

func (svc *authService) SignUp(ctx context.Context, name, email, password string) (*internal_entity.User, error) {
	db := svc.postgres.Database().WithContext(ctx)

	var existing internal_entity.User
	err := db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &internal_entity.User{
		Name:     name,
		Email:    email,
		Password: string(hash),
	}
	if err := db.Create(user).Error; err != nil {
		svc.logger.Errorf("unable to create user: %v", err)
		return nil, err
	}
	return user, nil
}

func (svc *authService) SignIn(ctx context.Context, email, password string) (*internal_entity.User, string, error) {
	db := svc.postgres.Database().WithContext(ctx)

	var user internal_entity.User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := svc.issueToken(&user)
	if err != nil {
		svc.logger.Errorf("unable to sign token: %v", err)
		return nil, "", err
	}
	return &user, token, nil
}

func (svc *authService) issueToken(user *internal_entity.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   user.Id,
		"email": user.Email,
		"iat":   now.Unix(),
		"exp":   now.Add(tokenValidity).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(svc.cfg.Secret))
}

func (svc *authService) Verify(token string) (*Principle, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(svc.cfg.Secret), nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	if sub == "" {
		return nil, ErrInvalidToken
	}
	return &Principle{UserId: sub, Email: email}, nil
}

func (svc *authService) GetUser(ctx context.Context, userId string) (*internal_entity.User, error) {
	var user internal_entity.User
	if err := svc.postgres.Database().WithContext(ctx).First(&user, "id = ?", userId).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
