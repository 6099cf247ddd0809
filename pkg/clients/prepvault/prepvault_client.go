// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package prepvault_client

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/go-resty/resty/v2"
	"github.com/prepvault/pkg/commons"
	"github.com/prepvault/pkg/types"
	"github.com/prepvault/pkg/utils"
)

// User is the authenticated account as returned by the auth endpoints.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Interview is a generated interview as stored by the backend.
type Interview struct {
	ID        string   `json:"id"`
	Role      string   `json:"role"`
	Level     string   `json:"level"`
	Type      string   `json:"type"`
	TechStack []string `json:"techstack"`
	Questions []string `json:"questions"`
	UserID    string   `json:"userid"`
	Finalized bool     `json:"finalized"`
	CreatedAt string   `json:"createdAt"`
}

// PrepvaultServiceClient is the full backend surface the app talks to.
// Generate, Transcribe and Evaluate satisfy the interview call's
// service interfaces, so the client plugs straight into the session
// controller.
type PrepvaultServiceClient interface {
	types.QuestionService
	types.Transcriber
	types.Evaluator

	SignUp(ctx context.Context, name, email, password string) (*User, error)
	SignIn(ctx context.Context, email, password string) (*User, error)
	SignOut()
	CurrentUser(ctx context.Context) (*User, error)

	UserInterviews(ctx context.Context) ([]Interview, error)
	LatestInterviews(ctx context.Context, limit int) ([]Interview, error)
	Interview(ctx context.Context, id string) (*Interview, error)
}

type prepvaultServiceClient struct {
	logger commons.Logger
	http   *resty.Client

	mu    sync.Mutex
	token string
	user  *User
}

func NewPrepvaultServiceClient(logger commons.Logger, host string) PrepvaultServiceClient {
	http := resty.New().
		SetBaseURL(host).
		SetHeader("Content-Type", "application/json")
	return &prepvaultServiceClient{
		logger: logger,
		http:   http,
	}
}

// ============================================================================
// Interview services
// ============================================================================

type generateResponse struct {
	Success   bool     `json:"success"`
	Questions []string `json:"questions"`
}

func (client *prepvaultServiceClient) Generate(ctx context.Context, params types.GenerateParams) ([]string, error) {
	var out generateResponse
	resp, err := client.request(ctx).
		SetBody(map[string]any{
			"type":      params.Type,
			"role":      params.Role,
			"level":     params.Level,
			"techstack": params.TechStack,
			"amount":    params.Amount,
			"userid":    params.UserID,
		}).
		SetResult(&out).
		Post("/gemini/generate")
	if err := client.accept(resp, err, out.Success); err != nil {
		return nil, err
	}
	return out.Questions, nil
}

type transcribeResponse struct {
	Success    bool   `json:"success"`
	Transcript string `json:"transcript"`
}

func (client *prepvaultServiceClient) Transcribe(ctx context.Context, artifact types.Artifact) (string, error) {
	name := artifact.Path
	if utils.IsEmpty(name) {
		name = "answer.wav"
	}
	var out transcribeResponse
	resp, err := client.request(ctx).
		SetFileReader("file", name, bytes.NewReader(artifact.Data)).
		SetResult(&out).
		Post("/gemini/transcribe")
	if err := client.accept(resp, err, out.Success); err != nil {
		return "", err
	}
	return out.Transcript, nil
}

type feedbackResponse struct {
	Success  bool   `json:"success"`
	Feedback string `json:"feedback"`
}

func (client *prepvaultServiceClient) Evaluate(ctx context.Context, question, answer string) (string, error) {
	var out feedbackResponse
	resp, err := client.request(ctx).
		SetBody(map[string]any{
			"question": question,
			"answer":   answer,
		}).
		SetResult(&out).
		Post("/gemini/analyze-answer")
	if err := client.accept(resp, err, out.Success); err != nil {
		return "", err
	}
	return out.Feedback, nil
}

// ============================================================================
// Auth
// ============================================================================

type authResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
	User    *User  `json:"user"`
}

func (client *prepvaultServiceClient) SignUp(ctx context.Context, name, email, password string) (*User, error) {
	var out authResponse
	resp, err := client.request(ctx).
		SetBody(map[string]any{
			"name":     name,
			"email":    email,
			"password": password,
		}).
		SetResult(&out).
		Post("/auth/signup")
	if err := client.accept(resp, err, out.Success); err != nil {
		return nil, err
	}
	return out.User, nil
}

// SignIn authenticates and stores the bearer token for subsequent
// requests on this client.
func (client *prepvaultServiceClient) SignIn(ctx context.Context, email, password string) (*User, error) {
	var out authResponse
	resp, err := client.request(ctx).
		SetBody(map[string]any{
			"email":    email,
			"password": password,
		}).
		SetResult(&out).
		Post("/auth/signin")
	if err := client.accept(resp, err, out.Success); err != nil {
		return nil, err
	}
	client.mu.Lock()
	client.token = out.Token
	client.user = out.User
	client.mu.Unlock()
	return out.User, nil
}

func (client *prepvaultServiceClient) SignOut() {
	client.mu.Lock()
	client.token = ""
	client.user = nil
	client.mu.Unlock()
}

type userResponse struct {
	Success bool  `json:"success"`
	User    *User `json:"user"`
}

func (client *prepvaultServiceClient) CurrentUser(ctx context.Context) (*User, error) {
	var out userResponse
	resp, err := client.request(ctx).
		SetResult(&out).
		Get("/auth/current-user")
	if err := client.accept(resp, err, out.Success); err != nil {
		return nil, err
	}
	return out.User, nil
}

// ============================================================================
// Interview listing
// ============================================================================

type interviewsResponse struct {
	Success    bool        `json:"success"`
	Interviews []Interview `json:"interviews"`
}

func (client *prepvaultServiceClient) UserInterviews(ctx context.Context) ([]Interview, error) {
	var out interviewsResponse
	resp, err := client.request(ctx).
		SetResult(&out).
		Get("/auth/interview/user")
	if err := client.accept(resp, err, out.Success); err != nil {
		return nil, err
	}
	return out.Interviews, nil
}

func (client *prepvaultServiceClient) LatestInterviews(ctx context.Context, limit int) ([]Interview, error) {
	var out interviewsResponse
	req := client.request(ctx).SetResult(&out)
	if limit > 0 {
		req.SetQueryParam("limit", strconv.Itoa(limit))
	}
	resp, err := req.Get("/auth/interview/latest")
	if err := client.accept(resp, err, out.Success); err != nil {
		return nil, err
	}
	return out.Interviews, nil
}

type interviewResponse struct {
	Success   bool       `json:"success"`
	Interview *Interview `json:"interview"`
}

func (client *prepvaultServiceClient) Interview(ctx context.Context, id string) (*Interview, error) {
	var out interviewResponse
	resp, err := client.request(ctx).
		SetResult(&out).
		Get(fmt.Sprintf("/auth/interview/%s", id))
	if err := client.accept(resp, err, out.Success); err != nil {
		return nil, err
	}
	return out.Interview, nil
}

// ============================================================================
// Plumbing
// ============================================================================

func (client *prepvaultServiceClient) request(ctx context.Context) *resty.Request {
	req := client.http.R().SetContext(ctx)
	client.mu.Lock()
	token := client.token
	client.mu.Unlock()
	if !utils.IsEmpty(token) {
		req.SetAuthToken(token)
	}
	return req
}

// accept applies the uniform failure rule: a transport error, a
// non-2xx status, or a body without success:true are all the same
// malformed-response failure to callers.
func (client *prepvaultServiceClient) accept(resp *resty.Response, err error, success bool) error {
	if err != nil {
		client.logger.Warnf("prepvault request failed: %v", err)
		return err
	}
	if resp.IsError() {
		client.logger.Warnf("prepvault replied %s for %s", resp.Status(), resp.Request.URL)
		return types.ErrMalformedResponse
	}
	if !success {
		return types.ErrMalformedResponse
	}
	return nil
}
