package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thesisguard/internal/models"
	"thesisguard/internal/services"
)

const testToken = "good-token"

type stubAuthService struct {
	account *models.Account
}

func (s *stubAuthService) Register(ctx context.Context, email, name, password string) (*models.Account, error) {
	if email == "taken@uni.edu" {
		return nil, services.ErrEmailTaken
	}
	return s.account, nil
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (string, *models.Account, error) {
	if password != "longenough" {
		return "", nil, services.ErrInvalidCredentials
	}
	return testToken, s.account, nil
}

func (s *stubAuthService) Authenticate(ctx context.Context, token string) (*models.Account, error) {
	if token != testToken {
		return nil, services.ErrInvalidToken
	}
	return s.account, nil
}

type stubPipeline struct {
	sub         *models.Submission
	intakeErr   error
	report      *services.Report
	reportErr   error
	overrideErr error
	deleteErr   error
}

func (p *stubPipeline) Intake(ctx context.Context, owner *models.Account, params services.IntakeParams) (*models.Submission, error) {
	if p.intakeErr != nil {
		return nil, p.intakeErr
	}
	return p.sub, nil
}

func (p *stubPipeline) CompleteDetection(ctx context.Context, submissionID uuid.UUID, findings []models.Finding) error {
	return nil
}

func (p *stubPipeline) AdminOverride(ctx context.Context, submissionID uuid.UUID, actor *models.Account, decision services.Decision) (*models.Submission, error) {
	if p.overrideErr != nil {
		return nil, p.overrideErr
	}
	return p.sub, nil
}

func (p *stubPipeline) Delete(ctx context.Context, submissionID uuid.UUID, actor *models.Account) error {
	return p.deleteErr
}

func (p *stubPipeline) List(ctx context.Context, actor *models.Account) ([]models.Submission, error) {
	if p.sub == nil {
		return nil, nil
	}
	return []models.Submission{*p.sub}, nil
}

func (p *stubPipeline) GetReport(ctx context.Context, submissionID uuid.UUID, actor *models.Account) (*services.Report, error) {
	if p.reportErr != nil {
		return nil, p.reportErr
	}
	return p.report, nil
}

func (p *stubPipeline) Download(ctx context.Context, submissionID uuid.UUID, actor *models.Account) ([]byte, string, error) {
	return []byte("%PDF-1.5"), services.MimePDF, nil
}

func newTestApp(pipeline services.ReviewPipeline) *fiber.App {
	auth := &stubAuthService{account: &models.Account{ID: uuid.New(), Email: "student@uni.edu"}}

	authHandler := NewAuthHandler(auth)
	thesisHandler := NewThesisHandler(pipeline)
	reportHandler := NewReportHandler(pipeline)
	adminHandler := NewAdminHandler(pipeline)

	app := fiber.New()
	api := app.Group("/api/v1")
	api.Post("/auth/register", authHandler.HandleRegister)
	api.Post("/auth/login", authHandler.HandleLogin)

	authenticated := api.Use(NewAuthMiddleware(auth))
	authenticated.Get("/theses", thesisHandler.HandleList)
	authenticated.Post("/theses", thesisHandler.HandleUpload)
	authenticated.Get("/theses/:id/report", reportHandler.HandleGetReport)
	authenticated.Get("/theses/:id/download", thesisHandler.HandleDownload)
	authenticated.Delete("/theses/:id", thesisHandler.HandleDelete)
	authenticated.Post("/theses/:id/decision", adminHandler.HandleDecision)

	return app
}

func doRequest(t *testing.T, app *fiber.App, req *http.Request) *http.Response {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func authedRequest(method, target string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, target, body)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+testToken)
	return req
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	var payload map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	return payload
}

func multipartThesis(t *testing.T, title string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("title", title))
	require.NoError(t, w.WriteField("abstract", "An abstract that is certainly long enough to pass validation."))
	require.NoError(t, w.WriteField("faculty", "Computer Science"))
	fw, err := w.CreateFormFile("thesis", "thesis.pdf")
	require.NoError(t, err)
	_, err = fw.Write([]byte("%PDF-1.5\n%%EOF"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestProtectedRoutesRequireBearerToken(t *testing.T) {
	app := newTestApp(&stubPipeline{})

	resp := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/theses", nil))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/theses", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer wrong-token")
	resp = doRequest(t, app, req)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestUploadAccepted(t *testing.T) {
	sub := &models.Submission{
		ID:        uuid.New(),
		Title:     "Graph Partitioning Under Memory Constraints",
		Status:    models.StatusProcessing,
		CreatedAt: time.Now(),
	}
	app := newTestApp(&stubPipeline{sub: sub})

	body, contentType := multipartThesis(t, sub.Title)
	req := authedRequest(http.MethodPost, "/api/v1/theses", body)
	req.Header.Set(fiber.HeaderContentType, contentType)

	resp := doRequest(t, app, req)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	payload := decodeBody(t, resp)
	assert.Equal(t, sub.ID.String(), payload["id"])
	assert.Equal(t, string(models.StatusProcessing), payload["status"])
}

func TestUploadValidationErrorIncludesField(t *testing.T) {
	app := newTestApp(&stubPipeline{
		intakeErr: &services.ValidationError{Field: "title", Reason: "must be at least 5 characters"},
	})

	body, contentType := multipartThesis(t, "Abc")
	req := authedRequest(http.MethodPost, "/api/v1/theses", body)
	req.Header.Set(fiber.HeaderContentType, contentType)

	resp := doRequest(t, app, req)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "title", decodeBody(t, resp)["field"])
}

func TestUploadErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"unsupported media", services.ErrUnsupportedMedia, http.StatusUnsupportedMediaType},
		{"payload too large", services.ErrPayloadTooLarge, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(&stubPipeline{intakeErr: tt.err})

			body, contentType := multipartThesis(t, "A Perfectly Fine Title")
			req := authedRequest(http.MethodPost, "/api/v1/theses", body)
			req.Header.Set(fiber.HeaderContentType, contentType)

			resp := doRequest(t, app, req)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestGetReport(t *testing.T) {
	score := 37
	aiScore := 5
	sub := &models.Submission{
		ID:                uuid.New(),
		Title:             "Graph Partitioning Under Memory Constraints",
		Status:            models.StatusCompleted,
		PlagiarismScore:   &score,
		AIPlagiarismScore: &aiScore,
		CreatedAt:         time.Now(),
	}
	app := newTestApp(&stubPipeline{report: &services.Report{
		Submission: sub,
		Verdicts:   []string{services.VerdictTraditionalExceeded},
		Findings: []models.Finding{
			{Passage: "p1", Source: "paper-a", Similarity: 37, Kind: models.KindTraditional},
		},
	}})

	resp := doRequest(t, app, authedRequest(http.MethodGet, "/api/v1/theses/"+sub.ID.String()+"/report", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	payload := decodeBody(t, resp)
	assert.Equal(t, float64(37), payload["plagiarism_score"])
	assert.Len(t, payload["verdicts"], 1)
	assert.Len(t, payload["findings"], 1)
}

func TestGetReportNotFound(t *testing.T) {
	app := newTestApp(&stubPipeline{reportErr: services.ErrNotFound})

	resp := doRequest(t, app, authedRequest(http.MethodGet, "/api/v1/theses/"+uuid.NewString()+"/report", nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetReportRejectsBadID(t *testing.T) {
	app := newTestApp(&stubPipeline{})

	resp := doRequest(t, app, authedRequest(http.MethodGet, "/api/v1/theses/not-a-uuid/report", nil))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDecisionErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"forbidden for non-admins", services.ErrForbidden, http.StatusForbidden},
		{"conflict when already finalized", services.ErrAlreadyFinalized, http.StatusConflict},
		{"not found", services.ErrNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(&stubPipeline{overrideErr: tt.err})

			req := authedRequest(http.MethodPost, "/api/v1/theses/"+uuid.NewString()+"/decision",
				strings.NewReader(`{"decision":"approve"}`))
			req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

			resp := doRequest(t, app, req)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestDeleteReturnsNoContent(t *testing.T) {
	app := newTestApp(&stubPipeline{})

	resp := doRequest(t, app, authedRequest(http.MethodDelete, "/api/v1/theses/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestDownloadSetsContentHeaders(t *testing.T) {
	app := newTestApp(&stubPipeline{})

	resp := doRequest(t, app, authedRequest(http.MethodGet, "/api/v1/theses/"+uuid.NewString()+"/download", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, services.MimePDF, resp.Header.Get(fiber.HeaderContentType))
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "attachment")
}

func TestLoginErrorStatus(t *testing.T) {
	app := newTestApp(&stubPipeline{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
		strings.NewReader(`{"email":"student@uni.edu","password":"wrong"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp := doRequest(t, app, req)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRegisterConflictStatus(t *testing.T) {
	app := newTestApp(&stubPipeline{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register",
		strings.NewReader(`{"email":"taken@uni.edu","name":"Student","password":"longenough"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp := doRequest(t, app, req)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}
