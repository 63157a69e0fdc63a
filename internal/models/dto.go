package models

import "time"

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Token   string   `json:"token"`
	Account *Account `json:"account"`
}

type SubmissionResponse struct {
	ID                string    `json:"id"`
	Title             string    `json:"title"`
	Faculty           string    `json:"faculty"`
	Status            string    `json:"status"`
	PlagiarismScore   *int      `json:"plagiarism_score,omitempty"`
	AIPlagiarismScore *int      `json:"ai_plagiarism_score,omitempty"`
	UploadedAt        time.Time `json:"uploaded_at"`
}

type IntakeResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type DecisionRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approve reject"`
}

type FindingResponse struct {
	Passage    string `json:"passage"`
	Source     string `json:"source"`
	Similarity int    `json:"similarity"`
	Kind       string `json:"kind"`
}

type ReportResponse struct {
	ID                string            `json:"id"`
	Title             string            `json:"title"`
	Abstract          string            `json:"abstract"`
	Faculty           string            `json:"faculty"`
	Status            string            `json:"status"`
	UploadedAt        time.Time         `json:"uploaded_at"`
	PlagiarismScore   *int              `json:"plagiarism_score,omitempty"`
	AIPlagiarismScore *int              `json:"ai_plagiarism_score,omitempty"`
	Verdicts          []string          `json:"verdicts"`
	Findings          []FindingResponse `json:"findings"`
}
