// Package model defines the outward-facing JSON types of the gateway API
// and the structural validation of inbound submissions.
package model

import "encoding/base64"

// ErrValidation is a recoverable request-validation failure, surfaced as a
// 400 with Msg as the error body.
type ErrValidation struct {
	Msg string
}

func (e *ErrValidation) Error() string {
	return e.Msg
}

// SubmitRequest is the JSON body for POST /api/v1/snark.
type SubmitRequest struct {
	Proof           string   `json:"proof"`
	PublicInputs    []string `json:"public_inputs"`
	VerificationKey string   `json:"verification_key"`
	ProofSystem     string   `json:"proof_system"`
	Submitter       string   `json:"submitter"`
	Notes           *string  `json:"notes,omitempty"`
}

// Validate checks structural preconditions in a fixed order, short-circuiting
// on the first violation. No encoding is attempted after a failure here.
func (r *SubmitRequest) Validate() error {
	if r.Proof == "" {
		return &ErrValidation{Msg: "Proof data is required"}
	}
	if r.VerificationKey == "" {
		return &ErrValidation{Msg: "Verification key is required"}
	}
	if r.Submitter == "" {
		return &ErrValidation{Msg: "Submitter is required"}
	}
	if _, err := base64.StdEncoding.DecodeString(r.Proof); err != nil {
		return &ErrValidation{Msg: "Invalid Base64 in proof data"}
	}
	if _, err := base64.StdEncoding.DecodeString(r.VerificationKey); err != nil {
		return &ErrValidation{Msg: "Invalid Base64 in verification key"}
	}
	return nil
}

// NotesOrEmpty returns the optional notes field, defaulting to "".
func (r *SubmitRequest) NotesOrEmpty() string {
	if r.Notes == nil {
		return ""
	}
	return *r.Notes
}

// SnarkResponse acknowledges a submit or delete.
type SnarkResponse struct {
	Success bool    `json:"success"`
	ID      *uint64 `json:"id,omitempty"`
	Message string  `json:"message"`
}

// SnarkDetails is the full view of one submission.
type SnarkDetails struct {
	ID              uint64   `json:"id"`
	Proof           string   `json:"proof"`
	PublicInputs    []string `json:"public_inputs"`
	VerificationKey string   `json:"verification_key"`
	ProofSystem     string   `json:"proof_system"`
	Submitter       string   `json:"submitter"`
	Submitted       string   `json:"submitted"`
	Status          string   `json:"status"`
	ErrorMessage    *string  `json:"error_message,omitempty"`
	Notes           string   `json:"notes"`
}

// SnarkSummary is the abbreviated list-view of one submission.
type SnarkSummary struct {
	ID          uint64 `json:"id"`
	ProofSystem string `json:"proof_system"`
	Submitter   string `json:"submitter"`
	Submitted   string `json:"submitted"`
	Status      string `json:"status"`
	Notes       string `json:"notes"`
}

// SnarkList is the response for GET /api/v1/snarks.
type SnarkList struct {
	Snarks []SnarkSummary `json:"snarks"`
	Total  int            `json:"total"`
}
