package api

import (
	"fmt"
	"strings"
)

const (
	maxBodyLength = 2097152
	maxDocuments  = 10000
)

// ValidationError holds per-field validation failure messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	var parts []string
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s:%s", field, msg))
	}
	return strings.Join(parts, "; ")
}

// ValidateAnalyzeRequest checks an analyze request before it reaches the
// engine. The body may legitimately be empty markup-wise but not absent.
func ValidateAnalyzeRequest(req *AnalyzeRequest) error {
	errs := make(map[string]string)
	if req.DocumentID <= 0 {
		errs["document_id"] = "document_id must be a positive integer"
	}
	if strings.TrimSpace(req.Body) == "" {
		errs["body"] = "body is required"
	} else if len(req.Body) > maxBodyLength {
		errs["body"] = fmt.Sprintf("body must be at most %d bytes", maxBodyLength)
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

// ValidateMeshRequest checks a mesh build request.
func ValidateMeshRequest(req *MeshRequest) error {
	errs := make(map[string]string)
	if len(req.Documents) == 0 {
		errs["documents"] = "at least one document is required"
	} else if len(req.Documents) > maxDocuments {
		errs["documents"] = fmt.Sprintf("at most %d documents per request", maxDocuments)
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

// ValidateSanitizeRequest checks a sanitize request.
func ValidateSanitizeRequest(req *SanitizeRequest) error {
	errs := make(map[string]string)
	if req.HTML == "" {
		errs["html"] = "html is required"
	} else if len(req.HTML) > maxBodyLength {
		errs["html"] = fmt.Sprintf("html must be at most %d bytes", maxBodyLength)
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

// ValidateRegenerateRequest checks a regenerate request.
func ValidateRegenerateRequest(req *RegenerateRequest) error {
	errs := make(map[string]string)
	if req.DocumentID <= 0 {
		errs["document_id"] = "document_id must be a positive integer"
	}
	if strings.TrimSpace(req.Site) == "" {
		errs["site"] = "site is required"
	}
	if strings.TrimSpace(req.Prompt) == "" {
		errs["prompt"] = "prompt is required"
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
