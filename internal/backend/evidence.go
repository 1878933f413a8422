package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

type EvidenceType string

const (
	EvidenceFile EvidenceType = "FILE"
	EvidenceLink EvidenceType = "LINK"
	EvidenceText EvidenceType = "TEXT"
)

// EvidenceUpload is the multipart form accepted by the evidence endpoint.
// URL is sent for LINK evidence, File for FILE evidence.
type EvidenceUpload struct {
	Title       string
	Description string
	Type        EvidenceType
	Category    string
	ProjectID   string
	UploadedBy  string
	URL         string
	FileName    string
	File        io.Reader
}

var (
	ErrEvidenceURLRequired  = errors.New("link evidence requires a url")
	ErrEvidenceFileRequired = errors.New("file evidence requires a file")
)

func (u EvidenceUpload) validate() error {
	switch u.Type {
	case EvidenceLink:
		if u.URL == "" {
			return ErrEvidenceURLRequired
		}
	case EvidenceFile:
		if u.File == nil {
			return ErrEvidenceFileRequired
		}
	case EvidenceText:
	default:
		return fmt.Errorf("unknown evidence type %q", u.Type)
	}
	return nil
}

func (u EvidenceUpload) encode() (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fields := []struct{ name, value string }{
		{"title", u.Title},
		{"description", u.Description},
		{"type", string(u.Type)},
		{"category", u.Category},
		{"projectId", u.ProjectID},
		{"uploadedBy", u.UploadedBy},
	}
	if u.Type == EvidenceLink {
		fields = append(fields, struct{ name, value string }{"url", u.URL})
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		if err := mw.WriteField(f.name, f.value); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", f.name, err)
		}
	}
	if u.Type == EvidenceFile {
		name := u.FileName
		if name == "" {
			name = "evidence.bin"
		}
		part, err := mw.CreateFormFile("file", name)
		if err != nil {
			return nil, "", fmt.Errorf("create file part: %w", err)
		}
		if _, err := io.Copy(part, u.File); err != nil {
			return nil, "", fmt.Errorf("copy file part: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}

// CreateEvidence uploads evidence as multipart/form-data.
func (c *Client) CreateEvidence(ctx context.Context, upload EvidenceUpload) (Result, error) {
	if err := upload.validate(); err != nil {
		return Result{}, err
	}
	body, contentType, err := upload.encode()
	if err != nil {
		return Result{}, err
	}
	req, err := c.newRequest(ctx, http.MethodPost, collectionPath(Evidence), body, contentType)
	if err != nil {
		return Result{}, err
	}
	resp, err := c.send(req)
	if err != nil {
		return Result{}, err
	}
	status := resp.StatusCode
	raw, err := readResponse(resp, http.StatusOK, http.StatusCreated)
	if err != nil {
		return Result{}, err
	}
	return Result{StatusCode: status, Body: raw}, nil
}
