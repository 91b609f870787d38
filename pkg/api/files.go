package api

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"

	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/internal/metrics"
	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/pkg/common"
)

// UploadResponse is the body of POST /api/files/upload.
type UploadResponse struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// UploadFile streams file as the multipart field "file". contentType is sent
// as the part's Content-Type; an empty value falls back to
// application/octet-stream.
func (c *Client) UploadFile(ctx context.Context, fileName string, contentType string, file io.Reader) (res UploadResponse, err error) {
	const op = "upload_file"
	done := metrics.TimeAPICall(op)
	defer func() { done(err == nil) }()

	if contentType == "" {
		contentType = "application/octet-stream"
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, fileName))
		header.Set("Content-Type", contentType)

		part, err := mw.CreatePart(header)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, file); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/api/files/upload", nil), pr)
	if err != nil {
		pr.Close()
		return res, fmt.Errorf("%s: failed to create request: %w", op, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	if err := c.do(op, req, &res); err != nil {
		pr.CloseWithError(err)
		return res, err
	}
	if res.JobID == "" {
		return res, fmt.Errorf("%s: backend response is missing job_id", op)
	}
	return res, nil
}

// GetProcessingStatus returns the status of a processing job.
func (c *Client) GetProcessingStatus(ctx context.Context, jobID string) (common.JobStatus, error) {
	var status common.JobStatus
	err := c.doJSON(ctx, "get_processing_status", http.MethodGet, "/api/files/status/"+url.PathEscape(jobID), nil, nil, &status)
	return status, err
}

// GetJobEntities returns the entities a completed job extracted. For a job
// that has not completed yet the backend answers with an empty list.
func (c *Client) GetJobEntities(ctx context.Context, jobID string) ([]common.Entity, error) {
	var body struct {
		Status   string          `json:"status"`
		Entities []common.Entity `json:"entities"`
	}
	err := c.doJSON(ctx, "get_job_entities", http.MethodGet, "/api/files/entities/"+url.PathEscape(jobID), nil, nil, &body)
	if err != nil {
		return nil, err
	}
	return body.Entities, nil
}
