package core

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/huangsam/archflow/internal/contract"
	"github.com/huangsam/archflow/schema"
	"github.com/rs/zerolog"
)

// Uploader ships an accepted archive to the ingest service.
type Uploader struct {
	client contract.ServiceClient
	log    zerolog.Logger
}

// NewUploader creates an uploader for the given service client.
func NewUploader(client contract.ServiceClient, log zerolog.Logger) *Uploader {
	return &Uploader{client: client, log: log}
}

// Upload sends the archive once and returns the issued project id.
// The caller owns progress; Upload completes it as soon as the call resolves.
// There is no retry at this layer.
func (u *Uploader) Upload(ctx context.Context, archive schema.Archive, progress *Progress) (string, error) {
	u.log.Info().Str("archive", archive.Name).Int64("bytes", archive.Size).Msg("starting upload")

	resp, err := u.client.Upload(ctx, archive)
	progress.Complete()
	if err != nil {
		return "", fmt.Errorf("upload failed: %w", err)
	}

	u.log.Debug().Int("status", resp.Status).Msg("upload response")
	if !resp.OK() {
		return "", &schema.UploadError{Status: resp.Status, Body: string(resp.Body)}
	}

	var payload schema.UploadResponse
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		return "", &schema.MalformedResponseError{Stage: schema.UploadStage, Detail: "body is not valid JSON"}
	}
	if payload.ProjectID == "" {
		return "", &schema.MalformedResponseError{Stage: schema.UploadStage, Detail: "missing project_id"}
	}

	u.log.Info().Str("project_id", payload.ProjectID).Msg("upload completed")
	return payload.ProjectID, nil
}
