package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/huangsam/archflow/internal/contract"
	"github.com/huangsam/archflow/schema"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestUploader(t *testing.T) {
	tests := []struct {
		name   string
		resp   schema.RawResponse
		err    error
		wantID string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "success",
			resp:   ok(`{"project_id": "p1", "message": "stored"}`),
			wantID: "p1",
		},
		{
			name: "non-2xx",
			resp: status(413, "too large"),
			check: func(t *testing.T, err error) {
				var uerr *schema.UploadError
				require.True(t, errors.As(err, &uerr))
				assert.Equal(t, 413, uerr.Status)
				assert.Equal(t, "Upload failed with status 413: too large", err.Error())
			},
		},
		{
			name: "invalid json",
			resp: ok("<html>"),
			check: func(t *testing.T, err error) {
				var merr *schema.MalformedResponseError
				require.True(t, errors.As(err, &merr))
				assert.Equal(t, schema.UploadStage, merr.Stage)
				assert.Equal(t, "Invalid upload response from server: body is not valid JSON", err.Error())
			},
		},
		{
			name: "missing project id",
			resp: ok(`{"message": "stored"}`),
			check: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "missing project_id")
			},
		},
		{
			name: "transport error",
			err:  errors.New("connection refused"),
			check: func(t *testing.T, err error) {
				assert.EqualError(t, err, "upload failed: connection refused")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := new(contract.MockServiceClient)
			client.On("Upload", mock.Anything, demoArchive()).Return(tt.resp, tt.err).Once()

			progress := StartProgress(time.Hour, schema.UploadTickStep, nil)
			id, err := NewUploader(client, zerolog.Nop()).Upload(context.Background(), demoArchive(), progress)

			assert.Equal(t, schema.ProgressDone, progress.Value(), "progress resolves with the call")
			if tt.check == nil {
				require.NoError(t, err)
				assert.Equal(t, tt.wantID, id)
			} else {
				require.Error(t, err)
				assert.Empty(t, id)
				tt.check(t, err)
			}
			client.AssertExpectations(t)
		})
	}
}
