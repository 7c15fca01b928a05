package worker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gyeh/denial-dash/internal/cloud"
	"github.com/gyeh/denial-dash/internal/export"
	"github.com/gyeh/denial-dash/internal/filter"
	"github.com/gyeh/denial-dash/internal/progress"
)

// Publisher uploads finished artifacts. *cloud.S3Client satisfies it.
type Publisher interface {
	Bucket() string
	UploadBytes(ctx context.Context, key string, data []byte, contentType string) error
}

// Destination says where finished artifacts go. Either field may be empty.
type Destination struct {
	OutDir    string
	Publisher Publisher
	Prefix    string
	RunAt     time.Time
}

// JobResult holds the outcome of one export job.
type JobResult struct {
	Format   export.Format
	Artifact *export.Artifact
	Path     string // local file, when OutDir is set
	URI      string // s3 URI, when a Publisher is set
	Err      error
}

// RunJob renders view in one format, then writes and publishes it:
// render → write → upload.
func RunJob(
	ctx context.Context,
	view filter.View,
	req export.Request,
	dest Destination,
	tracker progress.Tracker,
) *JobResult {
	result := &JobResult{Format: req.Format}
	const steps = 3

	fail := func(err error) *JobResult {
		result.Err = err
		tracker.Fail(err)
		return result
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	tracker.SetStage("Rendering")
	art, err := export.Render(view, req)
	if err != nil {
		return fail(err)
	}
	result.Artifact = art
	tracker.SetProgress(1, steps)

	if dest.OutDir != "" {
		tracker.SetStage("Writing " + progress.HumanBytes(int64(len(art.Data))))
		path := filepath.Join(dest.OutDir, art.FileName)
		if err := os.WriteFile(path, art.Data, 0o644); err != nil {
			return fail(fmt.Errorf("writing %s: %w", path, err))
		}
		result.Path = path
	}
	tracker.SetProgress(2, steps)

	if dest.Publisher != nil {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}
		tracker.SetStage("Uploading")
		key := cloud.ExportKey(dest.Prefix, dest.RunAt, art.FileName)
		if err := dest.Publisher.UploadBytes(ctx, key, art.Data, art.MIMEType); err != nil {
			return fail(err)
		}
		result.URI = cloud.URI(dest.Publisher.Bucket(), key)
	}
	tracker.SetProgress(steps, steps)

	tracker.Done()
	return result
}
