// Package share posts export artifacts to Slack.
package share

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/slack-go/slack"

	"github.com/gyeh/denial-dash/internal/export"
	"github.com/gyeh/denial-dash/internal/filter"
	"github.com/gyeh/denial-dash/internal/kpi"
)

// ErrEmptyArtifact is returned for artifacts with no data.
var ErrEmptyArtifact = errors.New("artifact is empty")

// Uploader is the part of the Slack client Share needs.
type Uploader interface {
	UploadFileV2Context(ctx context.Context, params slack.UploadFileV2Parameters) (*slack.FileSummary, error)
}

// Slack uploads artifacts to channels.
type Slack struct {
	api Uploader
}

// NewSlack creates a Slack sharer authenticated with a bot token.
func NewSlack(token string, opts ...slack.Option) *Slack {
	return &Slack{api: slack.New(token, opts...)}
}

// NewSlackWithUploader wraps an existing client.
func NewSlackWithUploader(api Uploader) *Slack {
	return &Slack{api: api}
}

// Share uploads art to channel with a headline-KPI comment and returns the
// Slack file ID.
func (s *Slack) Share(ctx context.Context, channel, title string, art *export.Artifact, comment string) (string, error) {
	if channel == "" {
		return "", errors.New("slack channel is required")
	}
	if art == nil || len(art.Data) == 0 {
		return "", ErrEmptyArtifact
	}
	if title == "" {
		title = art.FileName
	}

	file, err := s.api.UploadFileV2Context(ctx, slack.UploadFileV2Parameters{
		Reader:         bytes.NewReader(art.Data),
		FileSize:       len(art.Data),
		Filename:       art.FileName,
		Channel:        channel,
		Title:          title,
		InitialComment: comment,
	})
	if err != nil {
		return "", fmt.Errorf("uploading %s to slack: %w", art.FileName, err)
	}
	log.Printf("slack upload channel=%s file=%s id=%s bytes=%d", channel, art.FileName, file.ID, len(art.Data))
	return file.ID, nil
}

// Comment renders the headline KPIs posted alongside an upload.
func Comment(s kpi.Summary, c filter.Criteria) string {
	payer := c.Payer
	if payer == "" {
		payer = filter.All
	}
	types := strings.Join(c.DenialTypes, ", ")
	if types == "" {
		types = "(none)"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Denial snapshot: %s, payer %s, types %s\n", c.DateRange, payer, types)
	fmt.Fprintf(&b, "Total denial amount: %s\n", kpi.Dollars(s.TotalAmount))
	fmt.Fprintf(&b, "Last month (%s): %s (%s vs prior)\n", s.LastMonth, kpi.Dollars(s.LastMonthAmount), kpi.SignedPct(s.VsPriorPct))
	fmt.Fprintf(&b, "Clean claim rate: %.1f%%", s.CleanClaimRate*100)
	for _, line := range kpi.Insights(s)[:2] {
		b.WriteString("\n- " + line)
	}
	return b.String()
}
