// workers/submission_sync_worker.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"story-competition/models"
	"story-competition/repository"
)

// RemoteSubmission matches the JSON the publishing service returns.
type RemoteSubmission struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	UserName        string    `json:"user_name"`
	Title           string    `json:"title"`
	Content         string    `json:"content"`
	DocumentKey     string    `json:"document_key"`
	AgeGroup        string    `json:"age_group"`
	Genre           string    `json:"genre"`
	IsCollaborative bool      `json:"is_collaborative"`
	Published       bool      `json:"published"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// GetSubmissionChangesResponse is the top-level structure of the response.
type GetSubmissionChangesResponse struct {
	Submissions []RemoteSubmission `json:"submissions"`
}

// SubmissionSyncWorker mirrors submissions from the publishing service into
// the local projection.
type SubmissionSyncWorker struct {
	repo         repository.Repository
	interval     time.Duration
	baseURL      string
	endpointPath string
	serviceToken string
	httpClient   *http.Client
	log          *zap.Logger
}

func NewSubmissionSyncWorker(repo repository.Repository, baseURL, serviceToken string, interval time.Duration, log *zap.Logger) *SubmissionSyncWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &SubmissionSyncWorker{
		repo:         repo,
		interval:     interval,
		baseURL:      baseURL,
		endpointPath: "/api/v1/public/submissions",
		serviceToken: serviceToken,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		log:          log,
	}
}

func (w *SubmissionSyncWorker) Start(ctx context.Context) {
	w.log.Info("starting submission sync worker", zap.String("base_url", w.baseURL), zap.Duration("interval", w.interval))
	go w.run(ctx)
}

func (w *SubmissionSyncWorker) run(ctx context.Context) {
	if _, err := w.SyncOnce(ctx); err != nil {
		w.log.Warn("initial submission sync failed", zap.Error(err))
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if _, err := w.SyncOnce(ctx); err != nil {
				w.log.Error("submission sync batch failed", zap.Error(err))
			}
		case <-ctx.Done():
			w.log.Info("submission sync worker stopped")
			return
		}
	}
}

// SyncOnce pulls every change since the newest mirrored submission and
// upserts it. It returns the number of submissions stored.
func (w *SubmissionSyncWorker) SyncOnce(ctx context.Context) (int, error) {
	since, err := w.repo.LatestSubmissionSync(ctx)
	if err != nil {
		return 0, fmt.Errorf("read last sync time: %w", err)
	}
	remote, err := w.fetch(ctx, since)
	if err != nil {
		return 0, err
	}
	if len(remote) == 0 {
		return 0, nil
	}

	stored, failed := 0, 0
	for _, r := range remote {
		if strings.TrimSpace(r.ID) == "" || strings.TrimSpace(r.UserID) == "" {
			failed++
			w.log.Warn("skipping submission without id or owner", zap.String("submission_id", r.ID))
			continue
		}
		sub := &models.Submission{
			ID:              r.ID,
			UserID:          r.UserID,
			UserName:        r.UserName,
			Title:           r.Title,
			Content:         r.Content,
			DocumentKey:     r.DocumentKey,
			AgeBracket:      r.AgeGroup,
			Genre:           r.Genre,
			IsCollaborative: r.IsCollaborative,
			Published:       r.Published,
			SourceUpdatedAt: r.UpdatedAt.UTC(),
		}
		if err := w.repo.UpsertSubmission(ctx, sub); err != nil {
			failed++
			w.log.Warn("failed to upsert submission", zap.String("submission_id", r.ID), zap.Error(err))
			continue
		}
		stored++
	}
	w.log.Info("submissions synced",
		zap.Int("received", len(remote)),
		zap.Int("stored", stored),
		zap.Int("failed", failed))
	return stored, nil
}

func (w *SubmissionSyncWorker) fetch(ctx context.Context, since time.Time) ([]RemoteSubmission, error) {
	base, err := url.Parse(w.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid publishing service URL '%s': %w", w.baseURL, err)
	}
	endpointURL := base.JoinPath(w.endpointPath)
	q := endpointURL.Query()
	q.Set("since", since.UTC().Format(time.RFC3339Nano))
	endpointURL.RawQuery = q.Encode()
	finalURL := endpointURL.String()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, finalURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request to %s: %w", finalURL, err)
	}
	req.Header.Set("X-Service-Token", w.serviceToken)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request to publishing service failed: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("publishing service returned %d: %s", resp.StatusCode, string(body))
	}

	var response GetSubmissionChangesResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode publishing service response: %w", err)
	}
	return response.Submissions, nil
}
