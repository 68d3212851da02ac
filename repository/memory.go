package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"story-competition/models"
)

// Memory is an in-process Repository for tests and local runs. Each
// competition has its own lock, taken by WithCompetitionLock and CreateEntry.
type Memory struct {
	mu sync.RWMutex

	competitions map[string]models.Competition
	byPeriod     map[string]string
	entries      map[string]models.Entry
	quota        map[string]int
	winners      map[string][]models.Winner
	submissions  map[string]models.Submission
	assessments  map[string]models.AssessmentResult

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

func NewMemory() *Memory {
	return &Memory{
		competitions: make(map[string]models.Competition),
		byPeriod:     make(map[string]string),
		entries:      make(map[string]models.Entry),
		quota:        make(map[string]int),
		winners:      make(map[string][]models.Winner),
		submissions:  make(map[string]models.Submission),
		assessments:  make(map[string]models.AssessmentResult),
		locks:        make(map[string]*sync.Mutex),
	}
}

func quotaKey(userID, periodKey string) string { return userID + "|" + periodKey }

func (m *Memory) competitionLock(id string) *sync.Mutex {
	m.locksMu.Lock()
	defer m.locksMu.Unlock()
	l, ok := m.locks[id]
	if !ok {
		l = &sync.Mutex{}
		m.locks[id] = l
	}
	return l
}

func (m *Memory) CreateCompetitionIfAbsent(_ context.Context, c *models.Competition) (*models.Competition, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.byPeriod[c.PeriodKey]; ok {
		stored := m.competitionCopy(id)
		return &stored, false, nil
	}
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now
	stored := *c
	stored.Entries, stored.Winners = nil, nil
	m.competitions[c.ID] = stored
	m.byPeriod[c.PeriodKey] = c.ID
	out := m.competitionCopy(c.ID)
	return &out, true, nil
}

// competitionCopy must be called with mu held.
func (m *Memory) competitionCopy(id string) models.Competition {
	c := m.competitions[id]
	c.CriteriaWeights = cloneWeights(c.CriteriaWeights)
	c.Winners = append([]models.Winner(nil), m.winners[id]...)
	return c
}

func (m *Memory) GetCompetition(_ context.Context, id string) (*models.Competition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.competitions[id]; !ok {
		return nil, fmt.Errorf("%w: competition %s", models.ErrNotFound, id)
	}
	c := m.competitionCopy(id)
	return &c, nil
}

func (m *Memory) GetCompetitionByPeriod(ctx context.Context, periodKey string) (*models.Competition, error) {
	m.mu.RLock()
	id, ok := m.byPeriod[periodKey]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: competition for period %s", models.ErrNotFound, periodKey)
	}
	return m.GetCompetition(ctx, id)
}

func (m *Memory) ListOpenCompetitions(_ context.Context) ([]models.Competition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Competition
	for id, c := range m.competitions {
		if c.Phase != models.PhaseArchived {
			out = append(out, m.competitionCopy(id))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmissionStart.Before(out[j].SubmissionStart) })
	return out, nil
}

func (m *Memory) WithCompetitionLock(ctx context.Context, id string, fn func(tx Repository, c *models.Competition) error) error {
	l := m.competitionLock(id)
	l.Lock()
	defer l.Unlock()
	c, err := m.GetCompetition(ctx, id)
	if err != nil {
		return err
	}
	return fn(&lockedMemory{Memory: m, held: id}, c)
}

func (m *Memory) UpdatePhase(_ context.Context, id string, from, to models.Phase, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.competitions[id]
	if !ok {
		return fmt.Errorf("%w: competition %s", models.ErrNotFound, id)
	}
	if c.Phase != from {
		return fmt.Errorf("%w: competition %s is not in phase %s", models.ErrPhaseViolation, id, from)
	}
	c.Phase = to
	changed := at
	c.PhaseChangedAt = &changed
	c.UpdatedAt = at
	m.competitions[id] = c
	return nil
}

func (m *Memory) QuotaCount(_ context.Context, userID, periodKey string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.quota[quotaKey(userID, periodKey)], nil
}

func (m *Memory) CreateEntry(_ context.Context, entry *models.Entry, periodKey string, limit int) error {
	l := m.competitionLock(entry.CompetitionID)
	l.Lock()
	defer l.Unlock()
	return m.createEntry(entry, periodKey, limit)
}

func (m *Memory) createEntry(entry *models.Entry, periodKey string, limit int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.competitions[entry.CompetitionID]
	if !ok {
		return fmt.Errorf("%w: competition %s", models.ErrNotFound, entry.CompetitionID)
	}
	if c.Phase != models.PhaseSubmission {
		return fmt.Errorf("%w: competition is in phase %s", models.ErrPhaseViolation, c.Phase)
	}
	for _, e := range m.entries {
		if e.CompetitionID == entry.CompetitionID && e.SubmissionID == entry.SubmissionID {
			return models.ErrDuplicateSubmission
		}
	}
	key := quotaKey(entry.UserID, periodKey)
	if m.quota[key] >= limit {
		return models.ErrQuotaExceeded
	}
	m.quota[key]++
	entry.UpdatedAt = entry.SubmittedAt
	m.entries[entry.ID] = *entry
	return nil
}

func (m *Memory) EntryExists(_ context.Context, competitionID, submissionID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.entries {
		if e.CompetitionID == competitionID && e.SubmissionID == submissionID {
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) ListEntries(_ context.Context, competitionID string) ([]models.Entry, error) {
	return m.filterEntries(func(e models.Entry) bool { return e.CompetitionID == competitionID }), nil
}

func (m *Memory) ListUserEntries(_ context.Context, competitionID, userID string) ([]models.Entry, error) {
	return m.filterEntries(func(e models.Entry) bool {
		return e.CompetitionID == competitionID && e.UserID == userID
	}), nil
}

func (m *Memory) filterEntries(keep func(models.Entry) bool) []models.Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Entry
	for _, e := range m.entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].SubmittedAt.Before(out[j].SubmittedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (m *Memory) SaveEntryScore(_ context.Context, entry *models.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[entry.ID]
	if !ok {
		return fmt.Errorf("%w: entry %s", models.ErrNotFound, entry.ID)
	}
	e.Score = copyFloat(entry.Score)
	e.Excluded = entry.Excluded
	e.NeedsManualAssessment = entry.NeedsManualAssessment
	e.ScoredAt = entry.ScoredAt
	m.entries[entry.ID] = e
	return nil
}

func (m *Memory) SaveRankings(_ context.Context, competitionID string, entries []models.Entry, winners []models.Winner, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.competitions[competitionID]
	if !ok {
		return fmt.Errorf("%w: competition %s", models.ErrNotFound, competitionID)
	}
	for _, in := range entries {
		e, ok := m.entries[in.ID]
		if !ok || e.CompetitionID != competitionID {
			continue
		}
		e.Score = copyFloat(in.Score)
		e.Excluded = in.Excluded
		e.FinalScore = copyFloat(in.FinalScore)
		if in.Rank != nil {
			r := *in.Rank
			e.Rank = &r
		} else {
			e.Rank = nil
		}
		m.entries[in.ID] = e
	}
	m.winners[competitionID] = append([]models.Winner(nil), winners...)
	finalized := at
	c.FinalizedAt = &finalized
	m.competitions[competitionID] = c
	return nil
}

func (m *Memory) ListWinners(_ context.Context, competitionID string) ([]models.Winner, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.Winner(nil), m.winners[competitionID]...), nil
}

func (m *Memory) GetSubmission(_ context.Context, id string) (*models.Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.submissions[id]
	if !ok {
		return nil, fmt.Errorf("%w: submission %s", models.ErrNotFound, id)
	}
	return &s, nil
}

func (m *Memory) ListPublishedSubmissions(_ context.Context, userID string) ([]models.Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Submission
	for _, s := range m.submissions {
		if s.UserID == userID && s.Published {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) UpsertSubmission(_ context.Context, s *models.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.submissions[s.ID]; ok {
		s.Status, s.NeedsReview, s.ReviewStatus = prev.Status, prev.NeedsReview, prev.ReviewStatus
		s.CreatedAt = prev.CreatedAt
	} else if s.Status == "" {
		s.Status = models.SubmissionStatusPending
	}
	m.submissions[s.ID] = *s
	return nil
}

func (m *Memory) UpdateSubmissionReview(_ context.Context, s *models.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev, ok := m.submissions[s.ID]
	if !ok {
		return fmt.Errorf("%w: submission %s", models.ErrNotFound, s.ID)
	}
	prev.Status, prev.NeedsReview, prev.ReviewStatus = s.Status, s.NeedsReview, s.ReviewStatus
	m.submissions[s.ID] = prev
	return nil
}

func (m *Memory) LatestSubmissionSync(_ context.Context) (time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest time.Time
	for _, s := range m.submissions {
		if s.SourceUpdatedAt.After(latest) {
			latest = s.SourceUpdatedAt
		}
	}
	return latest, nil
}

func (m *Memory) SaveAssessment(_ context.Context, a *models.AssessmentResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assessments[a.SubmissionID] = *a
	return nil
}

func (m *Memory) GetAssessment(_ context.Context, submissionID string) (*models.AssessmentResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.assessments[submissionID]
	if !ok {
		return nil, fmt.Errorf("%w: assessment for submission %s", models.ErrNotFound, submissionID)
	}
	return &a, nil
}

// lockedMemory is the view handed to WithCompetitionLock callbacks; it does
// not re-acquire the lock it already holds.
type lockedMemory struct {
	*Memory
	held string
}

func (l *lockedMemory) WithCompetitionLock(ctx context.Context, id string, fn func(tx Repository, c *models.Competition) error) error {
	if id != l.held {
		return l.Memory.WithCompetitionLock(ctx, id, fn)
	}
	c, err := l.GetCompetition(ctx, id)
	if err != nil {
		return err
	}
	return fn(l, c)
}

func (l *lockedMemory) CreateEntry(ctx context.Context, entry *models.Entry, periodKey string, limit int) error {
	if entry.CompetitionID != l.held {
		return l.Memory.CreateEntry(ctx, entry, periodKey, limit)
	}
	return l.createEntry(entry, periodKey, limit)
}

func cloneWeights(w map[string]float64) map[string]float64 {
	if w == nil {
		return nil
	}
	out := make(map[string]float64, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

var (
	_ Repository = (*Postgres)(nil)
	_ Repository = (*Memory)(nil)
	_ Repository = (*lockedMemory)(nil)
)
