package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"story-competition/assessment"
	"story-competition/models"
	"story-competition/repository"
)

var stories = []string{
	`Mira found a brass key under the loose step behind the bakery. "It must open something old," she whispered to her brother Tomas.
They searched the garden shed, the attic and the creaky wardrobe, but nothing fit. At sunset a storm rolled over the hills and thunder shook the windows.

When the power went out, Tomas lit a candle and noticed a tiny keyhole carved into the fireplace tiles. Mira turned the key slowly. A hidden drawer slid open, full of letters their grandmother had written as a girl.
In the end they read every letter aloud, laughing and crying, and finally understood why she had loved the sea so much.`,

	`The robot in the school library was called Pip, and Pip had never read a story with a happy ending. Every afternoon Jonah brought a new book and asked Pip to guess how it would finish.
Pip always guessed that the dragon would win. Jonah always shook his head and grinned.

One rainy Tuesday Jonah was sad because his best friend had moved away. Pip scanned the shelves for an hour and then printed a short tale of its own about two friends who wrote postcards across the ocean.
Jonah smiled for the first time that week. From that day on, Pip guessed that every story might end with friendship.`,

	`Grandpa Eli kept bees on the roof of our apartment building, right above the laundry room. The hives hummed like tiny engines whenever the morning sun warmed the tar.
I was terrified of them until the summer Grandpa hurt his knee and needed my help.

He taught me to move slowly, to breathe calmly and to listen for the angry buzz that meant stop. By August I could lift a frame of golden honey without a single sting.
When the neighbours tasted our first jar, Mrs Alvarez said it tasted like clover and city rain. Grandpa winked at me, and I felt as proud as a queen bee.`,

	`Nobody in Fernwick believed that the river could freeze in a single night, but on the morning of the winter fair it did. Children slid across the ice while the mayor worried about the boat race.
Lena had built a small wooden sailboat all autumn and now it sat useless on the bank.

Then her cousin Arjun had an idea. They bolted two old skis under the hull and raised the sail. The wind caught it with a snap and the boat raced across the frozen river faster than any rowing team.
The crowd cheered so loudly that the ducks flew away. Afterwards the mayor declared a brand new competition for ice sailing.`,

	`Every night at nine the lighthouse keeper sang to the fog. Sailors said the song kept their ships safe, although nobody knew the words.
Ana, the keeper's granddaughter, wanted to learn it, but he only hummed and told her to wait.

The winter he grew ill, a fishing boat was lost in a thick grey cloud just beyond the rocks. Ana climbed the spiral stairs, opened the window and sang the only tune she had ever heard him hum.
Slowly the fog thinned and a lantern appeared, bobbing safely toward the harbour. Her grandfather listened from his bed and smiled, because now the song belonged to her.`,
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock(t time.Time) *clock { return &clock{t: t} }

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []models.Event
	err    error
}

func (n *recordingNotifier) Notify(_ context.Context, e models.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
	return n.err
}

func (n *recordingNotifier) ofType(typ string) []models.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []models.Event
	for _, e := range n.events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

type countingArchive struct {
	mu       sync.Mutex
	byReason map[string]int
}

func (a *countingArchive) ArchiveAssessment(_ context.Context, _ *models.AssessmentResult, reason string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.byReason == nil {
		a.byReason = map[string]int{}
	}
	a.byReason[reason]++
	return nil
}

func (a *countingArchive) count(reason string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.byReason[reason]
}

type failingReader struct{}

func (failingReader) ReadDocument(context.Context, string) (string, error) {
	return "", errors.New("bucket unavailable")
}

type fixture struct {
	repo    *repository.Memory
	clock   *clock
	notes   *recordingNotifier
	archive *countingArchive
	comps   *CompetitionService
	entries *EntryService
	judging *JudgingService
	ranking *RankingService
	quota   *QuotaGuard
	policy  SchedulePolicy
}

// October 2026: judging opens on the 26th, results on 1 November, archive 15 November.
var (
	octThird    = time.Date(2026, 10, 3, 9, 0, 0, 0, time.UTC)
	judgingOpen = time.Date(2026, 10, 26, 0, 0, 0, 0, time.UTC)
	resultsOpen = time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	archiveOpen = time.Date(2026, 11, 15, 0, 0, 0, 0, time.UTC)
)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	engine, err := assessment.NewEngine()
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	f := &fixture{
		repo:    repository.NewMemory(),
		clock:   newClock(octThird),
		notes:   &recordingNotifier{},
		archive: &countingArchive{},
		policy:  DefaultSchedulePolicy(),
	}
	f.judging = NewJudgingService(f.repo, engine, failingReader{}, f.archive, 4, nil)
	f.judging.Now = f.clock.Now
	f.ranking = NewRankingService(f.repo, nil, f.notes, nil)
	f.ranking.Now = f.clock.Now
	f.comps = NewCompetitionService(f.repo, f.policy, f.judging, f.ranking, f.notes, nil)
	f.comps.Now = f.clock.Now
	f.quota = NewQuotaGuard(f.repo, DefaultQuotaCap)
	f.entries = NewEntryService(f.repo, f.quota, f.comps, f.notes, nil)
	f.entries.Now = f.clock.Now
	return f
}

func (f *fixture) current(t *testing.T) *models.Competition {
	t.Helper()
	c, err := f.comps.Current(context.Background())
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	return c
}

// publish stores a published submission owned by user with the i-th story.
func (f *fixture) publish(t *testing.T, id, user string, i int) *models.Submission {
	t.Helper()
	sub := &models.Submission{
		ID:         id,
		UserID:     user,
		UserName:   "writer " + user,
		Title:      fmt.Sprintf("Story %d", i),
		Content:    stories[i%len(stories)],
		AgeBracket: "middle",
		Genre:      "Adventure",
		Published:  true,
	}
	if err := f.repo.UpsertSubmission(context.Background(), sub); err != nil {
		t.Fatalf("UpsertSubmission: %v", err)
	}
	return sub
}

func (f *fixture) submit(t *testing.T, compID, user, subID string) *models.Entry {
	t.Helper()
	e, err := f.entries.Submit(context.Background(), compID, user, subID)
	if err != nil {
		t.Fatalf("Submit %s: %v", subID, err)
	}
	return e
}
