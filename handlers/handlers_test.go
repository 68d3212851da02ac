package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"story-competition/assessment"
	"story-competition/models"
	"story-competition/repository"
	"story-competition/services"
)

const story = `Mira found a brass key under the loose step behind the bakery. "It must open something old," she whispered to her brother Tomas.
They searched the garden shed and the creaky wardrobe, but nothing fit. At sunset a storm rolled over the hills.

When the power went out, Tomas noticed a tiny keyhole carved into the fireplace tiles. A hidden drawer slid open, full of letters.
In the end they read every letter aloud and finally understood why their grandmother loved the sea.`

type testServer struct {
	app   *fiber.App
	repo  *repository.Memory
	comps *services.CompetitionService
	now   time.Time
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	engine, err := assessment.NewEngine()
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	s := &testServer{repo: repository.NewMemory(), now: time.Date(2026, 10, 3, 9, 0, 0, 0, time.UTC)}
	clock := func() time.Time { return s.now }

	judging := services.NewJudgingService(s.repo, engine, nil, nil, 2, nil)
	judging.Now = clock
	ranking := services.NewRankingService(s.repo, nil, nil, nil)
	ranking.Now = clock
	s.comps = services.NewCompetitionService(s.repo, services.DefaultSchedulePolicy(), judging, ranking, nil, nil)
	s.comps.Now = clock
	entries := services.NewEntryService(s.repo, services.NewQuotaGuard(s.repo, 3), s.comps, nil, nil)
	entries.Now = clock

	s.app = fiber.New()
	s.app.Get("/health", func(c *fiber.Ctx) error { return c.SendString("ok") })
	SetupCompetitionRoutes(s.app, s.comps, entries, ranking)
	SetupAssessmentRoutes(s.app, engine)
	SetupAdminRoutes(s.app, s.comps, ranking, judging, nil)
	return s
}

func (s *testServer) do(t *testing.T, method, path, user, roles string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	if roles != "" {
		req.Header.Set("X-User-Roles", roles)
	}
	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	out := map[string]any{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func (s *testServer) publish(t *testing.T, id, user string) {
	t.Helper()
	err := s.repo.UpsertSubmission(context.Background(), &models.Submission{
		ID: id, UserID: user, Title: id, Content: story, Published: true, AgeBracket: "middle",
	})
	if err != nil {
		t.Fatalf("UpsertSubmission: %v", err)
	}
}

func TestEntryFlowOverHTTP(t *testing.T) {
	s := newTestServer(t)

	code, comp := s.do(t, "GET", "/competitions/current", "u1", "", nil)
	if code != http.StatusOK || comp["phase"] != "submission" {
		t.Fatalf("expected current competition in submission, got %d %v", code, comp)
	}
	id := comp["id"].(string)

	for i := 0; i < 4; i++ {
		s.publish(t, fmt.Sprintf("s%d", i), "u1")
	}
	for i := 0; i < 3; i++ {
		code, body := s.do(t, "POST", "/competitions/"+id+"/entries", "u1", "", map[string]string{"submission_id": fmt.Sprintf("s%d", i)})
		if code != http.StatusCreated {
			t.Fatalf("expected 201, got %d %v", code, body)
		}
	}

	cases := []struct {
		name string
		sub  string
		user string
		want int
	}{
		{"quota", "s3", "u1", http.StatusTooManyRequests},
		{"missing body", "", "u1", http.StatusBadRequest},
		{"not owner", "s3", "u2", http.StatusBadRequest},
	}
	for _, tc := range cases {
		code, body := s.do(t, "POST", "/competitions/"+id+"/entries", tc.user, "", map[string]string{"submission_id": tc.sub})
		if code != tc.want {
			t.Fatalf("%s: expected %d, got %d %v", tc.name, tc.want, code, body)
		}
	}

	code, quota := s.do(t, "GET", "/competitions/"+id+"/quota", "u1", "", nil)
	if code != http.StatusOK || quota["allowed"] != false || quota["used"] != float64(3) {
		t.Fatalf("expected exhausted quota, got %d %v", code, quota)
	}

	code, eligible := s.do(t, "GET", "/users/me/eligible-submissions", "u1", "", nil)
	if code != http.StatusOK || len(eligible["submissions"].([]any)) != 1 {
		t.Fatalf("expected one eligible submission, got %d %v", code, eligible)
	}
}

func TestRoutesRequireUserContext(t *testing.T) {
	s := newTestServer(t)
	if code, _ := s.do(t, "GET", "/competitions/current", "", "", nil); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without user, got %d", code)
	}
	req := httptest.NewRequest("GET", "/health", nil)
	resp, _ := s.app.Test(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected health without user context, got %d", resp.StatusCode)
	}
}

func TestAdminLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	_, comp := s.do(t, "GET", "/competitions/current", "u1", "", nil)
	id := comp["id"].(string)
	s.publish(t, "s1", "u1")
	s.do(t, "POST", "/competitions/"+id+"/entries", "u1", "", map[string]string{"submission_id": "s1"})

	if code, _ := s.do(t, "POST", "/admin/competitions/"+id+"/advance", "u1", "writer", nil); code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", code)
	}
	if code, _ := s.do(t, "GET", "/competitions/"+id+"/results", "u1", "", nil); code != http.StatusConflict {
		t.Fatalf("expected 409 before results, got %d", code)
	}
	if code, _ := s.do(t, "POST", "/admin/competitions/"+id+"/finalize", "a1", "admin", nil); code != http.StatusConflict {
		t.Fatalf("expected 409 finalizing in submission, got %d", code)
	}

	s.now = time.Date(2026, 10, 26, 1, 0, 0, 0, time.UTC)
	code, body := s.do(t, "POST", "/admin/competitions/"+id+"/advance", "a1", "admin", nil)
	if code != http.StatusOK || body["phase"] != "judging" {
		t.Fatalf("expected judging, got %d %v", code, body)
	}

	code, res := s.do(t, "POST", "/admin/competitions/"+id+"/finalize", "a1", "admin", nil)
	if code != http.StatusOK {
		t.Fatalf("expected finalize to succeed, got %d %v", code, res)
	}
	code, res = s.do(t, "GET", "/competitions/"+id+"/results", "u1", "", nil)
	if code != http.StatusOK || res["total_submissions"] != float64(1) {
		t.Fatalf("expected results, got %d %v", code, res)
	}

	code, re := s.do(t, "POST", "/admin/submissions/s1/reassess", "a1", "admin", nil)
	if code != http.StatusOK || re["submission_id"] != "s1" {
		t.Fatalf("expected reassessment, got %d %v", code, re)
	}
	if code, _ := s.do(t, "POST", "/admin/competitions/missing/advance", "a1", "admin", nil); code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", code)
	}
}

func TestAdminCreatesCompetitionForPeriod(t *testing.T) {
	s := newTestServer(t)
	code, comp := s.do(t, "POST", "/admin/competitions", "a1", "admin", map[string]string{"period": "2026-11"})
	if code != http.StatusOK || comp["period"] != "2026-11" || comp["phase"] != "submission" {
		t.Fatalf("expected november competition, got %d %v", code, comp)
	}
	_, again := s.do(t, "POST", "/admin/competitions", "a1", "admin", map[string]string{"period": "2026-11"})
	if again["id"] != comp["id"] {
		t.Fatalf("expected the same competition on repeat, got %v and %v", comp["id"], again["id"])
	}
	if code, _ := s.do(t, "POST", "/admin/competitions", "a1", "admin", map[string]string{"period": "November"}); code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a malformed period, got %d", code)
	}
}

func TestStatelessEndpoints(t *testing.T) {
	s := newTestServer(t)

	code, result := s.do(t, "POST", "/assessments", "u1", "", map[string]any{"text": story, "age_bracket": "middle"})
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d %v", code, result)
	}
	if _, ok := result["overall_score"].(float64); !ok {
		t.Fatalf("expected overall_score, got %v", result)
	}
	if code, _ := s.do(t, "POST", "/assessments", "u1", "", map[string]any{"text": "   "}); code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty text, got %d", code)
	}
	oversized := strings.Repeat("The fox ran home. ", assessment.MaxTextBytes/18+1)
	code, body := s.do(t, "POST", "/assessments", "u1", "", map[string]any{"text": oversized})
	if code != http.StatusBadRequest || !strings.Contains(body["error"].(string), "limit") {
		t.Fatalf("expected 400 for oversized text, got %d %v", code, body)
	}

	code, analysis := s.do(t, "POST", "/integrity/classify", "u1", "", map[string]any{"originality_score": 40, "ai_likelihood": "low"})
	if code != http.StatusOK || analysis["risk_tier"] != "critical" || analysis["disposition"] != "flag" {
		t.Fatalf("expected critical/flag, got %d %v", code, analysis)
	}
	_, analysis = s.do(t, "POST", "/integrity/classify", "u1", "", map[string]any{"originality_score": 95, "human_score": 20})
	if analysis["risk_tier"] != "critical" || analysis["ai_likelihood"] != "very_high" {
		t.Fatalf("expected very_high AI to be critical, got %v", analysis)
	}
}

func TestStatusMapping(t *testing.T) {
	cases := map[error]int{
		models.ErrValidation:          http.StatusBadRequest,
		models.ErrNotFound:            http.StatusNotFound,
		models.ErrPhaseViolation:      http.StatusConflict,
		models.ErrQuotaExceeded:       http.StatusTooManyRequests,
		models.ErrDuplicateSubmission: http.StatusConflict,
		models.ErrIncompleteScoring:   http.StatusConflict,
		models.ErrAssessmentFailure:   http.StatusInternalServerError,
	}
	for err, want := range cases {
		if got := statusFor(err); got != want {
			t.Fatalf("%v: expected %d, got %d", err, want, got)
		}
	}
	if got := statusFor(fmt.Errorf("wrapped: %w", models.ErrNotFound)); got != http.StatusNotFound {
		t.Fatalf("expected wrapped not-found to map to 404, got %d", got)
	}
}
