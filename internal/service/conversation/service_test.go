package conversation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/kickfinder/backend/internal/model/catalog"
	"github.com/kickfinder/backend/internal/model/questionnaire"
	"github.com/kickfinder/backend/internal/service/criteria"
)

type sentMessage struct {
	id    string
	reply questionnaire.Reply
}

type recordingResponder struct {
	mu      sync.Mutex
	sent    []sentMessage
	edits   map[string]string
	editErr error
}

func newResponder() *recordingResponder {
	return &recordingResponder{edits: make(map[string]string)}
}

func (r *recordingResponder) Send(_ context.Context, reply questionnaire.Reply) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := "m" + strconv.Itoa(len(r.sent)+1)
	r.sent = append(r.sent, sentMessage{id: id, reply: reply})
	return id, nil
}

func (r *recordingResponder) Edit(_ context.Context, messageID, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.editErr != nil {
		return r.editErr
	}
	r.edits[messageID] = text
	return nil
}

func (r *recordingResponder) last() questionnaire.Reply {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sent) == 0 {
		return questionnaire.Reply{}
	}
	return r.sent[len(r.sent)-1].reply
}

type countingRecommender struct {
	mu    sync.Mutex
	calls int
	text  string
	err   error
}

func (c *countingRecommender) Recommend(context.Context, questionnaire.Answers) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return c.text, c.err
}

type panickingRecommender struct{}

func (panickingRecommender) Recommend(context.Context, questionnaire.Answers) (string, error) {
	panic("boom")
}

func command(user, value string) questionnaire.Event {
	return questionnaire.Event{UserID: user, Kind: questionnaire.EventCommand, Value: value}
}

func text(user, value string) questionnaire.Event {
	return questionnaire.Event{UserID: user, Kind: questionnaire.EventText, Value: value}
}

func choice(user, value string) questionnaire.Event {
	return questionnaire.Event{UserID: user, Kind: questionnaire.EventChoice, Value: value}
}

// driveTo walks a fresh session for user up to the requested state.
func driveTo(t *testing.T, svc *Service, out questionnaire.Responder, user string, target questionnaire.State) {
	t.Helper()
	ctx := context.Background()
	steps := []struct {
		ev    questionnaire.Event
		after questionnaire.State
	}{
		{command(user, "start"), questionnaire.AwaitStart},
		{choice(user, questionnaire.ChoiceStartSelection), questionnaire.AwaitMetrics},
		{text(user, "180/75"), questionnaire.AwaitEnvironment},
		{choice(user, "outdoor"), questionnaire.AwaitPosition},
		{choice(user, "frontcourt"), questionnaire.AwaitBudget},
	}
	for _, step := range steps {
		if err := svc.Handle(ctx, step.ev, out); err != nil {
			t.Fatalf("Handle(%+v) err: %v", step.ev, err)
		}
		if step.after == target {
			return
		}
	}
	t.Fatalf("cannot drive to %s", target)
}

func mustState(t *testing.T, svc *Service, user string, want questionnaire.State) questionnaire.Session {
	t.Helper()
	sess, ok := svc.Snapshot(user)
	if !ok {
		t.Fatalf("expected active session for %s", user)
	}
	if sess.State != want {
		t.Fatalf("expected state %s, got %s", want, sess.State)
	}
	return sess
}

func TestFullQuestionnaireEditsPlaceholder(t *testing.T) {
	store := catalog.NewMemoryStore([]catalog.Item{
		{Name: "fits-all", Price: 110, Cushioning: 85, OutdoorDurability: 60, MaterialDurability: 80, Fit: 82, Traction: 90, Support: 80},
		{Name: "too-pricey", Price: 150, Cushioning: 85, OutdoorDurability: 60, MaterialDurability: 80, Fit: 82, Traction: 90, Support: 80},
	})
	svc := NewService(criteria.NewEngine(store, criteria.DefaultLimits(), time.Second), Options{})
	out := newResponder()

	driveTo(t, svc, out, "u1", questionnaire.AwaitBudget)
	mustState(t, svc, "u1", questionnaire.AwaitBudget)

	if err := svc.Handle(context.Background(), choice("u1", "low"), out); err != nil {
		t.Fatalf("budget err: %v", err)
	}

	if _, ok := svc.Snapshot("u1"); ok {
		t.Fatal("expected session to be evicted after terminal step")
	}
	if out.last().Text != questionnaire.TextSearching {
		t.Fatalf("expected searching placeholder, got %q", out.last().Text)
	}
	placeholder := out.sent[len(out.sent)-1].id
	want := "Recommended sneakers:\n1. fits-all (110 $)"
	if got := out.edits[placeholder]; got != want {
		t.Fatalf("unexpected edited result: %q", got)
	}
}

func TestStartSendsGreetingButton(t *testing.T) {
	svc := NewService(&countingRecommender{}, Options{})
	out := newResponder()

	if err := svc.Handle(context.Background(), command("u1", "/start"), out); err != nil {
		t.Fatalf("start err: %v", err)
	}
	mustState(t, svc, "u1", questionnaire.AwaitStart)

	reply := out.last()
	if len(reply.Choices) != 1 || reply.Choices[0].Value != questionnaire.ChoiceStartSelection {
		t.Fatalf("expected start button, got %+v", reply.Choices)
	}
}

func TestStartSelectionWithoutSessionCreatesOne(t *testing.T) {
	svc := NewService(&countingRecommender{}, Options{})
	out := newResponder()

	if err := svc.Handle(context.Background(), choice("u1", questionnaire.ChoiceStartSelection), out); err != nil {
		t.Fatalf("Handle err: %v", err)
	}
	mustState(t, svc, "u1", questionnaire.AwaitMetrics)
	if out.last().Text != questionnaire.TextAskMetrics {
		t.Fatalf("expected metrics prompt, got %q", out.last().Text)
	}
}

func TestMetricsValidInputAdvancesOnce(t *testing.T) {
	inputs := map[string][2]int{
		"180/75":     {180, 75},
		" 200 / 95 ": {200, 95},
		"-1/0":       {-1, 0},
	}

	for input, want := range inputs {
		svc := NewService(&countingRecommender{}, Options{})
		out := newResponder()
		driveTo(t, svc, out, "u1", questionnaire.AwaitMetrics)

		if err := svc.Handle(context.Background(), text("u1", input), out); err != nil {
			t.Fatalf("%q: Handle err: %v", input, err)
		}
		sess := mustState(t, svc, "u1", questionnaire.AwaitEnvironment)
		if sess.Answers.Height != want[0] || sess.Answers.Weight != want[1] {
			t.Fatalf("%q: stored %d/%d", input, sess.Answers.Height, sess.Answers.Weight)
		}
		if len(out.last().Choices) != 3 {
			t.Fatalf("%q: expected 3-choice environment prompt", input)
		}
	}
}

func TestMetricsMalformedInputRePrompts(t *testing.T) {
	inputs := []string{"180", "180-75", "abc/75", "180/7.5", "180/75/3", "", "/", "180/"}

	for _, input := range inputs {
		svc := NewService(&countingRecommender{}, Options{})
		out := newResponder()
		driveTo(t, svc, out, "u1", questionnaire.AwaitMetrics)

		err := svc.Handle(context.Background(), text("u1", input), out)
		if !errors.Is(err, questionnaire.ErrMalformedInput) {
			t.Fatalf("%q: expected ErrMalformedInput, got %v", input, err)
		}
		sess := mustState(t, svc, "u1", questionnaire.AwaitMetrics)
		if sess.Answers != (questionnaire.Answers{}) {
			t.Fatalf("%q: answers changed: %+v", input, sess.Answers)
		}
		if out.last().Text != questionnaire.TextMetricsInvalid {
			t.Fatalf("%q: expected error prompt, got %q", input, out.last().Text)
		}
	}
}

func TestOutOfEnumChoiceRePrompts(t *testing.T) {
	cases := []struct {
		state questionnaire.State
		ev    questionnaire.Event
	}{
		{questionnaire.AwaitEnvironment, choice("u1", "moon")},
		{questionnaire.AwaitEnvironment, text("u1", "outdoor")},
		{questionnaire.AwaitPosition, choice("u1", "goalkeeper")},
		{questionnaire.AwaitBudget, choice("u1", "free")},
		{questionnaire.AwaitStart, text("u1", "hello")},
		{questionnaire.AwaitMetrics, choice("u1", "indoor")},
	}

	for _, tc := range cases {
		rec := &countingRecommender{}
		svc := NewService(rec, Options{})
		out := newResponder()
		driveTo(t, svc, out, "u1", tc.state)
		before := mustState(t, svc, "u1", tc.state)

		err := svc.Handle(context.Background(), tc.ev, out)
		if !errors.Is(err, questionnaire.ErrMalformedInput) {
			t.Fatalf("%s %+v: expected ErrMalformedInput, got %v", tc.state, tc.ev, err)
		}
		after := mustState(t, svc, "u1", tc.state)
		if after.Answers != before.Answers {
			t.Fatalf("%s: answers changed", tc.state)
		}
		prompt, _ := questionnaire.PromptFor(tc.state)
		if len(out.last().Choices) != len(prompt.Choices) {
			t.Fatalf("%s: expected re-prompt with %d choices", tc.state, len(prompt.Choices))
		}
		if rec.calls != 0 {
			t.Fatalf("%s: recommender must not run", tc.state)
		}
	}
}

func TestCancelFromEveryNonTerminalState(t *testing.T) {
	states := []questionnaire.State{
		questionnaire.AwaitStart,
		questionnaire.AwaitMetrics,
		questionnaire.AwaitEnvironment,
		questionnaire.AwaitPosition,
		questionnaire.AwaitBudget,
	}

	for _, state := range states {
		for _, cmd := range []string{"stop", "cancel"} {
			rec := &countingRecommender{text: "unused"}
			svc := NewService(rec, Options{})
			out := newResponder()
			driveTo(t, svc, out, "u1", state)

			if err := svc.Handle(context.Background(), command("u1", cmd), out); err != nil {
				t.Fatalf("%s/%s: cancel err: %v", state, cmd, err)
			}
			if _, ok := svc.Snapshot("u1"); ok {
				t.Fatalf("%s/%s: expected session evicted", state, cmd)
			}
			if out.last().Text != questionnaire.TextCancelled {
				t.Fatalf("%s/%s: expected cancel ack, got %q", state, cmd, out.last().Text)
			}
			if rec.calls != 0 {
				t.Fatalf("%s/%s: cancel must not query catalog", state, cmd)
			}

			if err := svc.Handle(context.Background(), choice("u1", "low"), out); !errors.Is(err, ErrNoSession) {
				t.Fatalf("%s/%s: expected no session after cancel, got %v", state, cmd, err)
			}
		}
	}
}

func TestCancelWithoutSession(t *testing.T) {
	svc := NewService(&countingRecommender{}, Options{})
	out := newResponder()

	if err := svc.Handle(context.Background(), command("u1", "stop"), out); err != nil {
		t.Fatalf("stop err: %v", err)
	}
	if out.last().Text != questionnaire.TextNoSession {
		t.Fatalf("unexpected reply: %q", out.last().Text)
	}
}

func TestHelpLeavesSessionUntouched(t *testing.T) {
	svc := NewService(&countingRecommender{}, Options{})
	out := newResponder()
	driveTo(t, svc, out, "u1", questionnaire.AwaitPosition)

	if err := svc.Handle(context.Background(), command("u1", "help"), out); err != nil {
		t.Fatalf("help err: %v", err)
	}
	if out.last().Text != questionnaire.TextHelp {
		t.Fatalf("expected help text")
	}
	mustState(t, svc, "u1", questionnaire.AwaitPosition)
}

func TestCatalogFailureStillTerminates(t *testing.T) {
	rec := &countingRecommender{text: criteria.TextFailure, err: catalog.ErrCatalogQueryFailed}
	svc := NewService(rec, Options{})
	out := newResponder()
	driveTo(t, svc, out, "u1", questionnaire.AwaitBudget)

	err := svc.Handle(context.Background(), choice("u1", "mid"), out)
	if !errors.Is(err, catalog.ErrCatalogQueryFailed) {
		t.Fatalf("expected catalog error to surface for logging, got %v", err)
	}
	if _, ok := svc.Snapshot("u1"); ok {
		t.Fatal("session must reach terminal state after catalog failure")
	}
	placeholder := out.sent[len(out.sent)-1].id
	if out.edits[placeholder] != criteria.TextFailure {
		t.Fatalf("expected generic failure text, got %q", out.edits[placeholder])
	}
	if rec.calls != 1 {
		t.Fatalf("expected exactly one recommendation, got %d", rec.calls)
	}
}

func TestRecommenderPanicStillTerminates(t *testing.T) {
	svc := NewService(panickingRecommender{}, Options{})
	out := newResponder()
	driveTo(t, svc, out, "u1", questionnaire.AwaitBudget)

	if err := svc.Handle(context.Background(), choice("u1", "high"), out); err == nil {
		t.Fatal("expected error from panicking recommender")
	}
	if _, ok := svc.Snapshot("u1"); ok {
		t.Fatal("session must be evicted")
	}
	placeholder := out.sent[len(out.sent)-1].id
	if out.edits[placeholder] != criteria.TextFailure {
		t.Fatalf("expected generic failure, got %q", out.edits[placeholder])
	}
}

func TestEditFailureFallsBackToSend(t *testing.T) {
	svc := NewService(&countingRecommender{text: "result"}, Options{})
	out := newResponder()
	out.editErr = errors.New("message deleted")
	driveTo(t, svc, out, "u1", questionnaire.AwaitBudget)

	if err := svc.Handle(context.Background(), choice("u1", "high"), out); err != nil {
		t.Fatalf("Handle err: %v", err)
	}
	if out.last().Text != "result" {
		t.Fatalf("expected result sent as new message, got %q", out.last().Text)
	}
}

func TestRestartResetsAnswers(t *testing.T) {
	svc := NewService(&countingRecommender{}, Options{})
	out := newResponder()
	driveTo(t, svc, out, "u1", questionnaire.AwaitBudget)

	if err := svc.Handle(context.Background(), command("u1", "start"), out); err != nil {
		t.Fatalf("start err: %v", err)
	}
	sess := mustState(t, svc, "u1", questionnaire.AwaitStart)
	if sess.Answers != (questionnaire.Answers{}) {
		t.Fatalf("expected fresh answers, got %+v", sess.Answers)
	}
}

func TestTextWithoutSessionIsIgnored(t *testing.T) {
	svc := NewService(&countingRecommender{}, Options{})
	out := newResponder()

	if err := svc.Handle(context.Background(), text("u1", "hello"), out); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
	if len(out.sent) != 0 {
		t.Fatalf("expected no replies, got %d", len(out.sent))
	}
}

func TestMissingUserID(t *testing.T) {
	svc := NewService(&countingRecommender{}, Options{})
	if err := svc.Handle(context.Background(), command("", "start"), newResponder()); !errors.Is(err, ErrUserRequired) {
		t.Fatalf("expected ErrUserRequired, got %v", err)
	}
}

func TestSessionsAreIsolatedAcrossUsers(t *testing.T) {
	svc := NewService(&countingRecommender{text: "ok"}, Options{})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user := fmt.Sprintf("user-%d", i)
			out := newResponder()
			ctx := context.Background()
			_ = svc.Handle(ctx, command(user, "start"), out)
			_ = svc.Handle(ctx, choice(user, questionnaire.ChoiceStartSelection), out)
			_ = svc.Handle(ctx, text(user, fmt.Sprintf("%d/%d", 170+i, 60+i)), out)
		}(i)
	}
	wg.Wait()

	if n := svc.ActiveSessions(); n != 20 {
		t.Fatalf("expected 20 sessions, got %d", n)
	}
	for i := 0; i < 20; i++ {
		sess := mustState(t, svc, fmt.Sprintf("user-%d", i), questionnaire.AwaitEnvironment)
		if sess.Answers.Height != 170+i || sess.Answers.Weight != 60+i {
			t.Fatalf("user-%d has leaked answers %+v", i, sess.Answers)
		}
	}
}

func TestSweepEvictsIdleSessions(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	svc := NewService(&countingRecommender{}, Options{IdleTimeout: 10 * time.Minute, Now: clock})
	out := newResponder()

	driveTo(t, svc, out, "idle", questionnaire.AwaitMetrics)
	now = now.Add(8 * time.Minute)
	driveTo(t, svc, out, "active", questionnaire.AwaitMetrics)

	if n := svc.Sweep(now.Add(5 * time.Minute)); n != 1 {
		t.Fatalf("expected 1 eviction, got %d", n)
	}
	if _, ok := svc.Snapshot("idle"); ok {
		t.Fatal("idle session should be evicted")
	}
	mustState(t, svc, "active", questionnaire.AwaitMetrics)
}
