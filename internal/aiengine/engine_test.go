package aiengine

import (
	"context"
	"testing"

	"github.com/sunholo/haira/internal/cache"
	"github.com/sunholo/haira/internal/cir"
)

// stubClient replays a fixed sequence of responses, one per call, and
// records how many times Complete was invoked — used to exercise the
// cache-hit, two-strike-retry, and confidence-gating scenarios of
// spec §8 without any network access.
type stubClient struct {
	responses []string
	calls     int
}

func (s *stubClient) Complete(ctx context.Context, model, contextJSON string) (string, error) {
	i := s.calls
	s.calls++
	if i >= len(s.responses) {
		return s.responses[len(s.responses)-1], nil
	}
	return s.responses[i], nil
}

func cirJSON(t *testing.T, confidence float64) string {
	t.Helper()
	fn := &cir.Function{
		Name: "get_answer", ReturnType: "int", CIRVersion: cir.SchemaVersion,
		Operations: []cir.Operation{{Op: cir.OpLiteral, Result: "return", Fields: map[string]any{"value": float64(42)}}},
		Confidence: confidence,
	}
	data, err := cir.Canonicalize(fn)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func invalidCIRJSON(t *testing.T) string {
	t.Helper()
	fn := &cir.Function{
		Name: "get_answer", ReturnType: "int", CIRVersion: cir.SchemaVersion,
		Operations: []cir.Operation{{Op: cir.OpLiteral, Result: "x"}},
		Confidence: 0.95,
	}
	data, err := cir.Canonicalize(fn)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func testContext() *Context {
	return NewContext("get_answer", nil, nil, "int", nil, ProjectSchema{}, "stub-model")
}

func newTestEngine(t *testing.T, client Client, mode Mode) *Engine {
	t.Helper()
	dir := t.TempDir()
	lf := cache.New()
	eng, err := NewEngine(dir, dir+"/haira.lock", lf, client, Options{Model: "stub-model", Mode: mode, CallBudget: 100})
	if err != nil {
		t.Fatal(err)
	}
	return eng
}

func TestSubmitAcceptsHighConfidenceSilently(t *testing.T) {
	client := &stubClient{responses: []string{cirJSON(t, 0.95)}}
	eng := newTestEngine(t, client, ModeNormal)

	fn, diags, err := eng.Submit(context.Background(), testContext())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fn.Name != "get_answer" {
		t.Fatalf("unexpected function: %+v", fn)
	}
	if len(diags) != 0 {
		t.Fatalf("expected no diagnostics for high confidence, got %v", diags)
	}
}

func TestSubmitCachesSecondCallWithoutHittingClient(t *testing.T) {
	client := &stubClient{responses: []string{cirJSON(t, 0.95)}}
	eng := newTestEngine(t, client, ModeNormal)

	if _, _, err := eng.Submit(context.Background(), testContext()); err != nil {
		t.Fatal(err)
	}
	if _, _, err := eng.Submit(context.Background(), testContext()); err != nil {
		t.Fatal(err)
	}
	if client.calls != 1 {
		t.Fatalf("expected exactly one live call, got %d", client.calls)
	}
}

func TestSubmitOfflineModeMissesCacheFatally(t *testing.T) {
	client := &stubClient{responses: []string{cirJSON(t, 0.95)}}
	eng := newTestEngine(t, client, ModeOffline)

	_, _, err := eng.Submit(context.Background(), testContext())
	if err == nil {
		t.Fatal("expected AIOfflineMiss, got nil")
	}
	if client.calls != 0 {
		t.Fatalf("offline mode must never call the live client, got %d calls", client.calls)
	}
}

func TestSubmitRejectsLowConfidence(t *testing.T) {
	client := &stubClient{responses: []string{cirJSON(t, 0.2)}}
	eng := newTestEngine(t, client, ModeNormal)

	_, _, err := eng.Submit(context.Background(), testContext())
	if err == nil {
		t.Fatal("expected confidence-too-low error, got nil")
	}
}

func TestSubmitRetriesOnceAfterValidationFailure(t *testing.T) {
	client := &stubClient{responses: []string{invalidCIRJSON(t), cirJSON(t, 0.95)}}
	eng := newTestEngine(t, client, ModeNormal)

	fn, diags, err := eng.Submit(context.Background(), testContext())
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if fn.Name != "get_answer" {
		t.Fatalf("unexpected function: %+v", fn)
	}
	if client.calls != 2 {
		t.Fatalf("expected exactly two live calls (initial + one retry), got %d", client.calls)
	}
	if len(diags) != 1 {
		t.Fatalf("expected one info diagnostic noting the retry, got %v", diags)
	}
}

func TestSubmitExhaustsTwoStrikePolicy(t *testing.T) {
	client := &stubClient{responses: []string{invalidCIRJSON(t), invalidCIRJSON(t)}}
	eng := newTestEngine(t, client, ModeNormal)

	_, _, err := eng.Submit(context.Background(), testContext())
	if err == nil {
		t.Fatal("expected two-strike policy to fail after both attempts are invalid")
	}
	if client.calls != 2 {
		t.Fatalf("expected exactly two live calls, got %d", client.calls)
	}
}
