package translate

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"transcribe-ro/internal/models"
	"transcribe-ro/internal/retry"
)

// fakeBackend scripts per-call behavior for router tests.
type fakeBackend struct {
	name    models.TranslationBackend
	calls   int
	respond func(call int, text string) (string, error)
}

func (f *fakeBackend) Name() models.TranslationBackend { return f.name }

func (f *fakeBackend) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	f.calls++
	return f.respond(f.calls, text)
}

func workingBackend(name models.TranslationBackend) *fakeBackend {
	return &fakeBackend{name: name, respond: func(_ int, text string) (string, error) {
		return "RO:" + text, nil
	}}
}

func failingBackend(name models.TranslationBackend, err error) *fakeBackend {
	return &fakeBackend{name: name, respond: func(int, string) (string, error) {
		return "", err
	}}
}

func fastPolicy() retry.Policy {
	return retry.Policy{MaxAttempts: 3, Backoff: time.Millisecond}
}

func TestRouter_SameLanguageShortCircuit(t *testing.T) {
	online := workingBackend(models.BackendOnline)
	offline := workingBackend(models.BackendOffline)
	r := NewRouter(RouterConfig{
		Mode: ModeAuto, TargetLanguage: "ro",
		Online: online, Offline: offline, Policy: fastPolicy(),
	})

	out, err := r.Translate(context.Background(), "Salut, ce faci?", "ro")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Status != models.StatusOK {
		t.Errorf("expected ok status, got %s", out.Status)
	}
	if out.Backend != models.BackendNone {
		t.Errorf("expected no backend, got %s", out.Backend)
	}
	if out.Text != "Salut, ce faci?" {
		t.Errorf("expected original text, got %q", out.Text)
	}
	if online.calls+offline.calls != 0 {
		t.Errorf("expected zero backend calls, got %d", online.calls+offline.calls)
	}
}

func TestRouter_SameLanguageWithRegionSubtag(t *testing.T) {
	online := workingBackend(models.BackendOnline)
	r := NewRouter(RouterConfig{Mode: ModeOnline, TargetLanguage: "ro", Online: online, Policy: fastPolicy()})

	out, _ := r.Translate(context.Background(), "text", "ro-RO")
	if out.Backend != models.BackendNone || online.calls != 0 {
		t.Errorf("expected region subtag to match target, got backend=%s calls=%d", out.Backend, online.calls)
	}
}

func TestRouter_AutoNetworkFailureFailsOverToOffline(t *testing.T) {
	netErr := &net.DNSError{Err: "no such host", Name: "translate.googleapis.com"}
	online := failingBackend(models.BackendOnline, netErr)
	offline := workingBackend(models.BackendOffline)
	r := NewRouter(RouterConfig{
		Mode: ModeAuto, TargetLanguage: "ro",
		Online: online, Offline: offline,
		Probe:  func(context.Context) bool { return true },
		Policy: fastPolicy(),
	})

	out, err := r.Translate(context.Background(), "Hello world", "en")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Backend != models.BackendOffline || out.Status != models.StatusOK {
		t.Errorf("expected offline/ok, got %s/%s", out.Backend, out.Status)
	}
	if out.Text != "RO:Hello world" {
		t.Errorf("unexpected translation: %q", out.Text)
	}
	// Network-classified failure must short-circuit, not burn all retries.
	if online.calls != 1 {
		t.Errorf("expected 1 online attempt before failover, got %d", online.calls)
	}
}

func TestRouter_AutoTransientErrorExhaustsRetriesFirst(t *testing.T) {
	rateErr := errors.New("status 429: rate limited")
	online := failingBackend(models.BackendOnline, rateErr)
	offline := workingBackend(models.BackendOffline)
	r := NewRouter(RouterConfig{
		Mode: ModeAuto, TargetLanguage: "ro",
		Online: online, Offline: offline,
		Probe:  func(context.Context) bool { return true },
		Policy: fastPolicy(),
	})

	out, err := r.Translate(context.Background(), "Hello", "en")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Backend != models.BackendOffline {
		t.Errorf("expected offline fallback, got %s", out.Backend)
	}
	if online.calls != 3 {
		t.Errorf("expected transient failure to exhaust 3 retries, got %d attempts", online.calls)
	}
}

func TestRouter_EmptyResultIsFailure(t *testing.T) {
	online := &fakeBackend{name: models.BackendOnline, respond: func(int, string) (string, error) {
		return "   ", nil
	}}
	r := NewRouter(RouterConfig{Mode: ModeOnline, TargetLanguage: "ro", Online: online, Policy: fastPolicy()})

	out, err := r.Translate(context.Background(), "Hello", "en")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Status != models.StatusFailed {
		t.Errorf("expected failed status for whitespace-only result, got %s", out.Status)
	}
	if out.Text != "Hello" {
		t.Errorf("expected original text preserved, got %q", out.Text)
	}
	if online.calls != 3 {
		t.Errorf("expected empty results to be retried, got %d attempts", online.calls)
	}
}

func TestRouter_TotalFailurePreservesSourceText(t *testing.T) {
	online := failingBackend(models.BackendOnline, errors.New("boom"))
	offline := failingBackend(models.BackendOffline, errors.New("inference crashed"))
	r := NewRouter(RouterConfig{
		Mode: ModeAuto, TargetLanguage: "ro",
		Online: online, Offline: offline,
		Probe:  func(context.Context) bool { return true },
		Policy: fastPolicy(),
	})

	out, err := r.Translate(context.Background(), "Hello world", "en")
	if err != nil {
		t.Fatalf("auto mode must not return an error: %v", err)
	}
	if out.Status != models.StatusFailed {
		t.Errorf("expected failed status, got %s", out.Status)
	}
	if out.Text != "Hello world" {
		t.Errorf("expected original text, got %q", out.Text)
	}
}

func TestRouter_OfflineOnlyMissingModelIsFatal(t *testing.T) {
	offline := failingBackend(models.BackendOffline, fmt.Errorf("%w: xx->ro", ErrModelUnavailable))
	r := NewRouter(RouterConfig{Mode: ModeOffline, TargetLanguage: "ro", Offline: offline, Policy: fastPolicy()})

	out, err := r.Translate(context.Background(), "Hello", "xx")
	if !errors.Is(err, ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}
	if out.Text != "Hello" {
		t.Errorf("expected original text even on fatal failure, got %q", out.Text)
	}
}

func TestRouter_AutoMissingModelIsSoft(t *testing.T) {
	online := failingBackend(models.BackendOnline, &net.DNSError{Err: "no such host"})
	offline := failingBackend(models.BackendOffline, fmt.Errorf("%w: xx->ro", ErrModelUnavailable))
	r := NewRouter(RouterConfig{
		Mode: ModeAuto, TargetLanguage: "ro",
		Online: online, Offline: offline,
		Probe:  func(context.Context) bool { return true },
		Policy: fastPolicy(),
	})

	out, err := r.Translate(context.Background(), "Hello", "xx")
	if err != nil {
		t.Fatalf("auto mode must absorb missing model: %v", err)
	}
	if out.Status != models.StatusFailed {
		t.Errorf("expected failed status, got %s", out.Status)
	}
}

func TestRouter_ProbeNegativeTriesOfflineFirst(t *testing.T) {
	online := workingBackend(models.BackendOnline)
	offline := workingBackend(models.BackendOffline)
	r := NewRouter(RouterConfig{
		Mode: ModeAuto, TargetLanguage: "ro",
		Online: online, Offline: offline,
		Probe:  func(context.Context) bool { return false },
		Policy: fastPolicy(),
	})

	out, _ := r.Translate(context.Background(), "Hello", "en")
	if out.Backend != models.BackendOffline {
		t.Errorf("expected offline first on negative probe, got %s", out.Backend)
	}
	if online.calls != 0 {
		t.Errorf("expected no online calls, got %d", online.calls)
	}
}

func TestRouter_ChunkFailureDegradesOnlyThatChunk(t *testing.T) {
	sentence := "Something worth saying in this sentence. "
	var b strings.Builder
	for b.Len() < 10000 {
		b.WriteString(sentence)
	}
	text := strings.TrimSpace(b.String())
	wantChunks := len(SplitChunks(text, 4500))
	if wantChunks != 3 {
		t.Fatalf("test expects 3 chunks, layout produced %d", wantChunks)
	}

	// Identify the failing chunk by content rather than call count, since
	// retries repeat a chunk.
	chunks := SplitChunks(text, 4500)
	second := chunks[1]
	online := &fakeBackend{name: models.BackendOnline, respond: func(_ int, chunk string) (string, error) {
		if chunk == second {
			return "", errors.New("service hiccup")
		}
		return "RO[" + chunk[:10] + "]", nil
	}}

	r := NewRouter(RouterConfig{Mode: ModeOnline, TargetLanguage: "ro", Online: online, Policy: fastPolicy()})

	out, err := r.Translate(context.Background(), text, "en")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Status != models.StatusOK {
		t.Errorf("expected ok despite one bad chunk, got %s", out.Status)
	}
	if !strings.Contains(out.Text, second) {
		t.Error("expected failed chunk to keep original text")
	}
	if got := strings.Count(out.Text, "RO["); got != 2 {
		t.Errorf("expected 2 translated chunks, got %d", got)
	}
}

func TestRouter_NetworkErrorMidChunksFailsOverWholeText(t *testing.T) {
	sentence := "Something worth saying in this sentence. "
	var b strings.Builder
	for b.Len() < 10000 {
		b.WriteString(sentence)
	}
	text := strings.TrimSpace(b.String())
	if got := len(SplitChunks(text, 4500)); got != 3 {
		t.Fatalf("test expects 3 chunks, layout produced %d", got)
	}

	// Online translates the first chunk, then the connection drops. The
	// whole text must fail over to offline, not just the dead chunks.
	online := &fakeBackend{name: models.BackendOnline, respond: func(call int, chunk string) (string, error) {
		if call == 1 {
			return "RO[" + chunk[:10] + "]", nil
		}
		return "", &net.OpError{Op: "dial", Err: errors.New("connection refused")}
	}}
	offline := workingBackend(models.BackendOffline)

	r := NewRouter(RouterConfig{
		Mode: ModeAuto, TargetLanguage: "ro",
		Online: online, Offline: offline,
		Probe:  func(context.Context) bool { return true },
		Policy: fastPolicy(),
	})

	out, err := r.Translate(context.Background(), text, "en")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Backend != models.BackendOffline {
		t.Errorf("expected offline backend after network failure, got %s", out.Backend)
	}
	if out.Status != models.StatusOK {
		t.Errorf("expected ok status, got %s", out.Status)
	}
	// The network classification short-circuits: one good call plus the
	// failed one, no retries and no further chunks online.
	if online.calls != 2 {
		t.Errorf("online called %d times, want 2", online.calls)
	}
	if offline.calls == 0 {
		t.Error("offline backend never called")
	}
	if got := strings.Count(out.Text, "RO:"); got != 3 {
		t.Errorf("expected all 3 chunks translated offline, got %d", got)
	}
}

func TestRouter_AllChunksFailedIsBackendFailure(t *testing.T) {
	var b strings.Builder
	for b.Len() < 10000 {
		b.WriteString("Filler sentence for the chunker to cut. ")
	}
	text := strings.TrimSpace(b.String())

	online := failingBackend(models.BackendOnline, errors.New("boom"))
	r := NewRouter(RouterConfig{Mode: ModeOnline, TargetLanguage: "ro", Online: online, Policy: retry.Policy{MaxAttempts: 1, Backoff: time.Millisecond}})

	out, err := r.Translate(context.Background(), text, "en")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Status != models.StatusFailed {
		t.Errorf("expected failed status when every chunk fails, got %s", out.Status)
	}
	if out.Text != text {
		t.Error("expected full original text preserved")
	}
}

func TestRouter_EmptyInputIsOKWithoutBackendCalls(t *testing.T) {
	online := workingBackend(models.BackendOnline)
	r := NewRouter(RouterConfig{Mode: ModeOnline, TargetLanguage: "ro", Online: online, Policy: fastPolicy()})

	out, err := r.Translate(context.Background(), "   ", "en")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Status != models.StatusOK || online.calls != 0 {
		t.Errorf("expected ok no-op for blank input, got status=%s calls=%d", out.Status, online.calls)
	}
}

func TestModelForPair(t *testing.T) {
	if _, err := ModelForPair("en", "ro"); err != nil {
		t.Errorf("expected en->ro model, got error: %v", err)
	}
	if _, err := ModelForPair("xx", "ro"); !errors.Is(err, ErrModelUnavailable) {
		t.Errorf("expected ErrModelUnavailable for xx->ro, got %v", err)
	}
	if _, err := ModelForPair("en", "fr"); !errors.Is(err, ErrModelUnavailable) {
		t.Errorf("expected ErrModelUnavailable for non-Romanian target, got %v", err)
	}
}
