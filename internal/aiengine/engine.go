package aiengine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sunholo/haira/internal/cache"
	"github.com/sunholo/haira/internal/cir"
	"github.com/sunholo/haira/internal/herrors"
)

// Mode is the closed set of lock-file interaction modes named in
// spec §4.4/§4.9.
type Mode string

const (
	ModeNormal    Mode = "normal"
	ModeOffline   Mode = "offline"
	ModeRefreshAI Mode = "refresh-ai"
	ModeVerifyAI  Mode = "verify-ai"
)

// Options configures one Engine instance. Defaults mirror spec §5: a 30s
// per-call timeout and a 100-call per-build budget.
type Options struct {
	Model        string
	Mode         Mode
	CallTimeout  time.Duration
	CallBudget   int
}

func DefaultOptions(model string) Options {
	return Options{Model: model, Mode: ModeNormal, CallTimeout: 30 * time.Second, CallBudget: 100}
}

// Engine is the AI Intent Engine (component D). One Engine is
// constructed per build and shared across every parse task so its
// in-memory cache, on-disk store, and single-flight mutex are
// process-wide for the build (spec §5).
type Engine struct {
	opts  Options
	store *cache.Store
	lock  *cache.LockFile
	lockPath string
	client Client

	memMu sync.RWMutex
	mem   map[string]*cir.Function

	flightMu sync.Mutex
	flight   map[string]*sync.WaitGroup
	flightResult map[string]flightOutcome

	callsMu sync.Mutex
	calls   int
}

type flightOutcome struct {
	fn   *cir.Function
	diag *herrors.Diagnostic
}

func NewEngine(cacheDir, lockPath string, lf *cache.LockFile, client Client, opts Options) (*Engine, error) {
	store, err := cache.NewStore(cacheDir, "ai", ".cir")
	if err != nil {
		return nil, err
	}
	return &Engine{
		opts: opts, store: store, lock: lf, lockPath: lockPath, client: client,
		mem: map[string]*cir.Function{}, flight: map[string]*sync.WaitGroup{},
		flightResult: map[string]flightOutcome{},
	}, nil
}

// Submit resolves one AI-backed function: context builder → cache
// layers → single-flight live call → two-strike validation → confidence
// gating. It returns the materializable CIR Function, or a fatal
// diagnostic: AIInterpretationError, AIOfflineMiss, AIConfidenceTooLow,
// CacheCorruptError (a cached blob whose digest no longer matches
// haira.lock), or a cache or lock-file write failure.
func (e *Engine) Submit(ctx context.Context, c *Context) (*cir.Function, []*herrors.Diagnostic, error) {
	key, err := c.CacheKey()
	if err != nil {
		return nil, nil, err
	}

	if e.opts.Mode != ModeVerifyAI && e.opts.Mode != ModeRefreshAI {
		if fn, ok := e.memGet(key); ok {
			return fn, nil, nil
		}
		fn, ok, diag := e.diskGet(key, c.FunctionName)
		if diag != nil {
			return nil, nil, diag
		}
		if ok {
			e.memPut(key, fn)
			return fn, nil, nil
		}
		fn, ok, diag = e.lockAssistedGet(key, c.FunctionName)
		if diag != nil {
			return nil, nil, diag
		}
		if ok {
			e.memPut(key, fn)
			return fn, nil, nil
		}
	}

	if e.opts.Mode == ModeOffline {
		return nil, nil, herrors.New(herrors.AI002, fmt.Sprintf(
			"offline mode: no cached CIR for %q (key %s)", c.FunctionName, key)).
			WithData("function", c.FunctionName)
	}

	fn, diags, err := e.singleFlight(ctx, key, c)
	if err != nil {
		return nil, diags, err
	}

	if e.opts.Mode == ModeVerifyAI {
		data, _ := cir.Canonicalize(fn)
		wantDigest := cache.Digest(data, e.opts.Model, cir.SchemaVersion)
		if entry, ok := e.lock.Get(c.FunctionName); ok && entry.Digest != wantDigest {
			return nil, nil, herrors.New(herrors.AI004, fmt.Sprintf(
				"verify-ai: %q produced bytes that differ from the locked digest", c.FunctionName))
		}
	}

	return fn, diags, nil
}

func (e *Engine) memGet(key string) (*cir.Function, bool) {
	e.memMu.RLock()
	defer e.memMu.RUnlock()
	fn, ok := e.mem[key]
	return fn, ok
}

func (e *Engine) memPut(key string, fn *cir.Function) {
	e.memMu.Lock()
	defer e.memMu.Unlock()
	e.mem[key] = fn
}

// diskGet reads key's cached CIR off disk and, when functionName has a
// haira.lock entry, checks the bytes' digest against it before handing
// the function back. This is the same comparison ModeVerifyAI already
// makes against a freshly live-called result; every other read path
// (normal and offline) needs it just as much, since spec §3's
// reproducibility invariant is "every lock entry resolves to a present,
// digest-matching cache entry" regardless of which mode asked for it. A
// mismatch means the cache blob was corrupted or swapped underneath an
// unchanged lock file, so it is always fatal, never a silent miss.
func (e *Engine) diskGet(key, functionName string) (*cir.Function, bool, *herrors.Diagnostic) {
	if !e.store.Has(key) {
		return nil, false, nil
	}
	data, err := e.store.Read(key)
	if err != nil {
		return nil, false, nil
	}
	fn, err := cir.Parse(data)
	if err != nil {
		return nil, false, nil
	}
	if entry, ok := e.lock.Get(functionName); ok {
		if got := cache.Digest(data, e.opts.Model, cir.SchemaVersion); got != entry.Digest {
			return nil, false, herrors.New(herrors.CAC002, fmt.Sprintf(
				"%q: cached CIR digest does not match haira.lock (cache corrupted or out of sync)", functionName)).
				WithData("function", functionName)
		}
	}
	return fn, true, nil
}

// lockAssistedGet is the third cache layer (spec §4.4: "in-memory map →
// .haira-cache/ai/<key>.cir → lock-file-assisted re-fetch → live LLM
// call"). A context-key miss in diskGet does not necessarily mean the
// symbol was never cached: haira.lock still pins a content digest for
// functionName, and the store's index may hold that same content under
// a different, now-stale context key (e.g. the context builder's
// types_in_scope gained an unrelated entry since the entry was
// written). This recovers that entry by scanning the store's index for
// any blob recorded under functionName whose digest still matches the
// lock's, and republishes it under the current key so later lookups in
// this build hit diskGet directly.
func (e *Engine) lockAssistedGet(key, functionName string) (*cir.Function, bool, *herrors.Diagnostic) {
	entry, ok := e.lock.Get(functionName)
	if !ok {
		return nil, false, nil
	}
	keys, err := e.store.FindByName(functionName)
	if err != nil {
		return nil, false, nil
	}
	for _, k := range keys {
		if k == key {
			continue // already tried by diskGet
		}
		data, err := e.store.Read(k)
		if err != nil {
			continue
		}
		if cache.Digest(data, e.opts.Model, cir.SchemaVersion) != entry.Digest {
			continue
		}
		fn, err := cir.Parse(data)
		if err != nil {
			continue
		}
		_ = e.store.Write(key, data)
		_ = e.store.UpdateIndex(key, cache.IndexEntry{Name: functionName, Model: e.opts.Model,
			CreatedAt: time.Now().UTC().Format(time.RFC3339)})
		return fn, true, nil
	}
	return nil, false, nil
}

// singleFlight guarantees at most one outstanding live call per cache
// key; concurrent callers for the same key block on the first caller's
// WaitGroup and receive its cached result (spec §5).
func (e *Engine) singleFlight(ctx context.Context, key string, c *Context) (*cir.Function, []*herrors.Diagnostic, error) {
	e.flightMu.Lock()
	if wg, inFlight := e.flight[key]; inFlight {
		e.flightMu.Unlock()
		wg.Wait()
		e.flightMu.Lock()
		out := e.flightResult[key]
		e.flightMu.Unlock()
		if out.diag != nil {
			return nil, nil, out.diag
		}
		return out.fn, nil, nil
	}
	wg := &sync.WaitGroup{}
	wg.Add(1)
	e.flight[key] = wg
	e.flightMu.Unlock()

	fn, diags, err := e.liveCallWithRetry(ctx, key, c)

	e.flightMu.Lock()
	if err != nil {
		if d, ok := err.(*herrors.Diagnostic); ok {
			e.flightResult[key] = flightOutcome{diag: d}
		}
	} else {
		e.flightResult[key] = flightOutcome{fn: fn}
	}
	delete(e.flight, key)
	e.flightMu.Unlock()
	wg.Done()

	return fn, diags, err
}

// reserveCall charges one call against the per-build budget; callers
// make one reservation per actual e.client.Complete invocation, not per
// liveCallWithRetry invocation, since the two-strike policy can issue
// two live calls for a single Submit (spec §5).
func (e *Engine) reserveCall() error {
	e.callsMu.Lock()
	e.calls++
	over := e.calls > e.opts.CallBudget
	e.callsMu.Unlock()
	if over {
		return herrors.New(herrors.AI001, "per-build AI call budget exceeded")
	}
	return nil
}

// liveCallWithRetry enforces the per-build call budget, the two-strike
// validation policy, and confidence gating, then persists an accepted
// result to both the disk cache and the lock file.
func (e *Engine) liveCallWithRetry(ctx context.Context, key string, c *Context) (*cir.Function, []*herrors.Diagnostic, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.opts.CallTimeout)
	defer cancel()

	body, err := c.CanonicalJSON()
	if err != nil {
		return nil, nil, err
	}

	requestID := uuid.NewString()
	var diags []*herrors.Diagnostic
	var lastErr *herrors.Diagnostic

	if err := e.reserveCall(); err != nil {
		return nil, nil, err
	}
	raw, callErr := e.client.Complete(callCtx, e.opts.Model, string(body))
	if callErr != nil {
		return nil, nil, herrors.New(herrors.AI001, callErr.Error()).WithData("request_id", requestID)
	}
	fn, verr := cir.Parse([]byte(raw))
	if verr == nil {
		lastErr = cir.Validate(fn)
	} else {
		lastErr = herrors.New(herrors.AI001, "response is not valid CIR JSON: "+verr.Error())
	}

	if lastErr != nil {
		// Two-strike policy: retry once, feeding the validator error back.
		// This is a second live call against the same budget, so it needs
		// its own reservation (spec §5: "a per-build total budget (default
		// 100 calls)" counts actual network calls, not Submit invocations).
		if err := e.reserveCall(); err != nil {
			return nil, nil, err
		}
		retryBody := string(body) + "\n\n# previous attempt rejected:\n" + lastErr.Message
		raw2, callErr2 := e.client.Complete(callCtx, e.opts.Model, retryBody)
		if callErr2 != nil {
			return nil, nil, herrors.New(herrors.AI001, callErr2.Error()).WithData("request_id", requestID)
		}
		fn2, verr2 := cir.Parse([]byte(raw2))
		if verr2 != nil {
			return nil, nil, herrors.New(herrors.AI001, "second attempt is not valid CIR JSON: "+verr2.Error()).
				WithData("request_id", requestID)
		}
		if d := cir.Validate(fn2); d != nil {
			return nil, nil, herrors.New(herrors.AI001, "two-strike policy exhausted: "+d.Message).
				WithData("request_id", requestID).WithData("first_error", lastErr.Message)
		}
		fn = fn2
		diags = append(diags, herrors.New(herrors.AI001, "accepted on retry after: "+lastErr.Message).
			WithSeverity(herrors.SevInfo))
	}

	sev, fatal := ConfidenceSeverity(fn.Confidence)
	if fatal {
		return nil, nil, herrors.New(herrors.AI003, fmt.Sprintf(
			"%s: confidence %.2f is below the acceptance threshold", c.FunctionName, fn.Confidence)).
			WithData("request_id", requestID)
	}
	if sev != "" {
		diags = append(diags, herrors.New(herrors.AI003, fmt.Sprintf(
			"%s: confidence %.2f", c.FunctionName, fn.Confidence)).WithSeverity(sev))
	}

	data, err := cir.Canonicalize(fn)
	if err != nil {
		return nil, nil, err
	}
	if err := e.store.Write(key, data); err != nil {
		return nil, nil, herrors.New(herrors.CAC001, err.Error())
	}
	_ = e.store.UpdateIndex(key, cache.IndexEntry{Name: c.FunctionName, Model: e.opts.Model,
		CreatedAt: time.Now().UTC().Format(time.RFC3339)})
	e.lock.Set(c.FunctionName, cache.Entry{
		Digest: cache.Digest(data, e.opts.Model, cir.SchemaVersion), Model: e.opts.Model, CIRVersion: cir.SchemaVersion,
		Confidence: fn.Confidence,
	})
	if err := e.lock.Save(e.lockPath); err != nil {
		return nil, nil, herrors.New(herrors.IO002, err.Error())
	}

	e.memPut(key, fn)
	return fn, diags, nil
}

// ConfidenceSeverity maps a confidence score to the §4.4 tiers: empty
// severity + not fatal means silent acceptance.
func ConfidenceSeverity(confidence float64) (herrors.Severity, bool) {
	switch {
	case confidence >= 0.90:
		return "", false
	case confidence >= 0.70:
		return herrors.SevInfo, false
	case confidence >= 0.50:
		return herrors.SevWarning, false
	default:
		return herrors.SevError, true
	}
}
