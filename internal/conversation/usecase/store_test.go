package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/linusssssai/feishu-bot-vercel/internal/conversation"
	"github.com/linusssssai/feishu-bot-vercel/internal/conversation/repository"
	"github.com/linusssssai/feishu-bot-vercel/internal/model"
	"github.com/linusssssai/feishu-bot-vercel/pkg/log"
)

// ── Fakes ──────────────────────────────────────────────────────────────────

type fakeRepo struct {
	mu       sync.Mutex
	rows     map[string]model.ConversationContext
	getErr   error
	saveErr  error
	saves    int
	purged   int
	purgeHit chan struct{}
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rows: make(map[string]model.ConversationContext)}
}

func (f *fakeRepo) Get(ctx context.Context, id string) (model.ConversationContext, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return model.ConversationContext{}, f.getErr
	}
	cc, ok := f.rows[id]
	if !ok {
		return model.ConversationContext{}, repository.ErrNotFound
	}
	return cc, nil
}

func (f *fakeRepo) Save(ctx context.Context, opt repository.SaveOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.rows[opt.ID] = opt.Context
	return nil
}

func (f *fakeRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, id)
	return nil
}

func (f *fakeRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	f.purged++
	hit := f.purgeHit
	f.mu.Unlock()
	if hit != nil {
		select {
		case hit <- struct{}{}:
		default:
		}
	}
	return 0, nil
}

func (f *fakeRepo) Close() error { return nil }

func (f *fakeRepo) row(id string) (model.ConversationContext, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cc, ok := f.rows[id]
	return cc, ok
}

type fakeReleaser struct {
	mu       sync.Mutex
	released []model.Artifact
	err      error
}

func (f *fakeReleaser) Release(ctx context.Context, a model.Artifact) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released = append(f.released, a)
	return f.err
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestStore(repo repository.Repository, rel conversation.Releaser, cfg conversation.Config) (*implUseCase, *clock) {
	c := &clock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	uc := New(log.NewNop(), repo, rel, cfg)
	uc.now = c.now
	return uc, c
}

func strPtr(s string) *string { return &s }

// ── Tests ──────────────────────────────────────────────────────────────────

func TestUpdateThenGet(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()
	repo := newFakeRepo()
	uc, _ := newTestStore(repo, nil, conversation.Config{})

	uc.Update(ctx, "chat-1", model.ContextPatch{ContinuationToken: strPtr("tok-1")})
	uc.Update(ctx, "chat-1", model.ContextPatch{Table: &model.TableContext{AppToken: "app", TableID: "tbl"}})

	got := uc.Get(ctx, "chat-1")
	if got.LastContinuationToken != "tok-1" {
		t.Errorf("expected token to survive the second patch, got %q", got.LastContinuationToken)
	}
	if !got.Table.Bound() {
		t.Errorf("expected table context, got %+v", got.Table)
	}
	if got.LastUpdateTime.IsZero() {
		t.Errorf("expected lastUpdateTime to be stamped")
	}

	uc.Wait()
	row, ok := repo.row("chat-1")
	if !ok || row.LastContinuationToken != "tok-1" || !row.Table.Bound() {
		t.Errorf("expected merged record persisted, got %+v", row)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	uc, _ := newTestStore(nil, nil, conversation.Config{})
	uc.Update(ctx, "c", model.ContextPatch{Table: &model.TableContext{AppToken: "app", TableID: "t"}})

	got := uc.Get(ctx, "c")
	got.Table.TableID = "mutated"

	if uc.Get(ctx, "c").Table.TableID != "t" {
		t.Errorf("caller mutation leaked into the store")
	}
}

func TestExpiredEntry(t *testing.T) {
	ctx := context.Background()
	uc, clk := newTestStore(nil, nil, conversation.Config{TTL: time.Hour})

	uc.Update(ctx, "c", model.ContextPatch{ContinuationToken: strPtr("old"), Table: &model.TableContext{AppToken: "a"}})
	clk.advance(time.Hour + time.Second)

	if got := uc.Get(ctx, "c"); !got.Empty() {
		t.Fatalf("expired context must read as empty, got %+v", got)
	}
	if uc.Stats().Total != 0 {
		t.Errorf("expired entry must be removed on read")
	}

	uc.Update(ctx, "c", model.ContextPatch{ContinuationToken: strPtr("new")})
	got := uc.Get(ctx, "c")
	if got.LastContinuationToken != "new" || got.Table != nil {
		t.Errorf("update after expiry must start from empty, got %+v", got)
	}
}

func TestUpdateTreatsExpiredAsAbsent(t *testing.T) {
	ctx := context.Background()
	uc, clk := newTestStore(nil, nil, conversation.Config{TTL: time.Minute})

	uc.Update(ctx, "c", model.ContextPatch{ContinuationToken: strPtr("old")})
	clk.advance(2 * time.Minute)
	uc.Update(ctx, "c", model.ContextPatch{Table: &model.TableContext{AppToken: "a"}})

	if got := uc.Get(ctx, "c"); got.LastContinuationToken != "" {
		t.Errorf("stale token must not be merged, got %q", got.LastContinuationToken)
	}
}

func TestZeroUpdateTimeNeverExpires(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	repo.rows["legacy"] = model.ConversationContext{LastContinuationToken: "legacy-tok"}
	uc, clk := newTestStore(repo, nil, conversation.Config{TTL: time.Minute})

	clk.advance(24 * time.Hour)
	if got := uc.Get(ctx, "legacy"); got.LastContinuationToken != "legacy-tok" {
		t.Errorf("record without lastUpdateTime must not expire, got %+v", got)
	}
	clk.advance(24 * time.Hour)
	if uc.Cleanup(ctx) != 0 {
		t.Errorf("cleanup must keep records without lastUpdateTime")
	}
}

func TestGetFallsBackToDurableTier(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	uc, clk := newTestStore(repo, nil, conversation.Config{TTL: time.Hour})
	repo.rows["c"] = model.ConversationContext{LastContinuationToken: "durable", LastUpdateTime: clk.now()}

	t.Run("miss populates tier one", func(t *testing.T) {
		if got := uc.Get(ctx, "c"); got.LastContinuationToken != "durable" {
			t.Fatalf("expected durable token, got %q", got.LastContinuationToken)
		}
		if uc.Stats().Total != 1 {
			t.Errorf("expected tier one populated")
		}
	})

	t.Run("durable expired row reads as empty", func(t *testing.T) {
		repo.rows["old"] = model.ConversationContext{LastContinuationToken: "x", LastUpdateTime: clk.now().Add(-2 * time.Hour)}
		if got := uc.Get(ctx, "old"); !got.Empty() {
			t.Errorf("expected empty context, got %+v", got)
		}
	})

	t.Run("read failure degrades to empty", func(t *testing.T) {
		repo.getErr = errors.New("connection refused")
		defer func() { repo.getErr = nil }()
		if got := uc.Get(ctx, "other"); !got.Empty() {
			t.Errorf("expected empty context, got %+v", got)
		}
	})
}

func TestGetDoesNotOverwriteNewerTierOne(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	uc, clk := newTestStore(repo, nil, conversation.Config{TTL: time.Hour})

	repo.rows["c"] = model.ConversationContext{LastContinuationToken: "older", LastUpdateTime: clk.now().Add(-time.Minute)}
	// A concurrent Update lands in Tier 1 between the miss and the populate.
	uc.entries["c"] = model.ConversationContext{LastContinuationToken: "newer", LastUpdateTime: clk.now()}

	if got := uc.Get(ctx, "c"); got.LastContinuationToken != "newer" {
		t.Errorf("expected tier one entry, got %q", got.LastContinuationToken)
	}
}

func TestDurableWriteFailureIsNotSurfaced(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()
	repo := newFakeRepo()
	repo.saveErr = errors.New("disk full")
	uc, _ := newTestStore(repo, nil, conversation.Config{})

	uc.Update(ctx, "c", model.ContextPatch{ContinuationToken: strPtr("tok")})
	uc.Wait()

	if got := uc.Get(ctx, "c"); got.LastContinuationToken != "tok" {
		t.Errorf("tier one write must stand after a durable failure, got %+v", got)
	}
}

func TestUpdateOutlivesCallerContext(t *testing.T) {
	defer goleak.VerifyNone(t)
	repo := newFakeRepo()
	uc, _ := newTestStore(repo, nil, conversation.Config{})

	ctx, cancel := context.WithCancel(context.Background())
	uc.Update(ctx, "c", model.ContextPatch{ContinuationToken: strPtr("tok")})
	cancel()
	uc.Wait()

	if _, ok := repo.row("c"); !ok {
		t.Errorf("detached save must complete after the request context is cancelled")
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	uc, _ := newTestStore(repo, nil, conversation.Config{})

	uc.Update(ctx, "c", model.ContextPatch{ContinuationToken: strPtr("tok")})
	uc.Wait()
	uc.Delete(ctx, "c")

	if uc.Stats().Total != 0 {
		t.Errorf("delete must remove tier one entry")
	}
	if _, ok := repo.row("c"); !ok {
		t.Errorf("delete must leave the durable row to age out")
	}
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	uc, _ := newTestStore(repo, nil, conversation.Config{})

	uc.Update(ctx, "c", model.ContextPatch{ContinuationToken: strPtr("tok")})
	uc.Wait()
	uc.Reset(ctx, "c")
	uc.Wait()

	if _, ok := repo.row("c"); ok {
		t.Errorf("reset must remove the durable row")
	}
	if got := uc.Get(ctx, "c"); !got.Empty() {
		t.Errorf("reset conversation resurfaced: %+v", got)
	}
}

func TestCapacityEviction(t *testing.T) {
	ctx := context.Background()
	uc, clk := newTestStore(nil, nil, conversation.Config{MaxSessions: 3, TTL: 24 * time.Hour})

	for i := 0; i < 5; i++ {
		uc.Update(ctx, fmt.Sprintf("c%d", i), model.ContextPatch{ContinuationToken: strPtr("t")})
		clk.advance(time.Second)
	}

	if got := uc.Stats().Total; got != 3 {
		t.Fatalf("expected 3 entries after eviction, got %d", got)
	}
	for _, gone := range []string{"c0", "c1"} {
		if _, ok := uc.entries[gone]; ok {
			t.Errorf("least recently updated %s must be evicted", gone)
		}
	}
	for _, kept := range []string{"c2", "c3", "c4"} {
		if _, ok := uc.entries[kept]; !ok {
			t.Errorf("%s must be kept", kept)
		}
	}
}

func TestCleanupRemovesExpiredFirst(t *testing.T) {
	ctx := context.Background()
	uc, clk := newTestStore(nil, nil, conversation.Config{MaxSessions: 10, TTL: time.Hour})

	uc.Update(ctx, "stale", model.ContextPatch{})
	clk.advance(2 * time.Hour)
	uc.Update(ctx, "fresh", model.ContextPatch{})

	if n := uc.Cleanup(ctx); n != 1 {
		t.Errorf("expected 1 removed, got %d", n)
	}
	if _, ok := uc.entries["fresh"]; !ok {
		t.Errorf("fresh entry must survive")
	}
}

func TestArtifactRelease(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()
	rel := &fakeReleaser{}
	uc, _ := newTestStore(nil, rel, conversation.Config{})

	first := &model.Artifact{Kind: model.ArtifactImage, ArchiveKey: "a.png"}
	second := &model.Artifact{Kind: model.ArtifactImage, ArchiveKey: "b.png"}

	uc.Update(ctx, "c", model.ContextPatch{LastArtifact: first})
	uc.Update(ctx, "c", model.ContextPatch{LastArtifact: first})
	uc.Update(ctx, "c", model.ContextPatch{ContinuationToken: strPtr("tok")})
	uc.Update(ctx, "c", model.ContextPatch{LastArtifact: second})
	uc.Wait()

	if len(rel.released) != 1 || rel.released[0].ArchiveKey != "a.png" {
		t.Errorf("expected exactly the superseded artifact released, got %+v", rel.released)
	}
}

func TestArtifactReleaseFailureDoesNotAffectUpdate(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()
	rel := &fakeReleaser{err: errors.New("s3 unavailable")}
	uc, _ := newTestStore(nil, rel, conversation.Config{})

	uc.Update(ctx, "c", model.ContextPatch{LastArtifact: &model.Artifact{Kind: model.ArtifactVideo, URI: "v1"}})
	uc.Update(ctx, "c", model.ContextPatch{LastArtifact: &model.Artifact{Kind: model.ArtifactVideo, URI: "v2"}})
	uc.Wait()

	if got := uc.Get(ctx, "c"); got.LastArtifact == nil || got.LastArtifact.URI != "v2" {
		t.Errorf("expected v2 stored, got %+v", got.LastArtifact)
	}
}

func TestConcurrentUpdatesAreAtomicPerOperation(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()
	repo := newFakeRepo()
	uc, _ := newTestStore(repo, nil, conversation.Config{})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			uc.Update(ctx, "same", model.ContextPatch{ContinuationToken: strPtr(fmt.Sprintf("tok-%d", i))})
			_ = uc.Get(ctx, "same")
		}(i)
	}
	wg.Wait()
	uc.Wait()

	// Last write wins: whichever token is stored must be one of the written ones.
	got := uc.Get(ctx, "same").LastContinuationToken
	if got == "" {
		t.Errorf("expected one of the written tokens")
	}
	if uc.Stats().Total != 1 {
		t.Errorf("expected a single entry")
	}
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	uc, clk := newTestStore(nil, nil, conversation.Config{MaxSessions: 50})
	start := clk.now()

	uc.Update(ctx, "a", model.ContextPatch{})
	clk.advance(time.Minute)
	uc.Update(ctx, "b", model.ContextPatch{})

	st := uc.Stats()
	if st.Total != 2 || st.MaxSessions != 50 {
		t.Errorf("unexpected stats %+v", st)
	}
	if !st.Oldest.Equal(start) || !st.Newest.Equal(start.Add(time.Minute)) {
		t.Errorf("unexpected oldest/newest %v/%v", st.Oldest, st.Newest)
	}
}

func TestRunStopsWithContext(t *testing.T) {
	defer goleak.VerifyNone(t)
	repo := newFakeRepo()
	repo.purgeHit = make(chan struct{}, 1)
	uc, _ := newTestStore(repo, nil, conversation.Config{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- uc.Run(ctx, 5*time.Millisecond) }()

	select {
	case <-repo.purgeHit:
	case <-time.After(2 * time.Second):
		t.Fatal("expected a durable purge tick")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
