package usecase

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/linusssssai/feishu-bot-vercel/internal/conversation"
	"github.com/linusssssai/feishu-bot-vercel/internal/conversation/repository"
	"github.com/linusssssai/feishu-bot-vercel/internal/model"
)

// isExpired treats a zero LastUpdateTime as never expiring.
func (uc *implUseCase) isExpired(cc model.ConversationContext) bool {
	if cc.LastUpdateTime.IsZero() {
		return false
	}
	return uc.now().Sub(cc.LastUpdateTime) > uc.cfg.TTL
}

func (uc *implUseCase) Get(ctx context.Context, id string) model.ConversationContext {
	uc.mu.Lock()
	if cc, ok := uc.entries[id]; ok {
		if !uc.isExpired(cc) {
			uc.mu.Unlock()
			return cc.Clone()
		}
		delete(uc.entries, id)
	}
	uc.mu.Unlock()

	if uc.repo == nil {
		return model.ConversationContext{}
	}

	cc, err := uc.repo.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			uc.l.Warnf(ctx, "%s: durable read %s: %v", conversation.LogPrefixGet, id, err)
		}
		return model.ConversationContext{}
	}
	if uc.isExpired(cc) {
		return model.ConversationContext{}
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()
	if cur, ok := uc.entries[id]; ok && !uc.isExpired(cur) && !cur.LastUpdateTime.Before(cc.LastUpdateTime) {
		return cur.Clone()
	}
	uc.entries[id] = cc.Clone()
	return cc
}

func (uc *implUseCase) Update(ctx context.Context, id string, patch model.ContextPatch) {
	uc.mu.Lock()
	cur, ok := uc.entries[id]
	if ok && uc.isExpired(cur) {
		cur = model.ConversationContext{}
	}
	prev := cur.LastArtifact

	next := cur.Clone()
	next.Apply(patch)
	next.LastUpdateTime = uc.now()
	uc.entries[id] = next
	over := len(uc.entries) > uc.cfg.MaxSessions
	uc.mu.Unlock()

	if over {
		uc.Cleanup(ctx)
	}

	if patch.LastArtifact != nil && prev != nil && !prev.Same(patch.LastArtifact) && uc.releaser != nil {
		superseded := *prev
		uc.detach(ctx, "release", func(ctx context.Context) error {
			return uc.releaser.Release(ctx, superseded)
		})
	}

	if uc.repo != nil {
		snapshot := next.Clone()
		expiresAt := snapshot.LastUpdateTime.Add(uc.cfg.RowTTL)
		uc.detach(ctx, "save "+id, func(ctx context.Context) error {
			return uc.repo.Save(ctx, repository.SaveOptions{ID: id, Context: snapshot, ExpiresAt: expiresAt})
		})
	}
}

func (uc *implUseCase) Delete(ctx context.Context, id string) {
	uc.mu.Lock()
	delete(uc.entries, id)
	uc.mu.Unlock()
}

// Reset forgets the conversation in both tiers.
func (uc *implUseCase) Reset(ctx context.Context, id string) {
	uc.Delete(ctx, id)
	if uc.repo != nil {
		uc.detach(ctx, "delete "+id, func(ctx context.Context) error {
			return uc.repo.Delete(ctx, id)
		})
	}
}

// Cleanup drops expired entries, then the least recently updated ones
// until the map fits MaxSessions.
func (uc *implUseCase) Cleanup(ctx context.Context) int {
	uc.mu.Lock()
	removed := 0
	for id, cc := range uc.entries {
		if uc.isExpired(cc) {
			delete(uc.entries, id)
			removed++
		}
	}

	if over := len(uc.entries) - uc.cfg.MaxSessions; over > 0 {
		type aged struct {
			id string
			at time.Time
		}
		all := make([]aged, 0, len(uc.entries))
		for id, cc := range uc.entries {
			all = append(all, aged{id: id, at: cc.LastUpdateTime})
		}
		sort.Slice(all, func(i, j int) bool { return all[i].at.Before(all[j].at) })
		for _, a := range all[:over] {
			delete(uc.entries, a.id)
			removed++
		}
	}
	uc.mu.Unlock()

	if removed > 0 {
		uc.l.Infof(ctx, "%s: removed %d sessions", conversation.LogPrefixCleanup, removed)
	}
	return removed
}

func (uc *implUseCase) Stats() conversation.Stats {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	st := conversation.Stats{Total: len(uc.entries), MaxSessions: uc.cfg.MaxSessions, TTL: uc.cfg.TTL}
	for _, cc := range uc.entries {
		at := cc.LastUpdateTime
		if at.IsZero() {
			continue
		}
		if st.Oldest.IsZero() || at.Before(st.Oldest) {
			st.Oldest = at
		}
		if at.After(st.Newest) {
			st.Newest = at
		}
	}
	return st
}

// Wait blocks until every background save and release has finished.
func (uc *implUseCase) Wait() {
	uc.pending.Wait()
}

// Run cleans Tier 1 and purges expired Tier-2 rows every interval until ctx is done.
func (uc *implUseCase) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			uc.Cleanup(ctx)
			if uc.repo == nil {
				continue
			}
			n, err := uc.repo.DeleteExpired(ctx, uc.now())
			if err != nil {
				uc.l.Warnf(ctx, "%s: purge durable rows: %v", conversation.LogPrefixRun, err)
				continue
			}
			if n > 0 {
				uc.l.Infof(ctx, "%s: purged %d durable rows", conversation.LogPrefixRun, n)
			}
		}
	}
}

// detach runs fn on its own goroutine, cut off from the caller's cancellation.
func (uc *implUseCase) detach(ctx context.Context, what string, fn func(context.Context) error) {
	uc.pending.Add(1)
	go func() {
		defer uc.pending.Done()
		bgCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), uc.cfg.WriteTimeout)
		defer cancel()
		if err := fn(bgCtx); err != nil {
			uc.l.Warnf(bgCtx, "%s: %s: %v", conversation.LogPrefixDetached, what, err)
		}
	}()
}
