package model

import (
	"encoding/json"
	"slices"
	"time"
)

// ConversationContext is the stored memory of one conversation.
// A zero LastUpdateTime means the record never expires.
type ConversationContext struct {
	LastContinuationToken string        `json:"lastContinuationToken,omitempty"`
	LastUpdateTime        time.Time     `json:"lastUpdateTime,omitzero"`
	Table                 *TableContext `json:"structuredTableContext,omitempty"`
	LastArtifact          *Artifact     `json:"lastArtifact,omitempty"`

	// History comes from old records. Nothing reads it.
	History json.RawMessage `json:"history,omitempty"`
}

// TableContext remembers which Bitable table a conversation talks about.
type TableContext struct {
	AppToken      string        `json:"sourceId"`
	TableID       string        `json:"subResourceId,omitempty"`
	CachedSchema  []FieldSchema `json:"cachedSchema,omitempty"`
	LastResultIDs []string      `json:"lastResultIds,omitempty"`
	// Tables lists the candidates offered while no table is selected.
	Tables        []TableRef    `json:"tables,omitempty"`
}

// TableRef names one table of an app.
type TableRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Bound reports whether a concrete table is selected.
func (t *TableContext) Bound() bool {
	return t != nil && t.AppToken != "" && t.TableID != ""
}

// FieldSchema is one column of a table.
type FieldSchema struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Primary bool   `json:"primary,omitempty"`
}

type ArtifactKind string

const (
	ArtifactImage ArtifactKind = "image"
	ArtifactVideo ArtifactKind = "video"
)

// VideoSourceValidity is how long the generator keeps a video it produced.
const VideoSourceValidity = 48 * time.Hour

// Artifact is a generated media object held outside the process.
type Artifact struct {
	Kind       ArtifactKind `json:"kind"`
	URI        string       `json:"uri,omitempty"`
	ArchiveKey string       `json:"archiveKey,omitempty"`
	// SourceURI is the generator's own file URI for the media.
	SourceURI  string       `json:"sourceUri,omitempty"`
	CreatedAt  time.Time    `json:"createdAt"`
}

// Extendable reports whether a is a video the generator can still continue at now.
func (a *Artifact) Extendable(now time.Time) bool {
	if a == nil || a.Kind != ArtifactVideo || a.SourceURI == "" || a.CreatedAt.IsZero() {
		return false
	}
	return now.Sub(a.CreatedAt) < VideoSourceValidity
}

// Same reports whether a and b point at the same external object.
func (a *Artifact) Same(b *Artifact) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Kind == b.Kind && a.URI == b.URI && a.ArchiveKey == b.ArchiveKey && a.SourceURI == b.SourceURI
}

// ContextPatch carries the fields an Update should overwrite.
// Nil fields are left untouched. ClearTable drops the table context.
type ContextPatch struct {
	ContinuationToken *string
	Table             *TableContext
	ClearTable        bool
	LastArtifact      *Artifact
}

// Clone returns a deep copy so callers cannot mutate stored state.
func (c ConversationContext) Clone() ConversationContext {
	out := c
	out.Table = c.Table.clone()
	if c.LastArtifact != nil {
		a := *c.LastArtifact
		out.LastArtifact = &a
	}
	if c.History != nil {
		out.History = slices.Clone(c.History)
	}
	return out
}

// Empty reports whether nothing has ever been stored.
func (c ConversationContext) Empty() bool {
	return c.LastContinuationToken == "" && c.Table == nil && c.LastArtifact == nil && c.LastUpdateTime.IsZero()
}

func (t *TableContext) clone() *TableContext {
	if t == nil {
		return nil
	}
	out := *t
	out.CachedSchema = slices.Clone(t.CachedSchema)
	out.LastResultIDs = slices.Clone(t.LastResultIDs)
	out.Tables = slices.Clone(t.Tables)
	return &out
}

// Apply merges p into c. It does not touch LastUpdateTime.
func (c *ConversationContext) Apply(p ContextPatch) {
	if p.ContinuationToken != nil {
		c.LastContinuationToken = *p.ContinuationToken
	}
	if p.ClearTable {
		c.Table = nil
	}
	if p.Table != nil {
		c.Table = p.Table.clone()
	}
	if p.LastArtifact != nil {
		a := *p.LastArtifact
		c.LastArtifact = &a
	}
}
