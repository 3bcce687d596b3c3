package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/linusssssai/feishu-bot-vercel/internal/assistant"
	"github.com/linusssssai/feishu-bot-vercel/internal/conversation"
	convUC "github.com/linusssssai/feishu-bot-vercel/internal/conversation/usecase"
	"github.com/linusssssai/feishu-bot-vercel/internal/model"
	"github.com/linusssssai/feishu-bot-vercel/internal/router"
	"github.com/linusssssai/feishu-bot-vercel/pkg/feishu"
	"github.com/linusssssai/feishu-bot-vercel/pkg/gemini"
	"github.com/linusssssai/feishu-bot-vercel/pkg/llmprovider"
	pkgLog "github.com/linusssssai/feishu-bot-vercel/pkg/log"
)

// Mock logger for testing
type mockLogger struct {
	mu     sync.Mutex
	errors []string
}

func (m *mockLogger) Debug(ctx context.Context, arg ...any)                   {}
func (m *mockLogger) Debugf(ctx context.Context, template string, arg ...any) {}
func (m *mockLogger) Info(ctx context.Context, arg ...any)                    {}
func (m *mockLogger) Infof(ctx context.Context, template string, arg ...any)  {}
func (m *mockLogger) Warn(ctx context.Context, arg ...any)                    {}
func (m *mockLogger) Warnf(ctx context.Context, template string, arg ...any)  {}
func (m *mockLogger) Error(ctx context.Context, arg ...any)                   {}
func (m *mockLogger) Errorf(ctx context.Context, template string, arg ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, fmt.Sprintf(template, arg...))
}
func (m *mockLogger) DPanic(ctx context.Context, arg ...any)                   {}
func (m *mockLogger) DPanicf(ctx context.Context, template string, arg ...any) {}
func (m *mockLogger) Panic(ctx context.Context, arg ...any)                    {}
func (m *mockLogger) Panicf(ctx context.Context, template string, arg ...any)  {}
func (m *mockLogger) Fatal(ctx context.Context, arg ...any)                    {}
func (m *mockLogger) Fatalf(ctx context.Context, template string, arg ...any)  {}

var _ pkgLog.Logger = (*mockLogger)(nil)

// mockInvoker answers per capability from a queue of scripted results.
type mockInvoker struct {
	mu       sync.Mutex
	scripts  map[llmprovider.Capability][]result
	requests []llmprovider.Request
	// block makes every call wait for ctx to end.
	block bool
}

type result struct {
	resp *llmprovider.Response
	err  error
}

func newMockInvoker() *mockInvoker {
	return &mockInvoker{scripts: make(map[llmprovider.Capability][]result)}
}

func (m *mockInvoker) on(c llmprovider.Capability, resp *llmprovider.Response, err error) *mockInvoker {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scripts[c] = append(m.scripts[c], result{resp: resp, err: err})
	return m
}

func (m *mockInvoker) Invoke(ctx context.Context, req *llmprovider.Request) (*llmprovider.Response, error) {
	m.mu.Lock()
	m.requests = append(m.requests, *req)
	block := m.block
	queue := m.scripts[req.Capability]
	var r result
	if len(queue) > 0 {
		r = queue[0]
		m.scripts[req.Capability] = queue[1:]
	} else {
		r = result{err: fmt.Errorf("no script for %s", req.Capability)}
	}
	m.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if r.err != nil {
		return nil, r.err
	}
	if req.Validate != nil {
		if err := req.Validate(r.resp); err != nil {
			return nil, err
		}
	}
	return r.resp, nil
}

func (m *mockInvoker) lastRequest(c llmprovider.Capability) (llmprovider.Request, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.requests) - 1; i >= 0; i-- {
		if m.requests[i].Capability == c {
			return m.requests[i], true
		}
	}
	return llmprovider.Request{}, false
}

// mockMessenger records outbound replies.
type mockMessenger struct {
	mu       sync.Mutex
	texts    []string
	images   []model.Image
	videos   []model.Video
	fetchErr error
	fetched  map[string]model.Image
}

func newMockMessenger() *mockMessenger {
	return &mockMessenger{fetched: make(map[string]model.Image)}
}

func (m *mockMessenger) ReplyText(ctx context.Context, target, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts = append(m.texts, text)
	return nil
}

func (m *mockMessenger) ReplyImage(ctx context.Context, target string, img model.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.images = append(m.images, img)
	return nil
}

func (m *mockMessenger) ReplyVideo(ctx context.Context, target string, v model.Video) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.videos = append(m.videos, v)
	return nil
}

func (m *mockMessenger) FetchImage(ctx context.Context, ref model.ImageRef) (model.Image, error) {
	if m.fetchErr != nil {
		return model.Image{}, m.fetchErr
	}
	return model.Image{Data: []byte("img:" + ref.Key), MIMEType: "image/png"}, nil
}

func (m *mockMessenger) lastText() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.texts) == 0 {
		return ""
	}
	return m.texts[len(m.texts)-1]
}

// mockTables is an in-memory Bitable app.
type mockTables struct {
	mu        sync.Mutex
	tables    []feishu.Table
	fields    map[string][]feishu.Field
	records   map[string][]feishu.Record
	filters   []string
	deleted   []string
	updated   map[string]map[string]any
	created   []map[string]any
	newTables []string
	nextID    int
}

func newMockTables() *mockTables {
	return &mockTables{
		tables: []feishu.Table{{TableID: "tblA", Name: "订单表"}, {TableID: "tblB", Name: "员工表"}},
		fields: map[string][]feishu.Field{
			"tblA": {{FieldName: "订单号", Type: feishu.FieldTypeText, IsPrimary: true}, {FieldName: "金额", Type: feishu.FieldTypeNumber}},
			"tblB": {{FieldName: "姓名", Type: feishu.FieldTypeText, IsPrimary: true}, {FieldName: "部门", Type: feishu.FieldTypeSingleSelect}},
		},
		records: map[string][]feishu.Record{
			"tblB": {
				{RecordID: "recA1", Fields: map[string]any{"姓名": "张三", "部门": "研发"}},
				{RecordID: "recA2", Fields: map[string]any{"姓名": "李四", "部门": "市场"}},
			},
		},
		updated: make(map[string]map[string]any),
	}
}

func (m *mockTables) ListTables(ctx context.Context, appToken string) ([]feishu.Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]feishu.Table(nil), m.tables...), nil
}

func (m *mockTables) CreateTable(ctx context.Context, appToken, name string, fields []feishu.TableField) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := fmt.Sprintf("tblNew%d", m.nextID)
	m.tables = append(m.tables, feishu.Table{TableID: id, Name: name})
	cols := make([]feishu.Field, len(fields))
	for i, f := range fields {
		cols[i] = feishu.Field{FieldName: f.FieldName, Type: f.Type, IsPrimary: i == 0}
	}
	m.fields[id] = cols
	m.newTables = append(m.newTables, name)
	return id, nil
}

func (m *mockTables) ListFields(ctx context.Context, appToken, tableID string) ([]feishu.Field, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.fields[tableID]
	if !ok {
		return nil, &feishu.APIError{Code: feishu.CodeTableIDNotFound, Msg: "TableIdNotFound"}
	}
	return f, nil
}

func (m *mockTables) ListRecords(ctx context.Context, appToken, tableID, filter string, pageSize int) ([]feishu.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filters = append(m.filters, filter)
	return append([]feishu.Record(nil), m.records[tableID]...), nil
}

func (m *mockTables) CreateRecord(ctx context.Context, appToken, tableID string, fields map[string]any) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, fields)
	return "recNew", nil
}

func (m *mockTables) UpdateRecord(ctx context.Context, appToken, tableID, recordID string, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updated[recordID] = fields
	return nil
}

func (m *mockTables) DeleteRecord(ctx context.Context, appToken, tableID, recordID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, recordID)
	return nil
}

type mockVideo struct {
	video *gemini.Video
	err   error
	got   string
	req   gemini.VideoRequest
	calls int
}

func (m *mockVideo) GenerateVideo(ctx context.Context, req gemini.VideoRequest) (*gemini.Video, error) {
	m.calls++
	m.got = req.Prompt
	m.req = req
	return m.video, m.err
}

type mockArtifacts struct {
	mu   sync.Mutex
	puts []model.ArtifactKind
}

func (m *mockArtifacts) Put(ctx context.Context, kind model.ArtifactKind, data []byte, mimeType string) (model.Artifact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts = append(m.puts, kind)
	return model.Artifact{Kind: kind, ArchiveKey: fmt.Sprintf("k%d", len(m.puts)), CreatedAt: time.Now()}, nil
}

// fixture wires a usecase against in-memory collaborators.
type fixture struct {
	uc        *implUseCase
	llm       *mockInvoker
	store     conversation.UseCase
	tables    *mockTables
	video     *mockVideo
	artifacts *mockArtifacts
	msg       *mockMessenger
	log       *mockLogger
}

func newFixture(cfg assistant.Config) *fixture {
	f := &fixture{
		llm:       newMockInvoker(),
		store:     convUC.New(pkgLog.NewNop(), nil, nil, conversation.Config{}),
		tables:    newMockTables(),
		video:     &mockVideo{},
		artifacts: &mockArtifacts{},
		msg:       newMockMessenger(),
		log:       &mockLogger{},
	}
	r := router.New(router.DefaultVocabulary(), f.llm, pkgLog.NewNop())
	f.uc = New(f.log, f.llm, r, f.store, f.tables, f.video, f.artifacts, cfg)
	return f
}

func (f *fixture) send(conversationID, text string, images ...model.ImageRef) {
	f.uc.Handle(context.Background(), f.msg, model.Event{
		ID:             "ev-" + text,
		ConversationID: conversationID,
		ReplyTo:        "om_1",
		Platform:       model.PlatformFeishu,
		Message:        model.Message{Text: text, Images: images, RawType: "text"},
	})
}

func primary(text, token string) *llmprovider.Response {
	return &llmprovider.Response{Text: text, Token: token, Provider: "interactions"}
}

func fallback(text string) *llmprovider.Response {
	return &llmprovider.Response{Text: text, Provider: "genai"}
}
