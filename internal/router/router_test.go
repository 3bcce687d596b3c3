package router

import (
	"context"
	"errors"
	"testing"

	"github.com/linusssssai/feishu-bot-vercel/internal/model"
	"github.com/linusssssai/feishu-bot-vercel/pkg/llmprovider"
	pkgLog "github.com/linusssssai/feishu-bot-vercel/pkg/log"
)

type fakeInvoker struct {
	resp *llmprovider.Response
	err  error
	got  *llmprovider.Request
}

func (f *fakeInvoker) Invoke(ctx context.Context, req *llmprovider.Request) (*llmprovider.Response, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	if req.Validate != nil {
		if err := req.Validate(f.resp); err != nil {
			return nil, err
		}
	}
	return f.resp, nil
}

func TestRoute(t *testing.T) {
	r := New(DefaultVocabulary(), &fakeInvoker{}, pkgLog.NewNop())
	img := model.ImageRef{Key: "img_1", MessageID: "om_1"}

	tests := []struct {
		name string
		msg  model.Message
		want Route
	}{
		{"single image no text", model.Message{Images: []model.ImageRef{img}}, RouteImageUnderstanding},
		{"image with text", model.Message{Text: "换成夏天", Images: []model.ImageRef{img}}, RouteImageSynthesis},
		{"two images no text", model.Message{Images: []model.ImageRef{img, img}}, RouteImageSynthesis},
		{"empty", model.Message{RawType: "sticker"}, RouteUnsupported},
		{"whitespace only", model.Message{Text: "   "}, RouteUnsupported},
		{"bitable link", model.Message{Text: "用这个表 https://x.feishu.cn/base/AppTok1?table=tbl1 删除记录"}, RouteTableLink},
		{"media keyword", model.Message{Text: "画一只蓝色的猫"}, RouteMedia},
		{"media beats table", model.Message{Text: "删除这张图片的背景"}, RouteMedia},
		{"table keyword", model.Message{Text: "添加一条记录"}, RouteTable},
		{"english case folded", model.Message{Text: "Query the TABLE"}, RouteTable},
		{"default", model.Message{Text: "把猫改成红色"}, RouteDefault},
		{"casual", model.Message{Text: "你好"}, RouteDefault},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Route(tt.msg); got.Route != tt.want {
				t.Errorf("Route() = %s, want %s", got.Route, tt.want)
			}
		})
	}
}

func TestRoute_LinkCarriesReference(t *testing.T) {
	r := New(DefaultVocabulary(), &fakeInvoker{}, pkgLog.NewNop())
	d := r.Route(model.Message{Text: "https://x.feishu.cn/base/AppTok1?table=tbl9"})
	if d.Route != RouteTableLink {
		t.Fatalf("route = %s", d.Route)
	}
	if d.Link.AppToken != "AppTok1" || d.Link.TableID != "tbl9" {
		t.Errorf("unexpected link %+v", d.Link)
	}
}

func TestRoute_VocabularyIsData(t *testing.T) {
	vocab, err := ParseVocabulary([]byte("version: 7\nmedia: [Sketch]\ntable: [sheet, sketch]\n"))
	if err != nil {
		t.Fatalf("ParseVocabulary() error = %v", err)
	}
	r := New(vocab, &fakeInvoker{}, pkgLog.NewNop())

	if r.Version() != 7 {
		t.Errorf("Version() = %d", r.Version())
	}
	if got := r.Route(model.Message{Text: "a sketch sheet"}).Route; got != RouteMedia {
		t.Errorf("overlapping keyword routed to %s, want media", got)
	}
	if got := r.Route(model.Message{Text: "open the sheet"}).Route; got != RouteTable {
		t.Errorf("table keyword routed to %s", got)
	}
	if got := r.Route(model.Message{Text: "画一只猫"}).Route; got != RouteDefault {
		t.Errorf("built-in keyword leaked into custom vocabulary: %s", got)
	}
}

func TestParseVocabulary_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{"no version", "media: [a]\ntable: [b]\n", ErrVocabularyVersion},
		{"empty media", "version: 1\ntable: [b]\n", ErrVocabularyEmpty},
		{"empty table", "version: 1\nmedia: [a]\n", ErrVocabularyEmpty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseVocabulary([]byte(tt.data)); !errors.Is(err, tt.want) {
				t.Errorf("ParseVocabulary() error = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := ParseVocabulary([]byte("version: [")); err == nil {
		t.Error("expected YAML error")
	}
}

func TestLoadVocabulary(t *testing.T) {
	v, err := LoadVocabulary("")
	if err != nil {
		t.Fatalf("built-in vocabulary: %v", err)
	}
	if v.Version < 1 || len(v.Media) == 0 || len(v.Table) == 0 {
		t.Errorf("unexpected built-in vocabulary %+v", v)
	}

	if _, err := LoadVocabulary(t.TempDir() + "/missing.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestClassifyMedia(t *testing.T) {
	tests := []struct {
		name string
		inv  *fakeInvoker
		want MediaIntent
	}{
		{"image generation", &fakeInvoker{resp: &llmprovider.Response{Text: `{"intent":"image_generation"}`, Token: "t"}}, IntentImageGeneration},
		{"fenced json", &fakeInvoker{resp: &llmprovider.Response{Text: "```json\n{\"intent\":\"casual\"}\n```"}}, IntentCasual},
		{"chain failure", &fakeInvoker{err: llmprovider.ErrAllProvidersFailed}, IntentCasual},
		{"garbage", &fakeInvoker{resp: &llmprovider.Response{Text: "I think you want a picture"}}, IntentCasual},
		{"unknown label", &fakeInvoker{resp: &llmprovider.Response{Text: `{"intent":"video"}`}}, IntentCasual},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(DefaultVocabulary(), tt.inv, pkgLog.NewNop())
			if got := r.ClassifyMedia(context.Background(), "画一只猫", "prev"); got != tt.want {
				t.Errorf("ClassifyMedia() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestClassifyMedia_Request(t *testing.T) {
	inv := &fakeInvoker{resp: &llmprovider.Response{Text: `{"intent":"casual"}`}}
	r := New(DefaultVocabulary(), inv, pkgLog.NewNop())
	r.ClassifyMedia(context.Background(), "hello", "tok-1")

	if inv.got.Capability != llmprovider.CapabilityIntent {
		t.Errorf("capability = %s", inv.got.Capability)
	}
	if inv.got.PreviousToken != "tok-1" || inv.got.Text != "hello" {
		t.Errorf("unexpected request %+v", inv.got)
	}
	if inv.got.ResponseSchema == nil || inv.got.Validate == nil {
		t.Error("expected schema and validator")
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := map[string]string{
		`{"a":1}`:               `{"a":1}`,
		"```json\n{\"a\":1}\n```": `{"a":1}`,
		"```\n{\"a\":1}```":       `{"a":1}`,
		"  {\"a\":1}  ":           `{"a":1}`,
	}
	for in, want := range tests {
		if got := StripCodeFence(in); got != want {
			t.Errorf("StripCodeFence(%q) = %q, want %q", in, got, want)
		}
	}
}
