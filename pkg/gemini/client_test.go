package gemini_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/linusssssai/feishu-bot-vercel/pkg/gemini"
)

func TestBuildTableOperationPrompt(t *testing.T) {
	prompt := gemini.BuildTableOperationPrompt("删除第一条记录",
		[]gemini.SchemaField{{Name: "姓名", Type: "text"}},
		[]string{"rec1", "rec2"})

	for _, want := range []string{"删除第一条记录", `"name":"姓名"`, "1. rec1", "2. rec2", "create_table"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}

	bare := gemini.BuildTableOperationPrompt("查询", nil, nil)
	if strings.Contains(bare, "当前表格字段") || strings.Contains(bare, "记录ID（按显示顺序）") {
		t.Errorf("prompt must omit empty grounding sections")
	}
}

func TestInteractions_Create(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/interactions" || r.Method != http.MethodPost {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Header.Get("x-goog-api-key") != "test-api-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		var req gemini.InteractionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		switch req.Input[0].Text {
		case "cause_500":
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":"boom"}`))
		case "empty":
			w.Write([]byte(`{"id":"int_0","outputs":[]}`))
		default:
			w.Write([]byte(`{
				"id": "int_` + req.PreviousInteractionID + `next",
				"outputs": [
					{"type": "thought", "text": ""},
					{"type": "text", "text": "model: ` + req.Model + `"},
					{"type": "image", "data": "aGVsbG8=", "mime_type": "image/png"}
				]
			}`))
		}
	}))
	defer ts.Close()

	client, err := gemini.NewInteractions(gemini.Config{APIKey: "test-api-key", BaseURL: ts.URL + "/"})
	if err != nil {
		t.Fatalf("NewInteractions failed: %v", err)
	}

	t.Run("Success Flow", func(t *testing.T) {
		got, err := client.Create(context.Background(), gemini.InteractionRequest{
			Input:                 []gemini.InputItem{gemini.TextItem("hi")},
			PreviousInteractionID: "prev",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.ID != "int_prevnext" {
			t.Errorf("unexpected id %q", got.ID)
		}
		if got.Text() != "model: "+gemini.DefaultChatModel {
			t.Errorf("unexpected text %q", got.Text())
		}
		imgs := got.Images()
		if len(imgs) != 1 || string(imgs[0].Data) != "hello" || imgs[0].MIMEType != "image/png" {
			t.Errorf("unexpected images %+v", imgs)
		}
	})

	t.Run("API Error", func(t *testing.T) {
		_, err := client.Create(context.Background(), gemini.InteractionRequest{
			Input: []gemini.InputItem{gemini.TextItem("cause_500")},
		})
		var apiErr *gemini.APIError
		if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusInternalServerError {
			t.Errorf("expected APIError 500, got %v", err)
		}
	})

	t.Run("Empty Output", func(t *testing.T) {
		_, err := client.Create(context.Background(), gemini.InteractionRequest{
			Input: []gemini.InputItem{gemini.TextItem("empty")},
		})
		if !errors.Is(err, gemini.ErrEmptyOutput) {
			t.Errorf("expected ErrEmptyOutput, got %v", err)
		}
	})
}

func TestImageItem(t *testing.T) {
	item := gemini.ImageItem(gemini.Blob{Data: []byte("hello"), MIMEType: "image/jpeg"})
	if item.Type != gemini.ItemImage || item.Data != "aGVsbG8=" || item.MIMEType != "image/jpeg" {
		t.Errorf("unexpected item %+v", item)
	}
}

func TestConfig_Validate(t *testing.T) {
	var cfg gemini.Config
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error without API key")
	}

	cfg.APIKey = "k"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.VideoPollInterval != gemini.DefaultVideoPollInterval || cfg.VideoPollAttempts != gemini.DefaultVideoPollAttempts {
		t.Errorf("video poll defaults not applied: %+v", cfg)
	}
	if cfg.HTTPClient == nil {
		t.Errorf("http client not set")
	}
}

func TestGenAI_GenerateContent(t *testing.T) {
	var gotModel string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, ":generateContent") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		gotModel = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"candidates": [{
				"content": {
					"role": "model",
					"parts": [
						{"text": "一只猫"},
						{"inlineData": {"mimeType": "image/png", "data": "aGVsbG8="}}
					]
				}
			}]
		}`))
	}))
	defer ts.Close()

	client, err := gemini.NewGenAI(context.Background(), gemini.Config{APIKey: "k"}, ts.URL)
	if err != nil {
		t.Fatalf("NewGenAI failed: %v", err)
	}

	resp, err := client.GenerateContent(context.Background(), gemini.ContentRequest{
		Text:               "画一只猫",
		ResponseModalities: []string{gemini.ModalityText, gemini.ModalityImage},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text != "一只猫" {
		t.Errorf("unexpected text %q", resp.Text)
	}
	if len(resp.Images) != 1 || string(resp.Images[0].Data) != "hello" {
		t.Errorf("unexpected images %+v", resp.Images)
	}
	if !strings.Contains(gotModel, gemini.DefaultImageModel) {
		t.Errorf("image output must select the image model, path was %q", gotModel)
	}
}

func TestGenAI_GenerateVideo(t *testing.T) {
	tests := []struct {
		name     string
		req      gemini.VideoRequest
		wantBody string
	}{
		{"text", gemini.VideoRequest{Prompt: "海边日落"}, "海边日落"},
		{"from image", gemini.VideoRequest{Prompt: "让猫动起来", Image: &gemini.Blob{Data: []byte("hello"), MIMEType: "image/png"}}, "aGVsbG8="},
		{"extend", gemini.VideoRequest{Prompt: "继续", ExtendURI: "https://generativelanguage.googleapis.com/v1beta/files/vid1"}, "files/vid1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body string
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if !strings.HasSuffix(r.URL.Path, ":predictLongRunning") {
					w.WriteHeader(http.StatusNotFound)
					return
				}
				raw, _ := io.ReadAll(r.Body)
				body = string(raw)
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{"name":"operations/op1","done":true,"response":{"generateVideoResponse":{"generatedSamples":[
					{"video":{"uri":"https://x/files/out1","encodedVideo":"aGVsbG8=","encoding":"video/mp4"}}]}}}`))
			}))
			defer ts.Close()

			client, err := gemini.NewGenAI(context.Background(), gemini.Config{APIKey: "k", VideoPollInterval: time.Millisecond}, ts.URL)
			if err != nil {
				t.Fatalf("NewGenAI failed: %v", err)
			}
			v, err := client.GenerateVideo(context.Background(), tt.req)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !strings.Contains(body, tt.wantBody) {
				t.Errorf("request body %s missing %q", body, tt.wantBody)
			}
			if v.URI != "https://x/files/out1" || len(v.Data) == 0 {
				t.Errorf("unexpected video %+v", v)
			}
		})
	}
}

func TestGenAI_GenerateVideoRejectsTwoSources(t *testing.T) {
	client, err := gemini.NewGenAI(context.Background(), gemini.Config{APIKey: "k"}, "http://127.0.0.1:1")
	if err != nil {
		t.Fatalf("NewGenAI failed: %v", err)
	}
	_, err = client.GenerateVideo(context.Background(), gemini.VideoRequest{
		Prompt:    "x",
		Image:     &gemini.Blob{Data: []byte("a")},
		ExtendURI: "files/v",
	})
	if !errors.Is(err, gemini.ErrVideoSource) {
		t.Errorf("err = %v, want ErrVideoSource", err)
	}
}
