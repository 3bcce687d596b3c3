package gemini

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"
)

type genaiImpl struct {
	client     *genai.Client
	chatModel  string
	imageModel string
	videoModel string

	pollInterval time.Duration
	pollAttempts int
}

// NewGenAI creates the SDK-backed client. sdkBaseURL overrides the API host and is
// only set in tests.
func NewGenAI(ctx context.Context, cfg Config, sdkBaseURL string) (IGenAI, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if sdkBaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: sdkBaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini: failed to create genai client: %w", err)
	}

	return &genaiImpl{
		client:       client,
		chatModel:    cfg.ChatModel,
		imageModel:   cfg.ImageModel,
		videoModel:   cfg.VideoModel,
		pollInterval: cfg.VideoPollInterval,
		pollAttempts: cfg.VideoPollAttempts,
	}, nil
}

// GenerateContent runs one stateless generateContent call. An empty req.Model
// selects the image model when image output is requested, else the chat model.
func (g *genaiImpl) GenerateContent(ctx context.Context, req ContentRequest) (*ContentResponse, error) {
	modelName := req.Model
	if modelName == "" {
		modelName = g.chatModel
		for _, m := range req.ResponseModalities {
			if m == ModalityImage {
				modelName = g.imageModel
			}
		}
	}

	parts := make([]*genai.Part, 0, len(req.Images)+1)
	for _, img := range req.Images {
		parts = append(parts, genai.NewPartFromBytes(img.Data, img.MIMEType))
	}
	if req.Text != "" {
		parts = append(parts, genai.NewPartFromText(req.Text))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	cfg := &genai.GenerateContentConfig{ResponseModalities: req.ResponseModalities}
	if req.SystemInstruction != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.SystemInstruction, genai.RoleUser)
	}
	if req.ResponseSchema != nil {
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseJsonSchema = req.ResponseSchema
	}

	resp, err := g.client.Models.GenerateContent(ctx, modelName, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: generateContent: %w", err)
	}

	out := &ContentResponse{Text: resp.Text()}
	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, p := range resp.Candidates[0].Content.Parts {
			if p.InlineData != nil && len(p.InlineData.Data) > 0 {
				out.Images = append(out.Images, Blob{Data: p.InlineData.Data, MIMEType: p.InlineData.MIMEType})
			}
		}
	}
	if out.Text == "" && len(out.Images) == 0 {
		return nil, ErrEmptyOutput
	}
	return out, nil
}

// GenerateVideo starts a Veo job and polls it until it finishes, the attempt
// budget runs out, or ctx is done.
func (g *genaiImpl) GenerateVideo(ctx context.Context, req VideoRequest) (*Video, error) {
	if req.Image != nil && req.ExtendURI != "" {
		return nil, ErrVideoSource
	}
	src := &genai.GenerateVideosSource{Prompt: req.Prompt}
	if req.Image != nil {
		src.Image = &genai.Image{ImageBytes: req.Image.Data, MIMEType: req.Image.MIMEType}
	}
	if req.ExtendURI != "" {
		src.Video = &genai.Video{URI: req.ExtendURI}
	}

	op, err := g.client.Models.GenerateVideosFromSource(ctx, g.videoModel, src, &genai.GenerateVideosConfig{
		NumberOfVideos: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: generateVideos: %w", err)
	}

	err = poll(ctx, g.pollInterval, g.pollAttempts, func(ctx context.Context) (bool, error) {
		if op.Done {
			return true, nil
		}
		next, err := g.client.Operations.GetVideosOperation(ctx, op, nil)
		if err != nil {
			return false, fmt.Errorf("gemini: get video operation: %w", err)
		}
		op = next
		return op.Done, nil
	})
	if err != nil {
		return nil, err
	}

	if op.Error != nil {
		return nil, fmt.Errorf("%w: %v", ErrVideoFailed, op.Error)
	}
	if op.Response == nil || len(op.Response.GeneratedVideos) == 0 || op.Response.GeneratedVideos[0].Video == nil {
		return nil, ErrNoVideoProduced
	}

	gv := op.Response.GeneratedVideos[0]
	video := &Video{Data: gv.Video.VideoBytes, MIMEType: gv.Video.MIMEType, URI: gv.Video.URI}
	if len(video.Data) == 0 && video.URI != "" {
		data, err := g.client.Files.Download(ctx, genai.NewDownloadURIFromGeneratedVideo(gv), nil)
		if err != nil {
			return nil, fmt.Errorf("gemini: download video: %w", err)
		}
		video.Data = data
	}
	if video.MIMEType == "" {
		video.MIMEType = "video/mp4"
	}
	return video, nil
}

// Model returns the default chat model
func (g *genaiImpl) Model() string {
	return g.chatModel
}

// poll calls check once per interval, at most attempts times.
func poll(ctx context.Context, interval time.Duration, attempts int, check func(context.Context) (bool, error)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for i := 0; i < attempts; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		done, err := check(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
	return ErrVideoTimeout
}
