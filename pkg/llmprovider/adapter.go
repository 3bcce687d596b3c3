package llmprovider

import (
	"context"

	"github.com/linusssssai/feishu-bot-vercel/pkg/gemini"
)

// Provider names
const (
	ProviderInteractions = "interactions"
	ProviderGenAI        = "genai"
)

// InteractionsAdapter adapts the stateful Interactions API to Provider.
type InteractionsAdapter struct {
	client     gemini.IInteractions
	model      string
	imageModel string
}

// NewInteractionsAdapter creates the primary adapter. Empty models fall back
// to the client's defaults.
func NewInteractionsAdapter(client gemini.IInteractions, model, imageModel string) *InteractionsAdapter {
	if model == "" {
		model = client.Model()
	}
	if imageModel == "" {
		imageModel = gemini.DefaultImageModel
	}
	return &InteractionsAdapter{client: client, model: model, imageModel: imageModel}
}

// Generate implements Provider interface
func (a *InteractionsAdapter) Generate(ctx context.Context, req *Request) (*Response, error) {
	ir := gemini.InteractionRequest{
		Model:                 a.model,
		SystemInstruction:     req.SystemInstruction,
		PreviousInteractionID: req.PreviousToken,
		ResponseFormat:        req.ResponseSchema,
	}
	if req.Capability == CapabilityImageGeneration {
		ir.Model = a.imageModel
		ir.ResponseModalities = []string{gemini.ModalityText, gemini.ModalityImage}
	}
	for _, img := range req.Images {
		ir.Input = append(ir.Input, gemini.ImageItem(gemini.Blob{Data: img.Data, MIMEType: img.MIMEType}))
	}
	if req.Text != "" {
		ir.Input = append(ir.Input, gemini.TextItem(req.Text))
	}

	interaction, err := a.client.Create(ctx, ir)
	if err != nil {
		return nil, err
	}

	return &Response{
		Text:     interaction.Text(),
		Images:   fromBlobs(interaction.Images()),
		Token:    interaction.ID,
		Provider: ProviderInteractions,
		Model:    ir.Model,
	}, nil
}

// Name returns provider name
func (a *InteractionsAdapter) Name() string {
	return ProviderInteractions
}

// Model returns model name
func (a *InteractionsAdapter) Model() string {
	return a.model
}

// GenAIAdapter adapts the stateless genai SDK to Provider.
type GenAIAdapter struct {
	client gemini.IGenAI
	model  string
}

// NewGenAIAdapter creates the fallback adapter.
func NewGenAIAdapter(client gemini.IGenAI, model string) *GenAIAdapter {
	return &GenAIAdapter{client: client, model: model}
}

// Generate implements Provider interface. The previous token is ignored.
func (a *GenAIAdapter) Generate(ctx context.Context, req *Request) (*Response, error) {
	cr := gemini.ContentRequest{
		SystemInstruction: req.SystemInstruction,
		Text:              req.Text,
		ResponseSchema:    req.ResponseSchema,
	}
	if req.Capability == CapabilityImageGeneration {
		cr.ResponseModalities = []string{gemini.ModalityText, gemini.ModalityImage}
	} else {
		cr.Model = a.model
	}
	for _, img := range req.Images {
		cr.Images = append(cr.Images, gemini.Blob{Data: img.Data, MIMEType: img.MIMEType})
	}

	resp, err := a.client.GenerateContent(ctx, cr)
	if err != nil {
		return nil, err
	}

	return &Response{
		Text:     resp.Text,
		Images:   fromBlobs(resp.Images),
		Provider: ProviderGenAI,
		Model:    a.Model(),
	}, nil
}

// Name returns provider name
func (a *GenAIAdapter) Name() string {
	return ProviderGenAI
}

// Model returns model name
func (a *GenAIAdapter) Model() string {
	if a.model == "" {
		return a.client.Model()
	}
	return a.model
}

func fromBlobs(blobs []gemini.Blob) []Image {
	if len(blobs) == 0 {
		return nil
	}
	out := make([]Image, len(blobs))
	for i, b := range blobs {
		out[i] = Image{Data: b.Data, MIMEType: b.MIMEType}
	}
	return out
}
