package gemini

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/genai"
)

// Generator produces grounded text for a prompt.
type Generator interface {
	Generate(ctx context.Context, model, prompt string) (*GroundedText, error)
}

// GenAIGenerator calls the Gemini API with Google Search grounding enabled.
type GenAIGenerator struct {
	client *genai.Client
	logger *logrus.Logger
}

func NewGenAIGenerator(ctx context.Context, apiKey, baseURL string, timeout time.Duration, logger *logrus.Logger) (*GenAIGenerator, error) {
	config := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: timeout},
	}
	if baseURL != "" {
		config.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GenAIGenerator{
		client: client,
		logger: logger,
	}, nil
}

func (g *GenAIGenerator) Generate(ctx context.Context, model, prompt string) (*GroundedText, error) {
	config := &genai.GenerateContentConfig{
		Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	}

	g.logger.WithFields(logrus.Fields{
		"model":         model,
		"prompt_length": len(prompt),
	}).Debug("Making Gemini API request")

	resp, err := g.client.Models.GenerateContent(ctx, model, genai.Text(prompt), config)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	return groundedTextFrom(resp), nil
}

// groundedTextFrom flattens the first candidate into text and citation data.
func groundedTextFrom(resp *genai.GenerateContentResponse) *GroundedText {
	out := &GroundedText{}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return out
	}

	candidate := resp.Candidates[0]
	if candidate.Content != nil {
		var text strings.Builder
		for _, part := range candidate.Content.Parts {
			if part != nil && part.Text != "" && !part.Thought {
				text.WriteString(part.Text)
			}
		}
		out.Text = text.String()
	}

	meta := candidate.GroundingMetadata
	if meta == nil || meta.GroundingSupports == nil || meta.GroundingChunks == nil {
		return out
	}

	out.Sources = make([]CitationSource, len(meta.GroundingChunks))
	for i, chunk := range meta.GroundingChunks {
		if chunk != nil && chunk.Web != nil {
			out.Sources[i] = CitationSource{URI: chunk.Web.URI, Title: chunk.Web.Title}
		}
	}

	out.Supports = make([]CitationSupport, 0, len(meta.GroundingSupports))
	for _, support := range meta.GroundingSupports {
		if support == nil || support.Segment == nil {
			continue
		}
		indices := make([]int, len(support.GroundingChunkIndices))
		for i, idx := range support.GroundingChunkIndices {
			indices[i] = int(idx)
		}
		out.Supports = append(out.Supports, CitationSupport{
			EndIndex:     int(support.Segment.EndIndex),
			ChunkIndices: indices,
		})
	}

	return out
}
