package aiengine

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// systemPrompt is fixed for every live call (spec §4.4: "a fixed system
// prompt plus the context JSON"). It is never templated per-function —
// all per-function detail lives in the context JSON body.
const systemPrompt = `You are the Haira AI Intent Engine. You receive a canonical JSON
description of one unimplemented function and must respond with a single
CIR JSON object matching the Haira CIR schema (cir_version "1.0"). Use only
the closed CIR operation set. Never include commentary outside the JSON
object.`

// Client is the live LLM call surface the engine depends on. Kept as an
// interface so tests substitute a stub without touching the network,
// matching the CIR validation reject-then-retry and cache-hit scenarios
// in spec §8.
type Client interface {
	Complete(ctx context.Context, model, contextJSON string) (string, error)
}

// GenaiClient wraps google.golang.org/genai as the engine's live LLM
// client, grounded on the genai client-construction shape used by
// internal/embedding in the codenerd example repo (NewClient once,
// reused across calls).
type GenaiClient struct {
	client *genai.Client
}

func NewGenaiClient(ctx context.Context, apiKey, endpoint string) (*GenaiClient, error) {
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if endpoint != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: endpoint}
	}
	c, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("aiengine: constructing genai client: %w", err)
	}
	return &GenaiClient{client: c}, nil
}

func (g *GenaiClient) Complete(ctx context.Context, model, contextJSON string) (string, error) {
	prompt := systemPrompt + "\n\n" + contextJSON
	resp, err := g.client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("aiengine: live call failed: %w", err)
	}
	return resp.Text(), nil
}
