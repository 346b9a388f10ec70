package gemini

import (
	"fmt"
	"strings"

	"github.com/ownmytodo/todoai/internal/ailink/content"
	"github.com/ownmytodo/todoai/internal/ailink/driver"
)

type generateContentRequest struct {
	Contents          []geminiContent   `json:"contents"`
	SystemInstruction *geminiContent    `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	MaxOutputTokens *int     `json:"maxOutputTokens,omitempty"`
}

func buildRequest(req *driver.Request) (*generateContentRequest, error) {
	if req == nil {
		return nil, fmt.Errorf("request is required")
	}
	if strings.TrimSpace(req.Model) == "" {
		return nil, fmt.Errorf("model is required")
	}
	if len(req.Messages) == 0 {
		return nil, fmt.Errorf("messages are required")
	}

	payload := &generateContentRequest{}
	var system []part
	for _, msg := range req.Messages {
		parts, err := convertParts(msg.Content)
		if err != nil {
			return nil, err
		}
		switch msg.Role {
		case content.RoleSystem:
			system = append(system, parts...)
		case content.RoleAssistant:
			payload.Contents = append(payload.Contents, geminiContent{Role: "model", Parts: parts})
		default:
			payload.Contents = append(payload.Contents, geminiContent{Role: "user", Parts: parts})
		}
	}
	if len(payload.Contents) == 0 {
		return nil, fmt.Errorf("at least one user message is required")
	}
	if len(system) > 0 {
		payload.SystemInstruction = &geminiContent{Parts: system}
	}
	if req.Temperature != nil || req.MaxTokens != nil {
		payload.GenerationConfig = &generationConfig{
			Temperature:     req.Temperature,
			MaxOutputTokens: req.MaxTokens,
		}
	}
	return payload, nil
}

func convertParts(blocks []content.ContentBlock) ([]part, error) {
	parts := make([]part, 0, len(blocks))
	for _, block := range blocks {
		if block.Type != content.ContentTypeText {
			return nil, fmt.Errorf("unsupported content type: %s", block.Type)
		}
		parts = append(parts, part{Text: block.Text})
	}
	return parts, nil
}
