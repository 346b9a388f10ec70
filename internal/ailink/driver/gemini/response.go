package gemini

import (
	"fmt"

	"github.com/ownmytodo/todoai/internal/ailink/content"
	"github.com/ownmytodo/todoai/internal/ailink/driver"
)

type generateContentResponse struct {
	Candidates     []candidate     `json:"candidates"`
	PromptFeedback *promptFeedback `json:"promptFeedback,omitempty"`
	UsageMetadata  *usageMetadata  `json:"usageMetadata,omitempty"`
}

type candidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason"`
}

type promptFeedback struct {
	BlockReason string `json:"blockReason"`
}

type usageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

func toDriverResponse(resp *generateContentResponse) (*driver.Response, error) {
	if resp == nil {
		return nil, fmt.Errorf("empty response")
	}
	if len(resp.Candidates) == 0 {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return nil, fmt.Errorf("prompt blocked: %s", resp.PromptFeedback.BlockReason)
		}
		return nil, fmt.Errorf("empty response candidates")
	}

	c := resp.Candidates[0]
	blocks := make([]content.ContentBlock, 0, len(c.Content.Parts))
	for _, p := range c.Content.Parts {
		blocks = append(blocks, content.ContentBlock{Type: content.ContentTypeText, Text: p.Text})
	}

	out := &driver.Response{
		Content:      blocks,
		FinishReason: c.FinishReason,
	}
	if resp.UsageMetadata != nil {
		out.Usage = &driver.Usage{
			PromptTokens:     resp.UsageMetadata.PromptTokenCount,
			CompletionTokens: resp.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      resp.UsageMetadata.TotalTokenCount,
		}
	}
	return out, nil
}
