package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	apperrors "github.com/advista/advista-server-go/internal/errors"
	"github.com/advista/advista-server-go/internal/model"
)

// Client wraps one genai client per configured API key and rotates between
// them round-robin, spreading quota across keys.
type Client struct {
	clients   []*genai.Client
	modelName string
	next      atomic.Uint64
}

func NewClient(ctx context.Context, apiKeys []string, modelName string) (*Client, error) {
	if len(apiKeys) == 0 {
		return nil, errors.New("llm: at least one API key is required")
	}

	clients := make([]*genai.Client, 0, len(apiKeys))
	for _, key := range apiKeys {
		c, err := genai.NewClient(ctx, option.WithAPIKey(key))
		if err != nil {
			for _, created := range clients {
				_ = created.Close()
			}
			return nil, fmt.Errorf("create genai client: %w", err)
		}
		clients = append(clients, c)
	}

	return &Client{clients: clients, modelName: modelName}, nil
}

func (c *Client) Close() {
	for _, client := range c.clients {
		if err := client.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close genai client")
		}
	}
}

func (c *Client) pick() *genai.Client {
	n := c.next.Add(1)
	return c.clients[(n-1)%uint64(len(c.clients))]
}

func (c *Client) generativeModel(systemInstruction string) *genai.GenerativeModel {
	m := c.pick().GenerativeModel(c.modelName)
	if systemInstruction != "" {
		m.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(systemInstruction)},
		}
	}
	return m
}

func toHistory(messages []model.ChatMessage) []*genai.Content {
	history := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		role := "user"
		if msg.Role == model.RoleAssistant {
			role = "model"
		}
		history = append(history, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(msg.Content)},
		})
	}
	return history
}

// Chat sends userMessage against the prior conversation and returns the full
// model response.
func (c *Client) Chat(ctx context.Context, systemInstruction string, history []model.ChatMessage, userMessage string) (string, error) {
	m := c.generativeModel(systemInstruction)
	session := m.StartChat()
	session.History = toHistory(history)

	resp, err := session.SendMessage(ctx, genai.Text(userMessage))
	if err != nil {
		return "", apperrors.External("gemini", err)
	}
	text := responseText(resp)
	if text == "" {
		return "", apperrors.External("gemini", errors.New("empty response"))
	}
	return text, nil
}

// ChatStream sends userMessage and invokes onToken for each chunk of the
// streamed response. It returns the concatenated full response.
func (c *Client) ChatStream(ctx context.Context, systemInstruction string, history []model.ChatMessage, userMessage string, onToken func(token string) error) (string, error) {
	m := c.generativeModel(systemInstruction)
	session := m.StartChat()
	session.History = toHistory(history)

	iter := session.SendMessageStream(ctx, genai.Text(userMessage))
	var full strings.Builder
	for {
		resp, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return full.String(), apperrors.External("gemini", err)
		}
		chunk := responseText(resp)
		if chunk == "" {
			continue
		}
		full.WriteString(chunk)
		if onToken != nil {
			if err := onToken(chunk); err != nil {
				return full.String(), err
			}
		}
	}
	return full.String(), nil
}

// GenerateJSON prompts the model for a JSON document and unmarshals it into
// out. The response MIME type is pinned to application/json; stray code
// fences are stripped as a fallback.
func (c *Client) GenerateJSON(ctx context.Context, systemInstruction string, prompt string, out any) error {
	m := c.generativeModel(systemInstruction)
	m.GenerationConfig.ResponseMIMEType = "application/json"

	resp, err := m.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return apperrors.External("gemini", err)
	}

	text := strings.TrimSpace(responseText(resp))
	if text == "" {
		return apperrors.External("gemini", errors.New("empty response"))
	}
	text = stripCodeFence(text)

	if err := json.Unmarshal([]byte(text), out); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeExternal, "gemini returned malformed JSON", err)
	}
	return nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	return sb.String()
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
