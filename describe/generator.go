package describe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPGenerator 是 OpenAI 兼容 chat completions 端点的客户端实现。
//
// 工程特征：
//   - 单次阻塞调用，无重试（超时/失败由 Describer 统一规则兜底）
//   - 协议：POST {Endpoint}/v1/chat/completions，Bearer 认证
//
// 使用场景：
//   - 任何暴露 OpenAI 兼容协议的文本生成服务（OpenAI、vLLM、本地推理网关）
type HTTPGenerator struct {
	// Endpoint 服务端点，例如 "https://api.openai.com"
	Endpoint string

	// APIKey Bearer 认证密钥（可选，自建网关可为空）
	APIKey string

	// Model 模型名称
	Model string

	// Timeout HTTP 客户端超时（Describer 的 context 超时仍然生效）
	Timeout time.Duration

	httpClient *http.Client
}

func NewHTTPGenerator(endpoint, apiKey, model string) *HTTPGenerator {
	return &HTTPGenerator{
		Endpoint: endpoint,
		APIKey:   apiKey,
		Model:    model,
		Timeout:  10 * time.Second,
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Describe 实现 Generator 接口。
func (g *HTTPGenerator) Describe(ctx context.Context, prompt string) (string, error) {
	if g.Endpoint == "" {
		return "", fmt.Errorf("describe: endpoint not configured")
	}

	body, err := json.Marshal(&chatRequest{
		Model: g.Model,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
		MaxTokens:   60,
		Temperature: 0.7,
	})
	if err != nil {
		return "", fmt.Errorf("describe: marshal request: %w", err)
	}

	url := g.Endpoint + "/v1/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("describe: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.APIKey)
	}

	resp, err := g.client().Do(req)
	if err != nil {
		return "", fmt.Errorf("describe: request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("describe: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("describe: unexpected status %d: %s", resp.StatusCode, data)
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("describe: parse response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("describe: service error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("describe: empty completion")
	}

	return parsed.Choices[0].Message.Content, nil
}

func (g *HTTPGenerator) client() *http.Client {
	if g.httpClient == nil {
		timeout := g.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		g.httpClient = &http.Client{Timeout: timeout}
	}
	return g.httpClient
}

var _ Generator = (*HTTPGenerator)(nil)
