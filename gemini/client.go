package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"lunabot/config"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Client はGemini APIのチャットクライアントです。
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	timeout    time.Duration
	maxLength  int
	httpClient *http.Client
}

type geminiRequest struct {
	Contents          []geminiContent `json:"contents"`
	SystemInstruction *geminiContent  `json:"system_instruction,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// NewClient は設定からGeminiクライアントを作成します。
func NewClient(cfg *config.Config) (*Client, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, errors.New("gemini apiキーが提供されていません")
	}
	return &Client{
		apiKey:     cfg.GeminiAPIKey,
		model:      cfg.GeminiModel,
		baseURL:    defaultBaseURL,
		timeout:    time.Duration(cfg.AIResponseTimeout) * time.Second,
		maxLength:  cfg.MaxResponseLength,
		httpClient: &http.Client{},
	}, nil
}

// GenerateContent はプロンプトからテキストを生成します。
// systemInstruction にはパーソナリティのプロンプトをそのまま渡します。
// 応答は MAX_RESPONSE_LENGTH に収まるように切り詰められます。
func (c *Client) GenerateContent(ctx context.Context, prompt, systemInstruction string) (string, error) {
	apiURL := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)

	reqBody := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: prompt}}},
		},
	}
	if systemInstruction != "" {
		reqBody.SystemInstruction = &geminiContent{
			Parts: []geminiPart{{Text: systemInstruction}},
		}
	}

	reqJSON, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("リクエストJSONの作成に失敗: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewBuffer(reqJSON))
	if err != nil {
		return "", fmt.Errorf("httpリクエストの作成に失敗: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("apiへのリクエストに失敗: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("レスポンスボディの読み込みに失敗: %w", err)
	}

	var geminiResp geminiResponse
	if err := json.Unmarshal(body, &geminiResp); err != nil {
		return "", fmt.Errorf("レスポンスJSONのパースに失敗: %w", err)
	}
	if geminiResp.Error.Message != "" {
		return "", fmt.Errorf("apiエラー: %s", geminiResp.Error.Message)
	}
	if len(geminiResp.Candidates) > 0 && len(geminiResp.Candidates[0].Content.Parts) > 0 {
		return c.clamp(geminiResp.Candidates[0].Content.Parts[0].Text), nil
	}
	return "", errors.New("geminiから有効な応答がありませんでした")
}

// clamp はDiscordに流す前に応答を最大長へ切り詰めます。
func (c *Client) clamp(text string) string {
	text = strings.TrimSpace(text)
	if c.maxLength <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= c.maxLength {
		return text
	}
	const ellipsis = "..."
	cut := c.maxLength - len(ellipsis)
	if cut < 0 {
		cut = 0
	}
	return string(runes[:cut]) + ellipsis
}
