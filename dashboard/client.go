package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Client は外部の統計ワーカー（API_URL）へスナップショットを送信します。
type Client struct {
	apiURL     string
	httpClient *http.Client
}

// StatsPayload is the JSON document pushed to the stats worker.
type StatsPayload struct {
	BotName      string         `json:"bot_name"`
	GeneratedAt  time.Time      `json:"generated_at"`
	GuildCount   int            `json:"guild_count"`
	CommandUsage map[string]int `json:"command_usage"`
}

func NewClient(apiURL string) *Client {
	return &Client{
		apiURL:     strings.TrimSuffix(apiURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// PushStats はスナップショットをワーカーの /stats エンドポイントへPOSTします。
func (c *Client) PushStats(ctx context.Context, payload *StatsPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("統計JSONの作成に失敗: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/stats", bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("httpリクエストの作成に失敗: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("統計ワーカーへの送信に失敗: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("統計ワーカーがエラーを返しました: %s", resp.Status)
	}
	return nil
}
