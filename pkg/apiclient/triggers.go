package apiclient

import "context"

// Webhook はカスタムメッセージの送信先Webhookを表す。
type Webhook string

const (
	// WebhookShoutout は告知用チャンネルのWebhook。
	WebhookShoutout Webhook = "shoutout"
	// WebhookBGS はBGSレポート用チャンネルのWebhook。
	WebhookBGS Webhook = "bgs"
)

// CustomMessage はDiscordへ送信する任意メッセージ。
type CustomMessage struct {
	// Content は本文。
	Content string `json:"content"`
	// Webhook は送信先。
	Webhook Webhook `json:"webhook"`
	// Username はDiscord上の表示名。
	Username string `json:"username"`
}

// periodBody は期間を指定するトリガーのリクエストボディ。
type periodBody struct {
	Period string `json:"period"`
}

// SendTickSummary は日次（ティック）サマリーのDiscord送信を要求する。
func (c *Client) SendTickSummary(ctx context.Context) (int, error) {
	return c.Post(ctx, "summary/discord/tick", nil, nil)
}

// SendSpaceCZSummary は宇宙CZサマリーのDiscord送信を要求する。
func (c *Client) SendSpaceCZSummary(ctx context.Context, period string) (int, error) {
	return c.Post(ctx, "summary/discord/syntheticcz", periodBody{Period: period}, nil)
}

// SendGroundCZSummary は地上CZサマリーのDiscord送信を要求する。
func (c *Client) SendGroundCZSummary(ctx context.Context, period string) (int, error) {
	return c.Post(ctx, "summary/discord/syntheticgroundcz", periodBody{Period: period}, nil)
}

// SendCustomMessage は任意メッセージのDiscord送信を要求する。
func (c *Client) SendCustomMessage(ctx context.Context, msg CustomMessage) (int, error) {
	return c.Post(ctx, "discord/trigger/custom-message", msg, nil)
}

// CheckFactionConflicts は複数ファクション間の紛争検出を即時実行させる。
func (c *Client) CheckFactionConflicts(ctx context.Context) (int, error) {
	return c.Post(ctx, "debug/multi-faction-conflicts", nil, nil)
}

// SyncCmdrs はコマンダー情報の同期を要求する。
func (c *Client) SyncCmdrs(ctx context.Context) (int, error) {
	return c.Post(ctx, "sync/cmdrs", nil, nil)
}

// SendTop5All は全カテゴリのトップ5のDiscord送信を要求する。
func (c *Client) SendTop5All(ctx context.Context) (int, error) {
	return c.Post(ctx, "summary/discord/top5all", nil, nil)
}
