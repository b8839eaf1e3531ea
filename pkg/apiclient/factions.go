package apiclient

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-json"
)

// factionPath は保護ファクション管理リソースのパス。
const factionPath = "protected-faction"

// Faction はBGSツールが追跡するマイナーファクションの設定。
type Faction struct {
	// ID はファクションの識別子。
	ID ID `json:"id,omitempty"`
	// Name はゲーム内のファクション名。
	Name string `json:"name"`
	// Protected は保護ファクション（変更・削除不可）であるか。
	Protected Flag `json:"protected"`
	// Description はファクションの説明。
	Description string `json:"description,omitempty"`
}

// FactionStatus はファクション設定の集計。
type FactionStatus struct {
	// TotalFactions はファクションの総数。
	TotalFactions int `json:"total_factions"`
	// ProtectedFactions は保護ファクションの数。
	ProtectedFactions int `json:"protected_factions"`
	// CustomFactions は利用者が追加したファクションの数。
	CustomFactions int `json:"custom_factions"`
	// DefaultWebhook はデフォルトのDiscord Webhookが設定されているか。
	DefaultWebhook Flag `json:"default_webhook"`
}

// Factions はファクション一覧を取得し、名前をキーとするマップで返す。
// APIが配列と名前キーのオブジェクトのどちらを返しても同じ形に揃える。
func (c *Client) Factions(ctx context.Context) (map[string]Faction, error) {
	var raw json.RawMessage
	if err := c.Get(ctx, factionPath, nil, &raw); err != nil {
		return nil, err
	}

	raw = bytes.TrimSpace(raw)
	result := make(map[string]Faction)
	if len(raw) == 0 || string(raw) == "null" {
		return result, nil
	}

	if raw[0] == '{' {
		var byName map[string]Faction
		if err := json.Unmarshal(raw, &byName); err != nil {
			return nil, fmt.Errorf("ファクション一覧のデシリアライズに失敗: %w", err)
		}
		for name, f := range byName {
			if f.Name == "" {
				f.Name = name
			}
			result[name] = f
		}
		return result, nil
	}

	var list []Faction
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("ファクション一覧のデシリアライズに失敗: %w", err)
	}
	for _, f := range list {
		result[f.Name] = f
	}
	return result, nil
}

// FactionStatus はファクション設定の集計を取得する。
func (c *Client) FactionStatus(ctx context.Context) (*FactionStatus, error) {
	var status FactionStatus
	if err := c.Get(ctx, factionPath+"/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// AddFaction は利用者定義のファクションを追加する。
// 同名のファクションが既に存在する場合、サーバーの RequestError がそのまま返る。
func (c *Client) AddFaction(ctx context.Context, name, description string) (*Faction, error) {
	body := Faction{Name: name, Description: description}
	var created Faction
	if _, err := c.Post(ctx, factionPath, body, &created); err != nil {
		return nil, err
	}
	if created.Name == "" {
		created.Name = name
		created.Description = description
	}
	return &created, nil
}

// UpdateFaction は名前からIDを解決し、ファクションの説明を更新する。
// 名前が一覧に存在しない場合は NotFoundError を返し、PUTは発行しない。
func (c *Client) UpdateFaction(ctx context.Context, name, description string) error {
	f, err := c.resolveFaction(ctx, name)
	if err != nil {
		return err
	}
	var resp map[string]any
	return c.Put(ctx, PathJoin(factionPath, string(f.ID)), map[string]string{"description": description}, &resp)
}

// DeleteFaction は名前からIDを解決し、ファクションを削除する。
// 名前が一覧に存在しない場合は NotFoundError を返し、DELETEは発行しない。
func (c *Client) DeleteFaction(ctx context.Context, name string) error {
	f, err := c.resolveFaction(ctx, name)
	if err != nil {
		return err
	}
	return c.Delete(ctx, PathJoin(factionPath, string(f.ID)), nil)
}

// resolveFaction はファクション名から設定を検索する。
func (c *Client) resolveFaction(ctx context.Context, name string) (Faction, error) {
	factions, err := c.Factions(ctx)
	if err != nil {
		return Faction{}, err
	}
	f, ok := factions[name]
	if !ok || f.ID == "" {
		return Faction{}, &NotFoundError{Kind: "ファクション", Name: name}
	}
	return f, nil
}
