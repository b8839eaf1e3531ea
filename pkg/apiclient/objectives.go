package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/goccy/go-json"
)

// objectivePath はBGS目標リソースのパス。
const objectivePath = "objectives"

// Objective はスコードロンが追う BGS 目標。
type Objective struct {
	// ID は目標の識別子。作成時は空。
	ID ID `json:"id,omitempty"`
	// Title は目標のタイトル。
	Title string `json:"title"`
	// Priority は優先度（1〜5）。
	Priority int `json:"priority"`
	// Type は目標の種類（win_war, boost など）。
	Type string `json:"type"`
	// System は対象のスターシステム。
	System string `json:"system"`
	// Faction は対象のマイナーファクション。
	Faction string `json:"faction"`
	// StartDate は開始日（ISO 8601）。
	StartDate string `json:"startdate"`
	// EndDate は終了日（ISO 8601）。
	EndDate string `json:"enddate"`
	// Description は補足説明。
	Description string `json:"description"`
	// Targets は目標を構成する達成条件。
	Targets []Target `json:"targets"`
}

// Target は目標の達成条件のひとつ。
type Target struct {
	// Type は条件の種類（inf, bv, ground_cz など）。
	Type string `json:"type"`
	// TargetIndividual はコマンダー1人あたりの目標値。
	TargetIndividual int `json:"targetindividual"`
	// TargetOverall は全体の目標値。
	TargetOverall int `json:"targetoverall"`
	// Station は visit 条件の対象ステーション。
	Station string `json:"station,omitempty"`
	// System は目標のシステムを上書きする場合の値。
	System string `json:"system,omitempty"`
	// Faction は目標のファクションを上書きする場合の値。
	Faction string `json:"faction,omitempty"`
	// Settlements は ground_cz 条件の対象集落。
	Settlements []Settlement `json:"settlements,omitempty"`
}

// Settlement は地上CZ条件の対象集落。
type Settlement struct {
	// Name は集落名。
	Name string `json:"name"`
	// TargetIndividual はコマンダー1人あたりの目標値。
	TargetIndividual int `json:"targetindividual"`
	// TargetOverall は全体の目標値。
	TargetOverall int `json:"targetoverall"`
}

// ObjectiveFilter は目標一覧の絞り込み条件。空のフィールドは送信しない。
type ObjectiveFilter struct {
	// System はスターシステム名。
	System string
	// Faction はファクション名。
	Faction string
}

// query は絞り込み条件をクエリパラメータに変換する。
func (f ObjectiveFilter) query() url.Values {
	q := url.Values{}
	if f.System != "" {
		q.Set("system", f.System)
	}
	if f.Faction != "" {
		q.Set("faction", f.Faction)
	}
	return q
}

// Objectives は目標一覧を取得する。
func (c *Client) Objectives(ctx context.Context, filter ObjectiveFilter) ([]Objective, error) {
	var objectives []Objective
	if err := c.Get(ctx, objectivePath, filter.query(), &objectives); err != nil {
		return nil, err
	}
	return objectives, nil
}

// CreateObjective は目標を作成する。
// サーバーが201以外の2xxを返した場合も失敗とし、ボディを保持した RequestError を返す。
func (c *Client) CreateObjective(ctx context.Context, obj Objective) error {
	var raw json.RawMessage
	status, err := c.Post(ctx, objectivePath, obj, &raw)
	if err != nil {
		return err
	}
	if status != http.StatusCreated {
		return &RequestError{
			Method:     http.MethodPost,
			Path:       objectivePath,
			StatusCode: status,
			Body:       raw,
		}
	}
	return nil
}

// DeleteObjective は目標を削除する。
func (c *Client) DeleteObjective(ctx context.Context, id string) error {
	return c.Delete(ctx, PathJoin(objectivePath, id), nil)
}
