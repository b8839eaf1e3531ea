// Package event はダッシュボードで発生した状態変更を監査イベントとして表現する。
package event

import (
	"time"

	"github.com/goccy/go-json"
)

// Type はイベントの種類を表す。
type Type string

const (
	// TypeLoginSucceeded はログインに成功したことを表す。
	TypeLoginSucceeded Type = "LoginSucceeded"
	// TypeLoginFailed はログインに失敗したことを表す。
	TypeLoginFailed Type = "LoginFailed"
	// TypeLoggedOut はログアウトしたことを表す。
	TypeLoggedOut Type = "LoggedOut"
	// TypeStaticKeyBound はログイン応答にAPIキーがなく、固定キーをセッションに紐付けたことを表す。
	TypeStaticKeyBound Type = "StaticKeyBound"

	// TypeFactionAdded はファクションが追加されたことを表す。
	TypeFactionAdded Type = "FactionAdded"
	// TypeFactionUpdated はファクションの説明が更新されたことを表す。
	TypeFactionUpdated Type = "FactionUpdated"
	// TypeFactionDeleted はファクションが削除されたことを表す。
	TypeFactionDeleted Type = "FactionDeleted"

	// TypeObjectiveCreated は目標が作成されたことを表す。
	TypeObjectiveCreated Type = "ObjectiveCreated"
	// TypeObjectiveDeleted は目標が削除されたことを表す。
	TypeObjectiveDeleted Type = "ObjectiveDeleted"

	// TypeDiscordTriggered はDiscord送信などの管理用トリガーを実行したことを表す。
	TypeDiscordTriggered Type = "DiscordTriggered"
)

// Types は定義済みのイベント種別の一覧。
var Types = []Type{
	TypeLoginSucceeded,
	TypeLoginFailed,
	TypeLoggedOut,
	TypeStaticKeyBound,
	TypeFactionAdded,
	TypeFactionUpdated,
	TypeFactionDeleted,
	TypeObjectiveCreated,
	TypeObjectiveDeleted,
	TypeDiscordTriggered,
}

// Valid は定義済みのイベント種別かどうかを返す。
func (t Type) Valid() bool {
	for _, known := range Types {
		if t == known {
			return true
		}
	}
	return false
}

// Event は追記のみを行う監査ログの1レコード。
type Event struct {
	// ID はイベントの一意識別子（UUID）。
	ID string `json:"id"`
	// Tenant は操作が行われたテナント。
	Tenant string `json:"tenant"`
	// Actor は操作したユーザー名。
	Actor string `json:"actor"`
	// EventType はイベントの種類。
	EventType Type `json:"event_type"`
	// Subject は操作対象（ファクション名、目標IDなど）。
	Subject string `json:"subject"`
	// Data はイベント固有のデータ（JSON形式）。
	Data json.RawMessage `json:"data"`
	// CreatedAt はイベントが作成された日時。
	CreatedAt time.Time `json:"created_at"`
}

// LoginData はログイン関連イベントのデータ。
type LoginData struct {
	// ClientIP は接続元IPアドレス。
	ClientIP string `json:"client_ip"`
	// Reason は失敗理由。成功時は空。
	Reason string `json:"reason,omitempty"`
	// Admin は管理者としてログインしたかどうか。
	Admin bool `json:"admin,omitempty"`
}

// FactionData はファクション関連イベントのデータ。
type FactionData struct {
	// Description は説明。
	Description string `json:"description,omitempty"`
}

// ObjectiveData は目標関連イベントのデータ。
type ObjectiveData struct {
	// Title は目標のタイトル。
	Title string `json:"title,omitempty"`
	// System は対象のスターシステム。
	System string `json:"system,omitempty"`
	// Faction は対象のファクション。
	Faction string `json:"faction,omitempty"`
	// Targets は達成条件の数。
	Targets int `json:"targets,omitempty"`
}

// TriggerData は管理用トリガーのデータ。
type TriggerData struct {
	// Period は集計期間。期間を取らないトリガーでは空。
	Period string `json:"period,omitempty"`
	// Webhook はカスタムメッセージの送信先。
	Webhook string `json:"webhook,omitempty"`
	// Status はAPIサーバーが返したステータスコード。
	Status int `json:"status"`
}
