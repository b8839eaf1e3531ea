package dashboard

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/sinistra/internal/report"
	"github.com/nao1215/sinistra/pkg/apiclient"
	"github.com/nao1215/sinistra/pkg/event"
	"github.com/nao1215/sinistra/pkg/middleware"
)

// factionsPath はファクション管理ページのパス。
const factionsPath = "/admin/factions"

// trigger はDiscordへの送信や同期を行う管理操作。
type trigger struct {
	Action string
	Label  string
	// Period は期間の指定が必要かどうか。
	Period bool
}

var triggers = []trigger{
	{Action: "tick", Label: "Daily Tick Summary"},
	{Action: "space-cz", Label: "Space CZ Summary", Period: true},
	{Action: "ground-cz", Label: "Ground CZ Summary", Period: true},
	{Action: "custom-message", Label: "Custom Message"},
	{Action: "conflict-check", Label: "Faction Conflict Check"},
	{Action: "sync-cmdrs", Label: "Sync Commanders"},
	{Action: "top5all", Label: "Top 5 (all categories)"},
}

func findTrigger(action string) (trigger, bool) {
	for _, t := range triggers {
		if t.Action == action {
			return t, true
		}
	}
	return trigger{}, false
}

// handleFactions はファクション管理ページのハンドラを返す。
func (s *Server) handleFactions() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		api := s.client(c)
		data := gin.H{
			"Title":    "Faction Management",
			"Triggers": triggers,
			"Periods":  report.DiscordPeriods,
			"Webhooks": []apiclient.Webhook{apiclient.WebhookShoutout, apiclient.WebhookBGS},
			"Sender":   defaultDiscordUsername,
		}

		status, err := api.FactionStatus(ctx)
		if err != nil {
			if s.apiError(c, data, err) {
				return
			}
		} else {
			data["Status"] = status
		}

		factions, err := api.Factions(ctx)
		if err != nil {
			if s.apiError(c, data, err) {
				return
			}
		} else {
			protected, custom := splitFactions(factions)
			data["Protected"] = protected
			data["Custom"] = custom
		}
		s.render(c, http.StatusOK, "factions.html", data)
	}
}

// splitFactions は保護ファクションと利用者定義のファクションに分け、それぞれ名前順に並べる。
func splitFactions(factions map[string]apiclient.Faction) (protected, custom []apiclient.Faction) {
	for _, f := range factions {
		if f.Protected {
			protected = append(protected, f)
		} else {
			custom = append(custom, f)
		}
	}
	byName := func(list []apiclient.Faction) {
		sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	}
	byName(protected)
	byName(custom)
	return protected, custom
}

// handleAddFaction はファクションの追加を処理するハンドラを返す。
func (s *Server) handleAddFaction() gin.HandlerFunc {
	return func(c *gin.Context) {
		var form factionForm
		if errs := bindForm(c, &form); errs != nil {
			s.redirectWithFlash(c, factionsPath, flashError, "Invalid faction: "+errs.Error())
			return
		}

		f, err := s.client(c).AddFaction(c.Request.Context(), form.Name, form.Description)
		if err != nil {
			if s.handleAuthError(c, err) {
				return
			}
			_ = c.Error(err)
			var re *apiclient.RequestError
			if errors.As(err, &re) && strings.Contains(strings.ToLower(string(re.Body)), "already exists") {
				s.redirectWithFlash(c, factionsPath, flashError, fmt.Sprintf("Faction %q already exists.", form.Name))
				return
			}
			s.redirectWithFlash(c, factionsPath, flashError, "Failed to add faction: "+errorMessage(err))
			return
		}

		s.record(c, event.TypeFactionAdded, f.Name, event.FactionData{Description: f.Description})
		s.redirectWithFlash(c, factionsPath, flashSuccess, fmt.Sprintf("Faction %q added.", f.Name))
	}
}

// handleUpdateFaction はファクションの説明の更新を処理するハンドラを返す。
func (s *Server) handleUpdateFaction() gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("name")
		description := strings.TrimSpace(c.PostForm("description"))

		if err := s.client(c).UpdateFaction(c.Request.Context(), name, description); err != nil {
			if s.handleAuthError(c, err) {
				return
			}
			_ = c.Error(err)
			if apiclient.IsNotFound(err) {
				s.redirectWithFlash(c, factionsPath, flashError, fmt.Sprintf("Faction %q not found.", name))
				return
			}
			s.redirectWithFlash(c, factionsPath, flashError, "Failed to update faction: "+errorMessage(err))
			return
		}

		s.record(c, event.TypeFactionUpdated, name, event.FactionData{Description: description})
		s.redirectWithFlash(c, factionsPath, flashSuccess, fmt.Sprintf("Faction %q updated.", name))
	}
}

// handleDeleteFaction はファクションの削除を処理するハンドラを返す。
// confirm=yes がない場合は確認画面を表示する。保護ファクションはAPIに削除を要求せずに拒否する。
func (s *Server) handleDeleteFaction() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		name := c.Param("name")
		api := s.client(c)

		factions, err := api.Factions(ctx)
		if err != nil {
			if s.handleAuthError(c, err) {
				return
			}
			_ = c.Error(err)
			s.redirectWithFlash(c, factionsPath, flashError, "Failed to load factions: "+errorMessage(err))
			return
		}
		f, ok := factions[name]
		if !ok {
			s.redirectWithFlash(c, factionsPath, flashError, fmt.Sprintf("Faction %q not found.", name))
			return
		}
		if f.Protected {
			s.redirectWithFlash(c, factionsPath, flashError, fmt.Sprintf("Faction %q is protected and cannot be deleted.", name))
			return
		}

		if c.PostForm("confirm") != "yes" {
			s.render(c, http.StatusOK, "confirm.html", gin.H{
				"Title":   "Delete Faction",
				"Message": fmt.Sprintf("Delete faction %q? This cannot be undone.", name),
				"Action":  factionsPath + "/" + url.PathEscape(name) + "/delete",
				"Cancel":  factionsPath,
			})
			return
		}

		if err := api.DeleteFaction(ctx, name); err != nil {
			if s.handleAuthError(c, err) {
				return
			}
			_ = c.Error(err)
			s.redirectWithFlash(c, factionsPath, flashError, "Failed to delete faction: "+errorMessage(err))
			return
		}

		s.record(c, event.TypeFactionDeleted, name, nil)
		s.redirectWithFlash(c, factionsPath, flashSuccess, fmt.Sprintf("Faction %q deleted.", name))
	}
}

// handleTrigger はDiscordへの送信や同期の要求を処理するハンドラを返す。
func (s *Server) handleTrigger() gin.HandlerFunc {
	return func(c *gin.Context) {
		t, ok := findTrigger(c.Param("action"))
		if !ok {
			c.AbortWithStatus(http.StatusNotFound)
			return
		}

		status, data, err := s.sendTrigger(c, t)
		if err != nil {
			var errs formErrors
			if errors.As(err, &errs) {
				s.redirectWithFlash(c, factionsPath, flashError, t.Label+": "+errs.Error())
				return
			}
			if s.handleAuthError(c, err) {
				return
			}
			_ = c.Error(err)
			s.redirectWithFlash(c, factionsPath, flashError, fmt.Sprintf("%s failed: %s", t.Label, errorMessage(err)))
			return
		}

		data.Status = status
		s.record(c, event.TypeDiscordTriggered, t.Action, data)
		s.redirectWithFlash(c, factionsPath, flashSuccess, fmt.Sprintf("%s sent (HTTP %d).", t.Label, status))
	}
}

// sendTrigger はフォームを検証してAPIを呼び出す。入力に問題がある場合は formErrors を返し、APIは呼ばない。
func (s *Server) sendTrigger(c *gin.Context, t trigger) (int, event.TriggerData, error) {
	ctx := c.Request.Context()
	api := s.client(c)
	var data event.TriggerData

	if t.Period {
		data.Period = c.PostForm("period")
		if !report.ValidPeriod(report.DiscordPeriods, data.Period) {
			return 0, data, formErrors{"period: must be one of ld, lw, cm, lm, 2m, y, all"}
		}
	}

	switch t.Action {
	case "tick":
		return call(ctx, data, api.SendTickSummary)
	case "space-cz":
		status, err := api.SendSpaceCZSummary(ctx, data.Period)
		return status, data, err
	case "ground-cz":
		status, err := api.SendGroundCZSummary(ctx, data.Period)
		return status, data, err
	case "custom-message":
		var form customMessageForm
		if errs := bindForm(c, &form); errs != nil {
			return 0, data, errs
		}
		if form.Username == "" {
			form.Username = defaultDiscordUsername
		}
		data.Webhook = form.Webhook
		status, err := api.SendCustomMessage(ctx, apiclient.CustomMessage{
			Content:  form.Content,
			Webhook:  apiclient.Webhook(form.Webhook),
			Username: form.Username,
		})
		return status, data, err
	case "conflict-check":
		return call(ctx, data, api.CheckFactionConflicts)
	case "sync-cmdrs":
		return call(ctx, data, api.SyncCmdrs)
	default:
		return call(ctx, data, api.SendTop5All)
	}
}

func call(ctx context.Context, data event.TriggerData, fn func(context.Context) (int, error)) (int, event.TriggerData, error) {
	status, err := fn(ctx)
	return status, data, err
}

// auditEvent は監査ログの1行。
type auditEvent struct {
	*event.Event
	When string
	Data string
}

// handleAudit はテナントの監査ログを表示するハンドラを返す。actor または type で絞り込める。
func (s *Server) handleAudit() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := middleware.CurrentSession(c)
		actor := strings.TrimSpace(c.Query("actor"))
		eventType := event.Type(c.Query("type"))
		limit, _ := strconv.Atoi(c.Query("limit"))

		data := gin.H{
			"Title": "Audit Log",
			"Types": event.Types,
			"Actor": actor,
			"Type":  string(eventType),
		}
		if s.audit == nil {
			data["Hint"] = "The audit log is disabled. Set AUDIT_DB_PATH to enable it."
			s.render(c, http.StatusOK, "audit.html", data)
			return
		}

		ctx := c.Request.Context()
		var (
			events []*event.Event
			err    error
		)
		switch {
		case actor != "":
			events, err = s.audit.ByActor(ctx, sess.TenantName, actor, limit)
		case eventType.Valid():
			events, err = s.audit.ByType(ctx, sess.TenantName, eventType, limit)
		default:
			events, err = s.audit.Recent(ctx, sess.TenantName, limit)
		}
		if err != nil {
			_ = c.Error(err)
			data["Error"] = "Failed to read the audit log."
			s.render(c, http.StatusInternalServerError, "audit.html", data)
			return
		}

		rows := make([]auditEvent, 0, len(events))
		for _, e := range events {
			rows = append(rows, auditEvent{
				Event: e,
				When:  e.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
				Data:  string(e.Data),
			})
		}
		data["Events"] = rows
		if len(rows) == 0 {
			data["Hint"] = "No audit events recorded yet."
		}
		s.render(c, http.StatusOK, "audit.html", data)
	}
}
