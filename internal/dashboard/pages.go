package dashboard

import (
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/sinistra/internal/report"
	"github.com/nao1215/sinistra/pkg/apiclient"
)

// periodQuery は period パラメータだけのクエリを返す。
func periodQuery(p report.Period) url.Values {
	return url.Values{"period": {p.Code}}
}

// getRows はAPIからオブジェクトの配列を取得する。
func (s *Server) getRows(c *gin.Context, path string, query url.Values) ([]report.Row, error) {
	var raw []map[string]any
	if err := s.client(c).Get(c.Request.Context(), path, query, &raw); err != nil {
		return nil, err
	}
	return report.Rows(raw), nil
}

// handleTables はテーブルビューアのハンドラを返す。
func (s *Server) handleTables() gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.DefaultQuery("table", report.TableNames[0])
		if !report.ValidTable(name) {
			name = report.TableNames[0]
		}

		def := report.DefaultEventFilter(s.now())
		filter := report.EventFilter{
			Cmdr:   c.Query("cmdr"),
			Event:  c.Query("event"),
			TickID: c.Query("tickid"),
			From:   report.ParseDate(c.Query("from"), def.From),
			To:     report.ParseDate(c.Query("to"), def.To),
		}
		data := gin.H{
			"Title":    "Tables",
			"Tables":   report.TableNames,
			"Selected": name,
			"Filter":   filter,
			"From":     report.FormatDate(filter.From),
			"To":       report.FormatDate(filter.To),
		}

		rows, err := s.getRows(c, apiclient.PathJoin("table", name), nil)
		if err != nil {
			if s.apiError(c, data, err) {
				return
			}
			s.render(c, http.StatusOK, "tables.html", data)
			return
		}

		selected, _ := strconv.Atoi(c.Query("row"))
		data["View"] = report.BuildTableView(name, rows, filter, selected)

		q := url.Values{"table": {name}, "from": {report.FormatDate(filter.From)}, "to": {report.FormatDate(filter.To)}}
		for key, v := range map[string]string{"cmdr": filter.Cmdr, "event": filter.Event, "tickid": filter.TickID} {
			if v != "" {
				q.Set(key, v)
			}
		}
		data["RowHref"] = template.URL("/tables?" + q.Encode() + "&row=")
		s.render(c, http.StatusOK, "tables.html", data)
	}
}

// handleEvaluations は評価ページのハンドラを返す。
// 区分ごとに取得し、失敗した区分はその場でエラーを表示して残りを描画する。
func (s *Server) handleEvaluations() gin.HandlerFunc {
	return func(c *gin.Context) {
		period := report.SelectPeriod(report.SummaryPeriods, c.Query("period"))
		top5 := c.Query("view") == "top5"
		data := gin.H{
			"Title":   "Evaluations",
			"Periods": report.SummaryPeriods,
			"Period":  period,
			"Top5":    top5,
		}

		ranks := map[string]string{}
		cmdrs, err := s.getRows(c, "table/cmdr", nil)
		if err != nil {
			if s.apiError(c, data, err) {
				return
			}
		} else {
			ranks = report.SquadronRanks(cmdrs)
		}

		tables := make([]*report.Table, 0, len(report.EvaluationSections))
		for _, section := range report.EvaluationSections {
			rows, err := s.getRows(c, report.SectionPath(section, top5), periodQuery(period))
			if err != nil {
				if s.handleAuthError(c, err) {
					return
				}
				_ = c.Error(err)
				tables = append(tables, &report.Table{Title: section.Label, Err: errorMessage(err)})
				continue
			}
			tables = append(tables, report.Evaluation(section, rows, ranks))
		}
		data["Tables"] = tables
		s.render(c, http.StatusOK, "evaluations.html", data)
	}
}

// handleCmdrs はコマンダー一覧のハンドラを返す。
func (s *Server) handleCmdrs() gin.HandlerFunc {
	return func(c *gin.Context) {
		data := gin.H{"Title": "Commanders"}
		rows, err := s.getRows(c, "table/cmdr", nil)
		if err != nil {
			if s.apiError(c, data, err) {
				return
			}
		} else {
			data["Table"] = report.Cmdrs(rows)
		}
		s.render(c, http.StatusOK, "table_page.html", data)
	}
}

// handleRecruits は新規加入者一覧のハンドラを返す。
func (s *Server) handleRecruits() gin.HandlerFunc {
	return func(c *gin.Context) {
		data := gin.H{"Title": "Recruits"}
		rows, err := s.getRows(c, "summary/recruits", nil)
		if err != nil {
			if s.apiError(c, data, err) {
				return
			}
		} else {
			data["Table"] = report.Recruits(rows)
		}
		s.render(c, http.StatusOK, "table_page.html", data)
	}
}

// handleLeaderboard はリーダーボードのハンドラを返す。
func (s *Server) handleLeaderboard() gin.HandlerFunc {
	return func(c *gin.Context) {
		period := report.SelectPeriod(report.SummaryPeriods, c.Query("period"))
		metric := report.SelectMetric(c.Query("metric"))
		data := gin.H{
			"Title":   "Leaderboard",
			"Periods": report.SummaryPeriods,
			"Period":  period,
			"Metrics": report.LeaderboardMetrics,
			"Metric":  metric,
		}

		rows, err := s.getRows(c, "summary/leaderboard", periodQuery(period))
		if err != nil {
			if s.apiError(c, data, err) {
				return
			}
			s.render(c, http.StatusOK, "leaderboard.html", data)
			return
		}

		t := report.Leaderboard(rows)
		data["Table"] = t
		data["Shares"] = report.MetricShares(t, metric)
		data["TradeBars"] = report.TradeBars(t)
		s.render(c, http.StatusOK, "leaderboard.html", data)
	}
}

// handleVouchers はバウンティバウチャーのハンドラを返す。
func (s *Server) handleVouchers() gin.HandlerFunc {
	return func(c *gin.Context) {
		period := report.SelectPeriod(report.VoucherPeriods, c.Query("period"))
		filter := report.VoucherFilter{
			Cmdrs:    c.QueryArray("cmdr"),
			Systems:  c.QueryArray("system"),
			Factions: c.QueryArray("faction"),
		}
		data := gin.H{
			"Title":   "Bounty Vouchers",
			"Periods": report.VoucherPeriods,
			"Period":  period,
			"Filter":  filter,
		}

		rows, err := s.getRows(c, "bounty-vouchers", periodQuery(period))
		if err != nil {
			if s.apiError(c, data, err) {
				return
			}
		} else {
			data["Report"] = report.Vouchers(rows, filter)
		}
		s.render(c, http.StatusOK, "vouchers.html", data)
	}
}

// handleCZ は戦闘区域の集計のハンドラを返す。
func (s *Server) handleCZ() gin.HandlerFunc {
	return func(c *gin.Context) {
		period := report.SelectPeriod(report.SummaryPeriods, c.Query("period"))
		kind := report.ParseCZKind(c.Query("kind"))
		data := gin.H{
			"Title":   "CZ Summary",
			"Periods": report.SummaryPeriods,
			"Period":  period,
			"Kinds":   []report.CZKind{report.SpaceCZ, report.GroundCZ},
			"Kind":    kind,
		}

		var raw any
		if err := s.client(c).Get(c.Request.Context(), kind.Path(), periodQuery(period), &raw); err != nil {
			if s.apiError(c, data, err) {
				return
			}
		} else {
			data["Report"] = report.CZ(kind, raw, c.Query("system"))
		}
		s.render(c, http.StatusOK, "cz.html", data)
	}
}

// handleFSDJump はFSDジャンプ時の勢力レポートのハンドラを返す。
func (s *Server) handleFSDJump() gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := report.FSDJumpFilter{
			System:     c.Query("system"),
			Faction:    c.Query("faction"),
			State:      c.Query("state"),
			Pending:    c.Query("pending"),
			Recovering: c.Query("recovering"),
		}
		data := gin.H{"Title": "FSD Jump Factions", "Filter": filter}

		rows, err := s.getRows(c, "fsdjump-factions", nil)
		if err != nil {
			if s.apiError(c, data, err) {
				return
			}
		} else {
			data["Report"] = report.FSDJump(rows, filter)
		}
		s.render(c, http.StatusOK, "fsdjump.html", data)
	}
}

// handleSystemInfo はシステム情報の検索のハンドラを返す。
// 一致するシステムが多すぎる場合はAPIの400応答から候補の一覧を表示する。
func (s *Server) handleSystemInfo() gin.HandlerFunc {
	return func(c *gin.Context) {
		q := report.SystemQuery{
			System:             strings.TrimSpace(c.Query("system")),
			Faction:            strings.TrimSpace(c.Query("faction")),
			ControllingFaction: strings.TrimSpace(c.Query("controlling_faction")),
			ControllingPower:   strings.TrimSpace(c.Query("controlling_power")),
			Power:              strings.TrimSpace(c.Query("power")),
			State:              c.Query("state"),
			PendingState:       c.Query("pending_state"),
			RecoveringState:    c.Query("recovering_state"),
			HasConflict:        c.Query("has_conflict") == "true",
		}
		data := gin.H{
			"Title":  "System Info",
			"Query":  q,
			"States": report.States,
			"Limit":  report.TooManySystemsLimit,
		}

		if !q.Ready() {
			if len(c.Request.URL.Query()) > 0 {
				data["Hint"] = "Enter a system name or at least one filter besides 'has conflict'."
			}
			s.render(c, http.StatusOK, "system_info.html", data)
			return
		}

		var raw any
		if err := s.client(c).Get(c.Request.Context(), q.Path(), q.Values(), &raw); err != nil {
			var re *apiclient.RequestError
			if errors.As(err, &re) && re.StatusCode == http.StatusBadRequest {
				if tm, ok := report.ParseTooManySystems(re.Body); ok {
					data["TooMany"] = tm
					s.render(c, http.StatusOK, "system_info.html", data)
					return
				}
			}
			if s.apiError(c, data, err) {
				return
			}
			s.render(c, http.StatusOK, "system_info.html", data)
			return
		}

		infos := report.SystemInfos(raw)
		data["Systems"] = infos
		if len(infos) == 0 {
			data["Hint"] = "No systems found."
		}
		s.render(c, http.StatusOK, "system_info.html", data)
	}
}

// handleSystems はシステム一覧と詳細のハンドラを返す。
func (s *Server) handleSystems() gin.HandlerFunc {
	return func(c *gin.Context) {
		period := report.SelectPeriod(report.SystemDetailPeriods, c.Query("period"))
		selected := strings.TrimSpace(c.Query("system"))
		data := gin.H{
			"Title":    "Systems",
			"Periods":  report.SystemDetailPeriods,
			"Period":   period,
			"Selected": selected,
		}

		var list map[string]any
		if err := s.client(c).Get(c.Request.Context(), "systems/list", nil, &list); err != nil {
			if s.apiError(c, data, err) {
				return
			}
			s.render(c, http.StatusOK, "systems.html", data)
			return
		}
		overview := report.Row(list)
		data["Overview"] = report.SystemsOverview(overview)

		var names []string
		for _, sys := range overview.List("systems") {
			if name := sys.Str("system_name"); name != "" {
				names = append(names, name)
			}
		}
		data["Names"] = names

		if selected != "" {
			var status map[string]any
			path := apiclient.PathJoin("systems", selected, "status")
			if err := s.client(c).Get(c.Request.Context(), path, periodQuery(period), &status); err != nil {
				if s.apiError(c, data, err) {
					return
				}
			} else {
				data["Detail"] = report.SystemDetails(report.Row(status))
			}
		}
		s.render(c, http.StatusOK, "systems.html", data)
	}
}
