package dashboard

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/sinistra/internal/report"
	"github.com/nao1215/sinistra/pkg/apiclient"
	"github.com/nao1215/sinistra/pkg/event"
)

// objectivesPath は目標ページのパス。
const objectivesPath = "/objectives"

// objectiveView は一覧に表示する目標。
type objectiveView struct {
	apiclient.Objective
	Status string
}

// handleObjectives は目標一覧と作成フォームのハンドラを返す。
func (s *Server) handleObjectives() gin.HandlerFunc {
	return func(c *gin.Context) {
		data := gin.H{}
		if s.loadObjectives(c, data) {
			return
		}
		s.render(c, http.StatusOK, "objectives.html", data)
	}
}

// loadObjectives は一覧の表示に必要なデータを data に設定する。
// 認証エラーでリダイレクトした場合はtrueを返す。
func (s *Server) loadObjectives(c *gin.Context, data gin.H) bool {
	filter := apiclient.ObjectiveFilter{
		System:  strings.TrimSpace(c.Query("system")),
		Faction: strings.TrimSpace(c.Query("faction")),
	}
	data["Title"] = "Objectives"
	data["Filter"] = filter
	data["ObjectiveTypes"] = report.ObjectiveTypes
	data["TargetTypes"] = report.TargetTypes
	data["MaxTargets"] = maxTargets
	data["MaxSettlements"] = maxSettlements
	data["Today"] = s.now().UTC().Format(formDateLayout)

	objectives, err := s.client(c).Objectives(c.Request.Context(), filter)
	if err != nil {
		return s.apiError(c, data, err)
	}
	now := s.now()
	views := make([]objectiveView, 0, len(objectives))
	for _, o := range objectives {
		views = append(views, objectiveView{Objective: o, Status: report.ObjectiveStatus(o.EndDate, now)})
	}
	data["Objectives"] = views
	return false
}

// handleCreateObjective は目標の作成を処理するハンドラを返す。
// 入力に問題がある場合はAPIを呼ばずにフォームを再表示する。
func (s *Server) handleCreateObjective() gin.HandlerFunc {
	return func(c *gin.Context) {
		form, errs := parseObjectiveForm(c)
		if errs != nil {
			data := gin.H{"FormErrors": errs, "Form": form}
			if s.loadObjectives(c, data) {
				return
			}
			s.render(c, http.StatusUnprocessableEntity, "objectives.html", data)
			return
		}

		obj := form.objective()
		if err := s.client(c).CreateObjective(c.Request.Context(), obj); err != nil {
			if s.handleAuthError(c, err) {
				return
			}
			_ = c.Error(err)
			s.redirectWithFlash(c, objectivesPath, flashError, "Failed to create objective: "+errorMessage(err))
			return
		}

		s.record(c, event.TypeObjectiveCreated, obj.Title, event.ObjectiveData{
			Title:   obj.Title,
			System:  obj.System,
			Faction: obj.Faction,
			Targets: len(obj.Targets),
		})
		s.redirectWithFlash(c, objectivesPath, flashSuccess, fmt.Sprintf("Objective %q created.", obj.Title))
	}
}

// handleDeleteObjective は目標の削除を処理するハンドラを返す。確認のチェックが必要。
func (s *Server) handleDeleteObjective() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if c.PostForm("confirm") != "yes" {
			s.redirectWithFlash(c, objectivesPath, flashError, "Please confirm that you want to delete this objective.")
			return
		}

		if err := s.client(c).DeleteObjective(c.Request.Context(), id); err != nil {
			if s.handleAuthError(c, err) {
				return
			}
			_ = c.Error(err)
			s.redirectWithFlash(c, objectivesPath, flashError, "Failed to delete objective: "+errorMessage(err))
			return
		}

		s.record(c, event.TypeObjectiveDeleted, id, event.ObjectiveData{Title: c.PostForm("title")})
		s.redirectWithFlash(c, objectivesPath, flashSuccess, "Objective deleted.")
	}
}
