package dashboard

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/nao1215/sinistra/pkg/apiclient"
)

const (
	// maxTargets は1つの目標に設定できる達成条件の上限。
	maxTargets = 5
	// maxSettlements は1つの地上CZ条件に設定できる集落の上限。
	maxSettlements = 5
	// formDateLayout はフォームとAPIで使う日付の形式。
	formDateLayout = "2006-01-02"
	// defaultDiscordUsername はカスタムメッセージの送信者名の既定値。
	defaultDiscordUsername = "Sinistra"
)

// validate はフォームの検証器。エラーメッセージにはフォームのフィールド名を使う。
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("form"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// loginForm はログインフォーム。
type loginForm struct {
	Username string `form:"username" validate:"required,max=128"`
	Password string `form:"password" validate:"required,max=256"`
	Next     string `form:"next"`
}

// factionForm はファクションの追加フォーム。
type factionForm struct {
	Name        string `form:"name" validate:"required,max=100"`
	Description string `form:"description" validate:"max=500"`
}

// customMessageForm はDiscordへのカスタムメッセージの送信フォーム。
type customMessageForm struct {
	Content  string `form:"content" validate:"required,max=2000"`
	Webhook  string `form:"webhook" validate:"required,oneof=shoutout bgs"`
	Username string `form:"username" validate:"max=80"`
}

// objectiveForm は目標の作成フォーム。
type objectiveForm struct {
	Title       string       `form:"title" validate:"required,max=200"`
	Priority    int          `form:"priority" validate:"min=1,max=5"`
	Type        string       `form:"type" validate:"required,oneof=recon win_war draw_war win_election draw_election boost expand reduce retreat equalise"`
	System      string       `form:"system" validate:"max=100"`
	Faction     string       `form:"faction" validate:"max=100"`
	StartDate   time.Time    `form:"startdate" validate:"required"`
	EndDate     time.Time    `form:"enddate" validate:"required,gtefield=StartDate"`
	Description string       `form:"description" validate:"max=2000"`
	Targets     []targetForm `form:"targets" validate:"min=1,max=5,dive"`
}

// targetForm は目標の達成条件。
type targetForm struct {
	Type             string           `form:"type" validate:"required,oneof=visit inf bv cb expl trade_prof bm_prof ground_cz space_cz murder mission_fail"`
	TargetIndividual int              `form:"targetindividual" validate:"min=0"`
	TargetOverall    int              `form:"targetoverall" validate:"min=0"`
	Station          string           `form:"station" validate:"max=100"`
	System           string           `form:"system" validate:"max=100"`
	Faction          string           `form:"faction" validate:"max=100"`
	Settlements      []settlementForm `form:"settlements" validate:"max=5,dive"`
}

// settlementForm は地上CZ条件の対象集落。
type settlementForm struct {
	Name             string `form:"name" validate:"required,max=100"`
	TargetIndividual int    `form:"targetindividual" validate:"min=0"`
	TargetOverall    int    `form:"targetoverall" validate:"min=0"`
}

// formErrors はフォームの解析と検証で見つかった問題。
type formErrors []string

func (e formErrors) Error() string {
	return strings.Join(e, "; ")
}

// parseObjectiveForm はPOSTされたフォームから目標を組み立てる。
// 達成条件は targets 個、集落は ground_cz の条件ごとに settlements_<i> 個を読み取る。
func parseObjectiveForm(c *gin.Context) (*objectiveForm, formErrors) {
	var errs formErrors
	num := func(key string, fallback int) int {
		v := strings.TrimSpace(c.PostForm(key))
		if v == "" {
			return fallback
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: must be a whole number", key))
			return fallback
		}
		return n
	}
	date := func(key string) time.Time {
		v := strings.TrimSpace(c.PostForm(key))
		if v == "" {
			return time.Time{}
		}
		t, err := time.Parse(formDateLayout, v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: must be a date (YYYY-MM-DD)", key))
		}
		return t
	}

	f := &objectiveForm{
		Title:       strings.TrimSpace(c.PostForm("title")),
		Priority:    num("priority", 1),
		Type:        c.PostForm("type"),
		System:      strings.TrimSpace(c.PostForm("system")),
		Faction:     strings.TrimSpace(c.PostForm("faction")),
		StartDate:   date("startdate"),
		EndDate:     date("enddate"),
		Description: strings.TrimSpace(c.PostForm("description")),
	}

	// 上限を1つ超えた分まで読み、件数の検証は validator に任せる
	count := min(max(num("targets", 1), 0), maxTargets+1)
	for i := range count {
		t := targetForm{
			Type:             c.PostForm(fmt.Sprintf("target_type_%d", i)),
			TargetIndividual: num(fmt.Sprintf("target_individual_%d", i), 0),
			TargetOverall:    num(fmt.Sprintf("target_overall_%d", i), 0),
			Station:          strings.TrimSpace(c.PostForm(fmt.Sprintf("target_station_%d", i))),
			System:           strings.TrimSpace(c.PostForm(fmt.Sprintf("target_system_%d", i))),
			Faction:          strings.TrimSpace(c.PostForm(fmt.Sprintf("target_faction_%d", i))),
		}
		if t.Type == "ground_cz" {
			settlements := min(max(num(fmt.Sprintf("settlements_%d", i), 0), 0), maxSettlements+1)
			for j := range settlements {
				t.Settlements = append(t.Settlements, settlementForm{
					Name:             strings.TrimSpace(c.PostForm(fmt.Sprintf("settlement_name_%d_%d", i, j))),
					TargetIndividual: num(fmt.Sprintf("settlement_individual_%d_%d", i, j), 0),
					TargetOverall:    num(fmt.Sprintf("settlement_overall_%d_%d", i, j), 0),
				})
			}
		}
		f.Targets = append(f.Targets, t)
	}

	if len(errs) > 0 {
		return f, errs
	}
	if err := validate.Struct(f); err != nil {
		return f, validationMessages(err)
	}
	return f, nil
}

// objective はフォームの内容をAPIの目標に変換する。
func (f *objectiveForm) objective() apiclient.Objective {
	obj := apiclient.Objective{
		Title:       f.Title,
		Priority:    f.Priority,
		Type:        f.Type,
		System:      f.System,
		Faction:     f.Faction,
		StartDate:   f.StartDate.Format(formDateLayout),
		EndDate:     f.EndDate.Format(formDateLayout),
		Description: f.Description,
		Targets:     make([]apiclient.Target, 0, len(f.Targets)),
	}
	for _, t := range f.Targets {
		target := apiclient.Target{
			Type:             t.Type,
			TargetIndividual: t.TargetIndividual,
			TargetOverall:    t.TargetOverall,
			Station:          t.Station,
			System:           t.System,
			Faction:          t.Faction,
		}
		for _, s := range t.Settlements {
			target.Settlements = append(target.Settlements, apiclient.Settlement(s))
		}
		obj.Targets = append(obj.Targets, target)
	}
	return obj
}

// validationMessages は検証エラーを画面に表示するメッセージに変換する。
func validationMessages(err error) formErrors {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return formErrors{err.Error()}
	}

	msgs := make(formErrors, 0, len(verrs))
	for _, fe := range verrs {
		// 先頭の構造体名を除く（objectiveForm.targets[0].type -> targets[0].type）
		field := fe.Namespace()
		if _, rest, ok := strings.Cut(field, "."); ok {
			field = rest
		}
		msgs = append(msgs, field+": "+ruleMessage(fe))
	}
	return msgs
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "min":
		if fe.Kind() == reflect.Slice {
			return "needs at least " + fe.Param() + " entries"
		}
		if fe.Kind() == reflect.String {
			return "must be at least " + fe.Param() + " characters"
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.Slice {
			return "allows at most " + fe.Param() + " entries"
		}
		if fe.Kind() == reflect.String {
			return "must be at most " + fe.Param() + " characters"
		}
		return "must be at most " + fe.Param()
	case "gtefield":
		return "must not be before " + strings.ToLower(fe.Param())
	default:
		return "is invalid (" + fe.Tag() + ")"
	}
}

// bindForm はフォームを構造体に読み込み、文字列の前後の空白を除いて検証する。
func bindForm[T any](c *gin.Context, form *T) formErrors {
	if err := c.ShouldBind(form); err != nil {
		return formErrors{"invalid form: " + err.Error()}
	}
	trimStrings(reflect.ValueOf(form).Elem())
	if err := validate.Struct(form); err != nil {
		return validationMessages(err)
	}
	return nil
}

// trimStrings は構造体の文字列フィールドの前後の空白を除く。パスワードは除外する。
func trimStrings(v reflect.Value) {
	t := v.Type()
	for i := range v.NumField() {
		f := v.Field(i)
		if f.Kind() != reflect.String || !f.CanSet() || t.Field(i).Name == "Password" {
			continue
		}
		f.SetString(strings.TrimSpace(f.String()))
	}
}
