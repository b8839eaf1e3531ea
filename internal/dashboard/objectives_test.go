package dashboard

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/nao1215/sinistra/pkg/event"
)

// objectiveValues は正しい目標の作成フォームを返す。
func objectiveValues() url.Values {
	return url.Values{
		"title":               {"Take Kachian"},
		"priority":            {"2"},
		"type":                {"win_war"},
		"system":              {"Kachian"},
		"faction":             {"Sinistra Corp"},
		"startdate":           {"2025-06-15"},
		"enddate":             {"2025-06-22"},
		"targets":             {"1"},
		"target_type_0":       {"ground_cz"},
		"target_individual_0": {"3"},
		"target_overall_0":    {"10"},
		"settlements_0":       {"1"},
		"settlement_name_0_0": {"Bennett Hub"},
	}
}

// TestObjectives は目標一覧を検証する。
func TestObjectives(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, map[string]fakeResponse{
		"GET /objectives": {http.StatusOK, `[{"id":7,"title":"Hold Kachian","priority":1,"type":"boost","system":"Kachian","enddate":"2025-06-01","targets":[]}]`},
	})
	cookie, _ := env.login(t, false)

	w := env.get(t, "/objectives?system=Kachian", cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Hold Kachian") || !strings.Contains(body, "/objectives/7/delete") {
		t.Errorf("body = %s", body)
	}

	reqs := env.api.find(http.MethodGet, "/objectives")
	if len(reqs) != 1 || reqs[0].Query.Get("system") != "Kachian" || reqs[0].Query.Has("faction") {
		t.Errorf("requests = %+v", reqs)
	}
}

// TestCreateObjective は目標の作成を検証する。
func TestCreateObjective(t *testing.T) {
	t.Parallel()

	t.Run("201の場合は記録して一覧へリダイレクトすること", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t, map[string]fakeResponse{
			"POST /objectives": {http.StatusCreated, `{"id":8}`},
		})
		cookie, sess := env.login(t, false)

		w := env.post(t, "/objectives", objectiveValues(), cookie, sess)
		if w.Code != http.StatusSeeOther {
			t.Fatalf("status = %d, want %d, body = %s", w.Code, http.StatusSeeOther, w.Body.String())
		}
		if got := flash(t, w); got != `success:Objective "Take Kachian" created.` {
			t.Errorf("flash = %q", got)
		}

		reqs := env.api.find(http.MethodPost, "/objectives")
		if len(reqs) != 1 {
			t.Fatalf("requests = %+v", reqs)
		}
		for _, want := range []string{`"title":"Take Kachian"`, `"startdate":"2025-06-15"`, `"name":"Bennett Hub"`} {
			if !strings.Contains(reqs[0].Body, want) {
				t.Errorf("body = %s, want %s", reqs[0].Body, want)
			}
		}
		if reqs[0].APIKey != testKey {
			t.Errorf("apikey = %q, want %q", reqs[0].APIKey, testKey)
		}
		if !hasEvent(env.events(t, testTenant), event.TypeObjectiveCreated) {
			t.Error("ObjectiveCreated が記録されていない")
		}
	})

	t.Run("入力に問題がある場合はAPIを呼ばずに422で再表示すること", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t, map[string]fakeResponse{
			"GET /objectives": {http.StatusOK, `[]`},
		})
		cookie, sess := env.login(t, false)

		form := objectiveValues()
		form.Del("title")
		form.Set("enddate", "2025-06-01")
		w := env.post(t, "/objectives", form, cookie, sess)
		if w.Code != http.StatusUnprocessableEntity {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusUnprocessableEntity)
		}
		body := w.Body.String()
		for _, want := range []string{"title: is required", "enddate: must not be before"} {
			if !strings.Contains(body, want) {
				t.Errorf("body does not contain %q", want)
			}
		}
		if n := env.api.count(http.MethodPost); n != 0 {
			t.Errorf("POSTが%d回送信された", n)
		}
	})

	t.Run("201以外の応答は失敗として表示すること", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t, map[string]fakeResponse{
			"POST /objectives": {http.StatusOK, `{"message":"queued"}`},
		})
		cookie, sess := env.login(t, false)

		w := env.post(t, "/objectives", objectiveValues(), cookie, sess)
		if w.Code != http.StatusSeeOther {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusSeeOther)
		}
		got := flash(t, w)
		if !strings.HasPrefix(got, "error:Failed to create objective: API error 200") {
			t.Errorf("flash = %q", got)
		}
		if hasEvent(env.events(t, testTenant), event.TypeObjectiveCreated) {
			t.Error("失敗したのに ObjectiveCreated が記録された")
		}
	})
}

// TestDeleteObjective は目標の削除を検証する。
func TestDeleteObjective(t *testing.T) {
	t.Parallel()

	t.Run("確認がない場合は削除しないこと", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t, nil)
		cookie, sess := env.login(t, false)

		w := env.post(t, "/objectives/7/delete", nil, cookie, sess)
		if w.Code != http.StatusSeeOther {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusSeeOther)
		}
		if n := env.api.count(http.MethodDelete); n != 0 {
			t.Errorf("DELETEが%d回送信された", n)
		}
	})

	t.Run("確認があれば削除して記録すること", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t, map[string]fakeResponse{
			"DELETE /objectives/7": {http.StatusOK, `{}`},
		})
		cookie, sess := env.login(t, false)

		w := env.post(t, "/objectives/7/delete", url.Values{"confirm": {"yes"}, "title": {"Hold Kachian"}}, cookie, sess)
		if w.Code != http.StatusSeeOther {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusSeeOther)
		}
		if got := flash(t, w); got != "success:Objective deleted." {
			t.Errorf("flash = %q", got)
		}
		if len(env.api.find(http.MethodDelete, "/objectives/7")) != 1 {
			t.Error("DELETEが送信されていない")
		}
		if !hasEvent(env.events(t, testTenant), event.TypeObjectiveDeleted) {
			t.Error("ObjectiveDeleted が記録されていない")
		}
	})
}
