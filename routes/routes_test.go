package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Dosada05/clay-tournament/cache"
	"github.com/Dosada05/clay-tournament/classification"
	"github.com/Dosada05/clay-tournament/handlers"
	"github.com/Dosada05/clay-tournament/repositories/memory"
	"github.com/Dosada05/clay-tournament/services"
	"github.com/Dosada05/clay-tournament/storage"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v4"
)

var secret = []byte("routes-test-secret")

type apiClient struct {
	t      *testing.T
	server *httptest.Server
}

func newAPI(t *testing.T) *apiClient {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	store := memory.New()
	snapshots := cache.Noop{}
	uploader := storage.NewMemoryUploader("https://files.example.test")

	tournaments := services.NewTournamentService(store, store.Tournaments(), store.Squads(), store.TimeSlots(), logger)
	disciplines := services.NewDisciplineService(store.Disciplines())
	registrations := services.NewRegistrationService(store, store.Registrations(), store.Tournaments(), store.Athletes(), store.Teams(), store.Squads(), logger)
	scheduler := services.NewSchedulerService(store, store.Tournaments(), store.TimeSlots(), store.Squads(), store.Registrations(), store.Athletes(), store.Scores(), logger)
	ledger := services.NewLedgerService(store, store.Scores(), store.Imports(), store.Tournaments(), store.Disciplines(), store.Athletes(), store.Teams(), store.Registrations(), store.Squads(), snapshots, uploader, logger)
	leaderboards := services.NewLeaderboardService(store.Tournaments(), store.Scores(), snapshots, uploader, logger)
	classifier := services.NewClassificationService(classification.NewThresholdPolicy(50, nil), store.Athletes(), store.Disciplines(), store.Scores(), store.Tournaments(), snapshots, logger)
	roster := services.NewRosterService(store, store.Athletes(), store.Teams(), logger)

	router := chi.NewRouter()
	SetupRoutes(router,
		Options{Logger: logger, JWTSecret: secret, AllowedOrigins: []string{"*"}},
		handlers.NewTournamentHandler(tournaments, disciplines, registrations),
		handlers.NewScheduleHandler(scheduler),
		handlers.NewScoreHandler(ledger),
		handlers.NewLeaderboardHandler(leaderboards, classifier),
		handlers.NewRosterHandler(roster),
	)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return &apiClient{t: t, server: server}
}

func token(t *testing.T, userID int, role string) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": userID, "role": role}).SignedString(secret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return signed
}

func (c *apiClient) do(method, path, bearer, contentType string, body io.Reader) (int, map[string]json.RawMessage) {
	c.t.Helper()
	req, err := http.NewRequest(method, c.server.URL+path, body)
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := c.server.Client().Do(req)
	if err != nil {
		c.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	out := map[string]json.RawMessage{}
	if resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			c.t.Fatalf("%s %s: decode body: %v", method, path, err)
		}
	}
	return resp.StatusCode, out
}

func (c *apiClient) send(method, path, bearer string, payload any) (int, map[string]json.RawMessage) {
	c.t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			c.t.Fatalf("marshal: %v", err)
		}
		body = bytes.NewReader(raw)
	}
	return c.do(method, path, bearer, "application/json", body)
}

// mustJSON issues a request, requires status and decodes the value under key into dst.
func (c *apiClient) mustJSON(status int, method, path, bearer string, payload any, key string, dst any) {
	c.t.Helper()
	got, body := c.send(method, path, bearer, payload)
	if got != status {
		c.t.Fatalf("%s %s = %d, want %d (%s)", method, path, got, status, body["error"])
	}
	if dst != nil {
		if err := json.Unmarshal(body[key], dst); err != nil {
			c.t.Fatalf("%s %s: decode %q: %v", method, path, key, err)
		}
	}
}

type idOnly struct {
	ID int `json:"id"`
}

type errorEnvelope struct {
	Kind string `json:"kind"`
	Code string `json:"code"`
}

func errorOf(t *testing.T, body map[string]json.RawMessage) errorEnvelope {
	t.Helper()
	var e errorEnvelope
	if err := json.Unmarshal(body["error"], &e); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	return e
}

func TestShootDayOverHTTP(t *testing.T) {
	api := newAPI(t)
	admin := token(t, 1, "admin")
	coach := token(t, 2, "coach")
	athlete := token(t, 3, "athlete")

	var skeet idOnly
	api.mustJSON(http.StatusCreated, "POST", "/disciplines", admin,
		map[string]string{"code": "skeet", "name": "American Skeet", "governing_body": "NSSA"}, "discipline", &skeet)

	var tournament idOnly
	api.mustJSON(http.StatusCreated, "POST", "/tournaments", admin, map[string]any{
		"name": "Spring Open", "location": "Range",
		"start_date": "2026-05-01T00:00:00Z", "end_date": "2026-05-03T00:00:00Z",
		"disciplines": []map[string]int{{"discipline_id": skeet.ID, "rounds": 4}},
	}, "tournament", &tournament)

	// shooters[0] belongs to the athlete token's user, shooters[1] to nobody.
	var shooters [2]idOnly
	api.mustJSON(http.StatusCreated, "POST", "/athletes", admin, map[string]any{
		"user_id": 3, "first_name": "Shooter", "last_name": "0", "gender": "male", "division": "Open",
	}, "athlete", &shooters[0])
	api.mustJSON(http.StatusCreated, "POST", "/athletes", admin, map[string]any{
		"first_name": "Shooter", "last_name": "1", "gender": "male", "division": "Open",
	}, "athlete", &shooters[1])
	registrations := fmt.Sprintf("/tournaments/%d/registrations", tournament.ID)
	register := map[string]any{"athlete_id": shooters[1].ID, "discipline_ids": []int{skeet.ID}}

	status, body := api.send("POST", registrations, athlete, register)
	if status != http.StatusForbidden || errorOf(t, body).Code != "forbidden" {
		t.Fatalf("registering someone else = %d %s, want 403 forbidden", status, body["error"])
	}
	api.mustJSON(http.StatusCreated, "POST", registrations, athlete,
		map[string]any{"athlete_id": shooters[0].ID, "discipline_ids": []int{skeet.ID}}, "registration", nil)
	api.mustJSON(http.StatusCreated, "POST", registrations, admin, register, "registration", nil)
	status, body = api.send("DELETE", fmt.Sprintf("%s/%d", registrations, shooters[1].ID), athlete, nil)
	if status != http.StatusForbidden {
		t.Fatalf("unregistering someone else = %d %s, want 403", status, body["error"])
	}

	var slot idOnly
	api.mustJSON(http.StatusCreated, "POST", fmt.Sprintf("/tournaments/%d/timeslots", tournament.ID), coach,
		map[string]any{"start_time": "2026-05-01T09:00:00Z", "capacity": 5}, "time_slot", &slot)

	var squad idOnly
	api.mustJSON(http.StatusCreated, "POST", fmt.Sprintf("/tournaments/%d/squads", tournament.ID), coach,
		map[string]any{"discipline_id": skeet.ID, "round": 1, "name": "A", "max_size": 5, "time_slot_id": slot.ID}, "squad", &squad)
	for _, s := range shooters {
		api.mustJSON(http.StatusOK, "POST", fmt.Sprintf("/squads/%d/members", squad.ID), coach,
			map[string]int{"athlete_id": s.ID}, "squad", nil)
	}

	scorePath := fmt.Sprintf("/tournaments/%d/scores", tournament.ID)
	var first struct {
		ID      int `json:"id"`
		Version int `json:"version"`
	}
	api.mustJSON(http.StatusOK, "POST", scorePath, coach, map[string]any{
		"athlete_id": shooters[0].ID, "discipline_id": skeet.ID, "round": 1, "station": 0,
		"targets_thrown": 25, "targets_hit": 23, "final": true,
	}, "score", &first)

	// the body's tournament_id is ignored in favour of the path
	var again struct {
		ID      int `json:"id"`
		Version int `json:"version"`
	}
	api.mustJSON(http.StatusOK, "POST", scorePath, coach, map[string]any{
		"athlete_id": shooters[0].ID, "tournament_id": 999, "discipline_id": skeet.ID, "round": 1, "station": 0,
		"targets_thrown": 25, "targets_hit": 23, "final": true,
	}, "score", &again)
	if again.ID != first.ID || again.Version != first.Version {
		t.Fatalf("resubmission = %+v, want %+v", again, first)
	}

	api.mustJSON(http.StatusOK, "POST", scorePath, coach, map[string]any{
		"athlete_id": shooters[1].ID, "discipline_id": skeet.ID, "round": 1, "station": 0,
		"targets_thrown": 25, "targets_hit": 23, "final": true,
	}, "score", nil)

	var board struct {
		Rows []struct {
			AthleteID int `json:"athlete_id"`
			Rank      int `json:"rank"`
		} `json:"rows"`
	}
	api.mustJSON(http.StatusOK, "GET",
		fmt.Sprintf("/tournaments/%d/disciplines/%d/leaderboard?group_by=division", tournament.ID, skeet.ID), "", nil,
		"leaderboard", &board)
	if len(board.Rows) != 2 || board.Rows[0].Rank != 1 || board.Rows[1].Rank != 1 {
		t.Fatalf("leaderboard rows = %+v, want two athletes tied at rank 1", board.Rows)
	}

	correction := map[string]any{"targets_thrown": 25, "targets_hit": 22, "reason": "miscount"}
	status, body = api.send("POST", fmt.Sprintf("/scores/%d/corrections", first.ID), coach, correction)
	if status != http.StatusForbidden {
		t.Fatalf("coach correction status = %d, want 403", status)
	}
	if e := errorOf(t, body); e.Kind != "unauthorized" {
		t.Fatalf("coach correction error = %+v", e)
	}
	api.mustJSON(http.StatusOK, "POST", fmt.Sprintf("/scores/%d/corrections", first.ID), admin, correction, "score", nil)

	var corrections []struct {
		Reason      string `json:"reason"`
		CorrectedBy int    `json:"corrected_by"`
	}
	api.mustJSON(http.StatusOK, "GET", fmt.Sprintf("/scores/%d/corrections", first.ID), admin, nil, "corrections", &corrections)
	if len(corrections) != 1 || corrections[0].Reason != "miscount" || corrections[0].CorrectedBy != 1 {
		t.Fatalf("corrections = %+v", corrections)
	}
}

func TestErrorStatusMapping(t *testing.T) {
	api := newAPI(t)
	admin := token(t, 1, "admin")
	athlete := token(t, 3, "athlete")

	tests := []struct {
		name   string
		method string
		path   string
		bearer string
		body   any
		status int
		kind   string
	}{
		{"no token", "POST", "/tournaments", "", map[string]string{}, http.StatusUnauthorized, "unauthorized"},
		{"bad token", "POST", "/tournaments", "garbage", map[string]string{}, http.StatusUnauthorized, "unauthorized"},
		{"missing capability", "POST", "/tournaments/1/timeslots", athlete, map[string]any{}, http.StatusForbidden, "unauthorized"},
		{"validation", "POST", "/tournaments", admin, map[string]any{"name": ""}, http.StatusBadRequest, "validation"},
		{"unknown field", "POST", "/disciplines", admin, map[string]any{"colour": "orange"}, http.StatusBadRequest, "validation"},
		{"bad id", "GET", "/tournaments/abc", "", nil, http.StatusBadRequest, "validation"},
		{"not found", "GET", "/tournaments/404", "", nil, http.StatusNotFound, "not_found"},
		{"squad not found", "POST", "/squads/77/move", admin, map[string]int{"time_slot_id": 1}, http.StatusNotFound, "not_found"},
		{"bad group_by", "GET", "/tournaments/1/disciplines/1/leaderboard?group_by=team", "", nil, http.StatusBadRequest, "validation"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := api.send(tt.method, tt.path, tt.bearer, tt.body)
			if status != tt.status {
				t.Fatalf("status = %d, want %d (%s)", status, tt.status, body["error"])
			}
			if e := errorOf(t, body); e.Kind != tt.kind {
				t.Fatalf("kind = %q, want %q", e.Kind, tt.kind)
			}
		})
	}
}

func TestImportScoresMultipart(t *testing.T) {
	api := newAPI(t)
	admin := token(t, 1, "admin")

	var trap idOnly
	api.mustJSON(http.StatusCreated, "POST", "/disciplines", admin,
		map[string]string{"code": "trap", "name": "Trap", "governing_body": "NSCA"}, "discipline", &trap)
	var tournament idOnly
	api.mustJSON(http.StatusCreated, "POST", "/tournaments", admin, map[string]any{
		"name": "Club Shoot", "location": "Range",
		"start_date": "2026-05-01T00:00:00Z", "end_date": "2026-05-01T00:00:00Z",
		"disciplines": []map[string]int{{"discipline_id": trap.ID, "rounds": 2}},
	}, "tournament", &tournament)
	var shooter idOnly
	api.mustJSON(http.StatusCreated, "POST", "/athletes", admin, map[string]any{
		"first_name": "Ann", "last_name": "Oakley", "gender": "female", "division": "Open",
	}, "athlete", &shooter)
	api.mustJSON(http.StatusCreated, "POST", fmt.Sprintf("/tournaments/%d/registrations", tournament.ID), admin,
		map[string]any{"athlete_id": shooter.ID, "discipline_ids": []int{trap.ID}}, "registration", nil)
	var squad idOnly
	api.mustJSON(http.StatusCreated, "POST", fmt.Sprintf("/tournaments/%d/squads", tournament.ID), admin,
		map[string]any{"discipline_id": trap.ID, "round": 1, "name": "A", "max_size": 5}, "squad", &squad)
	api.mustJSON(http.StatusOK, "POST", fmt.Sprintf("/squads/%d/members", squad.ID), admin,
		map[string]int{"athlete_id": shooter.ID}, "squad", nil)

	upload := func(csv string) (int, map[string]json.RawMessage) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		part, err := mw.CreateFormFile("file", "hut-1.csv")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := io.WriteString(part, csv); err != nil {
			t.Fatalf("write form file: %v", err)
		}
		if err := mw.Close(); err != nil {
			t.Fatalf("close multipart: %v", err)
		}
		return api.do("POST", fmt.Sprintf("/tournaments/%d/scores/import", tournament.ID), admin, mw.FormDataContentType(), &buf)
	}

	status, body := upload(fmt.Sprintf("athlete_id,discipline,round,thrown,hit,final\n%d,trap,1,25,24,true\n", shooter.ID))
	if status != http.StatusCreated {
		t.Fatalf("import status = %d (%s)", status, body["error"])
	}
	var result struct {
		Batch struct {
			ID      string  `json:"id"`
			Rows    int     `json:"rows"`
			Source  string  `json:"source"`
			FileURL *string `json:"file_url"`
		} `json:"batch"`
	}
	if err := json.Unmarshal(body["import"], &result); err != nil {
		t.Fatalf("decode import: %v", err)
	}
	if result.Batch.Rows != 1 || result.Batch.Source != "csv" || result.Batch.FileURL == nil {
		t.Fatalf("batch = %+v", result.Batch)
	}

	api.mustJSON(http.StatusOK, "GET", "/imports/"+result.Batch.ID, admin, nil, "import", nil)

	status, body = upload("athlete_id,discipline,round,thrown\n1,trap,1,25\n")
	if status != http.StatusBadRequest {
		t.Fatalf("missing column status = %d, want 400", status)
	}
	if e := errorOf(t, body); e.Kind != "validation" {
		t.Fatalf("missing column error = %+v", e)
	}

	status, _ = upload(fmt.Sprintf("athlete_id,discipline,round,thrown,hit\n%d,trap,2,25,20\n", shooter.ID))
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("round without squad status = %d, want 422", status)
	}
}
