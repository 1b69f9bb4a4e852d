package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Dosada05/clay-tournament/services"
	"github.com/go-chi/chi/v5"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var env struct {
		Error errorBody `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return env.Error
}

func TestMapServiceErrorToHTTP(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		kind   string
		code   string
	}{
		{"validation", services.ErrInvalidScore.Withf("hit 26 exceeds thrown 25"), http.StatusBadRequest, "validation", "invalid_score"},
		{"not found", services.ErrSquadNotFound, http.StatusNotFound, "not_found", "squad_not_found"},
		{"conflict", services.ErrSlotCapacityExceeded, http.StatusConflict, "conflict", "slot_capacity_exceeded"},
		{"consistency", services.ErrCrossTournament, http.StatusUnprocessableEntity, "consistency", "cross_tournament"},
		{"forbidden", services.ErrForbiddenOperation, http.StatusForbidden, "unauthorized", "forbidden"},
		{"wrapped", errors.Join(errors.New("outer"), services.ErrDoubleBooked), http.StatusConflict, "conflict", "double_booked"},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, "internal", "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mapServiceErrorToHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			body := decodeError(t, rec)
			if body.Kind != tt.kind || body.Code != tt.code {
				t.Fatalf("error = %+v, want kind %s code %s", body, tt.kind, tt.code)
			}
		})
	}

	rec := httptest.NewRecorder()
	mapServiceErrorToHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("connection refused to 10.0.0.5"))
	if strings.Contains(rec.Body.String(), "10.0.0.5") {
		t.Fatalf("internal error detail leaked: %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	mapServiceErrorToHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil), services.ErrInvalidScore.Withf("line 4"))
	if got := decodeError(t, rec).Detail; got != "invalid score values: line 4" {
		t.Fatalf("detail = %q", got)
	}
}

func TestReadJSON(t *testing.T) {
	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"ok", `{"name":"trap","count":2}`, ""},
		{"empty", ``, "body must not be empty"},
		{"syntax", `{"name":}`, "badly-formed JSON"},
		{"wrong type", `{"count":"two"}`, `incorrect JSON type for field "count"`},
		{"unknown key", `{"nickname":"x"}`, `unknown key "nickname"`},
		{"two values", `{"name":"a"}{"name":"b"}`, "single JSON value"},
		{"too large", `{"name":"` + strings.Repeat("x", maxJSONBytes) + `"}`, "must not be larger than"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var dst payload
			err := readJSON(httptest.NewRecorder(), req, &dst)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("readJSON: %v", err)
				}
				if dst.Name != "trap" || dst.Count != 2 {
					t.Fatalf("decoded %+v", dst)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestGetIDFromURL(t *testing.T) {
	tests := []struct {
		value   string
		want    int
		wantErr bool
	}{
		{"42", 42, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rctx := chi.NewRouteContext()
		if tt.value != "" {
			rctx.URLParams.Add("squadID", tt.value)
		}
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

		got, err := getIDFromURL(req, "squadID")
		if (err != nil) != tt.wantErr {
			t.Fatalf("getIDFromURL(%q) err = %v, wantErr %v", tt.value, err, tt.wantErr)
		}
		if got != tt.want {
			t.Fatalf("getIDFromURL(%q) = %d, want %d", tt.value, got, tt.want)
		}
	}
}
