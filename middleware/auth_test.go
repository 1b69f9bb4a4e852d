package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Dosada05/clay-tournament/models"
	"github.com/golang-jwt/jwt/v4"
)

var testSecret = []byte("test-secret")

func signToken(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func echoIdentity() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := GetUserIDFromContext(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusTeapot)
			return
		}
		role, err := GetUserRoleFromContext(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusTeapot)
			return
		}
		w.Header().Set("X-User", fmt.Sprintf("%d:%s", id, role))
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticate(t *testing.T) {
	valid := signToken(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{
		"user_id": 7, "role": "coach", "exp": time.Now().Add(time.Hour).Unix(),
	})
	expired := signToken(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{
		"user_id": 7, "role": "coach", "exp": time.Now().Add(-time.Hour).Unix(),
	})
	wrongKey := signToken(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"user_id": 7, "role": "coach"})
	noneAlg := signToken(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, jwt.MapClaims{"user_id": 7, "role": "coach"})

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid", "Bearer " + valid, http.StatusOK},
		{"lowercase scheme", "bearer " + valid, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"expired", "Bearer " + expired, http.StatusUnauthorized},
		{"wrong key", "Bearer " + wrongKey, http.StatusUnauthorized},
		{"none algorithm", "Bearer " + noneAlg, http.StatusUnauthorized},
	}

	h := Authenticate(testSecret)(echoIdentity())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.status, rec.Body.String())
			}
			if tt.status == http.StatusUnauthorized && !strings.Contains(rec.Body.String(), `"kind":"unauthorized"`) {
				t.Fatalf("body = %s, want error envelope", rec.Body.String())
			}
			if tt.status == http.StatusOK && rec.Header().Get("X-User") != "7:coach" {
				t.Fatalf("identity = %q, want 7:coach", rec.Header().Get("X-User"))
			}
		})
	}
}

func TestClaimGetters(t *testing.T) {
	tests := []struct {
		name    string
		claims  jwt.MapClaims
		wantID  int
		idErr   bool
		roleErr bool
	}{
		{"float id", jwt.MapClaims{"user_id": float64(3), "role": "admin"}, 3, false, false},
		{"string id", jwt.MapClaims{"user_id": "12", "role": "athlete"}, 12, false, false},
		{"fractional id", jwt.MapClaims{"user_id": 1.5, "role": "admin"}, 0, true, false},
		{"zero id", jwt.MapClaims{"user_id": float64(0), "role": "admin"}, 0, true, false},
		{"missing id", jwt.MapClaims{"role": "admin"}, 0, true, false},
		{"unknown role", jwt.MapClaims{"user_id": float64(1), "role": "referee"}, 1, false, true},
		{"role not string", jwt.MapClaims{"user_id": float64(1), "role": 5}, 1, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := WithClaims(t.Context(), tt.claims)
			id, err := GetUserIDFromContext(ctx)
			if (err != nil) != tt.idErr {
				t.Fatalf("GetUserIDFromContext err = %v, wantErr %v", err, tt.idErr)
			}
			if !tt.idErr && id != tt.wantID {
				t.Fatalf("id = %d, want %d", id, tt.wantID)
			}
			if _, err := GetUserRoleFromContext(ctx); (err != nil) != tt.roleErr {
				t.Fatalf("GetUserRoleFromContext err = %v, wantErr %v", err, tt.roleErr)
			}
		})
	}

	if _, err := GetUserIDFromContext(t.Context()); err != ErrNoClaims {
		t.Fatalf("no claims err = %v, want ErrNoClaims", err)
	}
}

func TestRequire(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

	tests := []struct {
		name   string
		role   models.UserRole
		cap    Capability
		status int
	}{
		{"admin corrects scores", models.RoleAdmin, CapCorrectScores, http.StatusNoContent},
		{"coach records scores", models.RoleCoach, CapRecordScores, http.StatusNoContent},
		{"coach cannot correct", models.RoleCoach, CapCorrectScores, http.StatusForbidden},
		{"coach cannot create tournaments", models.RoleCoach, CapManageTournaments, http.StatusForbidden},
		{"athlete registers", models.RoleAthlete, CapRegister, http.StatusNoContent},
		{"athlete cannot schedule", models.RoleAthlete, CapManageSchedule, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			req = req.WithContext(WithClaims(req.Context(), jwt.MapClaims{"user_id": float64(1), "role": string(tt.role)}))
			rec := httptest.NewRecorder()
			Require(tt.cap)(ok).ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}

	rec := httptest.NewRecorder()
	Require(CapRegister)(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no claims status = %d, want 401", rec.Code)
	}
}
