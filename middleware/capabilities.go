package middleware

import (
	"net/http"
	"slices"

	"github.com/Dosada05/clay-tournament/models"
)

// Capability names an operation group guarded at the route level.
type Capability string

const (
	CapManageTeams           Capability = "manage_teams"
	CapRequestJoin           Capability = "request_join"
	CapManageTournaments     Capability = "manage_tournaments"
	CapRegister              Capability = "register"
	CapManageSchedule        Capability = "manage_schedule"
	CapRecordScores          Capability = "record_scores"
	CapCorrectScores         Capability = "correct_scores"
	CapManageClassifications Capability = "manage_classifications"
)

// roleCapabilities is the only place that decides which role may do what. Ownership checks
// (a coach managing their own team) stay in the services.
var roleCapabilities = map[models.UserRole][]Capability{
	models.RoleAthlete: {CapRequestJoin, CapRegister},
	models.RoleCoach: {
		CapManageTeams, CapRequestJoin, CapRegister, CapManageSchedule, CapRecordScores,
	},
	models.RoleAdmin: {
		CapManageTeams, CapRequestJoin, CapManageTournaments, CapRegister, CapManageSchedule,
		CapRecordScores, CapCorrectScores, CapManageClassifications,
	},
}

func Allowed(role models.UserRole, capability Capability) bool {
	return slices.Contains(roleCapabilities[role], capability)
}

// Require rejects requests whose token role lacks capability. It must run after Authenticate.
func Require(capability Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, err := GetUserRoleFromContext(r.Context())
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthenticated", err.Error())
				return
			}
			if !Allowed(role, capability) {
				writeError(w, http.StatusForbidden, "forbidden", "role "+string(role)+" lacks "+string(capability))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
