package guard

import (
	"testing"

	"github.com/dmitrijs2005/certportal/internal/client/models"
	"github.com/dmitrijs2005/certportal/internal/client/session"
	"github.com/stretchr/testify/assert"
)

var (
	standard = &models.User{ID: "u1", Email: "alice@example.org", Role: models.RoleUser}
	admin    = &models.User{ID: "u2", Email: "root@example.org", Role: models.RoleAdmin}
)

func TestDecide_Table(t *testing.T) {
	tests := []struct {
		name     string
		snap     session.Snapshot
		required Access
		want     Decision
	}{
		{"loading, no user, authenticated", session.Snapshot{Loading: true}, AccessAuthenticated, Decision{Outcome: OutcomeLoading}},
		{"loading, no user, admin", session.Snapshot{Loading: true}, AccessAdminOnly, Decision{Outcome: OutcomeLoading}},
		{"loading, standard user, admin", session.Snapshot{Loading: true, User: standard}, AccessAdminOnly, Decision{Outcome: OutcomeLoading}},
		{"loading, admin user, authenticated", session.Snapshot{Loading: true, User: admin}, AccessAuthenticated, Decision{Outcome: OutcomeLoading}},

		{"no user, authenticated", session.Snapshot{}, AccessAuthenticated, Decision{Outcome: OutcomeRedirectLogin, Target: PathLogin, Replace: true}},
		{"no user, admin", session.Snapshot{}, AccessAdminOnly, Decision{Outcome: OutcomeRedirectLogin, Target: PathLogin, Replace: true}},

		{"standard user, admin", session.Snapshot{User: standard}, AccessAdminOnly, Decision{Outcome: OutcomeRedirectDashboard, Target: PathDashboard, Replace: true}},
		{"unknown role, admin", session.Snapshot{User: &models.User{Role: "auditor"}}, AccessAdminOnly, Decision{Outcome: OutcomeRedirectDashboard, Target: PathDashboard, Replace: true}},
		{"admin user, admin", session.Snapshot{User: admin}, AccessAdminOnly, Decision{Outcome: OutcomeRender}},

		{"standard user, authenticated", session.Snapshot{User: standard}, AccessAuthenticated, Decision{Outcome: OutcomeRender}},
		{"admin user, authenticated", session.Snapshot{User: admin}, AccessAuthenticated, Decision{Outcome: OutcomeRender}},

		{"public while loading", session.Snapshot{Loading: true}, AccessPublic, Decision{Outcome: OutcomeRender}},
		{"public logged out", session.Snapshot{}, AccessPublic, Decision{Outcome: OutcomeRender}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.snap, tt.required))
		})
	}
}

func TestDecide_StandardUserOnAdminGoesToDashboardNotLogin(t *testing.T) {
	route, ok := Lookup(PathAdmin)
	assert.True(t, ok)

	d := Decide(session.Snapshot{User: standard}, route.Access)
	assert.Equal(t, OutcomeRedirectDashboard, d.Outcome)
	assert.Equal(t, PathDashboard, d.Target)
}

func TestDecide_IsStateless(t *testing.T) {
	route, _ := Lookup(PathUpload)

	assert.Equal(t, OutcomeRedirectLogin, Decide(session.Snapshot{}, route.Access).Outcome)
	assert.Equal(t, OutcomeRender, Decide(session.Snapshot{User: standard}, route.Access).Outcome)
	assert.Equal(t, OutcomeRedirectLogin, Decide(session.Snapshot{}, route.Access).Outcome)
}

func TestLookup(t *testing.T) {
	tests := []struct {
		path   string
		access Access
	}{
		{PathHome, AccessPublic},
		{PathLogin, AccessPublic},
		{PathRegister, AccessPublic},
		{PathDashboard, AccessAuthenticated},
		{PathUpload, AccessAuthenticated},
		{PathAdmin, AccessAdminOnly},
	}
	for _, tt := range tests {
		r, ok := Lookup(tt.path)
		assert.True(t, ok, tt.path)
		assert.Equal(t, tt.access, r.Access, tt.path)
	}

	_, ok := Lookup("/settings")
	assert.False(t, ok)
}

func paths(rs []Route) []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.Path)
	}
	return out
}

func TestPermittedRoutes(t *testing.T) {
	assert.Equal(t, []string{PathDashboard, PathUpload}, paths(PermittedRoutes(models.RoleUser)))
	assert.Equal(t, []string{PathDashboard, PathUpload, PathAdmin}, paths(PermittedRoutes(models.RoleAdmin)))
	assert.Equal(t, []string{PathDashboard, PathUpload}, paths(PermittedRoutes("")))
}

func TestPermittedRoutesAgreeWithDecide(t *testing.T) {
	for _, u := range []*models.User{standard, admin} {
		permitted := map[string]bool{}
		for _, r := range PermittedRoutes(u.Role) {
			permitted[r.Path] = true
		}
		for _, r := range Routes() {
			if r.Access == AccessPublic {
				continue
			}
			rendered := Decide(session.Snapshot{User: u}, r.Access).Outcome == OutcomeRender
			assert.Equal(t, permitted[r.Path], rendered, "role=%s path=%s", u.Role, r.Path)
		}
	}
}

func TestStrings(t *testing.T) {
	assert.Equal(t, "admin", AccessAdminOnly.String())
	assert.Equal(t, "redirect-dashboard", OutcomeRedirectDashboard.String())
	assert.Equal(t, "unknown", Outcome(42).String())
	assert.False(t, Allows(models.RoleAdmin, Access(9)))
}
