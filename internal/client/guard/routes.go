package guard

import "github.com/dmitrijs2005/certportal/internal/client/models"

const (
	PathHome      = "/"
	PathLogin     = "/login"
	PathRegister  = "/register"
	PathDashboard = "/dashboard"
	PathUpload    = "/upload"
	PathAdmin     = "/admin"
)

// Route is one entry of the client's route table.
type Route struct {
	Path   string
	Title  string
	Access Access
}

var routes = []Route{
	{Path: PathHome, Title: "Home", Access: AccessPublic},
	{Path: PathLogin, Title: "Login", Access: AccessPublic},
	{Path: PathRegister, Title: "Register", Access: AccessPublic},
	{Path: PathDashboard, Title: "My Certificates", Access: AccessAuthenticated},
	{Path: PathUpload, Title: "Upload Certificate", Access: AccessAuthenticated},
	{Path: PathAdmin, Title: "Admin Dashboard", Access: AccessAdminOnly},
}

// Routes returns a copy of the route table in display order.
func Routes() []Route {
	out := make([]Route, len(routes))
	copy(out, routes)
	return out
}

// Lookup finds the route registered for path.
func Lookup(path string) (Route, bool) {
	for _, r := range routes {
		if r.Path == path {
			return r, true
		}
	}
	return Route{}, false
}

// PermittedRoutes lists the protected routes a signed-in user with role may
// open. It backs both the guard's role check and the navigation menu.
func PermittedRoutes(role models.Role) []Route {
	var out []Route
	for _, r := range routes {
		if r.Access != AccessPublic && Allows(role, r.Access) {
			out = append(out, r)
		}
	}
	return out
}
