package constants

import "strings"

// Route classes for the path-prefix guard. A path matches at most one
// class; unmatched paths default to allow-if-authenticated.
const (
	RouteClassNone              = ""
	RouteClassSuperAdminOnly    = "super_admin_only"
	RouteClassOrgAdminOnly      = "org_admin_only"
	RouteClassVolunteerOnly     = "volunteer_only"
	RouteClassVolunteerExcluded = "volunteer_excluded"
)

type routePrefix struct {
	Prefix string
	Class  string
}

// Ordered so /volunteer-dashboard is classified before /dashboard would
// ever be consulted (the prefixes are disjoint, but order keeps intent
// obvious).
var routePrefixes = []routePrefix{
	{"/admin/super/", RouteClassSuperAdminOnly},
	{"/org/", RouteClassOrgAdminOnly},
	{"/volunteer-dashboard/", RouteClassVolunteerOnly},
	{"/dashboard/", RouteClassVolunteerExcluded},
}

// ClassifyRoute returns the policy class for a request path.
func ClassifyRoute(path string) string {
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	for _, rp := range routePrefixes {
		if strings.HasPrefix(path, rp.Prefix) {
			return rp.Class
		}
	}
	return RouteClassNone
}
