package session

import "github.com/leekHotline/seeforme/internal/model"

// Area is the navigation group the user is currently in, mirroring the
// app's public / seeker / volunteer route groups.
type Area string

const (
	AreaPublic    Area = "public"
	AreaSeeker    Area = "seeker"
	AreaVolunteer Area = "volunteer"
)

// Routes the guard can redirect to.
const (
	RouteLogin         = "/public/login"
	RouteSeekerHall    = "/seeker/hall"
	RouteVolunteerHall = "/volunteer/hall"
)

// Navigator receives redirect decisions. The UI implements it; tests
// substitute a recorder.
type Navigator interface {
	RedirectTo(route string)
}

// Redirect decides where the user belongs given the session state and
// their current area. It returns ok=false when no redirect is needed.
// While the session is still loading no decision is made at all.
func Redirect(snap Snapshot, area Area) (route string, ok bool) {
	if snap.Loading {
		return "", false
	}

	if !snap.Authenticated {
		if area != AreaPublic {
			return RouteLogin, true
		}
		return "", false
	}

	home := RouteSeekerHall
	if snap.Role == model.RoleVolunteer {
		home = RouteVolunteerHall
	}

	switch area {
	case AreaPublic:
		return home, true
	case AreaSeeker:
		if snap.Role == model.RoleVolunteer {
			return home, true
		}
	case AreaVolunteer:
		if snap.Role == model.RoleSeeker {
			return home, true
		}
	}
	return "", false
}
