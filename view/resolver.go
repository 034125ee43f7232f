// Package view decides which affordances the front end shows for the
// current auth state. It depends only on the core's queries, never on
// the raw user shape, so role logic lives in exactly one place.
package view

import "github.com/jrsteele09/go-bookshelf-client/session"

// AuthState is the slice of the auth core the resolver consumes.
type AuthState interface {
	IsAuthenticated() bool
	RoleIs(role session.Role) bool
}

// Routes understood by the resolver.
const (
	RouteCatalog  = "/catalog"
	RouteLogin    = "/login"
	RouteRegister = "/register"
	RouteLibrary  = "/my-library"
	RouteAddBook  = "/books/add"
	RouteEditBook = "/books/edit"
)

// NavItem is one navigation affordance.
type NavItem struct {
	Label string
	Route string
}

type Resolver struct {
	auth AuthState
}

func NewResolver(auth AuthState) *Resolver {
	return &Resolver{auth: auth}
}

// NavItems returns the navigation entries visible right now.
func (r *Resolver) NavItems() []NavItem {
	items := []NavItem{{Label: "Catalog", Route: RouteCatalog}}

	if !r.auth.IsAuthenticated() {
		return append(items,
			NavItem{Label: "Login", Route: RouteLogin},
			NavItem{Label: "Register", Route: RouteRegister},
		)
	}
	items = append(items, NavItem{Label: "My Library", Route: RouteLibrary})
	if r.CanManageBooks() {
		items = append(items, NavItem{Label: "Add Book", Route: RouteAddBook})
	}
	return items
}

// CanManageBooks gates the Add/Edit/Delete affordances.
func (r *Resolver) CanManageBooks() bool {
	return r.auth.RoleIs(session.RoleTeacher)
}

// CanAccess reports whether the current actor may enter the route.
func (r *Resolver) CanAccess(route string) bool {
	switch route {
	case RouteCatalog, RouteLogin, RouteRegister:
		return true
	case RouteLibrary:
		return r.auth.IsAuthenticated()
	case RouteAddBook, RouteEditBook:
		return r.CanManageBooks()
	default:
		return r.auth.IsAuthenticated()
	}
}
