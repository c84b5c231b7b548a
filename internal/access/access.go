// Package access decides which admin operations a signed-in operator may perform.
// Roles come from identity provider groups; explicit permission grants can only add to
// what a role allows.
package access

import "strings"

type Action string

const (
	FormsView          Action = "forms:view"
	FormsEdit          Action = "forms:edit"
	ApplicationsView   Action = "applications:view"
	ApplicationsCreate Action = "applications:create"
	ApplicationsEdit   Action = "applications:edit"
)

var Actions = []Action{FormsView, FormsEdit, ApplicationsView, ApplicationsCreate, ApplicationsEdit}

const (
	RoleViewer     = "viewer"
	RoleCounsellor = "counsellor"
	RoleAdmin      = "admin"
)

var roleActions = map[string][]Action{
	RoleViewer:     {FormsView, ApplicationsView},
	RoleCounsellor: {FormsView, ApplicationsView, ApplicationsCreate, ApplicationsEdit},
	RoleAdmin:      Actions,
}

// Set is the effective permission set of an operator.
type Set map[Action]bool

// NewSet builds the union of what roles grant plus explicit permission strings. Unknown
// roles and permissions are ignored.
func NewSet(roles []string, permissions []string) Set {
	set := make(Set)
	for _, role := range roles {
		for _, a := range roleActions[strings.ToLower(strings.TrimSpace(role))] {
			set[a] = true
		}
	}
	for _, p := range permissions {
		a := Action(strings.ToLower(strings.TrimSpace(p)))
		if IsValidAction(a) {
			set[a] = true
		}
	}
	return set
}

// Can reports whether perms allows action. A nil set allows nothing.
func Can(perms Set, action Action) bool {
	return perms[action]
}

func IsValidRole(role string) bool {
	_, ok := roleActions[role]
	return ok
}

func IsValidAction(a Action) bool {
	for _, known := range Actions {
		if known == a {
			return true
		}
	}
	return false
}

// List returns the granted actions in declaration order.
func (s Set) List() []Action {
	out := make([]Action, 0, len(s))
	for _, a := range Actions {
		if s[a] {
			out = append(out, a)
		}
	}
	return out
}
