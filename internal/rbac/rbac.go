// Package rbac maps dashboard roles to the menu items they may open.
package rbac

import "strings"

type Role string
type Item string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
)

const (
	ItemDashboard     Item = "dashboard"
	ItemIdeas         Item = "ideas"
	ItemEvidence      Item = "evidence"
	ItemProjects      Item = "projects"
	ItemSubscriptions Item = "subscriptions"
	ItemUsers         Item = "users"
	ItemSettings      Item = "settings"
)

// allItems is every menu item in display order.
var allItems = []Item{
	ItemDashboard,
	ItemIdeas,
	ItemEvidence,
	ItemProjects,
	ItemSubscriptions,
	ItemUsers,
	ItemSettings,
}

func set(items ...Item) map[Item]struct{} {
	out := make(map[Item]struct{}, len(items))
	for _, item := range items {
		out[item] = struct{}{}
	}
	return out
}

// capabilities is the role -> allowed item table. Both roles currently share
// the full set; differentiate here.
var capabilities = map[Role]map[Item]struct{}{
	RoleAdmin:    set(allItems...),
	RoleEmployee: set(allItems...),
}

func Items() []Item {
	return append([]Item(nil), allItems...)
}

func Can(role Role, item Item) bool {
	allowed, ok := capabilities[role]
	if !ok {
		return false
	}
	_, ok = allowed[item]
	return ok
}

// Allowed returns the items role may open, in display order.
func Allowed(role Role) []Item {
	var out []Item
	for _, item := range allItems {
		if Can(role, item) {
			out = append(out, item)
		}
	}
	return out
}

// Normalize maps a free-form role string onto a known role. Unknown values
// become employee.
func Normalize(role string) Role {
	switch r := Role(strings.ToLower(strings.TrimSpace(role))); r {
	case RoleAdmin, RoleEmployee:
		return r
	default:
		return RoleEmployee
	}
}
