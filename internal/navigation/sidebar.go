// Package navigation builds the dashboard sidebar from the role capability
// table.
package navigation

import (
	"errors"

	"ideaboard/api/internal/rbac"
)

type MenuItem struct {
	ID     rbac.Item `json:"id"`
	Label  string    `json:"label"`
	Icon   string    `json:"icon"`
	Active bool      `json:"active"`
}

var labels = map[rbac.Item]struct{ label, icon string }{
	rbac.ItemDashboard:     {"Dashboard", "home"},
	rbac.ItemIdeas:         {"Ideas", "lightbulb"},
	rbac.ItemEvidence:      {"Evidence", "file-text"},
	rbac.ItemProjects:      {"Projects", "folder"},
	rbac.ItemSubscriptions: {"Subscriptions", "credit-card"},
	rbac.ItemUsers:         {"Users", "users"},
	rbac.ItemSettings:      {"Settings", "settings"},
}

var ErrItemNotAllowed = errors.New("menu item not allowed for role")

// Sidebar renders the menu. The active tab and what happens on tab change or
// logout belong to the caller.
type Sidebar struct {
	Active      func() string
	OnTabChange func(tab string)
	OnLogout    func()
}

// Items returns the menu for role in display order, marking the active tab.
func (s Sidebar) Items(role rbac.Role) []MenuItem {
	active := ""
	if s.Active != nil {
		active = s.Active()
	}
	allowed := rbac.Allowed(role)
	out := make([]MenuItem, 0, len(allowed))
	for _, item := range allowed {
		meta := labels[item]
		out = append(out, MenuItem{
			ID:     item,
			Label:  meta.label,
			Icon:   meta.icon,
			Active: string(item) == active,
		})
	}
	return out
}

// Click requests a tab change for item.
func (s Sidebar) Click(role rbac.Role, item rbac.Item) error {
	if !rbac.Can(role, item) {
		return ErrItemNotAllowed
	}
	if s.OnTabChange != nil {
		s.OnTabChange(string(item))
	}
	return nil
}

func (s Sidebar) Logout() {
	if s.OnLogout != nil {
		s.OnLogout()
	}
}
