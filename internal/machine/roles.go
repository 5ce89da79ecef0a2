// Package machine recommends which production machine should cut an order.
package machine

import (
	"sort"
	"strings"
	"time"
)

// Role is the production role a machine plays in the workshop.
type Role string

const (
	// RoleSmallPanel cuts many small panels per board.
	RoleSmallPanel Role = "small_panel"
	// RoleLargePanel cuts few large panels per board.
	RoleLargePanel Role = "large_panel"
	// RoleSmallOrder is reserved for small offcut orders.
	RoleSmallOrder Role = "small_order"
)

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSmallPanel, RoleLargePanel, RoleSmallOrder:
		return true
	}
	return false
}

// Label returns the number the workshop uses for the role on screens and
// cutting sheets.
func (r Role) Label() string {
	switch r {
	case RoleSmallPanel:
		return "1"
	case RoleLargePanel:
		return "2"
	case RoleSmallOrder:
		return "3"
	}
	return ""
}

// Machine is a configured production machine.
type Machine struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Comment          string    `json:"comment"`
	Role             Role      `json:"role,omitempty"`
	UsageLimitPerDay int       `json:"usage_limit_per_day"`
	CreatedAt        time.Time `json:"created_at"`
}

// Roles maps each role to the machine that plays it.
type Roles map[Role]Machine

// smallOrderMarkers identify the small order machine in machines configured
// before roles were stored.
var smallOrderMarkers = []string{"gyuri", "kis rendelés"}

func isSmallOrderMachine(m Machine) bool {
	text := strings.ToLower(m.Name + " " + m.Comment)
	for _, marker := range smallOrderMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

// InferRoles assigns roles to machines that carry none. The first machine
// whose name or comment carries a small order marker becomes RoleSmallOrder;
// the rest are ordered by creation time, the earliest becoming
// RoleSmallPanel and the next RoleLargePanel. Without a marked machine the
// third oldest becomes RoleSmallOrder. Roles already taken by a labelled
// machine are skipped. The result is keyed by machine ID.
func InferRoles(machines []Machine) map[string]Role {
	taken := make(map[Role]bool, 3)
	var unlabelled []Machine
	for _, m := range machines {
		if m.Role.Valid() && !taken[m.Role] {
			taken[m.Role] = true
			continue
		}
		unlabelled = append(unlabelled, m)
	}

	assigned := make(map[string]Role)
	if !taken[RoleSmallOrder] {
		for i, m := range unlabelled {
			if isSmallOrderMachine(m) {
				assigned[m.ID] = RoleSmallOrder
				taken[RoleSmallOrder] = true
				unlabelled = append(unlabelled[:i:i], unlabelled[i+1:]...)
				break
			}
		}
	}

	sort.SliceStable(unlabelled, func(i, j int) bool {
		return unlabelled[i].CreatedAt.Before(unlabelled[j].CreatedAt)
	})

	next := 0
	for _, role := range []Role{RoleSmallPanel, RoleLargePanel, RoleSmallOrder} {
		if taken[role] {
			continue
		}
		if next >= len(unlabelled) {
			break
		}
		assigned[unlabelled[next].ID] = role
		taken[role] = true
		next++
	}

	return assigned
}

// ResolveRoles returns the machine playing each role. Stored roles win; the
// remaining roles are filled by InferRoles, so any three machines resolve.
// It reports false when fewer than three machines are configured.
func ResolveRoles(machines []Machine) (Roles, bool) {
	if len(machines) < 3 {
		return nil, false
	}

	inferred := InferRoles(machines)
	roles := make(Roles, 3)
	for _, m := range machines {
		role := m.Role
		if r, ok := inferred[m.ID]; ok {
			role = r
		}
		if !role.Valid() {
			continue
		}
		if _, exists := roles[role]; !exists {
			roles[role] = m
		}
	}

	for _, role := range []Role{RoleSmallPanel, RoleLargePanel, RoleSmallOrder} {
		if _, ok := roles[role]; !ok {
			return nil, false
		}
	}
	return roles, true
}
