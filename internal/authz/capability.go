package authz

import "sort"

// Capabilities are opaque "<area>.<name>" strings. Matching is exact: there
// is no wildcard or hierarchy between them.
const (
	CapViewOrganization    = "organizations.view_organization"
	CapAddUser             = "organizations.add_user"
	CapRemoveUser          = "organizations.remove_user"
	CapAddProject          = "projects.add_project"
	CapViewProject         = "projects.view_project"
	CapChangeProject       = "projects.change_project"
	CapDeleteProject       = "projects.delete_project"
	CapUpdateProjectStatus = "projects.update_project_status"
	CapComment             = "projects.can_comment"
)

// Capability sets provisioned on entity creation.
var (
	orgAdminCapabilities  = []string{CapAddProject, CapAddUser, CapRemoveUser}
	orgMemberCapabilities = []string{CapViewOrganization}

	projectAdminCapabilities = []string{
		CapViewProject, CapChangeProject, CapDeleteProject,
		CapUpdateProjectStatus, CapComment,
	}
	projectAssigneeCapabilities = []string{
		CapViewProject, CapUpdateProjectStatus, CapComment,
	}
)

// Set is an effective capability set for one principal.
type Set map[string]struct{}

func (s Set) Has(capability string) bool {
	_, ok := s[capability]
	return ok
}

func (s Set) add(capabilities ...string) {
	for _, c := range capabilities {
		s[c] = struct{}{}
	}
}

// List returns the capabilities sorted, for stable API responses.
func (s Set) List() []string {
	out := make([]string, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
