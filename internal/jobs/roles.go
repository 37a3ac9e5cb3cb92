package jobs

// StaticRoleProvider resolves roles from configuration: configured admins
// hold the "admin" role, every known account holds "member". Deployments
// with richer role sources implement RoleProvider themselves.
type StaticRoleProvider struct {
	admins map[string]struct{}
}

func NewStaticRoleProvider(adminIDs []string) *StaticRoleProvider {
	admins := make(map[string]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = struct{}{}
	}
	return &StaticRoleProvider{admins: admins}
}

func (p *StaticRoleProvider) RolesOf(userID string) []string {
	roles := []string{"member"}
	if _, ok := p.admins[userID]; ok {
		roles = append(roles, "admin")
	}
	return roles
}
