package resolve

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// AllPermissions is the effective permission set of owners and administrators.
const AllPermissions int64 = discordgo.PermissionAll

// MemberPermissions computes guild-level permissions from the member's roles,
// including @everyone. Channel overwrites are not applied.
func MemberPermissions(g *discordgo.Guild, m *discordgo.Member) int64 {
	if g == nil || m == nil {
		return 0
	}
	if m.User != nil && m.User.ID == g.OwnerID {
		return AllPermissions
	}

	held := make(map[string]bool, len(m.Roles)+1)
	held[g.ID] = true
	for _, id := range m.Roles {
		held[id] = true
	}

	var perms int64
	for _, role := range g.Roles {
		if held[role.ID] {
			perms |= role.Permissions
		}
	}
	if perms&discordgo.PermissionAdministrator != 0 {
		return AllPermissions
	}
	return perms
}

// HasAll reports whether every bit of required is present in perms.
func HasAll(perms, required int64) bool {
	return perms&required == required
}

var permissionNames = map[int64]string{
	discordgo.PermissionKickMembers:     "Kick Members",
	discordgo.PermissionBanMembers:      "Ban Members",
	discordgo.PermissionAdministrator:   "Administrator",
	discordgo.PermissionManageChannels:  "Manage Channels",
	discordgo.PermissionManageGuild:     "Manage Server",
	discordgo.PermissionViewAuditLogs:   "View Audit Logs",
	discordgo.PermissionViewChannel:     "View Channel",
	discordgo.PermissionSendMessages:    "Send Messages",
	discordgo.PermissionManageMessages:  "Manage Messages",
	discordgo.PermissionManageNicknames: "Manage Nicknames",
	discordgo.PermissionManageRoles:     "Manage Roles",
	discordgo.PermissionModerateMembers: "Moderate Members",
}

// PermissionNames renders each set bit of perms in a human form.
func PermissionNames(perms int64) []string {
	var names []string
	for bit := int64(1); bit != 0 && bit <= perms; bit <<= 1 {
		if perms&bit == 0 {
			continue
		}
		name, ok := permissionNames[bit]
		if !ok {
			name = fmt.Sprintf("0x%x", bit)
		}
		names = append(names, name)
	}
	return names
}

// FormatPermissions joins PermissionNames for display.
func FormatPermissions(perms int64) string {
	return strings.Join(PermissionNames(perms), ", ")
}

// MemberPermissions computes the member's guild-level permissions in the
// configured guild while holding the state read lock.
func (r *Resolver) MemberPermissions(m *discordgo.Member) (int64, error) {
	g, err := r.Guild()
	if err != nil {
		return 0, err
	}
	st := r.session.GetState()
	st.RLock()
	defer st.RUnlock()
	return MemberPermissions(g, m), nil
}
