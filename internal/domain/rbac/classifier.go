package rbac

import (
	domainauth "github.com/NHSDigital/eps-prescription-tracker-ui-sub002/internal/domain/auth"
)

// Classify partitions raw role claims into with/without access against the
// accepted code set, preserving input order. Claims with none of the four
// identifying fields are dropped. A role matching selectedRoleID becomes the
// currently selected role only if it has access; a match without access
// explicitly clears the selection.
func Classify(raw []domainauth.RoleClaim, selectedRoleID string, accepted *CodeSet) domainauth.TrackerUserInfo {
	info := domainauth.TrackerUserInfo{
		RolesWithAccess:    []domainauth.RoleDetails{},
		RolesWithoutAccess: []domainauth.RoleDetails{},
	}

	for _, claim := range raw {
		if !claim.Identifying() {
			continue
		}

		details := toRoleDetails(claim)
		hasAccess := anyAccepted(claim.ActivityCodes, accepted)
		if hasAccess {
			info.RolesWithAccess = append(info.RolesWithAccess, details)
		} else {
			info.RolesWithoutAccess = append(info.RolesWithoutAccess, details)
		}

		if selectedRoleID != "" && claim.RoleID == selectedRoleID {
			if hasAccess {
				selected := details
				info.CurrentlySelectedRole = &selected
			} else {
				// A role that loses access can never remain selected.
				info.CurrentlySelectedRole = &domainauth.RoleDetails{}
			}
		}
	}

	return info
}

func anyAccepted(codes []string, accepted *CodeSet) bool {
	for _, c := range codes {
		if accepted.Contains(c) {
			return true
		}
	}
	return false
}

func toRoleDetails(claim domainauth.RoleClaim) domainauth.RoleDetails {
	return domainauth.RoleDetails{
		RoleName:    claim.RoleName,
		RoleID:      claim.RoleID,
		OrgCode:     claim.OrgCode,
		OrgName:     claim.OrgName,
		SiteName:    claim.SiteName,
		SiteAddress: claim.SiteAddress,
	}
}
