package oidc

import (
	"encoding/json"
	"fmt"

	domainauth "github.com/NHSDigital/eps-prescription-tracker-ui-sub002/internal/domain/auth"
)

// userInfoPayload is the provider's userinfo wire shape. Every field is
// optional: absent values decode to zero values and stay valid, mirroring
// the provider's habit of omitting claims the user does not carry.
type userInfoPayload struct {
	Sub            string          `json:"sub"`
	FamilyName     string          `json:"family_name"`
	GivenName      string          `json:"given_name"`
	SelectedRoleID string          `json:"selected_roleid"`
	NRBACRoles     []nrbacRoleItem `json:"nhsid_nrbac_roles"`
}

type nrbacRoleItem struct {
	RoleName      string   `json:"role_name"`
	PersonRoleID  string   `json:"person_roleid"`
	OrgCode       string   `json:"org_code"`
	OrgName       string   `json:"org_name"`
	SiteName      string   `json:"site_name"`
	SiteAddress   string   `json:"site_address"`
	ActivityCodes []string `json:"activity_codes"`
}

func decodeUserInfo(payload []byte) (domainauth.UserClaims, error) {
	var ui userInfoPayload
	if err := json.Unmarshal(payload, &ui); err != nil {
		return domainauth.UserClaims{}, fmt.Errorf("decode userinfo: %w", err)
	}

	roles := make([]domainauth.RoleClaim, 0, len(ui.NRBACRoles))
	for _, item := range ui.NRBACRoles {
		roles = append(roles, domainauth.RoleClaim{
			RoleName:      item.RoleName,
			RoleID:        item.PersonRoleID,
			OrgCode:       item.OrgCode,
			OrgName:       item.OrgName,
			SiteName:      item.SiteName,
			SiteAddress:   item.SiteAddress,
			ActivityCodes: item.ActivityCodes,
		})
	}

	return domainauth.UserClaims{
		Subject:        ui.Sub,
		FamilyName:     ui.FamilyName,
		GivenName:      ui.GivenName,
		SelectedRoleID: ui.SelectedRoleID,
		Roles:          roles,
	}, nil
}
