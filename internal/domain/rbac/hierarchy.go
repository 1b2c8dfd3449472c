package rbac

import "sync"

// cptHierarchy is the activity-code tree granting access to the prescription
// tracker. The data mirrors the national RBAC role-derivation graph for the
// "Perform Prescription Preparation" and clinical-view activities, collapsed
// to a tree of value copies. The B0278 leaf is intentionally reused under
// both clinical branches.
var cptHierarchy = Hierarchy{
	"B0570": {
		Code:              "B0570",
		BaselineRoleCodes: []string{"R8000", "R8001"},
		Children: map[string]ActivityCode{
			"B0278": {
				Code:              "B0278",
				BaselineRoleCodes: []string{"R8003"},
				Children:          map[string]ActivityCode{},
			},
			"B0420": {
				Code:              "B0420",
				BaselineRoleCodes: []string{"R0006", "R8017"},
				Children: map[string]ActivityCode{
					"B0278": {
						Code:              "B0278",
						BaselineRoleCodes: []string{"R8003"},
						Children:          map[string]ActivityCode{},
					},
				},
			},
		},
	},
	"B0571": {
		Code:              "B0571",
		BaselineRoleCodes: []string{"R8008"},
		Children: map[string]ActivityCode{
			"B0572": {
				Code:              "B0572",
				BaselineRoleCodes: []string{"R8008", "R8024"},
				Children:          map[string]ActivityCode{},
			},
		},
	},
}

var (
	acceptedOnce          sync.Once
	acceptedRoleCodes     *CodeSet
	acceptedActivityCodes *CodeSet
)

// AcceptedCodes returns the flattened accepted role-code and activity-code
// sets for the tracker hierarchy. Computed once per process and cached.
func AcceptedCodes() (roleCodes, activityCodes *CodeSet) {
	acceptedOnce.Do(func() {
		acceptedRoleCodes, acceptedActivityCodes = ExtractAccessCodes(cptHierarchy)
	})
	return acceptedRoleCodes, acceptedActivityCodes
}
