package model

// Feature is an administrative area of the site behind a role check
type Feature string

const (
	FeatureBlacklist Feature = "blacklist"
	FeatureBlog      Feature = "blog"
	FeatureInvoice   Feature = "invoice"
	FeatureSchedule  Feature = "schedule"
)

// Features lists every gated feature in display order
var Features = []Feature{FeatureBlacklist, FeatureBlog, FeatureInvoice, FeatureSchedule}

var featureRoles = map[Feature][]Role{
	FeatureBlacklist: {RoleAdmin},
	FeatureBlog:      {RoleAdmin, RolePublicRelation},
	FeatureInvoice:   {RoleAdmin},
	FeatureSchedule:  {RoleAdmin, RolePublicRelation},
}

// AllowedRoles returns the roles that may use f. Unknown features allow
// nobody.
func (f Feature) AllowedRoles() []Role {
	r := featureRoles[f]
	out := make([]Role, len(r))
	copy(out, r)

	return out
}
