package navtree

// Known jurisdiction codes.
const (
	IN01 = "IN01"
	NC01 = "NC01"
	NC02 = "NC02"
	SC01 = "SC01"
	SC02 = "SC02"
	FL01 = "FL01"
	KY01 = "KY01"
	OH01 = "OH01"
)

// Jurisdictions lists every known code.
var Jurisdictions = []string{IN01, NC01, NC02, SC01, SC02, FL01, KY01, OH01}

// IsKnownJurisdiction reports whether code is one of Jurisdictions.
func IsKnownJurisdiction(code string) bool {
	for _, j := range Jurisdictions {
		if j == code {
			return true
		}
	}
	return false
}

// IsNotJurisdictionMatch reports whether the selected jurisdiction is absent
// from the restriction list. An empty selection never matches: without a
// known jurisdiction we cannot show restricted content.
func IsNotJurisdictionMatch(restrictions []Jurisdiction, selected string) bool {
	if selected == "" {
		return true
	}
	for _, r := range restrictions {
		if r.Code() == selected {
			return false
		}
	}
	return true
}

// Excluded reports whether an item is hidden for the selected jurisdiction.
// Items with no restrictions are visible everywhere.
func (it *Item) Excluded(selected string) bool {
	if it == nil || it.Fields == nil {
		return false
	}
	return len(it.Fields.Jurisdictions) > 0 && IsNotJurisdictionMatch(it.Fields.Jurisdictions, selected)
}
