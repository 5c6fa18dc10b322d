package domain

// TypeStats is the per-user-type breakdown returned by the extended stats endpoint.
type TypeStats struct {
	Total     int    `json:"total"`
	Active    int    `json:"active"`
	NewToday  int    `json:"new_today"`
	ChurnRate string `json:"churn_rate"`
}

// UserStats is the payload of GET /users/stats/.
type UserStats struct {
	TotalUsers  int                    `json:"total_users"`
	ActiveUsers int                    `json:"active_users"`
	ByUserType  map[UserType]TypeStats `json:"by_user_type,omitempty"`
}

// ZeroChurn is the churn rate reported when it cannot be derived.
const ZeroChurn = "0%"

// EntityStats is what a store exposes for its dashboard header cards.
type EntityStats struct {
	Total     int
	Active    int
	NewToday  int
	ChurnRate string
	// Derived is true when the numbers were computed from the local list
	// because the stats endpoint was unavailable.
	Derived bool
}

// DeriveStats counts totals from a fetched list. NewToday and ChurnRate
// cannot be computed client-side and take their zero values.
func DeriveStats(users []User) EntityStats {
	st := EntityStats{Total: len(users), ChurnRate: ZeroChurn, Derived: true}
	for _, u := range users {
		if u.IsActive {
			st.Active++
		}
	}
	return st
}
