package model

import "time"

// Profile is the minimal shape shared by the four role-profile
// tables (student_profiles, coordinator_profiles,
// organization_profiles, administrator_profiles). Role-specific
// columns belong to the profile management features outside the
// auth core and are not mapped here.
type Profile struct {
	ID        string
	UserID    string
	CreatedAt time.Time
}
