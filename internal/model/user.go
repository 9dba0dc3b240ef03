package model

import "time"

// Role names stored in users.role.  MEMBER is the default for first-login
// upserts; ADMIN owns libraries; SUPER_ADMIN approves libraries and
// verifies admins.
const (
	RoleMember     = "MEMBER"
	RoleAdmin      = "ADMIN"
	RoleSuperAdmin = "SUPER_ADMIN"
)

// User represents an application user as stored in the `users` table.
// Accounts are created on first login by upserting on the identity
// provider's subject id; they are never hard-deleted.
//
// Fields:
//
//	ID         – primary key identifier.
//	SubjectID  – subject (sub) claim of the external identity provider.
//	Name       – display name synced from the provider profile.
//	Email      – email address synced from the provider profile.
//	Phone      – optional contact number.
//	AvatarURL  – optional profile image URL.
//	Role       – MEMBER, ADMIN or SUPER_ADMIN.
//	IsVerified – set by a super-admin; gates admin activity.
//	CreatedAt  – creation timestamp.
//	UpdatedAt  – last update timestamp.
type User struct {
	ID         uint64    `json:"id"`         // users.id
	SubjectID  string    `json:"subjectId"`  // users.subject_id
	Name       string    `json:"name"`       // users.name
	Email      string    `json:"email"`      // users.email
	Phone      *string   `json:"phone"`      // users.phone (nullable)
	AvatarURL  *string   `json:"avatarUrl"`  // users.avatar_url (nullable)
	Role       string    `json:"role"`       // users.role
	IsVerified bool      `json:"isVerified"` // users.is_verified
	CreatedAt  time.Time `json:"createdAt"`  // users.created_at
	UpdatedAt  time.Time `json:"updatedAt"`  // users.updated_at
}
