package models

// Roles carried in the access token. User accounts themselves live in the
// identity service; this API only sees their IDs and roles.
const (
	RoleOrganizer   = "organizer"
	RoleJudge       = "judge"
	RoleParticipant = "participant"
)
