package models

// Role classifies a user account. It is only inspected at the authorization boundary.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleStudent Role = "student"
)

func (r Role) Valid() bool { return r == RoleAdmin || r == RoleStudent }

type Level string

const (
	LevelBeginner Level = "beginner"
	LevelAdvanced Level = "advanced"
)

func (l Level) Valid() bool { return l == LevelBeginner || l == LevelAdvanced }

type Format string

const (
	FormatOffline Format = "offline"
	FormatOnline  Format = "online"
	FormatHybrid  Format = "hybrid"
)

func (f Format) Valid() bool {
	switch f {
	case FormatOffline, FormatOnline, FormatHybrid:
		return true
	}
	return false
}

type EventType string

const (
	EventMasterclass EventType = "masterclass"
	EventHackathon   EventType = "hackathon"
	EventLecture     EventType = "lecture"
	EventCompetition EventType = "competition"
)

func (t EventType) Valid() bool {
	switch t {
	case EventMasterclass, EventHackathon, EventLecture, EventCompetition:
		return true
	}
	return false
}

type Stage string

const (
	StageIdea      Stage = "idea"
	StagePrototype Stage = "prototype"
	StageMVP       Stage = "mvp"
)

func (s Stage) Valid() bool {
	switch s {
	case StageIdea, StagePrototype, StageMVP:
		return true
	}
	return false
}

type ApplicationStatus string

const (
	StatusPending  ApplicationStatus = "pending"
	StatusApproved ApplicationStatus = "approved"
	StatusRejected ApplicationStatus = "rejected"
)

func (s ApplicationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}
