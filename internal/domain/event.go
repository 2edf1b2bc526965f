package domain

const (
	EventNameAttemptSubmitted   = "attempt.submitted"
	EventNameLeaderboardUpdated = "leaderboard.updated"
	EventNameAuthRevoked        = "auth.revoked"
)

type EventAttemptSubmitted struct {
	// SID is the gateway session the attempt belongs to.
	SID    string
	Result AttemptResult
}

func (EventAttemptSubmitted) Name() string { return EventNameAttemptSubmitted }

type EventLeaderboardUpdated struct {
	Leaderboard Leaderboard
}

func (EventLeaderboardUpdated) Name() string { return EventNameLeaderboardUpdated }

type EventAuthRevoked struct {
	SID string
}

func (EventAuthRevoked) Name() string { return EventNameAuthRevoked }
