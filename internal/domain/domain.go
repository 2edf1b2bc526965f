package domain

// Quiz is a catalog entry: a named collection of questions, playable once per user.
type Quiz struct {
	ID             string
	Title          string
	Description    string
	Thumbnail      string
	TotalQuestions int
	Attempted      bool
}

// Question is a single multiple-choice question. CorrectAnswer is only set
// on paths allowed to know it (authoring, graded results); on the play path
// grading authority stays with the platform API.
type Question struct {
	ID            string
	Prompt        string
	Options       []string
	CorrectAnswer string
}

// SessionState is the lifecycle state of a QuizSession.
type SessionState string

const (
	SessionLoading    SessionState = "loading"
	SessionInProgress SessionState = "in_progress"
	SessionSubmitted  SessionState = "submitted"
	SessionError      SessionState = "error"
)

// QuizSession is one learner's in-flight run through a quiz. Sessions are
// values: every transition produces a replacement, never an in-place edit.
// Generation counts transitions so a write computed from a stale snapshot
// can be detected and discarded.
type QuizSession struct {
	ID          string
	QuizID      string
	Title       string
	Description string
	State       SessionState
	Questions   []Question
	Pointer     int
	Answers     map[string]string
	Generation  int
}

// Current returns the question under the pointer.
func (s *QuizSession) Current() Question {
	return s.Questions[s.Pointer]
}

// AttemptResult is the graded outcome of one submission, with the platform's
// answer lists folded into maps keyed by question id.
type AttemptResult struct {
	QuizID             string
	Title              string
	Description        string
	Questions          []Question
	TotalQuestions     int
	AttemptedQuestions int
	Score              int
	SubmittedAnswers   map[string]string
	CorrectAnswers     map[string]string
}

// AnswerPair is one (question, answer) element of the platform's graded
// answer lists.
type AnswerPair struct {
	QuestionID string
	Answer     string
}

// AttemptRecord is a raw attempt as listed by the platform for a quiz.
// Either answer list may be absent on malformed records.
type AttemptRecord struct {
	ID               string
	FullName         string
	CorrectAnswers   []AnswerPair
	SubmittedAnswers []AnswerPair
}

// LeaderboardEntry is one ranked participant.
type LeaderboardEntry struct {
	ParticipantID string
	FullName      string
	Correct       int
	Wrong         int
	Score         int
	Rank          int
}

// Leaderboard is the ranked view of all attempts for a quiz. Entries are
// sorted by score descending; equal scores keep their fetch order. Viewer is
// set when the viewer's id appears among the records.
type Leaderboard struct {
	QuizID  string
	Entries []LeaderboardEntry
	TopFive []LeaderboardEntry
	Viewer  *LeaderboardEntry
}

// Identity is the display identity persisted alongside the token bundle.
type Identity struct {
	FullName string
	Role     string
}

const RoleAdmin = "admin"

// TokenBundle holds the platform-issued tokens. Together with Identity this
// is the only state that survives a reload.
type TokenBundle struct {
	AccessToken  string
	RefreshToken string
}
