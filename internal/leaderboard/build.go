package leaderboard

import (
	"sort"

	"github.com/buzzrhq/buzzr/internal/domain"
	"github.com/buzzrhq/buzzr/internal/score"
)

const topSize = 5

// Build computes the ranked leaderboard from raw attempt records.
//
// A record missing either answer list is malformed and contributes nothing;
// it never fails the whole computation. A participant's correct count is the
// number of submitted (question, answer) pairs that appear in their correct
// list, wrong is the remainder of their submissions, and the score is
// correct times the fixed point value. Entries are ordered by score
// descending with a stable sort, so equal scores keep their fetch order and
// rank assignment stays reproducible.
//
// The viewer is identified by viewerID, never by position in the input; an
// empty or unknown id simply leaves Viewer unset.
func Build(quizID string, records []domain.AttemptRecord, viewerID string) *domain.Leaderboard {
	entries := make([]domain.LeaderboardEntry, 0, len(records))
	for _, r := range records {
		if r.CorrectAnswers == nil || r.SubmittedAnswers == nil {
			continue
		}

		correct := 0
		for _, sub := range r.SubmittedAnswers {
			if containsPair(r.CorrectAnswers, sub) {
				correct++
			}
		}

		name := r.FullName
		if name == "" {
			name = "Unknown"
		}

		entries = append(entries, domain.LeaderboardEntry{
			ParticipantID: r.ID,
			FullName:      name,
			Correct:       correct,
			Wrong:         len(r.SubmittedAnswers) - correct,
			Score:         correct * score.PointsPerCorrect,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}

	lb := &domain.Leaderboard{
		QuizID:  quizID,
		Entries: entries,
		TopFive: entries[:min(topSize, len(entries))],
	}

	if viewerID != "" {
		for i := range entries {
			if entries[i].ParticipantID == viewerID {
				viewer := entries[i]
				lb.Viewer = &viewer
				break
			}
		}
	}

	return lb
}

func containsPair(pairs []domain.AnswerPair, p domain.AnswerPair) bool {
	for _, c := range pairs {
		if c.QuestionID == p.QuestionID && c.Answer == p.Answer {
			return true
		}
	}

	return false
}
