package leaderboard_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/buzzrhq/buzzr/internal/domain"
	"github.com/buzzrhq/buzzr/internal/leaderboard"
)

func TestBuild(t *testing.T) {
	pairs := func(kv ...string) []domain.AnswerPair {
		out := make([]domain.AnswerPair, 0, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			out = append(out, domain.AnswerPair{QuestionID: kv[i], Answer: kv[i+1]})
		}
		return out
	}

	tests := map[string]struct {
		arrange func() (records []domain.AttemptRecord, viewerID string)
		assert  func(t *testing.T, lb *domain.Leaderboard)
	}{
		"should rank by score descending and keep fetch order for equal scores": {
			arrange: func() ([]domain.AttemptRecord, string) {
				return []domain.AttemptRecord{
					{
						ID: "a1", FullName: "Alice",
						CorrectAnswers:   pairs("q1", "x", "q2", "y"),
						SubmittedAnswers: pairs("q1", "x", "q2", "y"),
					},
					{
						ID: "a2", FullName: "Bob",
						CorrectAnswers:   pairs("q1", "x", "q2", "y"),
						SubmittedAnswers: pairs("q1", "x", "q2", "z"),
					},
					{
						ID: "a3", FullName: "Carol",
						CorrectAnswers:   pairs("q1", "x", "q2", "y"),
						SubmittedAnswers: pairs("q1", "x"),
					},
				}, ""
			},

			assert: func(t *testing.T, lb *domain.Leaderboard) {
				require.Len(t, lb.Entries, 3)
				require.Equal(t, []string{"Alice", "Bob", "Carol"}, names(lb.Entries))
				require.Equal(t, []int{10, 5, 5}, scores(lb.Entries))
				require.Equal(t, []int{1, 2, 3}, ranks(lb.Entries))
			},
		},

		"should skip records missing either answer list without failing the build": {
			arrange: func() ([]domain.AttemptRecord, string) {
				return []domain.AttemptRecord{
					{ID: "a1", FullName: "NoCorrect", SubmittedAnswers: pairs("q1", "x")},
					{ID: "a2", FullName: "NoSubmitted", CorrectAnswers: pairs("q1", "x")},
					{
						ID: "a3", FullName: "Whole",
						CorrectAnswers:   pairs("q1", "x"),
						SubmittedAnswers: pairs("q1", "x"),
					},
				}, ""
			},

			assert: func(t *testing.T, lb *domain.Leaderboard) {
				require.Equal(t, []string{"Whole"}, names(lb.Entries))
				require.Equal(t, 1, lb.Entries[0].Rank)
			},
		},

		"should count wrong as the submissions that matched no correct pair": {
			arrange: func() ([]domain.AttemptRecord, string) {
				return []domain.AttemptRecord{
					{
						ID: "a1", FullName: "Dara",
						CorrectAnswers:   pairs("q1", "x", "q2", "y", "q3", "z"),
						SubmittedAnswers: pairs("q1", "x", "q2", "nope"),
					},
				}, ""
			},

			assert: func(t *testing.T, lb *domain.Leaderboard) {
				require.Equal(t, 1, lb.Entries[0].Correct)
				require.Equal(t, 1, lb.Entries[0].Wrong)
				require.Equal(t, 5, lb.Entries[0].Score)
			},
		},

		"should pick the viewer by id, never by input position": {
			arrange: func() ([]domain.AttemptRecord, string) {
				return []domain.AttemptRecord{
					{
						ID: "a1", FullName: "First",
						CorrectAnswers:   pairs("q1", "x"),
						SubmittedAnswers: pairs("q1", "nope"),
					},
					{
						ID: "a2", FullName: "Second",
						CorrectAnswers:   pairs("q1", "x"),
						SubmittedAnswers: pairs("q1", "x"),
					},
				}, "a2"
			},

			assert: func(t *testing.T, lb *domain.Leaderboard) {
				require.NotNil(t, lb.Viewer)
				require.Equal(t, "Second", lb.Viewer.FullName)
				require.Equal(t, 1, lb.Viewer.Rank)
			},
		},

		"should leave the viewer unset for an unknown id": {
			arrange: func() ([]domain.AttemptRecord, string) {
				return []domain.AttemptRecord{
					{
						ID: "a1", FullName: "Only",
						CorrectAnswers:   pairs("q1", "x"),
						SubmittedAnswers: pairs("q1", "x"),
					},
				}, "missing"
			},

			assert: func(t *testing.T, lb *domain.Leaderboard) {
				require.Nil(t, lb.Viewer)
			},
		},

		"should cap the top list at five entries": {
			arrange: func() ([]domain.AttemptRecord, string) {
				var records []domain.AttemptRecord
				for _, id := range []string{"a1", "a2", "a3", "a4", "a5", "a6", "a7"} {
					records = append(records, domain.AttemptRecord{
						ID: id, FullName: id,
						CorrectAnswers:   pairs("q1", "x"),
						SubmittedAnswers: pairs("q1", "x"),
					})
				}
				return records, ""
			},

			assert: func(t *testing.T, lb *domain.Leaderboard) {
				require.Len(t, lb.Entries, 7)
				require.Len(t, lb.TopFive, 5)
				require.Equal(t, lb.Entries[:5], lb.TopFive)
			},
		},

		"should produce an empty ranking from no records": {
			arrange: func() ([]domain.AttemptRecord, string) {
				return nil, ""
			},

			assert: func(t *testing.T, lb *domain.Leaderboard) {
				require.Empty(t, lb.Entries)
				require.Empty(t, lb.TopFive)
				require.Nil(t, lb.Viewer)
			},
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			records, viewerID := tt.arrange()
			tt.assert(t, leaderboard.Build("quiz-1", records, viewerID))
		})
	}
}

func names(entries []domain.LeaderboardEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.FullName)
	}
	return out
}

func scores(entries []domain.LeaderboardEntry) []int {
	out := make([]int, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Score)
	}
	return out
}

func ranks(entries []domain.LeaderboardEntry) []int {
	out := make([]int, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Rank)
	}
	return out
}
