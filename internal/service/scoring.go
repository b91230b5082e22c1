package service

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"devday_quiz_backend/internal/model"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// answerPattern builds the matcher for a qa answer key: case-insensitive,
// tolerant of leading/trailing whitespace, and treating any internal
// whitespace run as equivalent.
func answerPattern(correct string) (*regexp.Regexp, error) {
	trimmed := strings.TrimSpace(correct)
	quoted := regexp.QuoteMeta(trimmed)
	// QuoteMeta preserves whitespace verbatim, so runs of it are still
	// literal spaces here and safe to widen.
	flexible := whitespaceRun.ReplaceAllString(quoted, `\s+`)
	return regexp.Compile(`(?i)^\s*` + flexible + `\s*$`)
}

// MatchAnswer reports whether a free-text answer matches the answer key
// under the qa equivalence rules.
func MatchAnswer(correct, given string) bool {
	re, err := answerPattern(correct)
	if err != nil {
		// An unparseable key means nobody can match it; fall back to a
		// normalized string comparison instead of rejecting everyone.
		norm := func(s string) string {
			return strings.ToLower(whitespaceRun.ReplaceAllString(strings.TrimSpace(s), " "))
		}
		return norm(correct) == norm(given)
	}
	return re.MatchString(given)
}

// rubricFor returns the criteria names a marked submission of the given
// type must carry.
func rubricFor(t model.QuestionType) []string {
	switch t {
	case model.QuestionExplainCode:
		return []string{"explanationScore"}
	case model.QuestionEditCode, model.QuestionConciseCode:
		return []string{"readability", "maintainability", "elegance", "languageKnowledge", "simplicity"}
	}
	return nil
}

// ValidateCriteria checks that a rubric payload covers exactly the
// expected criteria for the question type, each in [0, 5]. Returns the
// criteria total.
func ValidateCriteria(t model.QuestionType, criteria map[string]int) (int, error) {
	expected := rubricFor(t)
	if expected == nil {
		return 0, fmt.Errorf("question type %q has no rubric", t)
	}
	if len(criteria) != len(expected) {
		return 0, fmt.Errorf("expected %d criteria, got %d", len(expected), len(criteria))
	}
	total := 0
	for _, name := range expected {
		score, ok := criteria[name]
		if !ok {
			return 0, fmt.Errorf("missing criterion %q", name)
		}
		if score < 0 || score > 5 {
			return 0, fmt.Errorf("criterion %q score %d outside 0-5", name, score)
		}
		total += score
	}
	return total, nil
}

// StrippedCodeLength measures a solution with all whitespace removed,
// the metric the concise bonus ranks by.
func StrippedCodeLength(code string) int {
	return len(whitespaceRun.ReplaceAllString(code, ""))
}

// conciseBonuses is indexed by rank: shortest gets 5, then 4, 3, 2, 1.
var conciseBonuses = []int{5, 4, 3, 2, 1}

// ComputeConciseBonuses ranks marked concise-code submissions by stripped
// code length, per question, and assigns the fixed bonus ladder to the
// five shortest of each. Each returned update replaces any previous bonus
// on the submission, so re-running the pass never stacks bonuses.
// Submissions outside a question's top five get an explicit zero so a
// former winner that fell out of the ranking is reset.
func ComputeConciseBonuses(subs []model.Submission) map[string]model.ScoreUpdate {
	byQuestion := make(map[string][]model.Submission)
	for _, sub := range subs {
		if sub.QuestionType != model.QuestionConciseCode || sub.Status != model.SubmissionMarked {
			continue
		}
		byQuestion[sub.QuestionID] = append(byQuestion[sub.QuestionID], sub)
	}

	updates := make(map[string]model.ScoreUpdate)
	for _, ranked := range byQuestion {
		sort.SliceStable(ranked, func(i, j int) bool {
			li, lj := StrippedCodeLength(ranked[i].Code), StrippedCodeLength(ranked[j].Code)
			if li != lj {
				return li < lj
			}
			return ranked[i].SubmittedAt.Before(ranked[j].SubmittedAt)
		})

		for i, sub := range ranked {
			bonus := 0
			if i < len(conciseBonuses) {
				bonus = conciseBonuses[i]
			}
			base := sub.Score - sub.ConciseBonus
			updates[sub.ID] = model.ScoreUpdate{
				Score:        base + bonus,
				ConciseBonus: bonus,
			}
		}
	}
	return updates
}

// AggregateScores sums submission scores per team id. Totals overwrite
// whatever the teams carried before.
func AggregateScores(teams []model.Team, subs []model.Submission) map[string]int {
	totals := make(map[string]int, len(teams))
	for _, t := range teams {
		totals[t.ID] = 0
	}
	for _, sub := range subs {
		if _, ok := totals[sub.TeamID]; !ok {
			// submission for a team deleted mid-session; nothing to credit
			continue
		}
		totals[sub.TeamID] += sub.Score
	}
	return totals
}
