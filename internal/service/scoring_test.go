package service

import (
	"testing"
	"time"

	"devday_quiz_backend/internal/model"
)

func TestMatchAnswerFlexibleWhitespaceAndCase(t *testing.T) {
	cases := []struct {
		given string
		want  bool
	}{
		{"hello world", true},
		{"  HELLO   WORLD  ", true},
		{"Hello\tWorld", true},
		{"HelloWorld", false},
		{"hello", false},
		{"hello world!", false},
	}
	for _, tc := range cases {
		if got := MatchAnswer("hello world", tc.given); got != tc.want {
			t.Errorf("MatchAnswer(%q) = %v, want %v", tc.given, got, tc.want)
		}
	}
}

func TestMatchAnswerQuotesMetaCharacters(t *testing.T) {
	if !MatchAnswer("O(n^2)", "o(n^2)") {
		t.Error("expected literal match for answer with regex metacharacters")
	}
	if MatchAnswer("O(n^2)", "OXnY2Z") {
		t.Error("metacharacters must not act as regex operators")
	}
}

func TestValidateCriteria(t *testing.T) {
	full := map[string]int{
		"readability":       4,
		"maintainability":   3,
		"elegance":          5,
		"languageKnowledge": 2,
		"simplicity":        1,
	}
	total, err := ValidateCriteria(model.QuestionEditCode, full)
	if err != nil {
		t.Fatalf("valid criteria rejected: %v", err)
	}
	if total != 15 {
		t.Fatalf("expected total 15, got %d", total)
	}

	if _, err := ValidateCriteria(model.QuestionExplainCode, map[string]int{"explanationScore": 5}); err != nil {
		t.Fatalf("explain rubric rejected: %v", err)
	}

	bad := map[string]int{"readability": 6}
	if _, err := ValidateCriteria(model.QuestionEditCode, bad); err == nil {
		t.Error("expected error for incomplete rubric")
	}

	over := map[string]int{
		"readability":       6,
		"maintainability":   3,
		"elegance":          5,
		"languageKnowledge": 2,
		"simplicity":        1,
	}
	if _, err := ValidateCriteria(model.QuestionEditCode, over); err == nil {
		t.Error("expected error for out-of-range score")
	}

	if _, err := ValidateCriteria(model.QuestionMCQ, full); err == nil {
		t.Error("expected error for type without a rubric")
	}
}

func conciseSub(id, code string, score int, submitted time.Time) model.Submission {
	s := model.Submission{
		QuestionType: model.QuestionConciseCode,
		Code:         code,
		Status:       model.SubmissionMarked,
		Score:        score,
		SubmittedAt:  submitted,
	}
	s.ID = id
	return s
}

func TestComputeConciseBonusesRanking(t *testing.T) {
	base := time.Now()
	subs := []model.Submission{
		conciseSub("a", "x := 1", 10, base),
		conciseSub("b", "x:=1", 10, base.Add(time.Second)),
		conciseSub("c", "longer   solution   here", 10, base),
	}
	// whitespace is stripped before measuring, so a and b tie on length
	// and a wins on earlier submission
	updates := ComputeConciseBonuses(subs)

	if got := updates["a"].ConciseBonus; got != 5 {
		t.Errorf("expected first bonus 5 for a, got %d", got)
	}
	if got := updates["b"].ConciseBonus; got != 4 {
		t.Errorf("expected second bonus 4 for b, got %d", got)
	}
	if got := updates["c"].ConciseBonus; got != 3 {
		t.Errorf("expected third bonus 3 for c, got %d", got)
	}
	if got := updates["a"].Score; got != 15 {
		t.Errorf("expected score 15 for a, got %d", got)
	}
}

func TestComputeConciseBonusesIdempotent(t *testing.T) {
	base := time.Now()
	first := conciseSub("a", "x", 10, base)
	updates := ComputeConciseBonuses([]model.Submission{first})
	if updates["a"].Score != 15 || updates["a"].ConciseBonus != 5 {
		t.Fatalf("unexpected first pass: %+v", updates["a"])
	}

	// apply and re-run: the bonus must replace, not stack
	first.Score = updates["a"].Score
	first.ConciseBonus = updates["a"].ConciseBonus
	again := ComputeConciseBonuses([]model.Submission{first})
	if again["a"].Score != 15 || again["a"].ConciseBonus != 5 {
		t.Fatalf("bonus stacked on re-run: %+v", again["a"])
	}
}

func TestComputeConciseBonusesResetsDroppedWinner(t *testing.T) {
	base := time.Now()
	subs := make([]model.Submission, 0, 6)
	// former winner now carrying a stale bonus
	old := conciseSub("old", "a very long solution that fell out of the top five", 12, base)
	old.ConciseBonus = 5
	subs = append(subs, old)
	for i := 0; i < 5; i++ {
		subs = append(subs, conciseSub(string(rune('a'+i)), "x", 10, base.Add(time.Duration(i)*time.Second)))
	}

	updates := ComputeConciseBonuses(subs)
	if got := updates["old"]; got.ConciseBonus != 0 || got.Score != 7 {
		t.Fatalf("expected stale bonus cleared, got %+v", got)
	}
}

func TestComputeConciseBonusesRanksPerQuestion(t *testing.T) {
	base := time.Now()
	q1a := conciseSub("q1a", "x", 10, base)
	q1a.QuestionID = "q1"
	q1b := conciseSub("q1b", "x + y", 10, base)
	q1b.QuestionID = "q1"
	q2a := conciseSub("q2a", "a much longer solution", 10, base)
	q2a.QuestionID = "q2"

	updates := ComputeConciseBonuses([]model.Submission{q1a, q1b, q2a})
	if updates["q1a"].ConciseBonus != 5 || updates["q1b"].ConciseBonus != 4 {
		t.Fatalf("wrong ladder within q1: %v", updates)
	}
	// a long solution still tops its own question's ladder
	if updates["q2a"].ConciseBonus != 5 {
		t.Fatalf("questions must rank independently: %v", updates)
	}
}

func TestComputeConciseBonusesSkipsUnmarkedAndOtherTypes(t *testing.T) {
	base := time.Now()
	pendingSub := conciseSub("p", "x", 0, base)
	pendingSub.Status = model.SubmissionPending
	mcq := conciseSub("m", "x", 5, base)
	mcq.QuestionType = model.QuestionMCQ

	updates := ComputeConciseBonuses([]model.Submission{pendingSub, mcq})
	if len(updates) != 0 {
		t.Fatalf("expected no updates, got %v", updates)
	}
}

func TestAggregateScoresKeyedByTeamID(t *testing.T) {
	teamA := model.Team{Name: "Gophers"}
	teamA.ID = "team-a"
	teamB := model.Team{Name: "Gophers"} // same display name on purpose
	teamB.ID = "team-b"

	subA := model.Submission{TeamID: "team-a", TeamName: "Gophers", Score: 5}
	subB := model.Submission{TeamID: "team-b", TeamName: "Gophers", Score: 7}
	orphan := model.Submission{TeamID: "gone", Score: 100}

	totals := AggregateScores([]model.Team{teamA, teamB}, []model.Submission{subA, subB, orphan})
	if totals["team-a"] != 5 || totals["team-b"] != 7 {
		t.Fatalf("duplicate names must not merge totals: %v", totals)
	}
	if _, ok := totals["gone"]; ok {
		t.Fatal("orphan submission credited to a missing team")
	}
}

func TestStrippedCodeLength(t *testing.T) {
	if got := StrippedCodeLength("a b\tc\nd"); got != 4 {
		t.Fatalf("expected 4, got %d", got)
	}
}
