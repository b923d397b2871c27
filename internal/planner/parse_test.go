package planner

import "testing"

func TestParsePlanFullResponse(t *testing.T) {
	text := `Opening Strategy: Italian Game
Short-term Goals (next 2-3 moves):
- develop the king's knight
- castle short

Long-term Goals (rest of the game):
- target the f7 weakness
Reflection: The position is balanced so far.`

	plan := ParsePlan(text)
	if plan.Opening != "Italian Game" {
		t.Fatalf("opening = %q", plan.Opening)
	}
	if len(plan.ShortTermGoals) != 2 || plan.ShortTermGoals[0] != "develop the king's knight" {
		t.Fatalf("short-term goals = %v", plan.ShortTermGoals)
	}
	if len(plan.LongTermGoals) != 1 || plan.LongTermGoals[0] != "target the f7 weakness" {
		t.Fatalf("long-term goals = %v", plan.LongTermGoals)
	}
	if plan.Reflection != "The position is balanced so far." {
		t.Fatalf("reflection = %q", plan.Reflection)
	}
}

func TestParsePlanCaseInsensitiveLabels(t *testing.T) {
	plan := ParsePlan("OPENING STRATEGY: Sicilian\nSHORT-TERM GOALS:\n- fight for d4")
	if plan.Opening != "Sicilian" {
		t.Fatalf("opening = %q", plan.Opening)
	}
	if len(plan.ShortTermGoals) != 1 || plan.ShortTermGoals[0] != "fight for d4" {
		t.Fatalf("goals = %v", plan.ShortTermGoals)
	}
}

func TestParsePlanReflectionSwallowsRest(t *testing.T) {
	text := "Reflection: game going well\nShort-term Goals:\n- this belongs to the reflection"
	plan := ParsePlan(text)
	if len(plan.ShortTermGoals) != 0 {
		t.Fatalf("goals should be empty, got %v", plan.ShortTermGoals)
	}
	if plan.Reflection == "" || plan.Reflection == "game going well" {
		// the label-like line after Reflection: must be kept as reflection text
		t.Fatalf("reflection = %q", plan.Reflection)
	}
}

func TestParsePlanEmptyAndGarbage(t *testing.T) {
	if got := ParsePlan(""); got.Opening != "" || got.Reflection != "" ||
		len(got.ShortTermGoals) != 0 || len(got.LongTermGoals) != 0 {
		t.Fatalf("empty input produced %+v", got)
	}
	if got := ParsePlan("I cannot comply with this request."); got.Opening != "" || len(got.ShortTermGoals) != 0 {
		t.Fatalf("garbage input produced %+v", got)
	}
}
