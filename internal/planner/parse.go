package planner

import "strings"

// PlanResult is the parsed output of one planning exchange. Absent sections
// stay zero-valued; the parser never fails on malformed input.
type PlanResult struct {
	Opening        string
	ShortTermGoals []string
	LongTermGoals  []string
	Reflection     string
}

// ParsePlan locates the labeled sections of a free-text planning response.
// Labels are matched case-insensitively at the start of a line. Everything
// after "Reflection:" belongs to the reflection, labels included.
func ParsePlan(text string) PlanResult {
	var res PlanResult
	lines := strings.Split(text, "\n")

	const (
		sectNone = iota
		sectShort
		sectLong
		sectReflection
	)
	section := sectNone
	var reflection []string

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		lower := strings.ToLower(trimmed)

		if section == sectReflection {
			reflection = append(reflection, line)
			continue
		}

		switch {
		case strings.HasPrefix(lower, "opening strategy:"):
			res.Opening = strings.TrimSpace(trimmed[len("opening strategy:"):])
			section = sectNone
		case isGoalLabel(lower, "short-term goals"):
			section = sectShort
			if rest := afterColon(trimmed); rest != "" {
				res.ShortTermGoals = append(res.ShortTermGoals, rest)
			}
		case isGoalLabel(lower, "long-term goals"):
			section = sectLong
			if rest := afterColon(trimmed); rest != "" {
				res.LongTermGoals = append(res.LongTermGoals, rest)
			}
		case strings.HasPrefix(lower, "reflection:"):
			section = sectReflection
			if rest := strings.TrimSpace(trimmed[len("reflection:"):]); rest != "" {
				reflection = append(reflection, rest)
			}
		default:
			if trimmed == "" {
				continue
			}
			item := strings.TrimSpace(strings.TrimPrefix(trimmed, "- "))
			switch section {
			case sectShort:
				res.ShortTermGoals = append(res.ShortTermGoals, item)
			case sectLong:
				res.LongTermGoals = append(res.LongTermGoals, item)
			}
		}
	}

	res.Reflection = strings.TrimSpace(strings.Join(reflection, "\n"))
	return res
}

// isGoalLabel matches e.g. "Short-term Goals (next 2-3 moves):"; the
// parenthetical is free-form, only prefix and colon matter.
func isGoalLabel(lower, label string) bool {
	return strings.HasPrefix(lower, label) && strings.Contains(lower, ":")
}

func afterColon(line string) string {
	i := strings.Index(line, ":")
	if i < 0 {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line[i+1:]), "- "))
}
