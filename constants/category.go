package constants

import "strings"

// CategoryDef describes a category seeded into an empty store.
type CategoryDef struct {
	Name        string
	Description string
	Color       string
	Icon        string
}

const (
	MathematicalPrinciples = "Mathematical Principles"
	IdeasAndConcepts       = "Ideas & Concepts"
	ProgramImplementation  = "Program Implementation"
	AffairsAndTasks        = "Affairs & Tasks"
)

var defaultCategories = []CategoryDef{
	{Name: MathematicalPrinciples, Description: "Mathematical theorems, proofs, formulas and concepts", Color: "#3B82F6", Icon: "calculator"},
	{Name: IdeasAndConcepts, Description: "Ideas, thoughts, hypotheses and conceptual notes", Color: "#8B5CF6", Icon: "lightbulb"},
	{Name: ProgramImplementation, Description: "Code, algorithms, software and technical implementations", Color: "#10B981", Icon: "code"},
	{Name: AffairsAndTasks, Description: "Tasks, meetings, schedules and everyday affairs", Color: "#F59E0B", Icon: "clipboard-list"},
}

// DefaultCategories returns a copy of the seed categories in declaration order.
func DefaultCategories() []CategoryDef {
	out := make([]CategoryDef, len(defaultCategories))
	copy(out, defaultCategories)
	return out
}

// AsStringSlice returns the default category names.
func AsStringSlice() []string {
	result := make([]string, len(defaultCategories))
	for i, c := range defaultCategories {
		result[i] = c.Name
	}
	return result
}

// Canonicalize maps a loosely spelled name onto a default category.
func Canonicalize(input string) (string, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return "", false
	}

	synonyms := map[string]string{
		"math":     MathematicalPrinciples,
		"maths":    MathematicalPrinciples,
		"ideas":    IdeasAndConcepts,
		"concepts": IdeasAndConcepts,
		"code":     ProgramImplementation,
		"program":  ProgramImplementation,
		"tasks":    AffairsAndTasks,
		"affairs":  AffairsAndTasks,
	}
	if name, ok := synonyms[normalized]; ok {
		return name, true
	}
	for _, c := range defaultCategories {
		if normalized == strings.ToLower(c.Name) {
			return c.Name, true
		}
	}
	return "", false
}
