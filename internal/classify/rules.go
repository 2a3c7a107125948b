package classify

import (
	"github.com/joseph-ayodele/knowledge-vault/constants"
	"github.com/joseph-ayodele/knowledge-vault/internal/common"
)

// Rule is one declarative set of category signals.
type Rule = common.ClassificationRule

var defaultRules = []Rule{
	{
		Category: constants.MathematicalPrinciples,
		Keywords: []string{
			"theorem", "proof", "lemma", "corollary", "equation", "formula",
			"calculus", "algebra", "geometry", "topology", "matrix", "vector",
			"integral", "derivative", "function", "polynomial", "linear",
			"mathematical", "mathematics", "math", "数学", "定理", "证明",
		},
		FileTypes:    []string{".tex", ".nb", ".m", ".maple"},
		PathPatterns: []string{"math", "Mathematics"},
	},
	{
		Category: constants.IdeasAndConcepts,
		Keywords: []string{
			"idea", "concept", "thought", "hypothesis", "theory", "proposal",
			"brainstorm", "innovation", "insight", "perspective", "想法",
			"creative", "design", "architecture", "strategy", "philosophy",
		},
		PathPatterns: []string{"ideas", "concepts", "notes"},
	},
	{
		Category: constants.ProgramImplementation,
		Keywords: []string{
			"code", "function", "class", "method", "algorithm", "implementation",
			"software", "program", "api", "library", "framework", "module",
			"debug", "compile", "runtime", "database", "server", "client",
			"代码", "程序", "实现", "import", "export", "async", "await",
		},
		FileTypes: []string{
			".py", ".js", ".ts", ".jsx", ".tsx", ".java", ".c", ".cpp", ".go",
			".rs", ".rb", ".php", ".swift", ".kt", ".scala",
		},
		PathPatterns: []string{"src", "code", "scripts", "lib"},
	},
	{
		Category: constants.AffairsAndTasks,
		Keywords: []string{
			"todo", "task", "meeting", "schedule", "deadline", "agenda",
			"appointment", "reminder", "event", "calendar", "plan", "project",
			"milestone", "任务", "会议", "日程", "待办",
		},
		PathPatterns: []string{"tasks", "todos", "meetings"},
	},
}

// DefaultRules returns a copy of the built-in rule set in declaration order.
func DefaultRules() []Rule {
	out := make([]Rule, len(defaultRules))
	for i, r := range defaultRules {
		out[i] = Rule{
			Category:     r.Category,
			Keywords:     append([]string(nil), r.Keywords...),
			FileTypes:    append([]string(nil), r.FileTypes...),
			PathPatterns: append([]string(nil), r.PathPatterns...),
		}
	}
	return out
}
