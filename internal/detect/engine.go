package detect

// Engine runs all registered rules against a Context and collects the
// resulting insights.
type Engine struct {
	rules []Rule
}

// NewEngine creates an engine with all built-in rules registered.
func NewEngine() *Engine {
	return &Engine{
		rules: []Rule{
			CalendarGaps,
			Conflicts,
			CoverageGaps,
			LoadImbalance,
			PrepReminders,
		},
	}
}

// Run executes all rules. The result is the union of the rules' outputs;
// rule order does not matter.
func (e *Engine) Run(ctx *Context) []Insight {
	var all []Insight
	for _, rule := range e.rules {
		all = append(all, rule(ctx)...)
	}
	return all
}
