package ai

// FeedbackThemes is the closed enumeration the classifier is instructed to
// pick from. Responses outside it are accepted and stored as returned; the
// cluster layer treats the theme as an opaque string.
var FeedbackThemes = []string{
	"login_issue",
	"performance_issue",
	"ui_ux_issue",
	"feature_request",
	"bug_report",
	"payment_issue",
	"account_issue",
	"other",
}

// KnownTheme reports whether theme is part of the instructed enumeration.
func KnownTheme(theme string) bool {
	for _, t := range FeedbackThemes {
		if t == theme {
			return true
		}
	}
	return false
}

// ThemingResult is the classifier verdict for a single feedback message.
type ThemingResult struct {
	Theme      string  `json:"theme"`
	Sentiment  string  `json:"sentiment"`
	Confidence float64 `json:"confidence"`
	Summary    string  `json:"summary"`
}

// SolutionPlan is the generated remediation plan for a theme cluster.
type SolutionPlan struct {
	SolutionSummary string   `json:"solution_summary"`
	RootCause       string   `json:"root_cause"`
	QuickFix        string   `json:"quick_fix"`
	LongTermFix     string   `json:"long_term_fix"`
	ActionSteps     []string `json:"action_steps"`
	Priority        string   `json:"priority"`
	Confidence      float64  `json:"confidence"`
}
