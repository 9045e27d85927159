package guard

// Inputs are the four flags a guard decision depends on. Loading,
// Authenticated come from the session store; RequireAuth, ShowAuthPrompt
// are static mount configuration.
type Inputs struct {
	Loading        bool
	RequireAuth    bool
	Authenticated  bool
	ShowAuthPrompt bool
}

// Branch is one of the five mutually exclusive guard outcomes.
type Branch uint8

const (
	// BranchLoading renders a loading placeholder; nothing else is
	// evaluated.
	BranchLoading Branch = iota
	// BranchPassThrough renders the wrapped content unconditionally.
	BranchPassThrough
	// BranchAuthorized renders the wrapped content plus the companion
	// widget.
	BranchAuthorized
	// BranchRedirect sends the visitor to the fallback location, carrying
	// the origin.
	BranchRedirect
	// BranchPrompt renders the in-place authentication prompt plus the
	// companion widget.
	BranchPrompt
)

func (b Branch) String() string {
	switch b {
	case BranchLoading:
		return "loading"
	case BranchPassThrough:
		return "pass-through"
	case BranchAuthorized:
		return "authorized"
	case BranchRedirect:
		return "redirect"
	case BranchPrompt:
		return "prompt"
	default:
		return "unknown"
	}
}

// Decision is the resolved outcome for one evaluation.
type Decision struct {
	Branch Branch
	// AttachCompanion is set for the branches that mount the always-on
	// companion widget: authorized and prompt.
	AttachCompanion bool
}

// Evaluate resolves the guard outcome. The order is a deliberate
// precedence, not arbitrary: loading always wins, a non-guarding mount
// passes through before authentication is consulted, and only an
// unauthenticated request on a guarding mount distinguishes redirect from
// prompt.
func Evaluate(in Inputs) Decision {
	switch {
	case in.Loading:
		return Decision{Branch: BranchLoading}
	case !in.RequireAuth:
		return Decision{Branch: BranchPassThrough}
	case in.Authenticated:
		return Decision{Branch: BranchAuthorized, AttachCompanion: true}
	case !in.ShowAuthPrompt:
		return Decision{Branch: BranchRedirect}
	default:
		return Decision{Branch: BranchPrompt, AttachCompanion: true}
	}
}
