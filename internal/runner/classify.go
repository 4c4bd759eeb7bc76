package runner

import "strings"

// Outcome classifies a finished command.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	// OutcomeBenign is a non-zero exit whose stderr says the target is
	// already in the requested state or the service is mid-transition.
	OutcomeBenign
	OutcomeFatal
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeBenign:
		return "benign"
	default:
		return "fatal"
	}
}

// DefaultBenignPatterns are stderr fragments emitted by net.exe and netsh
// when a service is already started (2182) or cannot accept the control
// right now (2191), in both the Russian and English console locales.
var DefaultBenignPatterns = []string{
	"уже запущена",
	"already started",
	"невозможно",
	"2191",
	"2182",
}

// Classify decides how a command's exit status should be treated. Only
// stderr is inspected for benign patterns.
func Classify(exitCode int, stderr string, patterns []string) Outcome {
	if exitCode == 0 {
		return OutcomeSuccess
	}
	lower := strings.ToLower(stderr)
	for _, p := range patterns {
		if p == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(p)) {
			return OutcomeBenign
		}
	}
	return OutcomeFatal
}
