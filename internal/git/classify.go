package git

import "strings"

// Severity grades the outcome of a command for reporting.
type Severity int

// Severities, from silent to failure.
const (
	SeverityNone Severity = iota
	SeverityInfo
	SeverityWarning
	SeverityError
)

// NoLocalChanges is what `git stash save` prints on a clean tree.
const NoLocalChanges = "No local changes to save"

// String returns the severity name used by notifications.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "none"
	}
}

// Classifier grades joined command output and its exit status.
type Classifier interface {
	Classify(output string, res Result) Severity
}

// Classifier names accepted by ClassifierFor.
const (
	ClassifierSubstring = "substring"
	ClassifierExitCode  = "exit-code"
)

// ClassifierFor returns the classifier registered under name, falling back
// to the substring classifier.
func ClassifierFor(name string) Classifier {
	if strings.EqualFold(strings.TrimSpace(name), ClassifierExitCode) {
		return ExitCodeClassifier{}
	}
	return SubstringClassifier{}
}

// SubstringClassifier grades output text only: anything mentioning "fatal"
// is an error, the clean-tree stash message is a warning and any other
// non-empty output is informational.
type SubstringClassifier struct{}

// Classify implements Classifier.
func (SubstringClassifier) Classify(output string, _ Result) Severity {
	return classifyText(output)
}

// ExitCodeClassifier treats a failed process as an error before looking at
// the text.
type ExitCodeClassifier struct{}

// Classify implements Classifier.
func (ExitCodeClassifier) Classify(output string, res Result) Severity {
	if res.Err != nil || res.ExitCode != 0 {
		return SeverityError
	}
	if sev := classifyText(output); sev != SeverityError {
		return sev
	}
	return SeverityInfo
}

func classifyText(output string) Severity {
	switch {
	case strings.TrimSpace(output) == "":
		return SeverityNone
	case strings.Contains(output, "fatal"):
		return SeverityError
	case output == NoLocalChanges:
		return SeverityWarning
	default:
		return SeverityInfo
	}
}
