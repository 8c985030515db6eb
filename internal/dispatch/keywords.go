package dispatch

import (
	"context"
	"strings"

	"github.com/chmouel/blendgit/internal/git"
	"github.com/chmouel/blendgit/internal/models"
)

// Keywords substituted in free-form commands.
const (
	KeywordBranch = "<branch>"
	KeywordFile   = "<file>"
	KeywordStash  = "<stash>"
	KeywordCommit = "<commit>"
)

// Selection is what a free-form command's keywords expand to.
type Selection struct {
	Branch string
	File   string
	Stash  string
	Commit string
}

// DefaultSelection picks the active branch and the first file, stash and
// hashed log entry of ctx.
func DefaultSelection(ctx models.RepositoryContext) Selection {
	var sel Selection
	if b, ok := ctx.ActiveBranch(); ok {
		sel.Branch = b.Name
	} else if len(ctx.Branches) > 0 {
		sel.Branch = ctx.Branches[0].Name
	}
	for _, f := range ctx.Files {
		if f.Status != models.StatusIgnored {
			sel.File = f.Path
			break
		}
	}
	if len(ctx.Stashes) > 0 {
		sel.Stash = ctx.Stashes[0].Revision
	}
	for _, entry := range ctx.Logs {
		if entry.Hash != "" {
			sel.Commit = entry.Hash
			break
		}
	}
	return sel
}

// Or fills the empty fields of s from fallback.
func (s Selection) Or(fallback Selection) Selection {
	if s.Branch == "" {
		s.Branch = fallback.Branch
	}
	if s.File == "" {
		s.File = fallback.File
	}
	if s.Stash == "" {
		s.Stash = fallback.Stash
	}
	if s.Commit == "" {
		s.Commit = fallback.Commit
	}
	return s
}

// QuoteArg wraps values holding blanks or quotes so SplitArgs keeps them
// as one argument.
func QuoteArg(value string) string {
	if value == "" || !strings.ContainsAny(value, " \t\"'") {
		return value
	}
	return `"` + strings.ReplaceAll(value, `"`, `\"`) + `"`
}

// ExpandKeywords substitutes the selection into command.
func ExpandKeywords(command string, sel Selection) string {
	return strings.NewReplacer(
		KeywordBranch, QuoteArg(sel.Branch),
		KeywordFile, QuoteArg(sel.File),
		KeywordStash, QuoteArg(sel.Stash),
		KeywordCommit, QuoteArg(sel.Commit),
	).Replace(command)
}

// CommandArgs expands and splits a free-form command. A leading "git" is
// dropped.
func CommandArgs(command string, sel Selection) ([]string, error) {
	args, err := git.SplitArgs(ExpandKeywords(command, sel))
	if err != nil {
		return nil, err
	}
	if len(args) > 0 && args[0] == "git" {
		args = args[1:]
	}
	if len(args) == 0 {
		return nil, ErrInvalidArgument
	}
	return args, nil
}

// RunCommand runs a free-form git command. Keywords missing from sel take
// their value from the current repository context. Nothing is refreshed.
func (d *Dispatcher) RunCommand(ctx context.Context, command string, sel Selection) (Report, error) {
	args, err := CommandArgs(command, sel.Or(DefaultSelection(d.state.Snapshot())))
	if err != nil {
		return Report{Action: "command"}, err
	}
	return d.Execute(ctx, Action{Name: "command", Args: args})
}
