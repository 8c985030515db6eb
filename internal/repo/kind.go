package repo

import (
	"fmt"
	"strings"
)

// Kind names one of the mirrored lists.
type Kind int

// Mirrored lists.
const (
	KindFiles Kind = iota
	KindBranches
	KindStashes
	KindLogs
)

// AllKinds is every list, in reload order.
var AllKinds = []Kind{KindFiles, KindBranches, KindStashes, KindLogs}

func (k Kind) String() string {
	switch k {
	case KindFiles:
		return "files"
	case KindBranches:
		return "branches"
	case KindStashes:
		return "stashes"
	case KindLogs:
		return "logs"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind accepts the names produced by String.
func ParseKind(name string) (Kind, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, k := range AllKinds {
		if k.String() == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown list %q", name)
}

func dedupeKinds(kinds []Kind) []Kind {
	seen := make(map[Kind]struct{}, len(kinds))
	out := make([]Kind, 0, len(kinds))
	for _, k := range kinds {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
