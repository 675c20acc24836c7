package prompt

import (
	"context"
	"fmt"

	"conduit/internal/domain"
)

// Policy names accepted in configuration.
const (
	PolicyPrompt = "prompt"
	PolicyAllow  = "allow"
	PolicyDeny   = "deny"
)

// Policy approves or rejects every device without asking.
type Policy struct {
	Allow bool
}

func (p Policy) Approve(ctx context.Context, _ domain.DeviceInfo) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return p.Allow, nil
}

// ForPolicy returns the Approver for a configured policy name.
// The terminal is only opened for "prompt".
func ForPolicy(name string) (domain.Approver, error) {
	switch name {
	case PolicyAllow:
		return Policy{Allow: true}, nil
	case PolicyDeny:
		return Policy{Allow: false}, nil
	case PolicyPrompt, "":
		return FromStdio()
	default:
		return nil, fmt.Errorf("prompt: unknown approval policy %q", name)
	}
}

var _ domain.Approver = Policy{}
