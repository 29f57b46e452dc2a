package policies

import (
	"context"
	"fmt"

	"github.com/rickchristie/agentdoc"
	"github.com/rickchristie/agentdoc/engine"
	"github.com/rickchristie/agentdoc/jsonplus"
)

// Roles accepted by @include.
const (
	RoleUser   = "user"
	RoleSystem = "system"
)

// include appends the content of another context. The child is executed to convergence
// first, or only collected during a collect walk. A cycle contributes nothing.
func include(ctx context.Context, inv *engine.Invocation) (*engine.Collector, []engine.Patch, error) {
	name, err := inv.Argument(0, "context name")
	if err != nil {
		return nil, nil, err
	}
	role, ok := inv.Parameter("role")
	if !ok {
		role = RoleUser
	}
	if role != RoleUser && role != RoleSystem {
		return nil, nil, inv.Errorf(fmt.Errorf("%w: unknown role %q", agentdoc.ErrParse, role))
	}

	child, ok, err := inv.Include(ctx, name)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return inv.Collector, nil, nil
	}
	items := child.Context
	if role == RoleSystem {
		items = asSystem(items)
	}
	return inv.Collector.PushItem(items...), nil, nil
}

func asSystem(items agentdoc.ModelContent) agentdoc.ModelContent {
	out := make(agentdoc.ModelContent, len(items))
	for i, item := range items {
		if item.Kind == agentdoc.ItemUser {
			item = agentdoc.System(item.Text)
		}
		out[i] = item
	}
	return out
}

func set(_ context.Context, inv *engine.Invocation) (*engine.Collector, []engine.Patch, error) {
	return inv.Collector.Update(inv.Parameters()), nil, nil
}

// forget removes the parameter keys and every argument from the variables.
func forget(_ context.Context, inv *engine.Invocation) (*engine.Collector, []engine.Patch, error) {
	keys := inv.Parameters().Keys()
	for _, arg := range inv.Arguments() {
		keys = append(keys, jsonplus.Text(arg))
	}
	return inv.Collector.Forget(keys...), nil, nil
}

func comment(_ context.Context, inv *engine.Invocation) (*engine.Collector, []engine.Patch, error) {
	return inv.Collector, nil, nil
}
