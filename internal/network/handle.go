package network

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"grimm.is/linkctl/internal/logging"
)

// handle is the stable identity of a bound device. Commands target name,
// but index is what the handle is really bound to: a rename updates name,
// and a query that answers with a different index marks the handle stale.
type handle struct {
	name     string
	index    int
	netns    string
	exec     CommandExecutor
	parser   OutputParser
	resolver LinkResolver
	log      *logging.Logger
}

func (h *handle) run(ctx context.Context, name string, arg ...string) (string, error) {
	h.log.Debug("exec", "cmd", name, "args", arg)
	return h.exec.RunCommand(ctx, name, arg...)
}

// ipArgs prefixes the namespace option.
func (h *handle) ipArgs(arg ...string) []string {
	argv := make([]string, 0, len(arg)+2)
	if h.netns != "" {
		argv = append(argv, "-n", h.netns)
	}
	return append(argv, arg...)
}

// show queries the device and checks that the answer still comes from the
// bound index.
func (h *handle) show(ctx context.Context) (string, error) {
	out, err := h.showOnce(ctx)
	if err != nil {
		var cerr *CommandError
		if h.index == 0 || !errors.As(err, &cerr) || !cerr.noSuchDevice() {
			return "", err
		}
		if ferr := h.follow(); ferr != nil {
			return "", ferr
		}
		if out, err = h.showOnce(ctx); err != nil {
			return "", err
		}
	}
	if h.index == 0 {
		return out, nil
	}
	if s, ok := h.parser.Field(out, MarkerIndex); ok {
		if idx, err := strconv.Atoi(s); err == nil && idx != h.index {
			return "", &StaleError{
				Name:   h.name,
				Index:  h.index,
				Reason: fmt.Sprintf("name now belongs to index %d", idx),
			}
		}
	}
	return out, nil
}

func (h *handle) showOnce(ctx context.Context) (string, error) {
	argv := h.ipArgs(h.parser.QueryOptions()...)
	argv = append(argv, "link", "show", "dev", h.name)
	return h.run(ctx, "ip", argv...)
}

// follow re-resolves the device by index after its name went missing.
func (h *handle) follow() error {
	if h.resolver == nil {
		return &StaleError{Name: h.name, Index: h.index, Reason: "device no longer exists"}
	}
	name, err := h.resolver.NameByIndex(h.index)
	if errors.Is(err, ErrLinkNotFound) {
		return &StaleError{Name: h.name, Index: h.index, Reason: "device was removed"}
	}
	if err != nil {
		return fmt.Errorf("failed to resolve index %d: %w", h.index, err)
	}
	if name == h.name {
		return &StaleError{Name: h.name, Index: h.index, Reason: "device exists but cannot be queried"}
	}
	h.log.Warn("interface renamed externally", "old", h.name, "new", name, "index", h.index)
	h.name = name
	return nil
}

// set runs `ip link set dev <name> <arg...>`.
func (h *handle) set(ctx context.Context, arg ...string) error {
	argv := h.ipArgs("link", "set", "dev", h.name)
	_, err := h.run(ctx, "ip", append(argv, arg...)...)
	return err
}

// rename runs `ip link set dev <name> name <newName>` and retargets the
// handle when the device answers under the new name. A rename the kernel
// ignored leaves the handle where it was so the read-back can report it.
func (h *handle) rename(ctx context.Context, newName string) error {
	if err := h.set(ctx, "name", newName); err != nil {
		return err
	}
	prev := h.name
	h.name = newName
	if _, err := h.showOnce(ctx); err != nil {
		var cerr *CommandError
		if errors.As(err, &cerr) && cerr.noSuchDevice() {
			h.name = prev
		}
	}
	return nil
}

// iw runs `iw dev <name> <arg...>`, inside the namespace if one is bound.
func (h *handle) iw(ctx context.Context, arg ...string) (string, error) {
	argv := append([]string{"dev", h.name}, arg...)
	if h.netns != "" {
		return h.run(ctx, "ip", append([]string{"netns", "exec", h.netns, "iw"}, argv...)...)
	}
	return h.run(ctx, "iw", argv...)
}
