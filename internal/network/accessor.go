package network

import (
	"context"
	"fmt"
)

// accessor is the read / write / verify contract shared by every attribute.
type accessor[T comparable] struct {
	attribute string
	read      func(ctx context.Context) (T, error)
	write     func(ctx context.Context, v T) error
}

// change captures the current value, writes v, re-reads and fails with
// *NotChangedError when the observed value equals the captured one.
// Commands that exit 0 without effect are caught here.
func (a accessor[T]) change(ctx context.Context, iface string, v T) (old, cur T, err error) {
	if old, err = a.read(ctx); err != nil {
		return old, cur, err
	}
	if err = a.write(ctx, v); err != nil {
		return old, old, err
	}
	if cur, err = a.read(ctx); err != nil {
		return old, cur, err
	}
	if cur == old {
		return old, cur, &NotChangedError{
			Interface: iface,
			Attribute: a.attribute,
			Old:       display(old),
			Requested: display(v),
		}
	}
	return old, cur, nil
}

// optional is a value that may be absent, which is not the same as empty.
type optional struct {
	value string
	ok    bool
}

func some(v string) optional { return optional{value: v, ok: true} }

func (o optional) String() string {
	if !o.ok {
		return "<none>"
	}
	return o.value
}

func display(v any) string {
	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprint(v)
}
