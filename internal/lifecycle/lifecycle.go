// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package lifecycle collects the cleanup a command registers while it runs
// so it can be performed once the command returns, whether it failed or not.
package lifecycle

import (
	"context"
	"errors"
)

// Hook is an action performed relative to a command's execution.
type Hook interface {
	Run(context.Context) error
}

// HookFunc is a func variant of the [Hook] interface.
type HookFunc func(context.Context) error

// Run implements the [Hook] interface.
func (f HookFunc) Run(ctx context.Context) error {
	return f(ctx)
}

type multiHook []Hook

func (mh multiHook) Run(ctx context.Context) error {
	errs := make([]error, 0, len(mh))
	for _, h := range mh {
		err := h.Run(ctx)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// MultiHook runs every hook in order, even after one of them fails,
// and joins their errors.
func MultiHook(hooks ...Hook) Hook {
	return multiHook(hooks)
}

// Context holds the hooks registered during a command's execution.
type Context struct {
	exits []Hook
}

// OnExit registers hook to be run by [Context.Exit]. Hooks run in the
// reverse order they were registered, like deferred calls, so whatever
// was created last is released first.
func (c *Context) OnExit(hook Hook) {
	c.exits = append(c.exits, hook)
}

// Exit returns the [Hook] running every registered exit hook.
func (c *Context) Exit() Hook {
	hooks := make(multiHook, len(c.exits))
	for i, h := range c.exits {
		hooks[len(c.exits)-1-i] = h
	}
	return hooks
}

type key struct{}

var contextKey = &key{}

// NewContext returns a new [context.Context] carrying c.
func NewContext(parent context.Context, c *Context) context.Context {
	return context.WithValue(parent, contextKey, c)
}

// FromContext extracts the [Context] from ctx, if present.
func FromContext(ctx context.Context) (*Context, bool) {
	lc, ok := ctx.Value(contextKey).(*Context)
	return lc, ok
}
