package shell

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrNoHandler is returned by Dispatch for a command whose handler was never bound.
var ErrNoHandler = errors.New("command has no handler")

// HandlerFunc runs a resolved command. quit asks the shell to exit.
type HandlerFunc func(ctx context.Context, cmd *Command, args []string) (quit bool, err error)

// Registry resolves command names and aliases and dispatches each command to
// the handler bound to its Handler id.
type Registry struct {
	commands map[string]*Command
	aliases  map[string]string // alias → canonical name
	handlers map[string]HandlerFunc
}

// NewRegistry creates a Registry for cmds with no handlers bound.
//
// Precondition: No two commands may share a canonical name or alias.
// Postcondition: Returns a Registry or an error on name/alias collisions.
func NewRegistry(cmds []Command) (*Registry, error) {
	r := &Registry{
		commands: make(map[string]*Command, len(cmds)),
		aliases:  make(map[string]string),
		handlers: make(map[string]HandlerFunc),
	}
	for i := range cmds {
		cmd := &cmds[i]
		if err := r.claim(cmd.Name, cmd.Name, true); err != nil {
			return nil, err
		}
		r.commands[cmd.Name] = cmd
		for _, alias := range cmd.Aliases {
			if err := r.claim(alias, cmd.Name, false); err != nil {
				return nil, err
			}
			r.aliases[alias] = cmd.Name
		}
	}
	return r, nil
}

// claim fails when word is already taken as a name or alias.
func (r *Registry) claim(word, owner string, isName bool) error {
	if _, taken := r.commands[word]; taken {
		if isName {
			return fmt.Errorf("duplicate command name: %q", word)
		}
		return fmt.Errorf("alias %q of %q conflicts with a command name", word, owner)
	}
	if existing, taken := r.aliases[word]; taken {
		if isName {
			return fmt.Errorf("command name %q conflicts with an alias of %q", word, existing)
		}
		return fmt.Errorf("duplicate alias %q: used by %q and %q", word, existing, owner)
	}
	return nil
}

// DefaultRegistry creates a Registry with all built-in commands.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(BuiltinCommands())
	if err != nil {
		panic(fmt.Sprintf("building default registry: %v", err))
	}
	return r
}

// Bind attaches fn to every command whose Handler is id, replacing any
// earlier binding.
func (r *Registry) Bind(id string, fn HandlerFunc) {
	r.handlers[id] = fn
}

// Unbound returns the handler ids referenced by commands but not bound, sorted.
func (r *Registry) Unbound() []string {
	var ids []string
	for _, cmd := range r.commands {
		if _, ok := r.handlers[cmd.Handler]; !ok && !slices.Contains(ids, cmd.Handler) {
			ids = append(ids, cmd.Handler)
		}
	}
	slices.Sort(ids)
	return ids
}

// Resolve looks up a command by name or alias.
//
// Postcondition: Returns (command, true) if found, or (nil, false).
func (r *Registry) Resolve(input string) (*Command, bool) {
	if cmd, ok := r.commands[input]; ok {
		return cmd, true
	}
	if canonical, ok := r.aliases[input]; ok {
		return r.commands[canonical], true
	}
	return nil, false
}

// Dispatch resolves p.Command and runs its handler with p.Args.
//
// Postcondition: unknown input returns an error wrapping ErrUnknownCommand;
// a command without a bound handler returns one wrapping ErrNoHandler.
func (r *Registry) Dispatch(ctx context.Context, p ParseResult) (quit bool, err error) {
	cmd, ok := r.Resolve(p.Command)
	if !ok {
		return false, fmt.Errorf("%w %q; type \"help\" for commands", ErrUnknownCommand, p.Command)
	}
	fn, ok := r.handlers[cmd.Handler]
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrNoHandler, cmd.Name)
	}
	return fn(ctx, cmd, p.Args)
}

// Commands returns all registered commands sorted by name.
func (r *Registry) Commands() []*Command {
	result := make([]*Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		result = append(result, cmd)
	}
	slices.SortFunc(result, func(a, b *Command) int { return strings.Compare(a.Name, b.Name) })
	return result
}

// CommandsByCategory returns commands grouped by category, each group sorted by name.
func (r *Registry) CommandsByCategory() map[string][]*Command {
	categories := make(map[string][]*Command)
	for _, cmd := range r.Commands() {
		categories[cmd.Category] = append(categories[cmd.Category], cmd)
	}
	return categories
}
