package shell

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()
	assert.Len(t, r.Commands(), len(BuiltinCommands()))
}

func TestResolve_NamesAndAliases(t *testing.T) {
	r := DefaultRegistry()
	cases := map[string]string{
		"roll": "roll", "r": "roll",
		"flip": "flip", "f": "flip",
		"spin": "spin", "s": "spin",
		"batch": "batch", "use": "use",
		"stats": "stats", "history": "history",
		"clear": "clear", "export": "export",
		"sound": "sound", "watch": "watch", "w": "watch",
		"help": "help", "?": "help",
		"quit": "quit", "q": "quit", "exit": "quit",
	}
	for input, want := range cases {
		cmd, ok := r.Resolve(input)
		require.True(t, ok, input)
		assert.Equal(t, want, cmd.Name, input)
	}
}

func TestResolve_NotFound(t *testing.T) {
	_, ok := DefaultRegistry().Resolve("teleport")
	assert.False(t, ok)
}

func TestNewRegistry_DuplicateName(t *testing.T) {
	_, err := NewRegistry([]Command{{Name: "roll"}, {Name: "roll"}})
	assert.Error(t, err)
}

func TestNewRegistry_AliasCollisions(t *testing.T) {
	_, err := NewRegistry([]Command{{Name: "roll", Aliases: []string{"r"}}, {Name: "reset", Aliases: []string{"r"}}})
	assert.Error(t, err)

	_, err = NewRegistry([]Command{{Name: "roll", Aliases: []string{"spin"}}, {Name: "spin"}})
	assert.Error(t, err)

	_, err = NewRegistry([]Command{{Name: "roll", Aliases: []string{"x"}}, {Name: "x"}})
	assert.Error(t, err)
}

func TestDispatch_BoundHandler(t *testing.T) {
	r, err := NewRegistry([]Command{
		{Name: "roll", Aliases: []string{"r"}, Handler: HandlerRoll},
		{Name: "flip", Handler: HandlerRoll},
		{Name: "quit", Handler: HandlerQuit},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{HandlerQuit, HandlerRoll}, r.Unbound())

	var got []string
	r.Bind(HandlerRoll, func(_ context.Context, cmd *Command, args []string) (bool, error) {
		got = append(got, cmd.Name)
		got = append(got, args...)
		return false, nil
	})
	assert.Equal(t, []string{HandlerQuit}, r.Unbound())

	quit, err := r.Dispatch(context.Background(), Parse("r now"))
	require.NoError(t, err)
	assert.False(t, quit)
	_, err = r.Dispatch(context.Background(), Parse("flip"))
	require.NoError(t, err)
	assert.Equal(t, []string{"roll", "now", "flip"}, got, "aliases dispatch under the canonical command")

	_, err = r.Dispatch(context.Background(), Parse("quit"))
	assert.ErrorIs(t, err, ErrNoHandler)
	_, err = r.Dispatch(context.Background(), Parse("teleport"))
	assert.ErrorIs(t, err, ErrUnknownCommand)
}

func TestShellBindsEveryBuiltin(t *testing.T) {
	sh, _, _ := newTestShell(t, 0, nil)
	assert.Empty(t, sh.registry.Unbound())
}

func TestCommandsByCategory(t *testing.T) {
	cats := DefaultRegistry().CommandsByCategory()
	assert.Len(t, cats, 3)
	for _, cmds := range cats {
		for i := 1; i < len(cmds); i++ {
			assert.Less(t, cmds[i-1].Name, cmds[i].Name)
		}
	}
}

// Property: every builtin name and alias resolves to a command with a handler.
func TestPropertyBuiltinsResolve(t *testing.T) {
	r := DefaultRegistry()
	var inputs []string
	for _, c := range BuiltinCommands() {
		inputs = append(inputs, c.Name)
		inputs = append(inputs, c.Aliases...)
	}
	rapid.Check(t, func(t *rapid.T) {
		input := rapid.SampledFrom(inputs).Draw(t, "input")
		cmd, ok := r.Resolve(input)
		if !ok || cmd.Handler == "" {
			t.Fatalf("%q did not resolve to a handled command", input)
		}
	})
}
