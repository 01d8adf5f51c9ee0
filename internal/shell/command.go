// Package shell implements the interactive line shell: command parsing, the
// command registry, and handlers bound to a simulator.
package shell

// Categories for organizing commands in help output.
const (
	CategorySimulate = "simulate"
	CategoryResults  = "results"
	CategorySystem   = "system"
)

// Handler identifiers mapping commands to shell handlers.
const (
	HandlerRoll    = "roll"
	HandlerBatch   = "batch"
	HandlerUse     = "use"
	HandlerStats   = "stats"
	HandlerHistory = "history"
	HandlerClear   = "clear"
	HandlerExport  = "export"
	HandlerSound   = "sound"
	HandlerWatch   = "watch"
	HandlerHelp    = "help"
	HandlerQuit    = "quit"
)

// Command defines a shell command.
type Command struct {
	// Name is the canonical command name.
	Name string
	// Aliases are alternate names for this command.
	Aliases []string
	// Usage shows the argument syntax, e.g. "batch <n> [type]".
	Usage string
	// Help is the short help text.
	Help string
	// Category groups the command in help output.
	Category string
	// Handler selects the shell handler.
	Handler string
}

// BuiltinCommands returns every shell command.
func BuiltinCommands() []Command {
	return []Command{
		{Name: "roll", Aliases: []string{"r"}, Usage: "roll", Help: "Roll the die", Category: CategorySimulate, Handler: HandlerRoll},
		{Name: "flip", Aliases: []string{"f"}, Usage: "flip", Help: "Flip the coin", Category: CategorySimulate, Handler: HandlerRoll},
		{Name: "spin", Aliases: []string{"s"}, Usage: "spin", Help: "Spin the wheel", Category: CategorySimulate, Handler: HandlerRoll},
		{Name: "batch", Aliases: []string{"b"}, Usage: "batch <n> [type]", Help: "Record n trials at once", Category: CategorySimulate, Handler: HandlerBatch},
		{Name: "use", Aliases: []string{"tab"}, Usage: "use <dice|coin|wheel>", Help: "Switch the active distribution", Category: CategorySimulate, Handler: HandlerUse},

		{Name: "stats", Aliases: []string{"st"}, Usage: "stats [type] [text|json|yaml]", Help: "Show statistics", Category: CategoryResults, Handler: HandlerStats},
		{Name: "history", Aliases: []string{"h"}, Usage: "history [n]", Help: "Show recent trials", Category: CategoryResults, Handler: HandlerHistory},
		{Name: "clear", Usage: "clear", Help: "Clear all history", Category: CategoryResults, Handler: HandlerClear},
		{Name: "export", Aliases: []string{"x"}, Usage: "export [file]", Help: "Export history as CSV", Category: CategoryResults, Handler: HandlerExport},
		{Name: "watch", Aliases: []string{"w"}, Usage: "watch [on|off]", Help: "Print a session summary on every refresh", Category: CategoryResults, Handler: HandlerWatch},

		{Name: "sound", Usage: "sound [on|off]", Help: "Show or toggle sound effects", Category: CategorySystem, Handler: HandlerSound},
		{Name: "help", Aliases: []string{"?"}, Usage: "help", Help: "List commands", Category: CategorySystem, Handler: HandlerHelp},
		{Name: "quit", Aliases: []string{"q", "exit"}, Usage: "quit", Help: "Leave the shell", Category: CategorySystem, Handler: HandlerQuit},
	}
}
