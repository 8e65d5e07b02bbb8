package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"layerdb/pkg/layerdb"
	"layerdb/pkg/value"
)

// CommandContext holds the state available to command handlers.
type CommandContext struct {
	DB   *layerdb.DB
	Out  io.Writer
	Args []string
}

// CommandHandler runs one command against an open store.
type CommandHandler func(ctx CommandContext) error

// Command describes a registered store command.
type Command struct {
	Usage   string // full usage for help; defaults to the command name
	Help    string
	MinArgs int
	Handler CommandHandler
}

// CommandRegistry maps command names to handlers and produces help text in
// registration order.
type CommandRegistry struct {
	commands map[string]Command
	order    []string
}

// NewCommandRegistry creates a registry holding the store commands.
func NewCommandRegistry() *CommandRegistry {
	r := &CommandRegistry{commands: make(map[string]Command)}
	registerStoreCommands(r)
	return r
}

// Register adds a command. Registering the same name twice overwrites the
// previous entry. Panics if cmd.Handler is nil.
func (r *CommandRegistry) Register(name string, cmd Command) {
	if cmd.Handler == nil {
		panic("layerdb: Register called with nil handler for " + name)
	}
	if _, exists := r.commands[name]; !exists {
		r.order = append(r.order, name)
	}
	r.commands[name] = cmd
}

// Lookup returns the command registered under name.
func (r *CommandRegistry) Lookup(name string) (Command, bool) {
	cmd, ok := r.commands[name]
	return cmd, ok
}

// Run executes the command named by args[0].
func (r *CommandRegistry) Run(db *layerdb.DB, out io.Writer, args []string) error {
	if len(args) == 0 {
		return nil
	}
	cmd, ok := r.commands[args[0]]
	if !ok {
		return fmt.Errorf("unknown command: %s (try help)", args[0])
	}
	if len(args)-1 < cmd.MinArgs {
		return fmt.Errorf("usage: %s", cmd.usage(args[0]))
	}
	return cmd.Handler(CommandContext{DB: db, Out: out, Args: args[1:]})
}

// HelpText lists all registered commands in registration order.
func (r *CommandRegistry) HelpText() string {
	var b strings.Builder
	b.WriteString("Commands:\n")
	for _, name := range r.order {
		cmd := r.commands[name]
		fmt.Fprintf(&b, "  %-22s %s\n", cmd.usage(name), cmd.Help)
	}
	return b.String()
}

func (c Command) usage(name string) string {
	if c.Usage != "" {
		return c.Usage
	}
	return name
}

func registerStoreCommands(r *CommandRegistry) {
	r.Register("get", Command{
		Usage:   "get <key>",
		Help:    "print the value stored under key as JSON",
		MinArgs: 1,
		Handler: handleGet,
	})
	r.Register("set", Command{
		Usage:   "set <key> <json>",
		Help:    "store a value; text that is not JSON is stored as a string",
		MinArgs: 2,
		Handler: handleSet,
	})
	r.Register("rm", Command{
		Usage:   "rm <key>",
		Help:    "remove a key",
		MinArgs: 1,
		Handler: handleRemove,
	})
	r.Register("keys", Command{
		Help:    "list all keys",
		Handler: handleKeys,
	})
	r.Register("export", Command{
		Help:    "print the whole store as one JSON object",
		Handler: handleExport,
	})
	r.Register("import", Command{
		Usage:   "import <file.json>",
		Help:    "merge the top-level entries of a JSON object (all or nothing)",
		MinArgs: 1,
		Handler: handleImport,
	})
	r.Register("dump", Command{
		Help:    "write the store to disk now",
		Handler: handleDump,
	})
	r.Register("info", Command{
		Help:    "show path, format, id and size",
		Handler: handleInfo,
	})
}

func handleGet(ctx CommandContext) error {
	key := ctx.Args[0]
	v, ok, err := ctx.DB.Get(key)
	if err != nil {
		return err
	}
	if !ok {
		_, _ = fmt.Fprintf(ctx.Out, "%s: not found\n", key)
		return nil
	}
	_, _ = fmt.Fprintln(ctx.Out, v.String())
	return nil
}

func handleSet(ctx CommandContext) error {
	key := ctx.Args[0]
	raw := strings.Join(ctx.Args[1:], " ")
	v, err := value.ParseJSON([]byte(raw))
	if err != nil {
		v = value.String(raw)
	}
	if err := ctx.DB.Set(key, v); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(ctx.Out, "Set %s = %s\n", key, v)
	return nil
}

func handleRemove(ctx CommandContext) error {
	key := ctx.Args[0]
	existed, err := ctx.DB.Remove(key)
	if err != nil {
		return err
	}
	if existed {
		_, _ = fmt.Fprintf(ctx.Out, "Removed %s\n", key)
	} else {
		_, _ = fmt.Fprintf(ctx.Out, "%s: not found\n", key)
	}
	return nil
}

func handleKeys(ctx CommandContext) error {
	keys := ctx.DB.Keys()
	if len(keys) == 0 {
		_, _ = fmt.Fprintln(ctx.Out, "(empty)")
		return nil
	}
	for _, k := range keys {
		_, _ = fmt.Fprintln(ctx.Out, k)
	}
	return nil
}

func handleExport(ctx CommandContext) error {
	fields := make(map[string]value.Value, ctx.DB.Len())
	for _, k := range ctx.DB.Keys() {
		v, _, err := ctx.DB.Get(k)
		if err != nil {
			return err
		}
		fields[k] = v
	}
	enc := json.NewEncoder(ctx.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(value.Mapping(fields))
}

func handleImport(ctx CommandContext) error {
	data, err := os.ReadFile(ctx.Args[0])
	if err != nil {
		return fmt.Errorf("reading import file: %w", err)
	}
	doc, err := value.ParseJSON(data)
	if err != nil {
		return err
	}
	fields, ok := doc.AsMapping()
	if !ok {
		return fmt.Errorf("import file must hold a JSON object, got %s", doc.Kind())
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	// Stage into a scratch store of the same format so one bad entry
	// rejects the file before anything reaches ctx.DB.
	staging, err := layerdb.New(layerdb.WithFormat(ctx.DB.Format()))
	if err != nil {
		return err
	}
	defer func() { _ = staging.Close() }()
	for _, k := range keys {
		if err := staging.Set(k, fields[k]); err != nil {
			return fmt.Errorf("importing %.64q: %w", k, err)
		}
	}
	for _, k := range keys {
		if err := ctx.DB.Set(k, fields[k]); err != nil {
			return fmt.Errorf("importing %.64q: %w", k, err)
		}
	}
	_, _ = fmt.Fprintf(ctx.Out, "Imported %d entries\n", len(keys))
	return nil
}

func handleDump(ctx CommandContext) error {
	if err := ctx.DB.Dump(); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(ctx.Out, "Wrote %d entries to %s\n", ctx.DB.Len(), ctx.DB.Path())
	return nil
}

func handleInfo(ctx CommandContext) error {
	_, _ = fmt.Fprintf(ctx.Out, "path:    %s\nformat:  %s\nid:      %s\nentries: %d\ndirty:   %t\n",
		ctx.DB.Path(), ctx.DB.Format(), ctx.DB.ID(), ctx.DB.Len(), ctx.DB.Dirty())
	return nil
}
