package mainboilerplate

import (
	"strings"

	"github.com/jessevdk/go-flags"
)

// CommandRegistry accumulates sub-commands keyed on the dotted path of their
// parent command (eg "folders" or "folders.list"), so that packages may
// register commands from init() before the command tree is assembled.
type CommandRegistry map[string][]command

type command struct {
	name, short, long string
	data              interface{}
}

// NewCommandRegistry returns an empty CommandRegistry.
func NewCommandRegistry() CommandRegistry { return make(CommandRegistry) }

// AddCommand registers command |name| under |parent|, which is "" for the
// root command. |data| is the go-flags command struct.
func (cr CommandRegistry) AddCommand(parent, name, short, long string, data interface{}) {
	cr[parent] = append(cr[parent], command{name: name, short: short, long: long, data: data})
}

// AddCommands adds commands registered under |path| to |cmd|, and then
// recursively adds commands registered under each sub-command of |cmd|.
func (cr CommandRegistry) AddCommands(path string, cmd *flags.Command) error {
	for _, c := range cr[path] {
		if _, err := cmd.AddCommand(c.name, c.short, c.long, c.data); err != nil {
			return err
		}
	}
	for _, sub := range cmd.Commands() {
		var subPath = strings.TrimPrefix(path+"."+sub.Name, ".")

		if err := cr.AddCommands(subPath, sub); err != nil {
			return err
		}
	}
	return nil
}
