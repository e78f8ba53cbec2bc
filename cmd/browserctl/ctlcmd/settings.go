package ctlcmd

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"
	"go.browserstore.dev/core/sqldb"
)

type cmdSettingsList struct{}

func (cmd *cmdSettingsList) Execute([]string) error {
	var svc = startup()
	defer svc.Close()

	var entries, err = svc.Settings.List()
	if err != nil {
		return err
	}
	var rows = make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{e.Key, e.Value.Type().String(), formatField(e.Value)})
	}
	return writeTable([]string{"Key", "Type", "Value"}, rows)
}

type cmdSettingsGet struct {
	Key  string `long:"key" required:"true" description:"Setting key"`
	Type string `long:"type" default:"text" choice:"int" choice:"double" choice:"text" choice:"bool" description:"Type of the setting value"`
}

func (cmd *cmdSettingsGet) Execute([]string) error {
	var svc = startup()
	defer svc.Close()

	if ok, err := svc.Settings.Has(cmd.Key); err != nil {
		return err
	} else if !ok {
		return errors.Errorf("setting %q not found", cmd.Key)
	}

	var out any
	var err error

	switch cmd.Type {
	case "int":
		out, err = svc.Settings.Int(cmd.Key, 0)
	case "double":
		out, err = svc.Settings.Double(cmd.Key, 0)
	case "bool":
		out, err = svc.Settings.Bool(cmd.Key, false)
	default:
		out, err = svc.Settings.Text(cmd.Key, "")
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(Stdout, out)
	return err
}

type cmdSettingsSet struct {
	Key   string `long:"key" required:"true" description:"Setting key"`
	Type  string `long:"type" default:"text" choice:"int" choice:"double" choice:"text" choice:"bool" description:"Type of the setting value"`
	Value string `long:"value" required:"true" description:"Setting value"`
}

func (cmd *cmdSettingsSet) Execute([]string) error {
	var svc = startup()
	defer svc.Close()

	var f, err = parseSetting(cmd.Type, cmd.Value)
	if err != nil {
		return err
	}
	return svc.Settings.SetValue(cmd.Key, f)
}

func formatField(f sqldb.Field) string {
	if f.IsNull() {
		return ""
	}
	return fmt.Sprint(f.Value())
}

// parseSetting parses |value| as a Field of type |typ|.
func parseSetting(typ, value string) (sqldb.Field, error) {
	switch typ {
	case "int":
		var n, err = strconv.ParseInt(value, 10, 64)
		if err != nil {
			return sqldb.NullField(), errors.WithMessagef(err, "parsing --value %q", value)
		}
		return sqldb.IntField(n), nil
	case "double":
		var d, err = strconv.ParseFloat(value, 64)
		if err != nil {
			return sqldb.NullField(), errors.WithMessagef(err, "parsing --value %q", value)
		}
		return sqldb.DoubleField(d), nil
	case "bool":
		var b, err = strconv.ParseBool(value)
		if err != nil {
			return sqldb.NullField(), errors.WithMessagef(err, "parsing --value %q", value)
		} else if b {
			return sqldb.IntField(1), nil
		}
		return sqldb.IntField(0), nil
	default:
		return sqldb.TextField(value), nil
	}
}

type cmdSettingsDelete struct {
	Key string `long:"key" description:"Setting key. If omitted, all settings are deleted"`
}

func (cmd *cmdSettingsDelete) Execute([]string) error {
	var svc = startup()
	defer svc.Close()

	if cmd.Key == "" {
		return svc.Settings.DeleteAll()
	}
	return svc.Settings.Delete(cmd.Key)
}

func init() {
	CommandRegistry.AddCommand("settings", "list", "List settings", `
List all settings, ordered on key.
`, &cmdSettingsList{})

	CommandRegistry.AddCommand("settings", "get", "Get a setting", `
Print the value of a setting. The --type flag selects the conversion
applied to the stored value.

  browserctl settings get --key homepage
  browserctl settings get --key zoom --type double
`, &cmdSettingsGet{})

	CommandRegistry.AddCommand("settings", "set", "Set a setting", `
Store a setting value, replacing any current value of the key.

  browserctl settings set --key javascript --type bool --value true
`, &cmdSettingsSet{})

	CommandRegistry.AddCommand("settings", "delete", "Delete settings", `
Delete a setting, or all settings if no --key is given.
`, &cmdSettingsDelete{})
}
