// Package ctlcmd implements the sub-commands of browserctl, a tool for
// inspecting and editing the browser's store databases.
package ctlcmd

import (
	"io"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	mbp "go.browserstore.dev/core/mainboilerplate"
	"go.browserstore.dev/core/sqldb"
	"go.browserstore.dev/core/storageservice"
)

const iniFilename = "browserctl.ini"

var (
	baseCfg = new(struct {
		Log         mbp.LogConfig         `group:"Logging" namespace:"log" env-namespace:"LOG"`
		Diagnostics mbp.DiagnosticsConfig `group:"Debug" namespace:"debug" env-namespace:"DEBUG"`
		Storage     storageservice.Config `group:"Storage" namespace:"storage" env-namespace:"STORAGE"`
		Database    sqldb.Options         `group:"Database" namespace:"db" env-namespace:"DB"`
	})

	// CommandRegistry of browserctl sub-commands, populated by init().
	CommandRegistry = mbp.NewCommandRegistry()

	// Stdout receives command output.
	Stdout io.Writer = os.Stdout
)

// startup initializes logging and diagnostics, and opens the storage service.
func startup() *storageservice.Service {
	mbp.InitLog(baseCfg.Log)
	mbp.InitDiagnostics(baseCfg.Diagnostics)
	mbp.Must(baseCfg.Database.Validate(), "invalid database options")

	var svc = storageservice.New(baseCfg.Storage, sqldb.NewRegistry(baseCfg.Database))
	for store, err := range svc.InitErrors {
		log.WithFields(log.Fields{"store": store, "err": err}).Warn("store is disabled")
	}
	return svc
}

// writeTable renders |rows| under |headers| to Stdout.
func writeTable(headers []string, rows [][]string) error {
	var table = tablewriter.NewWriter(Stdout)

	var hdr = make([]any, len(headers))
	for i, h := range headers {
		hdr[i] = h
	}
	table.Header(hdr...)

	for _, row := range rows {
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}

// Execute browserctl with the process arguments.
func Execute() {
	var parser = flags.NewParser(baseCfg, flags.Default)

	mbp.AddPrintConfigCmd(parser, iniFilename, os.Stdout)
	parser.LongDescription = `browserctl is a tool for inspecting and editing the SQLite databases of the
browser's settings, bookmark folders, certificate decisions, quick-access
items, and PWA responses.

See --help pages of each sub-command for documentation and usage examples.
Optionally configure browserctl with a '` + iniFilename + `' file in the current
working directory, or with '~/.config/browserstore/` + iniFilename + `'. Use the
'print-config' sub-command to inspect the tool's current configuration.
`
	mbp.Must(CommandRegistry.AddCommands("", parser.Command), "could not add sub-commands")

	defer mbp.LogPanic()
	mbp.MustParseConfig(parser, iniFilename)
}

func init() {
	CommandRegistry.AddCommand("", "settings", "Inspect and edit settings", "", &struct{}{})
	CommandRegistry.AddCommand("", "folders", "Inspect and edit bookmark folders", "", &struct{}{})
	CommandRegistry.AddCommand("", "certs", "Inspect and edit certificate decisions", "", &struct{}{})
	CommandRegistry.AddCommand("", "quickaccess", "Inspect and edit quick-access items", "", &struct{}{})
	CommandRegistry.AddCommand("", "pwa", "Inspect and edit PWA responses", "", &struct{}{})
}
