package mainboilerplate

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jessevdk/go-flags"
)

// Version and BuildDate are populated at link time.
var (
	Version   = "development"
	BuildDate = "unknown"
)

// ConfigDirs returns the directories searched for an INI file, in order:
//   - The current working directory.
//   - ~/.config/browserstore (under the user's $HOME or %UserProfile% directory).
func ConfigDirs() []string {
	var dirs = []string{"."}
	for _, env := range []string{"HOME", "UserProfile"} {
		if home := os.Getenv(env); home != "" {
			dirs = append(dirs, filepath.Join(home, ".config", "browserstore"))
		}
	}
	return dirs
}

// ParseConfig parses |parser| from the combination of the first INI file
// named |configName| found within |dirs|, configured environment bindings,
// and |args|. Explicit |args| take precedence over the INI file.
func ParseConfig(parser *flags.Parser, configName string, dirs []string, args []string) ([]string, error) {
	// Allow unknown options while parsing an INI file, which may configure
	// commands other than the one being run.
	var origOptions = parser.Options
	parser.Options |= flags.IgnoreUnknown

	var iniParser = flags.NewIniParser(parser)
	for _, dir := range dirs {
		var err = iniParser.ParseFile(filepath.Join(dir, configName))

		if err == nil {
			break
		} else if !os.IsNotExist(err) {
			parser.Options = origOptions
			return nil, err
		}
	}

	parser.Options = origOptions
	return parser.ParseArgs(args)
}

// MustParseConfig requires that ParseConfig of os.Args, over ConfigDirs,
// succeed. Otherwise, it prints usage as appropriate and exits.
func MustParseConfig(parser *flags.Parser, configName string) {
	var _, err = ParseConfig(parser, configName, ConfigDirs(), os.Args[1:])
	exitOnParseError(parser, err)
}

// MustParseArgs requires that Parser be able to ParseArgs without error.
func MustParseArgs(parser *flags.Parser) {
	var _, err = parser.ParseArgs(os.Args[1:])
	exitOnParseError(parser, err)
}

func exitOnParseError(parser *flags.Parser, err error) {
	if err == nil {
		return
	}
	var flagErr, ok = err.(*flags.Error)
	if !ok {
		// Commands return non-flag errors from Execute.
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	switch flagErr.Type {
	case flags.ErrDuplicatedFlag, flags.ErrTag, flags.ErrInvalidTag, flags.ErrShortNameTooLong, flags.ErrMarshal:
		// A defect of the configuration structs, rather than of user input.
		panic(err)

	case flags.ErrCommandRequired, flags.ErrHelp:
		if flagErr.Type == flags.ErrCommandRequired || parser.Options&flags.PrintErrors == 0 {
			os.Stderr.WriteString("\n")
			parser.WriteHelp(os.Stderr)
		}
		fmt.Fprintf(os.Stderr, "\nVersion %s, built at %s.\n", Version, BuildDate)
		os.Exit(1)

	default:
		// go-flags has already printed a description of the input error.
		os.Exit(1)
	}
}

// AddPrintConfigCmd to the Parser. The "print-config" command writes all
// runtime configuration to |w| in INI format, to help users check whether
// they're correctly configured.
func AddPrintConfigCmd(parser *flags.Parser, configName string, w io.Writer) {
	_, _ = parser.AddCommand("print-config", "Print combined configuration and exit", `
print-config parses the combined configuration from `+configName+`, flags,
and environment variables, and then writes the configuration in INI format.
`, &printConfig{Parser: parser, w: w})
}

type printConfig struct {
	*flags.Parser `no-flag:"t"`
	w             io.Writer
}

func (p printConfig) Execute([]string) error {
	var ini = flags.NewIniParser(p.Parser)
	ini.Write(p.w, flags.IniIncludeComments|flags.IniCommentDefaults|flags.IniIncludeDefaults)
	return nil
}
