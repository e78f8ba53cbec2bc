package ctlcmd

import (
	"fmt"
	"strconv"
)

type cmdPWAList struct{}

func (cmd *cmdPWAList) Execute([]string) error {
	var svc = startup()
	defer svc.Close()

	var entries, err = svc.PWA.List()
	if err != nil {
		return err
	}
	var rows [][]string
	for _, e := range entries {
		rows = append(rows, []string{
			strconv.FormatInt(e.ID, 10),
			e.URL,
			strconv.Itoa(e.Exist),
			strconv.Itoa(e.Never),
		})
	}
	return writeTable([]string{"ID", "URL", "Exist", "Never"}, rows)
}

type cmdPWAAdd struct {
	URL   string `long:"url" required:"true" description:"URL of the web app"`
	Exist int    `long:"exist" description:"Recorded 'already installed' response"`
	Never int    `long:"never" description:"Recorded 'never ask' response"`
}

func (cmd *cmdPWAAdd) Execute([]string) error {
	var svc = startup()
	defer svc.Close()

	return svc.PWA.Add(cmd.URL, cmd.Exist, cmd.Never)
}

type cmdPWACheck struct {
	URL string `long:"url" required:"true" description:"URL of the web app"`
}

func (cmd *cmdPWACheck) Execute([]string) error {
	var svc = startup()
	defer svc.Close()

	var v, err = svc.PWA.Check(cmd.URL)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(Stdout, v)
	return err
}

type cmdPWAClear struct{}

func (cmd *cmdPWAClear) Execute([]string) error {
	var svc = startup()
	defer svc.Close()

	return svc.PWA.DeleteAll()
}

func init() {
	CommandRegistry.AddCommand("pwa", "list", "List PWA responses", "", &cmdPWAList{})
	CommandRegistry.AddCommand("pwa", "add", "Record a PWA response", `
Record the install-prompt response of a web app, replacing any current
response of the URL.
`, &cmdPWAAdd{})
	CommandRegistry.AddCommand("pwa", "check", "Check a PWA response", `
Print the recorded response of a URL: the 'never' value if set, otherwise
the 'exist' value, or 0 if the URL has no response.
`, &cmdPWACheck{})
	CommandRegistry.AddCommand("pwa", "clear", "Delete all PWA responses", "", &cmdPWAClear{})
}
