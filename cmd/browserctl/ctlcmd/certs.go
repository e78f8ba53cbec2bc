package ctlcmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/pkg/errors"
)

type cmdCertsList struct{}

func (cmd *cmdCertsList) Execute([]string) error {
	var svc = startup()
	defer svc.Close()

	var certs, err = svc.Certificate.List()
	if err != nil {
		return err
	}
	var rows [][]string
	for _, c := range certs {
		rows = append(rows, []string{c.Host, strconv.Itoa(c.Allow)})
	}
	return writeTable([]string{"Host", "Allow"}, rows)
}

type cmdCertsAdd struct {
	Host  string `long:"host" required:"true" description:"Host of the certificate"`
	File  string `long:"file" required:"true" description:"Path of the PEM-encoded certificate"`
	Allow int    `long:"allow" default:"1" description:"Decision recorded for the host"`
}

func (cmd *cmdCertsAdd) Execute([]string) error {
	var pem, err = os.ReadFile(cmd.File)
	if err != nil {
		return errors.WithMessagef(err, "reading certificate %s", cmd.File)
	}
	var svc = startup()
	defer svc.Close()

	var id int64
	if id, err = svc.Certificate.AddOrUpdate(string(pem), cmd.Host, cmd.Allow); err != nil {
		return err
	}
	_, err = fmt.Fprintln(Stdout, id)
	return err
}

type cmdCertsPEM struct {
	Host string `long:"host" required:"true" description:"Host of the certificate"`
}

func (cmd *cmdCertsPEM) Execute([]string) error {
	var svc = startup()
	defer svc.Close()

	var pem, err = svc.Certificate.PEM(cmd.Host)
	if err != nil {
		return err
	} else if pem == "" {
		return errors.Errorf("no certificate of host %q", cmd.Host)
	}
	_, err = fmt.Fprint(Stdout, pem)
	return err
}

type cmdCertsClear struct{}

func (cmd *cmdCertsClear) Execute([]string) error {
	var svc = startup()
	defer svc.Close()

	return svc.Certificate.DeleteAll()
}

func init() {
	CommandRegistry.AddCommand("certs", "list", "List certificate decisions", `
List hosts having a recorded certificate decision.
`, &cmdCertsList{})

	CommandRegistry.AddCommand("certs", "add", "Record a certificate decision", `
Record the decision of a host's certificate, replacing any current decision.

  browserctl certs add --host example.com --file example.pem --allow 1
`, &cmdCertsAdd{})

	CommandRegistry.AddCommand("certs", "pem", "Print a host's certificate", `
Print the PEM-encoded certificate recorded for a host.
`, &cmdCertsPEM{})

	CommandRegistry.AddCommand("certs", "clear", "Delete all certificate decisions", "", &cmdCertsClear{})
}
