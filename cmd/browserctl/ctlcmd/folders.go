package ctlcmd

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"
)

type cmdFoldersList struct{}

func (cmd *cmdFoldersList) Execute([]string) error {
	var svc = startup()
	defer svc.Close()

	var folders, err = svc.Folders.List()
	if err != nil {
		return err
	}
	var rows [][]string
	for _, f := range folders {
		rows = append(rows, []string{strconv.FormatInt(f.ID, 10), f.Name, strconv.Itoa(f.Count)})
	}
	return writeTable([]string{"ID", "Name", "Count"}, rows)
}

type cmdFoldersAdd struct {
	Name string `long:"name" required:"true" description:"Folder name"`
}

func (cmd *cmdFoldersAdd) Execute([]string) error {
	var svc = startup()
	defer svc.Close()

	var id, err = svc.Folders.Add(cmd.Name)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(Stdout, id)
	return err
}

type cmdFoldersRename struct {
	ID   int64  `long:"id" required:"true" description:"Folder ID"`
	Name string `long:"name" required:"true" description:"New folder name"`
}

func (cmd *cmdFoldersRename) Execute([]string) error {
	var svc = startup()
	defer svc.Close()

	if f, err := svc.Folders.Get(cmd.ID); err != nil {
		return err
	} else if f == nil {
		return errors.Errorf("folder %d not found", cmd.ID)
	}
	return svc.Folders.Rename(cmd.ID, cmd.Name)
}

type cmdFoldersDelete struct {
	ID  int64 `long:"id" description:"Folder ID"`
	All bool  `long:"all" description:"Delete every user folder and reset counts"`
}

func (cmd *cmdFoldersDelete) Execute([]string) error {
	if (cmd.ID == 0) == !cmd.All {
		return errors.New("expected exactly one of --id or --all")
	}
	var svc = startup()
	defer svc.Close()

	if cmd.All {
		return svc.Folders.DeleteAll()
	}
	return svc.Folders.Delete(cmd.ID)
}

func init() {
	CommandRegistry.AddCommand("folders", "list", "List bookmark folders", `
List bookmark folders with their bookmark counts. The "All" folder counts
every bookmark.
`, &cmdFoldersList{})

	CommandRegistry.AddCommand("folders", "add", "Add a bookmark folder", `
Add a folder and print its ID. Adding an existing name replaces that folder.
`, &cmdFoldersAdd{})

	CommandRegistry.AddCommand("folders", "rename", "Rename a bookmark folder", `
Rename a folder. The "All" folder cannot be renamed.
`, &cmdFoldersRename{})

	CommandRegistry.AddCommand("folders", "delete", "Delete bookmark folders", `
Delete the folder of --id, or every user folder with --all. The "All" and
special folders are retained.
`, &cmdFoldersDelete{})
}
