package ctlcmd

import (
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"go.browserstore.dev/core/blob"
	"go.browserstore.dev/core/stores/quickaccess"
)

type cmdQuickAccessList struct{}

func (cmd *cmdQuickAccessList) Execute([]string) error {
	var svc = startup()
	defer svc.Close()

	var items, err = svc.QuickAccess.List()
	if err != nil {
		return err
	}
	var rows [][]string
	for _, it := range items {
		var favicon = "-"
		if it.HasFavicon && it.Favicon != nil {
			favicon = humanize.Bytes(uint64(it.Favicon.Len())) + " " +
				strconv.Itoa(it.Width) + "x" + strconv.Itoa(it.Height)
		}
		rows = append(rows, []string{
			strconv.FormatInt(it.ID, 10),
			strconv.Itoa(it.Order),
			it.URL,
			it.Title,
			"#" + strconv.FormatInt(int64(uint32(it.Color)), 16),
			favicon,
		})
	}
	return writeTable([]string{"ID", "Order", "URL", "Title", "Color", "Favicon"}, rows)
}

type cmdQuickAccessAdd struct {
	URL     string `long:"url" required:"true" description:"URL of the item"`
	Title   string `long:"title" description:"Title of the item"`
	Color   int    `long:"color" description:"Tile color of the item"`
	Order   int    `long:"order" description:"Display order of the item"`
	Favicon string `long:"favicon" description:"Path of an encoded favicon image"`
	Width   int    `long:"width" description:"Favicon width in pixels"`
	Height  int    `long:"height" description:"Favicon height in pixels"`
}

func (cmd *cmdQuickAccessAdd) Execute([]string) error {
	var item = quickaccess.Item{
		URL:    cmd.URL,
		Title:  cmd.Title,
		Color:  cmd.Color,
		Order:  cmd.Order,
		Width:  cmd.Width,
		Height: cmd.Height,
	}
	if cmd.Favicon != "" {
		var b, err = os.ReadFile(cmd.Favicon)
		if err != nil {
			return errors.WithMessagef(err, "reading favicon %s", cmd.Favicon)
		}
		item.HasFavicon = true
		item.Favicon = blob.New(b)
	}

	var svc = startup()
	defer svc.Close()

	return svc.QuickAccess.Add(item)
}

type cmdQuickAccessDelete struct {
	ID int64 `long:"id" required:"true" description:"Item ID"`
}

func (cmd *cmdQuickAccessDelete) Execute([]string) error {
	var svc = startup()
	defer svc.Close()

	return svc.QuickAccess.Delete(cmd.ID)
}

func init() {
	CommandRegistry.AddCommand("quickaccess", "list", "List quick-access items", `
List quick-access items in display order, with the size and dimensions of
each item's favicon.
`, &cmdQuickAccessList{})

	CommandRegistry.AddCommand("quickaccess", "add", "Add a quick-access item", `
Add a quick-access item, optionally with a favicon read from a file. An
item having the same URL is replaced.

  browserctl quickaccess add --url https://example.com --title Example \
    --favicon icon.png --width 64 --height 64
`, &cmdQuickAccessAdd{})

	CommandRegistry.AddCommand("quickaccess", "delete", "Delete a quick-access item", "", &cmdQuickAccessDelete{})
}
