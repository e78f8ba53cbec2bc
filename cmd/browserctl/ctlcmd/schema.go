package ctlcmd

import "go.browserstore.dev/core/sqldb"

type cmdSchema struct{}

func (cmd *cmdSchema) Execute([]string) error {
	var svc = startup()
	defer svc.Close()

	var rows [][]string
	for _, path := range svc.Registry.Paths() {
		var db, err = svc.Registry.Get(path)
		if err != nil {
			return err
		}
		tables, err := tableNames(db)
		if err != nil {
			return err
		}
		for _, table := range tables {
			var cols, err = db.TableColumnNames(table)
			if err != nil {
				return err
			}
			for _, col := range cols {
				rows = append(rows, []string{path, table, col})
			}
		}
	}
	return writeTable([]string{"Database", "Table", "Column"}, rows)
}

// tableNames returns the ordered user tables of |db|.
func tableNames(db *sqldb.Database) ([]string, error) {
	var q = db.Prepare("select name from sqlite_master where type = 'table' and name not like 'sqlite_%' order by name")
	defer q.Close()

	if err := q.Exec(); err != nil {
		return nil, err
	}
	var out []string
	for q.HasNext() {
		out = append(out, q.String(0))
		q.Next()
	}
	return out, nil
}

func init() {
	CommandRegistry.AddCommand("", "schema", "Print the tables of store databases", `
Print the tables and columns of each opened store database.
`, &cmdSchema{})
}
