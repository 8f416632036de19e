package entities

// Tables offered on the home screen.
const (
	MinTable = 1
	MaxTable = 9
)

// ValidTable reports whether n is one of the tables offered on the home screen.
func ValidTable(n int) bool {
	return n >= MinTable && n <= MaxTable
}

// TableRow is one line of the study view: Table × Multiplier = Product.
type TableRow struct {
	Table      int
	Multiplier int
	Product    int
}

// StudyRows returns the nine rows of a multiplication table.
func StudyRows(table int) []TableRow {
	rows := make([]TableRow, 0, MaxTable)
	for i := 1; i <= MaxTable; i++ {
		rows = append(rows, TableRow{Table: table, Multiplier: i, Product: table * i})
	}
	return rows
}
