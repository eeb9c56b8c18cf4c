package schema

import (
	"fmt"
	"strings"
	"time"
)

// Column describes one column in the store schema
type Column struct {
	Name       string `json:"name"`
	DataType   string `json:"data_type"`
	Nullable   bool   `json:"nullable"`
	PrimaryKey bool   `json:"primary_key"`
}

// Table describes one table: its columns, which columns the resolver may
// search against, and whether the pipeline is permitted to mutate it
type Table struct {
	Name       string   `json:"name"`
	Columns    []Column `json:"columns"`
	Searchable []string `json:"searchable,omitempty"`
	Mutable    bool     `json:"mutable"`
}

// UniqueConstraint names a store-enforced uniqueness constraint
type UniqueConstraint struct {
	Table   string   `json:"table"`
	Columns []string `json:"columns"`
}

// Descriptor is the static, queryable description of the store schema.
// Every pipeline stage that reasons about query legality consumes it.
type Descriptor struct {
	Tables  []Table            `json:"tables"`
	Uniques []UniqueConstraint `json:"uniques"`
	// LoadedAt is set when the descriptor was cross-checked against the
	// live store or fetched from cache
	LoadedAt time.Time `json:"loaded_at,omitempty"`
}

// Default returns the MedConnect schema descriptor
func Default() *Descriptor {
	return &Descriptor{
		Tables: []Table{
			{
				Name: "doctors",
				Columns: []Column{
					{Name: "id", DataType: "integer", PrimaryKey: true},
					{Name: "name", DataType: "text"},
					{Name: "specialty", DataType: "text"},
					{Name: "years_of_experience", DataType: "integer"},
					{Name: "consultation_fee", DataType: "integer"},
				},
				Searchable: []string{"name", "specialty"},
				Mutable:    false,
			},
			{
				Name: "booked_appointments",
				Columns: []Column{
					{Name: "id", DataType: "integer", PrimaryKey: true},
					{Name: "patient_name", DataType: "character varying"},
					{Name: "doctor_id", DataType: "integer"},
					{Name: "reason", DataType: "text"},
					{Name: "status", DataType: "character varying"},
					{Name: "created_at", DataType: "timestamp without time zone", Nullable: true},
					{Name: "appointment_time", DataType: "timestamp without time zone"},
				},
				Searchable: []string{"patient_name"},
				Mutable:    true,
			},
		},
		Uniques: []UniqueConstraint{
			{Table: "booked_appointments", Columns: []string{"doctor_id", "appointment_time"}},
		},
	}
}

// Table returns the named table, if declared
func (d *Descriptor) Table(name string) (*Table, bool) {
	for i := range d.Tables {
		if d.Tables[i].Name == name {
			return &d.Tables[i], true
		}
	}
	return nil, false
}

// HasTable reports whether the table is declared
func (d *Descriptor) HasTable(name string) bool {
	_, ok := d.Table(name)
	return ok
}

// HasColumn reports whether the table declares the column
func (d *Descriptor) HasColumn(table, column string) bool {
	t, ok := d.Table(table)
	if !ok {
		return false
	}
	for _, c := range t.Columns {
		if c.Name == column {
			return true
		}
	}
	return false
}

// ColumnNames returns the declared column names of a table
func (d *Descriptor) ColumnNames(table string) []string {
	t, ok := d.Table(table)
	if !ok {
		return nil
	}
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// MutableTables returns the tables a write query may target
func (d *Descriptor) MutableTables() []string {
	var names []string
	for _, t := range d.Tables {
		if t.Mutable {
			names = append(names, t.Name)
		}
	}
	return names
}

// Searchable reports whether the column is declared searchable; the
// resolver refuses lookups against anything else
func (d *Descriptor) Searchable(table, column string) bool {
	t, ok := d.Table(table)
	if !ok {
		return false
	}
	for _, c := range t.Searchable {
		if c == column {
			return true
		}
	}
	return false
}

// DDL renders the descriptor as CREATE TABLE statements for oracle
// prompt context
func (d *Descriptor) DDL() string {
	var sb strings.Builder
	for _, t := range d.Tables {
		sb.WriteString(fmt.Sprintf("CREATE TABLE %s (\n", t.Name))
		for i, c := range t.Columns {
			sb.WriteString(fmt.Sprintf("    %s %s", c.Name, c.DataType))
			if c.PrimaryKey {
				sb.WriteString(" PRIMARY KEY")
			} else if !c.Nullable {
				sb.WriteString(" NOT NULL")
			}
			if i < len(t.Columns)-1 {
				sb.WriteString(",")
			}
			sb.WriteString("\n")
		}
		for _, u := range d.Uniques {
			if u.Table == t.Name {
				sb.WriteString(fmt.Sprintf("    , UNIQUE (%s)\n", strings.Join(u.Columns, ", ")))
			}
		}
		sb.WriteString(");\n\n")
	}
	return strings.TrimRight(sb.String(), "\n") + "\n"
}

// Verify cross-checks the descriptor against introspected tables. It
// fails when a declared table or column is missing from the live store;
// extra store objects are tolerated.
func (d *Descriptor) Verify(live []Table) error {
	byName := make(map[string]Table, len(live))
	for _, t := range live {
		byName[t.Name] = t
	}
	for _, want := range d.Tables {
		got, ok := byName[want.Name]
		if !ok {
			return fmt.Errorf("table %s missing from store", want.Name)
		}
		cols := make(map[string]bool, len(got.Columns))
		for _, c := range got.Columns {
			cols[c.Name] = true
		}
		for _, c := range want.Columns {
			if !cols[c.Name] {
				return fmt.Errorf("column %s.%s missing from store", want.Name, c.Name)
			}
		}
	}
	return nil
}
