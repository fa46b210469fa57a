// Package stimulus reads and writes stimulus description files (*.stim.csv).
//
// A stimulus file is UTF-8 text: scalar header lines of the form key=value,
// a data= line naming the table columns, then one comma-separated row per
// stimulus:
//
//	type=image
//	path=/nfs/s2/dnnbrain_data/test/image/images
//	title=ImageNet images in all 5000 scenes runs of sub-CSI1_ses-01
//	data=stimID,RT
//	n01930112_19568.JPEG,3.6309
//	n03733281_29214.JPEG,4.2031
//
// type, title and path are required. Any other header line is kept in
// Description.Meta in file order.
package stimulus

import (
	dnnerrors "github.com/Lesliefans0-0/dnnbrain/pkg/errors"
)

// Header keys.
const (
	KeyType  = "type"
	KeyTitle = "title"
	KeyPath  = "path"
	KeyData  = "data"
)

// Well-known stimulus types. Other values are accepted as-is.
const (
	TypeImage = "image"
	TypeVideo = "video"
)

// IDColumn is always read as text, whatever its contents look like.
const IDColumn = "stimID"

// Description is the in-memory form of a stimulus file.
type Description struct {
	Type  string
	Title string
	Path  string

	// Meta holds optional header lines beyond type, title and path.
	Meta []MetaField

	Data Table
}

// MetaField is one optional key=value header line.
type MetaField struct {
	Key   string
	Value string
}

// MetaValue returns the value of the optional header key.
func (d *Description) MetaValue(key string) (string, bool) {
	for _, m := range d.Meta {
		if m.Key == key {
			return m.Value, true
		}
	}
	return "", false
}

// ColumnKind tells whether a column holds text or numbers.
type ColumnKind int

const (
	KindText ColumnKind = iota
	KindFloat
)

func (k ColumnKind) String() string {
	if k == KindFloat {
		return "float"
	}
	return "text"
}

// Column is one named table column. Exactly one of Text or Floats is used,
// according to Kind.
type Column struct {
	Name   string
	Kind   ColumnKind
	Text   []string
	Floats []float64
}

// Len returns the number of values in the column.
func (c *Column) Len() int {
	if c.Kind == KindFloat {
		return len(c.Floats)
	}
	return len(c.Text)
}

// Table is an ordered set of named columns aligned by row position.
type Table struct {
	Columns []Column
}

// AddText appends a text column.
func (t *Table) AddText(name string, values ...string) *Table {
	t.Columns = append(t.Columns, Column{Name: name, Kind: KindText, Text: values})
	return t
}

// AddFloat appends a numeric column.
func (t *Table) AddFloat(name string, values ...float64) *Table {
	t.Columns = append(t.Columns, Column{Name: name, Kind: KindFloat, Floats: values})
	return t
}

// Names returns the column names in order.
func (t *Table) Names() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Column returns the named column, or nil.
func (t *Table) Column(name string) *Column {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// Strings returns the values of a text column.
func (t *Table) Strings(name string) ([]string, error) {
	c, err := t.lookup(name, KindText)
	if err != nil {
		return nil, err
	}
	return c.Text, nil
}

// Floats returns the values of a numeric column.
func (t *Table) Floats(name string) ([]float64, error) {
	c, err := t.lookup(name, KindFloat)
	if err != nil {
		return nil, err
	}
	return c.Floats, nil
}

func (t *Table) lookup(name string, kind ColumnKind) (*Column, error) {
	c := t.Column(name)
	if c == nil {
		return nil, dnnerrors.Newf(dnnerrors.ErrStimColumnNotFound, "column %q not found", name).
			WithContext("column", name)
	}
	if c.Kind != kind {
		return nil, dnnerrors.Newf(dnnerrors.ErrStimColumnKind, "column %q is %s, not %s", name, c.Kind, kind).
			WithContext("column", name)
	}
	return c, nil
}

// NumRows returns the number of rows, taken from the first column.
func (t *Table) NumRows() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return t.Columns[0].Len()
}

// Validate checks that column names are non-empty and unique and that all
// columns have the same length.
func (t *Table) Validate() error {
	seen := make(map[string]bool, len(t.Columns))
	rows := t.NumRows()
	for _, c := range t.Columns {
		if c.Name == "" {
			return dnnerrors.Newf(dnnerrors.ErrStimMalformedLine, "empty column name")
		}
		if seen[c.Name] {
			return dnnerrors.Newf(dnnerrors.ErrStimDuplicateColumn, "duplicate column %q", c.Name).
				WithContext("column", c.Name)
		}
		seen[c.Name] = true
		if c.Len() != rows {
			return dnnerrors.StimRaggedTable("column "+c.Name, c.Len(), rows).
				WithContext("column", c.Name)
		}
	}
	return nil
}
