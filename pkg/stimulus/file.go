package stimulus

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Lesliefans0-0/dnnbrain/internal/fsutil"
	dnnerrors "github.com/Lesliefans0-0/dnnbrain/pkg/errors"
)

// File is a stimulus file on disk.
type File struct {
	path   string
	logger *zap.Logger
}

// Option configures a File.
type Option func(*File)

// WithLogger sets the logger used for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(f *File) {
		if l != nil {
			f.logger = l
		}
	}
}

// NewFile returns a handle for the stimulus file at path. Nothing is opened
// until Read or Write is called.
func NewFile(path string, opts ...Option) *File {
	f := &File{path: path, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Path returns the file path.
func (f *File) Path() string { return f.path }

// Read parses the whole file.
func (f *File) Read() (*Description, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, dnnerrors.FromOS(err, f.path, false)
	}

	desc, err := Decode(bytes.NewReader(data))
	if err != nil {
		if de, ok := dnnerrors.AsDnnError(err); ok {
			de.WithContext("path", f.path)
		}
		return nil, err
	}

	f.logger.Debug("read stimulus file",
		zap.String("path", f.path),
		zap.String("type", desc.Type),
		zap.Strings("columns", desc.Data.Names()),
		zap.Int("rows", desc.Data.NumRows()))
	return desc, nil
}

// Write replaces the file with desc. The description is fully validated and
// encoded before the file is touched.
func (f *File) Write(desc *Description) error {
	var buf bytes.Buffer
	if err := Encode(&buf, desc); err != nil {
		if de, ok := dnnerrors.AsDnnError(err); ok {
			de.WithContext("path", f.path)
		}
		return err
	}

	if err := fsutil.WriteFileAtomic(f.path, buf.Bytes(), 0o644); err != nil {
		return dnnerrors.FromOS(err, f.path, true)
	}

	f.logger.Debug("wrote stimulus file",
		zap.String("path", f.path),
		zap.Int("rows", desc.Data.NumRows()),
		zap.Int("bytes", buf.Len()))
	return nil
}

// Read parses the stimulus file at path.
func Read(path string) (*Description, error) {
	return NewFile(path).Read()
}

// Write writes desc to the stimulus file at path.
func Write(path string, desc *Description) error {
	return NewFile(path).Write(desc)
}

// Decode parses a stimulus description from r.
func Decode(r io.Reader) (*Description, error) {
	br := bufio.NewReader(r)
	desc := &Description{}
	seen := make(map[string]bool)
	lineNo := 0

	var names []string
	for {
		line, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, dnnerrors.Wrapf(err, dnnerrors.ErrIOReadFailed, "failed to read stimulus header")
		}
		atEOF := errors.Is(err, io.EOF)
		if line == "" && atEOF {
			return nil, dnnerrors.Newf(dnnerrors.ErrStimMissingData, "no data= line found")
		}
		lineNo++

		text := strings.TrimRight(line, "\r\n")
		if lineNo == 1 {
			text = strings.TrimPrefix(text, "\uFEFF")
		}
		if strings.TrimSpace(text) == "" {
			if atEOF {
				return nil, dnnerrors.Newf(dnnerrors.ErrStimMissingData, "no data= line found")
			}
			continue
		}

		key, value, ok := strings.Cut(text, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, dnnerrors.Newf(dnnerrors.ErrStimMalformedLine, "line %d is not key=value", lineNo).
				WithContext("line", strconv.Itoa(lineNo))
		}

		if key == KeyData {
			names, err = parseNames(value)
			if err != nil {
				return nil, err
			}
			break
		}

		seen[key] = true
		switch key {
		case KeyType:
			desc.Type = value
		case KeyTitle:
			desc.Title = value
		case KeyPath:
			desc.Path = value
		default:
			desc.Meta = append(desc.Meta, MetaField{Key: key, Value: value})
		}
		if atEOF {
			return nil, dnnerrors.Newf(dnnerrors.ErrStimMissingData, "no data= line found")
		}
	}

	for _, key := range []string{KeyType, KeyTitle, KeyPath} {
		if !seen[key] {
			return nil, dnnerrors.StimMissingHeader(key)
		}
	}

	rows, err := readRows(br, len(names), lineNo)
	if err != nil {
		return nil, err
	}

	for i, name := range names {
		values := make([]string, len(rows))
		for r, row := range rows {
			values[r] = row[i]
		}
		desc.Data.Columns = append(desc.Data.Columns, buildColumn(name, values))
	}
	return desc, nil
}

func parseNames(value string) ([]string, error) {
	if strings.TrimSpace(value) == "" {
		return nil, dnnerrors.Newf(dnnerrors.ErrStimMissingData, "data= line names no columns")
	}
	cr := csv.NewReader(strings.NewReader(value))
	names, err := cr.Read()
	if err != nil {
		return nil, dnnerrors.Wrapf(err, dnnerrors.ErrStimMalformedLine, "cannot parse column names")
	}
	seen := make(map[string]bool, len(names))
	for i, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			return nil, dnnerrors.Newf(dnnerrors.ErrStimMalformedLine, "column %d has an empty name", i+1)
		}
		if seen[n] {
			return nil, dnnerrors.Newf(dnnerrors.ErrStimDuplicateColumn, "duplicate column %q", n).
				WithContext("column", n)
		}
		seen[n] = true
		names[i] = n
	}
	return names, nil
}

// readRows reads the table body. offset is the file line number of the
// data= line, used to report errors against file lines.
func readRows(r io.Reader, width, offset int) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	var rows [][]string
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, dnnerrors.Wrapf(err, dnnerrors.ErrStimMalformedLine, "cannot parse table row")
		}
		if len(record) != width {
			line, _ := cr.FieldPos(0)
			return nil, dnnerrors.StimRaggedTable("row "+strconv.Itoa(len(rows)+1), len(record), width).
				WithContext("line", strconv.Itoa(offset+line))
		}
		rows = append(rows, record)
	}
}

// buildColumn makes a numeric column when every value parses as a float,
// except for the stimulus ID column, which is always text.
func buildColumn(name string, values []string) Column {
	if name != IDColumn {
		floats := make([]float64, len(values))
		numeric := true
		for i, v := range values {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				numeric = false
				break
			}
			floats[i] = f
		}
		if numeric {
			return Column{Name: name, Kind: KindFloat, Floats: floats}
		}
	}
	return Column{Name: name, Kind: KindText, Text: values}
}

// Encode writes desc to w in stimulus file layout.
func Encode(w io.Writer, desc *Description) error {
	if desc == nil {
		return dnnerrors.Newf(dnnerrors.ErrStimMissingHeader, "nil stimulus description")
	}
	if err := validateHeader(desc); err != nil {
		return err
	}
	if err := desc.Data.Validate(); err != nil {
		return err
	}
	if len(desc.Data.Columns) == 0 {
		return dnnerrors.Newf(dnnerrors.ErrStimMissingData, "stimulus table has no columns")
	}

	bw := bufio.NewWriter(w)
	bw.WriteString(KeyType + "=" + desc.Type + "\n")
	bw.WriteString(KeyPath + "=" + desc.Path + "\n")
	bw.WriteString(KeyTitle + "=" + desc.Title + "\n")
	for _, m := range desc.Meta {
		bw.WriteString(m.Key + "=" + m.Value + "\n")
	}
	bw.WriteString(KeyData + "=")

	cw := csv.NewWriter(bw)
	if err := cw.Write(desc.Data.Names()); err != nil {
		return dnnerrors.Wrapf(err, dnnerrors.ErrIOWriteFailed, "failed to write column names")
	}
	row := make([]string, len(desc.Data.Columns))
	for r := 0; r < desc.Data.NumRows(); r++ {
		for i, c := range desc.Data.Columns {
			if c.Kind == KindFloat {
				row[i] = strconv.FormatFloat(c.Floats[r], 'g', -1, 64)
			} else {
				row[i] = c.Text[r]
			}
		}
		if err := writeRecord(cw, bw, row); err != nil {
			return dnnerrors.Wrapf(err, dnnerrors.ErrIOWriteFailed, "failed to write row %d", r+1)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return dnnerrors.Wrapf(err, dnnerrors.ErrIOWriteFailed, "failed to flush stimulus table")
	}
	if err := bw.Flush(); err != nil {
		return dnnerrors.Wrapf(err, dnnerrors.ErrIOWriteFailed, "failed to flush stimulus file")
	}
	return nil
}

// writeRecord writes one table row. A lone empty field is quoted: csv.Writer
// would emit a blank line, which readers skip.
func writeRecord(cw *csv.Writer, bw *bufio.Writer, row []string) error {
	if len(row) != 1 || row[0] != "" {
		return cw.Write(row)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	_, err := bw.WriteString("\"\"\n")
	return err
}

func validateHeader(desc *Description) error {
	fields := []MetaField{
		{Key: KeyType, Value: desc.Type},
		{Key: KeyTitle, Value: desc.Title},
		{Key: KeyPath, Value: desc.Path},
	}
	for _, m := range desc.Meta {
		switch m.Key {
		case KeyType, KeyTitle, KeyPath, KeyData:
			return dnnerrors.Newf(dnnerrors.ErrStimMalformedLine, "meta key %q is reserved", m.Key).
				WithContext("key", m.Key)
		}
		if strings.TrimSpace(m.Key) == "" || strings.ContainsAny(m.Key, "=\r\n") {
			return dnnerrors.Newf(dnnerrors.ErrStimMalformedLine, "invalid meta key %q", m.Key).
				WithContext("key", m.Key)
		}
		fields = append(fields, m)
	}
	for _, f := range fields {
		if strings.ContainsAny(f.Value, "\r\n") {
			return dnnerrors.Newf(dnnerrors.ErrStimMalformedLine, "header %q contains a line break", f.Key).
				WithContext("key", f.Key)
		}
	}
	return nil
}
