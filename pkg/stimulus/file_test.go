package stimulus

import (
	"bytes"
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	dnnerrors "github.com/Lesliefans0-0/dnnbrain/pkg/errors"
)

const fixture = "testdata/sub-CSI1_ses-01_imagenet.stim.csv"

func TestRead_Fixture(t *testing.T) {
	stim, err := Read(fixture)
	require.NoError(t, err)

	assert.Equal(t, TypeImage, stim.Type)
	assert.Equal(t, "ImageNet images in all 5000 scenes runs of sub-CSI1_ses-01", stim.Title)
	assert.Equal(t, "/nfs/s2/dnnbrain_data/test/image/images", stim.Path)
	assert.Empty(t, stim.Meta)

	assert.Equal(t, []string{"stimID", "RT"}, stim.Data.Names())
	assert.Equal(t, 4, stim.Data.NumRows())

	ids, err := stim.Data.Strings("stimID")
	require.NoError(t, err)
	assert.Equal(t, "n01930112_19568.JPEG", ids[0])
	assert.Equal(t, "n03733281_29214.JPEG", ids[1])

	rt, err := stim.Data.Floats("RT")
	require.NoError(t, err)
	assert.Equal(t, 3.6309, rt[0])
	assert.Equal(t, 4.2031, rt[1])
}

func TestRead_MissingHeader(t *testing.T) {
	stim, err := Read("testdata/missing_title.stim.csv")

	assert.Nil(t, stim)
	require.Error(t, err)
	assert.True(t, dnnerrors.IsFormat(err))
	assert.True(t, dnnerrors.IsCode(err, dnnerrors.ErrStimMissingHeader))

	de, _ := dnnerrors.AsDnnError(err)
	assert.Equal(t, "title", de.Context["key"])
	assert.Equal(t, "testdata/missing_title.stim.csv", de.Context["path"])
}

func TestRead_RaggedTable(t *testing.T) {
	stim, err := Read("testdata/ragged.stim.csv")

	assert.Nil(t, stim)
	assert.True(t, dnnerrors.IsCode(err, dnnerrors.ErrStimRaggedTable))

	de, _ := dnnerrors.AsDnnError(err)
	assert.Equal(t, "6", de.Context["line"])
}

func TestRead_NotFound(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "nope.stim.csv"))

	assert.True(t, dnnerrors.IsIO(err))
	assert.True(t, dnnerrors.IsCode(err, dnnerrors.ErrIOFileNotFound))
	assert.True(t, stderrors.Is(err, fs.ErrNotExist))
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantCode string
		check    func(t *testing.T, d *Description)
	}{
		{
			name:     "type missing",
			input:    "title=t\npath=p\ndata=stimID\na\n",
			wantCode: dnnerrors.ErrStimMissingHeader,
		},
		{
			name:     "no data line",
			input:    "type=image\ntitle=t\npath=p\n",
			wantCode: dnnerrors.ErrStimMissingData,
		},
		{
			name:     "empty input",
			input:    "",
			wantCode: dnnerrors.ErrStimMissingData,
		},
		{
			name:     "header without equals",
			input:    "type=image\njust some words\n",
			wantCode: dnnerrors.ErrStimMalformedLine,
		},
		{
			name:     "duplicate column",
			input:    "type=image\ntitle=t\npath=p\ndata=RT,RT\n1,2\n",
			wantCode: dnnerrors.ErrStimDuplicateColumn,
		},
		{
			name:     "row wider than header",
			input:    "type=image\ntitle=t\npath=p\ndata=stimID\na,1\n",
			wantCode: dnnerrors.ErrStimRaggedTable,
		},
		{
			name:  "blank lines, CRLF and BOM are tolerated",
			input: "\uFEFFtype=video\r\n\r\ntitle=clips\r\npath=/v\r\ndata=stimID,onset\r\n\r\nclip1.mp4,0\r\nclip2.mp4,2.5\r\n",
			check: func(t *testing.T, d *Description) {
				assert.Equal(t, TypeVideo, d.Type)
				assert.Equal(t, "clips", d.Title)
				onset, err := d.Data.Floats("onset")
				require.NoError(t, err)
				assert.Equal(t, []float64{0, 2.5}, onset)
			},
		},
		{
			name:  "value keeps everything after the first equals sign",
			input: "type=image\ntitle=a=b\npath=p\ndata=stimID\nx\n",
			check: func(t *testing.T, d *Description) {
				assert.Equal(t, "a=b", d.Title)
			},
		},
		{
			name:  "extra meta lines are kept in order",
			input: "type=image\npath=p\ntitle=t\nhrf_tr=2\nsubject=CSI1\ndata=stimID\nx\n",
			check: func(t *testing.T, d *Description) {
				assert.Equal(t, []MetaField{{"hrf_tr", "2"}, {"subject", "CSI1"}}, d.Meta)
				v, ok := d.MetaValue("subject")
				assert.True(t, ok)
				assert.Equal(t, "CSI1", v)
			},
		},
		{
			name:  "non numeric column stays text",
			input: "type=image\ntitle=t\npath=p\ndata=stimID,label,RT\n001,cat,1\n002,dog,2\n",
			check: func(t *testing.T, d *Description) {
				ids, err := d.Data.Strings("stimID")
				require.NoError(t, err)
				assert.Equal(t, []string{"001", "002"}, ids)
				labels, err := d.Data.Strings("label")
				require.NoError(t, err)
				assert.Equal(t, []string{"cat", "dog"}, labels)
				_, err = d.Data.Strings("RT")
				assert.True(t, dnnerrors.IsCode(err, dnnerrors.ErrStimColumnKind))
			},
		},
		{
			name:  "header only table",
			input: "type=image\ntitle=t\npath=p\ndata=stimID,RT",
			check: func(t *testing.T, d *Description) {
				assert.Equal(t, 0, d.Data.NumRows())
				assert.Equal(t, []string{"stimID", "RT"}, d.Data.Names())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Decode(strings.NewReader(tt.input))
			if tt.wantCode != "" {
				assert.Nil(t, d)
				assert.True(t, dnnerrors.IsCode(err, tt.wantCode), "got %v", err)
				assert.True(t, dnnerrors.IsFormat(err))
				return
			}
			require.NoError(t, err)
			tt.check(t, d)
		})
	}
}

func sampleDescription() *Description {
	d := &Description{
		Type:  TypeImage,
		Title: "ImageNet images in all 5000 scenes runs of sub-CSI1_ses-01",
		Path:  "/nfs/s2/dnnbrain_data/test/image/images",
		Meta:  []MetaField{{Key: "subject", Value: "CSI1"}},
	}
	d.Data.
		AddText("stimID", "n01930112_19568.JPEG", "a,b.JPEG").
		AddFloat("RT", 3.6309, 4.2031).
		AddFloat("onset", 0, 1e-7)
	return d
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	emptyIDs := &Description{Type: TypeImage, Title: "t", Path: "/p"}
	emptyIDs.Data.AddText("stimID", "a.jpg", "", "c.jpg")

	onlyEmpty := &Description{Type: TypeVideo, Title: "t", Path: "/p"}
	onlyEmpty.Data.AddText("stimID", "", "")

	mixed := &Description{Type: TypeImage, Title: "t", Path: "/p"}
	mixed.Data.AddText("stimID", "", "b.jpg").AddText("label", "", "cat")

	tests := []struct {
		name string
		desc *Description
		rows int
	}{
		{"sample", sampleDescription(), 2},
		{"empty value in one-column table", emptyIDs, 3},
		{"all values empty", onlyEmpty, 2},
		{"empty values across columns", mixed, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Encode(&buf, tt.desc))

			got, err := Decode(&buf)
			require.NoError(t, err)
			assert.Equal(t, tt.rows, got.Data.NumRows())
			if diff := cmp.Diff(tt.desc, got); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEncodeDecode_NumericTextBecomesFloat(t *testing.T) {
	d := &Description{Type: TypeImage, Title: "t", Path: "/p"}
	d.Data.AddText("stimID", "1", "2").AddText("label", "3", "NaN")

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, d))
	got, err := Decode(&buf)
	require.NoError(t, err)

	assert.Equal(t, KindText, got.Data.Column("stimID").Kind)
	assert.Equal(t, KindFloat, got.Data.Column("label").Kind)
}

func TestEncode_QuotesLoneEmptyField(t *testing.T) {
	d := &Description{Type: TypeImage, Title: "t", Path: "/p"}
	d.Data.AddText("stimID", "a.jpg", "", "c.jpg")

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, d))
	assert.Equal(t, "type=image\npath=/p\ntitle=t\ndata=stimID\na.jpg\n\"\"\nc.jpg\n", buf.String())
}

func TestEncode_Layout(t *testing.T) {
	d := &Description{Type: TypeImage, Title: "t", Path: "/p"}
	d.Data.AddText("stimID", "a.jpg").AddFloat("RT", 1.5)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, d))
	assert.Equal(t, "type=image\npath=/p\ntitle=t\ndata=stimID,RT\na.jpg,1.5\n", buf.String())
}

func TestEncode_Rejects(t *testing.T) {
	ragged := &Description{Type: TypeImage, Title: "t", Path: "p"}
	ragged.Data.AddText("stimID", "a", "b").AddFloat("RT", 1)

	reserved := &Description{Type: TypeImage, Title: "t", Path: "p", Meta: []MetaField{{Key: "data", Value: "x"}}}
	reserved.Data.AddText("stimID", "a")

	multiline := &Description{Type: TypeImage, Title: "t\nx", Path: "p"}
	multiline.Data.AddText("stimID", "a")

	noColumns := &Description{Type: TypeImage, Title: "t", Path: "p"}

	tests := []struct {
		name string
		desc *Description
		code string
	}{
		{"ragged", ragged, dnnerrors.ErrStimRaggedTable},
		{"reserved meta key", reserved, dnnerrors.ErrStimMalformedLine},
		{"line break in header", multiline, dnnerrors.ErrStimMalformedLine},
		{"no columns", noColumns, dnnerrors.ErrStimMissingData},
		{"nil", nil, dnnerrors.ErrStimMissingHeader},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := Encode(&buf, tt.desc)
			assert.True(t, dnnerrors.IsCode(err, tt.code), "got %v", err)
			assert.Zero(t, buf.Len())
		})
	}
}

func TestWrite_ThenRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.stim.csv")
	want := sampleDescription()

	require.NoError(t, Write(path, want))
	got, err := Read(path)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(want, got))
}

func TestWrite_RaggedLeavesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.stim.csv")
	require.NoError(t, os.WriteFile(path, []byte("keep"), 0o644))

	d := &Description{Type: TypeImage, Title: "t", Path: "p"}
	d.Data.AddText("stimID", "a").AddFloat("RT", 1, 2)

	err := Write(path, d)
	assert.True(t, dnnerrors.IsFormat(err))

	data, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, "keep", string(data))
}

func TestFile_LogsReads(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	f := NewFile(fixture, WithLogger(zap.New(core)))

	_, err := f.Read()
	require.NoError(t, err)

	entries := logs.FilterMessage("read stimulus file").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(4), entries[0].ContextMap()["rows"])
	assert.Equal(t, fixture, f.Path())
}
