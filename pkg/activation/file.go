package activation

import (
	"os"

	"go.uber.org/zap"
	"gonum.org/v1/hdf5"

	"github.com/Lesliefans0-0/dnnbrain/internal/fsutil"
	dnnerrors "github.com/Lesliefans0-0/dnnbrain/pkg/errors"
)

// File is an activation file on disk.
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

// NewFile returns a handle for the activation file at path. Nothing is
// opened until Read, ReadLayers or Write is called.
func NewFile(path string, opts ...Option) *File {
	f := &File{path: path, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Path returns the file path.
func (f *File) Path() string { return f.path }

// Read loads every top-level dataset with its raw shape.
func (f *File) Read() (Collection, error) {
	return f.read(nil)
}

// ReadLayers loads only the named layers.
func (f *File) ReadLayers(names ...string) (Collection, error) {
	if names == nil {
		names = []string{}
	}
	return f.read(names)
}

// read loads the layers in want, or all datasets when want is nil.
func (f *File) read(want []string) (Collection, error) {
	if _, err := os.Stat(f.path); err != nil {
		return nil, dnnerrors.FromOS(err, f.path, false)
	}

	h5, err := hdf5.OpenFile(f.path, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, dnnerrors.ActStorage(err, "open", f.path)
	}
	defer h5.Close()

	available, err := datasetNames(h5)
	if err != nil {
		return nil, dnnerrors.ActStorage(err, "list", f.path)
	}

	names := available
	if want != nil {
		present := make(map[string]bool, len(available))
		for _, n := range available {
			present[n] = true
		}
		for _, n := range want {
			if !present[n] {
				return nil, dnnerrors.ActLayerNotFound(n).WithContext("path", f.path)
			}
		}
		names = want
	}

	coll := make(Collection, len(names))
	for _, name := range names {
		layer, err := readLayer(h5, name)
		if err != nil {
			if de, ok := dnnerrors.AsDnnError(err); ok {
				de.WithContext("path", f.path)
			}
			return nil, err
		}
		coll[name] = layer
	}

	f.logger.Debug("read activation file",
		zap.String("path", f.path),
		zap.Strings("layers", coll.Names()))
	return coll, nil
}

// datasetNames lists the top-level datasets, skipping groups and other objects.
func datasetNames(h5 *hdf5.File) ([]string, error) {
	n, err := h5.NumObjects()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, n)
	for i := uint(0); i < n; i++ {
		typ, err := h5.ObjectTypeByIndex(i)
		if err != nil {
			return nil, err
		}
		if typ != hdf5.H5G_DATASET {
			continue
		}
		name, err := h5.ObjectNameByIndex(i)
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}

func readLayer(h5 *hdf5.File, name string) (Layer, error) {
	dset, err := h5.OpenDataset(name)
	if err != nil {
		return Layer{}, dnnerrors.ActStorage(err, "open dataset "+name, "")
	}
	defer dset.Close()

	space := dset.Space()
	defer space.Close()
	dims, _, err := space.SimpleExtentDims()
	if err != nil {
		return Layer{}, dnnerrors.ActStorage(err, "read shape of "+name, "")
	}
	shape := make([]int, len(dims))
	for i, d := range dims {
		shape[i] = int(d)
	}
	count := space.SimpleExtentNPoints()

	dtype, err := dset.Datatype()
	if err != nil {
		return Layer{}, dnnerrors.ActStorage(err, "read type of "+name, "")
	}
	defer dtype.Close()

	values, err := readValues(dset, dtype, count)
	if err != nil {
		if _, ok := dnnerrors.AsDnnError(err); ok {
			return Layer{}, err
		}
		return Layer{}, dnnerrors.ActStorage(err, "read dataset "+name, "")
	}
	if values == nil {
		return Layer{}, dnnerrors.Newf(dnnerrors.ErrActUnsupportedDType,
			"layer %q: unsupported stored type (class %d, %d bytes)", name, dtype.Class(), dtype.Size()).
			WithContext("layer", name)
	}

	rawShape, err := readRawShape(dset, name)
	if err != nil {
		return Layer{}, err
	}

	return Layer{Data: Array{Shape: shape, Values: values}, RawShape: rawShape}, nil
}

// readValues reads the dataset into a slice matching its stored type.
// Dataset.Read uses the stored type as the memory type, so only stored types
// identical to a native Go element type are accepted. Unsigned and
// non-native byte order types return nil.
func readValues(dset *hdf5.Dataset, dtype *hdf5.Datatype, count int) (interface{}, error) {
	switch {
	case dtype.Equal(hdf5.T_NATIVE_FLOAT):
		return readInto(dset, make([]float32, count))
	case dtype.Equal(hdf5.T_NATIVE_DOUBLE):
		return readInto(dset, make([]float64, count))
	case dtype.Equal(hdf5.T_NATIVE_INT32):
		return readInto(dset, make([]int32, count))
	case dtype.Equal(hdf5.T_NATIVE_INT64):
		return readInto(dset, make([]int64, count))
	default:
		return nil, nil
	}
}

func readInto[T Element](dset *hdf5.Dataset, buf []T) (interface{}, error) {
	if len(buf) == 0 {
		return buf, nil
	}
	if err := dset.Read(&buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func readRawShape(dset *hdf5.Dataset, name string) ([]int, error) {
	attr, err := dset.OpenAttribute(RawShapeAttr)
	if err != nil {
		return nil, dnnerrors.ActMissingRawShape(name, err)
	}
	defer attr.Close()

	space := attr.Space()
	defer space.Close()
	n := space.SimpleExtentNPoints()
	if n <= 0 {
		return nil, dnnerrors.ActMissingRawShape(name, nil)
	}

	raw := make([]int64, n)
	if err := attr.Read(&raw, hdf5.T_NATIVE_INT64); err != nil {
		return nil, dnnerrors.ActStorage(err, "read raw_shape of "+name, "")
	}
	shape := make([]int, n)
	for i, d := range raw {
		shape[i] = int(d)
	}
	return shape, nil
}

// Write replaces the file with coll. All layers are validated before the
// file is created, and the container is built in a temporary file that is
// renamed over the target only when complete.
func (f *File) Write(coll Collection) error {
	if err := coll.Validate(); err != nil {
		if de, ok := dnnerrors.AsDnnError(err); ok {
			de.WithContext("path", f.path)
		}
		return err
	}

	var storageErr error
	err := fsutil.WriteAtomic(f.path, 0o644, func(tmp string) error {
		storageErr = writeContainer(tmp, coll)
		return storageErr
	})
	if err != nil {
		if storageErr != nil {
			if de, ok := dnnerrors.AsDnnError(storageErr); ok {
				de.WithContext("path", f.path)
				return de
			}
			return dnnerrors.ActStorage(storageErr, "write", f.path)
		}
		return dnnerrors.FromOS(err, f.path, true)
	}

	f.logger.Debug("wrote activation file",
		zap.String("path", f.path),
		zap.Strings("layers", coll.Names()))
	return nil
}

func writeContainer(path string, coll Collection) error {
	h5, err := hdf5.CreateFile(path, hdf5.F_ACC_TRUNC)
	if err != nil {
		return err
	}

	for _, name := range coll.Names() {
		if err := writeLayer(h5, name, coll[name]); err != nil {
			_ = h5.Close()
			return err
		}
	}
	return h5.Close()
}

func writeLayer(h5 *hdf5.File, name string, l Layer) error {
	dtype := nativeType(l.Data.DType())
	if dtype == nil {
		return dnnerrors.ActUnsupportedDType(name, l.Data.Values)
	}

	space, err := hdf5.CreateSimpleDataspace(toDims(l.Data.Shape), nil)
	if err != nil {
		return err
	}
	defer space.Close()

	dset, err := h5.CreateDataset(name, dtype, space)
	if err != nil {
		return err
	}
	defer dset.Close()

	if err := writeValues(dset, l.Data.Values); err != nil {
		return err
	}

	rawShape := l.RawShape
	if rawShape == nil {
		rawShape = l.Data.Shape
	}
	raw := make([]int64, len(rawShape))
	for i, d := range rawShape {
		raw[i] = int64(d)
	}

	attrSpace, err := hdf5.CreateSimpleDataspace([]uint{uint(len(raw))}, nil)
	if err != nil {
		return err
	}
	defer attrSpace.Close()

	attr, err := dset.CreateAttribute(RawShapeAttr, hdf5.T_NATIVE_INT64, attrSpace)
	if err != nil {
		return err
	}
	defer attr.Close()

	return attr.Write(&raw, hdf5.T_NATIVE_INT64)
}

func writeValues(dset *hdf5.Dataset, values interface{}) error {
	switch v := values.(type) {
	case []float32:
		return writeFrom(dset, v)
	case []float64:
		return writeFrom(dset, v)
	case []int32:
		return writeFrom(dset, v)
	case []int64:
		return writeFrom(dset, v)
	default:
		return dnnerrors.ActUnsupportedDType("", values)
	}
}

func writeFrom[T Element](dset *hdf5.Dataset, buf []T) error {
	if len(buf) == 0 {
		return nil
	}
	return dset.Write(&buf)
}

// nativeType returns the predefined HDF5 type for dt. Predefined types are
// owned by the library and are never closed.
func nativeType(dt DType) *hdf5.Datatype {
	switch dt {
	case Float32:
		return hdf5.T_NATIVE_FLOAT
	case Float64:
		return hdf5.T_NATIVE_DOUBLE
	case Int32:
		return hdf5.T_NATIVE_INT32
	case Int64:
		return hdf5.T_NATIVE_INT64
	default:
		return nil
	}
}

func toDims(shape []int) []uint {
	dims := make([]uint, len(shape))
	for i, d := range shape {
		dims[i] = uint(d)
	}
	return dims
}

// Read loads every layer of the activation file at path.
func Read(path string) (Collection, error) {
	return NewFile(path).Read()
}

// ReadLayers loads the named layers of the activation file at path.
func ReadLayers(path string, names ...string) (Collection, error) {
	return NewFile(path).ReadLayers(names...)
}

// Write writes coll to the activation file at path.
func Write(path string, coll Collection) error {
	return NewFile(path).Write(coll)
}
