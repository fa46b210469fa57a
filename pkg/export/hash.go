package export

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/Lesliefans0-0/dnnbrain/pkg/activation"
)

// HashAlgorithm identifies the hashing algorithm used for fingerprints.
const HashAlgorithm = "SHA-256"

// LayerSummary describes one layer in a fingerprint.
type LayerSummary struct {
	Name     string           `json:"name"`
	DType    activation.DType `json:"dtype"`
	Shape    []int            `json:"shape"`
	RawShape []int            `json:"raw_shape"`
}

// Fingerprint is a content hash of an activation collection.
type Fingerprint struct {
	// ID identifies this fingerprint record. It is random per computation and
	// is not part of the content hash.
	ID string `json:"id"`

	// Hash is the hex-encoded SHA-256 over layer names, types, shapes and values.
	Hash string `json:"hash"`

	// Algorithm identifies the hashing algorithm used.
	Algorithm string `json:"algorithm"`

	// ComputedAt is when the hash was computed.
	ComputedAt time.Time `json:"computed_at"`

	// Layers lists what was hashed, in hashing order.
	Layers []LayerSummary `json:"layers"`
}

// FingerprintCollection hashes coll. Layers are visited in sorted name
// order, so the result does not depend on map iteration.
func FingerprintCollection(coll activation.Collection) *Fingerprint {
	h := sha256.New()
	fp := &Fingerprint{ID: uuid.NewString(), Algorithm: HashAlgorithm}

	var buf [8]byte
	writeInt := func(v int) {
		binary.LittleEndian.PutUint64(buf[:], uint64(int64(v)))
		h.Write(buf[:])
	}
	writeInts := func(vs []int) {
		writeInt(len(vs))
		for _, v := range vs {
			writeInt(v)
		}
	}

	for _, name := range coll.Names() {
		layer := coll[name]
		dtype := layer.Data.DType()

		writeInt(len(name))
		h.Write([]byte(name))
		writeInt(len(dtype))
		h.Write([]byte(dtype))
		writeInts(layer.Data.Shape)
		writeInts(layer.RawShape)

		writeInt(layer.Data.Len())
		hashValues(h, layer.Data.Values)

		fp.Layers = append(fp.Layers, LayerSummary{
			Name:     name,
			DType:    dtype,
			Shape:    layer.Data.Shape,
			RawShape: layer.RawShape,
		})
	}

	fp.Hash = hex.EncodeToString(h.Sum(nil))
	fp.ComputedAt = time.Now()
	return fp
}

// hashValues writes each element's bits in its own width, so large int64
// values are not rounded through float64.
func hashValues(w io.Writer, values interface{}) {
	var buf [8]byte
	switch v := values.(type) {
	case []float32:
		for _, x := range v {
			binary.LittleEndian.PutUint32(buf[:4], math.Float32bits(x))
			w.Write(buf[:4])
		}
	case []float64:
		for _, x := range v {
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(x))
			w.Write(buf[:])
		}
	case []int32:
		for _, x := range v {
			binary.LittleEndian.PutUint32(buf[:4], uint32(x))
			w.Write(buf[:4])
		}
	case []int64:
		for _, x := range v {
			binary.LittleEndian.PutUint64(buf[:], uint64(x))
			w.Write(buf[:])
		}
	}
}

// ShortHash returns the first 8 characters of the full hash.
func (fp *Fingerprint) ShortHash() string {
	if len(fp.Hash) >= 8 {
		return fp.Hash[:8]
	}
	return fp.Hash
}

// ToJSON returns the fingerprint as indented JSON.
func (fp *Fingerprint) ToJSON() (string, error) {
	data, err := json.MarshalIndent(fp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal fingerprint: %w", err)
	}
	return string(data), nil
}
