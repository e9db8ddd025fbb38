package metrics

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/vmihailenco/msgpack/v5"
)

// Snapshot is a point-in-time view of a registry. Values of different
// metrics are read independently and may be slightly skewed.
type Snapshot struct {
	Gauges     map[string]any         `json:"gauges" msgpack:"gauges"`
	Meters     Ordered[MeterStats]     `json:"meters" msgpack:"meters"`
	Histograms Ordered[HistogramStats] `json:"histograms" msgpack:"histograms"`
}

// Entry is a named metric value.
type Entry[T any] struct {
	Name  string
	Value T
}

// Ordered is a name to value mapping that keeps its order when encoded.
type Ordered[T any] []Entry[T]

// Get returns the value stored under name.
func (o Ordered[T]) Get(name string) (T, bool) {
	for _, e := range o {
		if e.Name == name {
			return e.Value, true
		}
	}
	var zero T
	return zero, false
}

// Names returns the names in order.
func (o Ordered[T]) Names() []string {
	names := make([]string, len(o))
	for i, e := range o {
		names[i] = e.Name
	}
	return names
}

// sortByCount orders entries most active first, ties by name.
func (o Ordered[T]) sortByCount(count func(T) int64) {
	sort.SliceStable(o, func(i, j int) bool {
		ci, cj := count(o[i].Value), count(o[j].Value)
		if ci != cj {
			return ci > cj
		}
		return o[i].Name < o[j].Name
	})
}

// MarshalJSON encodes the entries as a JSON object in order.
func (o Ordered[T]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(e.Name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(e.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// EncodeMsgpack encodes the entries as a MessagePack map in order.
func (o Ordered[T]) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeMapLen(len(o)); err != nil {
		return err
	}
	for _, e := range o {
		if err := enc.EncodeString(e.Name); err != nil {
			return err
		}
		if err := enc.Encode(e.Value); err != nil {
			return err
		}
	}
	return nil
}
