package aggregate

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/samber/lo"
)

// Number is the value type of an ordered JSON object.
type Number interface {
	~int64 | ~float64
}

type Entry[V Number] struct {
	Key   string
	Value V
}

// Entries marshals as a JSON object whose keys keep slice order.
type Entries[V Number] []Entry[V]

func (e Entries[V]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if err := writeEntries(&buf, e, false); err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Sum adds every value.
func (e Entries[V]) Sum() V {
	return lo.SumBy(e, func(entry Entry[V]) V { return entry.Value })
}

// Get returns the value stored under key.
func (e Entries[V]) Get(key string) (V, bool) {
	entry, ok := lo.Find(e, func(entry Entry[V]) bool { return entry.Key == key })
	return entry.Value, ok
}

func writeEntries[V Number](buf *bytes.Buffer, entries Entries[V], leadingComma bool) error {
	for i, entry := range entries {
		if i > 0 || leadingComma {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(entry.Key)
		if err != nil {
			return err
		}
		value, err := json.Marshal(entry.Value)
		if err != nil {
			return err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	return nil
}

// DateRow is a pivoted row: a date followed by one value per key.
type DateRow[V Number] struct {
	Date   string
	Values Entries[V]
}

func (r DateRow[V]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	date, err := json.Marshal(r.Date)
	if err != nil {
		return nil, err
	}
	buf.WriteString(`{"date":`)
	buf.Write(date)
	if err := writeEntries(&buf, r.Values, true); err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// TopN is the top-with-overflow summary, largest first.
type TopN = Entries[int64]

// TopNWithOthers sums value per key over rows and keeps keys whose total is at
// least threshold, largest first with equal totals ordered by key. The totals of
// the remaining keys are merged into a single entry named othersLabel, present
// only when at least one key fell below the threshold.
func TopNWithOthers[R any](rows []R, key func(R) string, value func(R) int64, threshold int64, othersLabel string) TopN {
	totals := map[string]int64{}
	for _, row := range rows {
		totals[key(row)] += value(row)
	}

	ranked := make(TopN, 0, len(totals))
	for k, v := range totals {
		ranked = append(ranked, Entry[int64]{Key: k, Value: v})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Value != ranked[j].Value {
			return ranked[i].Value > ranked[j].Value
		}
		return ranked[i].Key < ranked[j].Key
	})

	kept, small := lo.FilterReject(ranked, func(e Entry[int64], _ int) bool {
		return e.Value >= threshold
	})
	if len(small) == 0 {
		return kept
	}

	others := Entries[int64](small).Sum()
	for i := range kept {
		if kept[i].Key == othersLabel {
			kept[i].Value += others
			return kept
		}
	}
	return append(kept, Entry[int64]{Key: othersLabel, Value: others})
}

// FilterByKeys keeps rows whose key is in keys. An empty keys slice keeps everything.
func FilterByKeys[R any](rows []R, key func(R) string, keys []string) []R {
	if len(keys) == 0 {
		return rows
	}
	allowed := lo.SliceToMap(keys, func(k string) (string, struct{}) { return k, struct{}{} })
	return lo.Filter(rows, func(row R, _ int) bool {
		_, ok := allowed[key(row)]
		return ok
	})
}

// AvailableKeys returns the distinct non-empty keys in rows, sorted ascending.
func AvailableKeys[R any](rows []R, key func(R) string) []string {
	keys := lo.Uniq(lo.FilterMap(rows, func(row R, _ int) (string, bool) {
		k := key(row)
		return k, k != ""
	}))
	sort.Strings(keys)
	return keys
}
