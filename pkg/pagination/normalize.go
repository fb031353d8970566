package pagination

import (
	"bytes"
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// maxUnwrapDepth bounds envelope unwrapping on pathological payloads.
const maxUnwrapDepth = 8

// maxCount keeps coerced integers inside int32 so page math cannot overflow.
const maxCount = math.MaxInt32

type options struct {
	aliases  AliasTable
	page     int
	pageSize int
}

// Option customises Normalize
type Option func(*options)

// WithPage sets the page reported when the payload does not carry a valid one.
func WithPage(page int) Option {
	return func(o *options) {
		if page > 0 {
			o.page = page
		}
	}
}

// WithPageSize sets the page size reported when the payload does not carry a
// valid one, normally the page size the caller last requested.
func WithPageSize(pageSize int) Option {
	return func(o *options) {
		if pageSize > 0 {
			o.pageSize = pageSize
		}
	}
}

// WithAliases replaces the alias table
func WithAliases(aliases AliasTable) Option {
	return func(o *options) {
		o.aliases = aliases
	}
}

// NormalizeJSON decodes data and normalizes it. Undecodable input yields an
// empty page.
func NormalizeJSON(data []byte, opts ...Option) Page {
	return Normalize(json.RawMessage(data), opts...)
}

// Normalize converts an arbitrary response envelope into a Page. It never
// fails: unrecognised shapes degrade to an empty page so that a list view
// always has something to render.
func Normalize(raw any, opts ...Option) (page Page) {
	o := options{
		aliases:  DefaultAliases,
		page:     DefaultPage,
		pageSize: DefaultPageSize,
	}
	for _, opt := range opts {
		opt(&o)
	}

	defer func() {
		if r := recover(); r != nil {
			log.Warn().Interface("panic", r).Msg("pagination: normalize recovered from malformed envelope")
			page = Empty(o.pageSize)
		}
	}()

	payload := unwrap(o.aliases, generic(raw), 0)

	if items, ok := asSlice(payload); ok {
		return fromSlice(items, o)
	}

	record, ok := asRecord(payload)
	if !ok {
		if payload != nil {
			log.Debug().Str("type", typeName(payload)).Msg("pagination: unrecognised envelope, using empty page")
		}
		return Empty(o.pageSize)
	}

	return fromRecord(record, o)
}

func fromSlice(items []any, o options) Page {
	count := len(items)
	totalPages := 0
	if count > 0 {
		totalPages = 1
	}
	return Page{
		Items:      items,
		Page:       DefaultPage,
		PageSize:   o.pageSize,
		TotalPages: totalPages,
		TotalCount: count,
	}
}

func fromRecord(record map[string]any, o options) Page {
	items := []any{}
	if raw, ok := lookup(record, o.aliases.Items); ok {
		if s, ok := asSlice(raw); ok {
			items = s
		}
	}

	page := o.page
	if raw, ok := lookup(record, o.aliases.Page); ok {
		if v, ok := positiveInt(raw); ok {
			page = v
		}
	}

	pageSize := o.pageSize
	if raw, ok := lookup(record, o.aliases.PageSize); ok {
		if v, ok := positiveInt(raw); ok {
			pageSize = v
		}
	}

	totalCount := 0
	if raw, ok := lookup(record, o.aliases.TotalCount); ok {
		if v, ok := nonNegativeInt(raw); ok {
			totalCount = v
		}
	}
	if totalCount == 0 {
		totalCount = len(items)
	}

	totalPages := 0
	if totalCount > 0 {
		totalPages = TotalPagesFor(totalCount, pageSize)
		if raw, ok := lookup(record, o.aliases.TotalPages); ok {
			if v, ok := positiveInt(raw); ok {
				totalPages = v
			}
		}
	}

	return Page{
		Items:      items,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
		TotalCount: totalCount,
	}
}

// unwrap descends through wrapper objects until it reaches a sequence, a
// record with no known wrapper field, or a nested record carrying paging
// metadata. The outermost object is always unwrapped when it has a wrapper
// field, even if it carries paging fields of its own.
func unwrap(aliases AliasTable, v any, depth int) any {
	if depth >= maxUnwrapDepth {
		return v
	}
	record, ok := asRecord(v)
	if !ok {
		return v
	}
	if depth > 0 && aliases.hasPagingMetadata(record) {
		return record
	}
	inner, ok := lookup(record, aliases.Envelope)
	if !ok {
		return record
	}
	return unwrap(aliases, generic(inner), depth+1)
}

// generic turns raw bytes into decoded JSON and leaves everything else alone.
func generic(v any) any {
	switch t := v.(type) {
	case json.RawMessage:
		return decode(t)
	case []byte:
		return decode(t)
	}
	return v
}

func decode(data []byte) any {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		log.Debug().Err(err).Msg("pagination: envelope is not valid JSON")
		return nil
	}
	return out
}

// asSlice accepts any slice or array kind, not only []any, so callers may pass
// typed values such as []map[string]any. Elements are kept as they are.
func asSlice(v any) ([]any, bool) {
	switch t := v.(type) {
	case nil:
		return nil, false
	case []any:
		return t, true
	case []byte, json.RawMessage, string:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if rv.Kind() == reflect.Slice && rv.IsNil() {
		return []any{}, true
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// asRecord accepts string-keyed maps of any value type, and structs through a
// JSON round trip.
func asRecord(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case nil:
		return nil, false
	case map[string]any:
		return t, true
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = iter.Value().Interface()
		}
		return out, true
	case reflect.Struct:
		data, err := json.Marshal(rv.Interface())
		if err != nil {
			return nil, false
		}
		record, ok := decode(data).(map[string]any)
		return record, ok
	}
	return nil, false
}

// positiveInt coerces numbers and numeric strings, truncating fractions.
// Booleans, non-finite values and anything below one are rejected.
func positiveInt(v any) (int, bool) {
	n, ok := integer(v)
	if !ok || n < 1 {
		return 0, false
	}
	return n, true
}

func nonNegativeInt(v any) (int, bool) {
	n, ok := integer(v)
	if !ok || n < 0 {
		return 0, false
	}
	return n, true
}

func integer(v any) (int, bool) {
	f, ok := toFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	f = math.Trunc(f)
	if f > maxCount || f < -maxCount {
		return 0, false
	}
	return int(f), true
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	case bool, nil:
		return 0, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	return reflect.TypeOf(v).String()
}
