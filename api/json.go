package api

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Ref is a foreign key that the backend renders as a bare id, a numeric
// string, or the embedded object. It always writes back as a bare id.
type Ref struct {
	ID     int64
	Object json.RawMessage
}

func RefID(id int64) Ref {
	return Ref{ID: id}
}

func (r *Ref) UnmarshalJSON(data []byte) error {
	res := gjson.ParseBytes(data)
	*r = Ref{}
	switch res.Type {
	case gjson.Null:
		return nil
	case gjson.Number:
		r.ID = res.Int()
	case gjson.String:
		value := strings.TrimSpace(res.Str)
		if value == "" {
			return nil
		}
		id, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("reference %q: %w", res.Str, err)
		}
		r.ID = id
	case gjson.JSON:
		if !res.IsObject() {
			return fmt.Errorf("unsupported reference: %s", res.Raw)
		}
		r.ID = res.Get("id").Int()
		r.Object = append(json.RawMessage(nil), data...)
	default:
		return fmt.Errorf("unsupported reference: %s", res.Raw)
	}
	return nil
}

func (r Ref) MarshalJSON() ([]byte, error) {
	if r.ID == 0 {
		return []byte("null"), nil
	}
	return strconv.AppendInt(nil, r.ID, 10), nil
}

func (r Ref) Valid() bool {
	return r.ID != 0
}

func (r Ref) Embedded() bool {
	return len(r.Object) > 0
}

// Decode unmarshals the embedded object, if the backend sent one.
func (r Ref) Decode(dest any) (bool, error) {
	if !r.Embedded() {
		return false, nil
	}
	if err := json.Unmarshal(r.Object, dest); err != nil {
		return false, err
	}
	return true, nil
}

// Text is a display value the backend sends as a string, a number, or an
// object with a name.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	res := gjson.ParseBytes(data)
	switch {
	case res.Type == gjson.Null:
		*t = ""
	case res.IsObject():
		for _, key := range []string{"name", "title", "id"} {
			if v := res.Get(key); v.Exists() {
				*t = Text(v.String())
				return nil
			}
		}
		*t = ""
	case res.IsArray():
		return fmt.Errorf("unsupported text value: %s", res.Raw)
	default:
		*t = Text(res.String())
	}
	return nil
}

func (t Text) String() string {
	return string(t)
}

// normalizeList turns the three collection shapes the backend uses into a
// JSON array.
func normalizeList(body []byte) (string, error) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return "[]", nil
	}
	if !gjson.Valid(trimmed) {
		return "", fmt.Errorf("invalid JSON response")
	}
	res := gjson.Parse(trimmed)
	switch {
	case res.IsArray():
		return res.Raw, nil
	case res.IsObject():
		if results := res.Get("results"); results.IsArray() {
			return results.Raw, nil
		}
		return "[" + res.Raw + "]", nil
	case res.Type == gjson.Null:
		return "[]", nil
	}
	return "", fmt.Errorf("unexpected response shape: %s", res.Type)
}

// overlay encodes v on top of the object it was decoded from, so backend
// fields without a struct field survive a whole-section write.
func overlay(raw json.RawMessage, v any) ([]byte, error) {
	typed, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return typed, nil
	}
	var base map[string]json.RawMessage
	if err := json.Unmarshal(raw, &base); err != nil || base == nil {
		return typed, nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(typed, &fields); err != nil {
		return nil, err
	}
	for k, v := range fields {
		base[k] = v
	}
	return json.Marshal(base)
}

// Object is one encoded line item, ready for key-level sanitizing.
type Object map[string]json.RawMessage

// EncodeObject encodes v and drops the named keys.
func EncodeObject(v any, drop ...string) (Object, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var obj Object
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, err
	}
	for _, key := range drop {
		delete(obj, key)
	}
	return obj, nil
}

// Int reads a numeric key; missing or non-numeric keys read as zero.
func (o Object) Int(key string) int64 {
	raw, ok := o[key]
	if !ok {
		return 0
	}
	return gjson.ParseBytes(raw).Int()
}
