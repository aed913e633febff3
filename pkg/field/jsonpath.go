package field

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/jpclipffel/m42pl-core/pkg/event"
	"github.com/jpclipffel/m42pl-core/pkg/perrors"
)

// JSONPath addresses a value by a tidwall/gjson path expression, which may
// match zero, one, or many nodes in the event's data.
type JSONPath struct {
	Expr string
}

func NewJSONPath(expr string) *JSONPath {
	return &JSONPath{Expr: expr}
}

func (j *JSONPath) Read(_ context.Context, ev *event.Event, _ Env) (any, error) {
	raw, err := json.Marshal(ev.Data)
	if err != nil {
		return nil, &perrors.EncodingError{Msg: err.Error()}
	}
	result := gjson.GetBytes(raw, j.Expr)
	if !result.Exists() {
		return absent{}, nil
	}
	if result.IsArray() {
		matches := result.Array()
		if len(matches) == 1 {
			return gjsonValue(matches[0]), nil
		}
		out := make([]any, len(matches))
		for i, m := range matches {
			out[i] = gjsonValue(m)
		}
		return out, nil
	}
	return gjsonValue(result), nil
}

// Write updates every existing match in place. When the expression
// matches nothing, it falls back to a DictPath write over the expression's
// dot-separated segments.
func (j *JSONPath) Write(ev *event.Event, value any) error {
	raw, err := json.Marshal(ev.Data)
	if err != nil {
		return &perrors.EncodingError{Msg: err.Error()}
	}
	if !gjson.GetBytes(raw, j.Expr).Exists() {
		return NewDictPath(strings.Split(j.Expr, ".")).Write(ev, value)
	}
	updated, err := sjson.SetBytes(raw, j.Expr, value)
	if err != nil {
		return &perrors.EncodingError{Msg: err.Error()}
	}
	var data map[string]any
	if err := json.Unmarshal(updated, &data); err != nil {
		return &perrors.DecodingError{Msg: err.Error()}
	}
	ev.Data = data
	return nil
}

func (j *JSONPath) Delete(ev *event.Event) error {
	raw, err := json.Marshal(ev.Data)
	if err != nil {
		return &perrors.EncodingError{Msg: err.Error()}
	}
	updated, err := sjson.DeleteBytes(raw, j.Expr)
	if err != nil {
		return nil
	}
	var data map[string]any
	if err := json.Unmarshal(updated, &data); err != nil {
		return &perrors.DecodingError{Msg: err.Error()}
	}
	ev.Data = data
	return nil
}

func gjsonValue(r gjson.Result) any {
	switch r.Type {
	case gjson.Null:
		return nil
	case gjson.False:
		return false
	case gjson.True:
		return true
	case gjson.Number:
		if r.Num == float64(int64(r.Num)) {
			return int64(r.Num)
		}
		return r.Num
	case gjson.String:
		return r.Str
	case gjson.JSON:
		if r.IsArray() {
			arr := r.Array()
			out := make([]any, len(arr))
			for i, v := range arr {
				out[i] = gjsonValue(v)
			}
			return out
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(r.Raw), &m); err == nil {
			return m
		}
		return r.Value()
	default:
		return r.Value()
	}
}
