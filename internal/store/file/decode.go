package file

import (
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
)

var (
	timePtrType  = reflect.TypeOf((*time.Time)(nil))
	floatPtrType = reflect.TypeOf((*float64)(nil))
	stringsType  = reflect.TypeOf([]string(nil))
	boolType     = reflect.TypeOf(false)
)

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// decodeRecord decodes a loosely typed row into out. Malformed timestamps
// and salaries decode as absent instead of failing the row.
func decodeRecord(record map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.DecodeHookFuncType(decodeHook),
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(record)
}

// decodeHook is a single hook on purpose: a hook returning nil cannot be
// chained with mapstructure.ComposeDecodeHookFunc.
func decodeHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	switch to {
	case timePtrType:
		return parseTime(data), nil
	case floatPtrType:
		return parseAmount(data), nil
	case stringsType:
		if s, ok := data.(string); ok {
			return splitList(s), nil
		}
	case boolType:
		if s, ok := data.(string); ok {
			return parseFlag(s), nil
		}
	}
	return data, nil
}

func parseTime(data any) any {
	switch v := data.(type) {
	case time.Time:
		return v.UTC()
	case string:
		v = strings.TrimSpace(v)
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t.UTC()
			}
		}
	}
	return nil
}

func parseAmount(data any) any {
	switch v := data.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		cleaned := strings.Map(func(r rune) rune {
			switch r {
			case ',', '_', ' ', '$', '€', '£':
				return -1
			}
			return r
		}, v)
		if f, err := strconv.ParseFloat(cleaned, 64); err == nil {
			return f
		}
	}
	return nil
}

func splitList(s string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseFlag(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "y", "1", "x":
		return true
	default:
		return false
	}
}

// normalizeKey turns spreadsheet style headers like "Remote Scope" into
// the snake_case keys the structs are tagged with.
func normalizeKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(key)
}

func normalizeRecord(record map[string]any) map[string]any {
	normalized := make(map[string]any, len(record))
	for k, v := range record {
		normalized[normalizeKey(k)] = v
	}
	return normalized
}
