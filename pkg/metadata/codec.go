package metadata

import (
	"encoding"
	"encoding/base64"
	"fmt"
	"strconv"
	"time"
)

// Codec converts a property value to and from its document text.
type Codec interface {
	Encode(v any) (string, error)
	Decode(s string) (any, error)
}

// Wire type tags.
const (
	WireString   = "string"
	WireBool     = "boolean"
	WireInt      = "int"
	WireLong     = "long"
	WireDouble   = "double"
	WireDateTime = "dateTime"
	WireDuration = "duration"
	WireBinary   = "base64Binary"
)

// WireTypeOf infers the wire tag for v.
func WireTypeOf(v any) string {
	switch v.(type) {
	case bool:
		return WireBool
	case int, int32, int16, int8, uint16, uint8:
		return WireInt
	case int64, uint32, uint64, uint:
		return WireLong
	case float32, float64:
		return WireDouble
	case time.Time:
		return WireDateTime
	case time.Duration:
		return WireDuration
	case []byte:
		return WireBinary
	}
	return WireString
}

// EncodeValue renders v as document text.
func EncodeValue(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case bool:
		return strconv.FormatBool(x), nil
	case int:
		return strconv.Itoa(x), nil
	case int8, int16, int32, int64:
		return fmt.Sprintf("%d", x), nil
	case uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", x), nil
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32), nil
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), nil
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano), nil
	case time.Duration:
		return x.String(), nil
	case []byte:
		return base64.StdEncoding.EncodeToString(x), nil
	case encoding.TextMarshaler:
		b, err := x.MarshalText()
		return string(b), err
	case fmt.Stringer:
		return x.String(), nil
	}
	return "", fmt.Errorf("cannot encode %T", v)
}

// DecodeValue parses document text tagged with wire.
func DecodeValue(wire, s string) (any, error) {
	switch wire {
	case WireString, "":
		return s, nil
	case WireBool:
		return strconv.ParseBool(s)
	case WireInt:
		return strconv.Atoi(s)
	case WireLong:
		return strconv.ParseInt(s, 10, 64)
	case WireDouble:
		return strconv.ParseFloat(s, 64)
	case WireDateTime:
		return time.Parse(time.RFC3339Nano, s)
	case WireDuration:
		return time.ParseDuration(s)
	case WireBinary:
		return base64.StdEncoding.DecodeString(s)
	}
	return nil, fmt.Errorf("unknown wire type %q", wire)
}
