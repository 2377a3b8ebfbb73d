package resp

import (
	"fmt"
	"strconv"
)

// EncodeCommand frames args as one RESP request:
// `*<count>\r\n` followed by `$<byteLen>\r\n<payload>\r\n` per argument.
func EncodeCommand(args ...any) []byte {
	return AppendCommand(nil, args)
}

// AppendCommand appends the request frame for args to buf. Lengths are byte
// lengths, so payloads are binary safe.
func AppendCommand(buf []byte, args []any) []byte {
	buf = append(buf, '*')
	buf = strconv.AppendInt(buf, int64(len(args)), 10)
	buf = append(buf, '\r', '\n')
	for _, arg := range args {
		buf = appendBulk(buf, arg)
	}
	return buf
}

func appendBulk(buf []byte, arg any) []byte {
	var payload []byte
	switch v := arg.(type) {
	case []byte:
		payload = v
	case string:
		buf = append(buf, '$')
		buf = strconv.AppendInt(buf, int64(len(v)), 10)
		buf = append(buf, '\r', '\n')
		buf = append(buf, v...)
		return append(buf, '\r', '\n')
	default:
		payload = []byte(formatArg(arg))
	}
	buf = append(buf, '$')
	buf = strconv.AppendInt(buf, int64(len(payload)), 10)
	buf = append(buf, '\r', '\n')
	buf = append(buf, payload...)
	return append(buf, '\r', '\n')
}

// formatArg renders a scalar argument as the bytes Redis expects.
func formatArg(arg any) string {
	switch v := arg.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case bool:
		if v {
			return "1"
		}
		return "0"
	case int:
		return strconv.Itoa(v)
	case int8:
		return strconv.FormatInt(int64(v), 10)
	case int16:
		return strconv.FormatInt(int64(v), 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case uint8:
		return strconv.FormatUint(uint64(v), 10)
	case uint16:
		return strconv.FormatUint(uint64(v), 10)
	case uint32:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// FormatArg is the string form of a single wire argument.
func FormatArg(arg any) string {
	return formatArg(arg)
}
