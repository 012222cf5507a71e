package message

// Small, unexported accessors for pulling typed values out of a decoded
// JSON object (map[string]any), tolerating absent/wrong-typed keys by
// returning the zero value — decode errors for genuinely malformed content
// surface as an UnknownMessageTypeError or DecodeError from the Decode*
// functions, or as a wire.ProtocolError upstream, not as a panic here.

func asString(m map[string]any, key string) string {
	v, _ := m[key].(string)
	return v
}

func asBool(m map[string]any, key string) bool {
	v, _ := m[key].(bool)
	return v
}

func asInt(m map[string]any, key string) int {
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

func asMap(m map[string]any, key string) map[string]any {
	v, _ := m[key].(map[string]any)
	if v == nil {
		v = map[string]any{}
	}
	return v
}

func asObject(m map[string]any, key string) map[string]any {
	v, _ := m[key].(map[string]any)
	return v
}
