package transform

// Func embeds parameter into payload and returns the transformed result.
// Implementations must be pure and deterministic: the same inputs always
// produce the same output bytes.
type Func func(payload []byte, parameter string) (result []byte, err error)

// InverseFunc recovers the parameter string a Func embedded into result.
type InverseFunc func(result []byte) (parameter string, err error)
