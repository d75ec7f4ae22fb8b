package executor

// NativeVersion identifies the runtime compiled into the binary. Native code
// may stand in for an on-chain runtime only when the two are compatible.
type NativeVersion struct {
	SpecName           string `json:"specName"`
	ImplName           string `json:"implName"`
	AuthoringVersion   uint32 `json:"authoringVersion"`
	SpecVersion        uint32 `json:"specVersion"`
	ImplVersion        uint32 `json:"implVersion"`
	TransactionVersion uint32 `json:"transactionVersion"`
}

// CanCallWith reports whether native code may execute calls meant for the
// on-chain runtime described by onchain.
func (v NativeVersion) CanCallWith(onchain NativeVersion) bool {
	return v.SpecName == onchain.SpecName &&
		v.SpecVersion == onchain.SpecVersion &&
		v.AuthoringVersion == onchain.AuthoringVersion
}

// Dispatch is the native execution binding of a runtime.
type Dispatch interface {
	// Dispatch runs method natively. ok is false when the method is unknown.
	Dispatch(method string, payload []byte) (out []byte, ok bool)
	// NativeVersion returns the version of the native runtime.
	NativeVersion() NativeVersion
}

// NativeFunc is one natively compiled runtime entry point.
type NativeFunc func(payload []byte) []byte

// Native is a Dispatch backed by a fixed method table.
type Native struct {
	Version NativeVersion
	Methods map[string]NativeFunc
}

var _ Dispatch = (*Native)(nil)

func (n *Native) Dispatch(method string, payload []byte) ([]byte, bool) {
	fn, ok := n.Methods[method]
	if !ok {
		return nil, false
	}
	return fn(payload), true
}

func (n *Native) NativeVersion() NativeVersion {
	return n.Version
}
