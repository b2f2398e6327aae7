//go:build !cgo

package embedding

import "errors"

// ErrONNXUnavailable is returned when the binary was built without CGO.
var ErrONNXUnavailable = errors.New("ONNX embedder requires CGO; build with CGO_ENABLED=1 and onnxruntime")

func newONNXEmbedder(_ string, _, _, _ int) (Embedder, error) {
	return nil, ErrONNXUnavailable
}
