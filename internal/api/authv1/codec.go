// Package authv1 is the wire contract of fintrack.auth.v1.AuthService.
//
// Messages are plain structs carried by a JSON codec registered under the
// "json" content subtype; both the server and the client in this package
// select it, so no generated protobuf code is involved.
package authv1

import (
	"github.com/goccy/go-json"
	"google.golang.org/grpc/encoding"
)

const CodecName = "json"

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

func (jsonCodec) Name() string { return CodecName }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
