package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

// ServicePrefix is the package prefix of every procedure.
const ServicePrefix = "/walletledger.v1."

// jsonCodec marshals plain Go structs. It replaces connect's built-in
// "json" codec, which only accepts protobuf messages.
type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (jsonCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, msg)
}

// codecOption installs the JSON codec on handlers and clients alike.
func codecOption() connect.Option {
	return connect.WithCodec(jsonCodec{})
}

// procedures collects the unary handlers of one service under its path.
type procedures struct {
	service string
	mux     *http.ServeMux
	opts    []connect.HandlerOption
}

func newProcedures(service string, opts []connect.HandlerOption) *procedures {
	return &procedures{
		service: service,
		mux:     http.NewServeMux(),
		opts:    append([]connect.HandlerOption{codecOption()}, opts...),
	}
}

// path is the mount point of the service, for example "/walletledger.v1.WalletService/".
func (p *procedures) path() string {
	return ServicePrefix + p.service + "/"
}

func handle[Req, Res any](p *procedures, method string, fn func(context.Context, *connect.Request[Req]) (*connect.Response[Res], error)) {
	procedure := p.path() + method
	p.mux.Handle(procedure, connect.NewUnaryHandler(procedure, fn, p.opts...))
}

// rpcClient is shared by the typed service clients.
type rpcClient struct {
	httpClient connect.HTTPClient
	baseURL    string
	opts       []connect.ClientOption
}

func newRPCClient(httpClient connect.HTTPClient, baseURL string, opts []connect.ClientOption) *rpcClient {
	return &rpcClient{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		opts:       append([]connect.ClientOption{codecOption()}, opts...),
	}
}

func callUnary[Req, Res any](ctx context.Context, c *rpcClient, service, method string, req *connect.Request[Req]) (*connect.Response[Res], error) {
	if req == nil {
		return nil, fmt.Errorf("%s/%s: nil request", service, method)
	}
	client := connect.NewClient[Req, Res](c.httpClient, c.baseURL+ServicePrefix+service+"/"+method, c.opts...)
	return client.CallUnary(ctx, req)
}
