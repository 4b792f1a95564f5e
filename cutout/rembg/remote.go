package rembg

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	nhttp "github.com/chaos-io/cutout/util/http"
)

const remoteInferTimeout = 2 * time.Minute

// RemoteLoader 把推理交给远端推理服务
//
//	GET  {base}/api/models/{model}        -> modelInfoResp
//	POST {base}/api/models/{model}/infer  -> tensorPayload
type RemoteLoader struct {
	baseURL string
	cli     nhttp.IClient
}

func NewRemoteLoader(baseURL string) *RemoteLoader {
	return NewRemoteLoaderWithClient(baseURL, nhttp.NewHTTPClient())
}

func NewRemoteLoaderWithClient(baseURL string, cli nhttp.IClient) *RemoteLoader {
	return &RemoteLoader{
		baseURL: strings.TrimRight(baseURL, "/"),
		cli:     cli,
	}
}

type modelInfoResp struct {
	Model      string  `json:"model"`
	InputName  string  `json:"input_name"`
	OutputName string  `json:"output_name"`
	InputDims  []int64 `json:"input_dims"`
	OutputDims []int64 `json:"output_dims"`
}

type tensorPayload struct {
	Shape []int64   `json:"shape"`
	Data  []float32 `json:"data"`
}

func (l *RemoteLoader) modelURL(model Model) string {
	return l.baseURL + "/api/models/" + url.PathEscape(model.String())
}

func (l *RemoteLoader) Load(ctx context.Context, model Model) (Session, error) {
	if l.baseURL == "" {
		return nil, fmt.Errorf("%w: remote url not configured", ErrModelAssetUnavailable)
	}

	reqParam := &nhttp.RequestParam{
		RequestURI: l.modelURL(model),
		Method:     http.MethodGet,
		Response:   &modelInfoResp{},
	}
	if err := l.cli.DoHTTPRequest(ctx, reqParam); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelAssetUnavailable, err)
	}

	info := reqParam.Response.(*modelInfoResp)
	return &remoteSession{
		url: l.modelURL(model) + "/infer",
		cli: l.cli,
		shape: ModelShapeInfo{
			InputName:  info.InputName,
			OutputName: info.OutputName,
			InputDims:  info.InputDims,
			OutputDims: info.OutputDims,
		},
	}, nil
}

type remoteSession struct {
	url   string
	cli   nhttp.IClient
	shape ModelShapeInfo
}

func (s *remoteSession) Shape() ModelShapeInfo {
	return s.shape
}

func (s *remoteSession) Run(ctx context.Context, input *Tensor) (*Tensor, error) {
	reqParam := &nhttp.RequestParam{
		RequestURI: s.url,
		Method:     http.MethodPost,
		Body:       &tensorPayload{Shape: input.Shape, Data: input.Data},
		Response:   &tensorPayload{},
		Timeout:    remoteInferTimeout,
	}
	if err := s.cli.DoHTTPRequest(ctx, reqParam); err != nil {
		return nil, fmt.Errorf("remote infer: %w", err)
	}

	out := reqParam.Response.(*tensorPayload)
	if len(out.Data) == 0 {
		return nil, nil
	}
	return &Tensor{Shape: out.Shape, Data: out.Data}, nil
}

func (s *remoteSession) Close() error {
	return nil
}
