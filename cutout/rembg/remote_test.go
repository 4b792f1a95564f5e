package rembg

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInferServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/models/human-segmentation", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		_ = json.NewEncoder(w).Encode(modelInfoResp{
			Model:      "human-segmentation",
			InputName:  "input.1",
			OutputName: "1959",
			InputDims:  []int64{1, 3, 320, 320},
			OutputDims: []int64{1, 1, 320, 320},
		})
	})
	mux.HandleFunc("/api/models/human-segmentation/infer", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var in tensorPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		// 返回一个 2x2 的常量掩码
		_ = json.NewEncoder(w).Encode(tensorPayload{
			Shape: []int64{1, 1, 2, 2},
			Data:  []float32{0.5, 0.5, 0.5, float32(len(in.Data))},
		})
	})
	return httptest.NewServer(mux)
}

func TestRemoteLoader_Load(t *testing.T) {
	server := newInferServer(t)
	defer server.Close()

	loader := NewRemoteLoader(server.URL + "/")
	sess, err := loader.Load(context.Background(), ModelHuman)
	require.NoError(t, err)

	size, ok := sess.Shape().DeclaredInputSize()
	require.True(t, ok)
	assert.Equal(t, 320, size)
	assert.Equal(t, "input.1", sess.Shape().InputName)

	out, err := sess.Run(context.Background(), &Tensor{Shape: []int64{1, 3, 1, 1}, Data: []float32{0, 0, 0}})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 1, 2, 2}, out.Shape)
	assert.Equal(t, []float32{0.5, 0.5, 0.5, 3}, out.Data)
	assert.NoError(t, sess.Close())
}

func TestRemoteLoader_Unavailable(t *testing.T) {
	server := newInferServer(t)
	defer server.Close()

	tests := []struct {
		name    string
		baseURL string
		model   Model
	}{
		{name: "未配置地址", baseURL: "", model: ModelHuman},
		{name: "模型不存在", baseURL: server.URL, model: ModelGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRemoteLoader(tt.baseURL).Load(context.Background(), tt.model)
			assert.ErrorIs(t, err, ErrModelAssetUnavailable)
		})
	}
}
