package util

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadBytes(t *testing.T) {
	t.Parallel()

	payload := []byte("\x89PNG fake")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.png" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	local := filepath.Join(t.TempDir(), "photo.png")
	require.NoError(t, os.WriteFile(local, payload, 0o644))

	tests := []struct {
		name    string
		src     string
		want    []byte
		wantErr bool
	}{
		{name: "本地文件", src: local, want: payload},
		{name: "远程图片", src: server.URL + "/photo.png", want: payload},
		{name: "本地文件不存在", src: filepath.Join(t.TempDir(), "none.png"), wantErr: true},
		{name: "远程404", src: server.URL + "/missing.png", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LoadBytes(context.Background(), tt.src)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsURL(t *testing.T) {
	assert.True(t, IsURL("https://example.com/a.png"))
	assert.True(t, IsURL("http://example.com/a.png"))
	assert.False(t, IsURL("./input/a.png"))
}

func TestBytesMD5(t *testing.T) {
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", BytesMD5(nil))
	assert.Equal(t, "900150983cd24fb0d6963f7d28e17f72", BytesMD5([]byte("abc")))
}

func TestTrace(t *testing.T) {
	done := Trace("unit")
	assert.NotPanics(t, done)
}
