package filestore

import (
	"context"
	"io"
	"os"
	"path/filepath"
)

type localConfig struct {
	Dir string `json:"dir"`
}

type localSource struct {
	dir string
}

func init() {
	Register("local", createLocalSource)
}

func createLocalSource(args interface{}) (Source, error) {
	cfg := &localConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	return &localSource{dir: cfg.Dir}, nil
}

func (s *localSource) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	_ = ctx
	path := key
	if s.dir != "" && !filepath.IsAbs(key) {
		path = filepath.Join(s.dir, key)
	}
	return os.Open(path)
}
