// Package repository loads the evaluation artifacts and serves read access to them.
package repository

import "github.com/cardiolab/ecgserve/pkg/logger"

// Option applies a configuration option to the FileStore.
type Option func(*FileStore)

// WithDataDir sets the directory containing the three JSON documents.
func WithDataDir(dir string) Option {
	return func(s *FileStore) {
		if dir != "" {
			s.dataDir = dir
		}
	}
}

// WithECGImageDir sets the directory containing the clean ECG renderings.
func WithECGImageDir(dir string) Option {
	return func(s *FileStore) {
		if dir != "" {
			s.ecgImageDir = dir
		}
	}
}

// WithAttributionDir sets the directory containing the attribution maps.
func WithAttributionDir(dir string) Option {
	return func(s *FileStore) {
		if dir != "" {
			s.attributionDir = dir
		}
	}
}

// WithLogger sets a custom logger for the store.
func WithLogger(l logger.Logger) Option {
	return func(s *FileStore) {
		if l != nil {
			s.logger = l
		}
	}
}
