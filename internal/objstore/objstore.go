// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package objstore opens input files and creates output files that
// may live on the local disk or in Google Cloud Storage.
//
// A path of the form gs://bucket/object names a Cloud Storage object.
// The path "-" names standard input when opened for reading. Any
// other path is a local file.
package objstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

const gcsScheme = "gs://"

// ParseGCS splits a gs://bucket/object path into its bucket and object
// names. ok is false if path is not a Cloud Storage path or either
// name is empty.
func ParseGCS(path string) (bucket, object string, ok bool) {
	if !strings.HasPrefix(path, gcsScheme) {
		return "", "", false
	}
	bucket, object, found := strings.Cut(path[len(gcsScheme):], "/")
	if !found || bucket == "" || object == "" {
		return "", "", false
	}
	return bucket, object, true
}

// A Writer is an output file. Its contents become visible only after
// a successful Close.
type Writer interface {
	io.WriteCloser

	// CloseWithError aborts the write because of err, discarding
	// everything written so far. Any existing file at the same
	// path is left as it was. It returns err, or the cleanup error
	// if err is nil.
	CloseWithError(err error) error
}

// A Store opens and creates files. The zero Store is ready to use.
type Store struct {
	// ClientOptions configure the Cloud Storage client, which is
	// created the first time a gs:// path is used.
	ClientOptions []option.ClientOption

	mu     sync.Mutex
	client *storage.Client
}

func (s *Store) gcsClient(ctx context.Context) (*storage.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		c, err := storage.NewClient(ctx, s.ClientOptions...)
		if err != nil {
			return nil, fmt.Errorf("creating storage client: %w", err)
		}
		s.client = c
	}
	return s.client, nil
}

// Close releases the Cloud Storage client, if one was created.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return nil
	}
	err := s.client.Close()
	s.client = nil
	return err
}

// Open opens path for reading.
func (s *Store) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	if !strings.HasPrefix(path, gcsScheme) {
		return os.Open(path)
	}
	bucket, object, ok := ParseGCS(path)
	if !ok {
		return nil, fmt.Errorf("malformed Cloud Storage path %q", path)
	}
	c, err := s.gcsClient(ctx)
	if err != nil {
		return nil, err
	}
	r, err := c.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// Create creates path for writing, replacing any existing file when
// the returned Writer is closed. contentType is recorded as the
// object's content type on Cloud Storage and ignored for local files.
func (s *Store) Create(ctx context.Context, path, contentType string) (Writer, error) {
	if path == "-" {
		return nil, errors.New("cannot create standard input")
	}
	if !strings.HasPrefix(path, gcsScheme) {
		w, err := createLocal(path)
		if err != nil {
			return nil, err
		}
		return w, nil
	}
	bucket, object, ok := ParseGCS(path)
	if !ok {
		return nil, fmt.Errorf("malformed Cloud Storage path %q", path)
	}
	c, err := s.gcsClient(ctx)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	w := c.Bucket(bucket).Object(object).NewWriter(ctx)
	w.ContentType = contentType
	return &gcsWriter{w: w, cancel: cancel, path: path}, nil
}

// gcsWriter uploads an object. Canceling the writer's context before
// Close aborts the upload.
type gcsWriter struct {
	w      *storage.Writer
	cancel context.CancelFunc
	path   string
}

func (g *gcsWriter) Write(p []byte) (int, error) {
	return g.w.Write(p)
}

func (g *gcsWriter) Close() error {
	defer g.cancel()
	if err := g.w.Close(); err != nil {
		return fmt.Errorf("%s: %w", g.path, err)
	}
	return nil
}

func (g *gcsWriter) CloseWithError(err error) error {
	g.cancel()
	// Close reports the cancellation; the object is never created.
	if cerr := g.w.Close(); err == nil && !errors.Is(cerr, context.Canceled) {
		err = cerr
	}
	return err
}

// localWriter writes to a temporary file in the destination directory
// and renames it into place on Close.
type localWriter struct {
	f    *os.File
	path string
}

func createLocal(path string) (*localWriter, error) {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp*")
	if err != nil {
		return nil, err
	}
	return &localWriter{f: f, path: path}, nil
}

func (l *localWriter) Write(p []byte) (int, error) {
	return l.f.Write(p)
}

func (l *localWriter) Close() error {
	tmp := l.f.Name()
	if err := l.f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	// CreateTemp uses mode 0600.
	if err := os.Chmod(tmp, 0644); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, l.path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

func (l *localWriter) CloseWithError(err error) error {
	l.f.Close()
	if rerr := os.Remove(l.f.Name()); err == nil {
		err = rerr
	}
	return err
}
