// Package storage stores uploaded images on local disk under per-resource
// directories and validates uploads (image signature, size ceiling) before
// anything is written or deleted.
package storage

import (
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/devkrol/sociogram/internal/guard"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// ImageStore writes uploaded images below root. References returned to
// callers are URL paths under /uploads, matching the statically served
// directory.
type ImageStore struct {
	root    string
	maxSize int64

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewImageStore creates an image store rooted at dir with the given size
// ceiling in bytes.
func NewImageStore(dir string, maxSize int64) *ImageStore {
	return &ImageStore{
		root:    dir,
		maxSize: maxSize,
		locks:   make(map[string]*sync.Mutex),
	}
}

// lock serializes writes to one resource's directory. Concurrent edits to
// different resources stay independent.
func (s *ImageStore) lock(key string) func() {
	s.mu.Lock()
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// Validate checks one upload against the size ceiling and the image
// signature. The declared Content-Type header is not trusted; the leading
// bytes must match a known image format.
func (s *ImageStore) Validate(file *multipart.FileHeader) error {
	if file.Size > s.maxSize {
		return fmt.Errorf("image size not allowed (max %d MiB): %w", s.maxSize/(1<<20), guard.ErrValidation)
	}

	f, err := file.Open()
	if err != nil {
		return err
	}
	defer f.Close()

	detected, err := mimetype.DetectReader(f)
	if err != nil {
		return err
	}
	if !strings.HasPrefix(detected.String(), "image/") {
		return fmt.Errorf("all files must be images: %w", guard.ErrValidation)
	}
	return nil
}

// ValidateAll validates every upload before any is stored, so a violation in
// the middle of a batch never leaves a stored prefix behind.
func (s *ImageStore) ValidateAll(files []*multipart.FileHeader) error {
	for _, file := range files {
		if err := s.Validate(file); err != nil {
			return err
		}
	}
	return nil
}

// SavePostImages validates the batch and stores it under the post's
// directory, returning references in upload order.
func (s *ImageStore) SavePostImages(postID string, files []*multipart.FileHeader) ([]string, error) {
	if err := s.ValidateAll(files); err != nil {
		return nil, err
	}
	unlock := s.lock("post:" + postID)
	defer unlock()
	return s.saveAll(filepath.Join("images", "posts", postID), files)
}

// ReplacePostImages validates the new batch, then clears the post's
// directory and stores the replacements. Validation failure aborts before
// any old file is touched.
func (s *ImageStore) ReplacePostImages(postID string, files []*multipart.FileHeader) ([]string, error) {
	if err := s.ValidateAll(files); err != nil {
		return nil, err
	}
	unlock := s.lock("post:" + postID)
	defer unlock()

	rel := filepath.Join("images", "posts", postID)
	if err := os.RemoveAll(filepath.Join(s.root, rel)); err != nil {
		return nil, err
	}
	return s.saveAll(rel, files)
}

// RemovePostImages deletes the post's image directory recursively
func (s *ImageStore) RemovePostImages(postID string) error {
	unlock := s.lock("post:" + postID)
	defer unlock()
	return os.RemoveAll(filepath.Join(s.root, "images", "posts", postID))
}

// SaveAvatar validates and stores a profile picture, replacing any previous
// one for the user.
func (s *ImageStore) SaveAvatar(userID string, file *multipart.FileHeader) (string, error) {
	if err := s.Validate(file); err != nil {
		return "", err
	}
	unlock := s.lock("avatar:" + userID)
	defer unlock()

	rel := filepath.Join("images", "avatars", userID)
	if err := os.RemoveAll(filepath.Join(s.root, rel)); err != nil {
		return "", err
	}
	refs, err := s.saveAll(rel, []*multipart.FileHeader{file})
	if err != nil {
		return "", err
	}
	return refs[0], nil
}

// RemoveAvatar deletes the user's profile picture directory
func (s *ImageStore) RemoveAvatar(userID string) error {
	unlock := s.lock("avatar:" + userID)
	defer unlock()
	return os.RemoveAll(filepath.Join(s.root, "images", "avatars", userID))
}

// saveAll writes the files into root/rel and returns /uploads references in
// input order. On a write failure the already-written files of this batch
// are removed.
func (s *ImageStore) saveAll(rel string, files []*multipart.FileHeader) ([]string, error) {
	dir := filepath.Join(s.root, rel)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	var refs []string
	var written []string
	for _, file := range files {
		name, err := s.writeOne(dir, file)
		if err != nil {
			for _, w := range written {
				if rmErr := os.Remove(w); rmErr != nil {
					log.Println("Failed to clean up partially stored image", w, ":", rmErr)
				}
			}
			return nil, err
		}
		written = append(written, filepath.Join(dir, name))
		refs = append(refs, "/uploads/"+path.Join(filepath.ToSlash(rel), name))
	}
	return refs, nil
}

func (s *ImageStore) writeOne(dir string, file *multipart.FileHeader) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	detected, err := mimetype.DetectReader(src)
	if err != nil {
		return "", err
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	name := uuid.NewString() + detected.Extension()
	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}
	return name, nil
}
