package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"rciconnect/internal/models"

	"github.com/google/uuid"
)

const serveFilesPrefix = "/api/v1/uploads/files/"

// UploadStore keeps uploaded files on disk under random stored names and
// hands out HMAC-signed, expiring download URLs.
type UploadStore struct {
	dir    string
	secret []byte
	ttl    time.Duration
}

func NewUploadStore(dir, secret string, ttl time.Duration) (*UploadStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &UploadStore{dir: dir, secret: []byte(secret), ttl: ttl}, nil
}

func (u *UploadStore) Dir() string {
	return u.dir
}

// Remove deletes a stored file; a file already gone is not an error.
func (u *UploadStore) Remove(storedName string) error {
	err := os.Remove(filepath.Join(u.dir, filepath.Base(storedName)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// SaveMultipart writes the uploaded part to disk under a random name that
// keeps the original extension.
func (u *UploadStore) SaveMultipart(hdr *multipart.FileHeader) (*models.ApplicationDocument, error) {
	src, err := hdr.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	ext := strings.ToLower(filepath.Ext(hdr.Filename))
	storedName := uuid.NewString() + ext

	dst, err := os.Create(filepath.Join(u.dir, storedName))
	if err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return nil, fmt.Errorf("write upload: %w", err)
	}

	return &models.ApplicationDocument{
		FileName:   filepath.Base(hdr.Filename),
		StoredName: storedName,
	}, nil
}

// SignedURL returns a relative download URL valid until the store TTL
// elapses.
func (u *UploadStore) SignedURL(storedName string) string {
	expires := time.Now().Add(u.ttl).Unix()
	sig := u.sign(storedName, expires)
	return fmt.Sprintf("%s%s?expires=%d&sig=%s", serveFilesPrefix, storedName, expires, sig)
}

// Verify checks the signature and expiry of a download request.
func (u *UploadStore) Verify(storedName string, expires int64, sig string) bool {
	if time.Now().Unix() > expires {
		return false
	}
	expected := u.sign(storedName, expires)
	return hmac.Equal([]byte(expected), []byte(sig))
}

func (u *UploadStore) sign(storedName string, expires int64) string {
	mac := hmac.New(sha256.New, u.secret)
	fmt.Fprintf(mac, "%s:%d", storedName, expires)
	return hex.EncodeToString(mac.Sum(nil))
}

// handleUpload stores a single file field named "file" and returns its
// stored name plus a signed URL.
func (s *HTTPServer) handleUpload(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		if err := r.ParseMultipartForm(s.maxUploadBytes()); err != nil {
			writeError(w, http.StatusBadRequest, "invalid multipart form")
			return
		}

		_, hdr, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "file is required")
			return
		}
		if hdr.Size > s.maxUploadBytes() {
			writeError(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}

		doc, err := s.uploads.SaveMultipart(hdr)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		writeJSON(w, http.StatusCreated, map[string]string{
			"kind":        kind,
			"file_name":   doc.FileName,
			"stored_name": doc.StoredName,
			"url":         s.uploads.SignedURL(doc.StoredName),
		})
	}
}

// handleServeFile streams a stored file after validating its signed URL.
func (s *HTTPServer) handleServeFile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	storedName := filepath.Base(strings.TrimPrefix(r.URL.Path, serveFilesPrefix))
	if storedName == "" || storedName == "." {
		writeError(w, http.StatusBadRequest, "file name is required")
		return
	}

	expires, err := strconv.ParseInt(r.URL.Query().Get("expires"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid expires")
		return
	}
	sig := r.URL.Query().Get("sig")
	if !s.uploads.Verify(storedName, expires, sig) {
		writeError(w, http.StatusForbidden, "invalid or expired link")
		return
	}

	path := filepath.Join(s.uploads.Dir(), storedName)
	if _, err := os.Stat(path); err != nil {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}
	http.ServeFile(w, r, path)
}
