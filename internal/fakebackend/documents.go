package fakebackend

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/spigell/interview-practice/internal/backend"
)

type storedDocument struct {
	meta    backend.Document
	content []byte
}

// store keeps one document collection in memory.
type store struct {
	prefix string

	mu    sync.Mutex
	next  int
	items []storedDocument
}

func seedDocument(id, filename string) storedDocument {
	return storedDocument{
		meta: backend.Document{
			ID:               id,
			Filename:         filename,
			OriginalFilename: filename,
			ContentType:      mime.TypeByExtension(filepath.Ext(filename)),
			UploadedAt:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Format(time.RFC3339),
			Status:           "processed",
		},
		content: []byte("%PDF-1.4 sample " + id),
	}
}

func newStore(prefix string, seeds ...storedDocument) *store {
	return &store{prefix: prefix, next: len(seeds), items: seeds}
}

func (st *store) has(id string) bool {
	_, ok := st.get(id)
	return ok
}

func (st *store) get(id string) (storedDocument, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	for _, d := range st.items {
		if d.meta.ID == id {
			return d, true
		}
	}
	return storedDocument{}, false
}

func (st *store) add(filename, contentType string, content []byte) backend.Document {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.next++
	doc := backend.Document{
		ID:               fmt.Sprintf("%s-%03d", st.prefix, st.next),
		Filename:         filename,
		OriginalFilename: filename,
		ContentType:      contentType,
		UploadedAt:       time.Now().UTC().Format(time.RFC3339),
		Status:           "uploaded",
	}
	st.items = append(st.items, storedDocument{meta: doc, content: content})
	return doc
}

func (st *store) remove(id string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	for i, d := range st.items {
		if d.meta.ID == id {
			st.items = append(st.items[:i], st.items[i+1:]...)
			return true
		}
	}
	return false
}

func (st *store) list() []backend.Document {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]backend.Document, 0, len(st.items))
	for _, d := range st.items {
		out = append(out, d.meta)
	}
	return out
}

func (s *Server) listDocuments(st *store) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"data": st.list()})
	}
}

func (s *Server) uploadDocument(st *store) gin.HandlerFunc {
	return func(c *gin.Context) {
		file, header, err := c.Request.FormFile("file")
		if err != nil {
			abortDetail(c, http.StatusBadRequest, "file is required")
			return
		}
		defer file.Close()

		if err := backend.ValidateUpload(header.Filename); err != nil {
			abortDetail(c, http.StatusBadRequest, "%v", err)
			return
		}

		content, err := io.ReadAll(file)
		if err != nil {
			abortDetail(c, http.StatusBadRequest, "failed to read file")
			return
		}

		contentType := header.Header.Get("Content-Type")
		if contentType == "" {
			contentType = mime.TypeByExtension(filepath.Ext(header.Filename))
		}

		c.JSON(http.StatusOK, st.add(header.Filename, contentType, content))
	}
}

func (s *Server) downloadDocument(st *store) gin.HandlerFunc {
	return func(c *gin.Context) {
		doc, ok := st.get(c.Param("id"))
		if !ok {
			abortDetail(c, http.StatusNotFound, "document %s not found", c.Param("id"))
			return
		}

		disposition := mime.FormatMediaType("attachment", map[string]string{"filename": doc.meta.OriginalFilename})
		c.Header("Content-Disposition", disposition)
		contentType := doc.meta.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		c.Data(http.StatusOK, contentType, doc.content)
	}
}

func (s *Server) deleteDocument(st *store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !st.remove(c.Param("id")) {
			abortDetail(c, http.StatusNotFound, "document %s not found", c.Param("id"))
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": true})
	}
}
