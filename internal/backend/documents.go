package backend

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
)

// Collection names a document collection on the backend.
type Collection string

const (
	CollectionCV Collection = "cv"
	CollectionJD Collection = "jd"
)

// allowedExtensions lists the upload types the backend accepts.
var allowedExtensions = map[string]bool{
	".pdf":  true,
	".docx": true,
}

func (c Collection) path() (string, error) {
	switch c {
	case CollectionCV:
		return pathCVs, nil
	case CollectionJD:
		return pathJobs, nil
	default:
		return "", fmt.Errorf("unknown collection %q", string(c))
	}
}

// Document is the metadata row the backend keeps for an uploaded file.
type Document struct {
	ID               string `json:"id" mapstructure:"id"`
	Filename         string `json:"filename" mapstructure:"filename"`
	OriginalFilename string `json:"original_filename" mapstructure:"original_filename"`
	ContentType      string `json:"content_type" mapstructure:"content_type"`
	UploadedAt       string `json:"uploaded_at" mapstructure:"uploaded_at"`
	Status           string `json:"status" mapstructure:"status"`
}

// Name returns the most descriptive file name known for the document.
func (d *Document) Name() string {
	if d.OriginalFilename != "" {
		return d.OriginalFilename
	}
	return d.Filename
}

type Documents struct {
	Items []*Document
}

func (d *Documents) Len() int {
	return len(d.Items)
}

func (d *Documents) FindByID(id string) *Document {
	for _, doc := range d.Items {
		if doc.ID == id {
			return doc
		}
	}

	return nil
}

// Labels returns "<id> <name>" entries suitable for a selection prompt.
func (d *Documents) Labels() []string {
	labels := make([]string, 0, len(d.Items))
	for _, doc := range d.Items {
		labels = append(labels, fmt.Sprintf("%s %s", doc.ID, doc.Name()))
	}

	return labels
}

type listResponse struct {
	Data []any `json:"data"`
}

// ListDocuments returns every document in the collection.
func (c *Client) ListDocuments(ctx context.Context, collection Collection) (*Documents, error) {
	op := fmt.Sprintf("list %s", collection)

	p, err := collection.path()
	if err != nil {
		return nil, validationError(op, err.Error())
	}

	var resp listResponse
	if err := c.doJSON(ctx, op, http.MethodGet, c.documentURL(p), nil, nil, &resp); err != nil {
		return nil, err
	}

	var docs []*Document
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &docs,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, &Error{Op: op, Kind: KindDecode, Err: err}
	}
	if err := decoder.Decode(resp.Data); err != nil {
		return nil, &Error{Op: op, Kind: KindDecode, Err: err}
	}

	c.logger.Debug("listed documents", zap.String("collection", string(collection)), zap.Int("count", len(docs)))

	return &Documents{Items: docs}, nil
}

// ValidateUpload rejects file types the backend does not accept.
func ValidateUpload(filename string) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return fmt.Errorf("unsupported file type %q: only .pdf and .docx are accepted", ext)
	}
	return nil
}

// UploadDocument uploads content as filename into the collection.
func (c *Client) UploadDocument(ctx context.Context, collection Collection, filename string, content io.Reader) (*Document, error) {
	op := fmt.Sprintf("upload %s", collection)

	p, err := collection.path()
	if err != nil {
		return nil, validationError(op, err.Error())
	}

	if err := ValidateUpload(filename); err != nil {
		return nil, validationError(op, err.Error())
	}

	var doc Document
	if err := c.postMultipart(ctx, op, c.documentURL(p), multipartField, filepath.Base(filename), content, &doc); err != nil {
		return nil, err
	}

	return &doc, nil
}

// DeleteDocument removes a document and its metadata.
func (c *Client) DeleteDocument(ctx context.Context, collection Collection, id string) error {
	op := fmt.Sprintf("delete %s", collection)

	p, err := collection.path()
	if err != nil {
		return validationError(op, err.Error())
	}
	if strings.TrimSpace(id) == "" {
		return validationError(op, "document id is required")
	}

	return c.doJSON(ctx, op, http.MethodDelete, c.documentURL(p+"/"+url.PathEscape(id)), nil, nil, nil)
}

// DownloadDocument streams the stored file into w and returns the file name
// announced by the backend.
func (c *Client) DownloadDocument(ctx context.Context, collection Collection, id string, w io.Writer) (string, error) {
	op := fmt.Sprintf("download %s", collection)

	p, err := collection.path()
	if err != nil {
		return "", validationError(op, err.Error())
	}
	if strings.TrimSpace(id) == "" {
		return "", validationError(op, "document id is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.documentURL(p+"/"+url.PathEscape(id)), nil)
	if err != nil {
		return "", &Error{Op: op, Kind: KindValidation, Err: err}
	}
	req = c.setHeaders(req)

	data, disposition, err := c.roundTripWithHeader(op, req, "Content-Disposition")
	if err != nil {
		return "", err
	}

	if _, err := w.Write(data); err != nil {
		return "", err
	}

	name := id
	if _, params, err := mime.ParseMediaType(disposition); err == nil && params["filename"] != "" {
		name = params["filename"]
	}

	return name, nil
}
