package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"

	"go.uber.org/zap"
)

// FilePart is one file in a multipart form.
type FilePart struct {
	Field       string
	Filename    string
	ContentType string
	Data        []byte
}

// Form is a multipart/form-data body. Field order is preserved.
type Form struct {
	Fields [][2]string
	Files  []FilePart
}

// Set appends a text field.
func (f *Form) Set(name, value string) { f.Fields = append(f.Fields, [2]string{name, value}) }

// Attach appends a file part.
func (f *Form) Attach(p FilePart) { f.Files = append(f.Files, p) }

func (f *Form) encode() (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for _, kv := range f.Fields {
		if err := w.WriteField(kv[0], kv[1]); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", kv[0], err)
		}
	}
	for _, p := range f.Files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, p.Field, p.Filename))
		ct := p.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)
		pw, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("create part %s: %w", p.Filename, err)
		}
		if _, err := pw.Write(p.Data); err != nil {
			return nil, "", fmt.Errorf("write part %s: %w", p.Filename, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}

// SendMultipart issues a POST with a multipart/form-data body.
func (c *Client) SendMultipart(ctx context.Context, endpoint string, form *Form) Result {
	buf, ct, err := form.encode()
	if err != nil {
		c.log.Error("encode multipart", zap.String("endpoint", endpoint), zap.Error(err))
		return Result{Error: MsgEncode}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, buf)
	if err != nil {
		c.log.Error("build request", zap.String("endpoint", endpoint), zap.Error(err))
		return Result{Error: MsgNetwork}
	}
	req.Header.Set("Content-Type", ct)
	return c.do(req, endpoint)
}
