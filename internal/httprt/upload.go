package httprt

import (
	"bytes"
	"fmt"
	"io"

	"github.com/gabriel-vasile/mimetype"
)

// Upload is the value a binary operation expects in its "input" argument.
// The server builds one per multipart file part.
type Upload struct {
	File     io.Reader
	Filename string
	MimeType string
}

// readUpload consumes the upload into one buffer. A max of zero reads
// without bound. The returned MIME type is the upload's own, or a sniffed
// one when the upload reports none.
func readUpload(u *Upload, max int64) ([]byte, string, error) {
	if u == nil || u.File == nil {
		return nil, "", fmt.Errorf("upload has no content")
	}
	if c, ok := u.File.(io.Closer); ok {
		defer c.Close()
	}
	var r io.Reader = u.File
	if max > 0 {
		r = io.LimitReader(u.File, max+1)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, "", fmt.Errorf("read upload %q: %w", u.Filename, err)
	}
	if max > 0 && int64(buf.Len()) > max {
		return nil, "", fmt.Errorf("upload %q exceeds %d bytes", u.Filename, max)
	}
	mime := u.MimeType
	if mime == "" {
		mime = mimetype.Detect(buf.Bytes()).String()
	}
	return buf.Bytes(), mime, nil
}

func asUpload(v any) (*Upload, bool) {
	switch u := v.(type) {
	case *Upload:
		return u, u != nil
	case Upload:
		return &u, true
	}
	return nil, false
}
