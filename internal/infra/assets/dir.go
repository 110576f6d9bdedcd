package assets

import (
	"context"
	"errors"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// DirOrigin reads assets from a local directory. "/" maps to index.html.
type DirOrigin struct {
	Dir string
}

func NewDirOrigin(dir string) *DirOrigin { return &DirOrigin{Dir: dir} }

func (o *DirOrigin) Fetch(_ context.Context, p string) (Asset, error) {
	name := objectName(p)
	body, err := os.ReadFile(filepath.Join(o.Dir, filepath.FromSlash(name)))
	if errors.Is(err, fs.ErrNotExist) {
		return Asset{}, ErrNotFound
	}
	if err != nil {
		return Asset{}, err
	}
	return Asset{Body: body, ContentType: contentType(name, body)}, nil
}

// objectName turns a request path into a slash-separated name relative to
// the asset root.
func objectName(p string) string {
	name := strings.TrimPrefix(path.Clean("/"+p), "/")
	if name == "" {
		return "index.html"
	}
	return name
}

func contentType(name string, body []byte) string {
	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		return ct
	}
	return http.DetectContentType(body)
}
