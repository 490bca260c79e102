package inbuilt

import (
	"io"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/indigo-web/ember/http"
	"github.com/indigo-web/ember/http/mime"
	"github.com/indigo-web/ember/http/status"
)

// FS returns a handler serving files from the root directory. The file is
// picked by the "static_path" wildcard capture, as registered by Static. ETag
// and Last-Modified based conditional requests and single byte ranges are
// supported out of the box.
func FS(root string) Handler {
	return func(request *http.Request) *http.Response {
		rel := path.Clean("/" + request.Vars.Value("static_path"))
		if strings.Contains(rel, "..") {
			return request.Respond().Error(status.ErrNotFound)
		}

		file, err := os.Open(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			return request.Respond().Error(status.ErrNotFound)
		}

		info, err := file.Stat()
		if err != nil || info.IsDir() {
			_ = file.Close()
			return request.Respond().Error(status.ErrNotFound)
		}

		meta := http.ResourceMeta{
			ETag:         fileETag(info.Size(), info.ModTime().UnixNano()),
			LastModified: info.ModTime(),
		}

		if http.NotModified(request, meta) {
			_ = file.Close()
			return request.Respond().
				Code(status.NotModified).
				Header("ETag", meta.ETag).
				Header("Last-Modified", http.FormatTime(meta.LastModified))
		}

		contentType := mime.ByExtension(strings.TrimPrefix(filepath.Ext(rel), "."))
		response := request.Respond().
			ContentType(contentType).
			Header("ETag", meta.ETag).
			Header("Last-Modified", http.FormatTime(meta.LastModified)).
			Header("Accept-Ranges", "bytes")

		size := info.Size()

		rng, ok, err := http.ParseRange(request.Headers.Value("Range"), size)
		if err != nil {
			_ = file.Close()
			return response.
				Header("Content-Range", http.ContentRangeUnsatisfied(size)).
				Error(err)
		}

		if ok {
			section := sectionFile{io.NewSectionReader(file, rng.Start, rng.Length), file}

			return response.
				Code(status.PartialContent).
				Header("Content-Range", rng.ContentRange(size)).
				Stream(section, rng.Length)
		}

		return response.Stream(file, size)
	}
}

// sectionFile keeps the underlying file reachable for closing once the section
// is transmitted.
type sectionFile struct {
	*io.SectionReader
	file *os.File
}

func (s sectionFile) Close() error {
	return s.file.Close()
}

func fileETag(size, modTime int64) string {
	return `"` + strconv.FormatInt(modTime, 36) + "-" + strconv.FormatInt(size, 36) + `"`
}
