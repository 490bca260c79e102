package mime

type (
	MIME    = string
	Charset = string
)

const (
	Unset       MIME = ""
	Plain       MIME = "text/plain"
	HTML        MIME = "text/html"
	CSS         MIME = "text/css"
	JSON        MIME = "application/json"
	XML         MIME = "application/xml"
	JavaScript  MIME = "application/javascript"
	OctetStream MIME = "application/octet-stream"
	FormData    MIME = "multipart/form-data"
	HTTP        MIME = "message/http"
	URLEncoded  MIME = "application/x-www-form-urlencoded"
	PNG         MIME = "image/png"
	JPEG        MIME = "image/jpeg"
	GIF         MIME = "image/gif"
	SVG         MIME = "image/svg+xml"
	ICO         MIME = "image/x-icon"
)

const UTF8 Charset = "utf8"

// ByExtension guesses a MIME by a file extension (without the leading dot).
// Unknown extensions map to application/octet-stream.
func ByExtension(ext string) MIME {
	switch ext {
	case "txt":
		return Plain
	case "html", "htm":
		return HTML
	case "css":
		return CSS
	case "json":
		return JSON
	case "xml":
		return XML
	case "js", "mjs":
		return JavaScript
	case "png":
		return PNG
	case "jpg", "jpeg":
		return JPEG
	case "gif":
		return GIF
	case "svg":
		return SVG
	case "ico":
		return ICO
	default:
		return OctetStream
	}
}
