package app

import (
	"log"
	"mime"
)

// Some minimal container images ship without /etc/mime.types, which breaks
// the stylesheet Content-Type on the static file server.
func init() {
	registerMime(".css", "text/css; charset=utf-8")
	registerMime(".svg", "image/svg+xml")
}

func registerMime(ext, typ string) {
	if mime.TypeByExtension(ext) != "" {
		return
	}
	if err := mime.AddExtensionType(ext, typ); err != nil {
		log.Printf("app: register %s mime type: %v", ext, err)
	}
}
