package app

import (
	"log"
	"mime"
)

// Some minimal container images ship without /etc/mime.types, which makes
// embedded stylesheets come back as text/plain. Register what the static
// handler serves.
func init() {
	for ext, typ := range map[string]string{
		".css": "text/css; charset=utf-8",
		".svg": "image/svg+xml",
	} {
		if mime.TypeByExtension(ext) != "" {
			continue
		}
		if err := mime.AddExtensionType(ext, typ); err != nil {
			log.Printf("app: register MIME type %s: %v", ext, err)
		}
	}
}
