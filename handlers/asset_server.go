package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

const assetCacheControl = "public, max-age=86400"

// AssetFileServer serves stored media files (uploaded originals and
// algorithm outputs) from one subdirectory of the media storage root.
// Mounted as /api/<subDir>/* in main.go; the path below the prefix is the
// filename inside that subdirectory.
func AssetFileServer(storageRoot, subDir string) http.HandlerFunc {
	assetDir := filepath.Clean(filepath.Join(storageRoot, subDir))
	routePrefix := "/api/" + subDir + "/"

	return func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, routePrefix)
		if name == "" || name == r.URL.Path || strings.Contains(name, "..") {
			http.Error(w, "Invalid asset path", http.StatusBadRequest)
			return
		}

		assetPath := filepath.Clean(filepath.Join(assetDir, name))
		if !strings.HasPrefix(assetPath, assetDir+string(os.PathSeparator)) {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		info, err := os.Stat(assetPath)
		if os.IsNotExist(err) || (err == nil && info.IsDir()) {
			http.NotFound(w, r)
			return
		}
		if err != nil {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Cache-Control", assetCacheControl)
		http.ServeFile(w, r, assetPath)
	}
}
