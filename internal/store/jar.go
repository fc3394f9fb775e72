package store

import (
	"archive/zip"
	"fmt"
	"os"
	"strings"
)

// ReadJar lists the classes of a jar file as normalized class paths.
// Directory entries, resources and package-info/module-info are skipped.
// Entries under META-INF/versions/ are skipped so multi-release jars list each class once.
func ReadJar(path string) ([]string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open jar %s: %w", path, err)
	}
	defer r.Close()

	names := make([]string, 0, len(r.File))
	for _, f := range r.File {
		if f.FileInfo().IsDir() || !strings.HasSuffix(f.Name, ".class") {
			continue
		}
		if strings.HasPrefix(f.Name, "META-INF/") {
			continue
		}
		names = append(names, f.Name)
	}
	return NormalizeClassPaths(names), nil
}

// ReadClassSource reads class paths from a jar, or from a text listing with one class per line.
func ReadClassSource(path string) ([]string, error) {
	if strings.HasSuffix(strings.ToLower(path), ".jar") {
		return ReadJar(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read listing %s: %w", path, err)
	}
	return ParseClassListing(string(data)), nil
}
