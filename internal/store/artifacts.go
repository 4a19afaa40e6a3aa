package store

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// DownSuffix names the reverse artifact alongside its forward file.
const DownSuffix = ".down.sql"

// ChecksumSuffix names the sidecar file recording the schema checksum a
// forward artifact was generated against, so `up` can stamp the history
// row with the same checksum `create` computed instead of rehashing the
// artifact's own DDL.
const ChecksumSuffix = ".checksum"

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases name and collapses runs of non-alphanumerics to a
// single underscore, trimming leading/trailing underscores.
func Slugify(name string) string {
	s := slugRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "_")
	return strings.Trim(s, "_")
}

// ArtifactNames returns the forward and reverse file names for one
// migration, named `<epoch-ms>_<slug>.sql` / `<epoch-ms>_<slug>.down.sql`
// so lexicographic listing coincides with chronological order.
func ArtifactNames(epochMs int64, name string) (forward, reverse string) {
	base := fmt.Sprintf("%d_%s", epochMs, Slugify(name))
	return base + ".sql", base + DownSuffix
}

// MigrationsDir is `<cwd>/database/migrations`, the fixed path spec C6
// specifies absent an explicit override.
func MigrationsDir(root string) string {
	return filepath.Join(root, "database", "migrations")
}

// EnsureDir creates the migrations directory if absent.
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}

// WriteArtifact writes one migration file's contents, one statement per
// line, terminated with a trailing newline.
func WriteArtifact(dir, filename string, statements []string) error {
	content := strings.Join(statements, "\n")
	if content != "" {
		content += "\n"
	}
	return os.WriteFile(filepath.Join(dir, filename), []byte(content), 0o644)
}

// ListForwardArtifacts returns every `.sql` migration file (excluding
// `.down.sql` reverse payloads and the snapshot) in lexicographic order.
func ListForwardArtifacts(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: list migrations dir: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if name == SnapshotFileName {
			continue
		}
		if !strings.HasSuffix(name, ".sql") || strings.HasSuffix(name, DownSuffix) {
			continue
		}
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

// ReverseArtifactName maps a forward artifact's file name to its reverse
// counterpart.
func ReverseArtifactName(forward string) string {
	return strings.TrimSuffix(forward, ".sql") + DownSuffix
}

// NameFromArtifact strips the `.sql` extension, yielding the identity
// stored in the history table's `name` column.
func NameFromArtifact(forward string) string {
	return strings.TrimSuffix(forward, ".sql")
}

// ReadArtifact loads one migration file's statements.
func ReadArtifact(dir, filename string) ([]string, error) {
	data, err := os.ReadFile(filepath.Join(dir, filename))
	if err != nil {
		return nil, fmt.Errorf("store: read artifact %s: %w", filename, err)
	}
	lines := strings.Split(string(data), "\n")
	var out []string
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

// checksumSidecarName maps a forward artifact's file name to its
// checksum sidecar's file name.
func checksumSidecarName(forward string) string {
	return strings.TrimSuffix(forward, ".sql") + ChecksumSuffix
}

// WriteChecksum persists the schema checksum a forward artifact was
// generated against, alongside the artifact itself.
func WriteChecksum(dir, forward, checksum string) error {
	path := filepath.Join(dir, checksumSidecarName(forward))
	return os.WriteFile(path, []byte(checksum), 0o644)
}

// ReadChecksum loads the schema checksum recorded for a forward
// artifact by WriteChecksum.
func ReadChecksum(dir, forward string) (string, error) {
	path := filepath.Join(dir, checksumSidecarName(forward))
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("store: read checksum for %s: %w", forward, err)
	}
	return strings.TrimSpace(string(data)), nil
}
