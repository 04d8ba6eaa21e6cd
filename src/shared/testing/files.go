package testing

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// TempDir is removed again once the current test finishes
func TempDir() string {
	dir, err := os.MkdirTemp("", "stem-splitter-test-")
	ExpectWithOffset(1, err).NotTo(HaveOccurred())

	DeferCleanup(os.RemoveAll, dir)
	return dir
}

func WriteFile(path string, content []byte) string {
	err := os.MkdirAll(filepath.Dir(path), 0o755)
	ExpectWithOffset(1, err).NotTo(HaveOccurred())

	err = os.WriteFile(path, content, 0o644)
	ExpectWithOffset(1, err).NotTo(HaveOccurred())

	return path
}

func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func ReadFile(path string) []byte {
	return ExpectSuccess(os.ReadFile(path))
}

func ListDir(dir string) []string {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return []string{}
	}
	ExpectWithOffset(1, err).NotTo(HaveOccurred())

	names := []string{}
	for _, entry := range entries {
		names = append(names, entry.Name())
	}

	return names
}
