package process

import (
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// DefaultClassifierDir is where distribution OpenCV packages install the
// pretrained Haar cascades.
const DefaultClassifierDir = "/usr/share/opencv4/haarcascades"

const classifierExt = ".xml"

// AvailableClassifiers lists the cascade definition files in dir, sorted by
// name.
func AvailableClassifiers(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list classifiers")
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), classifierExt) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// IsNone reports whether a classifier selection means "no detector".
func IsNone(name string) bool {
	return name == "" || strings.EqualFold(name, "none")
}
