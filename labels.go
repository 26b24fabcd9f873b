package shelfdetect

import (
	"bufio"
	"github.com/pkg/errors"
	"os"
	"strconv"
	"strings"
)

// Labels names the classes of the model, indexed by class number
type Labels []string

// LoadLabels reads the class labels of the model from the given text file.
// It should contain one label per line.
func LoadLabels(file string) (Labels, error) {

	// open the file
	f, err := os.Open(file)

	if err != nil {
		return nil, errors.Wrap(err, "error opening labels")
	}

	defer f.Close()

	// create a scanner to read the file.
	scanner := bufio.NewScanner(f)

	var labels Labels

	// read and trim each line
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		labels = append(labels, line)
	}

	// check for errors during scanning
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "error reading labels")
	}

	return labels, nil
}

// Name returns the label of a class, or the class number as text when no
// label is known
func (l Labels) Name(class int) string {

	if class >= 0 && class < len(l) && l[class] != "" {
		return l[class]
	}

	return strconv.Itoa(class)
}
