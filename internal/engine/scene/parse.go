package scene

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/GriffinCanCode/molx/internal/domain/viewer"
)

// ErrParse is returned when the text does not look like the requested format
var ErrParse = errors.New("structure parse failed")

type summary struct {
	models   int
	atoms    int
	hetAtoms int
}

// sniff counts coordinate records in text for the given format
func sniff(text string, format viewer.Format) (summary, error) {
	var (
		s      summary
		header bool
	)
	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := sc.Bytes()
		switch {
		case bytes.HasPrefix(line, []byte("ATOM")):
			s.atoms++
		case bytes.HasPrefix(line, []byte("HETATM")):
			s.hetAtoms++
		case bytes.HasPrefix(line, []byte("MODEL")):
			s.models++
		case bytes.HasPrefix(line, []byte("data_")):
			header = true
		}
	}
	if err := sc.Err(); err != nil {
		return summary{}, fmt.Errorf("%w: %w", ErrParse, err)
	}

	if format == viewer.FormatMMCIF && !header {
		return summary{}, fmt.Errorf("%w: missing mmCIF data block", ErrParse)
	}
	if s.atoms+s.hetAtoms == 0 {
		return summary{}, fmt.Errorf("%w: no atom records", ErrParse)
	}
	if s.models == 0 || format == viewer.FormatMMCIF {
		s.models = 1
	}
	return s, nil
}
