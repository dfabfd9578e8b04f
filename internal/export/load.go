package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pierrec/lz4/v4"
)

// LoadSeriesDoc reads one dimension document, transparently decompressing
// .lz4 files, and validates it before returning.
func LoadSeriesDoc(path string) (SeriesDoc, error) {
	data, err := readDoc(path)
	if err != nil {
		return SeriesDoc{}, err
	}

	if err := ValidateSeriesDoc(data); err != nil {
		return SeriesDoc{}, fmt.Errorf("load %s: %w", path, err)
	}

	var doc SeriesDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return SeriesDoc{}, fmt.Errorf("load %s: %w", path, err)
	}

	return doc, nil
}

// LoadSurvivalDoc reads the survival document, transparently decompressing
// .lz4 files, and validates it before returning.
func LoadSurvivalDoc(path string) (SurvivalDoc, error) {
	data, err := readDoc(path)
	if err != nil {
		return nil, err
	}

	if err := ValidateSurvivalDoc(data); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	var doc SurvivalDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	return doc, nil
}

func readDoc(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var src io.Reader = f
	if strings.HasSuffix(path, ".lz4") {
		src = lz4.NewReader(f)
	}

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	return data, nil
}
