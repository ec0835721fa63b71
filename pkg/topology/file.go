package topology

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dsnet/compress/bzip2"
	"github.com/new4mezdz/guandao/pkg/util"
	"gopkg.in/yaml.v3"
)

type Format uint8

const (
	FORMAT_YAML Format = iota
	FORMAT_JSON
)

// DetectFormat from the file name. a trailing .bz2 marks the payload as bzip2 compressed.
func DetectFormat(filename string) (Format, bool, error) {
	name := strings.ToLower(filename)
	compressed := false
	if strings.HasSuffix(name, ".bz2") {
		compressed = true
		name = strings.TrimSuffix(name, ".bz2")
	}
	switch filepath.Ext(name) {
	case ".yaml", ".yml":
		return FORMAT_YAML, compressed, nil
	case ".json":
		return FORMAT_JSON, compressed, nil
	default:
		return 0, false, util.WrapErrorf(ErrUnsupportedFormat, util.ErrBadParamInput, "topology file %s", filename)
	}
}

func Decode(r io.Reader, format Format) (*Document, error) {
	doc := &Document{}
	var err error
	switch format {
	case FORMAT_JSON:
		err = json.NewDecoder(r).Decode(doc)
	default:
		err = yaml.NewDecoder(r).Decode(doc)
	}
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode topology: %w", err)
	}
	return doc, nil
}

func Encode(w io.Writer, doc *Document, format Format) error {
	switch format {
	case FORMAT_JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	default:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	}
}

func ReadSnapshotFile(filename string) (*Document, error) {
	format, compressed, err := DetectFormat(filename)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = bufio.NewReader(f)
	if compressed {
		bz, err := bzip2.NewReader(r, nil)
		if err != nil {
			return nil, err
		}
		defer bz.Close()
		r = bz
	}
	return Decode(r, format)
}

func WriteSnapshotFile(filename string, doc *Document) (err error) {
	format, compressed, err := DetectFormat(filename)
	if err != nil {
		return err
	}

	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	w := bufio.NewWriter(f)
	if !compressed {
		if err = Encode(w, doc, format); err != nil {
			return err
		}
		return w.Flush()
	}

	bz, err := bzip2.NewWriter(w, &bzip2.WriterConfig{})
	if err != nil {
		return err
	}
	if err = Encode(bz, doc, format); err != nil {
		return err
	}
	if err = bz.Close(); err != nil {
		return err
	}
	return w.Flush()
}
