package dataset

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"embed"
	"fmt"
	"io"
	"log"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/matst80/slask-instant/pkg/index"
	"github.com/matst80/slask-instant/pkg/types"
)

//go:embed data/*.json
var embedded embed.FS

// Builtin lists the settings of the embedded demo datasets.
var Builtin = map[string]index.Settings{
	"mobile_demo_facet_list": {
		Name:                 "mobile_demo_facet_list",
		FacetAttributes:      []string{"color", "category", "brand"},
		SearchableAttributes: []string{"name", "brand"},
	},
	"bestbuy": {
		Name:                 "bestbuy",
		FacetAttributes:      []string{"category", "brand"},
		SearchableAttributes: []string{"name", "brand", "category"},
	},
}

func Names() []string {
	return slices.Sorted(maps.Keys(Builtin))
}

func Settings(name string) (index.Settings, bool) {
	s, ok := Builtin[name]
	return s, ok
}

// Load returns the records of an embedded dataset.
func Load(name string) ([]types.Hit, error) {
	if _, ok := Builtin[name]; !ok {
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownIndex, name)
	}
	data, err := embedded.ReadFile("data/" + name + ".json")
	if err != nil {
		return nil, err
	}
	return Decode(bytes.NewReader(data))
}

// LoadFile reads records from a json file. Files ending in .gz are
// decompressed.
func LoadFile(path string) ([]types.Hit, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var reader io.Reader = file
	if strings.HasSuffix(path, ".gz") {
		zipReader, err := gzip.NewReader(file)
		if err != nil {
			return nil, err
		}
		defer zipReader.Close()
		reader = zipReader
	}
	hits, err := Decode(reader)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	log.Printf("Loaded %d records from %s", len(hits), path)
	return hits, nil
}

// Decode accepts either a json array of records or one record per line.
func Decode(r io.Reader) ([]types.Hit, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return []types.Hit{}, nil
	}
	if data[0] == '[' {
		hits := []types.Hit{}
		if err := sonic.Unmarshal(data, &hits); err != nil {
			return nil, err
		}
		return hits, nil
	}

	hits := []types.Hit{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		row := bytes.TrimSpace(scanner.Bytes())
		if len(row) == 0 {
			continue
		}
		hit := types.Hit{}
		if err := sonic.Unmarshal(row, &hit); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		hits = append(hits, hit)
	}
	return hits, scanner.Err()
}

// SaveFile writes records one per line, gzipped when path ends in .gz. The
// file is written next to path and renamed when complete.
func SaveFile(path string, hits []types.Hit) error {
	tmpFileName := path + ".tmp"
	file, err := os.Create(tmpFileName)
	if err != nil {
		return err
	}

	var writer io.Writer = file
	var zipWriter *gzip.Writer
	if strings.HasSuffix(path, ".gz") {
		zipWriter = gzip.NewWriter(file)
		writer = zipWriter
	}
	buffered := bufio.NewWriter(writer)
	for _, hit := range hits {
		row, err := sonic.Marshal(hit)
		if err != nil {
			file.Close()
			return err
		}
		buffered.Write(row)
		buffered.WriteByte('\n')
	}
	if err = buffered.Flush(); err == nil && zipWriter != nil {
		err = zipWriter.Close()
	}
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}
	return os.Rename(tmpFileName, path)
}
