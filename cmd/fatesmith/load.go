package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatesmith/fatesmith/collection"
)

// loadRegistry loads every collection file (.json, .yaml, .yml) under dir
// into a fresh registry.
func loadRegistry(dir string) (*collection.Registry, error) {
	reg := collection.NewRegistry()
	found := 0

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".json", ".yaml", ".yml":
		default:
			return nil
		}
		doc, err := collection.LoadFile(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if err := reg.Add(doc); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		found++
		return nil
	})
	if err != nil {
		return nil, err
	}
	if found == 0 {
		return nil, fmt.Errorf("no collection files found under %s", dir)
	}
	return reg, nil
}
