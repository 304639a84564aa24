package main

import (
	"fmt"
	"maps"
	"os"
	"slices"

	"github.com/goccy/go-yaml"

	"github.com/JonMunkholm/herdimport/internal/core"
)

// analyzeOptions selects default mode without a mapping file and explicit
// mode with one.
//
// A mapping file lists sheets by name:
//
//	sheets:
//	  體重:
//	    purpose: weight_record
//	    columns:
//	      EarNum: 耳號
//	      MeaDate: 測量日期
//	      Weight: 體重
func analyzeOptions(path string) (core.AnalyzeOptions, error) {
	if path == "" {
		return core.AnalyzeOptions{Mode: core.ModeDefault}, nil
	}
	cfg, err := loadMapping(path)
	if err != nil {
		return core.AnalyzeOptions{}, err
	}
	return core.AnalyzeOptions{Mode: core.ModeExplicit, Config: cfg}, nil
}

func loadMapping(path string) (core.MappingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return core.MappingConfig{}, fmt.Errorf("read mapping file: %w", err)
	}
	return parseMapping(data)
}

func parseMapping(data []byte) (core.MappingConfig, error) {
	var cfg core.MappingConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return core.MappingConfig{}, fmt.Errorf("invalid mapping config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return core.MappingConfig{}, err
	}
	return cfg, nil
}

func sortedFieldKeys(m map[string]string) []string {
	return slices.Sorted(maps.Keys(m))
}
