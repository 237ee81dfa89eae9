package main

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileConfig is the optional YAML configuration. Command line flags override it.
type fileConfig struct {
	Listen         string            `yaml:"listen"`
	Address        string            `yaml:"address"`
	Schema         string            `yaml:"schema"`
	MaxMessageSize int               `yaml:"max_message_size"`
	RowID          bool              `yaml:"rowid"`
	Tables         []string          `yaml:"tables"`
	Tokens         map[string]string `yaml:"tokens"` // token -> identity
}

func loadConfig(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the operator
	if err != nil {
		return nil, fmt.Errorf("can't read config %s: %w", path, err)
	}
	var conf fileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&conf); err != nil {
		return nil, fmt.Errorf("can't parse config %s: %w", path, err)
	}
	return &conf, nil
}

// merge applies the flag values that were set on top of conf.
func (conf *fileConfig) merge(opts options) {
	if opts.Listen != "" {
		conf.Listen = opts.Listen
	}
	if opts.Address != "" {
		conf.Address = opts.Address
	}
	if opts.Schema != "" {
		conf.Schema = opts.Schema
	}
	if opts.MaxMessageSize > 0 {
		conf.MaxMessageSize = opts.MaxMessageSize
	}
	if opts.RowID {
		conf.RowID = true
	}
	if len(opts.Tables) > 0 {
		conf.Tables = opts.Tables
	}
	if len(opts.Tokens) > 0 {
		if conf.Tokens == nil {
			conf.Tokens = make(map[string]string, len(opts.Tokens))
		}
		for token, identity := range opts.Tokens {
			conf.Tokens[token] = identity
		}
	}

	if conf.Listen == "" {
		conf.Listen = defaultListen
	}
	if conf.Schema == "" {
		conf.Schema = defaultSchema
	}
}
