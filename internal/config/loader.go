package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type SourceKind string

const (
	SourceDefault SourceKind = "default"
	SourceFile    SourceKind = "file"
)

// Source says where a setting came from.
type Source struct {
	Kind   SourceKind
	Name   string // for default
	File   string
	Line   int
	Column int
}

func fileSource(file string, n *yaml.Node) Source {
	return Source{Kind: SourceFile, File: file, Line: n.Line, Column: n.Column}
}

type LoadResult struct {
	Config  *Config
	Sources map[string]Source // YAML path -> file that set it last
	Files   []string          // every file read, in merge order
}

func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "wintree", "config.yaml"), nil
}

// Load reads the configuration from the standard location.
func Load() (*Config, error) {
	res, err := LoadWithSources()
	if err != nil {
		return nil, err
	}
	return res.Config, nil
}

// LoadWithSources is Load plus per-key sources for explain.
func LoadWithSources() (*LoadResult, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads path and everything it includes. A missing file yields
// the defaults.
func LoadFromPath(path string) (*LoadResult, error) {
	merged := newLayer()
	if _, err := os.Stat(path); err == nil {
		w := &includeWalker{seen: make(map[string]bool)}
		if merged, err = w.load(path); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	cfg, err := BuildEffectiveConfig(merged.raw)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			if src, ok := merged.sources[verr.Path]; ok {
				verr.Source = src
			}
		}
		return nil, err
	}

	return &LoadResult{
		Config:  cfg,
		Sources: merged.sources,
		Files:   merged.files,
	}, nil
}

// layer is the merged result of one or more files. Later layers win.
type layer struct {
	raw     RawConfig
	sources map[string]Source
	files   []string
}

func newLayer() layer {
	return layer{sources: make(map[string]Source)}
}

func (l *layer) overlay(top layer) {
	l.raw = l.raw.merge(top.raw)
	for key, src := range top.sources {
		l.sources[key] = src
	}
	l.files = append(l.files, top.files...)
}

// includeWalker loads a file and its includes depth-first. Includes are
// merged in listed order and the including file is applied on top. A file
// reached twice is merged only the first time; reaching a file that is
// still being loaded is a cycle.
type includeWalker struct {
	seen  map[string]bool
	stack []string
}

func (w *includeWalker) load(path string) (layer, error) {
	file, err := canonicalPath(path)
	if err != nil {
		return layer{}, err
	}
	if slices.Contains(w.stack, file) {
		chain := append(slices.Clone(w.stack), file)
		return layer{}, fmt.Errorf("include cycle detected: %s", strings.Join(chain, " -> "))
	}
	if w.seen[file] {
		return newLayer(), nil
	}
	w.seen[file] = true

	own, err := readFile(file)
	if err != nil {
		return layer{}, err
	}

	w.stack = append(w.stack, file)
	defer func() { w.stack = w.stack[:len(w.stack)-1] }()

	out := newLayer()
	for i, inc := range own.raw.Include {
		src, ok := own.sources["include."+strconv.Itoa(i)]
		if !ok {
			src = own.sources["include"]
		}
		targets, err := includeTargets(file, inc)
		if err != nil {
			return layer{}, fmt.Errorf("%s:%d:%d: include %q: %w", file, src.Line, src.Column, inc, err)
		}
		for _, target := range targets {
			sub, err := w.load(target)
			if err != nil {
				return layer{}, err
			}
			out.overlay(sub)
		}
	}
	out.overlay(own)
	return out, nil
}

// readFile decodes one file strictly and records the position of every
// key it sets.
func readFile(file string) (layer, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return layer{}, fmt.Errorf("%s: failed to read: %w", file, err)
	}

	out := newLayer()
	out.files = []string{file}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return layer{}, fmt.Errorf("%s: failed to parse yaml: %w", file, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&out.raw); err != nil && !errors.Is(err, io.EOF) {
		return layer{}, fmt.Errorf("%s: %w", file, err)
	}

	if len(doc.Content) > 0 {
		recordSources(doc.Content[0], file, "", out.sources)
	}
	return out, nil
}

// recordSources walks a decoded node and stores a Source for every mapping
// key and sequence item, keyed by dotted path.
func recordSources(n *yaml.Node, file, prefix string, out map[string]Source) {
	join := func(key string) string {
		if prefix == "" {
			return key
		}
		return prefix + "." + key
	}
	switch n.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(n.Content); i += 2 {
			path := join(n.Content[i].Value)
			out[path] = fileSource(file, n.Content[i+1])
			recordSources(n.Content[i+1], file, path, out)
		}
	case yaml.SequenceNode:
		for i, item := range n.Content {
			out[join(strconv.Itoa(i))] = fileSource(file, item)
		}
	}
}

func canonicalPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %q: %w", path, err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	return abs, nil
}

// includeTargets resolves an include entry relative to the including file.
// A directory expands to its *.yaml and *.yml files in name order.
func includeTargets(from, include string) ([]string, error) {
	if include == "" {
		return nil, fmt.Errorf("path is empty")
	}
	path, err := expandHome(include)
	if err != nil {
		return nil, err
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(filepath.Dir(from), path)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, ent := range entries {
		switch strings.ToLower(filepath.Ext(ent.Name())) {
		case ".yaml", ".yml":
			if !ent.IsDir() {
				files = append(files, filepath.Join(path, ent.Name()))
			}
		}
	}
	slices.Sort(files)
	return files, nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
