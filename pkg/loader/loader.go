// Package loader reads model definition files and registers them.
package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/marshallshelly/babyorm/pkg/schema"
	"github.com/marshallshelly/babyorm/pkg/validator"
)

// ModelRegistrar is an interface for registering model definitions.
type ModelRegistrar interface {
	Register(def *schema.Definition) error
}

// Model file suffixes. The model name is the file name without the suffix.
var suffixes = []string{".model.yaml", ".model.yml"}

type modelFile struct {
	Config modelConfig    `yaml:"config"`
	Fields map[string]any `yaml:"fields"`
}

// modelConfig uses pointers so an omitted key can be told apart from an
// explicit false.
type modelConfig struct {
	Table            string                     `yaml:"table"`
	UseAutoincrement *bool                      `yaml:"use_autoincrement"`
	IDFormat         string                     `yaml:"id_format"`
	Timestamps       *bool                      `yaml:"timestamps"`
	SoftDelete       *bool                      `yaml:"soft_delete"`
	FillableFields   []string                   `yaml:"fillable_fields"`
	HiddenFields     []string                   `yaml:"hidden_fields"`
	Validations      map[string][]string        `yaml:"validations"`
	Relations        map[string]schema.Relation `yaml:"relations"`
}

// LoadModelsFromPath loads a single model file or every model file under a
// directory (recursively) and registers each definition.
// Returns the number of registered models.
func LoadModelsFromPath(path string, registrar ModelRegistrar) (int, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("failed to stat path: %w", err)
	}

	var filesToParse []string

	if info.IsDir() {
		err := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && modelName(d.Name()) != "" {
				filesToParse = append(filesToParse, p)
			}
			return nil
		})
		if err != nil {
			return 0, fmt.Errorf("failed to walk directory: %w", err)
		}
	} else {
		if modelName(path) == "" {
			return 0, fmt.Errorf("file must end with %s", strings.Join(suffixes, " or "))
		}
		filesToParse = append(filesToParse, path)
	}

	if len(filesToParse) == 0 {
		return 0, fmt.Errorf("no model files found in %s", path)
	}

	modelsRegistered := 0
	for _, file := range filesToParse {
		def, err := LoadFile(file)
		if err != nil {
			return modelsRegistered, err
		}
		if err := registrar.Register(def); err != nil {
			return modelsRegistered, fmt.Errorf("failed to register %s: %w", file, err)
		}
		modelsRegistered++
	}

	return modelsRegistered, nil
}

// LoadFile parses one model file.
func LoadFile(path string) (*schema.Definition, error) {
	name := modelName(path)
	if name == "" {
		return nil, fmt.Errorf("%s is not a model file", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	def, err := Parse(name, data)
	if err != nil {
		return nil, fmt.Errorf("failed to load model from %s: %w", path, err)
	}
	return def, nil
}

// Parse builds a definition for name from YAML model source, applying the
// defaults for every omitted config key.
func Parse(name string, data []byte) (*schema.Definition, error) {
	var file modelFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("invalid model source: %w", err)
	}

	cfg := file.Config
	def := schema.New(name)

	if cfg.Table != "" {
		def.Table = cfg.Table
	}
	if cfg.UseAutoincrement != nil && !*cfg.UseAutoincrement {
		def.PrimaryKey = schema.PrimaryKeyGenerated
	}
	def.IDFormat = cfg.IDFormat
	if cfg.Timestamps != nil {
		def.Timestamps = *cfg.Timestamps
	}
	if cfg.SoftDelete != nil {
		def.SoftDelete = *cfg.SoftDelete
	}
	def.Fillable = cfg.FillableFields
	if cfg.HiddenFields != nil {
		def.Hidden = cfg.HiddenFields
	}

	for field, specs := range cfg.Validations {
		rules, err := validator.ParseRules(specs)
		if err != nil {
			return nil, fmt.Errorf("validations of %s: %w", field, err)
		}
		def.Validations[field] = rules
	}
	for relName, rel := range cfg.Relations {
		def.Relations[relName] = rel
	}
	for field, value := range file.Fields {
		def.Fields[field] = value
	}

	if err := def.Validate(); err != nil {
		return nil, err
	}
	return def, nil
}

// modelName returns the model name encoded in a file name, or "".
func modelName(path string) string {
	base := filepath.Base(path)
	for _, suffix := range suffixes {
		if name, ok := strings.CutSuffix(base, suffix); ok && name != "" {
			return strings.ToLower(name)
		}
	}
	return ""
}
