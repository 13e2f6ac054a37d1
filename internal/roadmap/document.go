package roadmap

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

// Document is the on-disk YAML form of a roadmap, used by import.
type Document struct {
	Title       string         `yaml:"title" json:"title"`
	Description string         `yaml:"description,omitempty" json:"description,omitempty"`
	Steps       []DocumentStep `yaml:"steps" json:"steps"`
}

// DocumentStep is one step in a roadmap document.
type DocumentStep struct {
	Title       string              `yaml:"title" json:"title"`
	Description string              `yaml:"description,omitempty" json:"description,omitempty"`
	Assessment  *DocumentAssessment `yaml:"assessment,omitempty" json:"assessment,omitempty"`
}

// DocumentAssessment is the assessment gating a step.
type DocumentAssessment struct {
	Title            string             `yaml:"title" json:"title"`
	PassingScore     int                `yaml:"passing_score" json:"passing_score"`
	TimeLimitMinutes int                `yaml:"time_limit_minutes" json:"time_limit_minutes"`
	Questions        []DocumentQuestion `yaml:"questions" json:"questions"`
}

// DocumentQuestion is a single multiple-choice question with its answer key.
type DocumentQuestion struct {
	Text          string   `yaml:"text" json:"text"`
	Options       []string `yaml:"options" json:"options"`
	CorrectOption int      `yaml:"correct_option" json:"correct_option"`
	Explanation   string   `yaml:"explanation,omitempty" json:"explanation,omitempty"`
}

const documentSchemaURL = "schema://roadmap.json"

const documentSchema = `{
  "type": "object",
  "required": ["title", "steps"],
  "additionalProperties": false,
  "properties": {
    "title": {"type": "string", "minLength": 1},
    "description": {"type": "string"},
    "steps": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["title"],
        "additionalProperties": false,
        "properties": {
          "title": {"type": "string", "minLength": 1},
          "description": {"type": "string"},
          "assessment": {
            "type": "object",
            "required": ["title", "passing_score", "time_limit_minutes", "questions"],
            "additionalProperties": false,
            "properties": {
              "title": {"type": "string", "minLength": 1},
              "passing_score": {"type": "integer", "minimum": 0, "maximum": 100},
              "time_limit_minutes": {"type": "integer", "minimum": 1},
              "questions": {
                "type": "array",
                "minItems": 1,
                "items": {
                  "type": "object",
                  "required": ["text", "options", "correct_option"],
                  "additionalProperties": false,
                  "properties": {
                    "text": {"type": "string", "minLength": 1},
                    "options": {
                      "type": "array",
                      "minItems": 2,
                      "maxItems": 6,
                      "items": {"type": "string", "minLength": 1}
                    },
                    "correct_option": {"type": "integer", "minimum": 0},
                    "explanation": {"type": "string"}
                  }
                }
              }
            }
          }
        }
      }
    }
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func documentValidator() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		def, err := jsonschema.UnmarshalJSON(bytes.NewReader([]byte(documentSchema)))
		if err != nil {
			schemaErr = fmt.Errorf("parse roadmap schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(documentSchemaURL, def); err != nil {
			schemaErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiledSchema, schemaErr = c.Compile(documentSchemaURL)
	})
	return compiledSchema, schemaErr
}

// ParseDocument decodes and validates a YAML roadmap document.
func ParseDocument(data []byte) (*Document, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}

	// The validator wants JSON-shaped values (json.Number for numbers), so
	// round-trip through JSON before validating.
	asJSON, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("normalize document: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(asJSON))
	if err != nil {
		return nil, fmt.Errorf("normalize document: %w", err)
	}

	sch, err := documentValidator()
	if err != nil {
		return nil, err
	}
	if err := sch.Validate(inst); err != nil {
		return nil, fmt.Errorf("invalid roadmap document: %w", err)
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode roadmap: %w", err)
	}
	if err := doc.checkAnswerKeys(); err != nil {
		return nil, fmt.Errorf("invalid roadmap document: %w", err)
	}
	return &doc, nil
}

// LoadDocument reads and parses the roadmap document at path.
func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roadmap: %w", err)
	}
	return ParseDocument(data)
}

func (d *Document) checkAnswerKeys() error {
	for i, s := range d.Steps {
		if s.Assessment == nil {
			continue
		}
		for j, q := range s.Assessment.Questions {
			if q.CorrectOption >= len(q.Options) {
				return fmt.Errorf("step %d question %d: correct_option %d out of range (%d options)",
					i+1, j+1, q.CorrectOption, len(q.Options))
			}
		}
	}
	return nil
}
