package modelgateway

import (
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// SchemaSet holds the compiled JSON Schemas for the core's four fixed
// generate() call sites, loaded once at startup from config/schemas.
type SchemaSet struct {
	OCRBatch        *jsonschema.Schema
	QuestionBatch   *jsonschema.Schema
	AnswerEvaluation *jsonschema.Schema
	WrapUpReport    *jsonschema.Schema
}

// LoadSchemas compiles the four schema files under dir.
func LoadSchemas(dir string) (*SchemaSet, error) {
	compile := func(name string) (*jsonschema.Schema, error) {
		path := dir + "/" + name
		s, err := jsonschema.Compile(path)
		if err != nil {
			return nil, fmt.Errorf("modelgateway: compile schema %s: %w", path, err)
		}
		return s, nil
	}

	ocr, err := compile("ocr_batch.json")
	if err != nil {
		return nil, err
	}
	qb, err := compile("question_batch.json")
	if err != nil {
		return nil, err
	}
	ae, err := compile("answer_evaluation.json")
	if err != nil {
		return nil, err
	}
	wr, err := compile("wrap_up_report.json")
	if err != nil {
		return nil, err
	}

	return &SchemaSet{OCRBatch: ocr, QuestionBatch: qb, AnswerEvaluation: ae, WrapUpReport: wr}, nil
}
