package llm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/xeipuuv/gojsonschema"
)

var ErrInvalidGrade = errors.New("invalid grader output")

// gradeSchema is the shape every binary grader must answer with.
var gradeSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"binary_score": map[string]any{
			"type": "string",
			"enum": []string{"yes", "no", "Yes", "No", "YES", "NO"},
		},
	},
	"required": []string{"binary_score"},
}

var gradeSchemaLoader = gojsonschema.NewGoLoader(gradeSchema)

// GradeInstruction is appended to grader prompts for models without native
// structured output.
const GradeInstruction = `Respond only with a JSON object of the form {"binary_score": "yes"} or {"binary_score": "no"}.`

// ParseBinaryScore extracts {"binary_score": "yes"|"no"} from a model reply,
// tolerating surrounding prose or Markdown fences.
func ParseBinaryScore(reply string) (bool, error) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end < start {
		return false, fmt.Errorf("%w: no JSON object in %q", ErrInvalidGrade, reply)
	}
	object := reply[start : end+1]

	result, err := gojsonschema.Validate(gradeSchemaLoader, gojsonschema.NewStringLoader(object))
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidGrade, err)
	}
	if !result.Valid() {
		var errs []string
		for _, desc := range result.Errors() {
			errs = append(errs, desc.String())
		}
		return false, fmt.Errorf("%w: %s", ErrInvalidGrade, strings.Join(errs, ", "))
	}

	return strings.EqualFold(gjson.Get(object, "binary_score").String(), "yes"), nil
}
