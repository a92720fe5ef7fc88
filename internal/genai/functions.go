package genai

import (
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/campusnav/campus-navigator-go/internal/intent"
)

const subjectParam = "subject"

// BuildClassifierFunctions returns one declaration per intent.Label. The
// function name is the label.
func BuildClassifierFunctions() []*genai.FunctionDeclaration {
	subject := &genai.Schema{
		Type:        genai.TypeString,
		Description: "The place or topic the user asks about, copied from the question.",
	}
	return []*genai.FunctionDeclaration{
		{
			Name:        string(intent.LabelLocationSearch),
			Description: "The user is looking for a physical place on campus or how to get there.",
			Parameters: &genai.Schema{
				Type:       genai.TypeObject,
				Properties: map[string]*genai.Schema{subjectParam: subject},
			},
		},
		{
			Name:        string(intent.LabelInformationRequest),
			Description: "The user wants general information about the campus rather than a location.",
			Parameters: &genai.Schema{
				Type:       genai.TypeObject,
				Properties: map[string]*genai.Schema{subjectParam: subject},
			},
		},
	}
}

// labelFromFunction maps a called function name back to its label.
func labelFromFunction(name string) (intent.Label, error) {
	label := intent.Label(strings.TrimSpace(name))
	if !label.Valid() {
		return "", fmt.Errorf("%w: unknown function %q", errMalformed, name)
	}
	return label, nil
}
