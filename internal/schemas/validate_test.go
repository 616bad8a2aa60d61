package schemas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateStage_Persona_Valid(t *testing.T) {
	doc := `{
		"technicalLevel": "TECHNICAL",
		"tone": "CASUAL",
		"urgency": "HIGH",
		"hasBudget": true,
		"ambiguityLevel": "LOW"
	}`
	assert.NoError(t, ValidateStage(StagePersona, doc))
}

func TestValidateStage_Persona_OutOfSetEnum(t *testing.T) {
	doc := `{
		"technicalLevel": "WIZARD",
		"tone": "CASUAL",
		"urgency": "HIGH",
		"hasBudget": true,
		"ambiguityLevel": "LOW"
	}`
	err := ValidateStage(StagePersona, doc)
	require.Error(t, err)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, StagePersona, ve.Stage)
	assert.NotEmpty(t, ve.Errors)
}

func TestValidateStage_Persona_MissingField(t *testing.T) {
	doc := `{"technicalLevel": "MIXED", "tone": "PROFESSIONAL"}`
	var ve *ValidationError
	assert.ErrorAs(t, ValidateStage(StagePersona, doc), &ve)
}

func TestValidateStage_Persona_WrongShape(t *testing.T) {
	// Arrays where an object is expected must fail, never be reshaped.
	doc := `[{"technicalLevel": "MIXED"}]`
	assert.Error(t, ValidateStage(StagePersona, doc))
}

func TestValidateStage_Routing_Valid(t *testing.T) {
	doc := `{"primaryDomain": "GenAI", "secondaryDomains": ["AI_ML"], "confidence": 0.85}`
	assert.NoError(t, ValidateStage(StageRouting, doc))
}

func TestValidateStage_Routing_ConfidenceOutOfRange(t *testing.T) {
	doc := `{"primaryDomain": "GenAI", "secondaryDomains": [], "confidence": 1.5}`
	assert.Error(t, ValidateStage(StageRouting, doc))
}

func TestValidateStage_Matrix_Valid(t *testing.T) {
	doc := `{
		"explicit": ["React dashboard"],
		"implied": [],
		"constraints": [],
		"ambiguities": [],
		"risks": ["unclear scope"],
		"clarifyingQuestions": [{"question": "What is the deadline?", "type": "MUST_ASK"}]
	}`
	assert.NoError(t, ValidateStage(StageMatrix, doc))
}

func TestValidateStage_Matrix_BadQuestionType(t *testing.T) {
	doc := `{
		"explicit": [], "implied": [], "constraints": [], "ambiguities": [], "risks": [],
		"clarifyingQuestions": [{"question": "?", "type": "MAYBE_ASK"}]
	}`
	assert.Error(t, ValidateStage(StageMatrix, doc))
}

func TestValidateStage_UnknownStage(t *testing.T) {
	assert.Error(t, ValidateStage("nonexistent", `{}`))
}
