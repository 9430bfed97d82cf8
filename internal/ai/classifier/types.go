package classifier

import (
	"errors"

	"github.com/alumnet/modguard/internal/moderation/types"
)

var (
	// ErrModelResponse indicates the model returned no usable response.
	ErrModelResponse = errors.New("model response error")
	// ErrInvalidAssessment indicates the response did not match the assessment schema.
	ErrInvalidAssessment = errors.New("invalid assessment")
)

// Action is the classifier's suggested handling of a piece of content.
type Action string

const (
	ActionAllow Action = "allow"
	ActionWarn  Action = "warn"
	ActionBlock Action = "block"
)

// IsValid reports whether a is a known action.
func (a Action) IsValid() bool {
	switch a {
	case ActionAllow, ActionWarn, ActionBlock:
		return true
	}
	return false
}

// Concern categories the classifier is instructed to look for.
const (
	ConcernHateSpeech     = "hate_speech"
	ConcernProfanity      = "profanity"
	ConcernHarassment     = "harassment"
	ConcernSpam           = "spam"
	ConcernSexualContent  = "sexual_content"
	ConcernViolence       = "violence"
	ConcernMisinformation = "misinformation"
)

// Assessment is the classifier's advisory verdict on a piece of content.
type Assessment struct {
	IsAppropriate   bool           `json:"isAppropriate"`
	Confidence      int            `json:"confidence"`
	Concerns        []string       `json:"concerns"`
	Severity        types.Severity `json:"severity"`
	Explanation     string         `json:"explanation"`
	SuggestedAction Action         `json:"suggestedAction"`
}

// rawAssessment mirrors Assessment with pointers so missing fields can be detected.
type rawAssessment struct {
	IsAppropriate   *bool     `json:"isAppropriate"`
	Confidence      *float64  `json:"confidence"`
	Concerns        *[]string `json:"concerns"`
	Severity        *string   `json:"severity"`
	Explanation     *string   `json:"explanation"`
	SuggestedAction *string   `json:"suggestedAction"`
}

// Outcome is what a submitting user is shown before publishing.
type Outcome string

const (
	// OutcomeAllow publishes without interruption.
	OutcomeAllow Outcome = "allow"
	// OutcomeConfirm asks the user to confirm or revise before publishing.
	OutcomeConfirm Outcome = "confirm"
	// OutcomeBlock refuses publication.
	OutcomeBlock Outcome = "block"
)

// Decision maps an assessment to the prompt shown to the submitting user.
func (a Assessment) Decision() Outcome {
	switch {
	case a.SuggestedAction == ActionBlock:
		return OutcomeBlock
	case a.SuggestedAction == ActionWarn, !a.IsAppropriate:
		return OutcomeConfirm
	default:
		return OutcomeAllow
	}
}
