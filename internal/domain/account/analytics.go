package account

import (
	"fmt"

	"golang.org/x/text/language"
)

// SurveyUnknown is the sentinel stored for survey fields the client never
// supplied.
const SurveyUnknown = "Unknown"

var validProfessions = map[string]bool{
	"student":   true,
	"developer": true,
	"writer":    true,
	"business":  true,
	"medical":   true,
	"other":     true,
}

var validUseCases = map[string]bool{
	"transcription":    true,
	"subtitles":        true,
	"notes":            true,
	"content_creation": true,
	"accessibility":    true,
	"education":        true,
	"other":            true,
}

var validSources = map[string]bool{
	"search":       true,
	"friend":       true,
	"social_media": true,
	"app_store":    true,
	"ad":           true,
	"blog":         true,
	"youtube":      true,
	"other":        true,
}

// Survey holds the onboarding survey answers. Fields are free of business
// meaning; they are whitelist-validated on the way in and otherwise carried
// as-is.
type Survey struct {
	Profession string
	UseCase    string
	Source     string
}

// SurveyUpdate carries optional incoming survey answers. Empty fields mean
// "not supplied" and never overwrite a stored value.
type SurveyUpdate struct {
	Profession string
	UseCase    string
	Source     string
}

// Validate checks every supplied answer against its whitelist.
func (u SurveyUpdate) Validate() error {
	if u.Profession != "" && !validProfessions[u.Profession] {
		return fmt.Errorf("invalid profession selection: %s", u.Profession)
	}
	if u.UseCase != "" && !validUseCases[u.UseCase] {
		return fmt.Errorf("invalid use case selection: %s", u.UseCase)
	}
	if u.Source != "" && !validSources[u.Source] {
		return fmt.Errorf("invalid source selection: %s", u.Source)
	}
	return nil
}

// Analytics is the profile sub-record: not state-bearing, last-write-wins.
type Analytics struct {
	Country       string
	InputLanguage string
	Survey        Survey
}

// NewAnalytics validates and builds the analytics record for a brand-new
// account. Unsupplied survey answers default to the Unknown sentinel.
func NewAnalytics(country, inputLanguage string, survey SurveyUpdate) (Analytics, error) {
	if country == "" {
		return Analytics{}, fmt.Errorf("country is required")
	}
	if inputLanguage == "" {
		return Analytics{}, fmt.Errorf("language is required")
	}
	if _, err := language.Parse(inputLanguage); err != nil {
		return Analytics{}, fmt.Errorf("invalid language tag %q: %w", inputLanguage, err)
	}
	if err := survey.Validate(); err != nil {
		return Analytics{}, err
	}

	return Analytics{
		Country:       country,
		InputLanguage: inputLanguage,
		Survey: Survey{
			Profession: orUnknown(survey.Profession),
			UseCase:    orUnknown(survey.UseCase),
			Source:     orUnknown(survey.Source),
		},
	}, nil
}

// Merge applies an incoming update. Country and language are overwritten;
// survey answers are only replaced when supplied, prior values are retained
// otherwise.
func (a Analytics) Merge(country, inputLanguage string, survey SurveyUpdate) Analytics {
	merged := a
	if country != "" {
		merged.Country = country
	}
	if inputLanguage != "" {
		merged.InputLanguage = inputLanguage
	}
	if survey.Profession != "" {
		merged.Survey.Profession = survey.Profession
	}
	if survey.UseCase != "" {
		merged.Survey.UseCase = survey.UseCase
	}
	if survey.Source != "" {
		merged.Survey.Source = survey.Source
	}
	if merged.Survey.Profession == "" {
		merged.Survey.Profession = SurveyUnknown
	}
	if merged.Survey.UseCase == "" {
		merged.Survey.UseCase = SurveyUnknown
	}
	if merged.Survey.Source == "" {
		merged.Survey.Source = SurveyUnknown
	}
	return merged
}

// ValidateUpdate checks an incoming sync payload before any store mutation.
func ValidateUpdate(country, inputLanguage string, survey SurveyUpdate) error {
	if country == "" {
		return fmt.Errorf("country is required")
	}
	if inputLanguage == "" {
		return fmt.Errorf("language is required")
	}
	if _, err := language.Parse(inputLanguage); err != nil {
		return fmt.Errorf("invalid language tag %q: %w", inputLanguage, err)
	}
	return survey.Validate()
}

func orUnknown(v string) string {
	if v == "" {
		return SurveyUnknown
	}
	return v
}
