package domain

// ChildProfile is a child registered under the authenticated parent.
type ChildProfile struct {
	ID                int64  `json:"id"`
	ParentID          int64  `json:"parent_id,omitempty"`
	FirstName         string `json:"first_name"`
	Nickname          string `json:"nickname,omitempty"`
	GradeLevel        string `json:"grade_level"`
	PreferredLanguage string `json:"preferred_language,omitempty"`
}

// LanguageName returns the human readable preferred language.
func (c ChildProfile) LanguageName() string {
	if c.PreferredLanguage == "es" {
		return "Spanish"
	}
	return "English"
}

// ChildInput is the create-child form.
type ChildInput struct {
	FirstName         string `json:"first_name" validate:"required"`
	Nickname          string `json:"nickname"`
	DateOfBirth       string `json:"date_of_birth" validate:"required"`
	GradeLevel        string `json:"grade_level" validate:"required"`
	PreferredLanguage string `json:"preferred_language" validate:"omitempty,oneof=en es"`
	PIN               string `json:"pin" validate:"required"`
}
