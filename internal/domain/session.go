package domain

// Session is the authenticated client session. Token and Parent are stored and
// cleared together.
type Session struct {
	Token  string `json:"-"`
	Parent Parent `json:"parent"`
}

// Valid returns true if both halves of the session are present.
func (s *Session) Valid() bool {
	return s != nil && s.Token != "" && s.Parent.Email != ""
}
