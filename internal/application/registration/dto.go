package registration

// FileInput carries an uploaded file already read into memory and
// size/type-checked by the transport layer.
type FileInput struct {
	FileName    string
	ContentType string
	Data        []byte
}

// IsPresent reports whether a file was supplied
func (f FileInput) IsPresent() bool {
	return len(f.Data) > 0 && f.ContentType != ""
}

// TeamMemberInput is one team member in a create request
type TeamMemberInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// CreateRegistrationInput is the application-level create request
type CreateRegistrationInput struct {
	FullName    string
	Email       string
	Phone       string
	College     string
	Event       string
	IEEEMember  string
	IEEEID      string
	Certificate FileInput
	IsTeam      bool
	TeamName    string
	TeamMembers []TeamMemberInput
}
