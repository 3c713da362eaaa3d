package console

// Request bodies accepted by the REST surface.

type guestLeaveRequest struct {
	GuestID string `json:"guestId" valid:"required,type(string),stringlength(1|64)"`
}

type guestInviteRequest struct {
	GuestID string `json:"guestId" valid:"required,type(string),printableascii,nospace,stringlength(1|64)"`
	Name    string `json:"name" valid:"required,type(string),stringlength(1|64),nospaceonly~name:Guest name cannot contain only spaces"`
}

type moderatorActionRequest struct {
	Action string `json:"action" valid:"required,type(string),stringlength(1|64)"`
	Target string `json:"target" valid:"-"`
}

type warningRequest struct {
	Title   string `json:"title" valid:"required,type(string),stringlength(1|200)"`
	Message string `json:"message" valid:"-"`
}

type alertRequest struct {
	Title    string `json:"title" valid:"required,type(string),stringlength(1|200)"`
	Message  string `json:"message" valid:"-"`
	Severity string `json:"severity" valid:"severity~severity:Severity must be one of info, warning or critical"`
}

type chronicleFilterQuery struct {
	Filter string `json:"filter"`
}

type commandError struct {
	Command string `json:"command"`
	Error   string `json:"error"`
	Message string `json:"message"`
}
