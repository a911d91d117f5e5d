package bugzilla

// bugResponse is the response from GET /rest/bug/{id}.
type bugResponse struct {
	Bugs []Bug `json:"bugs"`
}

// Bug is a Bugzilla bug record. Only the fields the PR tooling reads are
// decoded; see https://bugzilla.readthedocs.io/en/latest/api/core/v1/bug.html.
type Bug struct {
	Number          int      `json:"id"`
	Title           string   `json:"summary"`
	State           string   `json:"status"`
	Resolution      string   `json:"resolution"`
	Product         string   `json:"product"`
	Component       []string `json:"component"`
	Priority        string   `json:"priority"`
	Severity        string   `json:"severity"`
	AssignedTo      string   `json:"assigned_to"`
	Creator         string   `json:"creator"`
	TargetMilestone string   `json:"target_milestone"`
	TargetRelease   []string `json:"target_release"`
	Version         []string `json:"version"`
	Keywords        []string `json:"keywords"`
	Flags           []Flag   `json:"flags"`
	DependsOn       []int    `json:"depends_on"`
	Blocks          []int    `json:"blocks"`
	IsOpen          bool     `json:"is_open"`
	CreationTime    string   `json:"creation_time"`
	LastChangeTime  string   `json:"last_change_time"`

	// Description is the text of comment #0, filled in by Client.GetBug.
	Description string `json:"-"`

	url string
}

// Flag is a flag set on a bug, e.g. "requires_doc_text" or
// "jboss-eap-7.4.z".
type Flag struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Status    string `json:"status"`
	Setter    string `json:"setter"`
	Requestee string `json:"requestee,omitempty"`
}

// Comment is a single comment on a bug. Count 0 is the description.
type Comment struct {
	ID           int    `json:"id"`
	BugID        int    `json:"bug_id"`
	Count        int    `json:"count"`
	Text         string `json:"text"`
	Creator      string `json:"creator"`
	CreationTime string `json:"creation_time"`
	IsPrivate    bool   `json:"is_private"`
}

// commentsResponse is the response from GET /rest/bug/{id}/comment. Bugs
// are keyed by the bug id as a string.
type commentsResponse struct {
	Bugs map[string]struct {
		Comments []Comment `json:"comments"`
	} `json:"bugs"`
}

// errorResponse is the body Bugzilla returns on failure.
type errorResponse struct {
	Error   bool   `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}
