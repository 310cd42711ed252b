package clickup

// Workspace is a ClickUp team.
type Workspace struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Space is a space inside a workspace.
type Space struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Folder groups lists inside a space.
type Folder struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Lists []List `json:"lists"`
}

// List holds tasks.
type List struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Field is a custom field definition on a list.
type Field struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
}

// Task is the part of a created task the caller reports.
type Task struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

type teamsResponse struct {
	Teams []Workspace `json:"teams"`
}

type spacesResponse struct {
	Spaces []Space `json:"spaces"`
}

type foldersResponse struct {
	Folders []Folder `json:"folders"`
}

type listsResponse struct {
	Lists []List `json:"lists"`
}

type fieldsResponse struct {
	Fields []Field `json:"fields"`
}

type errorResponse struct {
	Err  string `json:"err"`
	Code string `json:"ECODE"`
}
