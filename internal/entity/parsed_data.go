package entity

// ParsedData is the structured extraction target. Its JSON field names are the
// contract with the AI provider and the export document, hence camelCase.
type ParsedData struct {
	FullName       *string      `json:"fullName"`
	Email          *string      `json:"email"`
	Phone          *string      `json:"phone"`
	Address        *string      `json:"address"`
	Summary        *string      `json:"summary"`
	LinkedinLink   *string      `json:"linkedinLink"`
	GithubLink     *string      `json:"githubLink"`
	Skills         []string     `json:"skills"`
	Languages      []string     `json:"languages"`
	Certifications []string     `json:"certifications"`
	Experience     []Experience `json:"experience"`
	Education      []Education  `json:"education"`
	Projects       []Project    `json:"projects"`
}

type Experience struct {
	Company     string `json:"company"`
	Position    string `json:"position"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Description string `json:"description"`
	IsCurrent   bool   `json:"isCurrent"`
}

type Education struct {
	Institution  string `json:"institution"`
	Degree       string `json:"degree"`
	FieldOfStudy string `json:"fieldOfStudy"`
	StartDate    string `json:"startDate"`
	EndDate      string `json:"endDate"`
	GPA          string `json:"gpa"`
	Description  string `json:"description"`
}

type Project struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Technologies []string `json:"technologies"`
	StartDate    string   `json:"startDate"`
	EndDate      string   `json:"endDate"`
	Link         string   `json:"link"`
}

// EmptyParsedData is the value stored before parsing completes: every list
// present and empty, every scalar null.
func EmptyParsedData() ParsedData {
	return ParsedData{
		Skills:         []string{},
		Languages:      []string{},
		Certifications: []string{},
		Experience:     []Experience{},
		Education:      []Education{},
		Projects:       []Project{},
	}
}

// Normalized replaces nil lists with empty ones so JSON never carries null lists.
func (p ParsedData) Normalized() ParsedData {
	if p.Skills == nil {
		p.Skills = []string{}
	}
	if p.Languages == nil {
		p.Languages = []string{}
	}
	if p.Certifications == nil {
		p.Certifications = []string{}
	}
	if p.Experience == nil {
		p.Experience = []Experience{}
	}
	if p.Education == nil {
		p.Education = []Education{}
	}
	if p.Projects == nil {
		p.Projects = []Project{}
	}
	for i := range p.Projects {
		if p.Projects[i].Technologies == nil {
			p.Projects[i].Technologies = []string{}
		}
	}
	return p
}
