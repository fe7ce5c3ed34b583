package llm

import (
	"strings"
)

const SystemPrompt = "You are an expert resume parser. Extract structured data from resume text and return it as a valid JSON object."

// responseShape is shown to the model verbatim; it mirrors entity.ParsedData.
const responseShape = `{
  "fullName": "Full name of the person",
  "email": "Email address",
  "phone": "Phone number",
  "address": "Full address",
  "skills": ["skill1", "skill2", "skill3"],
  "linkedinLink": "LinkedIn profile URL",
  "githubLink": "GitHub profile URL",
  "experience": [
    {
      "company": "Company name",
      "position": "Job title/position",
      "startDate": "Start date",
      "endDate": "End date (or 'Present' if current)",
      "description": "Job description/responsibilities",
      "isCurrent": false
    }
  ],
  "education": [
    {
      "institution": "School/University name",
      "degree": "Degree type (Bachelor's, Master's, etc.)",
      "fieldOfStudy": "Field of study/major",
      "startDate": "Start date",
      "endDate": "End date",
      "gpa": "GPA if mentioned",
      "description": "Additional details"
    }
  ],
  "projects": [
    {
      "name": "Project name",
      "description": "Project description",
      "technologies": ["tech1", "tech2"],
      "startDate": "Start date",
      "endDate": "End date",
      "link": "Project link if available"
    }
  ],
  "summary": "Professional summary/objective",
  "languages": ["Language1", "Language2"],
  "certifications": ["Certification1", "Certification2"]
}`

var promptRules = []string{
	"If any field is not found in the resume, use null or empty array []",
	`For dates, use the format as mentioned in the resume or "Present" for current positions`,
	"Extract all skills, technologies, and programming languages mentioned",
	"For experience and education, extract all entries found",
	"Be thorough in extracting information but don't make up information that's not present",
	"Return ONLY the JSON object, no additional text or explanations",
}

// BuildUserPrompt embeds the target shape and the resume text.
func BuildUserPrompt(resumeText string) string {
	var b strings.Builder
	b.WriteString("Please extract and structure the following resume information into a JSON format. ")
	b.WriteString("Return ONLY a valid JSON object with the following structure:\n\n")
	b.WriteString(responseShape)
	b.WriteString("\n\nResume text to analyze:\n")
	b.WriteString(resumeText)
	b.WriteString("\n\nImportant instructions:\n")
	for _, r := range promptRules {
		b.WriteString("- ")
		b.WriteString(r)
		b.WriteString("\n")
	}
	return b.String()
}
