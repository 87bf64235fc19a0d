package service

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

type CatalogCourse struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Duration    string   `json:"duration,omitempty"`
	Level       string   `json:"level,omitempty"`
	Skills      []string `json:"skills,omitempty"`
	Projects    []string `json:"projects,omitempty"`
	CareerPaths []string `json:"career_paths,omitempty"`
}

type CatalogCategory struct {
	Name    string          `json:"name"`
	Courses []CatalogCourse `json:"courses"`
}

type CourseCatalog struct {
	Categories []CatalogCategory `json:"categories"`
}

// LoadCourseCatalog reads the catalog JSON from disk. A missing or broken
// catalog is not fatal; lookups then fall back to minimal course info.
func LoadCourseCatalog(path string) (*CourseCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var catalog CourseCatalog
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, err
	}
	return &catalog, nil
}

// FindCourse looks up a course by name, case-insensitively. Unknown courses
// get a minimal placeholder so generation can still proceed.
func (c *CourseCatalog) FindCourse(name string) CatalogCourse {
	if c != nil {
		for _, category := range c.Categories {
			for _, course := range category.Courses {
				if strings.EqualFold(course.Name, name) {
					return course
				}
			}
		}
	}
	return CatalogCourse{Name: name, Description: "Course information not available"}
}

func formatCourseDetails(course CatalogCourse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Course: %s\n\n", course.Name)
	fmt.Fprintf(&b, "Description: %s\n\n", course.Description)
	if course.Duration != "" {
		fmt.Fprintf(&b, "Duration: %s\n", course.Duration)
	}
	if course.Level != "" {
		fmt.Fprintf(&b, "Level: %s\n\n", course.Level)
	}
	if len(course.Skills) > 0 {
		b.WriteString("Skills You'll Learn:\n")
		for _, skill := range course.Skills {
			fmt.Fprintf(&b, "- %s\n", skill)
		}
		b.WriteString("\n")
	}
	if len(course.Projects) > 0 {
		b.WriteString("Projects You'll Build:\n")
		for _, project := range course.Projects {
			fmt.Fprintf(&b, "- %s\n", project)
		}
		b.WriteString("\n")
	}
	if len(course.CareerPaths) > 0 {
		b.WriteString("Career Opportunities:\n")
		for _, career := range course.CareerPaths {
			fmt.Fprintf(&b, "- %s\n", career)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// buildDocumentContent assembles the structured course document uploaded to
// the retrieval service before quiz generation.
func buildDocumentContent(courseName string, course CatalogCourse, courseDescription string) string {
	return fmt.Sprintf(`COURSE: %s

DESCRIPTION: %s

DETAILED COURSE INFORMATION:
%s
EDUCATIONAL CONTEXT:
This course is designed to provide comprehensive knowledge and practical skills.
Students will gain hands-on experience through real-world projects and exercises.
The curriculum follows industry best practices and includes the latest technologies and methodologies.
`, courseName, courseDescription, formatCourseDetails(course))
}
