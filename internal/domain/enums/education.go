package enums

import "strings"

type Education string

const (
	EducationHighSchool  Education = "high_school"
	EducationSomeCollege Education = "some_college"
	EducationBachelors   Education = "bachelors"
	EducationMasters     Education = "masters"
	EducationPhD         Education = "phd"
)

var educationLevels = map[Education]int{
	EducationHighSchool:  1,
	EducationSomeCollege: 2,
	EducationBachelors:   3,
	EducationMasters:     4,
	EducationPhD:         5,
}

func NormalizeEducation(raw string) Education {
	return Education(strings.ToLower(strings.TrimSpace(raw)))
}

// Level returns the ordinal position of e, or 0 when e is not on the scale.
func (e Education) Level() int {
	return educationLevels[e]
}
