package ai

import (
	"regexp"
	"sort"
	"strings"
)

type keyword struct {
	word       string
	department string
	re         *regexp.Regexp
}

var departmentKeywords = compileKeywords([][2]string{
	{"dentist", "Dentistry"},
	{"dental", "Dentistry"},
	{"doctor", "General Medicine"},
	{"physician", "General Medicine"},
	{"eye", "Ophthalmology"},
	{"opthal", "Ophthalmology"},
	{"cardiac", "Cardiology"},
	{"heart", "Cardiology"},
	{"cardio", "Cardiology"},
	{"cardiologist", "Cardiology"},
	{"derma", "Dermatology"},
	{"skin", "Dermatology"},
	{"dermatologist", "Dermatology"},
	{"dermatology", "Dermatology"},
	{"neuro", "Neurology"},
	{"neurologist", "Neurology"},
	{"brain", "Neurology"},
	{"ortho", "Orthopedics"},
	{"orthopedic", "Orthopedics"},
	{"bone", "Orthopedics"},
	{"ent", "ENT"},
	{"ear", "ENT"},
	{"nose", "ENT"},
	{"throat", "ENT"},
	{"gastro", "Gastroenterology"},
	{"stomach", "Gastroenterology"},
	{"gastroenterologist", "Gastroenterology"},
	{"pediatric", "Pediatrics"},
	{"child", "Pediatrics"},
	{"children", "Pediatrics"},
	{"gynec", "Gynecology"},
	{"gynaecologist", "Gynecology"},
	{"obgyn", "Gynecology"},
	{"psych", "Psychiatry"},
	{"psychiatrist", "Psychiatry"},
	{"mental", "Psychiatry"},
})

func compileKeywords(pairs [][2]string) []keyword {
	out := make([]keyword, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, keyword{
			word:       p[0],
			department: p[1],
			re:         regexp.MustCompile(`\b` + regexp.QuoteMeta(p[0]) + `\b`),
		})
	}
	return out
}

// Departments returns the canonical department names, sorted.
func Departments() []string {
	seen := make(map[string]bool)
	var out []string
	for _, k := range departmentKeywords {
		if !seen[k.department] {
			seen[k.department] = true
			out = append(out, k.department)
		}
	}
	sort.Strings(out)
	return out
}

// FindDepartment returns the department of the keyword occurring earliest in
// text. When two keywords start at the same offset the longer one wins.
func FindDepartment(text string) string {
	lower := strings.ToLower(text)
	best, bestAt := -1, -1
	for i, k := range departmentKeywords {
		loc := k.re.FindStringIndex(lower)
		if loc == nil {
			continue
		}
		switch {
		case best < 0, loc[0] < bestAt:
			best, bestAt = i, loc[0]
		case loc[0] == bestAt && len(k.word) > len(departmentKeywords[best].word):
			best = i
		}
	}
	if best < 0 {
		return ""
	}
	return departmentKeywords[best].department
}

// CanonicalDepartment maps a free-form department name onto the canonical
// list. Unknown names map to the empty string.
func CanonicalDepartment(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	for _, d := range Departments() {
		if strings.EqualFold(d, name) {
			return d
		}
	}
	return FindDepartment(name)
}
