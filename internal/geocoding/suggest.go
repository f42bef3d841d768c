package geocoding

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

// MunsterLocations feeds place autocompletion.
var MunsterLocations = []string{
	"bahnhof", "Prinzipalmarkt", "Schloss Münster", "Aasee", "Erbdrostenhof",
	"LWL-Museum für Kunst und Kultur", "Allwetterzoo Münster", "St. Paulus Dom",
	"Mauritzviertel", "Hafenviertel", "Stadthaus Münster", "Rathaus Münster",
	"Botanischer Garten", "Kiepenkerl", "Clemenskirche", "Kardinal-von-Galen-Ring",
	"Königsstraße", "Buddenturm", "Aegidiikirche", "Kunsthalle Münster", "Theater Münster",
	"Zooallee", "Hansaring", "Dreieinigkeitskirche", "Schlossplatz", "Kardinal-von-Galen-Platz",
	"Berliner Platz", "Hüfferstraße", "Coermühle", "Aaseeterrassen", "Ringstraße",
	"Sentruper Höhe", "Roxel", "Gievenbeck", "Kinderhaus", "Mecklenbeck",
	"Hiltrup", "Handorf", "Albachten", "Angelmodde", "Mauritzstraße",
	"Erbdrostenstraße", "Kardinal-von-Galen-Weg", "Klinikum Münster", "Lindenstraße",
	"Neubrückenstraße", "Rochusplatz", "Piusallee", "Alter Steinweg", "Domplatz",
}

// Suggest returns up to limit known places ranked by fuzzy match quality.
// A non-positive limit returns every match.
func Suggest(query string, limit int) []string {
	query = strings.TrimSpace(query)
	if query == "" {
		return []string{}
	}

	// match on lower-cased copies; indexes map back to the original names
	lowered := make([]string, len(MunsterLocations))
	for i, loc := range MunsterLocations {
		lowered[i] = strings.ToLower(loc)
	}

	matches := fuzzy.Find(strings.ToLower(query), lowered)

	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, MunsterLocations[m.Index])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
