package extract

import "strings"

// Mock texts stand in for documents whose text layer cannot be read, so the
// wizard can still be walked through end to end.
const (
	mockCalendar = `CALENDARIO DIDATTICO
Sicurezza sul lavoro - 15/01/2024 09:00 - 13:00 - Ufficio
Sicurezza sul lavoro - 16/01/2024 09:00 - 18:00 - Ufficio
Normativa di settore - 17/01/2024 14:00 - 17:00 - Online`

	mockRoster = `ELENCO PARTECIPANTI
1 ROSSI MARIO RSSMRA80A01H501U Via Roma 10, Roma
2 BIANCHI ANNA BNCNNA85M41F205X Corso Milano 5, Milano`

	mockCourse = `ID Progetto: PRJ-DEMO-001
ID Sezione: SEZ-01
Titolo corso: Corso dimostrativo
Sede: Roma
Docente: Docente dimostrativo
Data inizio: 15/01/2024
Data fine: 17/01/2024`
)

type mockEntry struct {
	keys []string
	text string
}

// mockTable is matched against the lower-cased file name; first hit wins.
var mockTable = []mockEntry{
	{keys: []string{"calendario"}, text: mockCalendar},
	{keys: []string{"partecipanti", "allievi", "iscritti"}, text: mockRoster},
	{keys: []string{"progetto", "corso"}, text: mockCourse},
}

// MockText returns the stand-in text for a document called name.
func MockText(name string) string {
	lower := strings.ToLower(name)
	for _, e := range mockTable {
		for _, k := range e.keys {
			if strings.Contains(lower, k) {
				return e.text
			}
		}
	}
	return mockCourse + "\n\n" + mockCalendar + "\n\n" + mockRoster
}
