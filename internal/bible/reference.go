package bible

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Reference is a parsed verse reference such as "1 John 3:16-18"
type Reference struct {
	Book       string
	BookID     string
	Chapter    int
	VerseStart int
	VerseEnd   int
}

// ValidationResult is the outcome of checking a reference string
type ValidationResult struct {
	IsValid bool   `json:"isValid"`
	Error   string `json:"error,omitempty"`
}

type book struct {
	name     string
	id       string
	chapters int
	aliases  []string
}

var books = []book{
	{"Genesis", "GEN", 50, []string{"gen", "ge", "gn"}},
	{"Exodus", "EXO", 40, []string{"exo", "ex", "exod"}},
	{"Leviticus", "LEV", 27, []string{"lev", "le", "lv"}},
	{"Numbers", "NUM", 36, []string{"num", "nu", "nm"}},
	{"Deuteronomy", "DEU", 34, []string{"deut", "deu", "dt"}},
	{"Joshua", "JOS", 24, []string{"josh", "jos"}},
	{"Judges", "JDG", 21, []string{"judg", "jdg", "jg"}},
	{"Ruth", "RUT", 4, []string{"rut", "ru"}},
	{"1 Samuel", "1SA", 31, []string{"1 sam", "1 sa", "1sam"}},
	{"2 Samuel", "2SA", 24, []string{"2 sam", "2 sa", "2sam"}},
	{"1 Kings", "1KI", 22, []string{"1 kgs", "1 ki", "1kgs"}},
	{"2 Kings", "2KI", 25, []string{"2 kgs", "2 ki", "2kgs"}},
	{"1 Chronicles", "1CH", 29, []string{"1 chr", "1 ch", "1chr"}},
	{"2 Chronicles", "2CH", 36, []string{"2 chr", "2 ch", "2chr"}},
	{"Ezra", "EZR", 10, []string{"ezr"}},
	{"Nehemiah", "NEH", 13, []string{"neh", "ne"}},
	{"Esther", "EST", 10, []string{"esth", "est"}},
	{"Job", "JOB", 42, []string{"jb"}},
	{"Psalms", "PSA", 150, []string{"psalm", "ps", "psa", "pss"}},
	{"Proverbs", "PRO", 31, []string{"prov", "pro", "pr", "prv"}},
	{"Ecclesiastes", "ECC", 12, []string{"eccl", "ecc", "ec"}},
	{"Song of Solomon", "SNG", 8, []string{"song of songs", "song", "sos"}},
	{"Isaiah", "ISA", 66, []string{"isa", "is"}},
	{"Jeremiah", "JER", 52, []string{"jer", "je"}},
	{"Lamentations", "LAM", 5, []string{"lam", "la"}},
	{"Ezekiel", "EZK", 48, []string{"ezek", "eze", "ezk"}},
	{"Daniel", "DAN", 12, []string{"dan", "da", "dn"}},
	{"Hosea", "HOS", 14, []string{"hos", "ho"}},
	{"Joel", "JOL", 3, []string{"joe", "jl"}},
	{"Amos", "AMO", 9, []string{"amo", "am"}},
	{"Obadiah", "OBA", 1, []string{"obad", "ob"}},
	{"Jonah", "JON", 4, []string{"jon", "jnh"}},
	{"Micah", "MIC", 7, []string{"mic", "mi"}},
	{"Nahum", "NAM", 3, []string{"nah", "na"}},
	{"Habakkuk", "HAB", 3, []string{"hab", "hb"}},
	{"Zephaniah", "ZEP", 3, []string{"zeph", "zep"}},
	{"Haggai", "HAG", 2, []string{"hag", "hg"}},
	{"Zechariah", "ZEC", 14, []string{"zech", "zec"}},
	{"Malachi", "MAL", 4, []string{"mal"}},
	{"Matthew", "MAT", 28, []string{"matt", "mat", "mt"}},
	{"Mark", "MRK", 16, []string{"mrk", "mk", "mar"}},
	{"Luke", "LUK", 24, []string{"luk", "lk"}},
	{"John", "JHN", 21, []string{"jhn", "jn", "joh"}},
	{"Acts", "ACT", 28, []string{"act", "ac"}},
	{"Romans", "ROM", 16, []string{"rom", "ro", "rm"}},
	{"1 Corinthians", "1CO", 16, []string{"1 cor", "1 co", "1cor"}},
	{"2 Corinthians", "2CO", 13, []string{"2 cor", "2 co", "2cor"}},
	{"Galatians", "GAL", 6, []string{"gal", "ga"}},
	{"Ephesians", "EPH", 6, []string{"eph"}},
	{"Philippians", "PHP", 4, []string{"phil", "php"}},
	{"Colossians", "COL", 4, []string{"col"}},
	{"1 Thessalonians", "1TH", 5, []string{"1 thess", "1 th", "1thess"}},
	{"2 Thessalonians", "2TH", 3, []string{"2 thess", "2 th", "2thess"}},
	{"1 Timothy", "1TI", 6, []string{"1 tim", "1 ti", "1tim"}},
	{"2 Timothy", "2TI", 4, []string{"2 tim", "2 ti", "2tim"}},
	{"Titus", "TIT", 3, []string{"tit"}},
	{"Philemon", "PHM", 1, []string{"philem", "phm"}},
	{"Hebrews", "HEB", 13, []string{"heb"}},
	{"James", "JAS", 5, []string{"jas", "jm"}},
	{"1 Peter", "1PE", 5, []string{"1 pet", "1 pe", "1pet"}},
	{"2 Peter", "2PE", 3, []string{"2 pet", "2 pe", "2pet"}},
	{"1 John", "1JN", 5, []string{"1 jn", "1 jhn", "1jn"}},
	{"2 John", "2JN", 1, []string{"2 jn", "2 jhn", "2jn"}},
	{"3 John", "3JN", 1, []string{"3 jn", "3 jhn", "3jn"}},
	{"Jude", "JUD", 1, []string{"jud", "jd"}},
	{"Revelation", "REV", 22, []string{"rev", "re", "revelations"}},
}

var bookIndex = buildBookIndex()

func buildBookIndex() map[string]*book {
	index := make(map[string]*book, len(books)*4)
	for i := range books {
		b := &books[i]
		index[strings.ToLower(b.name)] = b
		for _, alias := range b.aliases {
			index[alias] = b
		}
	}
	return index
}

// book, chapter, optional verse, optional range end
var referencePattern = regexp.MustCompile(`^((?:[1-3]\s*)?[A-Za-z][A-Za-z .]*?)\.?\s+(\d+)(?::(\d+)(?:\s*-\s*(\d+))?)?$`)

var spaceRun = regexp.MustCompile(`\s+`)

// ParseReference parses a reference of the form "[1-3 ]Book Chapter[:Verse[-Verse]]"
func ParseReference(s string) (*Reference, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("reference is required")
	}

	m := referencePattern.FindStringSubmatch(s)
	if m == nil {
		return nil, fmt.Errorf("invalid reference format %q, expected Book Chapter:Verse", s)
	}

	b := lookupBook(m[1])
	if b == nil {
		return nil, fmt.Errorf("unknown book %q", strings.TrimSpace(m[1]))
	}

	ref := &Reference{Book: b.name, BookID: b.id}
	ref.Chapter, _ = strconv.Atoi(m[2])
	if ref.Chapter < 1 || ref.Chapter > b.chapters {
		return nil, fmt.Errorf("%s has %d chapters", b.name, b.chapters)
	}

	if m[3] != "" {
		ref.VerseStart, _ = strconv.Atoi(m[3])
		if ref.VerseStart < 1 {
			return nil, fmt.Errorf("verse must be at least 1")
		}
		ref.VerseEnd = ref.VerseStart
	}
	if m[4] != "" {
		ref.VerseEnd, _ = strconv.Atoi(m[4])
		if ref.VerseEnd < ref.VerseStart {
			return nil, fmt.Errorf("verse range end %d is before start %d", ref.VerseEnd, ref.VerseStart)
		}
	}
	return ref, nil
}

func lookupBook(raw string) *book {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.TrimSuffix(key, ".")
	key = spaceRun.ReplaceAllString(key, " ")
	if b, ok := bookIndex[key]; ok {
		return b
	}
	// "1john" and "1 john" are both common
	if len(key) > 1 && key[0] >= '1' && key[0] <= '3' && key[1] != ' ' {
		if b, ok := bookIndex[key[:1]+" "+key[1:]]; ok {
			return b
		}
	}
	return nil
}

// ValidateReference reports whether s parses as a reference
func ValidateReference(s string) ValidationResult {
	if _, err := ParseReference(s); err != nil {
		return ValidationResult{IsValid: false, Error: err.Error()}
	}
	return ValidationResult{IsValid: true}
}

// String renders the canonical form, e.g. "John 3:16-18"
func (r *Reference) String() string {
	switch {
	case r.VerseStart == 0:
		return fmt.Sprintf("%s %d", r.Book, r.Chapter)
	case r.VerseEnd > r.VerseStart:
		return fmt.Sprintf("%s %d:%d-%d", r.Book, r.Chapter, r.VerseStart, r.VerseEnd)
	default:
		return fmt.Sprintf("%s %d:%d", r.Book, r.Chapter, r.VerseStart)
	}
}

// PassageID renders the USFM passage id used by API.Bible, e.g. "JHN.3.16-JHN.3.18"
func (r *Reference) PassageID() string {
	if r.VerseStart == 0 {
		return fmt.Sprintf("%s.%d", r.BookID, r.Chapter)
	}
	start := fmt.Sprintf("%s.%d.%d", r.BookID, r.Chapter, r.VerseStart)
	if r.VerseEnd > r.VerseStart {
		return fmt.Sprintf("%s-%s.%d.%d", start, r.BookID, r.Chapter, r.VerseEnd)
	}
	return start
}
