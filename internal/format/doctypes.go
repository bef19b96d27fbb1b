package format

import (
	"regexp"
	"strings"
)

type fieldRule struct {
	label   string
	pattern *regexp.Regexp
}

// docType pairs lowercase signal phrases with an output template. New types
// are added by appending an entry; control flow never changes.
type docType struct {
	name    string
	title   string
	signals []string
	fields  []fieldRule
}

var (
	reName = regexp.MustCompile(`(?i)\bname[:\s]+([A-Z][A-Za-z .]+)`)
	reDOB  = regexp.MustCompile(`(?i)(?:date of birth|dob|d\.o\.b)[.:\s]+([0-9]{1,2}[-/.][0-9]{1,2}[-/.][0-9]{2,4})`)
)

// docTypes is evaluated first-match-wins; the ordering is significant and
// load-bearing for documents that carry signals of more than one type.
var docTypes = []docType{
	{
		name:    "driving-licence",
		title:   "DRIVING LICENCE",
		signals: []string{"driving licence", "driving license", "dlno", "dl no"},
		fields: []fieldRule{
			{"Name", reName},
			{"DL Number", regexp.MustCompile(`(?i)dl\s*no[.:\s]*([A-Z0-9/-]+)`)},
			{"Date of Birth", reDOB},
			{"Valid Till", regexp.MustCompile(`(?i)valid\s*(?:till|upto|until)[.:\s]*([0-9]{1,2}[-/.][0-9]{1,2}[-/.][0-9]{2,4})`)},
		},
	},
	{
		name:    "admit-card",
		title:   "ADMIT CARD",
		signals: []string{"admit card", "hall ticket", "examination"},
		fields: []fieldRule{
			{"Name", reName},
			{"Roll Number", regexp.MustCompile(`(?i)roll\s*no[.:\s]*([A-Z0-9/-]+)`)},
			{"Exam", regexp.MustCompile(`(?i)examination[:\s]+([A-Za-z0-9 ,.-]+)`)},
			{"Centre", regexp.MustCompile(`(?i)centre[:\s]+([A-Za-z0-9 ,.-]+)`)},
		},
	},
	{
		name:    "mark-sheet",
		title:   "MARK SHEET",
		signals: []string{"mark sheet", "marksheet", "grade sheet"},
		fields: []fieldRule{
			{"Name", reName},
			{"Roll Number", regexp.MustCompile(`(?i)roll\s*no[.:\s]*([A-Z0-9/-]+)`)},
			{"Total Marks", regexp.MustCompile(`(?i)total\s*marks[.:\s]*([0-9]+)`)},
			{"Result", regexp.MustCompile(`(?i)result[:\s]+([A-Za-z ]+)`)},
		},
	},
	{
		name:    "passport",
		title:   "PASSPORT",
		signals: []string{"passport"},
		fields: []fieldRule{
			{"Name", reName},
			{"Passport No", regexp.MustCompile(`(?i)passport\s*no[.:\s]*([A-Z][0-9]{7})`)},
			{"Date of Birth", reDOB},
			{"Nationality", regexp.MustCompile(`(?i)nationality[:\s]+([A-Za-z ]+)`)},
		},
	},
	{
		name:    "aadhaar",
		title:   "AADHAAR CARD",
		signals: []string{"aadhaar", "aadhar", "uid"},
		fields: []fieldRule{
			{"Name", reName},
			{"Aadhaar No", regexp.MustCompile(`\b([0-9]{4}\s[0-9]{4}\s[0-9]{4})\b`)},
			{"Date of Birth", reDOB},
		},
	},
	{
		name:    "pan-card",
		title:   "PAN CARD",
		signals: []string{"pan card", "permanent account number", "income tax"},
		fields: []fieldRule{
			{"Name", reName},
			{"PAN", regexp.MustCompile(`\b([A-Z]{5}[0-9]{4}[A-Z])\b`)},
			{"Date of Birth", reDOB},
		},
	},
	{
		name:    "voter-id",
		title:   "VOTER ID",
		signals: []string{"voter id", "epic", "election commission"},
		fields: []fieldRule{
			{"Name", reName},
			{"EPIC No", regexp.MustCompile(`(?i)epic\s*no[.:\s]*([A-Z0-9]+)`)},
			{"Date of Birth", reDOB},
		},
	},
	{
		name:    "birth-certificate",
		title:   "BIRTH CERTIFICATE",
		signals: []string{"birth certificate", "certificate of birth"},
		fields: []fieldRule{
			{"Name", reName},
			{"Date of Birth", reDOB},
			{"Place of Birth", regexp.MustCompile(`(?i)place\s*of\s*birth[:\s]+([A-Za-z ,.-]+)`)},
			{"Registration No", regexp.MustCompile(`(?i)registration\s*no[.:\s]*([A-Z0-9/-]+)`)},
		},
	},
	{
		name:    "invoice",
		title:   "INVOICE / RECEIPT",
		signals: []string{"invoice", "bill", "receipt"},
		fields: []fieldRule{
			{"Invoice No", regexp.MustCompile(`(?i)invoice\s*(?:no|number)[.:\s#]*([A-Z0-9/-]+)`)},
			{"Date", regexp.MustCompile(`(?i)\bdate[:\s]+([0-9]{1,2}[-/.][0-9]{1,2}[-/.][0-9]{2,4})`)},
			{"Total", regexp.MustCompile(`(?i)(?:grand\s*)?total[:\s]*(?:rs\.?|inr|\$|€)?\s*([0-9,]+(?:\.[0-9]{1,2})?)`)},
		},
	},
}

// detect scans lowercased text for the first matching document type.
// Signals are matched as plain substrings.
func detect(lower string) *docType {
	for i := range docTypes {
		for _, signal := range docTypes[i].signals {
			if strings.Contains(lower, signal) {
				return &docTypes[i]
			}
		}
	}
	return nil
}
