package format

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/leowzz/docsmith/internal/models"
)

func TestNormalizeCollapsesWhitespace(t *testing.T) {
	in := "Name:   John\t Doe\r\n\r\n\r\nAddress:  12  Main St\n"
	want := "Name: John Doe\n\nAddress: 12 Main St"
	require.Equal(t, want, Normalize(in))
}

func TestNormalizeIsIdempotent(t *testing.T) {
	inputs := []string{
		"a  b\n\n\nc",
		"\n\n  leading and trailing  \n\n",
		"already\nnormalized",
		"",
	}
	for _, in := range inputs {
		once := Normalize(in)
		require.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestOutputDefaultTemplate(t *testing.T) {
	out := Output("some extracted   text", "notes.png", models.KindImage)

	lines := strings.Split(out, "\n")
	require.Equal(t, "File: notes.png [image]", lines[0])
	require.Equal(t, separator, lines[1])
	require.Equal(t, "some extracted text", lines[2])
	require.Equal(t, separator, lines[3])
}

func TestOutputDetectsDrivingLicence(t *testing.T) {
	text := "Driving Licence\nName: Rahul Sharma\nDL No: MH12 20110012345\nDOB: 01-02-1990\nValid Till: 31-12-2030"
	out := Output(text, "dl.jpg", models.KindImage)

	require.Contains(t, out, "DRIVING LICENCE")
	require.Contains(t, out, "Name          : Rahul Sharma")
	require.Contains(t, out, "DL Number     : MH12")
	require.Contains(t, out, "Date of Birth : 01-02-1990")
	require.Contains(t, out, "--- Full Text ---")
}

func TestOutputOmitsAbsentFields(t *testing.T) {
	out := Output("Passport\nNationality: Indian", "p.jpg", models.KindImage)

	require.Contains(t, out, "PASSPORT")
	require.Contains(t, out, "Nationality   : Indian")
	require.NotContains(t, out, "Passport No")
	require.NotContains(t, out, "Date of Birth")
}

func TestDetectFirstMatchWins(t *testing.T) {
	// Carries signals of both a driving licence and an invoice; the table
	// order decides.
	dt := detect(strings.ToLower("Driving Licence issued. Invoice No: 42"))
	require.NotNil(t, dt)
	require.Equal(t, "driving-licence", dt.name)
}

func TestDetectTableOrderIsStable(t *testing.T) {
	wantOrder := []string{
		"driving-licence",
		"admit-card",
		"mark-sheet",
		"passport",
		"aadhaar",
		"pan-card",
		"voter-id",
		"birth-certificate",
		"invoice",
	}
	require.Len(t, docTypes, len(wantOrder))
	for i, dt := range docTypes {
		require.Equal(t, wantOrder[i], dt.name)
	}
}

func TestDetectUnknownReturnsNil(t *testing.T) {
	require.Nil(t, detect("just some ordinary meeting notes"))
}
