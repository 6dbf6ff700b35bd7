package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/giygas/protocolos-api/prescription"
	"github.com/giygas/protocolos-api/protocolparser/entities"
	"github.com/giygas/protocolos-api/schedule"
)

const protocolSheet = `Protocolo,Tipo,Dias,Medicamento,Dose,Via Adm,Tempo de Infusao,Ciclos,Diagnostico Associado,Potencial Emetogenico
FOLFOX,PRE-QT,D1,Ondansetrona,8 mg,EV,15 min,12,Colorretal,Moderado
FOLFOX,QT,D1,Oxaliplatina,85 mg/m2,EV,2h,12,Colorretal,Moderado
FOLFOX,QT,"D1,D2",Leucovorina,400 mg/m2,EV,2h,12,Colorretal,Moderado
AC-T,QT,D1 a D3,Doxorrubicina,60 mg/m2,EV,30 min,4,Mama,Alto
`

const cidSheet = `CID,Significado
C18,Neoplasia maligna do cólon
C50,Neoplasia maligna da mama
`

// setupSheets serves both sheets and points the configuration at them
func setupSheets(t *testing.T) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/protocolos.csv":
			_, _ = w.Write([]byte(protocolSheet))
		case "/cids.csv":
			_, _ = w.Write([]byte(cidSheet))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	t.Setenv("ENV", "test")
	t.Setenv("PROTOCOLS_URL", server.URL+"/protocolos.csv")
	t.Setenv("CIDS_URL", server.URL+"/cids.csv")
	t.Setenv("DOWNLOAD_RETRIES", "0")
	t.Setenv("DOWNLOAD_TIMEOUT_SECONDS", "5")
}

// runCommand executes the root command with args and returns stdout
func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--env-file=" + t.TempDir() + "/missing.env"}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestScheduleCommand(t *testing.T) {
	setupSheets(t)

	out, err := runCommand(t, "schedule",
		"--protocol", "folfox",
		"--weight", "70", "--height", "170",
		"--start", "2024-03-01",
		"--name", "Maria Silva")
	if err != nil {
		t.Fatalf("schedule failed: %v", err)
	}

	for _, want := range []string{
		"Maria Silva",
		"FOLFOX",
		"PRÉ-MEDICAÇÃO",
		"Ondansetrona",
		"TRATAMENTO",
		"Oxaliplatina",
		"01/03/2024",
		"02/03/2024",
		prescription.NotInformed,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestScheduleCommandJSON(t *testing.T) {
	setupSheets(t)

	out, err := runCommand(t, "schedule",
		"-p", "AC-T", "--weight", "60", "--height", "160", "--start", "2024-03-01", "--json")
	if err != nil {
		t.Fatalf("schedule failed: %v", err)
	}

	var view prescription.View
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(view.PreMedication) != 0 {
		t.Errorf("Expected no pre-medication, got %d", len(view.PreMedication))
	}
	if len(view.Treatment) != 3 {
		t.Fatalf("Expected 3 treatment entries, got %d", len(view.Treatment))
	}
	if view.Treatment[2].Date != schedule.NewDate(2024, 3, 3) {
		t.Errorf("Third entry date = %s, want 2024-03-03", view.Treatment[2].Date)
	}
}

func TestScheduleCommandErrors(t *testing.T) {
	setupSheets(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown protocol", []string{"-p", "FOLF", "--weight", "70", "--height", "170"}, "FOLFOX"},
		{"invalid start", []string{"-p", "FOLFOX", "--weight", "70", "--height", "170", "--start", "01/03/2024"}, "--start"},
		{"zero weight", []string{"-p", "FOLFOX", "--weight", "0", "--height", "170"}, "weightKg"},
		{"missing protocol", []string{"--weight", "70", "--height", "170"}, "protocol"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCommand(t, append([]string{"schedule"}, tt.args...)...)
			if err == nil {
				t.Fatal("Expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should mention %q", err, tt.want)
			}
		})
	}
}

func TestProtocolsCommand(t *testing.T) {
	setupSheets(t)

	out, err := runCommand(t, "protocols")
	if err != nil {
		t.Fatalf("protocols failed: %v", err)
	}
	if !strings.Contains(out, "FOLFOX") || !strings.Contains(out, "AC-T") {
		t.Errorf("Expected both protocols, got:\n%s", out)
	}

	out, err = runCommand(t, "protocols", "ac")
	if err != nil {
		t.Fatalf("protocols search failed: %v", err)
	}
	if strings.TrimSpace(out) != "AC-T" {
		t.Errorf("Search output = %q, want AC-T", out)
	}

	out, err = runCommand(t, "protocols", "--show", "folfox")
	if err != nil {
		t.Fatalf("protocols --show failed: %v", err)
	}
	if !strings.Contains(out, "1 pré-medicação, 2 tratamento") || !strings.Contains(out, "Leucovorina") {
		t.Errorf("Unexpected --show output:\n%s", out)
	}

	if _, err := runCommand(t, "protocols", "--show", "XELOX"); err == nil {
		t.Error("Expected an error for an unknown protocol")
	}
}

func TestCIDsCommand(t *testing.T) {
	setupSheets(t)

	out, err := runCommand(t, "cids", "mama")
	if err != nil {
		t.Fatalf("cids failed: %v", err)
	}
	if !strings.Contains(out, "C50") || strings.Contains(out, "C18") {
		t.Errorf("Unexpected cids output:\n%s", out)
	}

	if _, err := runCommand(t, "cids"); err == nil {
		t.Error("Expected an error without a query")
	}
}

func TestSheetLoadFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(server.Close)
	t.Setenv("ENV", "test")
	t.Setenv("PROTOCOLS_URL", server.URL+"/protocolos.csv")
	t.Setenv("CIDS_URL", server.URL+"/cids.csv")
	t.Setenv("DOWNLOAD_RETRIES", "0")

	if _, err := runCommand(t, "protocols"); err == nil {
		t.Error("Expected an error when the sheets cannot be downloaded")
	}
}

func TestInvalidConfiguration(t *testing.T) {
	t.Setenv("ENV", "qa")

	_, err := runCommand(t, "protocols")
	if err == nil || !strings.Contains(err.Error(), "ENV") {
		t.Errorf("Expected an ENV validation error, got %v", err)
	}
}

func TestPrintEntriesEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := printEntries(&buf, "PRÉ-MEDICAÇÃO", nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), prescription.NoItems) {
		t.Errorf("Expected %q, got %q", prescription.NoItems, buf.String())
	}
}

func TestPrintCIDs(t *testing.T) {
	var buf bytes.Buffer
	err := printCIDs(&buf, []entities.CID{{Code: "C50", Meaning: "Neoplasia maligna da mama"}})
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected header and one row, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[1], "C50") {
		t.Errorf("Row = %q", lines[1])
	}
}
