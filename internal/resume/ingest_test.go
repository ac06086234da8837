package resume

import (
	"strings"
	"testing"
)

func TestIngestPlainText(t *testing.T) {
	name, content, err := Ingest("My Resume.txt", []byte("John Doe\nSoftware Engineer"))
	if err != nil {
		t.Fatalf("Ingest returned error: %v", err)
	}
	if name != "My Resume" {
		t.Errorf("name = %q, want %q", name, "My Resume")
	}
	if content != "John Doe\nSoftware Engineer" {
		t.Errorf("content = %q, want verbatim text", content)
	}
}

func TestIngestRejectsUnsupportedType(t *testing.T) {
	for _, filename := range []string{"resume.docx", "resume.png", "resume", "resume.txt.exe"} {
		if _, _, err := Ingest(filename, []byte("x")); err != ErrUnsupportedType {
			t.Errorf("Ingest(%q) error = %v, want ErrUnsupportedType", filename, err)
		}
	}
}

func TestIngestRejectsOversizedFile(t *testing.T) {
	data := make([]byte, MaxFileSize+1)
	if _, _, err := Ingest("big.txt", data); err != ErrFileTooLarge {
		t.Errorf("error = %v, want ErrFileTooLarge", err)
	}

	// Exactly at the limit is fine.
	if _, _, err := Ingest("ok.txt", make([]byte, MaxFileSize)); err != nil {
		t.Errorf("Ingest at limit returned error: %v", err)
	}
}

func TestIngestCaseInsensitiveExtension(t *testing.T) {
	name, _, err := Ingest("Resume.TXT", []byte("hello"))
	if err != nil {
		t.Fatalf("Ingest returned error: %v", err)
	}
	if name != "Resume" {
		t.Errorf("name = %q, want %q", name, "Resume")
	}
}

func TestIngestMalformedPDF(t *testing.T) {
	_, _, err := Ingest("broken.pdf", []byte("this is not a pdf"))
	if err == nil {
		t.Fatal("Ingest of garbage PDF data expected an error")
	}
	if !strings.Contains(err.Error(), "extracting PDF text") {
		t.Errorf("error = %v, want an extraction error", err)
	}
}
