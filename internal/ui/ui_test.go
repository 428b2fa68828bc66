package ui

import (
	"errors"
	"strings"
	"testing"
)

func TestTableRenderPlain(t *testing.T) {
	SetPlain(true)

	out := NewTable("ADDRESS", "ZONE", "LABEL").
		AddRow("0x1100", "5", "Lobby").
		AddRow("0x1200", "16").
		Render()

	want := "ADDRESS  ZONE  LABEL\n" +
		"0x1100   5     Lobby\n" +
		"0x1200   16\n"
	if out != want {
		t.Errorf("Render() =\n%s\nwant\n%s", out, want)
	}
}

func TestResultRenderPlain(t *testing.T) {
	SetPlain(true)

	out := NewSuccessResult("Gain set").
		AddDetail("Zone", "Lobby").
		AddDetail("Gain", "0.032").
		Render()
	if !strings.HasPrefix(out, SuccessMarker+" Gain set\n") {
		t.Errorf("unexpected title line: %q", out)
	}
	if !strings.Contains(out, "  Zone: Lobby\n") {
		t.Errorf("details should be aligned, got %q", out)
	}

	out = NewFailureResult("Gain not set", errors.New("Device timeout")).Render()
	if !strings.Contains(out, FailureMarker) || !strings.Contains(out, "Device timeout") {
		t.Errorf("failure render = %q", out)
	}
}

func TestBanner(t *testing.T) {
	SetPlain(true)
	out := Banner("mezzobridge", Detail{"Port", "/dev/ttyUSB0"})
	if out != "mezzobridge\n  Port: /dev/ttyUSB0\n" {
		t.Errorf("Banner() = %q", out)
	}
}
