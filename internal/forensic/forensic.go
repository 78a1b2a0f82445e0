// Package forensic extracts embedded capture metadata from an image payload
// and flags provenance gaps or editing-tool signatures.
package forensic

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
)

// editingTools are authoring-tool names whose presence in the EXIF Software
// tag marks the image as post-processed. Matched case-insensitively as
// substrings.
var editingTools = []string{
	"photoshop",
	"gimp",
	"lightroom",
	"snapseed",
	"picsart",
	"facetune",
	"canva",
	"pixlr",
	"affinity",
}

// Report is the result of a provenance inspection. Inspect is total: every
// payload produces a Report, never an error.
type Report struct {
	HasProvenance bool     `json:"has_provenance"`
	Suspicious    bool     `json:"suspicious"`
	Timestamp     string   `json:"timestamp,omitempty"`
	CameraModel   string   `json:"camera_model,omitempty"`
	Software      string   `json:"software,omitempty"`
	Flags         []string `json:"flags"`
}

// Inspect parses embedded EXIF metadata from the payload. Missing or corrupt
// metadata degrades to HasProvenance=false with an explanatory flag; a known
// editing tool in the Software tag sets Suspicious.
func Inspect(payload []byte) (report Report) {
	report.Flags = []string{}

	// goexif panics on some malformed TIFF structures; the inspection stage
	// must stay total, so a panic degrades to the no-provenance outcome.
	defer func() {
		if r := recover(); r != nil {
			report = Report{
				HasProvenance: false,
				Flags:         []string{"metadata parsing failed: malformed container"},
			}
		}
	}()

	x, err := exif.Decode(bytes.NewReader(payload))
	if err != nil {
		report.Flags = append(report.Flags,
			"no provenance metadata, consistent with a screenshot or re-saved image")
		return report
	}

	report.HasProvenance = true
	report.Timestamp = tagString(x, exif.DateTimeOriginal)
	if report.Timestamp == "" {
		report.Timestamp = tagString(x, exif.DateTime)
	}

	make := tagString(x, exif.Make)
	model := tagString(x, exif.Model)
	report.CameraModel = strings.TrimSpace(strings.TrimSpace(make) + " " + strings.TrimSpace(model))

	report.Software = tagString(x, exif.Software)
	if report.Software != "" {
		lower := strings.ToLower(report.Software)
		for _, tool := range editingTools {
			if strings.Contains(lower, tool) {
				report.Suspicious = true
				report.Flags = append(report.Flags,
					fmt.Sprintf("image processed with editing tool: %s", tool))
				break
			}
		}
	}

	return report
}

func tagString(x *exif.Exif, name exif.FieldName) string {
	tag, err := x.Get(name)
	if err != nil {
		return ""
	}
	s, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return strings.Trim(s, "\x00 ")
}
