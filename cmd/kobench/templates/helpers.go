package templates

import (
	"strings"
)

// Results is everything a report renders.
type Results struct {
	Title     string
	Generated string
	Deferred  bool
	Sections  []*Section
}

type Section struct {
	Name   string
	Header []string
	Rows   [][]string
}

func tableRow(cells []string) string {
	var sb strings.Builder
	sb.WriteString("|")
	for _, cell := range cells {
		sb.WriteString(" ")
		sb.WriteString(strings.ReplaceAll(cell, "|", `\|`))
		sb.WriteString(" |")
	}
	return sb.String()
}

func separatorRow(count int) string {
	var sb strings.Builder
	sb.WriteString("|")
	for i := 0; i < count; i++ {
		sb.WriteString(" --- |")
	}
	return sb.String()
}
