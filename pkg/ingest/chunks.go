package ingest

import (
	"fmt"
	"sort"
	"strings"

	"medscribe-be/internal/entity"
	"medscribe-be/pkg/utils"
)

// BuildChunks produces the index entries for one case: every non-empty line
// of each section as "SECTION: line", then one chunk per lab item. Lines
// longer than maxChars are split with a tenth overlap.
func BuildChunks(sections map[string]string, panels []entity.Panel, maxChars int) []string {
	keys := orderedSections(sections)

	var chunks []string
	for _, key := range keys {
		prefix := strings.ToUpper(key)
		for _, line := range strings.Split(sections[key], "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			for _, part := range utils.SplitText(line, maxChars, maxChars/10) {
				chunks = append(chunks, prefix+": "+part)
			}
		}
	}

	for _, p := range panels {
		for _, item := range p.Items {
			chunks = append(chunks, LabItemChunk(item))
		}
	}
	return chunks
}

// LabItemChunk renders "Name: value unit (ref: text)".
func LabItemChunk(item entity.LabItem) string {
	value := "n/a"
	if item.Result != nil {
		value = formatNumber(*item.Result)
	}
	text := fmt.Sprintf("%s: %s", item.Name, value)
	if item.Unit != "" {
		text += " " + item.Unit
	}
	if item.RefText != "" {
		text += fmt.Sprintf(" (ref: %s)", item.RefText)
	}
	return text
}

func orderedSections(sections map[string]string) []string {
	rank := make(map[string]int, len(sectionOrder))
	for i, k := range sectionOrder {
		rank[k] = i
	}
	keys := make([]string, 0, len(sections))
	for k := range sections {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ri, okI := rank[keys[i]]
		rj, okJ := rank[keys[j]]
		switch {
		case okI && okJ:
			return ri < rj
		case okI != okJ:
			return okI
		default:
			return keys[i] < keys[j]
		}
	})
	return keys
}
