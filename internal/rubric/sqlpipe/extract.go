package sqlpipe

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mrz1836/verdict/internal/domain"
	"github.com/mrz1836/verdict/internal/extract"
)

// Model files arrive as ```sql fenced blocks, each normally preceded by a
// filename comment within the four lines above the fence:
//
//	-- models/staging/stg_orders.sql
//	```sql
//	SELECT ...
//	```
//
// A block without a filename comment falls back to the first line inside the
// block, then to a positional unnamed_N placeholder.
var (
	fenceOpenPattern   = regexp.MustCompile("(?i)^```sql\\s*$")
	filenamePattern    = regexp.MustCompile(`--\s*(?:models/\S+/)?(\w+)\.sql`)
	singleFencePattern = regexp.MustCompile("(?s)```sql\\s*\n(.*?)\n\\s*```")
)

// locate finds the model files inside an unwrapped envelope.
func locate(env extract.Envelope) domain.ExtractedArtifact {
	if strings.TrimSpace(env.Raw()) == "" {
		return domain.ExtractedArtifact{Method: domain.MethodNone, Failed: true, Error: "empty output"}
	}

	text := env.Text
	method := domain.MethodFencedBlock
	if upper := strings.ToUpper(text); !strings.Contains(upper, "SELECT") && !strings.Contains(upper, "WITH") {
		if content, ok := env.DenialContent(); ok {
			denied := strings.ToUpper(content)
			if strings.Contains(denied, "SELECT") || strings.Contains(denied, "WITH") {
				text = content
				method = domain.MethodPermissionDenials
			}
		}
	}

	files := scanModels(text)
	if len(files) == 0 {
		// A lone unannounced block still counts as a one-model pipeline.
		if m := singleFencePattern.FindStringSubmatch(text); m != nil {
			files = append(files, domain.ArtifactFile{Name: "unnamed_1", Content: strings.TrimSpace(m[1])})
		}
	}
	if len(files) == 0 {
		return domain.ExtractedArtifact{
			Method: domain.MethodNone,
			Failed: true,
			Error:  "could not extract any SQL model files from output",
		}
	}
	return domain.ExtractedArtifact{Files: files, Method: method}
}

// scanModels walks the text line by line, collecting every ```sql fenced
// block and pairing it with the nearest filename comment above the fence.
// A repeated name overwrites the earlier content but keeps its position, so
// file order always reflects first appearance.
func scanModels(text string) []domain.ArtifactFile {
	var files []domain.ArtifactFile
	lines := strings.Split(text, "\n")
	for i := 0; i < len(lines); i++ {
		if !fenceOpenPattern.MatchString(strings.TrimSpace(lines[i])) {
			continue
		}

		name := ""
		for j := i - 1; j >= 0 && j >= i-4; j-- {
			if m := filenamePattern.FindStringSubmatch(strings.TrimSpace(lines[j])); m != nil {
				name = m[1]
				break
			}
		}

		var body []string
		i++
		for i < len(lines) && !strings.HasPrefix(strings.TrimSpace(lines[i]), "```") {
			body = append(body, lines[i])
			i++
		}

		sql := strings.TrimSpace(strings.Join(body, "\n"))
		if sql == "" {
			continue
		}
		if name == "" {
			first := strings.TrimSpace(strings.SplitN(sql, "\n", 2)[0])
			if m := filenamePattern.FindStringSubmatch(first); m != nil {
				name = m[1]
			} else {
				name = fmt.Sprintf("unnamed_%d", len(files)+1)
			}
		}
		files = upsertFile(files, name, sql)
	}
	return files
}

// upsertFile replaces the content of an existing name in place or appends a
// new file at the end.
func upsertFile(files []domain.ArtifactFile, name, sql string) []domain.ArtifactFile {
	for k := range files {
		if files[k].Name == name {
			files[k].Content = sql
			return files
		}
	}
	return append(files, domain.ArtifactFile{Name: name, Content: sql})
}
