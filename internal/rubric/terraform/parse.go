package terraform

import (
	"regexp"
	"strings"
)

// Top-level HCL declarations are located by regex and their bodies recovered
// by brace counting. Braces inside heredocs and strings are counted too, so
// a body can over- or under-run; rule checks tolerate that the same way a
// text-level scan must.
var (
	resourceBlockPattern = regexp.MustCompile(`resource\s+"([^"]+)"\s+"([^"]+)"\s*\{`)
	variableBlockPattern = regexp.MustCompile(`variable\s+"([^"]+)"\s*\{`)
	outputBlockPattern   = regexp.MustCompile(`output\s+"([^"]+)"\s*\{`)
	dataBlockPattern     = regexp.MustCompile(`data\s+"([^"]+)"\s+"([^"]+)"\s*\{`)
	structurePattern     = regexp.MustCompile(`\bresource\s+"[^"]+"\s+"[^"]+"\s*\{`)
)

// resourceBlock is one resource declaration: its type label, its name, and
// the brace-delimited body including both braces.
type resourceBlock struct {
	rtype string
	name  string
	body  string
}

// namedBlock is a variable or output declaration with its body.
type namedBlock struct {
	name string
	body string
}

// dataBlock is one data source declaration. Rules only need its labels.
type dataBlock struct {
	dtype string
	name  string
}

// resourceBlocks returns every resource declaration in order of appearance.
func resourceBlocks(tf string) []resourceBlock {
	var blocks []resourceBlock
	for _, loc := range resourceBlockPattern.FindAllStringSubmatchIndex(tf, -1) {
		blocks = append(blocks, resourceBlock{
			rtype: tf[loc[2]:loc[3]],
			name:  tf[loc[4]:loc[5]],
			body:  blockBody(tf, loc[1]-1),
		})
	}
	return blocks
}

// variableBlocks returns every variable declaration in order of appearance.
func variableBlocks(tf string) []namedBlock {
	var blocks []namedBlock
	for _, loc := range variableBlockPattern.FindAllStringSubmatchIndex(tf, -1) {
		blocks = append(blocks, namedBlock{
			name: tf[loc[2]:loc[3]],
			body: blockBody(tf, loc[1]-1),
		})
	}
	return blocks
}

// outputBlocks returns every output declaration in order of appearance.
func outputBlocks(tf string) []namedBlock {
	var blocks []namedBlock
	for _, loc := range outputBlockPattern.FindAllStringSubmatchIndex(tf, -1) {
		blocks = append(blocks, namedBlock{
			name: tf[loc[2]:loc[3]],
			body: blockBody(tf, loc[1]-1),
		})
	}
	return blocks
}

// dataBlocks returns every data source declaration in order of appearance.
func dataBlocks(tf string) []dataBlock {
	var blocks []dataBlock
	for _, m := range dataBlockPattern.FindAllStringSubmatch(tf, -1) {
		blocks = append(blocks, dataBlock{dtype: m[1], name: m[2]})
	}
	return blocks
}

// blockBody returns the brace-delimited body starting at the opening brace,
// closing brace included. An unbalanced block runs to the end of the text.
func blockBody(text string, open int) string {
	depth := 0
	for i := open; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[open : i+1]
			}
		}
	}
	return text[open:]
}

// validateStructure checks that the configuration declares at least one
// resource block.
func validateStructure(tf string) (bool, []string) {
	if strings.TrimSpace(tf) == "" {
		return false, []string{"empty terraform configuration"}
	}

	var errs []string
	if !structurePattern.MatchString(tf) {
		errs = append(errs, "no resource blocks found")
	}
	return len(errs) == 0, errs
}
