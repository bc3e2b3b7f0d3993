package engine

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/aleister1102/jssecretscanner/internal/entropy"
	"github.com/aleister1102/jssecretscanner/internal/patterns"
)

// Stage names, indexed by stage number. Index 0 is the accepted marker.
var stageNames = []string{
	"accepted",
	"min_length",
	"denylist",
	"code_fragment",
	"symbol_density",
	"whitespace_density",
	"common_identifier",
	"category_validator",
	"html_tag",
	"image_data",
	"entropy",
	"repeated_character",
	"test_data",
	"short_ascii",
	"path_format",
	"quality_score",
	"post_filter",
}

// StagePostFilter is the stage number reported for post-filter rejections.
const StagePostFilter = 16

// StageName returns the name of a stage number.
func StageName(stage int) string {
	if stage < 0 || stage >= len(stageNames) {
		return fmt.Sprintf("stage_%d", stage)
	}
	return stageNames[stage]
}

// StageNames lists the filter stage names in order, post-filter included.
func StageNames() []string {
	return append([]string(nil), stageNames[1:]...)
}

var (
	codeIndicators = compileAll(
		`^\s*\)\s*[,;]?\s*$`,
		`^\s*\}\s*[,;]?\s*$`,
		`^\s*[,;]\s*$`,
		`^(?:null|true|false|undefined|NaN)$`,
		`^[a-zA-Z]$`,
		`^function\s*\(`,
		`^(?:var|let|const)\s+`,
		`^(?:if|for|while|switch)\s*\(`,
		`^return\b`,
		`^(?:console|window|document)\.`,
	)
	codeOperators = []string{"=>", "&&", "||", "===", "!=="}

	htmlTagRegex  = regexp.MustCompile(`<[^>]+>`)
	imagePrefixes = []string{"iVBORw0KGgo", "/9j/", "R0lGOD", "UklGR", "PHN2Zy"}
	testDataRegex = regexp.MustCompile(`(?i)^(?:test|example|demo|sample|placeholder|dummy|fake|your[_-])|lorem|ipsum|example\.(?:com|org|net)`)
	pathRegex     = regexp.MustCompile(`^/[A-Za-z0-9_\-./~%:@+=,!]*$`)

	commonIdentifiers = entropy.NewSet(
		"length", "width", "height", "value", "name", "type", "class", "id",
		"style", "href", "src", "alt", "title", "className", "onClick",
		"onChange", "onSubmit", "innerHTML", "textContent", "display", "none",
		"block", "hidden", "visible", "color", "background", "border", "margin",
		"padding", "position", "absolute", "relative", "function", "object",
		"string", "number", "boolean", "prototype", "constructor", "default",
		"undefined", "children", "props", "state", "content", "target",
	)
)

func compileAll(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, expr := range exprs {
		out[i] = regexp.MustCompile(`(?i)` + expr)
	}
	return out
}

// candidate is the per-match state threaded through the stages.
type candidate struct {
	value    string
	length   int
	rule     *patterns.Rule
	category *compiledCategory
	t        *Thresholds
}

// stageFunc returns a non-empty reason to reject.
type stageFunc func(c *candidate) string

var stages = []stageFunc{
	checkMinLength,
	checkDenylist,
	checkCodeFragment,
	checkSymbolDensity,
	checkWhitespaceDensity,
	checkCommonIdentifier,
	checkValidator,
	checkHTMLTag,
	checkImageData,
	checkEntropy,
	checkRepeatedCharacters,
	checkTestData,
	checkShortASCII,
	checkPathFormat,
	checkQualityScore,
}

func checkMinLength(c *candidate) string {
	if c.length < c.rule.MinLength {
		return fmt.Sprintf("length %d below rule minimum %d", c.length, c.rule.MinLength)
	}
	return ""
}

func checkDenylist(c *candidate) string {
	if c.category.denylist.Contains(c.value) {
		return "category denylist"
	}
	if c.category.ruleExcludes[c.rule.ID].Contains(c.value) {
		return "rule exclude list"
	}
	return ""
}

func checkCodeFragment(c *candidate) string {
	if !c.category.Numeric && entropy.IsDigits(strings.TrimSpace(c.value)) {
		return "bare number"
	}
	for _, re := range codeIndicators {
		if re.MatchString(c.value) {
			return "code fragment " + re.String()
		}
	}
	for _, op := range codeOperators {
		if strings.Contains(c.value, op) {
			return "code operator " + op
		}
	}
	if !balanced(c.value) {
		return "unbalanced brackets"
	}
	return ""
}

func balanced(s string) bool {
	var paren, square, curly int
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			paren++
		case ')':
			paren--
		case '[':
			square++
		case ']':
			square--
		case '{':
			curly++
		case '}':
			curly--
		}
		if paren < 0 || square < 0 || curly < 0 {
			return false
		}
	}
	return paren == 0 && square == 0 && curly == 0
}

func checkSymbolDensity(c *candidate) string {
	if r := entropy.BracketRatio(c.value); r > c.t.MaxBracketRatio {
		return fmt.Sprintf("bracket ratio %.2f", r)
	}
	if r := entropy.SymbolRatio(c.value); r > c.category.MaxSymbolRatio {
		return fmt.Sprintf("symbol ratio %.2f above %.2f", r, c.category.MaxSymbolRatio)
	}
	return ""
}

func checkWhitespaceDensity(c *candidate) string {
	if r := entropy.WhitespaceRatio(c.value); r > c.t.MaxWhitespaceRatio {
		return fmt.Sprintf("whitespace ratio %.2f", r)
	}
	return ""
}

func checkCommonIdentifier(c *candidate) string {
	if commonIdentifiers.Contains(c.value) {
		return "common identifier"
	}
	return ""
}

func checkValidator(c *candidate) string {
	if c.category.validator != nil && !c.category.validator(c.value) {
		return c.category.Validator + " validation failed"
	}
	return ""
}

func checkHTMLTag(c *candidate) string {
	if htmlTagRegex.MatchString(c.value) {
		return "html markup"
	}
	return ""
}

func checkImageData(c *candidate) string {
	if strings.Contains(strings.ToLower(c.value), "data:image/") {
		return "data uri image"
	}
	for _, prefix := range imagePrefixes {
		if strings.HasPrefix(c.value, prefix) {
			return "base64 image " + prefix
		}
	}
	return ""
}

func checkEntropy(c *candidate) string {
	minimum := c.category.MinEntropy
	if minimum <= 0 {
		return ""
	}
	if c.t.MinEntropy > 0 {
		minimum = c.t.MinEntropy
	}
	if h := entropy.Shannon(c.value); h < minimum {
		return fmt.Sprintf("entropy %.2f below %.2f", h, minimum)
	}
	return ""
}

func checkRepeatedCharacters(c *candidate) string {
	if r := entropy.UniqueRatio(c.value); r < c.t.MinUniqueRatio {
		return fmt.Sprintf("unique ratio %.2f", r)
	}
	if r := entropy.LongestRunRatio(c.value); r > c.t.MaxRunRatio {
		return fmt.Sprintf("repeated run ratio %.2f", r)
	}
	return ""
}

func checkTestData(c *candidate) string {
	if testDataRegex.MatchString(c.value) {
		return "test data marker"
	}
	if c.t.MinAscendingRun > 0 && entropy.LongestAscendingRun(c.value) >= c.t.MinAscendingRun {
		return "ascending sequence"
	}
	return ""
}

func checkShortASCII(c *candidate) string {
	if !entropy.IsASCIIAlnum(c.value) || c.length >= c.t.ShortValueLength {
		return ""
	}
	if c.length < c.t.ShortMinLength {
		return "short alphanumeric value"
	}
	if h := entropy.Shannon(c.value); h < c.t.ShortMinEntropy {
		return fmt.Sprintf("short alphanumeric value with entropy %.2f", h)
	}
	return ""
}

func checkPathFormat(c *candidate) string {
	if !c.category.PathLike {
		return ""
	}
	path, _, _ := strings.Cut(c.value, "?")
	if !pathRegex.MatchString(path) {
		return "not a path"
	}
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for _, segment := range segments {
		if segment == "" {
			return "empty path segment"
		}
	}
	if len(segments) < 2 && utf8.RuneCountInString(path) < c.t.MinSingleSegmentPathLength {
		return "short single-segment path"
	}
	return ""
}

func checkQualityScore(c *candidate) string {
	if minimum := c.t.SeverityMinLength[c.rule.Severity]; c.length < minimum {
		return fmt.Sprintf("length %d below %s minimum %d", c.length, c.rule.Severity, minimum)
	}
	threshold, ok := c.t.Quality[c.rule.Severity]
	if !ok {
		return ""
	}
	score := QualityScore(c.value, c.rule.MinLength, c.category.ExpectedEntropy, *c.t)
	if score < threshold {
		return fmt.Sprintf("quality %.2f below %s threshold %.2f", score, c.rule.Severity, threshold)
	}
	return ""
}
