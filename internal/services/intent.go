package services

import (
	"regexp"
	"strconv"
	"strings"
)

// Intent is the response strategy chosen for a user message.
type Intent int

const (
	// IntentPlain answers from the model alone.
	IntentPlain Intent = iota
	// IntentGreeting responds to a short social greeting.
	IntentGreeting
	// IntentWebSearch augments the answer with fresh web evidence.
	IntentWebSearch
)

func (i Intent) String() string {
	switch i {
	case IntentGreeting:
		return "greeting"
	case IntentWebSearch:
		return "web_search"
	default:
		return "plain"
	}
}

var greetingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bhi\b`),
	regexp.MustCompile(`\bhello\b`),
	regexp.MustCompile(`\bhey\b`),
	regexp.MustCompile(`good (morning|afternoon|evening|night)`),
	regexp.MustCompile(`how are you\??`),
	regexp.MustCompile(`what'?s up\??`),
	regexp.MustCompile(`how'?s it going\??`),
}

var recencyKeywords = []string{
	"today", "yesterday", "breaking", "currently", "latest", "last week",
	"last month", "this week", "this month", "just happened", "right now",
	"live", "update", "recent", "ongoing", "news", "recently",
}

var yearPattern = regexp.MustCompile(`\b(20\d{2})\b`)

// ClassifyIntent decides the response strategy for a message. Pure and
// deterministic: greeting patterns win over everything, then recency signals
// (keyword or a year strictly greater than cutoffYear), otherwise plain.
func ClassifyIntent(message string, cutoffYear int) Intent {
	lower := strings.ToLower(message)

	for _, pattern := range greetingPatterns {
		if pattern.MatchString(lower) {
			return IntentGreeting
		}
	}

	for _, keyword := range recencyKeywords {
		if strings.Contains(lower, keyword) {
			return IntentWebSearch
		}
	}

	for _, match := range yearPattern.FindAllString(lower, -1) {
		year, err := strconv.Atoi(match)
		if err == nil && year > cutoffYear {
			return IntentWebSearch
		}
	}

	return IntentPlain
}
