// Package intent maps free-text dashboard questions to canned security
// guidance using an ordered keyword rule table.
package intent

import (
	"math/rand"
	"strings"

	"github.com/zhouzirui/threat-desk/backend/internal/model/chat"
	"github.com/zhouzirui/threat-desk/backend/internal/model/threat"
)

// Name labels the rule that produced a reply.
type Name string

const (
	ThreatDetail     Name = "threat_detail"
	ThreatResolution Name = "threat_resolution"
	BruteForce       Name = "brute_force"
	Malware          Name = "malware"
	Intrusion        Name = "intrusion"
	DataBreach       Name = "data_breach"
	Ransomware       Name = "ransomware"
	BestPractices    Name = "best_practices"
	Help             Name = "help"
	Greeting         Name = "greeting"
	SeverityLevels   Name = "severity"
	Fallback         Name = "fallback"
)

// Reply is the generator output for one user turn.
type Reply struct {
	Intent   Name
	Text     string
	Category chat.Category
}

// Rand picks the fallback prompt. *rand.Rand satisfies it.
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.Intn(n) }

type rule struct {
	name    Name
	match   func(input string, alerts []threat.Alert) bool
	respond func(alerts []threat.Alert) string
}

// rules is evaluated top to bottom; the first match wins. Threat-aware rules
// sit above the attack-family keywords so the live context takes priority.
var rules = []rule{
	{
		name: ThreatDetail,
		match: func(input string, alerts []threat.Alert) bool {
			return len(alerts) > 0 && containsAny(input, "current", "active", "threat")
		},
		respond: func(alerts []threat.Alert) string { return threatDetail(alerts[0]) },
	},
	{
		name: ThreatResolution,
		match: func(input string, alerts []threat.Alert) bool {
			return len(alerts) > 0 && containsAny(input, "resolve", "fix", "solve")
		},
		respond: func(alerts []threat.Alert) string { return threatResolution(alerts[0]) },
	},
	keywordRule(BruteForce, bruteForceReply, "brute force", "failed login"),
	keywordRule(Malware, malwareReply, "malware", "virus"),
	keywordRule(Intrusion, intrusionReply, "intrusion", "unauthorized"),
	keywordRule(DataBreach, dataBreachReply, "data breach", "breach"),
	keywordRule(Ransomware, ransomwareReply, "ransomware"),
	keywordRule(BestPractices, bestPracticesReply, "best practices", "prevention"),
	keywordRule(Help, helpReply, "help", "what can you do"),
	keywordRule(Greeting, greetingReply, "hello", "hi"),
	keywordRule(SeverityLevels, severityReply, "severity", "critical", "high", "medium", "low"),
}

func keywordRule(name Name, text string, keywords ...string) rule {
	return rule{
		name: name,
		match: func(input string, _ []threat.Alert) bool {
			return containsAny(input, keywords...)
		},
		respond: func([]threat.Alert) string { return text },
	}
}

// Generator produces replies. The zero value is not usable; call New.
type Generator struct {
	rnd Rand
}

// Option customises a Generator.
type Option func(*Generator)

// WithRand overrides the source used to pick fallback prompts.
func WithRand(r Rand) Option {
	return func(g *Generator) {
		if r != nil {
			g.rnd = r
		}
	}
}

// New returns a Generator backed by the global random source.
func New(opts ...Option) *Generator {
	g := &Generator{rnd: globalRand{}}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate classifies input against the current threat context. Alerts are
// read only; alerts[0] is treated as the current threat.
func (g *Generator) Generate(input string, alerts []threat.Alert) Reply {
	normalized := strings.ToLower(input)

	for _, r := range rules {
		if r.match(normalized, alerts) {
			text := r.respond(alerts)
			return Reply{Intent: r.name, Text: text, Category: Categorize(text)}
		}
	}

	text := FallbackReplies[g.rnd.IntN(len(FallbackReplies))]
	return Reply{Intent: Fallback, Text: text, Category: Categorize(text)}
}

// Categorize tags guidance-style text as a solution and everything else as
// information.
func Categorize(text string) chat.Category {
	if strings.Contains(text, "recommend") || strings.Contains(text, "step") {
		return chat.CategorySolution
	}
	return chat.CategoryInfo
}

func containsAny(text string, keywords ...string) bool {
	for _, word := range keywords {
		if strings.Contains(text, word) {
			return true
		}
	}
	return false
}
