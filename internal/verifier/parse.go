package verifier

import (
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"

	"github.com/proovit/proovit/internal/model"
)

const (
	defaultVerifiedScore   = 0.9
	defaultRejectedScore   = 0.3
	heuristicScore         = 0.5
	defaultReason          = "No explanation provided."
	defaultHeuristicReason = "Unable to verify the image clearly."
)

var (
	codeFenceOpen  = regexp.MustCompile("```(?:json|JSON)?\\s*")
	affirmativeCue = []string{"yes", "verified", "correct", "shows", "appears to"}
)

// decision is what the model was asked to produce. Fields are untyped so a
// wrong type for one field does not throw away the rest of the object.
type decision struct {
	Verified   any    `json:"verified"`
	Confidence any    `json:"confidence"`
	Score      any    `json:"score"`
	Reasoning  string `json:"reasoning"`
	Reason     string `json:"reason"`
}

// ParseVerdict turns free-form model output into a verdict in two stages.
// First it strips code fences and decodes the JSON object it finds. If that
// fails it scans the raw text for affirmative cues, scores 0.5, and uses the
// text itself as the reason. It never fails.
func ParseVerdict(raw string) model.Verdict {
	text := stripCodeFence(raw)

	d, ok := parseStructured(text)
	if !ok {
		slog.Warn("verifier response not structured, using keyword fallback", "response", truncate(text, 200))
		return heuristicVerdict(text)
	}

	verified, _ := d.Verified.(bool)

	confidence, present := number(d.Confidence)
	if !present {
		confidence, present = number(d.Score)
	}
	if !present {
		confidence = defaultRejectedScore
		if verified {
			confidence = defaultVerifiedScore
		}
	}

	reason := strings.TrimSpace(d.Reasoning)
	if reason == "" {
		reason = strings.TrimSpace(d.Reason)
	}
	if reason == "" {
		reason = defaultReason
	}

	return model.Verdict{
		Verified: verified,
		Score:    clamp(confidence),
		Reason:   reason,
	}
}

func stripCodeFence(s string) string {
	s = codeFenceOpen.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

func parseStructured(text string) (decision, bool) {
	var d decision
	if json.Unmarshal([]byte(text), &d) == nil {
		return d, true
	}

	// Tolerate prose around a single JSON object.
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return decision{}, false
	}

	d = decision{}
	if json.Unmarshal([]byte(text[start:end+1]), &d) != nil {
		return decision{}, false
	}
	return d, true
}

func heuristicVerdict(text string) model.Verdict {
	lower := strings.ToLower(text)

	verified := false
	for _, cue := range affirmativeCue {
		if strings.Contains(lower, cue) {
			verified = true
			break
		}
	}

	reason := text
	if reason == "" {
		reason = defaultHeuristicReason
	}

	return model.Verdict{
		Verified: verified,
		Score:    heuristicScore,
		Reason:   reason,
	}
}

func number(v any) (float64, bool) {
	f, ok := v.(float64)
	return f, ok
}

func clamp(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
