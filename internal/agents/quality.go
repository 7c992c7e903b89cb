package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/nexgenlabs/studio/internal/port/provider"
)

// QCRule is one entry in the quality rule engine. Rules of a given type
// are selected by content type and scored against their threshold.
type QCRule struct {
	Name         string
	Criteria     []string
	Threshold    float64
	AutoApprove  bool
	RuleType     string
	Dependencies []string
	Enabled      bool
}

// Evaluation is the outcome of scoring an artifact against criteria.
type Evaluation struct {
	Score    float64  `json:"score"`
	Criteria []string `json:"criteria"`
	Notes    string   `json:"notes"`
}

// RuleResult records how a single rule scored.
type RuleResult struct {
	RuleName  string   `json:"rule_name"`
	RuleType  string   `json:"rule_type"`
	Score     float64  `json:"score"`
	Threshold float64  `json:"threshold"`
	Passed    bool     `json:"passed"`
	Notes     string   `json:"notes"`
	Criteria  []string `json:"criteria"`
}

// QCReport is the aggregate result of a quality workflow run.
type QCReport struct {
	OverallScore    float64      `json:"overall_score"`
	Passed          bool         `json:"passed"`
	RuleResults     []RuleResult `json:"rule_results"`
	Recommendations []string     `json:"recommendations"`
	ContentType     string       `json:"content_type"`
}

// PreviewValidation is the final pre-approval check on a preview.
type PreviewValidation struct {
	Approved bool     `json:"approved"`
	Score    float64  `json:"score"`
	Issues   []string `json:"issues"`
	Notes    string   `json:"notes"`
}

// QualityAgent scores generated content with the LLM and runs a
// configurable rule engine over it.
type QualityAgent struct {
	llm   provider.LLM
	rules []QCRule
}

// NewQualityAgent creates a quality agent seeded with the default rule set.
func NewQualityAgent(llm provider.LLM) *QualityAgent {
	a := &QualityAgent{llm: llm}
	a.AddRule(QCRule{Name: "content_quality", Criteria: []string{"quality", "relevance"}, Threshold: 0.7})
	a.AddRule(QCRule{Name: "completeness", Criteria: []string{"completeness", "coherence"}, Threshold: 0.6})
	a.AddRule(QCRule{Name: "technical_quality", Criteria: []string{"technical", "accuracy"}, Threshold: 0.75})
	a.AddRule(QCRule{Name: "character_consistency", Criteria: []string{"character", "consistency"}, Threshold: 0.8, RuleType: "consistency"})
	a.AddRule(QCRule{Name: "scene_continuity", Criteria: []string{"scene", "continuity"}, Threshold: 0.75, RuleType: "consistency"})
	a.AddRule(QCRule{Name: "style_consistency", Criteria: []string{"style", "consistency"}, Threshold: 0.7, RuleType: "consistency"})
	a.AddRule(QCRule{Name: "visual_coherence", Criteria: []string{"visual", "coherence"}, Threshold: 0.7, RuleType: "consistency"})
	return a
}

// AddRule registers a rule with the engine. An empty RuleType means "standard".
func (a *QualityAgent) AddRule(rule QCRule) {
	if rule.RuleType == "" {
		rule.RuleType = "standard"
	}
	rule.Enabled = true
	a.rules = append(a.rules, rule)
}

// EnableRule toggles a rule by name.
func (a *QualityAgent) EnableRule(name string, enabled bool) {
	for i := range a.rules {
		if a.rules[i].Name == name {
			a.rules[i].Enabled = enabled
			return
		}
	}
}

// RulesByType returns the enabled rules of the given type.
func (a *QualityAgent) RulesByType(ruleType string) []QCRule {
	var out []QCRule
	for _, r := range a.rules {
		if r.Enabled && r.RuleType == ruleType {
			out = append(out, r)
		}
	}
	return out
}

const evaluateArtifactLimit = 2000

// Evaluate scores an artifact against the given criteria. The score is
// pulled out of the free-text response heuristically and defaults to
// 0.8 when no usable number is present.
func (a *QualityAgent) Evaluate(ctx context.Context, artifact string, criteria []string) (Evaluation, error) {
	truncated := artifact
	if len(truncated) > evaluateArtifactLimit {
		truncated = truncated[:evaluateArtifactLimit]
	}
	prompt := fmt.Sprintf(
		"Evaluate the following text against these criteria: %s.\n"+
			"Provide a score from 0.0 to 1.0 and a brief justification.\n"+
			"Text: %s",
		strings.Join(criteria, ", "), truncated)

	response, err := a.llm.Complete(ctx, prompt, 0.1)
	if err != nil {
		return Evaluation{}, fmt.Errorf("evaluate: %w", err)
	}

	return Evaluation{
		Score:    extractScore(response),
		Criteria: criteria,
		Notes:    strings.TrimSpace(response),
	}, nil
}

// extractScore finds the first word shaped like a 0.x fraction in the
// response and returns it, falling back to 0.8.
func extractScore(response string) float64 {
	for _, word := range strings.Fields(response) {
		clean := strings.Trim(word, ".,;!?")
		if !strings.Contains(clean, "0.") {
			continue
		}
		val, err := strconv.ParseFloat(clean, 64)
		if err != nil {
			continue
		}
		if val >= 0 && val <= 1 {
			return val
		}
	}
	return 0.8
}

// RunQCWorkflow evaluates content against every applicable rule for the
// content type, honoring rule dependencies, and aggregates a weighted
// overall score. The pass threshold can be overridden via threshold (-1
// keeps the 0.7 default).
func (a *QualityAgent) RunQCWorkflow(ctx context.Context, content, contentType string, threshold float64) (QCReport, error) {
	report := QCReport{ContentType: contentType}
	executed := make(map[string]bool)

	for _, rule := range a.applicableRules(contentType) {
		if !rule.Enabled {
			continue
		}
		ready := true
		for _, dep := range rule.Dependencies {
			if !executed[dep] {
				ready = false
				break
			}
		}
		if !ready {
			continue
		}

		result := a.evaluateRule(ctx, rule, content)
		report.RuleResults = append(report.RuleResults, result)
		executed[rule.Name] = true

		if !result.Passed {
			report.Recommendations = append(report.Recommendations,
				fmt.Sprintf("rule %q did not pass: %s", rule.Name, result.Notes))
		} else if rule.AutoApprove {
			report.Passed = true
		}
	}

	report.OverallScore = overallScore(report.RuleResults, contentType)

	if !report.Passed {
		limit := threshold
		if limit < 0 {
			limit = 0.7
		}
		report.Passed = report.OverallScore >= limit
		if !report.Passed {
			report.Recommendations = append(report.Recommendations,
				fmt.Sprintf("overall quality score %.2f is below threshold %.2f", report.OverallScore, limit))
		}
	}
	return report, nil
}

func (a *QualityAgent) applicableRules(contentType string) []QCRule {
	switch contentType {
	case "creative":
		return append(a.RulesByType("creative"), a.RulesByType("standard")...)
	case "consistency":
		return append(a.RulesByType("consistency"), a.RulesByType("standard")...)
	default:
		var out []QCRule
		for _, r := range a.rules {
			if r.Enabled {
				out = append(out, r)
			}
		}
		return out
	}
}

func (a *QualityAgent) evaluateRule(ctx context.Context, rule QCRule, content string) RuleResult {
	eval, err := a.Evaluate(ctx, content, rule.Criteria)
	if err != nil {
		return RuleResult{
			RuleName:  rule.Name,
			RuleType:  rule.RuleType,
			Threshold: rule.Threshold,
			Notes:     fmt.Sprintf("rule evaluation failed: %v", err),
			Criteria:  rule.Criteria,
		}
	}
	return RuleResult{
		RuleName:  rule.Name,
		RuleType:  rule.RuleType,
		Score:     eval.Score,
		Threshold: rule.Threshold,
		Passed:    eval.Score >= rule.Threshold,
		Notes:     eval.Notes,
		Criteria:  rule.Criteria,
	}
}

// overallScore weights rule scores by content type; consistency runs
// weight the four consistency rules, creative runs weight the three
// base rules, anything else is a plain average.
func overallScore(results []RuleResult, contentType string) float64 {
	if len(results) == 0 {
		return 0.5
	}

	var weights map[string]float64
	switch contentType {
	case "consistency":
		weights = map[string]float64{
			"character_consistency": 0.3,
			"scene_continuity":      0.3,
			"style_consistency":     0.2,
			"visual_coherence":      0.2,
		}
	case "creative":
		weights = map[string]float64{
			"content_quality":   0.4,
			"completeness":      0.3,
			"technical_quality": 0.3,
		}
	}

	if len(weights) > 0 {
		var weightedSum, totalWeight float64
		for _, r := range results {
			w, ok := weights[r.RuleName]
			if !ok {
				w = 1.0 / float64(len(results))
			}
			weightedSum += r.Score * w
			totalWeight += w
		}
		if totalWeight == 0 {
			return 0.5
		}
		return weightedSum / totalWeight
	}

	var sum float64
	for _, r := range results {
		sum += r.Score
	}
	return sum / float64(len(results))
}

var jsonObjectPattern = regexp.MustCompile(`(?s)\{.+\}`)

// ValidatePreview asks the LLM for a final approval verdict on a
// preview. Borderline rejections (score at or above 0.4) are upgraded
// to approvals, and an unparseable response approves with a note so the
// pipeline never deadlocks on model formatting.
func (a *QualityAgent) ValidatePreview(ctx context.Context, preview, projectContext map[string]any) (PreviewValidation, error) {
	contentJSON, err := json.MarshalIndent(preview, "", "  ")
	if err != nil {
		return PreviewValidation{}, fmt.Errorf("encode preview: %w", err)
	}
	contextJSON := ""
	if len(projectContext) > 0 {
		raw, err := json.MarshalIndent(projectContext, "", "  ")
		if err != nil {
			return PreviewValidation{}, fmt.Errorf("encode project context: %w", err)
		}
		contextJSON = string(raw)
	}

	prompt := fmt.Sprintf(
		"Validate this preview content for final approval.\n"+
			"Preview Content:\n%s\n\n"+
			"Project Context:\n%s\n\n"+
			"Check for: visual quality, consistency, completeness, brand compliance.\n"+
			"Return JSON with 'approved' (bool), 'score' (float), 'issues' (list), 'notes' (string).",
		contentJSON, contextJSON)

	response, err := a.llm.Complete(ctx, prompt, 0.1)
	if err != nil {
		return PreviewValidation{}, fmt.Errorf("validate preview: %w", err)
	}

	if match := jsonObjectPattern.FindString(StripCodeFence(response)); match != "" {
		var parsed PreviewValidation
		if err := json.Unmarshal([]byte(match), &parsed); err == nil {
			if !parsed.Approved && parsed.Score >= 0.4 {
				parsed.Approved = true
			}
			if parsed.Notes == "" {
				parsed.Notes = strings.TrimSpace(response)
			}
			return parsed, nil
		}
	}

	return PreviewValidation{
		Approved: true,
		Score:    0.6,
		Issues:   []string{"Could not parse validation response"},
		Notes:    strings.TrimSpace(response),
	}, nil
}
