package agents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/nexgenlabs/studio/internal/domain/general"
	"github.com/nexgenlabs/studio/internal/port/provider"
	"github.com/nexgenlabs/studio/internal/tooling"
)

// ToolRuntime is the slice of the tool runtime the ReAct loop needs:
// listing tools for the prompt and dispatching actions.
type ToolRuntime interface {
	Tools() []tooling.Tool
	Execute(ctx context.Context, req tooling.Request) (*tooling.Result, error)
}

// GeneralAgent answers free-form queries with a ReAct loop: the model
// alternates Thought/Action/Observation turns against the tool runtime
// until it emits a Final Answer or the step limit runs out.
type GeneralAgent struct {
	llm provider.LLM
}

func NewGeneralAgent(llm provider.LLM) *GeneralAgent {
	return &GeneralAgent{llm: llm}
}

const stepLimitAnswer = "I could not answer the question within the step limit."

var (
	actionPattern      = regexp.MustCompile(`Action:\s*(.*?)\n`)
	actionInputPattern = regexp.MustCompile(`(?s)Action Input:\s*(.*)`)
)

// ReactLoop runs the loop for a query. Ordinary tool failures become
// observation turns so the model can recover; guardrail interrupts
// bubble up unmodified so the orchestrator can pause the session.
func (a *GeneralAgent) ReactLoop(ctx context.Context, query string, runtime ToolRuntime, maxSteps int) (string, error) {
	history := fmt.Sprintf("%s\n\nQuestion: %s\n", a.systemPrompt(runtime), query)

	for step := 0; step < maxSteps; step++ {
		response, err := a.llm.Complete(ctx, history, 0.0)
		if err != nil {
			return "", fmt.Errorf("react step %d: %w", step+1, err)
		}
		history += response + "\n"

		if strings.Contains(response, "Final Answer:") {
			parts := strings.Split(response, "Final Answer:")
			return strings.TrimSpace(parts[len(parts)-1]), nil
		}

		if !strings.Contains(response, "Action:") || !strings.Contains(response, "Action Input:") {
			// Model produced neither an action nor a final answer;
			// treat the response itself as the answer.
			return strings.TrimSpace(response), nil
		}

		observation, err := a.act(ctx, runtime, response)
		if err != nil {
			return "", err
		}
		history += observation + "\n"
	}

	return stepLimitAnswer, nil
}

func (a *GeneralAgent) systemPrompt(runtime ToolRuntime) string {
	tools := runtime.Tools()
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name() < tools[j].Name() })

	var lines []string
	for _, tool := range tools {
		schema := "{}"
		if raw, err := json.MarshalIndent(tool.Parameters(), "", "  "); err == nil {
			schema = string(raw)
		}
		lines = append(lines, fmt.Sprintf("- %s: %s\n  Parameters: %s", tool.Name(), tool.Description(), schema))
	}

	return "You are a helpful AI assistant with access to the following tools:\n" +
		strings.Join(lines, "\n") + "\n\n" +
		"Use the following format:\n" +
		"Question: input question you must answer\n" +
		"Thought: you should always think about what to do\n" +
		"Action: action to take, should be one of the tool names\n" +
		"Action Input: input to action as a valid JSON string matching the tool's parameter schema\n" +
		"Observation: result of action\n" +
		"... (this Thought/Action/Action Input/Observation can repeat N times)\n" +
		"Thought: I now know the final answer\n" +
		"Final Answer: final answer to the original input question\n\n" +
		"Begin!"
}

// act parses the Action/Action Input pair out of a model response,
// dispatches it, and renders the observation line. Only guardrail
// interrupts come back as an error.
func (a *GeneralAgent) act(ctx context.Context, runtime ToolRuntime, response string) (string, error) {
	actionMatch := actionPattern.FindStringSubmatch(response)
	inputMatch := actionInputPattern.FindStringSubmatch(response)
	if actionMatch == nil || inputMatch == nil {
		return "Observation: Failed to parse or execute action: could not parse Action or Action Input", nil
	}

	name := strings.TrimSpace(actionMatch[1])
	input := parseActionInput(name, inputMatch[1])

	result, err := runtime.Execute(ctx, tooling.Request{Name: name, Input: input})
	if err != nil {
		if _, ok := general.AsInterrupt(err); ok {
			return "", err
		}
		if errors.Is(err, tooling.ErrUnknownTool) {
			return fmt.Sprintf("Observation: Error: Tool '%s' not found.", name), nil
		}
		return fmt.Sprintf("Observation: Tool execution failed: %v", err), nil
	}

	rendered, err := json.Marshal(result.Output)
	if err != nil {
		return fmt.Sprintf("Observation: %v", result.Output), nil
	}
	return "Observation: " + string(rendered), nil
}

var inlineJSONPattern = regexp.MustCompile(`\{[^{}]*\}`)

// parseActionInput turns the raw Action Input text into a tool input
// map. Code fences and trailing Observation lines the model sometimes
// emits are stripped first; text that still will not parse as JSON is
// wrapped under "query" for web_search and "input" for everything else.
func parseActionInput(toolName, raw string) map[string]any {
	text := strings.TrimSpace(raw)
	text = StripCodeFence(text)
	if idx := strings.Index(text, "Observation:"); idx >= 0 {
		text = text[:idx]
	}
	text = strings.TrimSpace(text)

	var input map[string]any
	if err := json.Unmarshal([]byte(text), &input); err == nil {
		return input
	}
	if match := inlineJSONPattern.FindString(text); match != "" {
		if err := json.Unmarshal([]byte(match), &input); err == nil {
			return input
		}
	}

	if toolName == "web_search" {
		return map[string]any{"query": text}
	}
	return map[string]any{"input": text}
}
