package agents

import "github.com/nexgenlabs/studio/internal/port/provider"

// Pool bundles one instance of every agent behind a single handle so
// orchestrators take one dependency instead of five.
type Pool struct {
	Planning  *PlanningAgent
	Creative  *CreativeAgent
	Quality   *QualityAgent
	General   *GeneralAgent
	Formatter *FormatterAgent
}

// NewPool builds all agents on the same LLM backend.
func NewPool(llm provider.LLM) *Pool {
	return &Pool{
		Planning:  NewPlanningAgent(llm),
		Creative:  NewCreativeAgent(llm),
		Quality:   NewQualityAgent(llm),
		General:   NewGeneralAgent(llm),
		Formatter: NewFormatterAgent(llm),
	}
}
