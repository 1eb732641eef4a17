package workflow

import "reelsmith/internal/queue"

// ConfigureStages registers the concrete stage handlers the workflow will run.
// Handlers left nil are skipped, which lets tests and partial deployments run
// a truncated pipeline (for example, generation without publishing).
func (m *Manager) ConfigureStages(set StageSet) {
	pipeline := pipelineState{}

	if set.ScriptGenerator != nil {
		pipeline.stages = append(pipeline.stages, pipelineStage{
			name:             "script-generator",
			handler:          set.ScriptGenerator,
			startStatus:      queue.StatusPending,
			processingStatus: queue.StatusScripting,
			doneStatus:       queue.StatusScripted,
		})
	}
	if set.Synthesizer != nil {
		pipeline.stages = append(pipeline.stages, pipelineStage{
			name:             "synthesizer",
			handler:          set.Synthesizer,
			startStatus:      queue.StatusScripted,
			processingStatus: queue.StatusSynthesizing,
			doneStatus:       queue.StatusSynthesized,
		})
	}
	if set.Composer != nil {
		pipeline.stages = append(pipeline.stages, pipelineStage{
			name:             "composer",
			handler:          set.Composer,
			startStatus:      queue.StatusSynthesized,
			processingStatus: queue.StatusComposing,
			doneStatus:       queue.StatusComposed,
		})
	}
	if set.Publisher != nil {
		pipeline.stages = append(pipeline.stages, pipelineStage{
			name:             "publisher",
			handler:          set.Publisher,
			startStatus:      queue.StatusComposed,
			processingStatus: queue.StatusPublishing,
			doneStatus:       queue.StatusCompleted,
		})
	}

	pipeline.finalize()

	m.mu.Lock()
	m.pipeline = pipeline
	m.mu.Unlock()
}
