package metrics

import "time"

const (
	OutcomeTranscript = "transcript"
	OutcomeEmpty      = "empty"
	OutcomeError      = "error"
)

type Recorder interface {
	SessionOpened()
	SessionClosed(lifetime time.Duration)
	ChunkReceived(bytes int)
	ChunkProcessed(outcome string)
	ChunkFailed(stage string)
	ObserveStage(stage string, elapsed time.Duration)
}

type Nop struct{}

func (Nop) SessionOpened()                     {}
func (Nop) SessionClosed(time.Duration)        {}
func (Nop) ChunkReceived(int)                  {}
func (Nop) ChunkProcessed(string)              {}
func (Nop) ChunkFailed(string)                 {}
func (Nop) ObserveStage(string, time.Duration) {}
