package ui

import (
	"github.com/lepinkainen/tempotweak/job"
	"github.com/lepinkainen/tempotweak/video"
)

// JobEventMsg carries one controller event into the update loop
type JobEventMsg struct {
	Event job.Event
}

// EventsClosedMsg is sent once the controller's event stream ends
type EventsClosedMsg struct{}

// VideoInfoMsg reports the outcome of probing the selected input
type VideoInfoMsg struct {
	Path string
	Info *video.Info
	Err  error
}
