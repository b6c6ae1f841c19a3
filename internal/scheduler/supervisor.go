package scheduler

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/thejerf/suture/v4"
)

// NewSupervisor creates the root supervisor for the long-running services.
//
// Supervisor events are written to logger.
func NewSupervisor(name string, logger *log.Logger) *suture.Supervisor {
	return suture.New(name, suture.Spec{
		EventHook: func(e suture.Event) {
			kv := make([]any, 0, 2*len(e.Map()))
			for k, v := range e.Map() {
				kv = append(kv, k, v)
			}
			logger.Warn(e.String(), kv...)
		},
		FailureThreshold: 5,
		FailureDecay:     30,
		FailureBackoff:   15 * time.Second,
		Timeout:          10 * time.Second,
	})
}
