package memory

import (
	"testing"

	"github.com/marmos91/filesmanager/pkg/queue"
	queuetesting "github.com/marmos91/filesmanager/pkg/queue/testing"
)

func TestMemoryQueue(t *testing.T) {
	suite := &queuetesting.QueueTestSuite{
		NewQueue: func(opts queue.Options) queue.Queue {
			return NewMemoryQueue(opts)
		},
	}

	suite.Run(t)
}
