package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sami-patel/geoworkflow/internal/platform/apierr"
	"github.com/sami-patel/geoworkflow/internal/store"
)

// TaskTypeNotification delivers a notification summarizing the task's input,
// which the runner will have populated from a dependency's output when the
// step declares one.
const TaskTypeNotification = "notification"

type notificationOutput struct {
	Recipient string `json:"recipient"`
	Message   string `json:"message"`
}

// Notification is a stub delivery job: it has no external transport, and
// simply records the message it would have sent. Its purpose in this
// repository is to exercise the dependsOn input-threading contract, not to
// model a real notification channel.
type Notification struct{}

// Run implements registry.Job.
func (Notification) Run(_ context.Context, t *store.Task) (interface{}, error) {
	message := "workflow step completed"
	if t.Input != nil && *t.Input != "" {
		message = fmt.Sprintf("upstream result: %s", *t.Input)
	}

	out := notificationOutput{
		Recipient: t.ClientID,
		Message:   message,
	}
	if _, err := json.Marshal(out); err != nil {
		return nil, apierr.JobError("%s: %v", t.TaskType, err)
	}
	return out, nil
}
