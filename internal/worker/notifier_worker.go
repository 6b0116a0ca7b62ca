package worker

import (
	"github.com/spec-kit/claim-service/internal/service"
)

// StartNotifierWorker registers notification handlers.
func StartNotifierWorker(notifier *service.NotifierService) {
	if notifier == nil {
		return
	}
	notifier.RegisterHandlers()
}
