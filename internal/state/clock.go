package state

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

var (
	siteID  = uuid.NewString()
	counter uint64
)

// SiteID identifies this process in logs.
func SiteID() string { return siteID }

func nextStrokeID() string {
	return fmt.Sprintf("stroke-%s-%d", uuid.NewString()[:8], atomic.AddUint64(&counter, 1))
}
