package metrics

import "time"

// NoopMetrics is a no-operation implementation of Recorder
// All methods are empty and do nothing, providing zero overhead when metrics are disabled
type NoopMetrics struct{}

// Ensure NoopMetrics implements Recorder interface at compile time
var _ Recorder = (*NoopMetrics)(nil)

// NewNoopMetrics creates a new no-operation metrics recorder
func NewNoopMetrics() Recorder {
	return &NoopMetrics{}
}

func (n *NoopMetrics) RecordPartialKeyRequest(result string)                             {}
func (n *NoopMetrics) RecordProofSubmission(result string, duration time.Duration)       {}
func (n *NoopMetrics) RecordGrantRevoked()                                               {}
func (n *NoopMetrics) RecordPresign(success bool, duration time.Duration)                {}
func (n *NoopMetrics) RecordAssetURLIssued(kind string)                                  {}
func (n *NoopMetrics) RecordHTTPRequest(method, path, status string, d time.Duration)    {}
