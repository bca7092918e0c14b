// Package metrics emits per-operation measurements as single JSON lines in
// the CloudWatch Embedded Metric Format, so runs shipped to CloudWatch Logs
// are extracted automatically while local runs stay greppable.
//
// Emission is off until Configure enables it. Lines go to stderr by default
// so they never mix with the human-readable output on stdout.
package metrics

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"
)

// Namespace is the metric namespace used by every storyboard tool.
const Namespace = "Storyboard"

// Standard CloudWatch metric units.
const (
	UnitMilliseconds = "Milliseconds"
	UnitCount        = "Count"
	UnitBytes        = "Bytes"
)

// Metric names recorded by the tools.
const (
	GenerationMs           = "GenerationMs"
	SketchFallbacks        = "SketchFallbacks"
	EnhanceMs              = "EnhanceMs"
	ExternalEditorFailures = "ExternalEditorFailures"
	AnimationFrames        = "AnimationFrames"
	OutputBytes            = "OutputBytes"
)

type metricDef struct {
	Name string `json:"Name"`
	Unit string `json:"Unit"`
}

type emfDirective struct {
	Timestamp         int64      `json:"Timestamp"`
	CloudWatchMetrics []cwMetric `json:"CloudWatchMetrics"`
}

type cwMetric struct {
	Namespace  string      `json:"Namespace"`
	Dimensions [][]string  `json:"Dimensions"`
	Metrics    []metricDef `json:"Metrics"`
}

var (
	mu      sync.Mutex
	enabled bool
	out     io.Writer = os.Stderr
	tool    string
)

// Configure turns emission on or off and records the tool name added as
// the Tool dimension. A nil writer keeps the current destination.
func Configure(on bool, toolName string, w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	enabled = on
	tool = toolName
	if w != nil {
		out = w
	}
}

// Recorder accumulates dimensions, metrics and properties for one flush.
// It is not safe for concurrent use; create one per operation.
type Recorder struct {
	namespace  string
	dimensions map[string]string
	metrics    map[string]metricDef
	values     map[string]interface{}
	properties map[string]interface{}
}

// New creates a Recorder in the storyboard namespace, pre-populated with
// the Tool dimension when one was configured.
func New() *Recorder {
	r := &Recorder{
		namespace:  Namespace,
		dimensions: make(map[string]string),
		metrics:    make(map[string]metricDef),
		values:     make(map[string]interface{}),
		properties: make(map[string]interface{}),
	}
	mu.Lock()
	if tool != "" {
		r.dimensions["Tool"] = tool
	}
	mu.Unlock()
	return r
}

// Dimension adds an indexed key-value pair.
func (r *Recorder) Dimension(key, value string) *Recorder {
	r.dimensions[key] = value
	return r
}

// Metric records a named value with a CloudWatch unit.
func (r *Recorder) Metric(name string, value float64, unit string) *Recorder {
	r.metrics[name] = metricDef{Name: name, Unit: unit}
	r.values[name] = value
	return r
}

// Duration records d in milliseconds.
func (r *Recorder) Duration(name string, d time.Duration) *Recorder {
	return r.Metric(name, float64(d.Milliseconds()), UnitMilliseconds)
}

// Count records a count metric with value 1.
func (r *Recorder) Count(name string) *Recorder {
	return r.Metric(name, 1, UnitCount)
}

// Property adds a searchable, non-metric field.
func (r *Recorder) Property(key string, value interface{}) *Recorder {
	r.properties[key] = value
	return r
}

// Flush writes the document as one JSON line when emission is enabled and
// at least one metric was recorded. The Recorder should not be reused.
func (r *Recorder) Flush() {
	mu.Lock()
	on, w := enabled, out
	mu.Unlock()
	if !on || len(r.metrics) == 0 {
		return
	}

	data, err := r.marshal(time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "metrics: failed to marshal: %v\n", err)
		return
	}
	fmt.Fprintln(w, string(data))
}

func (r *Recorder) marshal(now time.Time) ([]byte, error) {
	doc := make(map[string]interface{})

	names := make([]string, 0, len(r.metrics))
	for name := range r.metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	defs := make([]metricDef, 0, len(names))
	for _, name := range names {
		defs = append(defs, r.metrics[name])
	}

	dimKeys := make([]string, 0, len(r.dimensions))
	for k := range r.dimensions {
		dimKeys = append(dimKeys, k)
	}
	sort.Strings(dimKeys)

	doc["_aws"] = emfDirective{
		Timestamp: now.UnixMilli(),
		CloudWatchMetrics: []cwMetric{{
			Namespace:  r.namespace,
			Dimensions: [][]string{dimKeys},
			Metrics:    defs,
		}},
	}

	for k, v := range r.properties {
		doc[k] = v
	}
	for k, v := range r.dimensions {
		doc[k] = v
	}
	for k, v := range r.values {
		doc[k] = v
	}

	return json.Marshal(doc)
}
