package experiment

import (
	logiserrors "github.com/odvcencio/logis/pkg/errors"
)

// Context is handed to user code by reference so it can record what a run
// used and produced. Reading a required value before it is set fails.
type Context struct {
	hyperparameters map[string]any
	metrics         map[string]any
	artifacts       map[string]any
	annotations     map[string]any
}

// NewContext returns an empty context.
func NewContext() *Context {
	return &Context{}
}

// SetHyperparameters replaces the recorded hyperparameters.
func (c *Context) SetHyperparameters(hyperparameters map[string]any) {
	c.hyperparameters = hyperparameters
}

// SetHyperparameter records a single hyperparameter.
func (c *Context) SetHyperparameter(key string, value any) {
	if c.hyperparameters == nil {
		c.hyperparameters = make(map[string]any)
	}
	c.hyperparameters[key] = value
}

// SetMetrics replaces the recorded metrics.
func (c *Context) SetMetrics(metrics map[string]any) {
	c.metrics = metrics
}

// LogMetric records a single metric.
func (c *Context) LogMetric(key string, value any) {
	if c.metrics == nil {
		c.metrics = make(map[string]any)
	}
	c.metrics[key] = value
}

// SetArtifacts records generated files or data references.
func (c *Context) SetArtifacts(artifacts map[string]any) {
	c.artifacts = artifacts
}

// Annotate attaches a free-form annotation to the run.
func (c *Context) Annotate(key string, value any) {
	if c.annotations == nil {
		c.annotations = make(map[string]any)
	}
	c.annotations[key] = value
}

// Hyperparameters returns the recorded hyperparameters.
func (c *Context) Hyperparameters() (map[string]any, error) {
	if len(c.hyperparameters) == 0 {
		return nil, logiserrors.New(logiserrors.ErrCodeValidation, "hyperparameters not set").
			WithRemediation("call SetHyperparameters or SetHyperparameter inside the experiment")
	}
	return c.hyperparameters, nil
}

// Metrics returns the recorded metrics.
func (c *Context) Metrics() (map[string]any, error) {
	if len(c.metrics) == 0 {
		return nil, logiserrors.New(logiserrors.ErrCodeValidation, "metrics not set").
			WithRemediation("call SetMetrics or LogMetric inside the experiment")
	}
	return c.metrics, nil
}

// Artifacts returns the recorded artifacts, or nil.
func (c *Context) Artifacts() map[string]any {
	return c.artifacts
}

// Annotations returns the recorded annotations, or nil.
func (c *Context) Annotations() map[string]any {
	return c.annotations
}

// Build turns the context into a validated run named name.
func (c *Context) Build(name string) (Run, error) {
	hyperparameters, err := c.Hyperparameters()
	if err != nil {
		return Run{}, err
	}
	metrics, err := c.Metrics()
	if err != nil {
		return Run{}, err
	}
	run := NewRun(name, hyperparameters, metrics)
	run.Artifacts = c.artifacts
	run.Annotations = c.annotations
	return run, nil
}
